package main

import (
	"os"

	"github.com/pterm/pterm"

	"github.com/calendsync/authbridge/internal/auth"
	"github.com/calendsync/authbridge/internal/config"
	"github.com/calendsync/authbridge/internal/logger"
	"github.com/calendsync/authbridge/internal/server"
	"github.com/calendsync/authbridge/internal/store/factory"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "authbridge",
	Short: "OAuth2 login bridge for the calendar app",
	Long: `Authbridge authenticates end users against Google's OAuth2
authorization-code flow and stores the resulting tokens and profile in the
shared users collection. It exposes two routes: /login and /callback.`,
	Run: runServer,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	// Place version check in PreRun to ensure flags are parsed first
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	config.InitFlags()
	rootCmd.PersistentFlags().AddFlagSet(pflag.CommandLine)
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
}

func runServer(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		pterm.Error.Printfln("Configuration error: %v", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(&cfg.Logging); err != nil {
		pterm.Error.Printfln("Logger error: %v", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	app := fx.New(
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.GetLogger()}
		}),
		factory.Module,
		auth.Module,
		server.Module,
	)

	app.Run()
}

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("authbridge version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Google  GoogleConfig  `mapstructure:"google"`
	Store   StoreConfig   `mapstructure:"store"`
	Auth    AuthConfig    `mapstructure:"auth"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// GoogleConfig holds the OAuth client registration issued by the provider.
// All fields are required at startup; the login flow cannot degrade without
// them, so Load fails instead of deferring the error to the first request.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
	Scopes       string `mapstructure:"scopes"` // space-separated, e.g. "openid email profile"
}

// ScopeList splits the configured scope string into individual scopes.
func (g GoogleConfig) ScopeList() []string {
	return strings.Fields(g.Scopes)
}

// StoreDriver selects the user-record storage backend.
type StoreDriver string

const (
	StoreDriverMongo  StoreDriver = "mongo"
	StoreDriverMemory StoreDriver = "memory"
)

type StoreConfig struct {
	Driver     StoreDriver `mapstructure:"driver"`
	URI        string      `mapstructure:"uri"`
	Database   string      `mapstructure:"database"`
	Collection string      `mapstructure:"collection"`
}

type AuthConfig struct {
	// Provider is the identity provider tag; google is the only one wired.
	Provider string `mapstructure:"provider"`
	// SuccessURL is the application page the user lands on after login,
	// with user_id appended as a query parameter.
	SuccessURL string `mapstructure:"success_url"`
	// StateCookieSecure marks the oauth_state cookie Secure. Off by default
	// so the flow works on a plain-HTTP localhost deployment.
	StateCookieSecure bool `mapstructure:"state_cookie_secure"`
}

// InitFlags initializes command line flags (without parsing)
func InitFlags() {
	pflag.String("store.driver", string(StoreDriverMongo), "User store driver (mongo|memory)")
	pflag.String("logging.level", "info", "Log level (debug|info|warn|error)")
	// Note: no pflag.Parse() here as it's called in main.go
}

func Load() (*Config, error) {
	viper.Reset() // Ensure clean state

	viper.SetEnvPrefix("AUTHBRIDGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Google credentials come in under their conventional names rather than
	// the AUTHBRIDGE_ prefix, so the same environment works for every
	// service sharing the registration.
	for key, env := range map[string]string{
		"google.client_id":     "GOOGLE_CLIENT_ID",
		"google.client_secret": "GOOGLE_CLIENT_SECRET",
		"google.redirect_uri":  "GOOGLE_REDIRECT_URI",
		"google.scopes":        "GOOGLE_SCOPES",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	setDefaults()

	// Optional ./config.yaml; environment alone is a complete configuration.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/authbridge")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("store.driver", string(StoreDriverMongo))
	viper.SetDefault("store.uri", "mongodb://localhost:27017")
	viper.SetDefault("store.database", "calendar_app")
	viper.SetDefault("store.collection", "users")
	viper.SetDefault("auth.provider", "google")
	viper.SetDefault("auth.success_url", "http://localhost:8080/dashboard")
	viper.SetDefault("auth.state_cookie_secure", false)
}

func validate(cfg *Config) error {
	required := []struct {
		value string
		env   string
	}{
		{cfg.Google.ClientID, "GOOGLE_CLIENT_ID"},
		{cfg.Google.ClientSecret, "GOOGLE_CLIENT_SECRET"},
		{cfg.Google.RedirectURI, "GOOGLE_REDIRECT_URI"},
		{cfg.Google.Scopes, "GOOGLE_SCOPES"},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required, please adjust the config or set the %s environment variable", strings.ToLower(r.env), r.env)
		}
	}

	switch cfg.Store.Driver {
	case StoreDriverMongo, StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}

	return nil
}

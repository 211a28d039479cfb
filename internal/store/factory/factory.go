// Package factory selects and opens the configured store driver.
package factory

import (
	"context"
	"fmt"

	"github.com/calendsync/authbridge/internal/config"
	"github.com/calendsync/authbridge/internal/logger"
	"github.com/calendsync/authbridge/internal/store"
	"github.com/calendsync/authbridge/internal/store/memory"
	mongostore "github.com/calendsync/authbridge/internal/store/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the user store dependencies
var Module = fx.Module("store",
	fx.Provide(
		NewStore,
	),
)

// Open builds a Store for the configured driver.
func Open(ctx context.Context, cfg *config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.StoreDriverMongo:
		return mongostore.New(ctx, cfg)
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory user store, records will not survive a restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// NewStore opens the configured driver and ties its lifetime to the fx
// lifecycle.
func NewStore(lc fx.Lifecycle, cfg *config.Config) (store.Store, error) {
	s, err := Open(context.Background(), &cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	logger.Info("User store ready", zap.String("driver", string(cfg.Store.Driver)))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return s.Close(ctx)
		},
	})

	return s, nil
}

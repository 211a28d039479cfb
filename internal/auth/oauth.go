package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/calendsync/authbridge/internal/auth/constants"
	"github.com/calendsync/authbridge/internal/auth/handlers"
	"github.com/calendsync/authbridge/internal/auth/providers"
	"github.com/calendsync/authbridge/internal/config"
	"github.com/calendsync/authbridge/internal/store"
)

// ErrInvalidOAuthProvider indicates an unsupported OAuth provider was specified
var ErrInvalidOAuthProvider = fmt.Errorf("unsupported OAuth provider")

// Service represents the OAuth login service
type Service struct {
	config   *config.AuthConfig
	provider providers.Provider
	handler  *handlers.Handler
}

// NewService creates a new OAuth login service
func NewService(cfg *config.Config, provider providers.Provider, userStore store.Store) (*Service, error) {
	return &Service{
		config:   &cfg.Auth,
		provider: provider,
		handler:  handlers.NewHandler(&cfg.Auth, provider, userStore),
	}, nil
}

// NewProvider builds the identity provider selected by configuration.
func NewProvider(cfg *config.Config) (providers.Provider, error) {
	switch cfg.Auth.Provider {
	case constants.ProviderGoogle:
		provider, err := providers.NewGoogleProvider(context.Background(), &cfg.Google)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize provider %s: %w", cfg.Auth.Provider, err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidOAuthProvider, cfg.Auth.Provider)
	}
}

// RegisterRoutes registers the login flow routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/login", s.handler.HandleLogin)
	mux.HandleFunc("/callback", s.handler.HandleCallback)
}

// GetProvider returns the configured identity provider
func (s *Service) GetProvider() providers.Provider {
	return s.provider
}

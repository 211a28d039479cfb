package providers

import (
	"context"

	"github.com/calendsync/authbridge/internal/auth/models"
	"golang.org/x/oauth2"
)

// Provider abstracts provider-specific OAuth operations. Implementations
// own every provider quirk, including profile field naming, so callers only
// ever see normalized models.Profile values.
type Provider interface {
	// Name returns the provider tag stored on persisted user records.
	Name() string

	// AuthCodeURL generates the authorization URL for the given state token.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for tokens. Codes are
	// single-use; failures are final and must not be retried.
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)

	// FetchUserInfo retrieves the authenticated user's profile using the
	// exchanged token.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*models.Profile, error)
}

package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/calendsync/authbridge/internal/auth/constants"
	"github.com/calendsync/authbridge/internal/auth/models"
	"github.com/calendsync/authbridge/internal/config"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleIssuer      = "https://accounts.google.com"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

var (
	// ErrMissingClientID is returned when the OAuth client ID is not configured.
	ErrMissingClientID = errors.New("providers: missing client ID")

	// ErrMissingClientSecret is returned when the OAuth client secret is not configured.
	ErrMissingClientSecret = errors.New("providers: missing client secret")

	// ErrSubjectMismatch is returned when the verified ID token belongs to a
	// different user than the profile endpoint reports.
	ErrSubjectMismatch = errors.New("providers: id_token subject does not match profile")
)

// GoogleProvider implements Provider for Google's OAuth2 / OIDC surface.
type GoogleProvider struct {
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	httpClient   *http.Client
}

// NewGoogleProvider creates a Google provider from the configured client
// registration. Endpoint discovery and ID-token verification go through the
// OIDC issuer, so construction performs one network round trip.
func NewGoogleProvider(ctx context.Context, cfg *config.GoogleConfig, opts ...Option) (*GoogleProvider, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	issuer := o.issuer
	if issuer == "" {
		issuer = googleIssuer
	}
	if o.httpClient != nil {
		ctx = oidc.ClientContext(ctx, o.httpClient)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	endpoint := provider.Endpoint()
	if o.issuer == "" {
		endpoint = google.Endpoint
	}

	scopes := cfg.ScopeList()
	if len(scopes) == 0 {
		scopes = constants.DefaultScopes
	}

	return &GoogleProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		verifier:   provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		httpClient: o.httpClient,
	}, nil
}

// Name returns the provider tag.
func (p *GoogleProvider) Name() string {
	return constants.ProviderGoogle
}

// AuthCodeURL generates the authorization URL. Offline access is requested
// so a refresh token is issued, previously granted scopes are kept, and the
// account chooser is always shown.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange trades an authorization code for tokens.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.oauth2Config.Exchange(p.contextWithHTTPClient(ctx), code)
}

// FetchUserInfo retrieves the authenticated user's profile. When the token
// response carried an id_token it is verified first and its subject must
// match the profile's id.
func (p *GoogleProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*models.Profile, error) {
	verifiedSub := ""
	if rawIDToken, ok := token.Extra("id_token").(string); ok {
		idToken, err := p.verifier.Verify(oidc.ClientContext(ctx, p.client()), rawIDToken)
		if err != nil {
			return nil, fmt.Errorf("failed to verify ID token: %w", err)
		}
		verifiedSub = idToken.Subject
	}

	ctx = p.contextWithHTTPClient(ctx)
	client := p.oauth2Config.Client(ctx, token)

	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to call userinfo endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo request failed: status=%d body=%s", resp.StatusCode, body)
	}

	var googleUser googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	if verifiedSub != "" && verifiedSub != googleUser.ID {
		return nil, ErrSubjectMismatch
	}

	return &models.Profile{
		ID:            googleUser.ID,
		Email:         googleUser.Email,
		Name:          googleUser.Name,
		GivenName:     googleUser.GivenName,
		Surname:       googleUser.FamilyName,
		Picture:       googleUser.Picture,
		EmailVerified: googleUser.VerifiedEmail,
	}, nil
}

func (p *GoogleProvider) client() *http.Client {
	if p.httpClient != nil {
		return p.httpClient
	}
	return http.DefaultClient
}

func (p *GoogleProvider) contextWithHTTPClient(ctx context.Context) context.Context {
	if p.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}
	return ctx
}

// googleUserInfo represents the response from Google's userinfo endpoint.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
	VerifiedEmail bool   `json:"verified_email"`
}

package providers

import "net/http"

// Option configures a provider.
type Option func(*options)

type options struct {
	httpClient *http.Client
	issuer     string
}

// WithHTTPClient sets a custom HTTP client for token exchange and profile
// requests. Useful for testing with httptest servers or injecting custom
// transports.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithIssuer overrides the OIDC issuer the provider discovers its endpoints
// from. Tests point this at a local discovery document.
func WithIssuer(issuer string) Option {
	return func(o *options) {
		o.issuer = issuer
	}
}

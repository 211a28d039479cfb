package constants

const (
	// StateCookieName is the cookie carrying the anti-forgery state token
	// between login initiation and the provider callback.
	StateCookieName = "oauth_state"

	// ProviderGoogle is the provider tag stored on user records issued by
	// Google. The users collection is shared across identity providers and
	// this field is the discriminator.
	ProviderGoogle = "google"
)

// OAuth scopes requested when none are configured
var DefaultScopes = []string{"openid", "profile", "email"}

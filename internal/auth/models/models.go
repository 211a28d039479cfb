package models

// Profile represents authenticated user information normalized from a
// provider's profile endpoint. Provider-specific field names (e.g. Google's
// family_name) are mapped here once, so everything downstream is
// provider-agnostic.
type Profile struct {
	ID            string // provider-issued unique identifier
	Email         string
	Name          string
	GivenName     string
	Surname       string
	Picture       string
	EmailVerified bool
}

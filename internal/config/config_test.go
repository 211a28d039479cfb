package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")
	t.Setenv("GOOGLE_REDIRECT_URI", "http://localhost:8080/callback")
	t.Setenv("GOOGLE_SCOPES", "openid email")
}

func TestLoad_FromEnvironment(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "client-id", cfg.Google.ClientID)
	assert.Equal(t, "client-secret", cfg.Google.ClientSecret)
	assert.Equal(t, "http://localhost:8080/callback", cfg.Google.RedirectURI)
	assert.Equal(t, []string{"openid", "email"}, cfg.Google.ScopeList())
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, StoreDriverMongo, cfg.Store.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Store.URI)
	assert.Equal(t, "calendar_app", cfg.Store.Database)
	assert.Equal(t, "users", cfg.Store.Collection)
	assert.Equal(t, "google", cfg.Auth.Provider)
	assert.Equal(t, "http://localhost:8080/dashboard", cfg.Auth.SuccessURL)
	assert.False(t, cfg.Auth.StateCookieSecure)
}

func TestLoad_MissingRequired(t *testing.T) {
	required := []string{
		"GOOGLE_CLIENT_ID",
		"GOOGLE_CLIENT_SECRET",
		"GOOGLE_REDIRECT_URI",
		"GOOGLE_SCOPES",
	}
	for _, env := range required {
		t.Run(env, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(env, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), env)
		})
	}
}

func TestLoad_EnvPrefixOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTHBRIDGE_STORE_DRIVER", "memory")
	t.Setenv("AUTHBRIDGE_AUTH_SUCCESS_URL", "https://app.example.com/home")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, "https://app.example.com/home", cfg.Auth.SuccessURL)
}

func TestLoad_InvalidStoreDriver(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("AUTHBRIDGE_STORE_DRIVER", "cassandra")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestScopeList_SplitsOnWhitespace(t *testing.T) {
	g := GoogleConfig{Scopes: "openid  email \tprofile"}
	assert.Equal(t, []string{"openid", "email", "profile"}, g.ScopeList())
}

func TestGetVersionInfo(t *testing.T) {
	info := GetVersionInfo()
	assert.True(t, strings.HasPrefix(info, "authbridge version"))
}

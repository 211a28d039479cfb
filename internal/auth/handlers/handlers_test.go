package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/calendsync/authbridge/internal/auth/constants"
	"github.com/calendsync/authbridge/internal/auth/models"
	"github.com/calendsync/authbridge/internal/config"
	"github.com/calendsync/authbridge/internal/store"
	"github.com/calendsync/authbridge/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// mockProvider implements providers.Provider for testing
type mockProvider struct {
	token       *oauth2.Token
	profile     *models.Profile
	exchangeErr error
	profileErr  error
}

func (m *mockProvider) Name() string {
	return constants.ProviderGoogle
}

func (m *mockProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/authorize?access_type=offline&state=" + url.QueryEscape(state)
}

func (m *mockProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if m.exchangeErr != nil {
		return nil, m.exchangeErr
	}
	return m.token, nil
}

func (m *mockProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*models.Profile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profile, nil
}

// failingStore implements store.Store and rejects every write
type failingStore struct{}

func (f *failingStore) UpsertUser(ctx context.Context, user *store.User) error {
	return errors.New("write failed")
}

func (f *failingStore) GetUser(ctx context.Context, provider, userID string) (*store.User, error) {
	return nil, store.ErrNotFound
}

func (f *failingStore) Close(ctx context.Context) error { return nil }

func authConfig() *config.AuthConfig {
	return &config.AuthConfig{
		Provider:   constants.ProviderGoogle,
		SuccessURL: "http://localhost:8080/dashboard",
	}
}

func defaultMock() *mockProvider {
	return &mockProvider{
		token: &oauth2.Token{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Expiry:       time.Now().Add(time.Hour),
		},
		profile: &models.Profile{
			ID:        "42",
			Email:     "a@b.com",
			Name:      "Ada Lovelace",
			GivenName: "Ada",
			Surname:   "Lovelace",
			Picture:   "https://example.com/ada.jpg",
		},
	}
}

func stateCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == constants.StateCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie set", constants.StateCookieName)
	return nil
}

func callback(h *Handler, state, code string, cookieValue string) *httptest.ResponseRecorder {
	q := url.Values{}
	if state != "" {
		q.Set("state", state)
	}
	if code != "" {
		q.Set("code", code)
	}
	req := httptest.NewRequest(http.MethodGet, "/callback?"+q.Encode(), nil)
	if cookieValue != "" {
		req.AddCookie(&http.Cookie{Name: constants.StateCookieName, Value: cookieValue})
	}
	rec := httptest.NewRecorder()
	h.HandleCallback(rec, req)
	return rec
}

func TestHandleLogin_StateMatchesCookie(t *testing.T) {
	h := NewHandler(authConfig(), defaultMock(), memory.New())

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	h.HandleLogin(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Result().Header.Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.NotEmpty(t, state)

	cookie := stateCookie(t, rec)
	assert.Equal(t, state, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)
}

func TestHandleLogin_UniqueStatePerRequest(t *testing.T) {
	h := NewHandler(authConfig(), defaultMock(), memory.New())

	states := make(map[string]bool)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.HandleLogin(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
		states[stateCookie(t, rec).Value] = true
	}
	assert.Len(t, states, 3)
}

func TestHandleLogin_MethodNotAllowed(t *testing.T) {
	h := NewHandler(authConfig(), defaultMock(), memory.New())

	rec := httptest.NewRecorder()
	h.HandleLogin(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleCallback_StateMismatch(t *testing.T) {
	h := NewHandler(authConfig(), defaultMock(), memory.New())

	rec := callback(h, "abc", "goodcode", "xyz")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "State mismatch")
}

func TestHandleCallback_MissingState(t *testing.T) {
	h := NewHandler(authConfig(), defaultMock(), memory.New())

	rec := callback(h, "", "goodcode", "xyz")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "State mismatch")
}

func TestHandleCallback_MissingCookie(t *testing.T) {
	h := NewHandler(authConfig(), defaultMock(), memory.New())

	rec := callback(h, "abc", "goodcode", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "State mismatch")
}

func TestHandleCallback_MissingCode(t *testing.T) {
	h := NewHandler(authConfig(), defaultMock(), memory.New())

	rec := callback(h, "abc", "", "abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No code in callback")
}

func TestHandleCallback_Success(t *testing.T) {
	userStore := memory.New()
	h := NewHandler(authConfig(), defaultMock(), userStore)

	rec := callback(h, "abc", "goodcode", "abc")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:8080/dashboard?user_id=42", rec.Result().Header.Get("Location"))

	// Spent state cookie is dropped
	cookie := stateCookie(t, rec)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)

	user, err := userStore.GetUser(context.Background(), constants.ProviderGoogle, "42")
	require.NoError(t, err)
	assert.Equal(t, "42", user.UserID)
	assert.Equal(t, constants.ProviderGoogle, user.Provider)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, "Ada Lovelace", user.DisplayName)
	assert.Equal(t, "Ada", user.GivenName)
	assert.Equal(t, "Lovelace", user.Surname)
	assert.Equal(t, "access-1", user.AccessToken)
	assert.Equal(t, "refresh-1", user.RefreshToken)
	assert.False(t, user.LastLogin.IsZero())
}

func TestHandleCallback_RepeatLoginUpdatesInPlace(t *testing.T) {
	userStore := memory.New()
	h := NewHandler(authConfig(), defaultMock(), userStore)

	first := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return first }
	require.Equal(t, http.StatusFound, callback(h, "abc", "goodcode", "abc").Code)

	second := first.Add(time.Hour)
	h.now = func() time.Time { return second }
	require.Equal(t, http.StatusFound, callback(h, "def", "newcode", "def").Code)

	assert.Equal(t, 1, userStore.Count())

	user, err := userStore.GetUser(context.Background(), constants.ProviderGoogle, "42")
	require.NoError(t, err)
	assert.Equal(t, second, user.LastLogin)
	assert.Equal(t, first, user.CreatedAt)
}

func TestHandleCallback_AbsentRefreshTokenPreserved(t *testing.T) {
	userStore := memory.New()
	provider := defaultMock()
	h := NewHandler(authConfig(), provider, userStore)

	require.Equal(t, http.StatusFound, callback(h, "abc", "goodcode", "abc").Code)

	// Consent-less repeat login: no refresh token issued this time
	provider.token = &oauth2.Token{AccessToken: "access-2", Expiry: time.Now().Add(time.Hour)}
	require.Equal(t, http.StatusFound, callback(h, "def", "newcode", "def").Code)

	user, err := userStore.GetUser(context.Background(), constants.ProviderGoogle, "42")
	require.NoError(t, err)
	assert.Equal(t, "access-2", user.AccessToken)
	assert.Equal(t, "refresh-1", user.RefreshToken)
}

func TestHandleCallback_ExchangeFailure(t *testing.T) {
	provider := defaultMock()
	provider.exchangeErr = errors.New("invalid_grant")
	h := NewHandler(authConfig(), provider, memory.New())

	rec := callback(h, "abc", "badcode", "abc")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "token_exchange_failed")
}

func TestHandleCallback_ProfileFetchFailure(t *testing.T) {
	provider := defaultMock()
	provider.profileErr = errors.New("userinfo 403")
	h := NewHandler(authConfig(), provider, memory.New())

	rec := callback(h, "abc", "goodcode", "abc")
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "profile_fetch_failed")
}

func TestHandleCallback_PersistenceFailure(t *testing.T) {
	h := NewHandler(authConfig(), defaultMock(), &failingStore{})

	rec := callback(h, "abc", "goodcode", "abc")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "persistence_failed")
}

func TestSuccessRedirect_PreservesExistingQuery(t *testing.T) {
	cfg := authConfig()
	cfg.SuccessURL = "http://localhost:8080/dashboard?tab=week"
	h := NewHandler(cfg, defaultMock(), memory.New())

	u, err := url.Parse(h.successRedirect("42"))
	require.NoError(t, err)
	assert.Equal(t, "42", u.Query().Get("user_id"))
	assert.Equal(t, "week", u.Query().Get("tab"))
}

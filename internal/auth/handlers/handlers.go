// Package handlers implements the two HTTP operations of the login flow:
// initiation and the provider callback.
package handlers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/calendsync/authbridge/internal/auth/constants"
	"github.com/calendsync/authbridge/internal/auth/providers"
	"github.com/calendsync/authbridge/internal/config"
	"github.com/calendsync/authbridge/internal/logger"
	"github.com/calendsync/authbridge/internal/store"
	"github.com/calendsync/authbridge/internal/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles the login and callback HTTP requests
type Handler struct {
	provider     providers.Provider
	store        store.Store
	successURL   string
	secureCookie bool

	now func() time.Time
}

// NewHandler creates a new Handler instance
func NewHandler(cfg *config.AuthConfig, provider providers.Provider, userStore store.Store) *Handler {
	return &Handler{
		provider:     provider,
		store:        userStore,
		successURL:   cfg.SuccessURL,
		secureCookie: cfg.StateCookieSecure,
		now:          time.Now,
	}
}

// HandleLogin initiates the authorization-code flow: it generates a random
// state token, stores it in a session cookie, and redirects the user to the
// provider's consent screen.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     constants.StateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
	})

	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback completes the flow. The steps are strictly linear and none
// of them is retried: the state check is the CSRF defense, and a failed code
// exchange cannot succeed on a second attempt because codes are single-use.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	incomingState := r.URL.Query().Get("state")
	cookie, err := r.Cookie(constants.StateCookieName)
	if incomingState == "" || err != nil || cookie.Value != incomingState {
		utils.WriteError(w, "invalid_state", "State mismatch", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		utils.WriteError(w, "invalid_request", "No code in callback", http.StatusBadRequest)
		return
	}

	token, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		logger.Error("Failed to exchange authorization code",
			zap.String("provider", h.provider.Name()), zap.Error(err))
		utils.WriteError(w, "token_exchange_failed", "Token exchange with provider failed", http.StatusBadGateway)
		return
	}

	profile, err := h.provider.FetchUserInfo(r.Context(), token)
	if err != nil {
		logger.Error("Failed to fetch user profile",
			zap.String("provider", h.provider.Name()), zap.Error(err))
		utils.WriteError(w, "profile_fetch_failed", "Fetching user profile from provider failed", http.StatusBadGateway)
		return
	}

	user := &store.User{
		UserID:       profile.ID,
		Provider:     h.provider.Name(),
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		DisplayName:  profile.Name,
		Email:        profile.Email,
		GivenName:    profile.GivenName,
		Surname:      profile.Surname,
		Picture:      profile.Picture,
		LastLogin:    h.now().UTC(),
	}

	if err := h.store.UpsertUser(r.Context(), user); err != nil {
		logger.Error("Failed to persist user record",
			zap.String("user_id", user.UserID), zap.Error(err))
		utils.WriteError(w, "persistence_failed", "Storing user record failed", http.StatusInternalServerError)
		return
	}

	// The state token is single-use; drop the cookie now that it is spent.
	http.SetCookie(w, &http.Cookie{
		Name:     constants.StateCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		MaxAge:   -1,
	})

	logger.Info("User logged in",
		zap.String("provider", user.Provider),
		zap.String("user_id", user.UserID),
	)

	http.Redirect(w, r, h.successRedirect(user.UserID), http.StatusFound)
}

func (h *Handler) successRedirect(userID string) string {
	u, err := url.Parse(h.successURL)
	if err != nil {
		return h.successURL + "?user_id=" + url.QueryEscape(userID)
	}
	q := u.Query()
	q.Set("user_id", userID)
	u.RawQuery = q.Encode()
	return u.String()
}

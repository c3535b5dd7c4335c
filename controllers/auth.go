package controllers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"gitea.com/go-chi/session"
	"github.com/rs/zerolog/log"

	"github.com/AXI0MH1VE/State-Inverant/authenticator"
	"github.com/AXI0MH1VE/State-Inverant/middleware"
	"github.com/AXI0MH1VE/State-Inverant/services"
)

const stateKey = "state"

// AuthController handles operator login through an OpenID Connect provider
type AuthController struct {
	provider authenticator.Provider
	services *services.Services
}

// NewAuthController creates a new auth controller; provider may be nil when login is disabled
func NewAuthController(provider authenticator.Provider, services *services.Services) *AuthController {
	return &AuthController{provider: provider, services: services}
}

// Enabled reports whether operator login is configured
func (ac *AuthController) Enabled() bool {
	return ac.provider != nil
}

// Login handles GET /login
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	if !ac.Enabled() {
		http.NotFound(w, r)
		return
	}

	state, err := generateRandomState()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Save the state in the session to validate in callback
	sess := session.GetSession(r)
	sess.Set(stateKey, state)

	http.Redirect(w, r, ac.provider.GetAuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles GET /callback
func (ac *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	if !ac.Enabled() {
		http.NotFound(w, r)
		return
	}

	sess := session.GetSession(r)

	storedState, ok := sess.Get(stateKey).(string)
	if !ok || storedState == "" {
		http.Error(w, "State not found in session", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != storedState {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}
	sess.Delete(stateKey)

	token, err := ac.provider.ExchangeCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to exchange authorization code")
		http.Error(w, "Failed to exchange authorization code for a token", http.StatusUnauthorized)
		return
	}

	claims, err := ac.provider.GetClaims(r.Context(), token)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to verify ID token")
		http.Error(w, "Failed to verify ID token", http.StatusUnauthorized)
		return
	}

	sub := claims.String("sub")
	if sub == "" {
		http.Error(w, "ID token has no subject", http.StatusUnauthorized)
		return
	}

	// Try nickname, then name, then email, then sub
	displayName := claims.String("nickname")
	if displayName == "" {
		displayName = claims.String("name")
	}
	if displayName == "" {
		displayName = claims.String("email")
	}
	if displayName == "" {
		displayName = sub
	}

	sess.Set(middleware.SessionUserID, sub)
	sess.Set(middleware.SessionUserEmail, claims.String("email"))
	sess.Set(middleware.SessionUserName, displayName)

	log.Info().Str("user", displayName).Msg("Operator signed in")

	redirect := "/"
	if target, ok := sess.Get(middleware.SessionRedirectAfter).(string); ok && target != "" {
		redirect = target
		sess.Delete(middleware.SessionRedirectAfter)
	}
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

// Logout handles GET /logout
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)

	ac.services.Command.Release(sess.ID())
	for _, key := range []string{middleware.SessionUserID, middleware.SessionUserEmail, middleware.SessionUserName} {
		sess.Delete(key)
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// generateRandomState generates a random state value for CSRF protection
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

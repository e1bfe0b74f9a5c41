package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/rental-spots/internal/auth"
	"github.com/sakif/rental-spots/internal/service"
)

const stateCookieName = "oauth_state"

// OAuthProvider is the part of auth.GitHubProvider the login flow uses.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// GitHubHandler runs the "Sign in with GitHub" flow. It is only routed when
// GitHub credentials are configured.
type GitHubHandler struct {
	provider     OAuthProvider
	auth         *service.AuthService
	cookieSecure bool
	logger       *slog.Logger
}

func NewGitHubHandler(provider OAuthProvider, authSvc *service.AuthService, cookieSecure bool, logger *slog.Logger) *GitHubHandler {
	return &GitHubHandler{
		provider:     provider,
		auth:         authSvc,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// Login redirects the browser to GitHub's authorization page.
//
// HTTP: GET /api/auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state value goes into a short-lived HttpOnly cookie and into the
// authorization URL. Callback only proceeds when GitHub hands the same value
// back, which proves this server started the flow.
func (h *GitHubHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback completes the flow.
//
// HTTP: GET /api/auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Check the state against the cookie
//  2. Exchange the code for the GitHub profile
//  3. Find, link or create the local user
//  4. Set the session cookie and redirect to the app
func (h *GitHubHandler) Callback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: CSRF state ---
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("github callback: missing state cookie")
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid OAuth state"})
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("github callback: state mismatch")
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Invalid OAuth state"})
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{
		Name:   stateCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("github callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Missing OAuth code"})
		return
	}

	// --- Step 2: exchange ---
	ghUser, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("github callback: exchange failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	// --- Step 3: local user ---
	result, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("github callback: sign-in failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	// --- Step 4: session ---
	auth.SetSessionCookie(w, result.Token, h.auth.TokenTTL(), h.cookieSecure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

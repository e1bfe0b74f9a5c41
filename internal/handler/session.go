package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/rental-spots/internal/apperror"
	"github.com/sakif/rental-spots/internal/auth"
	"github.com/sakif/rental-spots/internal/model"
	"github.com/sakif/rental-spots/internal/service"
)

// SessionHandler signs users up, in and out with email and password.
//
// The session is a JWT in the HttpOnly "token" cookie; auth.RestoreUser
// reads it back on every request.
type SessionHandler struct {
	auth         *service.AuthService
	cookieSecure bool
	logger       *slog.Logger
}

func NewSessionHandler(authSvc *service.AuthService, cookieSecure bool, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		auth:         authSvc,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// UserResponse is the body of every session endpoint. User is null when
// nobody is signed in.
type UserResponse struct {
	User *model.SessionUser `json:"user"`
}

// Signup creates an account and signs it in.
//
// HTTP: POST /api/users
// REQUEST BODY: {"firstName","lastName","email","password"}
func (h *SessionHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if err := decode(r, &in, service.SignupMessages); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Signup(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetSessionCookie(w, result.Token, h.auth.TokenTTL(), h.cookieSecure)
	writeJSON(w, http.StatusCreated, UserResponse{User: result.User.Session()})
}

// Login signs in with email and password.
//
// HTTP: POST /api/session
// REQUEST BODY: {"email","password"}
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decode(r, &in, service.LoginMessages); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), in)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			h.logger.Warn("login failed", slog.String("remoteAddr", r.RemoteAddr))
		}
		writeError(w, err)
		return
	}

	auth.SetSessionCookie(w, result.Token, h.auth.TokenTTL(), h.cookieSecure)
	writeJSON(w, http.StatusOK, UserResponse{User: result.User.Session()})
}

// Restore returns the signed-in user, or {"user": null}.
//
// HTTP: GET /api/session
func (h *SessionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, UserResponse{})
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		// A valid token for a user that no longer exists.
		if errors.Is(err, apperror.ErrNotFound) {
			h.logger.Info("session user no longer exists", slog.Int64("userID", userID))
			auth.ClearSessionCookie(w, h.cookieSecure)
			writeJSON(w, http.StatusOK, UserResponse{})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserResponse{User: user.Session()})
}

// Logout clears the session cookie. The token itself stays valid until it
// expires; without the cookie the browser no longer sends it.
//
// HTTP: DELETE /api/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		h.logger.Info("user logged out", slog.Int64("userID", userID))
	}
	auth.ClearSessionCookie(w, h.cookieSecure)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "success"})
}

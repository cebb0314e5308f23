package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/reelshelf/reelshelf-go/internal/middleware"
	"github.com/reelshelf/reelshelf-go/internal/model"
	"github.com/reelshelf/reelshelf-go/internal/repository"
	"github.com/reelshelf/reelshelf-go/internal/service"
	"github.com/reelshelf/reelshelf-go/internal/session"
	"github.com/reelshelf/reelshelf-go/internal/validate"
)

// Authenticator signs users in and reloads their identity.
type Authenticator interface {
	Authenticate(ctx context.Context, creds model.Credentials) (model.Identity, error)
	CurrentUser(ctx context.Context, id string) (model.Identity, error)
}

// SessionStore writes, reads and clears the session cookie.
type SessionStore interface {
	Issue(w http.ResponseWriter, identity model.Identity) (session.Session, error)
	Clear(w http.ResponseWriter)
	Read(r *http.Request) (session.Session, error)
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service  Authenticator
	sessions SessionStore
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc Authenticator, sessions SessionStore) *AuthHandler {
	return &AuthHandler{service: svc, sessions: sessions}
}

// HandleSignIn handles POST /api/v1/auth/signin requests. An unknown email
// creates the account; a known one must match its password.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if !decodeJSON(w, r, &creds) {
		return
	}

	identity, err := h.service.Authenticate(r.Context(), creds)
	if err != nil {
		var ve *validate.ValidationError
		switch {
		case errors.As(err, &ve):
			writeValidationError(w, ve)
		case errors.Is(err, service.ErrInvalidCredentials):
			writeJSON(w, http.StatusUnauthorized, errorResponse("invalid email or password"))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		}
		return
	}

	sess, err := h.sessions.Issue(w, identity)
	if err != nil {
		slog.ErrorContext(r.Context(), "session issue failed", "user_id", identity.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, model.SessionResponse{User: sess.Identity, ExpiresAt: sess.ExpiresAt})
}

// HandleSignOut handles POST /api/v1/auth/signout requests.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession handles GET /api/v1/auth/session requests.
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Read(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	writeJSON(w, http.StatusOK, model.SessionResponse{User: sess.Identity, ExpiresAt: sess.ExpiresAt})
}

// HandleMe handles GET /api/v1/auth/me requests. Unlike the session view it
// reloads the account from the store.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	current, err := h.service.CurrentUser(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.sessions.Clear(w)
			writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
		return
	}

	writeJSON(w, http.StatusOK, current)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reelshelf/reelshelf-go/internal/crypto"
	"github.com/reelshelf/reelshelf-go/internal/metrics"
	"github.com/reelshelf/reelshelf-go/internal/model"
	"github.com/reelshelf/reelshelf-go/internal/repository"
	"github.com/reelshelf/reelshelf-go/internal/validate"
)

// AuthReason tags why an authentication attempt failed.
type AuthReason string

const (
	ReasonInvalidFormat      AuthReason = "invalid_format"
	ReasonInvalidCredentials AuthReason = "invalid_credentials"
	ReasonInternalError      AuthReason = "internal_error"
)

// AuthFailure is the only error type Authenticate returns.
type AuthFailure struct {
	Reason AuthReason
	Err    error
}

func (e *AuthFailure) Error() string {
	switch e.Reason {
	case ReasonInvalidFormat:
		if e.Err != nil {
			return "invalid credentials format: " + e.Err.Error()
		}
		return "invalid credentials format"
	case ReasonInvalidCredentials:
		return "invalid email or password"
	default:
		return "authentication failed"
	}
}

func (e *AuthFailure) Unwrap() error { return e.Err }

// Retryable reports whether the caller may retry the same input.
func (e *AuthFailure) Retryable() bool { return e.Reason == ReasonInternalError }

// Reason-only failures for matching with errors.Is.
var (
	ErrInvalidFormat      = &AuthFailure{Reason: ReasonInvalidFormat}
	ErrInvalidCredentials = &AuthFailure{Reason: ReasonInvalidCredentials}
	ErrAuthInternal       = &AuthFailure{Reason: ReasonInternalError}
)

// Is lets errors.Is match failures by reason.
func (e *AuthFailure) Is(target error) bool {
	t, ok := target.(*AuthFailure)
	return ok && t.Err == nil && t.Reason == e.Reason
}

// UserStore is the persistence the auth flow depends on.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

// AuthService implements sign-in with create-on-first-use semantics.
type AuthService struct {
	users  UserStore
	hash   func(password string) (string, error)
	verify func(password, hash string) (bool, error)
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore) *AuthService {
	return &AuthService{
		users:  users,
		hash:   crypto.HashPassword,
		verify: crypto.VerifyPassword,
	}
}

// Authenticate validates the credentials, then either provisions a new account
// for an unseen email or verifies the password of the existing one. Every
// failure is an *AuthFailure; nothing escapes untagged.
func (s *AuthService) Authenticate(ctx context.Context, raw model.Credentials) (identity model.Identity, err error) {
	result := "error"
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "authenticate panicked", "panic", r)
			identity, err = model.Identity{}, internalFailure(fmt.Errorf("panic: %v", r))
		}
		if err != nil {
			var af *AuthFailure
			if errors.As(err, &af) {
				result = string(af.Reason)
			}
		}
		metrics.AuthEvents.WithLabelValues("authenticate", result).Inc()
	}()

	creds, err := validate.Credentials(raw)
	if err != nil {
		return model.Identity{}, &AuthFailure{Reason: ReasonInvalidFormat, Err: err}
	}

	user, err := s.users.GetByEmail(ctx, creds.Email())
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		identity, err = s.provision(ctx, creds)
		if err == nil {
			result = "created"
		}
		return identity, err
	case err != nil:
		slog.ErrorContext(ctx, "user lookup failed", "error", err)
		return model.Identity{}, internalFailure(err)
	}

	identity, err = s.verifyExisting(ctx, user, creds)
	if err == nil {
		result = "verified"
	}
	return identity, err
}

// provision creates the account for a first-time email. A concurrent signup
// for the same email surfaces as ErrDuplicateEmail; the winner's row is then
// verified instead of failing the request.
func (s *AuthService) provision(ctx context.Context, creds validate.ValidatedCredentials) (model.Identity, error) {
	hash, err := s.hash(creds.Password())
	if err != nil {
		slog.ErrorContext(ctx, "password hashing failed", "error", err)
		return model.Identity{}, internalFailure(err)
	}

	user := &model.User{
		Name:         creds.Name(),
		Email:        creds.Email(),
		PasswordHash: hash,
	}

	// The write completes even if the client goes away.
	if err := s.users.Create(context.WithoutCancel(ctx), user); err != nil {
		if !errors.Is(err, repository.ErrDuplicateEmail) {
			slog.ErrorContext(ctx, "user creation failed", "error", err)
			return model.Identity{}, internalFailure(err)
		}

		slog.InfoContext(ctx, "concurrent signup detected, verifying existing account")
		existing, err := s.users.GetByEmail(ctx, creds.Email())
		if err != nil {
			slog.ErrorContext(ctx, "user lookup after duplicate failed", "error", err)
			return model.Identity{}, internalFailure(err)
		}
		return s.verifyExisting(ctx, existing, creds)
	}

	slog.InfoContext(ctx, "user created", "user_id", user.ID)
	return user.Identity(), nil
}

// verifyExisting checks the password. The submitted name is never applied to
// an existing account.
func (s *AuthService) verifyExisting(ctx context.Context, user *model.User, creds validate.ValidatedCredentials) (model.Identity, error) {
	match, err := s.verify(creds.Password(), user.PasswordHash)
	if err != nil {
		slog.ErrorContext(ctx, "password verification failed", "user_id", user.ID, "error", err)
		return model.Identity{}, internalFailure(err)
	}
	if !match {
		return model.Identity{}, &AuthFailure{Reason: ReasonInvalidCredentials}
	}
	return user.Identity(), nil
}

// CurrentUser reloads the stored identity for a session.
func (s *AuthService) CurrentUser(ctx context.Context, id string) (model.Identity, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.Identity{}, err
	}
	return user.Identity(), nil
}

func internalFailure(err error) *AuthFailure {
	return &AuthFailure{Reason: ReasonInternalError, Err: err}
}

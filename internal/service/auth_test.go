package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/reelshelf/reelshelf-go/internal/model"
	"github.com/reelshelf/reelshelf-go/internal/repository"
	"github.com/reelshelf/reelshelf-go/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService() (*AuthService, *memUserStore) {
	store := newMemUserStore()
	return NewAuthService(store), store
}

func requireReason(t *testing.T, err error, want AuthReason) *AuthFailure {
	t.Helper()
	var af *AuthFailure
	require.True(t, errors.As(err, &af), "expected *AuthFailure, got %v", err)
	assert.Equal(t, want, af.Reason)
	return af
}

func TestAuthenticate_NewUserIsCreated(t *testing.T) {
	svc, store := newTestAuthService()

	identity, err := svc.Authenticate(context.Background(), model.Credentials{
		Name: "Alice", Email: "a@b.com", Password: "secret1",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, identity.ID)
	assert.Equal(t, "Alice", identity.Name)
	assert.Equal(t, "a@b.com", identity.Email)
	assert.Equal(t, 1, store.creates)

	stored := store.byEmail["a@b.com"]
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestAuthenticate_NameTooShort(t *testing.T) {
	svc, store := newTestAuthService()

	_, err := svc.Authenticate(context.Background(), model.Credentials{
		Name: "Al", Email: "a@b.com", Password: "secret1",
	})

	requireReason(t, err, ReasonInvalidFormat)
	var ve *validate.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "name", ve.Field)
	assert.Zero(t, store.lookups, "validation must fail before any store access")
	assert.Zero(t, store.creates)
}

func TestAuthenticate_MalformedInputNeverTouchesStore(t *testing.T) {
	tests := []struct {
		name  string
		creds model.Credentials
		field string
	}{
		{"short name", model.Credentials{Name: "Al", Email: "a@b.com", Password: "secret1"}, "name"},
		{"bad email", model.Credentials{Name: "Alice", Email: "a-at-b", Password: "secret1"}, "email"},
		{"short password", model.Credentials{Name: "Alice", Email: "a@b.com", Password: "12345"}, "password"},
		{"empty", model.Credentials{}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestAuthService()
			_, err := svc.Authenticate(context.Background(), tt.creds)

			assert.ErrorIs(t, err, ErrInvalidFormat)
			var ve *validate.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.Zero(t, store.lookups)
		})
	}
}

func TestAuthenticate_ExistingUserKeepsStoredName(t *testing.T) {
	svc, store := newTestAuthService()
	ctx := context.Background()

	first, err := svc.Authenticate(ctx, model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	second, err := svc.Authenticate(ctx, model.Credentials{Name: "Mallory", Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Alice", second.Name)
	assert.Equal(t, 1, store.creates, "second call must take the verify path")
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	svc, store := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, model.Credentials{Name: "Alice", Email: "a@b.com", Password: "WRONG1"})
	af := requireReason(t, err, ReasonInvalidCredentials)
	assert.False(t, af.Retryable())
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, store.creates, "no store write on mismatch")
}

func TestAuthenticate_ShortWrongPasswordIsFormatError(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	// "WRONG" is five characters, so validation rejects it before the verify step.
	_, err = svc.Authenticate(ctx, model.Credentials{Name: "Alice", Email: "a@b.com", Password: "WRONG"})
	requireReason(t, err, ReasonInvalidFormat)
}

func TestAuthenticate_EmailMatchIsExact(t *testing.T) {
	svc, store := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, model.Credentials{Name: "Alice", Email: "A@b.com", Password: "other-pass"})
	require.NoError(t, err)

	assert.Equal(t, 2, store.creates)
}

func TestAuthenticate_LookupFailureIsInternal(t *testing.T) {
	svc, store := newTestAuthService()
	store.GetByEmailFunc = func(ctx context.Context, email string) (*model.User, error) {
		return nil, errors.New("connection refused")
	}

	_, err := svc.Authenticate(context.Background(), model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})

	af := requireReason(t, err, ReasonInternalError)
	assert.True(t, af.Retryable())
	assert.NotContains(t, af.Error(), "connection refused", "store details must not leak into the message")
	assert.Zero(t, store.creates)
}

func TestAuthenticate_CreateFailureIsInternal(t *testing.T) {
	svc, store := newTestAuthService()
	store.CreateFunc = func(ctx context.Context, user *model.User) error {
		return errors.New("disk full")
	}

	_, err := svc.Authenticate(context.Background(), model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrAuthInternal)
}

func TestAuthenticate_HashFailureIsInternal(t *testing.T) {
	svc, store := newTestAuthService()
	svc.hash = func(string) (string, error) { return "", errors.New("entropy exhausted") }

	_, err := svc.Authenticate(context.Background(), model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	requireReason(t, err, ReasonInternalError)
	assert.Zero(t, store.creates)
}

func TestAuthenticate_CorruptStoredHashIsInternal(t *testing.T) {
	svc, store := newTestAuthService()
	store.byEmail["a@b.com"] = model.User{ID: "u1", Name: "Alice", Email: "a@b.com", PasswordHash: "not-bcrypt"}

	_, err := svc.Authenticate(context.Background(), model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	requireReason(t, err, ReasonInternalError)
}

type ctxKey struct{}

// ctxRecorder keeps the context each record was logged with.
type ctxRecorder struct {
	mu   sync.Mutex
	ctxs map[string]context.Context
}

func (h *ctxRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (h *ctxRecorder) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ctxs[r.Message] = ctx
	return nil
}

func (h *ctxRecorder) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *ctxRecorder) WithGroup(string) slog.Handler      { return h }

func TestAuthenticate_CorruptStoredHashLogsWithRequestContext(t *testing.T) {
	rec := &ctxRecorder{ctxs: map[string]context.Context{}}
	prev := slog.Default()
	slog.SetDefault(slog.New(rec))
	t.Cleanup(func() { slog.SetDefault(prev) })

	svc, store := newTestAuthService()
	store.byEmail["a@b.com"] = model.User{ID: "u1", Name: "Alice", Email: "a@b.com", PasswordHash: "not-bcrypt"}

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-42")
	_, err := svc.Authenticate(ctx, model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	requireReason(t, err, ReasonInternalError)

	rec.mu.Lock()
	logged, ok := rec.ctxs["password verification failed"]
	rec.mu.Unlock()
	require.True(t, ok, "verification failure was not logged")
	require.NotNil(t, logged)
	assert.Equal(t, "req-42", logged.Value(ctxKey{}))
}

func TestAuthenticate_PanicIsRecovered(t *testing.T) {
	svc, store := newTestAuthService()
	store.GetByEmailFunc = func(ctx context.Context, email string) (*model.User, error) {
		panic("driver bug")
	}

	var err error
	assert.NotPanics(t, func() {
		_, err = svc.Authenticate(context.Background(), model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	})
	requireReason(t, err, ReasonInternalError)
}

func TestAuthenticate_ConcurrentSignupRetriesVerify(t *testing.T) {
	svc, store := newTestAuthService()

	// Another request wins the race between our lookup and our create.
	store.CreateFunc = func(ctx context.Context, user *model.User) error {
		winner, err := svc.hash("secret1")
		require.NoError(t, err)
		require.NoError(t, store.insert(&model.User{Name: "Winner", Email: user.Email, PasswordHash: winner}))
		return repository.ErrDuplicateEmail
	}

	identity, err := svc.Authenticate(context.Background(), model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})

	require.NoError(t, err)
	assert.Equal(t, "Winner", identity.Name)
	assert.Equal(t, 2, store.lookups)
}

func TestAuthenticate_ConcurrentSignupWithDifferentPassword(t *testing.T) {
	svc, store := newTestAuthService()
	store.CreateFunc = func(ctx context.Context, user *model.User) error {
		winner, err := svc.hash("other-secret")
		require.NoError(t, err)
		require.NoError(t, store.insert(&model.User{Name: "Winner", Email: user.Email, PasswordHash: winner}))
		return repository.ErrDuplicateEmail
	}

	_, err := svc.Authenticate(context.Background(), model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	requireReason(t, err, ReasonInvalidCredentials)
}

func TestAuthenticate_CreateSurvivesCancelledContext(t *testing.T) {
	svc, store := newTestAuthService()
	ctx, cancel := context.WithCancel(context.Background())

	store.CreateFunc = func(createCtx context.Context, user *model.User) error {
		cancel()
		if createCtx.Err() != nil {
			return createCtx.Err()
		}
		return store.insert(user)
	}

	_, err := svc.Authenticate(ctx, model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Contains(t, store.byEmail, "a@b.com")
}

func TestCurrentUser(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	created, err := svc.Authenticate(ctx, model.Credentials{Name: "Alice", Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	got, err := svc.CurrentUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = svc.CurrentUser(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

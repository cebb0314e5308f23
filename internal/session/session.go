// Package session issues and reads the signed session cookie that carries a
// user's identity between requests.
package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/reelshelf/reelshelf-go/internal/crypto"
	"github.com/reelshelf/reelshelf-go/internal/model"
)

// DefaultCookieName is used when Config.CookieName is empty.
const DefaultCookieName = "reelshelf_session"

var ErrNoSession = errors.New("no valid session")

// Config configures an Issuer.
type Config struct {
	Secret     string
	TTL        time.Duration
	CookieName string
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// Session is a verified session read from a request.
type Session struct {
	Identity  model.Identity
	ExpiresAt time.Time
}

// Issuer writes, reads and clears session cookies.
type Issuer struct {
	secret     string
	ttl        time.Duration
	cookieName string
	secure     bool
}

// NewIssuer creates a new Issuer.
func NewIssuer(cfg Config) *Issuer {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &Issuer{
		secret:     cfg.Secret,
		ttl:        cfg.TTL,
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
	}
}

// Issue signs a token for identity and sets it as the session cookie.
func (i *Issuer) Issue(w http.ResponseWriter, identity model.Identity) (Session, error) {
	token, expiresAt, err := crypto.GenerateToken(identity, i.secret, i.ttl)
	if err != nil {
		return Session{}, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     i.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(i.ttl.Seconds()),
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return Session{Identity: identity, ExpiresAt: expiresAt}, nil
}

// Clear expires the session cookie.
func (i *Issuer) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     i.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Read returns the session carried by r. The cookie wins over an
// Authorization: Bearer header when both are present.
func (i *Issuer) Read(r *http.Request) (Session, error) {
	token := i.token(r)
	if token == "" {
		return Session{}, ErrNoSession
	}

	claims, err := crypto.ValidateToken(token, i.secret)
	if err != nil {
		return Session{}, ErrNoSession
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return Session{Identity: claims.Identity(), ExpiresAt: expiresAt}, nil
}

// Identity returns the identity of the session carried by r.
func (i *Issuer) Identity(r *http.Request) (model.Identity, error) {
	s, err := i.Read(r)
	if err != nil {
		return model.Identity{}, err
	}
	return s.Identity, nil
}

func (i *Issuer) token(r *http.Request) string {
	if c, err := r.Cookie(i.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

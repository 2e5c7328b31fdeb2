// Package session resolves the identity behind a request from a signed
// session cookie.
package session

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"newsroom/app/logging"
	"newsroom/app/models"
	"newsroom/app/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 24 * time.Hour

var ErrEmptySecret = errors.New("session secret must not be empty")

// Identity is the user behind a request. A nil User is the anonymous visitor.
type Identity struct {
	User *models.User
}

// Anonymous returns the identity of a visitor without a valid session.
func Anonymous() Identity {
	return Identity{}
}

func (i Identity) IsAuthenticated() bool {
	return i.User != nil
}

func (i Identity) IsAdmin() bool {
	return i.User.IsAdmin()
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by Middleware, or Anonymous.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(contextKey{}).(Identity); ok {
		return id
	}
	return Anonymous()
}

// Options tunes the session cookie.
type Options struct {
	TTL          time.Duration
	SecureCookie bool
}

// Manager issues, resolves and revokes session tokens. Tokens are HS256 JWTs
// whose subject is the user id and whose ID is a random UUID.
type Manager struct {
	secret      []byte
	users       repositories.UserRepository
	revocations repositories.RevocationRepository
	ttl         time.Duration
	secure      bool
	logger      zerolog.Logger
	now         func() time.Time
}

// NewManager creates a Manager signing with secret.
func NewManager(secret string, users repositories.UserRepository, revocations repositories.RevocationRepository, logger zerolog.Logger, opts Options) (*Manager, error) {
	if secret == "" {
		return nil, oops.Code("SESSION_CONFIG_INVALID").Wrap(ErrEmptySecret)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret:      []byte(secret),
		users:       users,
		revocations: revocations,
		ttl:         ttl,
		secure:      opts.SecureCookie,
		logger:      logger.With().Str("component", "session").Logger(),
		now:         time.Now,
	}, nil
}

// Login starts a session for userID by setting the session cookie.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, userID int) error {
	now := m.now()
	expires := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return oops.Code("SESSION_SIGN_FAILED").With("user_id", userID).Wrap(err)
	}

	http.SetCookie(w, m.cookie(token, expires))
	return nil
}

// Logout revokes the current token, if any, and clears the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	defer http.SetCookie(w, m.expiredCookie())

	claims, err := m.parse(r)
	if err != nil {
		return nil
	}
	if err := m.revocations.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		return oops.Code("SESSION_LOGOUT_FAILED").With("user_id", claims.Subject).Wrap(err)
	}
	return nil
}

// CurrentIdentity resolves the identity behind r. Any failure, including
// store errors, yields Anonymous.
func (m *Manager) CurrentIdentity(r *http.Request) Identity {
	claims, err := m.parse(r)
	if err != nil {
		if !errors.Is(err, http.ErrNoCookie) {
			m.logger.Debug().Err(err).Msg("rejected session token")
		}
		return Anonymous()
	}

	ctx := r.Context()
	revoked, err := m.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		logging.Err(m.logger.Error(), err).Msg("session revocation lookup failed")
		return Anonymous()
	}
	if revoked {
		return Anonymous()
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return Anonymous()
	}
	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logging.Err(m.logger.Error(), err).Msg("session user lookup failed")
		}
		return Anonymous()
	}
	return Identity{User: user}
}

// Middleware stores the identity of every request in its context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := m.CurrentIdentity(r)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (m *Manager) parse(r *http.Request) (*jwt.RegisteredClaims, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, err
	}
	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &claims,
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.New("session token has no id")
	}
	return &claims, nil
}

func (m *Manager) cookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) expiredCookie() *http.Cookie {
	c := m.cookie("", time.Unix(0, 0))
	c.MaxAge = -1
	return c
}

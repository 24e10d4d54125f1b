package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// ErrNoSession is returned when a session has no usable token.
var ErrNoSession = errors.New("no active session")

const refreshTimeout = 15 * time.Second

// Session is one signed-in browser.
type Session struct {
	ID     string
	UserID string
	Email  string

	tokens oauth2.TokenSource
}

// AccessToken returns a valid access token, refreshing it when it has expired.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.tokens == nil {
		return "", ErrNoSession
	}
	tok, err := s.tokens.Token()
	if err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", ErrNoSession
	}
	return tok.AccessToken, nil
}

// claims are the access-token fields the frontend reads. The signature is
// not checked here; the backend verifies every token it receives.
type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func parseClaims(accessToken string) (claims, error) {
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, &c); err != nil {
		return claims{}, fmt.Errorf("parse access token: %w", err)
	}
	return c, nil
}

// refresher mints new tokens from the latest refresh token.
type refresher struct {
	identity IdentityService

	mu           sync.Mutex
	refreshToken string
}

func (r *refresher) Token() (*oauth2.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.refreshToken == "" {
		return nil, ErrNoSession
	}
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	tok, err := r.identity.Refresh(ctx, r.refreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if tok.RefreshToken != "" {
		r.refreshToken = tok.RefreshToken
	}
	return tok, nil
}

func newSession(id string, identity IdentityService, tok *oauth2.Token) (*Session, error) {
	c, err := parseClaims(tok.AccessToken)
	if err != nil {
		return nil, err
	}
	src := oauth2.ReuseTokenSource(tok, &refresher{identity: identity, refreshToken: tok.RefreshToken})
	return &Session{ID: id, UserID: c.Subject, Email: c.Email, tokens: src}, nil
}

type ctxKey struct{}

// NewContext returns a context carrying s.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by NewContext.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

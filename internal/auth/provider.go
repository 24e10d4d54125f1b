// Package auth holds the signed-in state of each browser.
//
// A Provider is created once per process. It signs users in against the
// identity service, keeps their sessions keyed by an opaque browser-session
// id, and notifies subscribers when users sign in or out.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"

	"github.com/JonMunkholm/datacleanser/internal/logging"
)

// Event is an auth state change.
type Event int

const (
	SignedIn Event = iota + 1
	SignedOut
)

func (e Event) String() string {
	switch e {
	case SignedIn:
		return "SIGNED_IN"
	case SignedOut:
		return "SIGNED_OUT"
	default:
		return "UNKNOWN"
	}
}

// Listener receives auth events. It must not block.
type Listener func(Event, *Session)

// Provider owns every browser session of the process.
type Provider struct {
	identity IdentityService
	sessions *cache.Cache

	mu        sync.Mutex
	listeners map[uint64]Listener
	nextID    uint64
}

// NewProvider creates a provider whose idle sessions expire after ttl.
func NewProvider(identity IdentityService, ttl time.Duration) *Provider {
	return &Provider{
		identity:  identity,
		sessions:  cache.New(ttl, 10*time.Minute),
		listeners: make(map[uint64]Listener),
	}
}

// Subscribe registers fn for auth events. The returned function removes it
// and is safe to call more than once.
func (p *Provider) Subscribe(fn Listener) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// Close drops all subscriptions and sessions.
func (p *Provider) Close() {
	p.mu.Lock()
	p.listeners = make(map[uint64]Listener)
	p.mu.Unlock()
	p.sessions.Flush()
}

func (p *Provider) emit(e Event, s *Session) {
	p.mu.Lock()
	fns := make([]Listener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(e, s)
	}
}

// SignIn authenticates with email and password and stores a new session.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	tok, err := p.identity.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return p.open(tok)
}

// SignUp registers an account and, when the service issues a session right
// away, stores it.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	tok, err := p.identity.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return p.open(tok)
}

func (p *Provider) open(tok *oauth2.Token) (*Session, error) {
	s, err := newSession(uuid.NewString(), p.identity, tok)
	if err != nil {
		return nil, err
	}
	p.sessions.Set(s.ID, s, cache.DefaultExpiration)
	p.emit(SignedIn, s)
	return s, nil
}

// SignOut forgets the session and revokes it at the identity service.
// Revocation failures are logged; the local session is gone either way.
func (p *Provider) SignOut(ctx context.Context, id string) error {
	s := p.lookup(id)
	if s == nil {
		return nil
	}
	p.sessions.Delete(id)

	if token, err := s.AccessToken(ctx); err == nil {
		if err := p.identity.SignOut(ctx, token); err != nil {
			logging.FromContext(ctx).Warn("identity sign-out failed", "user_id", s.UserID, "error", err)
		}
	}
	p.emit(SignedOut, s)
	return nil
}

// Current returns the session for id, or nil when there is none. A session
// whose token cannot be obtained is logged and treated as absent.
func (p *Provider) Current(ctx context.Context, id string) *Session {
	s := p.lookup(id)
	if s == nil {
		return nil
	}
	if _, err := s.AccessToken(ctx); err != nil {
		logging.FromContext(ctx).Warn("session unavailable", "user_id", s.UserID, "error", err)
		return nil
	}
	// slide the idle expiry
	p.sessions.Set(id, s, cache.DefaultExpiration)
	return s
}

func (p *Provider) lookup(id string) *Session {
	if id == "" {
		return nil
	}
	if x, found := p.sessions.Get(id); found {
		return x.(*Session)
	}
	return nil
}

// Package session tracks the signed-in user's credential and persists the
// minimum needed to restore it after a restart.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/nhle/mailbox-sync/internal/persist"
)

// StorageKey is the persistence key of the session snapshot.
const StorageKey = "auth-storage"

const snapshotVersion = 1

// ErrSessionExpired is returned by CheckSession when the restored session
// has expired and cannot be renewed.
var ErrSessionExpired = errors.New("session expired")

// Authenticator signs users in and out against the identity service.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*oauth2.Token, error)
	SignOut(ctx context.Context, tok *oauth2.Token) error
}

// Refresher is implemented by authenticators that can renew an expired
// token. The returned source hands back tok while it is valid.
type Refresher interface {
	TokenSource(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource
}

// state is the persisted projection: the token and the logged-in flag only.
type state struct {
	Session  *oauth2.Token `json:"session"`
	LoggedIn bool          `json:"isLoggedIn"`
}

// Provider holds the current session. It is safe for concurrent use and
// satisfies gateway.CredentialSource.
type Provider struct {
	auth    Authenticator
	persist *persist.Adapter
	logger  *slog.Logger

	mu        sync.RWMutex
	token     *oauth2.Token
	loggedIn  bool
	hydrated  bool
	listeners []func(loggedIn bool)
}

// NewProvider creates a logged-out, unhydrated provider.
func NewProvider(auth Authenticator, p *persist.Adapter, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		auth:    auth,
		persist: p,
		logger:  logger.With("store", StorageKey),
	}
}

// Hydrate restores the persisted session once. Later calls are no-ops.
func (p *Provider) Hydrate(ctx context.Context) {
	p.mu.Lock()
	if p.hydrated {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	var st state
	loaded := p.persist.Load(ctx, StorageKey, snapshotVersion, &st)

	p.mu.Lock()
	if p.hydrated {
		p.mu.Unlock()
		return
	}
	p.hydrated = true
	if loaded {
		p.token = st.Session
		p.loggedIn = st.LoggedIn && st.Session != nil
	}
	loggedIn := p.loggedIn
	p.mu.Unlock()

	p.logger.Info("session hydrated", "restored", loaded, "logged_in", loggedIn)
	if loggedIn {
		p.notify(true)
	}
}

// Hydrated reports whether Hydrate has completed.
func (p *Provider) Hydrated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.hydrated
}

// CheckSession makes sure the restored session is still usable. A valid
// token is kept; an expired one is renewed through the authenticator when it
// can refresh, and dropped when the identity service rejects it or nothing
// can renew it. Transport failures leave the session untouched.
func (p *Provider) CheckSession(ctx context.Context) error {
	p.Hydrate(ctx)

	tok := p.Token()
	if tok == nil {
		p.logger.Info("no existing session")
		return nil
	}
	if tok.Valid() {
		return nil
	}

	r, ok := p.auth.(Refresher)
	if !ok || tok.RefreshToken == "" {
		p.logger.Info("session expired", "expiry", tok.Expiry)
		p.SetToken(ctx, nil)
		return ErrSessionExpired
	}

	fresh, err := r.TokenSource(ctx, tok).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			p.logger.Info("session refresh rejected", "err", err)
			p.SetToken(ctx, nil)
			return fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		p.logger.Warn("session refresh failed", "err", err)
		return fmt.Errorf("refreshing session: %w", err)
	}

	p.logger.Info("session refreshed", "expiry", fresh.Expiry)
	p.SetToken(ctx, fresh)
	return nil
}

// Login signs in with email and password and persists the new session.
func (p *Provider) Login(ctx context.Context, email, password string) error {
	if p.auth == nil {
		return errors.New("no authenticator configured")
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}

	p.logger.Info("logging in", "email", email)
	tok, err := p.auth.SignIn(ctx, email, password)
	if err != nil {
		p.logger.Warn("login failed", "email", email, "err", err)
		return fmt.Errorf("signing in: %w", err)
	}
	if tok == nil || tok.AccessToken == "" {
		return errors.New("signing in: no session returned")
	}

	p.SetToken(ctx, tok)
	return nil
}

// Logout signs out remotely, best effort, and forgets the session locally
// regardless of the remote outcome.
func (p *Provider) Logout(ctx context.Context) error {
	tok := p.Token()

	var remoteErr error
	if p.auth != nil && tok != nil {
		if err := p.auth.SignOut(ctx, tok); err != nil {
			p.logger.Warn("remote sign out failed", "err", err)
			remoteErr = fmt.Errorf("signing out: %w", err)
		}
	}

	p.SetToken(ctx, nil)
	p.logger.Info("logged out")
	return remoteErr
}

// SetToken replaces the session. A nil token logs out. The change is
// persisted and listeners are notified when the logged-in state flips.
func (p *Provider) SetToken(ctx context.Context, tok *oauth2.Token) {
	p.mu.Lock()
	was := p.loggedIn
	p.token = tok
	p.loggedIn = tok != nil
	st := state{Session: p.token, LoggedIn: p.loggedIn}
	p.mu.Unlock()

	p.persist.Save(ctx, StorageKey, snapshotVersion, st)

	if was != st.LoggedIn {
		p.notify(st.LoggedIn)
	}
}

// Token returns the current token, or nil when logged out.
func (p *Provider) Token() *oauth2.Token {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// AccessToken returns the bearer credential, or "" when logged out.
func (p *Provider) AccessToken() string {
	if tok := p.Token(); tok != nil {
		return tok.AccessToken
	}
	return ""
}

// LoggedIn reports whether a session is present.
func (p *Provider) LoggedIn() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loggedIn
}

// OnChange registers fn to be called with the new logged-in state whenever
// it changes, including when hydration restores a session.
func (p *Provider) OnChange(fn func(loggedIn bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *Provider) notify(loggedIn bool) {
	p.mu.RLock()
	listeners := append([]func(bool){}, p.listeners...)
	p.mu.RUnlock()

	for _, fn := range listeners {
		fn(loggedIn)
	}
}

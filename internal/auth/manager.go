// SPDX-License-Identifier: MPL-2.0

package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

const (
	refreshKey = "refresh"

	// DefaultRefreshTimeout bounds a shared session refresh.
	DefaultRefreshTimeout = 2 * time.Minute
)

type (
	// Manager owns the current session. It is safe for concurrent use: the
	// session is only replaced under its lock, and concurrent callers that
	// find it expired share one refresh.
	Manager struct {
		store      Store
		httpClient *http.Client
		endpoints  Endpoints
		clientID   string
		userAgent  string
		logger     *log.Logger
		now        func() time.Time

		// intervalUnit scales the server's polling interval and slowDown is
		// added on slow_down.
		intervalUnit time.Duration
		slowDown     time.Duration

		refreshTimeout time.Duration

		mu      sync.Mutex
		state   State
		session *Session
		group   singleflight.Group
	}

	// Option configures a Manager.
	Option func(*Manager)
)

// WithHTTPClient sets the HTTP client for sign-in requests.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = c
	}
}

// WithEndpoints replaces the sign-in endpoints.
func WithEndpoints(e Endpoints) Option {
	return func(m *Manager) {
		m.endpoints = e
	}
}

// WithClientID sets the application (client) id registered with Microsoft.
func WithClientID(id string) Option {
	return func(m *Manager) {
		m.clientID = id
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(m *Manager) {
		m.userAgent = ua
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithRefreshTimeout bounds a session refresh. The refresh is shared by
// every caller waiting on it, so it does not follow any one caller's
// context.
func WithRefreshTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.refreshTimeout = d
	}
}

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager and loads the stored session. Storage that
// cannot be read leaves the Manager unauthenticated.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		httpClient:   http.DefaultClient,
		endpoints:    DefaultEndpoints(),
		userAgent:    "blocklaunch/dev",
		logger:       log.New(io.Discard),
		now:          time.Now,
		intervalUnit: time.Second,
		slowDown:     5 * time.Second,

		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}

	s, err := store.Load()
	switch {
	case err != nil:
		m.logger.Warn("stored session ignored", "error", err)
	case s != nil:
		m.session = s
		m.state = StateAuthenticated
		if s.Expired(m.now()) {
			m.state = StateExpired
		}
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Authenticate runs the device-code sign-in. prompt receives the code to
// show the player; the chain then polls, exchanges tokens and stores the
// new session. On failure the previous session, if any, stays in place.
func (m *Manager) Authenticate(ctx context.Context, prompt Prompt) (Session, error) {
	if m.clientID == "" {
		return Session{}, ErrNoClientID
	}

	s, err := m.signIn(ctx, prompt)
	if err != nil {
		m.restoreState()
		return Session{}, err
	}
	if err := m.commit(s); err != nil {
		m.restoreState()
		return Session{}, err
	}
	m.logger.Info("signed in", "player", s.Profile.Name)
	return *s, nil
}

func (m *Manager) signIn(ctx context.Context, prompt Prompt) (*Session, error) {
	m.setState(StateDeviceCodePending)
	dc, err := m.requestDeviceCode(ctx)
	if err != nil {
		return nil, err
	}
	if prompt != nil {
		if err := prompt(ctx, dc); err != nil {
			return nil, fmt.Errorf("showing device code: %w", err)
		}
	}

	m.setState(StatePolling)
	tokens, err := m.pollToken(ctx, dc)
	if err != nil {
		return nil, err
	}

	m.setState(StateTokenExchanging)
	return m.exchange(ctx, tokens)
}

// LoginOffline stores an offline session for name.
func (m *Manager) LoginOffline(name string) (Session, error) {
	s, err := newOfflineSession(name)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %q", err, name)
	}
	if err := m.commit(s); err != nil {
		return Session{}, err
	}
	return *s, nil
}

// Session returns a copy of the current session, refreshing it first when
// it expired.
func (m *Manager) Session(ctx context.Context) (Session, error) {
	m.mu.Lock()
	s := m.session
	if s == nil {
		m.mu.Unlock()
		return Session{}, ErrUnauthenticated
	}
	if !s.Expired(m.now()) {
		m.state = StateAuthenticated
		out := *s
		m.mu.Unlock()
		return out, nil
	}
	m.state = StateExpired
	m.mu.Unlock()

	ch := m.group.DoChan(refreshKey, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.refreshTimeout)
		defer cancel()
		return m.refresh(rctx, s)
	})
	select {
	case <-ctx.Done():
		return Session{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Session{}, res.Err
		}
		if res.Shared {
			m.logger.Debug("joined in-flight session refresh")
		}
		return res.Val.(Session), nil
	}
}

// refresh renews an expired session. An invalid grant discards the
// session; other failures keep it for a later attempt.
func (m *Manager) refresh(ctx context.Context, expired *Session) (Session, error) {
	// a refresh that finished just before this flight started already
	// replaced the session
	m.mu.Lock()
	if m.session != nil && m.session != expired && !m.session.Expired(m.now()) {
		out := *m.session
		m.mu.Unlock()
		return out, nil
	}
	m.state = StateRefreshing
	m.mu.Unlock()

	s, err := m.renew(ctx, expired)
	if err == nil {
		if err = m.commit(s); err == nil {
			m.logger.Debug("session refreshed", "player", s.Profile.Name, "kind", s.Kind)
			return *s, nil
		}
	}

	if errors.Is(err, ErrInvalidGrant) {
		m.setState(StateRefreshFailed)
		if clearErr := m.discard(); clearErr != nil {
			m.logger.Warn("stored session not removed", "error", clearErr)
		}
		return Session{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	m.setState(StateExpired)
	return Session{}, err
}

// renew obtains fresh tokens for expired by its account kind.
func (m *Manager) renew(ctx context.Context, expired *Session) (*Session, error) {
	if expired.Kind == KindYggdrasil {
		return m.renewYggdrasil(ctx, expired)
	}
	tokens, err := m.refreshTokens(ctx, expired.RefreshToken)
	if err != nil {
		return nil, err
	}
	return m.exchange(ctx, tokens)
}

// Logout discards the current session.
func (m *Manager) Logout() error {
	return m.discard()
}

// commit stores s and makes it current.
func (m *Manager) commit(s *Session) error {
	if err := m.store.Save(s); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	m.mu.Lock()
	m.session = s
	m.state = StateAuthenticated
	m.mu.Unlock()
	return nil
}

func (m *Manager) discard() error {
	m.mu.Lock()
	m.session = nil
	m.state = StateUnauthenticated
	m.mu.Unlock()
	return m.store.Clear()
}

// restoreState returns to the state matching the current session after a
// failed sign-in.
func (m *Manager) restoreState() {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.session == nil:
		m.state = StateUnauthenticated
	case m.session.Expired(m.now()):
		m.state = StateExpired
	default:
		m.state = StateAuthenticated
	}
}

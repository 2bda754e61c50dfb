// Package session owns the authentication lifecycle for one visitor: the
// current session, the identity attached to it, and ordered change
// notifications for everything that renders from that state.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"lionix-portal/internal/domain"
)

// refreshMargin is how long before access-token expiry a refresh is attempted.
const refreshMargin = 30 * time.Second

// Change is delivered to subscribers on every session transition: sign-in,
// sign-out, token refresh, and the initial resolution out of the loading
// state.
type Change struct {
	Status  domain.SessionStatus
	Session *domain.Session
}

// Manager is the single writer of a visitor's session state. All mutation
// happens in response to Init, Logout, or the provider's change
// notifications; everything else only reads.
type Manager struct {
	provider    domain.AuthProvider
	logger      *slog.Logger
	initTimeout time.Duration

	// dispatchMu serializes transitions so notifications reach listeners in
	// the order the state actually changed.
	dispatchMu sync.Mutex

	mu      sync.RWMutex
	status  domain.SessionStatus
	session *domain.Session

	subMu  sync.Mutex
	subs   map[int]func(Change)
	order  []int
	nextID int

	unsubscribe  func()
	refreshTimer *time.Timer
	closed       bool
}

// NewManager creates a manager in the loading state and attaches it to the
// provider's notification stream for its lifetime.
func NewManager(provider domain.AuthProvider, logger *slog.Logger, initTimeout time.Duration) *Manager {
	m := &Manager{
		provider:    provider,
		logger:      logger,
		initTimeout: initTimeout,
		status:      domain.StatusLoading,
		subs:        make(map[int]func(Change)),
	}
	m.unsubscribe = provider.Subscribe(m.handleAuthEvent)
	return m
}

// Init resolves the loading state. With a refresh token it asks the provider
// to restore the session within a bounded wait; without one, or on any
// failure, it fails closed to signed-out. Safe to call once per manager.
func (m *Manager) Init(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		m.transition(domain.StatusSignedOut, nil)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, m.initTimeout)
	defer cancel()

	session, err := m.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		m.logger.InfoContext(ctx, "session restore failed, treating as signed out", "error", err)
		m.transition(domain.StatusSignedOut, nil)
		return
	}

	// The provider normally reports the restore through the notification
	// stream as well; transition is idempotent so the direct result is
	// applied regardless.
	m.transition(domain.StatusSignedIn, session)
}

// Current returns the presently known state synchronously; it never blocks on
// the network.
func (m *Manager) Current() (domain.SessionStatus, *domain.Session) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, m.session
}

// Identity returns the signed-in user identity, or false when no session is
// established.
func (m *Manager) Identity() (domain.Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.status != domain.StatusSignedIn || m.session == nil {
		return domain.Identity{}, false
	}
	return m.session.User, true
}

// Subscribe registers a listener for session changes. Listeners observe
// transitions in the order they occurred. The returned function removes the
// listener.
func (m *Manager) Subscribe(fn func(Change)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.order = append(m.order, id)

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
		for i, v := range m.order {
			if v == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
}

// Logout asks the provider to terminate the session, then clears local state
// whether or not the remote call succeeded: a stale authenticated view is
// worse than an unrevoked remote grant. The session-change notification fires
// exactly once per logout.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.RLock()
	token := ""
	if m.session != nil {
		token = m.session.AccessToken
	}
	m.mu.RUnlock()

	var err error
	if token != "" {
		err = m.provider.SignOut(ctx, token)
		if err != nil {
			m.logger.WarnContext(ctx, "remote sign-out failed, clearing local session anyway", "error", err)
		}
	}

	// The provider's signed-out notification usually lands first; this is a
	// no-op then. It is the guarantee when the remote call failed.
	m.transition(domain.StatusSignedOut, nil)
	return err
}

// Close detaches the manager from the provider stream and stops background
// refresh. Called when the visitor record is evicted.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	m.mu.Unlock()

	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// handleAuthEvent applies a provider notification to local state.
func (m *Manager) handleAuthEvent(ev domain.AuthEvent) {
	switch ev.Type {
	case domain.EventSignedIn, domain.EventTokenRefreshed:
		if ev.Session != nil {
			m.transition(domain.StatusSignedIn, ev.Session)
		}
	case domain.EventSignedOut:
		m.transition(domain.StatusSignedOut, nil)
	}
}

// transition is the only mutation path. It is idempotent: applying the state
// the manager is already in delivers no notification, which is what makes
// "exactly once per logout" hold when both the provider event and the local
// clear arrive.
func (m *Manager) transition(status domain.SessionStatus, session *domain.Session) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	same := m.status == status &&
		(session == nil && m.session == nil ||
			session != nil && m.session != nil && session.AccessToken == m.session.AccessToken)
	if same {
		m.mu.Unlock()
		return
	}
	m.status = status
	m.session = session
	m.scheduleRefreshLocked()
	m.mu.Unlock()

	change := Change{Status: status, Session: session}
	m.subMu.Lock()
	fns := make([]func(Change), 0, len(m.order))
	for _, id := range m.order {
		if fn, ok := m.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

// scheduleRefreshLocked re-arms the background refresh ahead of token expiry.
// Caller holds m.mu.
func (m *Manager) scheduleRefreshLocked() {
	if m.refreshTimer != nil {
		m.refreshTimer.Stop()
		m.refreshTimer = nil
	}
	if m.status != domain.StatusSignedIn || m.session == nil || m.session.ExpiresAt.IsZero() {
		return
	}

	wait := time.Until(m.session.ExpiresAt) - refreshMargin
	if wait < time.Second {
		wait = time.Second
	}
	refreshToken := m.session.RefreshToken
	m.refreshTimer = time.AfterFunc(wait, func() { m.refresh(refreshToken) })
}

// refresh exchanges the refresh token in the background. Session loss is a
// transition to signed-out; transient provider failure keeps the current
// session until it actually expires.
func (m *Manager) refresh(refreshToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.initTimeout)
	defer cancel()

	session, err := m.provider.RefreshSession(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			m.logger.InfoContext(ctx, "session expired during refresh")
			m.transition(domain.StatusSignedOut, nil)
			return
		}

		m.logger.WarnContext(ctx, "token refresh failed", "error", err)
		m.mu.Lock()
		if m.session != nil && m.session.Expired(time.Now()) {
			m.mu.Unlock()
			m.transition(domain.StatusSignedOut, nil)
			return
		}
		m.scheduleRefreshLocked()
		m.mu.Unlock()
		return
	}

	m.transition(domain.StatusSignedIn, session)
}

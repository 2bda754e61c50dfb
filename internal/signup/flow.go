// Package signup drives the multi-step account flow: credential entry,
// account creation, one-time-code verification, and the final authenticated
// transition, including resend-cooldown timing.
package signup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lionix-portal/internal/domain"
	"lionix-portal/internal/session"

	"github.com/google/uuid"
)

// State is the flow's position. Error conditions are not a state of their
// own: a failed submission records the error and returns the flow to its
// prior interactive state so the user can retry.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateAwaitingCode
	StateVerifying
	StateAuthenticated
)

// String returns the wire representation used in API responses.
func (s State) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateAwaitingCode:
		return "awaiting_code"
	case StateVerifying:
		return "verifying"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "idle"
	}
}

// Config carries the flow's timing parameters.
type Config struct {
	ResendCooldown  time.Duration
	JoinTimeout     time.Duration
	EmailRedirectTo string
}

// Flow owns one signup or login attempt for one visitor. Transitions happen
// only on explicit user actions and their async completions; there is no
// background polling.
type Flow struct {
	id       string
	provider domain.AuthProvider
	sessions *session.Manager
	logger   *slog.Logger
	cfg      Config

	mu            sync.Mutex
	state         State
	details       domain.SignupDetails
	cooldownUntil time.Time
	inFlight      bool

	now func() time.Time
}

// NewFlow creates an idle flow bound to the visitor's session manager. The
// flow watches the manager for session loss: an authenticated flow whose
// session disappears out-of-band (expiry, revocation) returns to idle so the
// visitor can sign in again instead of being stuck in a terminal state.
func NewFlow(provider domain.AuthProvider, sessions *session.Manager, logger *slog.Logger, cfg Config) *Flow {
	f := &Flow{
		id:       uuid.NewString(),
		provider: provider,
		sessions: sessions,
		logger:   logger,
		cfg:      cfg,
		state:    StateIdle,
		now:      time.Now,
	}
	sessions.Subscribe(func(c session.Change) {
		if c.Status == domain.StatusSignedOut {
			f.resetOnSignOut()
		}
	})
	return f
}

// ID identifies the flow in logs.
func (f *Flow) ID() string { return f.id }

// State returns the flow's current position.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// ResendCooldown returns the whole seconds remaining before a new code may be
// requested. Zero means resend is available.
func (f *Flow) ResendCooldown() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cooldownSecondsLocked()
}

// Details returns the pending signup fields, used to create the profile row
// once verification has succeeded.
func (f *Flow) Details() domain.SignupDetails {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.details
}

// SubmitLogin runs the returning-user path: validation, then a direct
// credential exchange. The flow reaches Authenticated only after the session
// manager has observed the new session.
func (f *Flow) SubmitLogin(ctx context.Context, email, password string) error {
	if fe := ValidateLogin(email, password); fe != nil {
		return fe
	}

	if err := f.begin(StateIdle, StateSubmitting); err != nil {
		return err
	}

	observed := f.watchForSession()
	defer observed.stop()

	_, err := f.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		f.finish(StateIdle)
		return err
	}

	return f.join(ctx, observed, StateIdle)
}

// SubmitSignup runs account creation. On success the flow awaits the emailed
// one-time code and the resend cooldown starts at its full duration. No
// profile row exists yet: an unverified email must not own one.
func (f *Flow) SubmitSignup(ctx context.Context, details domain.SignupDetails, confirmPassword string) error {
	if fe := ValidateSignup(details, confirmPassword); fe != nil {
		return fe
	}

	if err := f.begin(StateIdle, StateSubmitting); err != nil {
		return err
	}

	f.mu.Lock()
	f.details = details
	f.mu.Unlock()

	_, err := f.provider.SignUp(ctx, details.Email, details.Password, details.Metadata(), f.cfg.EmailRedirectTo)
	if err != nil {
		// Entered values stay in the flow so the form can re-render them.
		f.finish(StateIdle)
		return err
	}

	f.mu.Lock()
	f.cooldownUntil = f.now().Add(f.cfg.ResendCooldown)
	f.mu.Unlock()
	f.finish(StateAwaitingCode)
	return nil
}

// SubmitCode verifies the one-time code the user received out-of-band. The
// terminal transition is a join of two completions: the verification call
// resolving and the session-change notification arriving. A correct code
// whose session is never observed does not authenticate.
func (f *Flow) SubmitCode(ctx context.Context, code string) error {
	if fe := ValidateCode(code); fe != nil {
		return fe
	}

	if err := f.begin(StateAwaitingCode, StateVerifying); err != nil {
		return err
	}

	f.mu.Lock()
	email := f.details.Email
	f.mu.Unlock()

	observed := f.watchForSession()
	defer observed.stop()

	_, err := f.provider.VerifyOTP(ctx, email, code)
	if err != nil {
		f.finish(StateAwaitingCode)
		return err
	}

	return f.join(ctx, observed, StateAwaitingCode)
}

// Resend requests a fresh code. While the cooldown is positive this is a
// local no-op: no provider call is made. On success the cooldown resets to
// its full duration; on failure it is left untouched.
func (f *Flow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateAwaitingCode {
		f.mu.Unlock()
		return domain.ErrFlowState
	}
	if f.inFlight {
		f.mu.Unlock()
		return domain.ErrFlowBusy
	}
	if f.cooldownSecondsLocked() > 0 {
		f.mu.Unlock()
		return domain.ErrCooldownActive
	}
	f.inFlight = true
	email := f.details.Email
	f.mu.Unlock()

	err := f.provider.Resend(ctx, email)

	f.mu.Lock()
	f.inFlight = false
	if err == nil {
		f.cooldownUntil = f.now().Add(f.cfg.ResendCooldown)
	}
	f.mu.Unlock()
	return err
}

// resetOnSignOut returns an authenticated flow to idle when the session
// manager reports the session gone. Pending signup state in earlier flow
// positions is untouched: an awaiting-code attempt is not a session and must
// survive unrelated sign-out notifications.
func (f *Flow) resetOnSignOut() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight || f.state != StateAuthenticated {
		return
	}
	f.state = StateIdle
	f.details = domain.SignupDetails{}
	f.cooldownUntil = time.Time{}
}

// Restart abandons the attempt and returns the flow to idle, destroying the
// pending signup state. Used when the user switches between signup and login.
func (f *Flow) Restart() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return
	}
	f.state = StateIdle
	f.details = domain.SignupDetails{}
	f.cooldownUntil = time.Time{}
}

// begin moves the flow from an expected interactive state into a submitting
// state, rejecting duplicate submissions while a call is in flight.
func (f *Flow) begin(from, to State) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inFlight {
		return domain.ErrFlowBusy
	}
	if f.state != from {
		return domain.ErrFlowState
	}
	f.state = to
	f.inFlight = true
	return nil
}

// finish records the async completion's resulting state.
func (f *Flow) finish(to State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = to
	f.inFlight = false
}

// cooldownSecondsLocked derives the remaining cooldown from its deadline,
// rounded up so a freshly reset cooldown reads as the full duration. Caller
// holds f.mu.
func (f *Flow) cooldownSecondsLocked() int {
	remaining := f.cooldownUntil.Sub(f.now())
	if remaining <= 0 {
		return 0
	}
	return int((remaining + time.Second - 1) / time.Second)
}

// sessionWatch resolves once the visitor's session manager reports a
// signed-in session.
type sessionWatch struct {
	ch   chan struct{}
	stop func()
}

// watchForSession subscribes before the provider call is issued, so the
// notification cannot be missed even when it is delivered synchronously
// during the call.
func (f *Flow) watchForSession() *sessionWatch {
	ch := make(chan struct{}, 1)
	unsubscribe := f.sessions.Subscribe(func(c session.Change) {
		if c.Status == domain.StatusSignedIn {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	})
	return &sessionWatch{ch: ch, stop: unsubscribe}
}

// join completes the terminal transition once the session has been observed,
// or backs out to the given interactive state when it never arrives.
func (f *Flow) join(ctx context.Context, observed *sessionWatch, backout State) error {
	if status, _ := f.sessions.Current(); status == domain.StatusSignedIn {
		f.finish(StateAuthenticated)
		return nil
	}

	timer := time.NewTimer(f.cfg.JoinTimeout)
	defer timer.Stop()

	select {
	case <-observed.ch:
		f.finish(StateAuthenticated)
		return nil
	case <-timer.C:
	case <-ctx.Done():
	}

	f.logger.Warn("call succeeded but no session was observed", "flow_id", f.id)
	f.finish(backout)
	return domain.ErrSessionNotSeen
}

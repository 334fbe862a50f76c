package security

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oigbridge/oigbridge/pkg/log"
)

const (
	// MaxFailures is how many consecutive failures trigger a lockout.
	MaxFailures = 3
	// InitialLockout is the lockout applied at exactly MaxFailures.
	InitialLockout = 10 * time.Second
	// MaxLockout caps the exponential backoff.
	MaxLockout = 30 * time.Second
)

// RateLimitedError is returned while an email is still in a lockout
// window. Remaining is the number of whole seconds left.
type RateLimitedError struct {
	Remaining int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many failed authentication attempts, try again in %d seconds", e.Remaining)
}

type limiterState struct {
	failedAttempts int
	lockoutUntil   time.Time
}

// RateLimiter is an in-memory exponential-backoff limiter guarding the
// authentication path. It tracks per-email failure counts and lockout
// windows; state lives for the process lifetime. Intended for a single
// process with modest concurrency, not for distributed deployments.
type RateLimiter struct {
	mu    sync.Mutex
	users map[string]*limiterState
	now   func() time.Time
}

// NewRateLimiter returns an empty limiter.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		users: make(map[string]*limiterState),
		now:   time.Now,
	}
}

// CheckAndProceed returns a *RateLimitedError while the email is locked
// out, otherwise nil. This is only a gate check, not an attempt: unseen
// emails are initialized with zero failures.
func (rl *RateLimiter) CheckAndProceed(email string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.users[email]
	if !ok {
		rl.users[email] = &limiterState{}
		return nil
	}

	now := rl.now()
	if state.lockoutUntil.After(now) {
		return &RateLimitedError{Remaining: int(state.lockoutUntil.Sub(now).Seconds())}
	}
	return nil
}

// RecordSuccess resets the failure count and lockout for the email.
func (rl *RateLimiter) RecordSuccess(email string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.users[email] = &limiterState{}
}

// RecordFailure registers a failed authentication attempt. Once the count
// reaches MaxFailures the lockout window is set to
// min(InitialLockout * 2^(count-MaxFailures), MaxLockout) and is extended
// on every further failure.
func (rl *RateLimiter) RecordFailure(email string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.users[email]
	if !ok {
		state = &limiterState{}
		rl.users[email] = state
	}
	state.failedAttempts++

	if state.failedAttempts >= MaxFailures {
		lockout := InitialLockout << uint(state.failedAttempts-MaxFailures)
		if lockout > MaxLockout || lockout <= 0 {
			lockout = MaxLockout
		}
		state.lockoutUntil = rl.now().Add(lockout)
		ctx := context.Background()
		log.Ctx(ctx).WarnContext(ctx, "user locked out after repeated auth failures",
			slog.String("email", email),
			slog.Int("failures", state.failedAttempts),
			slog.Duration("lockout", lockout),
		)
	}
}

package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	const email = "user@example.com"

	// fixed clock the tests can advance
	newLimiter := func() (*RateLimiter, *time.Time) {
		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		rl := NewRateLimiter()
		rl.now = func() time.Time { return now }
		return rl, &now
	}

	t.Run("UnseenEmailAllowed", func(t *testing.T) {
		rl, _ := newLimiter()
		assert.NoError(t, rl.CheckAndProceed(email))
	})

	t.Run("BelowThresholdNoLockout", func(t *testing.T) {
		rl, _ := newLimiter()
		rl.RecordFailure(email)
		rl.RecordFailure(email)
		assert.NoError(t, rl.CheckAndProceed(email), "two failures don't lock out")
	})

	t.Run("ThirdFailureLocksOut", func(t *testing.T) {
		rl, now := newLimiter()
		for i := 0; i < 3; i++ {
			rl.RecordFailure(email)
		}

		err := rl.CheckAndProceed(email)
		var rateLimited *RateLimitedError
		require.ErrorAs(t, err, &rateLimited)
		assert.Equal(t, 10, rateLimited.Remaining)

		// window expires
		*now = now.Add(10 * time.Second)
		assert.NoError(t, rl.CheckAndProceed(email))
	})

	t.Run("BackoffDoublesUpToCap", func(t *testing.T) {
		rl, now := newLimiter()
		expect := []time.Duration{
			10 * time.Second, // 3rd failure
			20 * time.Second, // 4th
			30 * time.Second, // 5th hits the cap
			30 * time.Second, // 6th stays capped
		}
		rl.RecordFailure(email)
		rl.RecordFailure(email)
		for _, lockout := range expect {
			rl.RecordFailure(email)
			err := rl.CheckAndProceed(email)
			var rateLimited *RateLimitedError
			require.ErrorAs(t, err, &rateLimited)
			assert.Equal(t, int(lockout.Seconds()), rateLimited.Remaining)
			// let the window lapse before the next failure
			*now = now.Add(lockout)
		}
	})

	t.Run("SuccessResets", func(t *testing.T) {
		rl, _ := newLimiter()
		for i := 0; i < 5; i++ {
			rl.RecordFailure(email)
		}
		rl.RecordSuccess(email)
		assert.NoError(t, rl.CheckAndProceed(email))

		// the backoff restarts from scratch too
		rl.RecordFailure(email)
		rl.RecordFailure(email)
		assert.NoError(t, rl.CheckAndProceed(email))
	})

	t.Run("EmailsIsolated", func(t *testing.T) {
		rl, _ := newLimiter()
		for i := 0; i < 3; i++ {
			rl.RecordFailure(email)
		}
		assert.Error(t, rl.CheckAndProceed(email))
		assert.NoError(t, rl.CheckAndProceed("other@example.com"))
	})

	t.Run("ErrorMessage", func(t *testing.T) {
		err := &RateLimitedError{Remaining: 17}
		assert.Equal(t, "too many failed authentication attempts, try again in 17 seconds", err.Error())
	})
}

package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"appealnotify/internal/types"
)

func TestRetryPolicyDelays(t *testing.T) {
	now := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	policy := NewRetryPolicy(3, fakeClock{now: now})
	serverErr := types.NewProviderError(500, "internal", nil)

	cases := []struct {
		attempt int
		delay   time.Duration
	}{
		{1, 5 * time.Minute},
		{2, 15 * time.Minute},
		{3, time.Hour},
	}
	for _, tc := range cases {
		at, ok := policy.NextAttemptAt(tc.attempt, serverErr)
		assert.True(t, ok, "attempt %d should reschedule", tc.attempt)
		assert.Equal(t, now.Add(tc.delay), at)
	}
}

func TestRetryPolicyNonRetryableStatuses(t *testing.T) {
	policy := NewRetryPolicy(3, fakeClock{now: time.Now()})

	for _, status := range []int{400, 403} {
		_, ok := policy.NextAttemptAt(1, types.NewProviderError(status, "rejected", nil))
		assert.False(t, ok, "status %d must never retry", status)
	}
}

func TestRetryPolicyAttemptBounds(t *testing.T) {
	policy := NewRetryPolicy(3, fakeClock{now: time.Now()})
	serverErr := types.NewProviderError(502, "bad gateway", nil)

	for _, attempt := range []int{0, -1, 4, 10} {
		_, ok := policy.NextAttemptAt(attempt, serverErr)
		assert.False(t, ok, "attempt %d is outside the retry window", attempt)
	}
}

func TestRetryPolicyNonProviderErrorsAreTerminal(t *testing.T) {
	policy := NewRetryPolicy(3, fakeClock{now: time.Now()})

	_, ok := policy.NextAttemptAt(1, errors.New("marshalling blew up"))
	assert.False(t, ok)

	_, ok = policy.NextAttemptAt(1, types.NewAppError(types.ErrCodeInternalUnexpected, "boom", nil))
	assert.False(t, ok)
}

func TestRetryPolicyUnwrapsWrappedProviderErrors(t *testing.T) {
	now := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	policy := NewRetryPolicy(3, fakeClock{now: now})

	wrapped := types.NewAppError(types.ErrCodeNotifyRejected, "send failed",
		types.NewProviderError(503, "unavailable", nil))
	at, ok := policy.NextAttemptAt(2, wrapped)
	assert.True(t, ok)
	assert.Equal(t, now.Add(15*time.Minute), at)
}

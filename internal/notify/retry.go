package notify

import (
	"errors"
	"time"

	"appealnotify/internal/types"
)

// retryDelays maps the attempt number that just failed to the delay before
// the next attempt.
var retryDelays = map[int]time.Duration{
	1: 5 * time.Minute,
	2: 15 * time.Minute,
	3: time.Hour,
}

// nonRetryableStatuses are provider rejections that no amount of retrying
// will fix: malformed content or a revoked key.
var nonRetryableStatuses = map[int]struct{}{
	400: {},
	403: {},
}

// RetryPolicy decides whether a failed channel send earns another attempt and
// when that attempt fires.
type RetryPolicy struct {
	maxRetries int
	clock      types.Clock
}

func NewRetryPolicy(maxRetries int, clock types.Clock) *RetryPolicy {
	return &RetryPolicy{maxRetries: maxRetries, clock: clock}
}

// NextAttemptAt returns the trigger instant for the retry following a failure
// on the given attempt, and whether a retry is permitted at all. Only
// provider-classified failures are ever rescheduled; every other error is
// terminal for the send. Attempts outside [1, maxRetries] never reschedule.
func (p *RetryPolicy) NextAttemptAt(attempt int, sendErr error) (time.Time, bool) {
	var pe *types.ProviderError
	if !errors.As(sendErr, &pe) {
		return time.Time{}, false
	}
	if _, fatal := nonRetryableStatuses[pe.StatusCode]; fatal {
		return time.Time{}, false
	}
	if attempt < 1 || attempt > p.maxRetries {
		return time.Time{}, false
	}
	delay, ok := retryDelays[attempt]
	if !ok {
		return time.Time{}, false
	}
	return p.clock.Now().Add(delay), true
}

// MaxRetries returns the retry ceiling.
func (p *RetryPolicy) MaxRetries() int { return p.maxRetries }

package queue

import (
	"math"
	"time"
)

const maxBackoff = 24 * time.Hour

// RetryPolicy computes when a retryable failure should be attempted again.
type RetryPolicy struct {
	MaxRetry  int
	Base      time.Duration
	MaxJitter time.Duration
	Now       func() time.Time
	rand      randSource
}

// NewRetryPolicy builds a policy from queue options. now defaults to the UTC wall clock.
func NewRetryPolicy(opts Options, now func() time.Time) RetryPolicy {
	opts.applyDefaults()
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return RetryPolicy{
		MaxRetry:  opts.MaxRetry,
		Base:      opts.BackoffBase,
		MaxJitter: opts.MaxJitter,
		Now:       now,
		rand:      newRandSource(opts.Rand),
	}
}

// Delay returns the backoff after the failureCount-th failure and whether another
// attempt is allowed. The n-th failure waits Base·4^(n-1) plus jitter in (0, MaxJitter).
func (p RetryPolicy) Delay(failureCount int) (time.Duration, bool) {
	if failureCount >= p.MaxRetry {
		return 0, false
	}
	exp := max(failureCount-1, 0)
	backoff := maxBackoff
	if f := float64(p.Base) * math.Pow(4, float64(exp)); f < float64(maxBackoff) {
		backoff = time.Duration(f)
	}
	return backoff + p.jitter(), true
}

// Reschedule returns the next attempt time for an item that has now failed
// failureCount times, or false when retries are exhausted.
func (p RetryPolicy) Reschedule(failureCount int) (time.Time, bool) {
	return p.RescheduleFrom(p.Now(), failureCount)
}

// RescheduleFrom is Reschedule relative to an explicit clock reading.
func (p RetryPolicy) RescheduleFrom(now time.Time, failureCount int) (time.Time, bool) {
	d, ok := p.Delay(failureCount)
	if !ok {
		return time.Time{}, false
	}
	return now.Add(d), true
}

func (p RetryPolicy) jitter() time.Duration {
	if p.MaxJitter <= time.Nanosecond {
		return 0
	}
	src := p.rand
	if src == nil {
		src = globalRand{}
	}
	return between(src, time.Nanosecond, p.MaxJitter)
}

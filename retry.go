package lmg

import (
	"math"
	"time"
)

// RetryPolicy bounds how often a failed job runs again.
type RetryPolicy struct {
	MaxAttempts int
	Strategy    RetryStrategy
	Filter      func(error) bool
}

// RetryStrategy picks the delay before retry attempt (1-based).
type RetryStrategy interface {
	NextDelay(attempt int) time.Duration
}

/*
ExponentialBackoff doubles the delay on every attempt, starting at Initial.
A positive Max caps the delay.
*/
type ExponentialBackoff struct {
	Initial time.Duration
	Max     time.Duration
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := eb.Initial * time.Duration(math.Pow(2, float64(attempt-1)))
	if eb.Max > 0 && delay > eb.Max {
		return eb.Max
	}
	return delay
}

// WithRetry runs the job up to attempts times.
func WithRetry(attempts int, strategy RetryStrategy) JobOption {
	return func(j *Job) {
		j.RetryPolicy = &RetryPolicy{
			MaxAttempts: attempts,
			Strategy:    strategy,
		}
	}
}

/*
WithRetryFilter stops retrying as soon as filter returns false for an error.
Errors that cannot change between attempts, such as a malformed circuit,
should not be retried. It must follow WithRetry.
*/
func WithRetryFilter(filter func(error) bool) JobOption {
	return func(j *Job) {
		if j.RetryPolicy != nil {
			j.RetryPolicy.Filter = filter
		}
	}
}

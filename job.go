package lmg

import "time"

// Job is one unit of experiment work, typically one grid point.
type Job struct {
	ID          string
	Fn          func() (any, error)
	RetryPolicy *RetryPolicy
	CircuitID   string
	TTL         time.Duration
	Attempt     int
	LastError   error
	StartTime   time.Time
}

// JobOption configures a job when it is scheduled.
type JobOption func(*Job)

// CircuitBreakerConfig sizes the breaker created for a job's CircuitID.
type CircuitBreakerConfig struct {
	MaxFailures  int
	ResetTimeout time.Duration
	HalfOpenMax  int
}

// WithTTL keeps the job's result in the result space for ttl.
func WithTTL(ttl time.Duration) JobOption {
	return func(j *Job) {
		j.TTL = ttl
	}
}

package lmg

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

/*
CircuitState represents the state of the circuit breaker.
*/
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation state
	CircuitOpen                         // Failure state, rejecting requests
	CircuitHalfOpen                     // Probationary state, allowing limited requests
)

/*
CircuitBreaker stops jobs from reaching a backend that keeps failing. After
maxFailures consecutive failures it rejects work for resetTimeout, then lets
up to halfOpenMax probes through; enough successful probes close it again.

It is keyed by backend name, so a misbehaving noise model halts a sweep
quickly instead of failing every remaining grid point in turn.
*/
type CircuitBreaker struct {
	mu               sync.Mutex
	maxFailures      int           // Maximum failures before opening circuit
	resetTimeout     time.Duration // Time to wait before attempting recovery
	halfOpenMax      int           // Maximum requests allowed in half-open state
	failureCount     int           // Current count of consecutive failures
	state            CircuitState  // Current state of the circuit breaker
	openTime         time.Time     // Time when circuit was opened
	halfOpenAttempts int           // Number of attempts made in half-open state
}

/*
NewCircuitBreaker creates a new circuit breaker instance in the closed state.
*/
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration, halfOpenMax int) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		halfOpenMax:  halfOpenMax,
		state:        CircuitClosed,
	}
}

/*
RecordFailure records a failure and opens the circuit once the failure
threshold is reached. A failure while half-open reopens immediately.
*/
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	switch {
	case cb.state == CircuitHalfOpen:
		cb.state = CircuitOpen
		cb.openTime = time.Now()
		log.Warn("circuit breaker reopened from half-open state")
	case cb.state == CircuitClosed && cb.failureCount >= cb.maxFailures:
		cb.state = CircuitOpen
		cb.openTime = time.Now()
		log.Warn("circuit breaker opened", "failures", cb.failureCount)
	}
}

/*
RecordSuccess records a successful attempt, closing a half-open circuit once
enough probes have succeeded.
*/
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitHalfOpen:
		cb.halfOpenAttempts++
		if cb.halfOpenAttempts >= cb.halfOpenMax {
			cb.state = CircuitClosed
			cb.failureCount = 0
			cb.halfOpenAttempts = 0
			log.Info("circuit breaker closed from half-open")
		}
	case CircuitClosed:
		cb.failureCount = 0
	}
}

/*
Allow determines if a request is allowed based on the circuit state.
*/
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.openTime) > cb.resetTimeout {
			cb.state = CircuitHalfOpen
			cb.halfOpenAttempts = 0
			return true
		}
		return false
	case CircuitHalfOpen:
		return cb.halfOpenAttempts < cb.halfOpenMax
	default:
		return false
	}
}

// State reports the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

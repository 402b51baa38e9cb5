package lmg

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCircuitBreakerInitialState(t *testing.T) {
	Convey("Given a newly created circuit breaker", t, func() {
		breaker := NewCircuitBreaker(2, 100*time.Millisecond, 1)

		Convey("It should start in closed state", func() {
			So(breaker.Allow(), ShouldBeTrue)
			So(breaker.State(), ShouldEqual, CircuitClosed)
		})
	})
}

func TestCircuitBreakerFailureThreshold(t *testing.T) {
	Convey("Given a circuit breaker with failure threshold", t, func() {
		breaker := NewCircuitBreaker(2, 100*time.Millisecond, 1)

		Convey("It should open after max failures", func() {
			breaker.RecordFailure()
			So(breaker.State(), ShouldEqual, CircuitClosed)

			breaker.RecordFailure()
			So(breaker.Allow(), ShouldBeFalse)
			So(breaker.State(), ShouldEqual, CircuitOpen)

			time.Sleep(150 * time.Millisecond)

			So(breaker.Allow(), ShouldBeTrue)
			So(breaker.State(), ShouldEqual, CircuitHalfOpen)
		})
	})
}

func TestCircuitBreakerHalfOpen(t *testing.T) {
	Convey("Given a circuit breaker in half-open state", t, func() {
		breaker := NewCircuitBreaker(2, 100*time.Millisecond, 1)
		breaker.RecordFailure()
		breaker.RecordFailure()
		time.Sleep(150 * time.Millisecond)
		So(breaker.Allow(), ShouldBeTrue)

		Convey("It should close after a successful probe", func() {
			breaker.RecordSuccess()
			So(breaker.State(), ShouldEqual, CircuitClosed)
			So(breaker.failureCount, ShouldEqual, 0)
		})

		Convey("It should open again after a failed probe", func() {
			breaker.RecordFailure()
			So(breaker.State(), ShouldEqual, CircuitOpen)
			So(breaker.Allow(), ShouldBeFalse)
		})

		Convey("It should limit probes to halfOpenMax", func() {
			breaker.halfOpenAttempts = 1
			So(breaker.Allow(), ShouldBeFalse)
		})
	})
}

func TestCircuitBreakerSuccessReset(t *testing.T) {
	Convey("Given a circuit breaker in closed state", t, func() {
		breaker := NewCircuitBreaker(2, 100*time.Millisecond, 1)

		Convey("It should reset failure count on success", func() {
			breaker.RecordFailure()
			breaker.RecordSuccess()
			breaker.RecordFailure()

			So(breaker.Allow(), ShouldBeTrue)
			So(breaker.State(), ShouldEqual, CircuitClosed)
			So(breaker.failureCount, ShouldEqual, 1)
		})
	})
}

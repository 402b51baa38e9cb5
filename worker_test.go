package lmg

import (
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

const timeoutMsg = "Test timed out waiting for value retrieval"

func newTestPool(ctx context.Context, jobTimeout time.Duration) *Pool {
	config := NewPoolConfig()
	config.JobTimeout = jobTimeout

	return &Pool{
		ctx:      ctx,
		workers:  make(chan chan Job, 1),
		space:    newResultSpace(log.Default(), time.Minute),
		metrics:  newMetrics(),
		breakers: make(map[string]*CircuitBreaker),
		config:   config,
		logger:   log.Default(),
	}
}

func TestWorker(t *testing.T) {
	Convey("Given a worker", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		pool := newTestPool(ctx, time.Second)

		worker := &Worker{
			pool: pool,
			jobs: make(chan Job, 1),
		}

		Reset(func() {
			cancel()
			pool.space.Close()
		})

		await := func(id string) Result {
			select {
			case <-time.After(2 * time.Second):
				t.Fatal(timeoutMsg)
			case value := <-pool.space.Await(id):
				return value
			}
			return Result{}
		}

		Convey("It should process a job successfully", func() {
			worker.jobs <- Job{
				ID:        "job_success",
				Fn:        func() (any, error) { return "result", nil },
				StartTime: time.Now(),
			}
			go worker.run()

			value := await("job_success")
			So(value.Error, ShouldBeNil)
			So(value.Value, ShouldEqual, "result")
			So(pool.metrics.JobCount, ShouldEqual, int64(1))
		})

		Convey("It should handle job timeout", func() {
			pool.config.JobTimeout = 50 * time.Millisecond

			worker.jobs <- Job{
				ID: "job_timeout",
				Fn: func() (any, error) {
					time.Sleep(200 * time.Millisecond)
					return nil, nil
				},
				StartTime: time.Now(),
			}
			go worker.run()

			value := await("job_timeout")
			So(value.Error, ShouldNotBeNil)
			So(value.Error.Error(), ShouldContainSubstring, "timed out")
		})

		Convey("It should stop retrying errors the filter rejects", func() {
			attempts := 0

			job := Job{
				ID: "job_permanent",
				Fn: func() (any, error) {
					attempts++
					return nil, errors.Wrap(ErrGateArity, "Sxx")
				},
				StartTime: time.Now(),
			}
			WithRetry(5, &ExponentialBackoff{Initial: time.Millisecond})(&job)
			WithRetryFilter(retryable)(&job)

			worker.jobs <- job
			go worker.run()

			value := await("job_permanent")
			So(errors.Is(value.Error, ErrGateArity), ShouldBeTrue)
			So(value.Error.Error(), ShouldContainSubstring, "after 1 attempts")
			So(attempts, ShouldEqual, 1)
		})

		Convey("It should refuse jobs behind an open breaker", func() {
			pool.breaker("backend").state = CircuitOpen
			pool.breaker("backend").openTime = time.Now()

			called := false
			job := Job{
				ID:        "job_breaker",
				Fn:        func() (any, error) { called = true; return nil, nil },
				StartTime: time.Now(),
			}
			WithCircuitBreaker("backend")(&job)

			worker.jobs <- job
			go worker.run()

			value := await("job_breaker")
			So(errors.Is(value.Error, ErrCircuitBreakerOpen), ShouldBeTrue)
			So(called, ShouldBeFalse)
		})
	})
}

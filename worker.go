package lmg

import (
	"time"

	"github.com/pkg/errors"
)

// Worker processes jobs
type Worker struct {
	pool *Pool
	jobs chan Job
}

func (w *Worker) run() {
	for {
		select {
		case <-w.pool.ctx.Done():
			return
		case w.pool.workers <- w.jobs:
		}

		select {
		case <-w.pool.ctx.Done():
			return
		case job := <-w.jobs:
			w.handle(job)
		}
	}
}

// handle runs one job and stores its result, or a timeout error if it overruns.
func (w *Worker) handle(job Job) {
	done := make(chan Result, 1)
	go func() {
		value, err := w.processJob(job)
		done <- Result{Value: value, Error: err}
	}()

	timeout := w.pool.config.JobTimeout
	if timeout <= 0 {
		timeout = NewPoolConfig().JobTimeout
	}

	select {
	case r := <-done:
		w.pool.space.Store(job.ID, r.Value, r.Error, job.TTL)
	case <-time.After(timeout):
		w.pool.logger.Error("job timed out", "job", job.ID, "after", timeout)
		w.pool.space.Store(job.ID, nil, errors.Errorf("job %s timed out", job.ID), job.TTL)
	case <-w.pool.ctx.Done():
		w.pool.space.Store(job.ID, nil, errors.Wrap(ErrPoolClosed, job.ID), job.TTL)
	}
}

func (w *Worker) processJob(job Job) (any, error) {
	var breaker *CircuitBreaker
	if job.CircuitID != "" {
		breaker = w.pool.breaker(job.CircuitID)
		if !breaker.Allow() {
			return nil, errors.Wrap(ErrCircuitBreakerOpen, job.CircuitID)
		}
	}

	result, err := w.executeWithRetries(job, breaker)
	w.pool.metrics.recordJobExecution(job.StartTime, err == nil)

	if err != nil {
		return nil, err
	}

	if breaker != nil {
		breaker.RecordSuccess()
	}
	return result, nil
}

func (w *Worker) executeWithRetries(job Job, breaker *CircuitBreaker) (any, error) {
	policy := job.RetryPolicy
	if policy == nil || policy.MaxAttempts < 1 {
		policy = &RetryPolicy{MaxAttempts: 1}
	}

	attempts := 0
	for job.Attempt = 0; job.Attempt < policy.MaxAttempts; job.Attempt++ {
		if job.Attempt > 0 {
			delay := time.Duration(0)
			if policy.Strategy != nil {
				delay = policy.Strategy.NextDelay(job.Attempt)
			}
			w.pool.metrics.recordRetry()
			w.pool.logger.Warn("retrying job", "job", job.ID, "attempt", job.Attempt+1, "delay", delay)

			select {
			case <-time.After(delay):
			case <-w.pool.ctx.Done():
				return nil, errors.Wrap(ErrPoolClosed, job.ID)
			}
		}

		attempts++
		result, err := job.Fn()
		if err == nil {
			return result, nil
		}

		job.LastError = err
		w.pool.logger.Debug("job attempt failed", "job", job.ID, "attempt", job.Attempt+1, "err", err)
		if breaker != nil {
			breaker.RecordFailure()
		}

		if policy.Filter != nil && !policy.Filter(job.LastError) {
			break
		}
	}

	return nil, errors.Wrapf(job.LastError, "job %s failed after %d attempts", job.ID, attempts)
}

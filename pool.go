package lmg

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// PoolConfig holds the pool's timeouts and the breaker used for CircuitIDs.
type PoolConfig struct {
	SchedulingTimeout time.Duration
	JobTimeout        time.Duration
	Breaker           CircuitBreakerConfig
}

// NewPoolConfig returns the default pool configuration.
func NewPoolConfig() *PoolConfig {
	return &PoolConfig{
		SchedulingTimeout: 10 * time.Second,
		JobTimeout:        10 * time.Minute,
		Breaker: CircuitBreakerConfig{
			MaxFailures:  3,
			ResetTimeout: 5 * time.Second,
			HalfOpenMax:  1,
		},
	}
}

/*
Pool runs experiment jobs on a fixed set of workers. Results are collected
in a ResultSpace and handed back through the channel Schedule returns.
*/
type Pool struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	workers    chan chan Job
	jobs       chan Job
	space      *ResultSpace
	metrics    *Metrics
	breakers   map[string]*CircuitBreaker
	breakersMu sync.Mutex
	config     *PoolConfig
	logger     *log.Logger
	closeOnce  sync.Once
}

// NewPool starts size workers that run until ctx ends or Close is called.
func NewPool(ctx context.Context, size int, config *PoolConfig, logger *log.Logger) *Pool {
	if config == nil {
		config = NewPoolConfig()
	}
	if logger == nil {
		logger = log.Default()
	}
	size = max(size, 1)

	ctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		ctx:      ctx,
		cancel:   cancel,
		workers:  make(chan chan Job, size),
		jobs:     make(chan Job, size*10),
		space:    newResultSpace(logger, time.Minute),
		metrics:  newMetrics(),
		breakers: make(map[string]*CircuitBreaker),
		config:   config,
		logger:   logger,
	}

	for i := 0; i < size; i++ {
		p.startWorker()
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.manage()
	}()

	return p
}

func (p *Pool) manage() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.jobs:
			select {
			case <-p.ctx.Done():
				p.space.Store(job.ID, nil, errors.Wrap(ErrPoolClosed, job.ID), job.TTL)
				return
			case workerChan := <-p.workers:
				select {
				case workerChan <- job:
				case <-p.ctx.Done():
					p.space.Store(job.ID, nil, errors.Wrap(ErrPoolClosed, job.ID), job.TTL)
					return
				}
			}

			p.metrics.mu.Lock()
			p.metrics.JobQueueSize = len(p.jobs)
			p.metrics.mu.Unlock()
		}
	}
}

/*
Capacity is how many jobs can wait in the queue. A queued job waits for a
free worker for as long as the pool runs; SchedulingTimeout only bounds the
wait for room in the queue.
*/
func (p *Pool) Capacity() int {
	return cap(p.jobs)
}

/*
Schedule queues fn under id and returns a channel that receives its result.
Ids must be unique for the lifetime of the pool.
*/
func (p *Pool) Schedule(id string, fn func() (any, error), opts ...JobOption) chan Result {
	job := Job{
		ID: id,
		Fn: fn,
		RetryPolicy: &RetryPolicy{
			MaxAttempts: 1,
			Strategy:    &ExponentialBackoff{Initial: time.Second},
		},
		StartTime: time.Now(),
	}

	for _, opt := range opts {
		opt(&job)
	}

	if p.ctx.Err() != nil {
		return failed(errors.Wrap(ErrPoolClosed, id))
	}

	if job.CircuitID != "" && !p.breaker(job.CircuitID).Allow() {
		return failed(errors.Wrap(ErrCircuitBreakerOpen, job.CircuitID))
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.config.SchedulingTimeout)
	defer cancel()

	select {
	case p.jobs <- job:
		return p.space.Await(id)
	case <-ctx.Done():
		p.metrics.mu.Lock()
		p.metrics.SchedulingFailures++
		p.metrics.mu.Unlock()

		if p.ctx.Err() != nil {
			return failed(errors.Wrap(ErrPoolClosed, id))
		}
		return failed(errors.Wrapf(ctx.Err(), "scheduling job %s", id))
	}
}

// WithCircuitBreaker guards the job with the pool's breaker named id.
func WithCircuitBreaker(id string) JobOption {
	return func(j *Job) {
		j.CircuitID = id
	}
}

func (p *Pool) breaker(id string) *CircuitBreaker {
	p.breakersMu.Lock()
	defer p.breakersMu.Unlock()

	cb, ok := p.breakers[id]
	if !ok {
		cfg := p.config.Breaker
		cb = NewCircuitBreaker(cfg.MaxFailures, cfg.ResetTimeout, cfg.HalfOpenMax)
		p.breakers[id] = cb
	}
	return cb
}

// Metrics returns a snapshot of the pool's metrics.
func (p *Pool) Metrics() map[string]any {
	return p.metrics.ExportMetrics()
}

// Close stops the workers. Jobs still queued fail with ErrPoolClosed.
func (p *Pool) Close() {
	if p == nil {
		return
	}

	p.closeOnce.Do(func() {
		p.cancel()
		p.wg.Wait()

	drain:
		for {
			select {
			case job := <-p.jobs:
				p.space.Store(job.ID, nil, errors.Wrap(ErrPoolClosed, job.ID), job.TTL)
			default:
				break drain
			}
		}

		p.space.Close()
		p.logger.Debug("pool closed", "metrics", p.metrics.ExportMetrics())
	})
}

func (p *Pool) startWorker() {
	worker := &Worker{
		pool: p,
		jobs: make(chan Job),
	}

	p.metrics.mu.Lock()
	p.metrics.WorkerCount++
	p.metrics.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		worker.run()
	}()
}

func failed(err error) chan Result {
	ch := make(chan Result, 1)
	ch <- Result{Error: err, CreatedAt: time.Now()}
	close(ch)
	return ch
}

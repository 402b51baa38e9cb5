package lmg

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Result is the outcome of a job.
type Result struct {
	Value     any
	Error     error
	CreatedAt time.Time
	TTL       time.Duration
}

/*
ResultSpace stores job results by id and hands them to anyone awaiting
them, whether they started waiting before or after the result arrived.
*/
type ResultSpace struct {
	mu      sync.Mutex
	values  map[string]Result
	waiting map[string][]chan Result
	logger  *log.Logger
	done    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

func newResultSpace(logger *log.Logger, sweep time.Duration) *ResultSpace {
	if logger == nil {
		logger = log.Default()
	}

	rs := &ResultSpace{
		values:  make(map[string]Result),
		waiting: make(map[string][]chan Result),
		logger:  logger,
		done:    make(chan struct{}),
	}

	rs.wg.Add(1)
	go func() {
		defer rs.wg.Done()
		rs.cleanup(sweep)
	}()

	return rs
}

// Store records a job result and wakes every waiter.
func (rs *ResultSpace) Store(id string, value any, err error, ttl time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	r := Result{
		Value:     value,
		Error:     err,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
	rs.values[id] = r

	channels := rs.waiting[id]
	rs.logger.Debug("storing result", "job", id, "err", err, "waiting", len(channels))

	// Await channels are buffered with room for exactly this send.
	for _, ch := range channels {
		ch <- r
		close(ch)
	}
	delete(rs.waiting, id)
}

// Await returns a channel that receives the job's result once.
func (rs *ResultSpace) Await(id string) chan Result {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	ch := make(chan Result, 1)

	if r, ok := rs.values[id]; ok {
		ch <- r
		close(ch)
		return ch
	}

	rs.waiting[id] = append(rs.waiting[id], ch)
	return ch
}

func (rs *ResultSpace) cleanup(sweep time.Duration) {
	ticker := time.NewTicker(sweep)
	defer ticker.Stop()

	for {
		select {
		case <-rs.done:
			return
		case <-ticker.C:
			rs.mu.Lock()
			rs.expire(time.Now())
			rs.mu.Unlock()
		}
	}
}

// expire drops results past their TTL. Results without a TTL are kept.
func (rs *ResultSpace) expire(now time.Time) {
	for id, r := range rs.values {
		if r.TTL > 0 && now.Sub(r.CreatedAt) > r.TTL {
			delete(rs.values, id)
		}
	}
}

// Close stops the cleanup loop.
func (rs *ResultSpace) Close() {
	rs.once.Do(func() {
		close(rs.done)
	})
	rs.wg.Wait()
}

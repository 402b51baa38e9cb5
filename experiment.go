package lmg

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

/*
NewBackend builds the backend named by the config, throttled when a rate
limit is set.
*/
func NewBackend(cfg *Config, logger *log.Logger) (Backend, error) {
	var backend Backend

	switch cfg.Backend {
	case "emulator":
		backend = &Emulator{Cutoff: cfg.Cutoff}
	case "noisy":
		noisy, err := NewNoisyEmulator(cfg.NoiseModel(), logger)
		if err != nil {
			return nil, err
		}
		noisy.Cutoff = cfg.Cutoff
		backend = noisy
	default:
		return nil, errors.Wrap(ErrUnknownBackend, cfg.Backend)
	}

	if cfg.RateLimit > 0 {
		return NewThrottledBackend(backend, cfg.RateLimit, cfg.RateBurst), nil
	}
	return backend, nil
}

/*
Runner drives the experiment sweeps. Each sweep point is a pool job; results
are written in point order once every job has finished.
*/
type Runner struct {
	config      *Config
	params      *Parameters
	measurement *Measurement
	pool        *Pool
	ledger      *Ledger
	logger      *log.Logger
	runID       string
	jobs        atomic.Uint64
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithBackend replaces the backend the config would select.
func WithBackend(backend Backend) RunnerOption {
	return func(r *Runner) {
		r.measurement = NewMeasurement(backend, r.logger)
	}
}

// WithParameters replaces the parameters the config would load.
func WithParameters(params *Parameters) RunnerOption {
	return func(r *Runner) {
		r.params = params
	}
}

// NewRunner wires the backend, parameters, pool and ledger for one run.
func NewRunner(ctx context.Context, cfg *Config, logger *log.Logger, opts ...RunnerOption) (*Runner, error) {
	if logger == nil {
		logger = log.Default()
	}

	r := &Runner{
		config: cfg,
		logger: logger,
		runID:  uuid.NewString(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.measurement == nil {
		backend, err := NewBackend(cfg, logger)
		if err != nil {
			return nil, err
		}
		r.measurement = NewMeasurement(backend, logger)
	}

	if r.params == nil {
		r.params = DefaultParameters()
		if cfg.Parameters != "" {
			params, err := LoadParameters(cfg.Parameters)
			if err != nil {
				return nil, err
			}
			r.params = params
		}
	}

	if cfg.Ledger != "" {
		ledger, err := OpenLedger(ctx, cfg.Ledger)
		if err != nil {
			return nil, err
		}
		r.ledger = ledger
	}

	poolConfig := NewPoolConfig()
	if cfg.SchedulingTimeout > 0 {
		poolConfig.SchedulingTimeout = cfg.SchedulingTimeout
	}
	if cfg.JobTimeout > 0 {
		poolConfig.JobTimeout = cfg.JobTimeout
	}
	r.pool = NewPool(ctx, cfg.Workers, poolConfig, logger)

	r.logger = logger.With("run", r.runID)
	return r, nil
}

// RunID identifies this run in logs and the ledger.
func (r *Runner) RunID() string {
	return r.runID
}

// Ledger returns the run ledger, or nil when none is configured.
func (r *Runner) Ledger() *Ledger {
	return r.ledger
}

// Close stops the pool and closes the ledger.
func (r *Runner) Close() error {
	r.pool.Close()
	r.logger.Debug("pool metrics", "metrics", r.pool.Metrics())

	if r.ledger != nil {
		return r.ledger.Close()
	}
	return nil
}

// PointDir is where a point run writes its files.
func (r *Runner) PointDir() string {
	tag := r.measurement.Backend().Name()
	if r.config.PostSelection {
		tag += "_post_selection"
	}
	return filepath.Join(r.config.ResultsDir, "point", tag)
}

// GridDir is where a grid run over n qubits writes its files.
func (r *Runner) GridDir(n int) string {
	return filepath.Join(r.config.ResultsDir, "grid", r.measurement.Backend().Name(), strconv.Itoa(n))
}

// pointResult is what one point job hands back to the writer.
type pointResult struct {
	probabilities []Probabilities
	measurements  [][]string
	records       []Record
}

/*
Point measures every clique at the configured point parameters for 1, 2 and
3 qubits and writes, per qubit count, the distributions and the sampled
bitstrings. It returns the directory written to.
*/
func (r *Runner) Point(ctx context.Context) (string, error) {
	points := make([][]float64, MaxQubits)
	for n := 1; n <= MaxQubits; n++ {
		params, err := r.params.PointFor(n)
		if err != nil {
			return "", err
		}
		points[n-1] = params
	}

	dir := r.PointDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating results directory")
	}

	errnie.Info("point run %s on %s -> %s", r.runID, r.measurement.Backend().Name(), dir)

	err := r.sweep(ctx, len(points),
		func(i int) (string, func() (any, error)) {
			n := i + 1
			return fmt.Sprintf("%s/point/%d", r.runID, n), func() (any, error) {
				rng := rand.New(rand.NewPCG(r.config.Seed, uint64(n)))
				return r.measurePoint(ctx, rng, "point", n, 0, points[i], r.config.Samples)
			}
		},
		func(i int, out pointResult) error {
			n := i + 1
			if err := writeJSON(filepath.Join(dir, fmt.Sprintf("probability_data_%d_qubits.json", n)), out.probabilities); err != nil {
				return err
			}
			if err := writeJSON(filepath.Join(dir, fmt.Sprintf("measurement_data_%d_qubits.json", n)), out.measurements); err != nil {
				return err
			}

			r.logger.Info("wrote point data", "qubits", n, "cliques", len(out.probabilities))
			return nil
		},
		func(i int) string { return fmt.Sprintf("point run for %d qubits", i+1) },
	)
	if err != nil {
		return "", err
	}

	return dir, nil
}

/*
Grid samples every clique at every grid point for n qubits and writes one
file per point, numbered from 1 in grid order. It returns the directory
written to.
*/
func (r *Runner) Grid(ctx context.Context, n int) (string, error) {
	grid, err := r.params.GridFor(n)
	if err != nil {
		return "", err
	}

	dir := r.GridDir(n)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating results directory")
	}

	errnie.Info("grid run %s: %d points on %d qubits -> %s", r.runID, len(grid), n, dir)

	err = r.sweep(ctx, len(grid),
		func(i int) (string, func() (any, error)) {
			return fmt.Sprintf("%s/grid/%d/%d", r.runID, n, i), func() (any, error) {
				rng := rand.New(rand.NewPCG(r.config.Seed, uint64(i)))
				return r.measurePoint(ctx, rng, "grid", n, i, grid[i], r.config.GridSamples)
			}
		},
		func(i int, out pointResult) error {
			return writeJSON(filepath.Join(dir, fmt.Sprintf("%d.txt", i+1)), out.measurements)
		},
		func(i int) string { return fmt.Sprintf("grid point %d", i+1) },
	)
	if err != nil {
		return "", err
	}

	r.logger.Info("wrote grid data", "qubits", n, "points", len(grid))
	return dir, nil
}

/*
sweep runs count point jobs on the pool and hands each result to write in
point order, after recording it in the ledger. At most one queue's worth of
jobs is outstanding, so scheduling never waits on a slow backend.
*/
func (r *Runner) sweep(
	ctx context.Context,
	count int,
	job func(i int) (string, func() (any, error)),
	write func(i int, out pointResult) error,
	label func(i int) string,
) error {
	window := max(r.pool.Capacity(), 1)
	pending := make([]chan Result, count)

	next := 0
	schedule := func() {
		id, fn := job(next)
		pending[next] = r.schedule(id, fn)
		next++
	}

	for next < min(window, count) {
		schedule()
	}

	for i := 0; i < count; i++ {
		res := <-pending[i]
		pending[i] = nil

		if res.Error != nil {
			return errors.Wrap(res.Error, label(i))
		}

		if next < count {
			schedule()
		}

		out := res.Value.(pointResult)
		if r.ledger != nil {
			if err := r.ledger.RecordAll(ctx, out.records); err != nil {
				return err
			}
		}

		if err := write(i, out); err != nil {
			return err
		}
	}

	return nil
}

/*
Batch writes, for every clique of an n-qubit ansatz, the hardware Jaqal
program and batch table evaluating it over the grid. With emulate the batch
is also run on the backend and the distributions written alongside.
*/
func (r *Runner) Batch(ctx context.Context, n int, emulate bool) (string, error) {
	grid, err := r.params.GridFor(n)
	if err != nil {
		return "", err
	}

	batch, err := NewBatch(grid, r.config.Samples)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(r.config.ResultsDir, "batch", strconv.Itoa(n))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating results directory")
	}

	errnie.Info("batch %s: %d circuits per clique on %d qubits -> %s", r.runID, batch.Len(), n, dir)

	for _, clique := range Cliques(n) {
		program, err := batch.Program(clique)
		if err != nil {
			return "", err
		}

		if err := os.WriteFile(filepath.Join(dir, clique.String()+".jaqal"), []byte(program), 0o644); err != nil {
			return "", errors.Wrap(err, "writing program")
		}

		if err := writeJSON(filepath.Join(dir, clique.String()+"_batch.json"), batch.Table()); err != nil {
			return "", err
		}

		if !emulate {
			continue
		}

		probs, err := r.measurement.RunBatch(ctx, clique, batch, r.config.PostSelection)
		if err != nil {
			return "", err
		}

		if err := writeJSON(filepath.Join(dir, clique.String()+"_probabilities.json"), probs); err != nil {
			return "", err
		}

		if r.ledger == nil {
			continue
		}

		records := make([]Record, len(probs))
		for i, p := range probs {
			records[i] = r.newRecord("batch", n, clique, i, batch.Parameters[i], p)
		}
		if err := r.ledger.RecordAll(ctx, records); err != nil {
			return "", err
		}
	}

	return dir, nil
}

// schedule runs fn on the pool. Job ids get a sequence suffix so repeated
// sweeps on one runner never collect each other's results.
func (r *Runner) schedule(id string, fn func() (any, error)) chan Result {
	attempts := max(r.config.Retries, 1)
	id = fmt.Sprintf("%s#%d", id, r.jobs.Add(1))

	return r.pool.Schedule(id, fn,
		WithRetry(attempts, &ExponentialBackoff{Initial: 100 * time.Millisecond, Max: 5 * time.Second}),
		WithRetryFilter(retryable),
		WithCircuitBreaker(r.measurement.Backend().Name()),
		WithTTL(time.Minute),
	)
}

/*
measurePoint runs every clique for one parameter vector. Ledger rows are
returned rather than written, so a retried point is recorded only once.
*/
func (r *Runner) measurePoint(
	ctx context.Context,
	rng *rand.Rand,
	command string,
	n, point int,
	params []float64,
	shots int,
) (pointResult, error) {
	var out pointResult

	for _, clique := range Cliques(n) {
		probs, samples, err := r.measurement.Measure(ctx, rng, clique, params, n, shots, r.config.PostSelection)
		if err != nil {
			return pointResult{}, err
		}

		out.probabilities = append(out.probabilities, probs)
		out.measurements = append(out.measurements, samples)
		out.records = append(out.records, r.newRecord(command, n, clique, point, params, probs))
	}

	r.logger.Debug("measured point", "qubits", n, "point", point, "params", params)
	return out, nil
}

func (r *Runner) newRecord(command string, n int, clique Clique, point int, params []float64, probs Probabilities) Record {
	return Record{
		RunID:         r.runID,
		Command:       command,
		Backend:       r.measurement.Backend().Name(),
		Qubits:        n,
		Clique:        clique,
		Point:         point,
		Parameters:    params,
		Probabilities: probs,
	}
}

// retryable reports whether another attempt could change the outcome.
func retryable(err error) bool {
	for _, permanent := range []error{
		ErrInvalidQubits, ErrParameterCount, ErrInvalidAngle, ErrUnknownGate, ErrGateArity,
		ErrUnknownParameter, ErrCliqueUnsupported, ErrEmptyDistribution,
	} {
		if errors.Is(err, permanent) {
			return false
		}
	}
	return true
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating results directory")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}

	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing %s", path)
}

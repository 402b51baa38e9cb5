package lmg

import (
	"context"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

/*
Measurement runs ansatz cliques on a backend and turns the resulting
distributions into bitstring samples.
*/
type Measurement struct {
	backend Backend
	logger  *log.Logger
}

// NewMeasurement binds a backend. A nil logger uses the default logger.
func NewMeasurement(backend Backend, logger *log.Logger) *Measurement {
	if logger == nil {
		logger = log.Default()
	}
	return &Measurement{backend: backend, logger: logger}
}

// Backend returns the backend circuits run on.
func (m *Measurement) Backend() Backend {
	return m.backend
}

/*
BatchedProbabilities builds and runs the clique circuit once per parameter
vector and returns one distribution per vector, in order. With postSelect
the clique's junk outcomes are discarded and the distribution renormalised.
*/
func (m *Measurement) BatchedProbabilities(
	ctx context.Context,
	clique Clique,
	paramsList [][]float64,
	n int,
	postSelect bool,
) ([]Probabilities, error) {
	all := make([]Probabilities, 0, len(paramsList))

	for _, params := range paramsList {
		circuit, junk, err := clique.Build(params, n)
		if err != nil {
			return nil, err
		}

		probs, err := m.backend.Run(ctx, circuit)
		if err != nil {
			return nil, errors.Wrapf(err, "%s on %s", clique, m.backend.Name())
		}

		if postSelect {
			probs, err = m.postSelect(probs, junk)
			if err != nil {
				return nil, err
			}
		}

		all = append(all, probs)
	}

	return all, nil
}

func (m *Measurement) postSelect(probs Probabilities, junk []int) (Probabilities, error) {
	m.logger.Debug("before post-selection", "probabilities", []float64(probs), "sum", probs.Sum())

	selected, err := probs.PostSelect(junk)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("after post-selection", "probabilities", []float64(selected), "sum", selected.Sum())
	return selected, nil
}

/*
MeasurementsForClique runs the clique once for params and draws shots
bitstrings from the resulting distribution.
*/
func (m *Measurement) MeasurementsForClique(
	ctx context.Context,
	rng *rand.Rand,
	clique Clique,
	params []float64,
	n, shots int,
	postSelect bool,
) ([]string, error) {
	_, samples, err := m.Measure(ctx, rng, clique, params, n, shots, postSelect)
	return samples, err
}

// Measure is MeasurementsForClique that also returns the sampled distribution.
func (m *Measurement) Measure(
	ctx context.Context,
	rng *rand.Rand,
	clique Clique,
	params []float64,
	n, shots int,
	postSelect bool,
) (Probabilities, []string, error) {
	probs, err := m.BatchedProbabilities(ctx, clique, [][]float64{params}, n, postSelect)
	if err != nil {
		return nil, nil, err
	}

	samples, err := SampleBitstrings(rng, n, shots, probs[0])
	if err != nil {
		return nil, nil, err
	}

	return probs[0], samples, nil
}

/*
SampleBitstrings draws shots outcomes from dist and returns them as
bitstrings, qubit 0 first.
*/
func SampleBitstrings(rng *rand.Rand, n, shots int, dist Probabilities) ([]string, error) {
	if len(dist) != 1<<n {
		return nil, errors.Errorf("%d probabilities for %d qubits", len(dist), n)
	}

	indices, err := dist.Sample(rng, shots)
	if err != nil {
		return nil, err
	}

	labels := Bitstrings(n)
	samples := make([]string, len(indices))
	for i, idx := range indices {
		samples[i] = labels[idx]
	}
	return samples, nil
}

/*
BitstringsFromDistribution expands a measured distribution into bitstrings
without sampling: outcome i appears int(p_i * shots) times, in index order.
*/
func BitstringsFromDistribution(n, shots int, dist Probabilities) ([]string, error) {
	if len(dist) != 1<<n {
		return nil, errors.Errorf("%d probabilities for %d qubits", len(dist), n)
	}

	labels := Bitstrings(n)
	var out []string
	for i, p := range dist {
		for c := 0; c < int(p*float64(shots)); c++ {
			out = append(out, labels[i])
		}
	}
	return out, nil
}

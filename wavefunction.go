// wavefunction.go
package lmg

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/pkg/errors"
)

// JunkProbability is what post-selection leaves in place of a discarded outcome.
const JunkProbability = 1e-8

/*
Probabilities is a distribution over computational-basis outcomes, indexed
by the integer whose bit k is the measured value of qubit k.
*/
type Probabilities []float64

// Sum adds up every entry.
func (p Probabilities) Sum() float64 {
	var total float64
	for _, v := range p {
		total += v
	}
	return total
}

// L1 is the sum of absolute values.
func (p Probabilities) L1() float64 {
	var total float64
	for _, v := range p {
		total += math.Abs(v)
	}
	return total
}

// Clone returns an independent copy.
func (p Probabilities) Clone() Probabilities {
	return append(Probabilities(nil), p...)
}

/*
PostSelect discards the given junk outcomes of the unary encoding. Each junk
entry is replaced by JunkProbability and the result is divided by its L1
norm. The receiver is not modified.
*/
func (p Probabilities) PostSelect(junk []int) (Probabilities, error) {
	if len(p) == 0 {
		return nil, ErrEmptyDistribution
	}

	out := p.Clone()
	for _, idx := range junk {
		if idx < 0 || idx >= len(out) {
			return nil, errors.Errorf("junk index %d outside %d outcomes", idx, len(out))
		}
		out[idx] = JunkProbability
	}

	norm := out.L1()
	if norm == 0 {
		return nil, ErrEmptyDistribution
	}

	for i := range out {
		out[i] /= norm
	}

	return out, nil
}

/*
Validate rejects distributions that are not probabilities to within cutoff:
entries below -cutoff, or a total further than cutoff from one. Entries in
[-cutoff, 0) are clamped to zero in place.
*/
func (p Probabilities) Validate(cutoff float64) error {
	if len(p) == 0 {
		return ErrEmptyDistribution
	}

	for i, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrProbabilityCutoff, "outcome %d has probability %g", i, v)
		}
		if v < -cutoff {
			return errors.Wrapf(ErrProbabilityCutoff, "outcome %d has probability %g", i, v)
		}
		if v < 0 {
			p[i] = 0
		}
	}

	if sum := p.Sum(); math.Abs(sum-1) > cutoff {
		return errors.Wrapf(ErrProbabilityCutoff, "probabilities sum to %g", sum)
	}

	return nil
}

/*
Sample draws n outcome indices independently from the distribution. The
distribution does not need to be normalised.
*/
func (p Probabilities) Sample(rng *rand.Rand, n int) ([]int, error) {
	if len(p) == 0 {
		return nil, ErrEmptyDistribution
	}

	cumulative := make([]float64, len(p))
	var total float64
	for i, v := range p {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Wrapf(ErrProbabilityCutoff, "probability %g at outcome %d", v, i)
		}
		total += v
		cumulative[i] = total
	}

	if total == 0 {
		return nil, ErrEmptyDistribution
	}
	if math.IsInf(total, 0) {
		return nil, errors.Wrap(ErrProbabilityCutoff, "probabilities overflow")
	}

	out := make([]int, n)
	for i := range out {
		r := rng.Float64() * total
		// Strictly greater, so outcomes with zero probability are never drawn.
		idx := sort.Search(len(cumulative), func(j int) bool {
			return cumulative[j] > r
		})
		out[i] = min(idx, len(cumulative)-1)
	}

	return out, nil
}

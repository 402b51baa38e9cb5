package lmg

import (
	"context"

	"github.com/pkg/errors"
)

const (
	// RepeatsKey is the batch table entry holding the shot count.
	RepeatsKey = "__repeats__"
	// HardwarePulses is the pulse definition module hardware programs import.
	HardwarePulses = "UserPulseDefinitions.LaserRamseyGates"
)

/*
Batch describes many evaluations of one ansatz circuit that differ only in
their angle values. The circuit text is fixed, with zero placeholders, and
a table maps every let constant to its list of values, one per circuit.

For parameters [[a0, a1], [b0, b1]] the table holds

	theta0          [a0, b0]
	half_theta0     [a0/2, b0/2]
	neg_half_theta0 [-a0/2, -b0/2]
	theta1          [a1, b1]
	...
*/
type Batch struct {
	Shots      int
	Parameters [][]float64
}

// NewBatch checks every parameter vector has the same length.
func NewBatch(paramsList [][]float64, shots int) (*Batch, error) {
	if len(paramsList) == 0 || len(paramsList[0]) == 0 {
		return nil, ErrEmptyBatch
	}

	width := len(paramsList[0])
	for i, params := range paramsList {
		if len(params) != width {
			return nil, errors.Wrapf(
				ErrParameterCount, "vector %d has %d parameters, want %d", i, len(params), width,
			)
		}
	}

	if shots <= 0 {
		return nil, errors.Errorf("batch needs a positive shot count, got %d", shots)
	}

	return &Batch{Shots: shots, Parameters: paramsList}, nil
}

// Qubits is the ansatz width implied by the parameter vectors.
func (b *Batch) Qubits() int {
	return len(b.Parameters[0])
}

// Len is the number of circuits the batch evaluates.
func (b *Batch) Len() int {
	return len(b.Parameters)
}

// Table returns the batch table keyed by let constant name.
func (b *Batch) Table() map[string]any {
	table := map[string]any{RepeatsKey: b.Shots}

	for i := 0; i < b.Qubits(); i++ {
		full := make([]float64, b.Len())
		half := make([]float64, b.Len())
		negHalf := make([]float64, b.Len())

		for j, params := range b.Parameters {
			full[j] = params[i]
			half[j] = params[i] / 2
			negHalf[j] = -params[i] / 2
		}

		table[ThetaName(i)] = full
		table[HalfThetaName(i)] = half
		table[NegHalfThetaName(i)] = negHalf
	}

	return table
}

// Overrides returns, per circuit, the let values that circuit runs with.
func (b *Batch) Overrides() []map[string]float64 {
	out := make([]map[string]float64, b.Len())

	for j, params := range b.Parameters {
		values := make(map[string]float64, 3*len(params))
		for i, theta := range params {
			values[ThetaName(i)] = theta
			values[HalfThetaName(i)] = theta / 2
			values[NegHalfThetaName(i)] = -theta / 2
		}
		out[j] = values
	}

	return out
}

// Template builds the clique circuit with every angle set to zero.
func (b *Batch) Template(clique Clique) (*Circuit, []int, error) {
	return clique.Build(make([]float64, b.Qubits()), b.Qubits())
}

// Program renders the template circuit as a hardware Jaqal program.
func (b *Batch) Program(clique Clique) (string, error) {
	circuit, _, err := b.Template(clique)
	if err != nil {
		return "", err
	}
	return circuit.Jaqal(HardwarePulses), nil
}

/*
RunBatch evaluates the batch locally: the template circuit is resolved with
each override set and run on the measurement's backend.
*/
func (m *Measurement) RunBatch(ctx context.Context, clique Clique, batch *Batch, postSelect bool) ([]Probabilities, error) {
	template, junk, err := batch.Template(clique)
	if err != nil {
		return nil, err
	}

	all := make([]Probabilities, 0, batch.Len())
	for _, values := range batch.Overrides() {
		circuit, err := template.Resolve(values)
		if err != nil {
			return nil, err
		}

		probs, err := m.backend.Run(ctx, circuit)
		if err != nil {
			return nil, errors.Wrapf(err, "batched %s on %s", clique, m.backend.Name())
		}

		if postSelect {
			if probs, err = m.postSelect(probs, junk); err != nil {
				return nil, err
			}
		}

		all = append(all, probs)
	}

	return all, nil
}

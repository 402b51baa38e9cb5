package lmg

import (
	"math"
	"math/cmplx"
)

/*
StateVector holds the 2^n complex amplitudes of an n-qubit register. Bit k of
an amplitude's index is the value of qubit k.
*/
type StateVector struct {
	Amplitudes []complex128
	Qubits     int
}

// NewStateVector returns n qubits prepared in |0...0>.
func NewStateVector(n int) *StateVector {
	sv := &StateVector{
		Amplitudes: make([]complex128, 1<<n),
		Qubits:     n,
	}
	sv.Amplitudes[0] = 1
	return sv
}

// Reset prepares every qubit in |0>.
func (sv *StateVector) Reset() {
	for i := range sv.Amplitudes {
		sv.Amplitudes[i] = 0
	}
	sv.Amplitudes[0] = 1
}

// Apply multiplies qubit q by u.
func (sv *StateVector) Apply(q int, u Unitary) {
	bit := 1 << q

	for i := range sv.Amplitudes {
		if i&bit != 0 {
			continue
		}

		j := i | bit
		a, b := sv.Amplitudes[i], sv.Amplitudes[j]
		sv.Amplitudes[i] = u[0][0]*a + u[0][1]*b
		sv.Amplitudes[j] = u[1][0]*a + u[1][1]*b
	}
}

/*
ApplyMS applies the Molmer-Sorensen interaction
exp(-i theta/2 (cos phi X + sin phi Y)^(x)2) to qubits q1 and q2.
*/
func (sv *StateVector) ApplyMS(q1, q2 int, phi, theta float64) {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	flip := (1 << q1) | (1 << q2)

	out := make([]complex128, len(sv.Amplitudes))
	for i, a := range sv.Amplitudes {
		if a == 0 {
			continue
		}

		phase := complex(1, 0)
		for _, q := range []int{q1, q2} {
			if i&(1<<q) != 0 {
				phase *= cmplx.Exp(complex(0, -phi))
			} else {
				phase *= cmplx.Exp(complex(0, phi))
			}
		}

		out[i] += c * a
		out[i^flip] += -1i * s * phase * a
	}

	sv.Amplitudes = out
}

// Probabilities returns |amplitude|^2 for every basis state.
func (sv *StateVector) Probabilities() Probabilities {
	probs := make(Probabilities, len(sv.Amplitudes))
	for i, amplitude := range sv.Amplitudes {
		prob := cmplx.Abs(amplitude)
		probs[i] = prob * prob
	}
	return probs
}

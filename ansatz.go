package lmg

import (
	"fmt"

	"github.com/pkg/errors"
)

// MaxQubits is the widest ansatz the cliques are defined for.
const MaxQubits = 3

// Names of the let constants the ansatz declares for parameter i.
func ThetaName(i int) string        { return fmt.Sprintf("theta%d", i) }
func HalfThetaName(i int) string    { return fmt.Sprintf("half_theta%d", i) }
func NegHalfThetaName(i int) string { return fmt.Sprintf("neg_half_theta%d", i) }

/*
prepareState emits the reduced-unary EGO state preparation: Ry(theta0) on the
first qubit, then a controlled Ry(theta_i) from qubit i-1 onto qubit i built
from two CNOTs around a pair of half-angle rotations.

Every angle appears three times as a let constant (theta, theta/2, -theta/2)
so that a batch can re-evaluate the same circuit text with new values.
*/
func prepareState(params []float64, n int, b *Builder) (Register, error) {
	if n <= 0 {
		return Register{}, errors.Wrapf(ErrInvalidQubits, "%d qubits", n)
	}

	if len(params) != n {
		return Register{}, errors.Wrapf(ErrParameterCount, "%d parameters for %d qubits", len(params), n)
	}

	if err := finite(params); err != nil {
		return Register{}, err
	}

	full := make([]Param, n)
	half := make([]Param, n)
	negHalf := make([]Param, n)

	for i, theta := range params {
		full[i] = b.Let(ThetaName(i), theta)
	}
	for i, theta := range params {
		half[i] = b.Let(HalfThetaName(i), theta/2)
	}
	for i, theta := range params {
		negHalf[i] = b.Let(NegHalfThetaName(i), -theta/2)
	}

	q := b.Register("q", n)
	b.Apply("prepare_all", nil)
	b.Apply("Ry", []int{0}, full[0])

	for target := 1; target < n; target++ {
		control := target - 1

		b.Apply("Ry", []int{target}, half[target])
		addCNOT(b, control, target)
		b.Apply("Ry", []int{target}, negHalf[target])
		addCNOT(b, control, target)
	}

	return q, nil
}

// addCNOT emits a CNOT in native gates (Maslov 2017).
func addCNOT(b *Builder, control, target int) {
	b.Apply("Sy", []int{control})
	b.Apply("Sxx", []int{control, target})
	b.Apply("Sxd", []int{control})
	b.Apply("Sxd", []int{target})
	b.Apply("Syd", []int{control})
}

// addHadamard emits a Hadamard, up to global phase, in native gates.
func addHadamard(b *Builder, q int) {
	b.Apply("Sy", []int{q})
	b.Apply("Px", []int{q})
}

/*
Clique identifies one group of mutually commuting measurement bases. Each
clique is measured by rotating the prepared state into the computational
basis before measure_all.
*/
type Clique int

const (
	// CliqueZ measures every qubit in the Z basis.
	CliqueZ Clique = iota + 1
	// CliqueX measures every qubit in the X basis.
	CliqueX
	// CliqueBell01 measures the Bell basis of qubits 0 and 1.
	CliqueBell01
	// CliqueBell12 measures the Bell basis of qubits 1 and 2.
	CliqueBell12
)

func (c Clique) String() string {
	return fmt.Sprintf("clique%d", int(c))
}

// MinQubits is the narrowest register the clique is defined on.
func (c Clique) MinQubits() int {
	switch c {
	case CliqueBell01:
		return 2
	case CliqueBell12:
		return 3
	default:
		return 1
	}
}

/*
Cliques lists the cliques measured for an n-qubit ansatz, in measurement
order: Z and X always, then the Bell cliques the register is wide enough for.
*/
func Cliques(n int) []Clique {
	cliques := []Clique{CliqueZ, CliqueX}
	if n > 1 {
		cliques = append(cliques, CliqueBell01)
	}
	if n > 2 {
		cliques = append(cliques, CliqueBell12)
	}
	return cliques
}

/*
JunkStates returns the outcome indices that no reduced-unary state can
produce in the Z basis. Only the Z clique has junk outcomes.
*/
func JunkStates(c Clique, n int) []int {
	if c != CliqueZ {
		return nil
	}

	switch n {
	case 2:
		return []int{2}
	case 3:
		return []int{2, 4, 5, 6}
	default:
		return nil
	}
}

/*
Build constructs the ansatz circuit measuring this clique and the junk
outcome indices to discard under post-selection.
*/
func (c Clique) Build(params []float64, n int) (*Circuit, []int, error) {
	if c < CliqueZ || c > CliqueBell12 {
		return nil, nil, errors.Errorf("unknown clique %d", int(c))
	}

	if n > MaxQubits {
		return nil, nil, errors.Wrapf(ErrInvalidQubits, "%d qubits, at most %d", n, MaxQubits)
	}

	if n < c.MinQubits() {
		return nil, nil, errors.Wrapf(ErrCliqueUnsupported, "%s on %d qubits", c, n)
	}

	b := NewBuilder()
	if _, err := prepareState(params, n, b); err != nil {
		return nil, nil, err
	}

	switch c {
	case CliqueX:
		for q := 0; q < n; q++ {
			addHadamard(b, q)
		}
	case CliqueBell01:
		addHadamard(b, 1)
		addCNOT(b, 0, 1)
		addHadamard(b, 0)
	case CliqueBell12:
		addHadamard(b, 2)
		addCNOT(b, 1, 2)
		addHadamard(b, 1)
	}

	b.Apply("measure_all", nil)

	circuit, err := b.Build()
	if err != nil {
		return nil, nil, err
	}

	return circuit, JunkStates(c, n), nil
}

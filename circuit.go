package lmg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

/*
NativeGate describes one gate of the QSCOUT v1 standard gate set by the number
of qubits it acts on and the number of angle arguments it takes.
*/
type NativeGate struct {
	Name   string
	Qubits int
	Params int
}

var nativeGates = map[string]NativeGate{
	"prepare_all": {"prepare_all", 0, 0},
	"measure_all": {"measure_all", 0, 0},
	"Px":          {"Px", 1, 0},
	"Py":          {"Py", 1, 0},
	"Pz":          {"Pz", 1, 0},
	"Rx":          {"Rx", 1, 1},
	"Ry":          {"Ry", 1, 1},
	"Rz":          {"Rz", 1, 1},
	"R":           {"R", 1, 2},
	"Sx":          {"Sx", 1, 0},
	"Sy":          {"Sy", 1, 0},
	"Sz":          {"Sz", 1, 0},
	"Sxd":         {"Sxd", 1, 0},
	"Syd":         {"Syd", 1, 0},
	"Szd":         {"Szd", 1, 0},
	"Sxx":         {"Sxx", 2, 0},
	"MS":          {"MS", 2, 2},
}

// LookupGate returns the native gate definition for name.
func LookupGate(name string) (NativeGate, bool) {
	g, ok := nativeGates[name]
	return g, ok
}

/*
Param is a gate argument. A Param with a Name refers to a let-bound constant
of the circuit and takes its value from there; an unnamed Param is a literal.
*/
type Param struct {
	Name  string
	Value float64
}

// Literal returns an unnamed parameter.
func Literal(v float64) Param {
	return Param{Value: v}
}

func (p Param) String() string {
	if p.Name != "" {
		return p.Name
	}
	return formatFloat(p.Value)
}

// Gate is one instruction of a circuit.
type Gate struct {
	Name   string
	Qubits []int
	Params []Param
}

// Register is a named block of qubits.
type Register struct {
	Name string
	Size int
}

/*
Circuit is an immutable, ordered list of native gates acting on a single
register, together with the named constants its gates refer to.
*/
type Circuit struct {
	Lets     []Param
	Register Register
	Gates    []Gate
}

// Qubits is the width of the circuit's register.
func (c *Circuit) Qubits() int {
	return c.Register.Size
}

/*
Value resolves a gate parameter against the circuit's let table.
*/
func (c *Circuit) Value(p Param) (float64, error) {
	if p.Name == "" {
		return p.Value, nil
	}

	for _, let := range c.Lets {
		if let.Name == p.Name {
			return let.Value, nil
		}
	}

	return 0, errors.Wrap(ErrUnknownParameter, p.Name)
}

/*
Resolve returns a copy of the circuit with the named let constants replaced
by the given values. Gates keep referring to the constants by name, so the
returned circuit evaluates with the new values.
*/
func (c *Circuit) Resolve(overrides map[string]float64) (*Circuit, error) {
	out := &Circuit{
		Lets:     make([]Param, len(c.Lets)),
		Register: c.Register,
		Gates:    c.Gates,
	}
	copy(out.Lets, c.Lets)

	seen := make(map[string]bool, len(overrides))
	for i, let := range out.Lets {
		if v, ok := overrides[let.Name]; ok {
			out.Lets[i].Value = v
			seen[let.Name] = true
		}
	}

	for name := range overrides {
		if !seen[name] {
			return nil, errors.Wrap(ErrUnknownParameter, name)
		}
	}

	return out, nil
}

/*
Jaqal renders the circuit as a Jaqal program. When header is not empty it is
emitted as a usepulses import on the first line.
*/
func (c *Circuit) Jaqal(header string) string {
	var sb strings.Builder

	if header != "" {
		fmt.Fprintf(&sb, "from %s usepulses *\n\n", header)
	}

	for _, let := range c.Lets {
		fmt.Fprintf(&sb, "let %s %s\n", let.Name, formatFloat(let.Value))
	}
	if len(c.Lets) > 0 {
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "register %s[%d]\n\n", c.Register.Name, c.Register.Size)

	for _, g := range c.Gates {
		sb.WriteString(g.Name)
		for _, q := range g.Qubits {
			fmt.Fprintf(&sb, " %s[%d]", c.Register.Name, q)
		}
		for _, p := range g.Params {
			sb.WriteString(" ")
			sb.WriteString(p.String())
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

/*
Builder accumulates a circuit one instruction at a time. The first error
encountered is kept and returned by Build; later calls become no-ops.
*/
type Builder struct {
	lets     []Param
	names    map[string]bool
	register *Register
	gates    []Gate
	err      error
}

// NewBuilder returns an empty circuit builder.
func NewBuilder() *Builder {
	return &Builder{names: make(map[string]bool)}
}

// Let declares a named constant and returns a parameter referring to it.
func (b *Builder) Let(name string, value float64) Param {
	if b.err != nil {
		return Param{Name: name, Value: value}
	}

	if b.names[name] {
		b.err = errors.Errorf("let %s declared twice", name)
		return Param{Name: name, Value: value}
	}

	b.names[name] = true
	b.lets = append(b.lets, Param{Name: name, Value: value})
	return Param{Name: name, Value: value}
}

// Register declares the circuit's qubit register.
func (b *Builder) Register(name string, size int) Register {
	reg := Register{Name: name, Size: size}

	if b.err != nil {
		return reg
	}

	if b.register != nil {
		b.err = errors.Errorf("register %s already declared", b.register.Name)
		return reg
	}

	if size <= 0 {
		b.err = errors.Wrapf(ErrInvalidQubits, "register %s[%d]", name, size)
		return reg
	}

	b.register = &reg
	return reg
}

// Apply appends a native gate acting on qubits with the given parameters.
func (b *Builder) Apply(name string, qubits []int, params ...Param) *Builder {
	if b.err != nil {
		return b
	}

	native, ok := LookupGate(name)
	if !ok {
		b.err = errors.Wrap(ErrUnknownGate, name)
		return b
	}

	if len(qubits) != native.Qubits || len(params) != native.Params {
		b.err = errors.Wrapf(
			ErrGateArity, "%s takes %d qubits and %d params, got %d and %d",
			name, native.Qubits, native.Params, len(qubits), len(params),
		)
		return b
	}

	if len(qubits) > 0 && b.register == nil {
		b.err = errors.Errorf("%s applied before a register was declared", name)
		return b
	}

	for _, q := range qubits {
		if q < 0 || q >= b.register.Size {
			b.err = errors.Wrapf(ErrInvalidQubits, "%s on qubit %d", name, q)
			return b
		}
	}

	for _, p := range params {
		if p.Name != "" && !b.names[p.Name] {
			b.err = errors.Wrap(ErrUnknownParameter, p.Name)
			return b
		}
	}

	b.gates = append(b.gates, Gate{
		Name:   name,
		Qubits: append([]int(nil), qubits...),
		Params: append([]Param(nil), params...),
	})
	return b
}

// Build returns the accumulated circuit.
func (b *Builder) Build() (*Circuit, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.register == nil {
		return nil, errors.New("circuit has no register")
	}

	return &Circuit{
		Lets:     append([]Param(nil), b.lets...),
		Register: *b.register,
		Gates:    append([]Gate(nil), b.gates...),
	}, nil
}

func formatFloat(v float64) string {
	if v == 0 {
		// Drop the sign of negative zero.
		v = 0
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

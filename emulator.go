package lmg

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

// MaxEmulatorQubits bounds the register width the state-vector emulator accepts.
const MaxEmulatorQubits = 16

// DefaultCutoff is the tolerance used when checking emulated probabilities.
const DefaultCutoff = 1e-4

/*
Backend executes a circuit and reports the probability of each outcome of its
first prepare/measure block.
*/
type Backend interface {
	Name() string
	Run(ctx context.Context, c *Circuit) (Probabilities, error)
}

/*
Emulator is an ideal state-vector backend for the native gate set.
*/
type Emulator struct {
	Cutoff float64
}

// NewEmulator returns an ideal emulator with the default probability cutoff.
func NewEmulator() *Emulator {
	return &Emulator{Cutoff: DefaultCutoff}
}

func (e *Emulator) Name() string { return "emulator" }

func (e *Emulator) Run(ctx context.Context, c *Circuit) (Probabilities, error) {
	probs, err := execute(ctx, c, nil)
	if err != nil {
		return nil, err
	}

	if err := probs.Validate(e.Cutoff); err != nil {
		return nil, err
	}

	return probs, nil
}

// Names of the gate-parameter errors a NoiseModel understands.
const (
	NoisePower1   = "dpower1"
	NoisePower12  = "dpower12"
	NoiseFreq1    = "dfreq1"
	NoisePhase1   = "dphase1"
	NoiseTime     = "dtime"
	defaultPulse  = 1e-6
	defaultTrials = 64
)

var noiseParams = []string{NoisePower1, NoisePower12, NoiseFreq1, NoisePhase1, NoiseTime}

/*
NoiseModel perturbs gate parameters. Every active error parameter p is drawn
once per trajectory as V0[p] + Sigmas[p]*N(0,1):

  - dpower1, dpower12: relative over-rotation of single- and two-qubit gates
  - dtime: relative over-rotation of every gate
  - dphase1: offset of the rotation axis in the XY plane (rad)
  - dfreq1: detuning (Hz); each XY rotation picks up a Z rotation of
    2*pi*dfreq1*PulseTime per quarter turn
*/
type NoiseModel struct {
	Params       []string
	V0           map[string]float64
	Sigmas       map[string]float64
	Trajectories int
	PulseTime    float64
	Seed         uint64
}

// Validate checks the model only names known parameters.
func (m NoiseModel) Validate() error {
	for _, p := range m.Params {
		if !slices.Contains(noiseParams, p) {
			return errors.Errorf("unknown noise parameter %q", p)
		}
	}

	if m.Trajectories < 0 {
		return errors.Errorf("negative trajectory count %d", m.Trajectories)
	}

	return nil
}

// gateErrors is one trajectory's draw of the noise model.
type gateErrors struct {
	scale1 float64
	scale2 float64
	phase  float64
	detune float64
}

func (m NoiseModel) draw(rng *rand.Rand) *gateErrors {
	values := make(map[string]float64, len(m.Params))
	for _, p := range m.Params {
		values[p] = m.V0[p] + m.Sigmas[p]*rng.NormFloat64()
	}

	pulse := m.PulseTime
	if pulse == 0 {
		pulse = defaultPulse
	}

	return &gateErrors{
		scale1: (1 + values[NoisePower1]) * (1 + values[NoiseTime]),
		scale2: (1 + values[NoisePower12]) * (1 + values[NoiseTime]),
		phase:  values[NoisePhase1],
		detune: 2 * math.Pi * values[NoiseFreq1] * pulse,
	}
}

/*
NoisyEmulator averages the emulated distribution over trajectories drawn
from a NoiseModel. Runs of the same circuit with the same seed are
reproducible regardless of the order circuits are run in.
*/
type NoisyEmulator struct {
	Model  NoiseModel
	Cutoff float64
	logger *log.Logger
}

// NewNoisyEmulator checks the model and returns a backend for it.
func NewNoisyEmulator(model NoiseModel, logger *log.Logger) (*NoisyEmulator, error) {
	if err := model.Validate(); err != nil {
		return nil, err
	}

	if model.Trajectories == 0 {
		model.Trajectories = defaultTrials
	}

	if logger == nil {
		logger = log.Default()
	}

	return &NoisyEmulator{Model: model, Cutoff: DefaultCutoff, logger: logger}, nil
}

func (e *NoisyEmulator) Name() string { return "noisy" }

func (e *NoisyEmulator) Run(ctx context.Context, c *Circuit) (Probabilities, error) {
	h := fnv.New64a()
	h.Write([]byte(c.Jaqal("")))
	rng := rand.New(rand.NewPCG(e.Model.Seed, h.Sum64()))

	var mean Probabilities
	for t := 0; t < e.Model.Trajectories; t++ {
		probs, err := execute(ctx, c, e.Model.draw(rng))
		if err != nil {
			return nil, err
		}

		if mean == nil {
			mean = make(Probabilities, len(probs))
		}
		for i, p := range probs {
			mean[i] += p / float64(e.Model.Trajectories)
		}
	}

	e.logger.Debug("noisy run", "qubits", c.Qubits(), "trajectories", e.Model.Trajectories, "sum", mean.Sum())

	if err := mean.Validate(e.Cutoff); err != nil {
		return nil, err
	}

	return mean, nil
}

/*
execute runs the circuit's gates up to the first measure_all and returns the
outcome distribution at that point. A nil noise draw runs the ideal gates.
*/
func execute(ctx context.Context, c *Circuit, noise *gateErrors) (Probabilities, error) {
	n := c.Qubits()
	if n <= 0 || n > MaxEmulatorQubits {
		return nil, errors.Wrapf(ErrInvalidQubits, "emulator register of %d qubits", n)
	}

	sv := NewStateVector(n)

	for _, g := range c.Gates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		angles := make([]float64, len(g.Params))
		for i, p := range g.Params {
			v, err := c.Value(p)
			if err != nil {
				return nil, err
			}
			angles[i] = v
		}

		switch g.Name {
		case "prepare_all":
			sv.Reset()
		case "measure_all":
			return sv.Probabilities(), nil
		case "Rx":
			applyRotation(sv, g.Qubits[0], 0, angles[0], noise)
		case "Ry":
			applyRotation(sv, g.Qubits[0], math.Pi/2, angles[0], noise)
		case "R":
			applyRotation(sv, g.Qubits[0], angles[0], angles[1], noise)
		case "Rz":
			sv.Apply(g.Qubits[0], ZRotation(angles[0]))
		case "Sxx":
			applyMS(sv, g.Qubits[0], g.Qubits[1], 0, math.Pi/2, noise)
		case "MS":
			applyMS(sv, g.Qubits[0], g.Qubits[1], angles[0], angles[1], noise)
		default:
			fixed, ok := rotationAxis[g.Name]
			if !ok {
				return nil, errors.Wrap(ErrUnknownGate, g.Name)
			}
			if fixed.z {
				sv.Apply(g.Qubits[0], ZRotation(fixed.theta))
			} else {
				applyRotation(sv, g.Qubits[0], fixed.phi, fixed.theta, noise)
			}
		}
	}

	return nil, errors.New("circuit has no measure_all")
}

func applyRotation(sv *StateVector, q int, phi, theta float64, noise *gateErrors) {
	if noise == nil {
		sv.Apply(q, Rotation(phi, theta))
		return
	}

	sv.Apply(q, Rotation(phi+noise.phase, theta*noise.scale1))
	if noise.detune != 0 {
		sv.Apply(q, ZRotation(noise.detune*math.Abs(theta)/(math.Pi/2)))
	}
}

func applyMS(sv *StateVector, q1, q2 int, phi, theta float64, noise *gateErrors) {
	if noise == nil {
		sv.ApplyMS(q1, q2, phi, theta)
		return
	}

	sv.ApplyMS(q1, q2, phi+noise.phase, theta*noise.scale2)
}

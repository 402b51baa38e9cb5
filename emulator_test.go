package lmg

import (
	"context"
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func circuitOf(t *testing.T, n int, build func(b *Builder)) *Circuit {
	b := NewBuilder()
	b.Register("q", n)
	b.Apply("prepare_all", nil)
	build(b)
	b.Apply("measure_all", nil)

	c, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func shouldMatchDistribution(actual any, expected ...any) string {
	got := actual.(Probabilities)
	want := expected[0].([]float64)

	if len(got) != len(want) {
		return spew.Sprintf("length %d, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			return spew.Sprintf("outcome %d: got %v want %v\n%v", i, got[i], want[i], got)
		}
	}
	return ""
}

func TestEmulatorGates(t *testing.T) {
	Convey("Given the ideal emulator", t, func() {
		ctx := context.Background()
		emu := NewEmulator()

		Convey("Px should flip a qubit", func() {
			probs, err := emu.Run(ctx, circuitOf(t, 1, func(b *Builder) {
				b.Apply("Px", []int{0})
			}))
			So(err, ShouldBeNil)
			So(probs, shouldMatchDistribution, []float64{0, 1})
		})

		Convey("The native Hadamard should make an even superposition", func() {
			probs, err := emu.Run(ctx, circuitOf(t, 1, func(b *Builder) {
				addHadamard(b, 0)
			}))
			So(err, ShouldBeNil)
			So(probs, shouldMatchDistribution, []float64{0.5, 0.5})
		})

		Convey("Two native Hadamards should cancel", func() {
			probs, err := emu.Run(ctx, circuitOf(t, 1, func(b *Builder) {
				addHadamard(b, 0)
				addHadamard(b, 0)
			}))
			So(err, ShouldBeNil)
			So(probs, shouldMatchDistribution, []float64{1, 0})
		})

		Convey("Ry should rotate populations by cos^2 and sin^2 of half the angle", func() {
			probs, err := emu.Run(ctx, circuitOf(t, 1, func(b *Builder) {
				b.Apply("Ry", []int{0}, Literal(math.Pi/3))
			}))
			So(err, ShouldBeNil)
			So(probs, shouldMatchDistribution, []float64{0.75, 0.25})
		})

		Convey("Rz should not change populations", func() {
			probs, err := emu.Run(ctx, circuitOf(t, 1, func(b *Builder) {
				b.Apply("Rz", []int{0}, Literal(1.234))
			}))
			So(err, ShouldBeNil)
			So(probs, shouldMatchDistribution, []float64{1, 0})
		})

		Convey("Sxx should entangle two qubits", func() {
			probs, err := emu.Run(ctx, circuitOf(t, 2, func(b *Builder) {
				b.Apply("Sxx", []int{0, 1})
			}))
			So(err, ShouldBeNil)
			So(probs, shouldMatchDistribution, []float64{0.5, 0, 0, 0.5})
		})

		Convey("The native CNOT should follow the CNOT truth table", func() {
			// Inputs and outputs as outcome indices, bit 0 is the control.
			table := map[int]int{0: 0, 1: 3, 2: 2, 3: 1}

			for in, out := range table {
				probs, err := emu.Run(ctx, circuitOf(t, 2, func(b *Builder) {
					if in&1 != 0 {
						b.Apply("Px", []int{0})
					}
					if in&2 != 0 {
						b.Apply("Px", []int{1})
					}
					addCNOT(b, 0, 1)
				}))
				So(err, ShouldBeNil)

				want := make([]float64, 4)
				want[out] = 1
				So(probs, shouldMatchDistribution, want)
			}
		})

		Convey("It should stop at the first measure_all", func() {
			b := NewBuilder()
			b.Register("q", 1)
			b.Apply("prepare_all", nil)
			b.Apply("measure_all", nil)
			b.Apply("Px", []int{0})
			c, err := b.Build()
			So(err, ShouldBeNil)

			probs, err := emu.Run(ctx, c)
			So(err, ShouldBeNil)
			So(probs, shouldMatchDistribution, []float64{1, 0})
		})

		Convey("It should fail without measure_all", func() {
			b := NewBuilder()
			b.Register("q", 1)
			b.Apply("Px", []int{0})
			c, _ := b.Build()

			_, err := emu.Run(ctx, c)
			So(err, ShouldNotBeNil)
		})

		Convey("It should honour a cancelled context", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := emu.Run(cctx, circuitOf(t, 1, func(b *Builder) {}))
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestNoisyEmulator(t *testing.T) {
	Convey("Given a noisy emulator", t, func() {
		ctx := context.Background()
		circuit, _, err := CliqueZ.Build([]float64{math.Pi / 3, math.Pi / 4}, 2)
		So(err, ShouldBeNil)

		Convey("A model without active errors should match the ideal emulator", func() {
			noisy, err := NewNoisyEmulator(NoiseModel{Trajectories: 3}, nil)
			So(err, ShouldBeNil)

			ideal, err := NewEmulator().Run(ctx, circuit)
			So(err, ShouldBeNil)

			probs, err := noisy.Run(ctx, circuit)
			So(err, ShouldBeNil)
			So(probs, shouldMatchDistribution, []float64(ideal))
		})

		Convey("With errors it should stay a distribution and differ from ideal", func() {
			model := NoiseModel{
				Params:       []string{NoisePower12, NoiseFreq1, NoisePhase1, NoiseTime},
				V0:           map[string]float64{NoisePower12: 5e-2, NoiseFreq1: 5e3, NoisePhase1: 5e-2, NoiseTime: 5e-2},
				Sigmas:       map[string]float64{NoisePower12: 5e-2, NoiseFreq1: 5e3, NoisePhase1: 5e-2, NoiseTime: 5e-2},
				Trajectories: 16,
				Seed:         7,
			}
			noisy, err := NewNoisyEmulator(model, nil)
			So(err, ShouldBeNil)

			probs, err := noisy.Run(ctx, circuit)
			So(err, ShouldBeNil)
			So(probs.Sum(), ShouldAlmostEqual, 1, 1e-9)

			// Junk outcome 2 is only reachable through gate errors.
			So(probs[2], ShouldBeGreaterThan, 0)

			Convey("It should be reproducible for the same seed", func() {
				again, err := noisy.Run(ctx, circuit)
				So(err, ShouldBeNil)
				So(again, shouldMatchDistribution, []float64(probs))
			})
		})

		Convey("It should reject unknown error parameters", func() {
			_, err := NewNoisyEmulator(NoiseModel{Params: []string{"dbogus"}}, nil)
			So(err, ShouldNotBeNil)
		})
	})
}

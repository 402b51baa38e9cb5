package lmg

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBatch(t *testing.T) {
	Convey("Given a batch of two parameter vectors", t, func() {
		batch, err := NewBatch([][]float64{{1, 2}, {3, 4}}, 100)
		So(err, ShouldBeNil)
		So(batch.Qubits(), ShouldEqual, 2)
		So(batch.Len(), ShouldEqual, 2)

		Convey("The table should hold one list per let constant", func() {
			table := batch.Table()
			So(table, ShouldHaveLength, 7)
			So(table[RepeatsKey], ShouldEqual, 100)
			So(table["theta0"], ShouldResemble, []float64{1, 3})
			So(table["half_theta1"], ShouldResemble, []float64{1, 2})
			So(table["neg_half_theta0"], ShouldResemble, []float64{-0.5, -1.5})
		})

		Convey("Overrides should match the table column by column", func() {
			overrides := batch.Overrides()
			So(overrides, ShouldHaveLength, 2)
			So(overrides[1]["theta1"], ShouldEqual, 4)
			So(overrides[1]["neg_half_theta1"], ShouldEqual, -2)
		})

		Convey("The program should be the zero template with hardware pulses", func() {
			program, err := batch.Program(CliqueBell01)
			So(err, ShouldBeNil)
			So(program, ShouldStartWith, "from "+HardwarePulses+" usepulses *\n")
			So(program, ShouldContainSubstring, "let theta1 0\n")
			So(program, ShouldContainSubstring, "let neg_half_theta1 0\n")
			So(program, ShouldContainSubstring, "register q[2]\n")
			So(program, ShouldEndWith, "measure_all\n")
		})

		Convey("Running it should match building each circuit", func() {
			ctx := context.Background()
			m := NewMeasurement(NewEmulator(), nil)

			for _, clique := range Cliques(2) {
				batched, err := m.RunBatch(ctx, clique, batch, true)
				So(err, ShouldBeNil)

				direct, err := m.BatchedProbabilities(ctx, clique, batch.Parameters, 2, true)
				So(err, ShouldBeNil)

				So(batched, ShouldHaveLength, 2)
				for i := range direct {
					So(batched[i], shouldMatchDistribution, []float64(direct[i]))
				}
			}
		})
	})

	Convey("Given malformed batches", t, func() {
		_, err := NewBatch(nil, 10)
		So(errors.Is(err, ErrEmptyBatch), ShouldBeTrue)

		_, err = NewBatch([][]float64{{1, 2}, {3}}, 10)
		So(errors.Is(err, ErrParameterCount), ShouldBeTrue)

		_, err = NewBatch([][]float64{{1}}, 0)
		So(err, ShouldNotBeNil)
	})
}

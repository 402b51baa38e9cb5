package lmg

import (
	"context"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLedger(t *testing.T) {
	Convey("Given a fresh ledger", t, func() {
		ctx := context.Background()
		ledger, err := OpenLedger(ctx, filepath.Join(t.TempDir(), "runs", "ledger.db"))
		So(err, ShouldBeNil)

		Reset(func() {
			ledger.Close()
		})

		Convey("When recording results of two runs", func() {
			records := []Record{
				{RunID: "a", Command: "grid", Backend: "emulator", Qubits: 1, Clique: CliqueX, Point: 1, Parameters: []float64{0.2}, Probabilities: Probabilities{0.6, 0.4}},
				{RunID: "a", Command: "grid", Backend: "emulator", Qubits: 1, Clique: CliqueZ, Point: 0, Parameters: []float64{0.1}, Probabilities: Probabilities{0.9, 0.1}},
				{RunID: "b", Command: "point", Backend: "noisy", Qubits: 2, Clique: CliqueBell01, Parameters: []float64{1, 2}, Probabilities: Probabilities{0.25, 0.25, 0.25, 0.25}},
				{RunID: "a", Command: "grid", Backend: "emulator", Qubits: 1, Clique: CliqueZ, Point: 1, Parameters: []float64{0.2}, Probabilities: Probabilities{0.5, 0.5}},
			}
			for _, rec := range records {
				So(ledger.Record(ctx, rec), ShouldBeNil)
			}

			Convey("It should list runs in the order they started", func() {
				runs, err := ledger.Runs(ctx)
				So(err, ShouldBeNil)
				So(runs, ShouldResemble, []string{"a", "b"})
			})

			Convey("It should return a run ordered by point and clique", func() {
				got, err := ledger.Results(ctx, "a")
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 3)

				So(got[0].Point, ShouldEqual, 0)
				So(got[1].Clique, ShouldEqual, CliqueZ)
				So(got[1].Point, ShouldEqual, 1)
				So(got[2].Clique, ShouldEqual, CliqueX)

				So(got[2].Parameters, ShouldResemble, []float64{0.2})
				So(got[2].Probabilities, ShouldResemble, Probabilities{0.6, 0.4})
				So(got[2].CreatedAt.IsZero(), ShouldBeFalse)
			})

			Convey("An unknown run should have no results", func() {
				got, err := ledger.Results(ctx, "missing")
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})
	})
}

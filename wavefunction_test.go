package lmg

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPostSelect(t *testing.T) {
	Convey("Given a distribution with weight on a junk outcome", t, func() {
		probs := Probabilities{0.5, 0.2, 0.2, 0.1}

		Convey("It should replace the junk entry and renormalise", func() {
			selected, err := probs.PostSelect([]int{2})
			So(err, ShouldBeNil)

			norm := 0.8 + JunkProbability
			So(selected[0], ShouldAlmostEqual, 0.5/norm, 1e-12)
			So(selected[2], ShouldAlmostEqual, JunkProbability/norm, 1e-12)
			So(selected.Sum(), ShouldAlmostEqual, 1, 1e-12)
		})

		Convey("It should leave the receiver alone", func() {
			_, err := probs.PostSelect([]int{2})
			So(err, ShouldBeNil)
			So(probs, ShouldResemble, Probabilities{0.5, 0.2, 0.2, 0.1})
		})

		Convey("Without junk it should only renormalise", func() {
			selected, err := Probabilities{2, 2}.PostSelect(nil)
			So(err, ShouldBeNil)
			So(selected, ShouldResemble, Probabilities{0.5, 0.5})
		})

		Convey("It should reject junk outside the distribution", func() {
			_, err := probs.PostSelect([]int{4})
			So(err, ShouldNotBeNil)
		})

		Convey("It should reject an empty distribution", func() {
			_, err := Probabilities{}.PostSelect(nil)
			So(errors.Is(err, ErrEmptyDistribution), ShouldBeTrue)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given emulated probabilities", t, func() {
		Convey("Tiny negative entries should be clamped", func() {
			probs := Probabilities{-1e-9, 1}
			So(probs.Validate(DefaultCutoff), ShouldBeNil)
			So(probs[0], ShouldEqual, 0)
		})

		Convey("Large negative entries should be rejected", func() {
			err := Probabilities{-0.1, 1.1}.Validate(DefaultCutoff)
			So(errors.Is(err, ErrProbabilityCutoff), ShouldBeTrue)
		})

		Convey("Non-finite entries should be rejected", func() {
			for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
				err := Probabilities{bad, 1}.Validate(DefaultCutoff)
				So(errors.Is(err, ErrProbabilityCutoff), ShouldBeTrue)
			}
		})

		Convey("A sum away from one should be rejected", func() {
			err := Probabilities{0.5, 0.4}.Validate(DefaultCutoff)
			So(errors.Is(err, ErrProbabilityCutoff), ShouldBeTrue)
		})
	})
}

func TestSample(t *testing.T) {
	Convey("Given a distribution to sample", t, func() {
		Convey("Zero-probability outcomes should never be drawn", func() {
			samples, err := Probabilities{0, 1, 0, 0}.Sample(rand.New(rand.NewPCG(1, 2)), 500)
			So(err, ShouldBeNil)
			for _, s := range samples {
				So(s, ShouldEqual, 1)
			}
		})

		Convey("Frequencies should follow the distribution", func() {
			samples, err := Probabilities{0.25, 0.75}.Sample(rand.New(rand.NewPCG(3, 4)), 20000)
			So(err, ShouldBeNil)

			ones := 0
			for _, s := range samples {
				ones += s
			}
			So(float64(ones)/20000, ShouldAlmostEqual, 0.75, 0.02)
		})

		Convey("The same seed should give the same samples", func() {
			probs := Probabilities{0.1, 0.2, 0.3, 0.4}
			a, _ := probs.Sample(rand.New(rand.NewPCG(9, 9)), 100)
			b, _ := probs.Sample(rand.New(rand.NewPCG(9, 9)), 100)
			So(a, ShouldResemble, b)
		})

		Convey("It should reject non-finite distributions", func() {
			_, err := Probabilities{math.NaN(), 1}.Sample(rand.New(rand.NewPCG(1, 1)), 5)
			So(errors.Is(err, ErrProbabilityCutoff), ShouldBeTrue)

			_, err = Probabilities{math.MaxFloat64, math.MaxFloat64}.Sample(rand.New(rand.NewPCG(1, 1)), 5)
			So(errors.Is(err, ErrProbabilityCutoff), ShouldBeTrue)
		})

		Convey("It should reject negative and empty distributions", func() {
			_, err := Probabilities{-0.5, 1.5}.Sample(rand.New(rand.NewPCG(1, 1)), 1)
			So(err, ShouldNotBeNil)

			_, err = Probabilities{0, 0}.Sample(rand.New(rand.NewPCG(1, 1)), 1)
			So(errors.Is(err, ErrEmptyDistribution), ShouldBeTrue)
		})
	})
}

func TestBitstrings(t *testing.T) {
	Convey("Given outcome indices", t, func() {
		Convey("Labels should list qubit 0 first", func() {
			So(Bitstring(1, 2), ShouldEqual, "10")
			So(Bitstring(2, 2), ShouldEqual, "01")
			So(Bitstring(6, 3), ShouldEqual, "011")
			So(Bitstring(0, 3), ShouldEqual, "000")
		})

		Convey("Bitstrings should be in index order", func() {
			So(Bitstrings(2), ShouldResemble, []string{"00", "10", "01", "11"})
		})
	})
}

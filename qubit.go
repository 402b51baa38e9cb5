package lmg

import (
	"math"
	"math/cmplx"
)

// Unitary is a single-qubit gate matrix, row-major.
type Unitary [2][2]complex128

/*
Rotation is a rotation by theta about the axis at angle phi in the XY plane
of the Bloch sphere. Rx is Rotation(0, theta), Ry is Rotation(pi/2, theta).
*/
func Rotation(phi, theta float64) Unitary {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)

	return Unitary{
		{c, -1i * cmplx.Exp(complex(0, -phi)) * s},
		{-1i * cmplx.Exp(complex(0, phi)) * s, c},
	}
}

// ZRotation is a rotation by theta about the Z axis.
func ZRotation(theta float64) Unitary {
	return Unitary{
		{cmplx.Exp(complex(0, -theta/2)), 0},
		{0, cmplx.Exp(complex(0, theta/2))},
	}
}

// rotationAxis maps the fixed-angle single-qubit native gates onto their axis and angle.
var rotationAxis = map[string]struct {
	z     bool
	phi   float64
	theta float64
}{
	"Px":  {false, 0, math.Pi},
	"Py":  {false, math.Pi / 2, math.Pi},
	"Pz":  {true, 0, math.Pi},
	"Sx":  {false, 0, math.Pi / 2},
	"Sy":  {false, math.Pi / 2, math.Pi / 2},
	"Sz":  {true, 0, math.Pi / 2},
	"Sxd": {false, 0, -math.Pi / 2},
	"Syd": {false, math.Pi / 2, -math.Pi / 2},
	"Szd": {true, 0, -math.Pi / 2},
}

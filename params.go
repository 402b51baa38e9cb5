package lmg

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

/*
GridSpec generates a parameter grid: Steps evenly spaced angles from Lo to
Hi inclusive on every axis.
*/
type GridSpec struct {
	Steps int     `yaml:"steps"`
	Lo    float64 `yaml:"lo"`
	Hi    float64 `yaml:"hi"`
}

/*
Parameters holds, per qubit count, the single point a point run measures
and the list of points a grid run sweeps. Explicit grid lists win over the
generated grid.
*/
type Parameters struct {
	Point    map[int][]float64   `yaml:"point"`
	Grid     map[int][][]float64 `yaml:"grid"`
	GridSpec GridSpec            `yaml:"grid_spec"`
}

// DefaultParameters are used when no parameters file is configured.
func DefaultParameters() *Parameters {
	return &Parameters{
		Point: map[int][]float64{
			1: {math.Pi / 3},
			2: {math.Pi / 3, math.Pi / 4},
			3: {math.Pi / 3, math.Pi / 4, math.Pi / 6},
		},
		Grid:     map[int][][]float64{},
		GridSpec: GridSpec{Steps: 9, Lo: -math.Pi, Hi: math.Pi},
	}
}

/*
LoadParameters reads a YAML parameters file. Sections missing from the file
keep their defaults.
*/
func LoadParameters(path string) (*Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading parameters")
	}

	params := DefaultParameters()
	var file Parameters
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "decoding parameters %s", path)
	}

	for n, point := range file.Point {
		params.Point[n] = point
	}
	for n, grid := range file.Grid {
		params.Grid[n] = grid
	}
	if file.GridSpec.Steps > 0 {
		params.GridSpec = file.GridSpec
	}

	return params, params.Validate()
}

// Validate checks every vector has one angle per qubit.
func (p *Parameters) Validate() error {
	for n, point := range p.Point {
		if n < 1 || n > MaxQubits {
			return errors.Wrapf(ErrInvalidQubits, "point parameters for %d qubits", n)
		}
		if len(point) != n {
			return errors.Wrapf(ErrParameterCount, "point for %d qubits has %d angles", n, len(point))
		}
		if err := finite(point); err != nil {
			return errors.Wrapf(err, "point for %d qubits", n)
		}
	}

	for n, grid := range p.Grid {
		if n < 1 || n > MaxQubits {
			return errors.Wrapf(ErrInvalidQubits, "grid parameters for %d qubits", n)
		}
		for i, point := range grid {
			if len(point) != n {
				return errors.Wrapf(ErrParameterCount, "grid point %d for %d qubits has %d angles", i, n, len(point))
			}
			if err := finite(point); err != nil {
				return errors.Wrapf(err, "grid point %d for %d qubits", i, n)
			}
		}
	}

	if p.GridSpec.Steps < 0 {
		return errors.Errorf("grid steps %d", p.GridSpec.Steps)
	}

	if err := finite([]float64{p.GridSpec.Lo, p.GridSpec.Hi}); err != nil {
		return errors.Wrap(err, "grid bounds")
	}

	return nil
}

func finite(angles []float64) error {
	for i, v := range angles {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidAngle, "angle %d is %g", i, v)
		}
	}
	return nil
}

// PointFor returns the point parameters for n qubits.
func (p *Parameters) PointFor(n int) ([]float64, error) {
	point, ok := p.Point[n]
	if !ok {
		return nil, errors.Errorf("no point parameters for %d qubits", n)
	}
	return point, nil
}

// GridFor returns the grid for n qubits, generating it when none is listed.
func (p *Parameters) GridFor(n int) ([][]float64, error) {
	if n < 1 || n > MaxQubits {
		return nil, errors.Wrapf(ErrInvalidQubits, "grid for %d qubits", n)
	}

	if grid, ok := p.Grid[n]; ok && len(grid) > 0 {
		return grid, nil
	}

	return LinearGrid(n, p.GridSpec.Steps, p.GridSpec.Lo, p.GridSpec.Hi), nil
}

/*
LinearGrid is the Cartesian product of n axes, each holding steps evenly
spaced values from lo to hi inclusive. The last axis varies fastest.
*/
func LinearGrid(n, steps int, lo, hi float64) [][]float64 {
	if n <= 0 || steps <= 0 {
		return nil
	}

	axis := make([]float64, steps)
	for i := range axis {
		if steps == 1 {
			axis[i] = lo
			continue
		}
		axis[i] = lo + (hi-lo)*float64(i)/float64(steps-1)
	}

	grid := [][]float64{{}}
	for d := 0; d < n; d++ {
		next := make([][]float64, 0, len(grid)*steps)
		for _, prefix := range grid {
			for _, v := range axis {
				point := append(append(make([]float64, 0, d+1), prefix...), v)
				next = append(next, point)
			}
		}
		grid = next
	}

	return grid
}

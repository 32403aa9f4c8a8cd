/*
Copyright © 2026 the Transit authors.
This file is part of Transit.

Transit is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Transit is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Transit.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package numerics provides the interpolation, search, and quadrature
// helpers shared by the extinction and slant-path calculations.
package numerics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/interp"
)

// Errors returned by Bracket when the requested value falls outside the
// sampled range.
var (
	ErrBelowRange = errors.New("value below sampled range")
	ErrAboveRange = errors.New("value above sampled range")
)

// Bracket returns the index i such that x[i] <= v < x[i+1], where x is
// sorted ascending. If v equals the last element, the index of the last
// element is returned together with ErrAboveRange so that callers can
// distinguish the outermost sample from an interior bracket.
func Bracket(x []float64, v float64) (int, error) {
	n := len(x)
	if n < 2 {
		return -1, fmt.Errorf("numerics: need at least 2 samples, got %d", n)
	}
	if v < x[0] {
		return -1, ErrBelowRange
	}
	if v >= x[n-1] {
		return n - 1, ErrAboveRange
	}
	i := sort.SearchFloat64s(x, v)
	if i < n && x[i] == v {
		return i, nil
	}
	return i - 1, nil
}

// NearestIndex returns the index of the element of x (sorted ascending)
// closest to v.
func NearestIndex(x []float64, v float64) int {
	n := len(x)
	i := sort.SearchFloat64s(x, v)
	switch {
	case i == 0:
		return 0
	case i >= n:
		return n - 1
	}
	if v-x[i-1] <= x[i]-v {
		return i - 1
	}
	return i
}

// Linear evaluates a piecewise-linear interpolant through (x, y) at xr,
// clamping to the end values outside the sampled range.
func Linear(x, y []float64, xr float64) float64 {
	n := len(x)
	if xr <= x[0] {
		return y[0]
	}
	if xr >= x[n-1] {
		return y[n-1]
	}
	i := sort.SearchFloat64s(x, xr) - 1
	t := (xr - x[i]) / (x[i+1] - x[i])
	return y[i] + t*(y[i+1]-y[i])
}

// Parabola evaluates at xr the parabola through the first three points of
// (x, y) (Lagrange form).
func Parabola(x, y []float64, xr float64) float64 {
	d0 := (xr - x[1]) * (xr - x[2]) / ((x[0] - x[1]) * (x[0] - x[2]))
	d1 := (xr - x[0]) * (xr - x[2]) / ((x[1] - x[0]) * (x[1] - x[2]))
	d2 := (xr - x[0]) * (xr - x[1]) / ((x[2] - x[0]) * (x[2] - x[1]))
	return y[0]*d0 + y[1]*d1 + y[2]*d2
}

// SplineIntegral integrates a natural cubic spline through (x, y) from a
// to b. The spline is integrated exactly on each knot interval with a
// three-node Gauss-Legendre rule. x must be sorted strictly ascending and
// hold at least three points.
func SplineIntegral(x, y []float64, a, b float64) (float64, error) {
	if len(x) < 3 {
		return 0, fmt.Errorf("numerics: spline integration needs >= 3 points, got %d", len(x))
	}
	var spline interp.NaturalCubic
	if err := spline.Fit(x, y); err != nil {
		return 0, fmt.Errorf("numerics: spline fit: %w", err)
	}
	var total float64
	for i := 0; i < len(x)-1; i++ {
		lo := math.Max(a, x[i])
		hi := math.Min(b, x[i+1])
		if hi <= lo {
			continue
		}
		total += quad.Fixed(spline.Predict, lo, hi, 3, nil, 1)
	}
	return total, nil
}

// Integrate computes the integral of y over x using Simpson's rule when at
// least three points are available, falling back to the trapezoid rule for
// exactly two.
func Integrate(x, y []float64) (float64, error) {
	switch {
	case len(x) >= 3:
		return integrate.Simpsons(x, y), nil
	case len(x) == 2:
		return integrate.Trapezoidal(x, y), nil
	}
	return 0, fmt.Errorf("numerics: integration needs >= 2 points, got %d", len(x))
}

// Downsample decimates in by an integer factor, averaging over a kernel
// centered on each retained sample so that the area under the curve is
// nearly conserved. Odd factors average the factor points around each
// retained value; even factors weight the kernel boundary points by one
// half and share them between neighboring output samples. The first and
// last input values map onto the first and last output values.
func Downsample(in []float64, factor int) []float64 {
	n := len(in)
	if factor <= 1 || n < 2 {
		out := make([]float64, n)
		copy(out, in)
		return out
	}
	m := 1 + (n-1)/factor
	ks := 2*(factor/2) + 1
	even := factor%2 == 0
	out := make([]float64, m)

	for i := 0; i < ks/2+1; i++ {
		out[0] += in[i]
	}
	if even {
		out[0] -= 0.5 * in[ks/2]
	}
	out[0] /= 0.5 * float64(factor+1)

	for j := 1; j < m-1; j++ {
		for i := -(ks / 2); i < ks/2+1; i++ {
			out[j] += in[factor*j+i]
		}
		if even {
			out[j] -= 0.5 * (in[factor*j-ks/2] + in[factor*j+ks/2])
		}
		out[j] /= float64(factor)
	}

	for i := n - 1 - ks/2; i < n; i++ {
		out[m-1] += in[i]
	}
	if even {
		out[m-1] -= 0.5 * in[n-ks/2]
	}
	out[m-1] /= 0.5 * float64(factor+1)

	return out
}

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

package transit

import (
	"errors"
	"fmt"
	"math"

	"github.com/RSirimanne/transit/internal/numerics"
)

// RaySolution selects the slant-path geometry, chosen once at
// configuration time.
type RaySolution int

const (
	// StraightRay treats rays as straight lines through a constant
	// refractivity.
	StraightRay RaySolution = iota
	// BentRay bends rays through the layered refractivity profile.
	BentRay
)

// String implements fmt.Stringer.
func (s RaySolution) String() string {
	switch s {
	case StraightRay:
		return "straight"
	case BentRay:
		return "bent"
	}
	return fmt.Sprintf("RaySolution(%d)", int(s))
}

// maxTangentIterations caps the bent-ray fixed-point search for the
// tangent radius.
const maxTangentIterations = 50

// tauStraight computes twice the one-sided optical depth along a straight
// ray of impact parameter b [cm] through an atmosphere with equispaced
// radii rad, constant refractivity refr, and per-layer extinction ex
// [cm⁻¹]. Rays whose tangent radius lies beyond the outermost sampled
// radius contribute zero optical depth; a tangent radius below the
// innermost sample is a sampling error.
func tauStraight(b, refr float64, rad, ex []float64) (float64, error) {
	r0 := b / refr
	rs, err := numerics.Bracket(rad, r0)
	switch {
	case errors.Is(err, numerics.ErrAboveRange):
		return 0, nil
	case errors.Is(err, numerics.ErrBelowRange):
		return 0, fmt.Errorf("transit: tangent radius %g cm below sampled range [%g, %g] cm: %w",
			r0, rad[0], rad[len(rad)-1], ErrRange)
	case err != nil:
		return 0, err
	}

	// Work on a copy of the window from the bracketing sample outward so
	// the substituted tangent-point value never touches the shared row.
	n := len(rad) - rs
	r := make([]float64, n)
	e := make([]float64, n)
	copy(r, rad[rs:])
	copy(e, ex[rs:])

	// Interpolate the extinction at the tangent radius and let it replace
	// the bracketing sample, so that integration treats r0 as a grid point.
	switch {
	case n >= 3:
		e[0] = numerics.Parabola(rad[rs:], ex[rs:], r0)
	case rs >= 1:
		e[0] = numerics.Parabola(rad[rs-1:], ex[rs-1:], r0)
	default:
		e[0] = numerics.Linear(rad[rs:rs+2], ex[rs:rs+2], r0)
	}
	r[0] = r0
	dr := r[1] - r[0]

	var res float64
	if n > 2 {
		// Convert the radius axis to distance along the path, exploiting
		// the equal radius spacing beyond the first interval.
		Dr := r[2] - r[1]
		cte := dr * (dr + 2*r0)
		s := make([]float64, n)
		for i := 1; i < n; i++ {
			k := float64(i - 1)
			s[i] = math.Sqrt(cte + k*Dr*(2*(r0+dr)+k*Dr))
		}
		res, err = numerics.SplineIntegral(s, e, 0, s[n-1])
		if err != nil {
			return 0, err
		}
	} else {
		res = outerTau(r0, r[1], e[0], e[1], dr)
	}
	return 2 * res, nil
}

// outerTau is the closed-form integral of a linearly varying extinction
// between the tangent radius r0 and the outermost sample rm, exact for
// the two-point case. The sign branch keeps the log and square-root
// arguments real.
func outerTau(r0, rm, e0, e1, dr float64) float64 {
	if e1 == e0 {
		return e0 * r0 * math.Sqrt(rm*rm/(r0*r0)-1)
	}
	alpha := (e1 - e0) / dr
	root := rm * math.Sqrt(rm*rm-r0*r0)
	lg := r0 * r0 * math.Log(math.Sqrt(rm*rm/(r0*r0)-1)+rm/r0)
	if alpha < 0 {
		return -alpha * (root - lg) / 2
	}
	return alpha * (root + lg) / 2
}

// tangentRadius finds the closest-approach radius of a bent ray by fixed-
// point iteration of r0 ← b/refr(r0). It returns the radius and the
// number of iterations used.
func tangentRadius(b float64, rad, refr []float64) (float64, int, error) {
	r0a := b
	for i := 1; ; i++ {
		r0 := b / numerics.Linear(rad, refr, r0a)
		if r0 == r0a {
			return r0, i, nil
		}
		if i >= maxTangentIterations {
			return 0, i, fmt.Errorf("transit: tangent radius for b=%g cm not converged after %d iterations (%g != %g cm): %w",
				b, maxTangentIterations, r0, r0a, ErrConvergence)
		}
		r0a = r0
	}
}

// tauBent computes twice the one-sided optical depth along a refracted
// ray. The integral splits into a closed-form term over the two layers
// nearest the tangent point, where the path-length factor is singular,
// and a numerical term over the remaining layers.
func tauBent(b float64, rad, refr, ex []float64) (float64, error) {
	r0, _, err := tangentRadius(b, rad, refr)
	if err != nil {
		return 0, err
	}
	rs, err := numerics.Bracket(rad, r0)
	switch {
	case errors.Is(err, numerics.ErrAboveRange):
		return 0, nil
	case errors.Is(err, numerics.ErrBelowRange):
		return 0, fmt.Errorf("transit: tangent radius %g cm below sampled range [%g, %g] cm: %w",
			r0, rad[0], rad[len(rad)-1], ErrRange)
	case err != nil:
		return 0, err
	}
	// First sample strictly above the tangent radius.
	rs++

	res := outerTau(r0, rad[rs], ex[rs-1], ex[rs], rad[rs]-rad[rs-1])

	n := len(rad) - rs
	if n < 2 {
		return 2 * res, nil
	}
	dt := make([]float64, n)
	for i := 0; i < n; i++ {
		q := b / (refr[rs+i] * rad[rs+i])
		if q > 1 {
			return 0, fmt.Errorf("transit: b/(n·r) = %g > 1 at radius %g cm; refractivity and radius sampling are inconsistent",
				q, rad[rs+i])
		}
		dt[i] = ex[rs+i] / math.Sqrt(1-q*q)
	}
	var num float64
	if n > 2 {
		num, err = numerics.SplineIntegral(rad[rs:], dt, rad[rs], rad[len(rad)-1])
	} else {
		num, err = numerics.Integrate(rad[rs:], dt)
	}
	if err != nil {
		return 0, err
	}
	return 2 * (res + num), nil
}

// OpticalDepth computes the optical depth of the ray with impact
// parameter b [cm] at one wavenumber, given the extinction of every layer
// at that wavenumber. The geometry follows the configured RaySolution.
func (tr *Transit) OpticalDepth(b float64, ex []float64) (float64, error) {
	refr := tr.refractivity()
	switch tr.Cfg.Solution {
	case BentRay:
		return tauBent(b, tr.Atm.Radius, refr, ex)
	default:
		return tauStraight(b, refr[0], tr.Atm.Radius, ex)
	}
}

// refractivity returns the per-layer refractivity profile, defaulting to
// the unity profile built at construction. The returned slice is shared
// read-only across wavenumber workers.
func (tr *Transit) refractivity() []float64 {
	if tr.Atm.Refractivity != nil {
		return tr.Atm.Refractivity
	}
	return tr.unitRefr
}

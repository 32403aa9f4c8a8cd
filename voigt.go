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
	"fmt"
	"math"
	"math/cmplx"

	"github.com/RSirimanne/transit/internal/numerics"
)

// Physical constants (cgs).
const (
	lightSpeed = 2.99792458e10  // speed of light [cm/s]
	boltzmann  = 1.380658e-16   // Boltzmann constant [erg/K]
	amu        = 1.6605402e-24  // atomic mass unit [g]
	sigCte     = 8.852821e-13   // π e²/(mₑ c²) [cm]
	expCte     = 1.4387687      // h c / k [cm K]
	sqrtLn2    = 0.832554611157698
	sqrtPi     = 1.77245385090552
)

// voigtQuickLimit is the sample count above which profiles switch to the
// quick pseudo-Voigt approximation. Very broad lines dominate their
// surroundings smoothly enough that the cheaper evaluation suffices.
const voigtQuickLimit = 100001

// voigtProfile evaluates a symmetric discretized Voigt profile for the
// given Doppler and Lorentz half-widths [cm⁻¹] on a grid with the given
// spacing. The profile half-width is max(doppler, lorentz)×timesAlpha; the
// sample count is floored to 3 and capped at 2×maxHalf+1. It returns the
// samples and the half-size (sample count = 2×half+1).
func voigtProfile(doppler, lorentz, spacing, timesAlpha float64, maxHalf int) ([]float64, int, error) {
	alpha := math.Max(doppler, lorentz)
	width := alpha * timesAlpha
	n := 2*int(width/spacing+0.5) + 1
	if n < 3 {
		n = 3
	}
	if n > 2*maxHalf+1 {
		n = 2*maxHalf + 1
	}
	if n <= 0 || doppler <= 0 || lorentz < 0 || math.IsNaN(width) {
		return nil, 0, fmt.Errorf("transit: %d profile samples for Doppler width %g cm⁻¹, Lorentz width %g cm⁻¹: %w",
			n, doppler, lorentz, ErrInvalidWidth)
	}
	half := n / 2
	prof := make([]float64, n)
	quick := n > voigtQuickLimit
	for j := 0; j <= half; j++ {
		d := float64(j) * spacing
		var v float64
		if quick {
			v = pseudoVoigt(d, doppler, lorentz)
		} else {
			v = voigt(d, doppler, lorentz)
		}
		// Symmetric about the center sample.
		prof[half-j] = v
		prof[half+j] = v
	}
	return prof, half, nil
}

// voigt returns the normalized Voigt function at distance d [cm⁻¹] from
// the line center, using Humlíček's rational approximation of the real
// part of the Faddeeva function.
func voigt(d, doppler, lorentz float64) float64 {
	x := sqrtLn2 * d / doppler
	y := sqrtLn2 * lorentz / doppler
	return humlicek(x, y) * sqrtLn2 / (sqrtPi * doppler)
}

// pseudoVoigt is the quick approximation: a width-matched linear
// combination of Gaussian and Lorentzian shapes (Thompson mixing).
func pseudoVoigt(d, doppler, lorentz float64) float64 {
	fg := 2 * doppler
	fl := 2 * lorentz
	f := math.Pow(math.Pow(fg, 5)+2.69269*math.Pow(fg, 4)*fl+
		2.42843*math.Pow(fg, 3)*fl*fl+4.47163*fg*fg*math.Pow(fl, 3)+
		0.07842*fg*math.Pow(fl, 4)+math.Pow(fl, 5), 0.2)
	r := fl / f
	eta := 1.36603*r - 0.47719*r*r + 0.11116*r*r*r
	hwhm := f / 2
	gauss := math.Exp(-math.Ln2*d*d/(hwhm*hwhm)) * sqrtLn2 / (sqrtPi * hwhm)
	lor := hwhm / (math.Pi * (d*d + hwhm*hwhm))
	return eta*lor + (1-eta)*gauss
}

// humlicek evaluates Re[w(x+iy)] for y >= 0 with the four-region w4
// algorithm (Humlíček 1982).
func humlicek(x, y float64) float64 {
	t := complex(y, -x)
	s := math.Abs(x) + y
	switch {
	case s >= 15:
		return real(t * 0.5641896 / (0.5 + t*t))
	case s >= 5.5:
		u := t * t
		return real(t * (1.410474 + u*0.5641896) / (0.75 + u*(3.0+u)))
	case y >= 0.195*math.Abs(x)-0.176:
		return real((16.4955 + t*(20.20933+t*(11.96482+t*(3.778987+t*0.5642236)))) /
			(16.4955 + t*(38.82363+t*(39.27121+t*(21.69274+t*(6.699398+t))))))
	default:
		u := t * t
		w := cmplx.Exp(u) - t*(36183.31-u*(3321.9905-u*(1540.787-u*(219.0313-u*
			(35.76683-u*(1.320522-u*0.56419))))))/
			(32066.6-u*(24322.84-u*(9022.228-u*(2186.181-u*(364.2191-u*
				(61.57037-u*(1.841439-u)))))))
		return real(w)
	}
}

// VoigtTable caches discretized profiles on a fixed grid of Doppler and
// Lorentz width samples. It is built once per run and shared read-only
// across all layer workers.
type VoigtTable struct {
	dop, lor   []float64 // width samples [cm⁻¹], ascending
	prof       [][][]float64
	half       [][]int
	spacing    float64
	timesAlpha float64
}

// NewVoigtTable eagerly builds profiles for nDop×nLor log-spaced width
// samples spanning [dopMin,dopMax]×[lorMin,lorMax], discretized with the
// given grid spacing and a maximum half-size of maxHalf samples.
func NewVoigtTable(dopMin, dopMax, lorMin, lorMax float64, nDop, nLor int,
	spacing, timesAlpha float64, maxHalf int) (*VoigtTable, error) {

	if dopMin <= 0 || lorMin <= 0 || dopMax < dopMin || lorMax < lorMin {
		return nil, fmt.Errorf("transit: width sample bounds Doppler [%g, %g], Lorentz [%g, %g] cm⁻¹: %w",
			dopMin, dopMax, lorMin, lorMax, ErrInvalidWidth)
	}
	if nDop < 1 || nLor < 1 {
		return nil, fmt.Errorf("transit: need at least one width sample per axis (%d×%d): %w",
			nDop, nLor, ErrAllocation)
	}
	vt := &VoigtTable{
		dop:        logSpace(dopMin, dopMax, nDop),
		lor:        logSpace(lorMin, lorMax, nLor),
		spacing:    spacing,
		timesAlpha: timesAlpha,
	}
	vt.prof = make([][][]float64, nDop)
	vt.half = make([][]int, nDop)
	for i, d := range vt.dop {
		vt.prof[i] = make([][]float64, nLor)
		vt.half[i] = make([]int, nLor)
		for j, l := range vt.lor {
			p, h, err := voigtProfile(d, l, spacing, timesAlpha, maxHalf)
			if err != nil {
				return nil, err
			}
			vt.prof[i][j] = p
			vt.half[i][j] = h
		}
	}
	return vt, nil
}

// logSpace returns n log-spaced samples from lo to hi inclusive.
func logSpace(lo, hi float64, n int) []float64 {
	s := make([]float64, n)
	if n == 1 {
		s[0] = lo
		return s
	}
	llo, lhi := math.Log(lo), math.Log(hi)
	for i := range s {
		s[i] = math.Exp(llo + (lhi-llo)*float64(i)/float64(n-1))
	}
	return s
}

// NearestDoppler returns the index of the cached Doppler width sample
// closest to w.
func (vt *VoigtTable) NearestDoppler(w float64) int { return numerics.NearestIndex(vt.dop, w) }

// NearestLorentz returns the index of the cached Lorentz width sample
// closest to w.
func (vt *VoigtTable) NearestLorentz(w float64) int { return numerics.NearestIndex(vt.lor, w) }

// Profile returns the cached profile and half-size for a width sample pair.
func (vt *VoigtTable) Profile(idop, ilor int) ([]float64, int) {
	return vt.prof[idop][ilor], vt.half[idop][ilor]
}

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
	"io"
	"math"

	"github.com/RSirimanne/transit/internal/numerics"
)

// modulation integrates the transmitted stellar flux over the planetary
// disk at one wavenumber. tau holds the optical depth of each ray ordered
// by descending impact parameter b [cm], valid through index last; deeper
// rays have saturated beyond the toomuch cutoff. starRad is the stellar
// radius [cm]. The result is the in-transit over out-of-transit flux
// ratio.
func modulation(tau, b []float64, last int, toomuch, starRad float64) (float64, error) {
	if last < 0 || last >= len(b) || len(tau) < last+1 {
		return 0, fmt.Errorf("transit: modulation with last index %d of %d rays: %w",
			last, len(b), ErrInsufficientSamples)
	}

	// Integration runs over ascending impact parameter. Pad up to two
	// samples below the deepest computed ray with zero transmitted flux:
	// rays past the saturation cutoff are fully blocked, and the pair of
	// zeros gives the spline a clean tail.
	pad := 2
	if avail := len(b) - (last + 1); avail < pad {
		pad = avail
	}
	n := last + 1 + pad
	if n < 3 {
		return 0, fmt.Errorf("transit: %d samples for the radial integration: %w", n, ErrInsufficientSamples)
	}

	x := make([]float64, n) // ascending impact parameter
	y := make([]float64, n) // exp(-tau)·b
	for j := 0; j < n; j++ {
		x[j] = b[n-1-j]
	}
	for i := 0; i <= last; i++ {
		y[n-1-i] = math.Exp(-tau[i]) * b[i]
	}

	res, err := numerics.SplineIntegral(x, y, x[0], x[n-1])
	if err != nil {
		return 0, err
	}

	// Twice the azimuthally symmetric integral, plus the unobstructed
	// stellar annulus outside the outermost sampled ray, plus the residual
	// transmission of the saturated core disk.
	bmax := x[n-1]
	bmin := x[0]
	res = 2*res + starRad*starRad - bmax*bmax + math.Exp(-toomuch)*bmin*bmin
	return res / (starRad * starRad), nil
}

// ModulationSpectrum is the computed transit spectrum: one modulation
// value per output wavenumber.
type ModulationSpectrum struct {
	Wavenumber []float64 // [cm⁻¹]
	Modulation []float64 // in-transit over out-of-transit flux ratio
}

// WriteTo writes the spectrum as wavenumber and modulation columns. It
// implements io.WriterTo.
func (m *ModulationSpectrum) WriteTo(w io.Writer) (int64, error) {
	var total int64
	k, err := fmt.Fprintf(w, "#wavenumber[cm-1]   modulation\n")
	total += int64(k)
	if err != nil {
		return total, err
	}
	for i, wn := range m.Wavenumber {
		k, err = fmt.Fprintf(w, "%12.6f%14.8f\n", wn, m.Modulation[i])
		total += int64(k)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

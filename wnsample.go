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

import "fmt"

// WavenumberGrid holds the output sampling of the spectrum together with
// the fixed fine (oversampled) grid used to place line profiles. The
// extinction builder additionally derives, per layer, a dynamic grid whose
// spacing is an admissible integer multiple of the oversampled spacing.
type WavenumberGrid struct {
	Init       float64 // first output wavenumber [cm⁻¹]
	Step       float64 // output grid spacing [cm⁻¹]
	N          int     // number of output samples
	Oversample int     // oversampling factor of the fine grid

	Out      []float64 // output grid values [cm⁻¹]
	Over     []float64 // oversampled grid values [cm⁻¹]
	divisors []int     // admissible dynamic factors: divisors of Oversample, ascending
}

// NewWavenumberGrid builds the output and oversampled grids. n must be at
// least 2 (a spectrum needs resolution) and oversample at least 1.
func NewWavenumberGrid(init, step float64, n, oversample int) (*WavenumberGrid, error) {
	if n < 2 {
		return nil, fmt.Errorf("transit: need at least 2 wavenumber samples, got %d: %w", n, ErrAllocation)
	}
	if step <= 0 {
		return nil, fmt.Errorf("transit: wavenumber spacing must be positive, got %g cm⁻¹", step)
	}
	if oversample < 1 {
		return nil, fmt.Errorf("transit: oversampling factor must be at least 1, got %d", oversample)
	}
	g := &WavenumberGrid{Init: init, Step: step, N: n, Oversample: oversample}
	g.Out = make([]float64, n)
	for i := range g.Out {
		g.Out[i] = init + float64(i)*step
	}
	onwn := (n-1)*oversample + 1
	odwn := g.OverStep()
	g.Over = make([]float64, onwn)
	for i := range g.Over {
		g.Over[i] = init + float64(i)*odwn
	}
	for d := 1; d <= oversample; d++ {
		if oversample%d == 0 {
			g.divisors = append(g.divisors, d)
		}
	}
	return g, nil
}

// OverStep returns the oversampled grid spacing [cm⁻¹].
func (g *WavenumberGrid) OverStep() float64 { return g.Step / float64(g.Oversample) }

// NOver returns the number of oversampled grid samples.
func (g *WavenumberGrid) NOver() int { return len(g.Over) }

// DynamicFactor selects the per-layer oversampling factor for a layer
// whose narrowest line width is minWidth [cm⁻¹]: the largest divisor d of
// the oversampling factor whose resulting spacing d×OverStep still
// resolves the narrowest line, d×OverStep ≤ minWidth/2. Broad lines
// tolerate coarse sampling; narrow lines force the factor down to 1.
func (g *WavenumberGrid) DynamicFactor(minWidth float64) int {
	odwn := g.OverStep()
	factor := 1
	for _, d := range g.divisors {
		if float64(d)*odwn <= 0.5*minWidth {
			factor = d
		}
	}
	return factor
}

// NDynamic returns the number of dynamic-grid samples for a given factor.
func (g *WavenumberGrid) NDynamic(factor int) int {
	return 1 + (g.NOver()-1)/factor
}

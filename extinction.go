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
	"sync"

	"github.com/ctessum/sparse"

	"github.com/RSirimanne/transit/internal/numerics"
)

// ExtinctionGrid is the per-layer, per-wavenumber extinction coefficient
// [cm⁻¹] together with a per-layer flag recording which rows have been
// computed. Rows are written whole: a row is never observable as computed
// while partially filled, which is also the checkpoint granularity.
type ExtinctionGrid struct {
	mx       sync.RWMutex
	K        *sparse.DenseArray // extinction [radius][wavenumber] [cm⁻¹]
	computed []bool
}

// NewExtinctionGrid allocates an empty grid for nrad layers and nwn
// wavenumber samples.
func NewExtinctionGrid(nrad, nwn int) (*ExtinctionGrid, error) {
	if nrad < 1 || nwn < 2 {
		return nil, fmt.Errorf("transit: extinction grid of %d radii × %d wavenumbers: %w",
			nrad, nwn, ErrAllocation)
	}
	return &ExtinctionGrid{
		K:        sparse.ZerosDense(nrad, nwn),
		computed: make([]bool, nrad),
	}, nil
}

// NRadii returns the number of layer rows.
func (g *ExtinctionGrid) NRadii() int { return g.K.Shape[0] }

// NWavenumbers returns the number of wavenumber samples per row.
func (g *ExtinctionGrid) NWavenumbers() int { return g.K.Shape[1] }

// Row returns a copy of row r.
func (g *ExtinctionGrid) Row(r int) []float64 {
	g.mx.RLock()
	defer g.mx.RUnlock()
	nwn := g.K.Shape[1]
	row := make([]float64, nwn)
	copy(row, g.K.Elements[r*nwn:(r+1)*nwn])
	return row
}

// Column returns the extinction at wavenumber index w for every layer.
func (g *ExtinctionGrid) Column(w int) []float64 {
	g.mx.RLock()
	defer g.mx.RUnlock()
	nwn := g.K.Shape[1]
	col := make([]float64, g.K.Shape[0])
	for r := range col {
		col[r] = g.K.Elements[r*nwn+w]
	}
	return col
}

// SetRow stores row r and marks it computed in one step.
func (g *ExtinctionGrid) SetRow(r int, row []float64) {
	g.mx.Lock()
	defer g.mx.Unlock()
	nwn := g.K.Shape[1]
	copy(g.K.Elements[r*nwn:(r+1)*nwn], row)
	g.computed[r] = true
}

// Computed reports whether row r has been computed.
func (g *ExtinctionGrid) Computed(r int) bool {
	g.mx.RLock()
	defer g.mx.RUnlock()
	return g.computed[r]
}

// LayerStats are the per-layer line-processing counters returned by the
// extinction builder.
type LayerStats struct {
	CoAdded   int     // lines folded into a neighbor's profile evaluation
	Skipped   int     // lines below the weak-line threshold
	Evaluated int     // profile evaluations performed
	MinWidth  float64 // narrowest max(Doppler,Lorentz) width in the layer [cm⁻¹]
	Factor    int     // dynamic oversampling factor chosen for the layer
}

// Add accumulates the counters of o into s.
func (s *LayerStats) Add(o LayerStats) {
	s.CoAdded += o.CoAdded
	s.Skipped += o.Skipped
	s.Evaluated += o.Evaluated
}

// computeLayerExtinction synthesizes the extinction spectrum of layer r by
// summing Voigt profiles over the line list, and writes it into the grid.
func (tr *Transit) computeLayerExtinction(r int) (LayerStats, error) {
	var st LayerStats

	atm := tr.Atm
	g := tr.WN
	niso := len(tr.Iso)
	temp := atm.Temp[r]

	// Broadening factors at this layer's temperature.
	fdoppler := math.Sqrt(2*boltzmann*temp/amu) * sqrtLn2 / lightSpeed
	florentz := math.Sqrt(2*boltzmann*temp/math.Pi/amu) / (amu * lightSpeed)

	alphad := make([]float64, niso) // Doppler width per unit wavenumber
	alphal := make([]float64, niso) // Lorentz width [cm⁻¹]
	idop := make([]int, niso)
	ilor := make([]int, niso)
	ziso := make([]float64, niso) // partition function at temp

	wn0 := g.Out[0]
	minWidth := math.Inf(1)
	for i, iso := range tr.Iso {
		for _, mol := range atm.Molecules {
			csdiam := mol.CollRadius + atm.Molecules[iso.Molecule].CollRadius
			alphal[i] += mol.Density[r] / mol.Mass * csdiam * csdiam *
				math.Sqrt(1/iso.Mass+1/mol.Mass)
		}
		alphal[i] *= florentz
		alphad[i] = fdoppler / math.Sqrt(iso.Mass)

		maxWidth := math.Max(alphal[i], alphad[i]*wn0)
		minWidth = math.Min(minWidth, maxWidth)

		idop[i] = tr.voigt.NearestDoppler(alphad[i] * wn0)
		ilor[i] = tr.voigt.NearestLorentz(alphal[i])
		ziso[i] = tr.Iso[i].PartitionAt(temp)
		if ziso[i] <= 0 {
			return st, fmt.Errorf("transit: non-positive partition function %g for isotope %d at T=%g K",
				ziso[i], i, temp)
		}
	}
	st.MinWidth = minWidth

	ofactor := g.DynamicFactor(minWidth)
	st.Factor = ofactor
	odwn := g.OverStep()
	ddwn := odwn * float64(ofactor)
	dnwn := g.NDynamic(ofactor)
	if dnwn < 2 {
		return st, fmt.Errorf("transit: dynamic grid of %d samples at layer %d: %w", dnwn, r, ErrAllocation)
	}
	buf := make([]float64, dnwn)

	wnMax := g.Over[g.NOver()-1]
	inRange := func(wn float64) bool { return wn >= g.Init && wn <= wnMax }

	// First pass: the strongest un-broadened line strength bounds the
	// weak-line threshold.
	var kmax float64
	for _, ln := range tr.Lines {
		if !inRange(ln.Wavenumber) {
			continue
		}
		kmax = math.Max(kmax, tr.lineStrength(r, temp, ziso, ln))
	}

	// Second pass: place every surviving line's profile.
	for ln := 0; ln < len(tr.Lines); ln++ {
		line := tr.Lines[ln]
		wavn := line.Wavenumber
		if !inRange(wavn) {
			continue
		}
		i := line.Isotope
		proptoK := tr.lineStrength(r, temp, ziso, line)

		// Nearest oversampled bin to the line center.
		iown := int((wavn - g.Init) / odwn)
		if iown+1 < g.NOver() &&
			math.Abs(wavn-g.Over[iown+1]) < math.Abs(wavn-g.Over[iown]) {
			iown++
		}

		// Co-add immediately following lines of the same isotope that fall
		// within one oversampled spacing of this bin.
		for ln != len(tr.Lines)-1 && tr.Lines[ln+1].Isotope == i {
			next := tr.Lines[ln+1]
			if math.Abs(next.Wavenumber-g.Over[iown]) >= odwn {
				break
			}
			st.CoAdded++
			ln++
			proptoK += tr.lineStrength(r, temp, ziso, next)
		}

		if proptoK < tr.Cfg.Ethresh*kmax {
			st.Skipped++
			continue
		}

		idwn := int((wavn - g.Init) / ddwn)

		// Re-bin the Doppler width when it matters at this wavenumber.
		if alphad[i]*wavn/alphal[i] >= 0.1 {
			idop[i] = tr.voigt.NearestDoppler(alphad[i] * wavn)
		}

		prof, half := tr.voigt.Profile(idop[i], ilor[i])

		// Sub-bin offset between the line center and the dynamic grid.
		subw := iown - idwn*ofactor
		offset := ofactor*idwn - half + subw
		minj := idwn - (half-subw)/ofactor
		maxj := idwn + (half+subw)/ofactor
		if minj < 0 {
			minj = 0
		}
		if maxj > dnwn {
			maxj = dnwn
		}
		for j := minj; j < maxj; j++ {
			p := ofactor*j - offset
			if p < 0 || p >= len(prof) {
				continue
			}
			buf[j] += proptoK * prof[p]
		}
		st.Evaluated++
	}

	row := numerics.Downsample(buf, g.Oversample/ofactor)
	if len(row) != g.N {
		return st, fmt.Errorf("transit: downsampled %d dynamic samples to %d, want %d: %w",
			dnwn, len(row), g.N, ErrAllocation)
	}
	tr.Ext.SetRow(r, row)
	return st, nil
}

// lineStrength computes the un-broadened extinction strength of one line
// at layer r: density × abundance × line intensity × Boltzmann population
// × stimulated emission, per isotope mass and partition function.
func (tr *Transit) lineStrength(r int, temp float64, ziso []float64, ln Line) float64 {
	iso := tr.Iso[ln.Isotope]
	dens := tr.Atm.Molecules[iso.Molecule].Density[r]
	return dens * iso.Ratio * sigCte * ln.GF *
		math.Exp(-expCte*ln.Elow/temp) *
		(1 - math.Exp(-expCte*ln.Wavenumber/temp)) /
		iso.Mass / ziso[ln.Isotope]
}

// WriteExtinctionTable writes the computed extinction of layer r as a
// diagnostic table of wavenumber [cm⁻¹], wavelength [nm], extinction
// [cm⁻¹], and cross-section [cm²] columns.
func (tr *Transit) WriteExtinctionTable(w io.Writer, r int) error {
	if !tr.Ext.Computed(r) {
		return fmt.Errorf("transit: extinction at layer %d has not been computed", r)
	}
	// The cross-section column is referenced to isotope 0. Opacity-table
	// runs carry no isotopes, and a layer may hold zero density; both
	// leave the column zero.
	var massPerDens float64
	if len(tr.Iso) > 0 {
		iso := tr.Iso[0]
		if dens := tr.Atm.Molecules[iso.Molecule].Density[r]; dens > 0 {
			massPerDens = amu * iso.Mass / dens
		}
	}
	row := tr.Ext.Row(r)
	if _, err := fmt.Fprintf(w, "#wavenumber[cm-1]   wavelength[nm]   extinction[cm-1]   cross-section[cm2]\n"); err != nil {
		return err
	}
	for i, wn := range tr.WN.Out {
		_, err := fmt.Fprintf(w, "%12.6f%14.6f%17.7g%17.7g\n",
			wn, 1e7/wn, row[i], row[i]*massPerDens)
		if err != nil {
			return err
		}
	}
	return nil
}

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

// Package transit models the transmission spectrum of a transiting
// planetary atmosphere. It synthesizes per-layer extinction spectra from
// a line-transition list (or interpolates them from a precomputed opacity
// table), integrates the extinction along slant ray paths through the
// atmosphere, and integrates the transmitted flux over the planetary disk
// into a modulation spectrum.
package transit

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Config holds the run-mode parameters of a Transit computation.
type Config struct {
	// Ethresh discards lines whose accumulated strength falls below
	// Ethresh times the strongest line of the layer. Purely a performance
	// knob: raising it can only drop more lines.
	Ethresh float64
	// Toomuch is the saturation optical depth: rays deeper than the first
	// ray to exceed it are treated as fully blocked.
	Toomuch float64
	// TimesAlpha is the computed half-width of each Voigt profile in
	// units of the broadening width.
	TimesAlpha float64
	// NDop and NLor are the number of cached Doppler and Lorentz width
	// samples in the Voigt table.
	NDop, NLor int
	// StarRadius is the stellar radius [cm].
	StarRadius float64
	// NImpact is the number of sampled impact parameters, spanning the
	// sampled radius range. Zero means one ray per atmospheric layer.
	NImpact int
	// Solution selects straight or bent (refracted) ray geometry.
	Solution RaySolution
	// Opacity, when set, switches the run from line-by-line synthesis to
	// temperature interpolation of the precomputed table.
	Opacity *OpacityTable
	// Checkpoint is the path of the extinction checkpoint file. Empty
	// disables checkpointing.
	Checkpoint string
}

// DefaultConfig returns the customary run parameters.
func DefaultConfig() Config {
	return Config{
		Ethresh:    1e-8,
		Toomuch:    20,
		TimesAlpha: 50,
		NDop:       40,
		NLor:       40,
	}
}

// Transit is one spectrum computation: the read-only inputs, the run
// configuration, and the owned working state. Create it with New, then
// call ComputeExtinction followed by Spectrum.
type Transit struct {
	Atm   *Atmosphere
	Iso   []Isotope
	Lines []Line
	WN    *WavenumberGrid
	Cfg   Config

	// Ext is the extinction grid, filled one row per layer.
	Ext *ExtinctionGrid

	voigt    *VoigtTable
	unitRefr []float64
}

// New validates the inputs and prepares a run. The Voigt profile table is
// built eagerly over the width ranges implied by the atmosphere, and the
// extinction grid is restored from the configured checkpoint when one
// exists.
func New(atm *Atmosphere, iso []Isotope, lines []Line, wn *WavenumberGrid, cfg Config) (*Transit, error) {
	if err := atm.Valid(); err != nil {
		return nil, err
	}
	if err := ValidateLines(lines, iso); err != nil {
		return nil, err
	}
	if cfg.Opacity == nil && len(iso) < 1 {
		return nil, fmt.Errorf("transit: a line-by-line run requires at least one isotope")
	}
	for i, is := range iso {
		if is.Molecule >= len(atm.Molecules) {
			return nil, fmt.Errorf("transit: isotope %d references molecule %d of %d",
				i, is.Molecule, len(atm.Molecules))
		}
	}
	if cfg.Opacity != nil {
		if err := cfg.Opacity.Valid(atm, wn.N); err != nil {
			return nil, err
		}
	}

	tr := &Transit{Atm: atm, Iso: iso, Lines: lines, WN: wn, Cfg: cfg}
	tr.unitRefr = make([]float64, atm.NLayers())
	for i := range tr.unitRefr {
		tr.unitRefr[i] = 1
	}

	var err error
	if tr.Ext, err = NewExtinctionGrid(atm.NLayers(), wn.N); err != nil {
		return nil, err
	}
	if cfg.Opacity == nil {
		if tr.voigt, err = tr.buildVoigtTable(); err != nil {
			return nil, err
		}
	}
	if cfg.Checkpoint != "" {
		if err := RestoreCheckpoint(cfg.Checkpoint, tr.Ext, len(iso)); err != nil &&
			!errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return tr, nil
}

// buildVoigtTable scans the width ranges over all layers and isotopes and
// caches profiles spanning them.
func (tr *Transit) buildVoigtTable() (*VoigtTable, error) {
	dopMin, dopMax := math.Inf(1), 0.0
	lorMin, lorMax := math.Inf(1), 0.0
	wn0 := tr.WN.Out[0]
	wnf := tr.WN.Out[tr.WN.N-1]
	for r := 0; r < tr.Atm.NLayers(); r++ {
		temp := tr.Atm.Temp[r]
		if temp <= 0 {
			return nil, fmt.Errorf("transit: non-positive temperature %g K at layer %d", temp, r)
		}
		fdoppler := math.Sqrt(2*boltzmann*temp/amu) * sqrtLn2 / lightSpeed
		florentz := math.Sqrt(2*boltzmann*temp/math.Pi/amu) / (amu * lightSpeed)
		for _, iso := range tr.Iso {
			var lor float64
			for _, mol := range tr.Atm.Molecules {
				csdiam := mol.CollRadius + tr.Atm.Molecules[iso.Molecule].CollRadius
				lor += mol.Density[r] / mol.Mass * csdiam * csdiam *
					math.Sqrt(1/iso.Mass+1/mol.Mass)
			}
			lor *= florentz
			dop := fdoppler / math.Sqrt(iso.Mass)
			dopMin = math.Min(dopMin, dop*wn0)
			dopMax = math.Max(dopMax, dop*wnf)
			lorMin = math.Min(lorMin, lor)
			lorMax = math.Max(lorMax, lor)
		}
	}
	// A zero-density layer yields zero Lorentz width; keep the sample
	// range positive so the log spacing stays defined.
	const widthFloor = 1e-12
	lorMin = math.Max(lorMin, widthFloor)
	lorMax = math.Max(lorMax, lorMin)
	if dopMin <= 0 || math.IsInf(dopMin, 1) {
		return nil, fmt.Errorf("transit: Doppler width range [%g, %g] cm⁻¹: %w", dopMin, dopMax, ErrInvalidWidth)
	}
	return NewVoigtTable(dopMin, dopMax, lorMin, lorMax, tr.Cfg.NDop, tr.Cfg.NLor,
		tr.WN.OverStep(), tr.Cfg.TimesAlpha, tr.WN.NOver())
}

// RunStats aggregates the per-layer counters of a ComputeExtinction call.
type RunStats struct {
	LayerStats
	Layers   int // rows computed in this run
	Restored int // rows skipped because a checkpoint already held them
}

// ComputeExtinction fills every extinction grid row that is not already
// computed, in parallel across layers, and saves the checkpoint when one
// is configured.
func (tr *Transit) ComputeExtinction() (RunStats, error) {
	var (
		stats RunStats
		mx    sync.Mutex
		wg    sync.WaitGroup
	)
	nrad := tr.Atm.NLayers()
	nprocs := runtime.GOMAXPROCS(0)
	errCh := make(chan error, nprocs)

	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for r := pp; r < nrad; r += nprocs {
				if tr.Ext.Computed(r) {
					mx.Lock()
					stats.Restored++
					mx.Unlock()
					continue
				}
				var (
					st  LayerStats
					err error
				)
				if tr.Cfg.Opacity != nil {
					err = tr.interpolateLayerExtinction(r)
				} else {
					st, err = tr.computeLayerExtinction(r)
				}
				if err != nil {
					select {
					case errCh <- fmt.Errorf("transit: layer %d (T=%g K, r=%g cm): %w",
						r, tr.Atm.Temp[r], tr.Atm.Radius[r], err):
					default:
					}
					return
				}
				mx.Lock()
				stats.LayerStats.Add(st)
				stats.Layers++
				mx.Unlock()
			}
		}(pp)
	}
	wg.Wait()
	select {
	case err := <-errCh:
		return stats, err
	default:
	}

	if tr.Cfg.Checkpoint != "" {
		if err := SaveCheckpoint(tr.Cfg.Checkpoint, tr.Ext, len(tr.Iso)); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// ImpactParameters returns the sampled impact parameters in descending
// order, outermost ray first, spanning the sampled radius range. With the
// default sampling (Config.NImpact zero) this is one ray per atmospheric
// radius.
func (tr *Transit) ImpactParameters() []float64 {
	n := tr.Cfg.NImpact
	if n <= 0 {
		n = tr.Atm.NLayers()
	}
	if n == tr.Atm.NLayers() {
		b := make([]float64, n)
		copy(b, tr.Atm.Radius)
		floats.Reverse(b)
		return b
	}
	lo := tr.Atm.Radius[0]
	hi := tr.Atm.Radius[tr.Atm.NLayers()-1]
	b := make([]float64, n)
	floats.Span(b, hi, lo)
	return b
}

// Spectrum computes the transit modulation at every output wavenumber, in
// parallel across wavenumbers. Every extinction row must be computed
// first.
func (tr *Transit) Spectrum() (*ModulationSpectrum, error) {
	for r := 0; r < tr.Atm.NLayers(); r++ {
		if !tr.Ext.Computed(r) {
			return nil, fmt.Errorf("transit: extinction at layer %d has not been computed", r)
		}
	}
	if tr.Cfg.StarRadius <= 0 {
		return nil, fmt.Errorf("transit: stellar radius %g cm must be positive", tr.Cfg.StarRadius)
	}

	b := tr.ImpactParameters()
	nwn := tr.WN.N
	out := &ModulationSpectrum{
		Wavenumber: tr.WN.Out,
		Modulation: make([]float64, nwn),
	}

	var wg sync.WaitGroup
	nprocs := runtime.GOMAXPROCS(0)
	errCh := make(chan error, nprocs)
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			tau := make([]float64, len(b))
			for w := pp; w < nwn; w += nprocs {
				ex := tr.Ext.Column(w)
				last := len(b) - 1
				for i := range b {
					t, err := tr.OpticalDepth(b[i], ex)
					if err != nil {
						select {
						case errCh <- fmt.Errorf("transit: wavenumber %g cm⁻¹, b=%g cm: %w",
							tr.WN.Out[w], b[i], err):
						default:
						}
						return
					}
					tau[i] = t
					if t > tr.Cfg.Toomuch {
						last = i
						break
					}
				}
				m, err := modulation(tau, b, last, tr.Cfg.Toomuch, tr.Cfg.StarRadius)
				if err != nil {
					select {
					case errCh <- fmt.Errorf("transit: wavenumber %g cm⁻¹: %w", tr.WN.Out[w], err):
					default:
					}
					return
				}
				out.Modulation[w] = m
			}
		}(pp)
	}
	wg.Wait()
	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	return out, nil
}

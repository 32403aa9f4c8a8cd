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

	"github.com/RSirimanne/transit/internal/numerics"
)

// Molecule holds the per-species properties and the radial density profile
// of one molecular species.
type Molecule struct {
	Name       string
	Mass       float64   // molecular mass [amu]
	CollRadius float64   // collision radius [cm]
	Density    []float64 // mass density per layer [g/cm³]
}

// Atmosphere is the sampled radial structure of the modeled atmosphere.
// Radii must be equispaced and sorted ascending; all per-layer slices have
// one value per radius sample. An Atmosphere is loaded once by external
// readers and treated as read-only afterwards.
type Atmosphere struct {
	Radius       []float64 // layer radius [cm]
	Temp         []float64 // layer temperature [K]
	Refractivity []float64 // index of refraction per layer; 1 when not set
	Molecules    []Molecule
}

// Isotope describes one isotopologue contributing line transitions.
type Isotope struct {
	Molecule int       // index into Atmosphere.Molecules
	Mass     float64   // isotope mass [amu]
	Ratio    float64   // isotopic abundance ratio
	TempGrid []float64 // temperature samples of the partition function [K]
	Z        []float64 // partition function at TempGrid
}

// PartitionAt returns the partition function linearly interpolated at
// temperature t [K].
func (iso *Isotope) PartitionAt(t float64) float64 {
	return numerics.Linear(iso.TempGrid, iso.Z, t)
}

// Line is a single line transition. Line lists must be sorted strictly
// ascending in wavenumber; the co-adding logic of the extinction builder
// depends on that ordering.
type Line struct {
	Wavenumber float64 // transition center [cm⁻¹]
	Elow       float64 // lower-state energy [cm⁻¹]
	GF         float64 // g-value times oscillator strength
	Isotope    int     // index into the isotope set
}

// NLayers returns the number of radius samples.
func (atm *Atmosphere) NLayers() int { return len(atm.Radius) }

const radiusSpacingTolerance = 1e-6

// Valid checks the structural invariants the numerical engines rely on:
// at least one layer, ascending equispaced radii, and per-layer slices of
// matching length.
func (atm *Atmosphere) Valid() error {
	nr := len(atm.Radius)
	if nr < 1 {
		return fmt.Errorf("transit: atmosphere has no layers; at least one radius sample is required")
	}
	if len(atm.Temp) != nr {
		return fmt.Errorf("transit: %d temperature samples for %d radii", len(atm.Temp), nr)
	}
	if atm.Refractivity != nil && len(atm.Refractivity) != nr {
		return fmt.Errorf("transit: %d refractivity samples for %d radii", len(atm.Refractivity), nr)
	}
	if nr > 1 {
		dr := atm.Radius[1] - atm.Radius[0]
		if dr <= 0 {
			return fmt.Errorf("transit: radii must ascend; got spacing %g cm", dr)
		}
		for i := 1; i < nr; i++ {
			d := atm.Radius[i] - atm.Radius[i-1]
			if math.Abs(d-dr) > radiusSpacingTolerance*dr {
				return fmt.Errorf("transit: radii must be equispaced; spacing %g cm at index %d differs from %g cm",
					d, i, dr)
			}
		}
	}
	if len(atm.Molecules) == 0 {
		return fmt.Errorf("transit: atmosphere has no molecular species")
	}
	for _, mol := range atm.Molecules {
		if len(mol.Density) != nr {
			return fmt.Errorf("transit: molecule %q has %d density samples for %d radii",
				mol.Name, len(mol.Density), nr)
		}
		if mol.Mass <= 0 {
			return fmt.Errorf("transit: molecule %q has non-positive mass %g amu", mol.Name, mol.Mass)
		}
	}
	return nil
}

// refrAt returns the layer refractivity, defaulting to 1 when no
// refractivity profile was loaded.
func (atm *Atmosphere) refrAt(r int) float64 {
	if atm.Refractivity == nil {
		return 1
	}
	return atm.Refractivity[r]
}

// ValidateLines rejects line lists that are not strictly ascending in
// wavenumber or that reference isotopes outside the given set. Unordered
// input is an error rather than undefined behavior.
func ValidateLines(lines []Line, iso []Isotope) error {
	for i, ln := range lines {
		if ln.Isotope < 0 || ln.Isotope >= len(iso) {
			return fmt.Errorf("transit: line %d references isotope %d of %d", i, ln.Isotope, len(iso))
		}
		if i > 0 && lines[i].Wavenumber <= lines[i-1].Wavenumber {
			return fmt.Errorf("transit: line list not strictly ascending at index %d (%g cm⁻¹ after %g cm⁻¹)",
				i, lines[i].Wavenumber, lines[i-1].Wavenumber)
		}
	}
	for i, is := range iso {
		if is.Molecule < 0 {
			return fmt.Errorf("transit: isotope %d has no parent molecule", i)
		}
		if is.Mass <= 0 {
			return fmt.Errorf("transit: isotope %d has non-positive mass %g amu", i, is.Mass)
		}
		if len(is.TempGrid) == 0 || len(is.TempGrid) != len(is.Z) {
			return fmt.Errorf("transit: isotope %d has %d partition samples for %d temperatures",
				i, len(is.Z), len(is.TempGrid))
		}
	}
	return nil
}

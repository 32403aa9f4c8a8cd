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

package transitutil

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/RSirimanne/transit"
)

// Scenario is the TOML description of one run: the atmosphere, the
// isotope set, the line list, and the wavenumber sampling. It stands in
// for the line-database and atmosphere-file readers of the full pipeline.
type Scenario struct {
	Star struct {
		Radius float64 `toml:"radius"` // [cm]
	} `toml:"star"`

	Grid struct {
		WnInit     float64 `toml:"wn_init"` // [cm⁻¹]
		WnStep     float64 `toml:"wn_step"` // [cm⁻¹]
		WnCount    int     `toml:"wn_count"`
		Oversample int     `toml:"oversample"`
	} `toml:"grid"`

	Atmosphere struct {
		Radius       []float64 `toml:"radius"` // [cm]
		Temp         []float64 `toml:"temp"`   // [K]
		Refractivity []float64 `toml:"refractivity,omitempty"`
	} `toml:"atmosphere"`

	Molecules []struct {
		Name       string    `toml:"name"`
		Mass       float64   `toml:"mass"`        // [amu]
		CollRadius float64   `toml:"coll_radius"` // [cm]
		Density    []float64 `toml:"density"`     // [g/cm³] per layer
	} `toml:"molecule"`

	Isotopes []struct {
		Molecule int       `toml:"molecule"`
		Mass     float64   `toml:"mass"` // [amu]
		Ratio    float64   `toml:"ratio"`
		TempGrid []float64 `toml:"temp_grid"` // [K]
		Z        []float64 `toml:"z"`
	} `toml:"isotope"`

	Lines []struct {
		Wavenumber float64 `toml:"wavenumber"` // [cm⁻¹]
		Elow       float64 `toml:"elow"`       // [cm⁻¹]
		GF         float64 `toml:"gf"`
		Isotope    int     `toml:"isotope"`
	} `toml:"line"`
}

// ReadScenario decodes a TOML scenario file.
func ReadScenario(path string) (*Scenario, error) {
	var s Scenario
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("transitutil: scenario file %s does not exist", path)
		}
		return nil, fmt.Errorf("transitutil: parsing scenario %s: %w", path, err)
	}
	return &s, nil
}

// Build assembles a Transit run from the scenario and the given run
// configuration.
func (s *Scenario) Build(cfg transit.Config) (*transit.Transit, error) {
	atm := &transit.Atmosphere{
		Radius:       s.Atmosphere.Radius,
		Temp:         s.Atmosphere.Temp,
		Refractivity: s.Atmosphere.Refractivity,
	}
	for _, m := range s.Molecules {
		atm.Molecules = append(atm.Molecules, transit.Molecule{
			Name:       m.Name,
			Mass:       m.Mass,
			CollRadius: m.CollRadius,
			Density:    m.Density,
		})
	}
	iso := make([]transit.Isotope, len(s.Isotopes))
	for i, is := range s.Isotopes {
		iso[i] = transit.Isotope{
			Molecule: is.Molecule,
			Mass:     is.Mass,
			Ratio:    is.Ratio,
			TempGrid: is.TempGrid,
			Z:        is.Z,
		}
	}
	lines := make([]transit.Line, len(s.Lines))
	for i, ln := range s.Lines {
		lines[i] = transit.Line{
			Wavenumber: ln.Wavenumber,
			Elow:       ln.Elow,
			GF:         ln.GF,
			Isotope:    ln.Isotope,
		}
	}
	wn, err := transit.NewWavenumberGrid(s.Grid.WnInit, s.Grid.WnStep, s.Grid.WnCount, s.Grid.Oversample)
	if err != nil {
		return nil, err
	}
	if cfg.StarRadius == 0 {
		cfg.StarRadius = s.Star.Radius
	}
	return transit.New(atm, iso, lines, wn, cfg)
}

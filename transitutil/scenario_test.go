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
	"os"
	"path/filepath"
	"testing"

	"github.com/RSirimanne/transit"
)

const testScenario = `
[star]
radius = 7.0e10

[grid]
wn_init = 2000.0
wn_step = 1.0
wn_count = 5
oversample = 4

[atmosphere]
radius = [6.0e9, 6.1e9, 6.2e9, 6.3e9]
temp = [1000.0, 1000.0, 1000.0, 1000.0]

[[molecule]]
name = "H2O"
mass = 18.0
coll_radius = 3.2e-8
density = [1.0e-3, 1.0e-3, 1.0e-3, 1.0e-3]

[[isotope]]
molecule = 0
mass = 18.0
ratio = 1.0
temp_grid = [500.0, 2000.0]
z = [1.0, 1.0]

[[line]]
wavenumber = 2002.0
elow = 0.0
gf = 1.0e4
isotope = 0
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadScenario(t *testing.T) {
	s, err := ReadScenario(writeScenario(t, testScenario))
	if err != nil {
		t.Fatal(err)
	}
	if s.Star.Radius != 7e10 {
		t.Errorf("stellar radius %g, want 7e10", s.Star.Radius)
	}
	if s.Grid.WnCount != 5 || s.Grid.Oversample != 4 {
		t.Errorf("grid %d samples oversampled %d, want 5 and 4", s.Grid.WnCount, s.Grid.Oversample)
	}
	if len(s.Atmosphere.Radius) != 4 || len(s.Molecules) != 1 ||
		len(s.Isotopes) != 1 || len(s.Lines) != 1 {
		t.Errorf("got %d layers, %d molecules, %d isotopes, %d lines",
			len(s.Atmosphere.Radius), len(s.Molecules), len(s.Isotopes), len(s.Lines))
	}
	if s.Molecules[0].Name != "H2O" {
		t.Errorf("molecule name %q", s.Molecules[0].Name)
	}
}

func TestReadScenarioMissing(t *testing.T) {
	if _, err := ReadScenario(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("a missing scenario file should fail")
	}
}

func TestReadScenarioMalformed(t *testing.T) {
	if _, err := ReadScenario(writeScenario(t, "[star\nradius=")); err == nil {
		t.Error("malformed TOML should fail")
	}
}

func TestScenarioBuild(t *testing.T) {
	s, err := ReadScenario(writeScenario(t, testScenario))
	if err != nil {
		t.Fatal(err)
	}
	tr, err := s.Build(transit.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if tr.Cfg.StarRadius != 7e10 {
		t.Errorf("stellar radius not defaulted from the scenario: %g", tr.Cfg.StarRadius)
	}
	if tr.Atm.NLayers() != 4 || len(tr.Lines) != 1 {
		t.Errorf("run has %d layers and %d lines", tr.Atm.NLayers(), len(tr.Lines))
	}

	// The assembled run computes end to end.
	if _, err := tr.ComputeExtinction(); err != nil {
		t.Fatal(err)
	}
	spec, err := tr.Spectrum()
	if err != nil {
		t.Fatal(err)
	}
	if len(spec.Modulation) != 5 {
		t.Errorf("got %d modulation samples, want 5", len(spec.Modulation))
	}

	// An explicit stellar radius wins over the scenario's.
	cfg := transit.DefaultConfig()
	cfg.StarRadius = 1e10
	tr, err = s.Build(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Cfg.StarRadius != 1e10 {
		t.Errorf("stellar radius %g, want the explicit 1e10", tr.Cfg.StarRadius)
	}
}

func TestScenarioBuildInvalid(t *testing.T) {
	s, err := ReadScenario(writeScenario(t, testScenario))
	if err != nil {
		t.Fatal(err)
	}
	s.Atmosphere.Temp = s.Atmosphere.Temp[:2]
	if _, err := s.Build(transit.DefaultConfig()); err == nil {
		t.Error("an inconsistent scenario should fail to build")
	}
}

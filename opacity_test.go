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
	"testing"

	"github.com/ctessum/sparse"
)

// testOpacityTable fills a single-molecule, two-temperature table with a
// constant cross-section per unit density.
func testOpacityTable(atm *Atmosphere, nwn int, xsec float64) *OpacityTable {
	tab := &OpacityTable{
		Molecules: []int{0},
		Temp:      []float64{500, 1500},
		K:         sparse.ZerosDense(1, 2, atm.NLayers(), nwn),
	}
	for i := range tab.K.Elements {
		tab.K.Elements[i] = xsec
	}
	return tab
}

func TestOpacityTableValid(t *testing.T) {
	atm := testAtmosphere(3)
	tab := testOpacityTable(atm, 5, 1)
	if err := tab.Valid(atm, 5); err != nil {
		t.Fatal(err)
	}
	if err := tab.Valid(atm, 6); err == nil {
		t.Error("wavenumber count mismatch should fail")
	}
	if err := tab.Valid(testAtmosphere(4), 5); err == nil {
		t.Error("layer count mismatch should fail")
	}

	bad := testOpacityTable(atm, 5, 1)
	bad.Molecules = []int{2}
	if err := bad.Valid(atm, 5); err == nil {
		t.Error("dangling molecule reference should fail")
	}

	bad = testOpacityTable(atm, 5, 1)
	bad.Temp = []float64{1500, 500}
	if err := bad.Valid(atm, 5); err == nil {
		t.Error("descending temperatures should fail")
	}
}

func TestInterpolateLayerExtinction(t *testing.T) {
	// A table that varies linearly in temperature interpolates exactly.
	atm := testAtmosphere(3) // isothermal at 1000 K
	wn, err := NewWavenumberGrid(2000, 1, 5, 4)
	if err != nil {
		t.Fatal(err)
	}
	tab := testOpacityTable(atm, wn.N, 0)
	// xsec 2 at 500 K, 6 at 1500 K: 4 at the layer temperature.
	for r := 0; r < atm.NLayers(); r++ {
		for i := 0; i < wn.N; i++ {
			tab.K.Set(2, 0, 0, r, i)
			tab.K.Set(6, 0, 1, r, i)
		}
	}
	cfg := DefaultConfig()
	cfg.Opacity = tab
	tr, err := New(atm, nil, nil, wn, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.interpolateLayerExtinction(1); err != nil {
		t.Fatal(err)
	}
	want := atm.Molecules[0].Density[1] * 4
	for i, v := range tr.Ext.Row(1) {
		if different(v, want, testTolerance) {
			t.Errorf("sample %d: got %g, want %g", i, v, want)
		}
	}
}

func TestInterpolateOutsideTableRange(t *testing.T) {
	atm := testAtmosphere(3)
	atm.Temp[1] = 2000 // beyond the table's 1500 K ceiling
	wn, err := NewWavenumberGrid(2000, 1, 5, 4)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Opacity = testOpacityTable(atm, wn.N, 1)
	tr, err := New(atm, nil, nil, wn, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.interpolateLayerExtinction(1); err == nil {
		t.Error("a layer temperature outside the table range should fail")
	}
}

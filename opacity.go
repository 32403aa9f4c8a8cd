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

	"github.com/ctessum/sparse"

	"github.com/RSirimanne/transit/internal/numerics"
)

// OpacityTable is a precomputed opacity grid indexed by molecule,
// temperature sample, radius, and wavenumber. Values are cross-sections
// per unit density; the interpolator weights them by each molecule's
// density at the evaluated layer. Tables are produced externally and
// treated as read-only.
type OpacityTable struct {
	Molecules []int              // indices into Atmosphere.Molecules
	Temp      []float64          // temperature samples [K], ascending
	K         *sparse.DenseArray // [molecule][temperature][radius][wavenumber]
}

// Valid checks the table dimensions against the run's atmosphere and
// wavenumber grid.
func (t *OpacityTable) Valid(atm *Atmosphere, nwn int) error {
	if len(t.Molecules) == 0 || len(t.Temp) < 2 {
		return fmt.Errorf("transit: opacity table needs at least 1 molecule and 2 temperature samples, got %d and %d",
			len(t.Molecules), len(t.Temp))
	}
	want := []int{len(t.Molecules), len(t.Temp), atm.NLayers(), nwn}
	if len(t.K.Shape) != 4 {
		return fmt.Errorf("transit: opacity table has %d dimensions, want 4", len(t.K.Shape))
	}
	for d, n := range want {
		if t.K.Shape[d] != n {
			return fmt.Errorf("transit: opacity table dimension %d is %d, want %d", d, t.K.Shape[d], n)
		}
	}
	for _, m := range t.Molecules {
		if m < 0 || m >= len(atm.Molecules) {
			return fmt.Errorf("transit: opacity table references molecule %d of %d", m, len(atm.Molecules))
		}
	}
	for i := 1; i < len(t.Temp); i++ {
		if t.Temp[i] <= t.Temp[i-1] {
			return fmt.Errorf("transit: opacity table temperatures not ascending at index %d (%g K)", i, t.Temp[i])
		}
	}
	return nil
}

// interpolateLayerExtinction fills extinction row r from the precomputed
// opacity table, interpolating each molecule's contribution linearly in
// temperature and weighting it by the molecule's density at the layer.
func (tr *Transit) interpolateLayerExtinction(r int) error {
	tab := tr.Cfg.Opacity
	temp := tr.Atm.Temp[r]
	nt := len(tab.Temp)
	if temp < tab.Temp[0] || temp > tab.Temp[nt-1] {
		return fmt.Errorf("transit: layer %d temperature %g K outside opacity table range [%g, %g] K",
			r, temp, tab.Temp[0], tab.Temp[nt-1])
	}

	itemp := numerics.NearestIndex(tab.Temp, temp)
	if temp < tab.Temp[itemp] {
		itemp--
	}
	if itemp > nt-2 {
		itemp = nt - 2
	}
	tlo, thi := tab.Temp[itemp], tab.Temp[itemp+1]

	nwn := tr.WN.N
	row := make([]float64, nwn)
	for m, im := range tab.Molecules {
		dens := tr.Atm.Molecules[im].Density[r]
		if dens == 0 {
			continue
		}
		for i := 0; i < nwn; i++ {
			ext := (tab.K.Get(m, itemp, r, i)*(thi-temp) +
				tab.K.Get(m, itemp+1, r, i)*(temp-tlo)) / (thi - tlo)
			row[i] += dens * ext
		}
	}
	tr.Ext.SetRow(r, row)
	return nil
}

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
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

// descendingRays returns n impact parameters from hi down to lo.
func descendingRays(hi, lo float64, n int) []float64 {
	b := make([]float64, n)
	for i := range b {
		b[i] = hi - (hi-lo)*float64(i)/float64(n-1)
	}
	return b
}

func TestModulationTransparent(t *testing.T) {
	// A fully transparent atmosphere blocks only the opaque core below
	// the deepest sampled ray.
	const starRad = 7e10
	b := descendingRays(1e9, 1e8, 50)
	tau := make([]float64, len(b))
	m, err := modulation(tau, b, len(b)-1, 20, starRad)
	if err != nil {
		t.Fatal(err)
	}
	bmin := b[len(b)-1]
	want := 1 - bmin*bmin/(starRad*starRad)
	if different(m, want, 1e-6) {
		t.Errorf("got %g, want %g", m, want)
	}
}

func TestModulationOpaqueDisk(t *testing.T) {
	// When the outermost ray already saturates, the planet is an opaque
	// disk of its outer radius: the modulation approaches 1-(Rp/Rs)².
	const starRad, planetRad = 7e10, 1e9
	b := descendingRays(planetRad, 0.8e9, 3)
	tau := []float64{30, 0, 0} // deeper values never computed
	m, err := modulation(tau, b, 0, 20, starRad)
	if err != nil {
		t.Fatal(err)
	}
	want := 1 - planetRad*planetRad/(starRad*starRad)
	if math.Abs(m-want) > 1e-6 {
		t.Errorf("got %g, want %g", m, want)
	}
}

func TestModulationMonotone(t *testing.T) {
	// More absorption can only deepen the transit.
	const starRad = 7e10
	b := descendingRays(1e9, 1e8, 30)
	prev := math.Inf(1)
	for _, scale := range []float64{0, 0.1, 1, 10} {
		tau := make([]float64, len(b))
		for i := range tau {
			tau[i] = scale * (1 - b[i]/1e9) // deeper rays absorb more
		}
		m, err := modulation(tau, b, len(b)-1, 1e10, starRad)
		if err != nil {
			t.Fatal(err)
		}
		if m > prev {
			t.Errorf("scale %g: modulation %g rose above %g", scale, m, prev)
		}
		if m > 1 || m < 0 {
			t.Errorf("scale %g: modulation %g outside [0, 1]", scale, m)
		}
		prev = m
	}
}

func TestModulationInsufficientSamples(t *testing.T) {
	b := []float64{2e9, 1e9}
	tau := []float64{0, 0}
	if _, err := modulation(tau, b, 1, 20, 7e10); !errors.Is(err, ErrInsufficientSamples) {
		t.Errorf("got %v, want ErrInsufficientSamples", err)
	}
	if _, err := modulation(tau, b, 5, 20, 7e10); !errors.Is(err, ErrInsufficientSamples) {
		t.Errorf("out-of-range last index: got %v, want ErrInsufficientSamples", err)
	}
}

func TestModulationSpectrumWriteTo(t *testing.T) {
	spec := &ModulationSpectrum{
		Wavenumber: []float64{2000, 2001},
		Modulation: []float64{0.9991, 0.9987},
	}
	var buf bytes.Buffer
	n, err := spec.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[0], "#") {
		t.Errorf("missing header comment: %q", lines[0])
	}
	if !strings.Contains(lines[1], "2000") || !strings.Contains(lines[1], "0.9991") {
		t.Errorf("unexpected first record %q", lines[1])
	}
}

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
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func testGrid(t *testing.T, nrad, nwn int) *ExtinctionGrid {
	t.Helper()
	g, err := NewExtinctionGrid(nrad, nwn)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestCheckpointRoundTrip(t *testing.T) {
	g := testGrid(t, 3, 4)
	for r := 0; r < 2; r++ { // leave the last row uncomputed
		row := make([]float64, 4)
		for i := range row {
			row[i] = math.Pi * float64(r*4+i+1)
		}
		g.SetRow(r, row)
	}
	path := filepath.Join(t.TempDir(), "extinction.chk")
	if err := SaveCheckpoint(path, g, 2); err != nil {
		t.Fatal(err)
	}

	restored := testGrid(t, 3, 4)
	if err := RestoreCheckpoint(path, restored, 2); err != nil {
		t.Fatal(err)
	}
	for r := 0; r < 3; r++ {
		if restored.Computed(r) != g.Computed(r) {
			t.Errorf("layer %d: computed flag %v, want %v", r, restored.Computed(r), g.Computed(r))
		}
		a, b := g.Row(r), restored.Row(r)
		for i := range a {
			if a[i] != b[i] {
				t.Errorf("layer %d sample %d: restored %g, want %g bit for bit", r, i, b[i], a[i])
			}
		}
	}
}

func TestRestoreCheckpointMissing(t *testing.T) {
	g := testGrid(t, 2, 3)
	err := RestoreCheckpoint(filepath.Join(t.TempDir(), "nope.chk"), g, 1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRestoreCheckpointCorrupt(t *testing.T) {
	dir := t.TempDir()

	// Garbage bytes.
	bad := filepath.Join(dir, "garbage.chk")
	if err := os.WriteFile(bad, []byte("not a checkpoint at all"), 0644); err != nil {
		t.Fatal(err)
	}
	g := testGrid(t, 2, 3)
	if err := RestoreCheckpoint(bad, g, 1); !errors.Is(err, ErrCorruptFormat) {
		t.Errorf("garbage: got %v, want ErrCorruptFormat", err)
	}

	// Valid file restored against mismatched run dimensions.
	good := filepath.Join(dir, "good.chk")
	if err := SaveCheckpoint(good, g, 1); err != nil {
		t.Fatal(err)
	}
	if err := RestoreCheckpoint(good, testGrid(t, 3, 3), 1); !errors.Is(err, ErrCorruptFormat) {
		t.Errorf("radius mismatch: got %v, want ErrCorruptFormat", err)
	}
	if err := RestoreCheckpoint(good, testGrid(t, 2, 3), 2); !errors.Is(err, ErrCorruptFormat) {
		t.Errorf("isotope mismatch: got %v, want ErrCorruptFormat", err)
	}

	// Truncated file.
	data, err := os.ReadFile(good)
	if err != nil {
		t.Fatal(err)
	}
	short := filepath.Join(dir, "short.chk")
	if err := os.WriteFile(short, data[:len(data)-10], 0644); err != nil {
		t.Fatal(err)
	}
	if err := RestoreCheckpoint(short, testGrid(t, 2, 3), 1); !errors.Is(err, ErrCorruptFormat) {
		t.Errorf("truncated: got %v, want ErrCorruptFormat", err)
	}
}

func TestRestoreCheckpointLeavesGridUntouched(t *testing.T) {
	g := testGrid(t, 2, 3)
	g.SetRow(0, []float64{1, 2, 3})

	bad := filepath.Join(t.TempDir(), "bad.chk")
	if err := os.WriteFile(bad, []byte("@E@S@ and then junk"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := RestoreCheckpoint(bad, g, 1); !errors.Is(err, ErrCorruptFormat) {
		t.Fatalf("got %v, want ErrCorruptFormat", err)
	}
	row := g.Row(0)
	if row[0] != 1 || row[1] != 2 || row[2] != 3 || !g.Computed(0) {
		t.Error("a failed restore must not modify the grid")
	}
}

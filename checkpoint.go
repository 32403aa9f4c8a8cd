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
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Checkpoint file layout, little endian, no padding:
//
//	5-byte magic "@E@S@"
//	int64 radius count, int16 isotope count, int64 wavenumber count
//	nRadii×nWavenumbers float64 extinction values, row major
//	nRadii bytes of computed flags
//
// Restore refuses files whose magic or dimensions disagree with the
// caller's run rather than partially loading them.
const checkpointMagic = "@E@S@"

// Plausibility bounds on restored dimensions.
const (
	maxCheckpointIso  = 10000
	maxCheckpointSize = 10000000
)

// SaveCheckpoint writes the extinction grid and its computed flags to
// path so a long run can be resumed.
func SaveCheckpoint(path string, g *ExtinctionGrid, niso int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("transit: creating checkpoint %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := writeCheckpoint(w, g, niso); err != nil {
		f.Close()
		return fmt.Errorf("transit: writing checkpoint %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("transit: writing checkpoint %s: %w", path, err)
	}
	return f.Close()
}

func writeCheckpoint(w io.Writer, g *ExtinctionGrid, niso int) error {
	g.mx.RLock()
	defer g.mx.RUnlock()
	if _, err := w.Write([]byte(checkpointMagic)); err != nil {
		return err
	}
	hdr := []interface{}{
		int64(g.K.Shape[0]), int16(niso), int64(g.K.Shape[1]),
	}
	for _, v := range hdr {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, g.K.Elements); err != nil {
		return err
	}
	flags := make([]byte, len(g.computed))
	for i, c := range g.computed {
		if c {
			flags[i] = 1
		}
	}
	_, err := w.Write(flags)
	return err
}

// RestoreCheckpoint loads a previously saved extinction grid from path
// into g. A missing file returns ErrNotFound, which callers treat as
// "start from scratch"; a malformed or mismatched file returns
// ErrCorruptFormat without modifying g.
func RestoreCheckpoint(path string, g *ExtinctionGrid, niso int) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("transit: checkpoint %s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("transit: opening checkpoint %s: %w", path, err)
	}
	defer f.Close()
	if err := readCheckpoint(bufio.NewReader(f), g, niso); err != nil {
		return fmt.Errorf("transit: checkpoint %s: %w", path, err)
	}
	return nil
}

func readCheckpoint(r io.Reader, g *ExtinctionGrid, niso int) error {
	magic := make([]byte, len(checkpointMagic))
	if _, err := io.ReadFull(r, magic); err != nil || !bytes.Equal(magic, []byte(checkpointMagic)) {
		return fmt.Errorf("bad magic tag %q: %w", magic, ErrCorruptFormat)
	}
	var (
		nrad, nwn int64
		ni        int16
	)
	for _, v := range []interface{}{&nrad, &ni, &nwn} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("truncated header: %w", ErrCorruptFormat)
		}
	}
	if int(ni) > maxCheckpointIso || nrad > maxCheckpointSize || nwn > maxCheckpointSize ||
		int(nrad) != g.K.Shape[0] || int(nwn) != g.K.Shape[1] || int(ni) != niso {
		return fmt.Errorf("dimensions %d radii × %d isotopes × %d wavenumbers do not match run (%d × %d × %d): %w",
			nrad, ni, nwn, g.K.Shape[0], niso, g.K.Shape[1], ErrCorruptFormat)
	}

	ext := make([]float64, nrad*nwn)
	if err := binary.Read(r, binary.LittleEndian, ext); err != nil {
		return fmt.Errorf("truncated extinction array: %w", ErrCorruptFormat)
	}
	flags := make([]byte, nrad)
	if _, err := io.ReadFull(r, flags); err != nil {
		return fmt.Errorf("truncated computed flags: %w", ErrCorruptFormat)
	}

	g.mx.Lock()
	defer g.mx.Unlock()
	copy(g.K.Elements, ext)
	for i, b := range flags {
		g.computed[i] = b != 0
	}
	return nil
}

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

import "errors"

// Error categories used throughout the package. Callers should test for
// them with errors.Is; the wrapped messages carry the physical quantities
// (temperatures, widths, radius bounds) that triggered the failure.
var (
	// ErrInvalidWidth indicates a Doppler/Lorentz width pair that implies
	// a non-positive Voigt profile size.
	ErrInvalidWidth = errors.New("invalid line width")

	// ErrAllocation indicates a grid or buffer dimension that cannot be
	// allocated (non-positive or implausibly large).
	ErrAllocation = errors.New("cannot allocate grid")

	// ErrConvergence indicates that the bent-ray tangent-radius iteration
	// exceeded its iteration cap.
	ErrConvergence = errors.New("tangent-radius iteration did not converge")

	// ErrInsufficientSamples indicates fewer than three usable points for
	// an integration that requires spline support.
	ErrInsufficientSamples = errors.New("insufficient samples for integration")

	// ErrCorruptFormat indicates a checkpoint file whose magic tag or
	// dimensions do not match what the caller expects.
	ErrCorruptFormat = errors.New("corrupt checkpoint format")

	// ErrNotFound indicates a missing checkpoint file. Callers treat it as
	// a soft failure and start from scratch.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrRange indicates a tangent radius below the sampled radius range.
	// A tangent radius beyond the outer sampled radius is not an error;
	// such rays contribute zero optical depth.
	ErrRange = errors.New("tangent radius outside sampled range")
)

/*
Copyright © 2026 the wrfoptics authors.
This file is part of wrfoptics.

wrfoptics is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

wrfoptics is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with wrfoptics.  If not, see <http://www.gnu.org/licenses/>.
*/

package wrfoptics

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// Snapshot holds the WRF-Chem fields for a single time step.
// 3-D fields are dimensioned [bottom_top, south_north, west_east] and
// XLAT and XLONG are dimensioned [south_north, west_east].
// A Snapshot must not be modified after it is created.
type Snapshot struct {
	// TimeIndex is the index of the time step in the source file.
	TimeIndex int

	// Time is the WRF time string, e.g. "2020-07-01_00:00:00".
	Time string

	fields map[string]*sparse.DenseArray
	shape  []int
}

// NewSnapshot creates a new snapshot from the given fields, checking that
// all fields required for the given bins are present and that they
// share a grid.
func NewSnapshot(timeIndex int, timeStr string, fields map[string]*sparse.DenseArray, bins []Bin) (*Snapshot, error) {
	grid := thermoVars[:]
	for _, b := range bins {
		grid = append(grid, b.NumVar(), b.OinVar())
	}
	var missing []string
	for _, name := range append(grid, "XLAT", "XLONG") {
		if fields[name] == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &StructuralMismatchError{Source: "snapshot", What: "variables", Missing: missing}
	}

	shape := fields[grid[0]].Shape
	if len(shape) != 3 {
		return nil, fmt.Errorf("wrfoptics: snapshot field %s has %d dimensions but should have 3", grid[0], len(shape))
	}
	for _, name := range grid[1:] {
		if !sameShape(fields[name].Shape, shape) {
			return nil, fmt.Errorf("wrfoptics: snapshot field %s has shape %v but should have %v",
				name, fields[name].Shape, shape)
		}
	}
	for _, name := range []string{"XLAT", "XLONG"} {
		if !sameShape(fields[name].Shape, shape[1:]) {
			return nil, fmt.Errorf("wrfoptics: snapshot field %s has shape %v but should have %v",
				name, fields[name].Shape, shape[1:])
		}
	}

	s := &Snapshot{
		TimeIndex: timeIndex,
		Time:      timeStr,
		fields:    make(map[string]*sparse.DenseArray, len(fields)),
		shape:     append([]int(nil), shape...),
	}
	for name, f := range fields {
		s.fields[name] = f
	}
	return s, nil
}

// Get returns the named field, or nil if it is not in the snapshot.
// The returned array must not be modified.
func (s *Snapshot) Get(name string) *sparse.DenseArray { return s.fields[name] }

// Shape returns a copy of the 3-D grid shape.
func (s *Snapshot) Shape() []int { return append([]int(nil), s.shape...) }

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

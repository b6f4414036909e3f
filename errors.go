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
	"errors"
	"fmt"
	"strings"
)

// ErrNoSelection is returned when a time filter leaves no time steps
// to process.
var ErrNoSelection = errors.New("wrfoptics: no time steps selected from WRF dataset")

// NotFoundError is returned when an input file does not exist.
type NotFoundError struct {
	// Kind is the kind of input, e.g. "WRF" or "LUT".
	Kind string
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("wrfoptics: %s file not found: %s", e.Kind, e.Path)
}

// StructuralMismatchError is returned when an input lacks required
// variables or dimensions.
type StructuralMismatchError struct {
	// Source is the input being checked, e.g. "WRF", "LUT" or "snapshot".
	Source string
	// What is the kind of the missing names, e.g. "variables" or "dims".
	What    string
	Missing []string
}

func (e *StructuralMismatchError) Error() string {
	return fmt.Sprintf("wrfoptics: %s missing required %s: [%s]",
		e.Source, e.What, strings.Join(e.Missing, ", "))
}

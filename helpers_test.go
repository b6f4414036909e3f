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
	"math"
	"testing"

	"github.com/ctessum/sparse"
)

const testTolerance = 1e-6

func different(a, b, tolerance float64) bool {
	if a == b {
		return false
	}
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

// testSnapshot creates a snapshot with the default bins where every
// 3-D field is filled by value.
func testSnapshot(t *testing.T, nz, ny, nx int, value func(name string, i int) float64) *Snapshot {
	t.Helper()
	fields := make(map[string]*sparse.DenseArray)
	for _, name := range RequiredWRFVars(DefaultBins()) {
		switch name {
		case "Times":
			continue
		case "XLAT", "XLONG":
			a := sparse.ZerosDense(ny, nx)
			for i := range a.Elements {
				a.Elements[i] = float64(i)
			}
			fields[name] = a
		default:
			a := sparse.ZerosDense(nz, ny, nx)
			for i := range a.Elements {
				a.Elements[i] = value(name, i)
			}
			fields[name] = a
		}
	}
	s, err := NewSnapshot(0, "2020-07-01_00:00:00", fields, DefaultBins())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// referenceValue gives a dry air density of 1.2 kg/m3 and a number
// mixing ratio of 1 #/kg in each bin.
func referenceValue(name string, i int) float64 {
	switch name {
	case "T":
		return p0/(rd*1.2) - baseTheta
	case "P":
		return p0
	case "PB", "QVAPOR":
		return 0
	}
	if len(name) > 4 && name[:4] == "num_" {
		return 1
	}
	return 0
}

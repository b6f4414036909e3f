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
	"math"
	"testing"

	"github.com/spatialmodel/wrfoptics/internal/fixture"
)

type constTable CrossSections

func (c constTable) Lookup(LookupQuery) (CrossSections, error) { return CrossSections(c), nil }

type errTable struct{}

var errLookup = errors.New("lookup failed")

func (errTable) Lookup(LookupQuery) (CrossSections, error) { return CrossSections{}, errLookup }

func TestCompute(t *testing.T) {
	s := testSnapshot(t, 2, 3, 4, referenceValue)
	table := constTable{Ext: 1e-12, BackPar: 4e-13, BackPerp: 8e-14}
	f, err := DefaultCompositor().Compute(s, table, 532)
	if err != nil {
		t.Fatal(err)
	}
	if f.ShapeClass != Smoke {
		t.Errorf("shape class: have %s", f.ShapeClass)
	}
	// 4 bins × 1 #/kg × 1.2 kg/m3 = 4.8 #/m3.
	want := map[string]float64{
		"alpha_ext":  4.8e-12,
		"beta_par":   4.8 * 4e-13,
		"beta_perp":  4.8 * 8e-14,
		"beta_total": 4.8 * 4.8e-13,
		"LR":         1e-12 / 4.8e-13,
		"LDR":        0.2,
	}
	for name, data := range f.Variables() {
		if len(data.Elements) != 24 {
			t.Fatalf("%s: have %d elements", name, len(data.Elements))
		}
		for i, v := range data.Elements {
			if different(v, want[name], testTolerance) {
				t.Errorf("%s[%d]: have %g, want %g", name, i, v, want[name])
			}
		}
	}
}

func TestComputeOneBin(t *testing.T) {
	s := testSnapshot(t, 1, 1, 1, referenceValue)
	c := DefaultCompositor()
	c.Bins = c.Bins[:1]
	f, err := c.Compute(s, constTable{Ext: 1e-12, BackPar: 4e-13, BackPerp: 8e-14}, 532)
	if err != nil {
		t.Fatal(err)
	}
	if different(f.AlphaExt.Elements[0], 1.2e-12, testTolerance) {
		t.Errorf("alpha_ext: have %g, want 1.2e-12", f.AlphaExt.Elements[0])
	}
	if different(f.LR.Elements[0], 1.0/0.48, testTolerance) {
		t.Errorf("LR: have %g, want %g", f.LR.Elements[0], 1.0/0.48)
	}
}

func TestComputeSmallDenominator(t *testing.T) {
	s := testSnapshot(t, 1, 2, 2, func(name string, i int) float64 {
		if len(name) > 4 && name[:4] == "num_" && i == 3 {
			return 0
		}
		return referenceValue(name, i)
	})
	f, err := DefaultCompositor().Compute(s, constTable{Ext: 1e-12, BackPar: 4e-13, BackPerp: 8e-14}, 532)
	if err != nil {
		t.Fatal(err)
	}
	if f.AlphaExt.Elements[3] != 0 {
		t.Errorf("alpha_ext: have %g, want 0", f.AlphaExt.Elements[3])
	}
	if !math.IsNaN(f.LR.Elements[3]) || !math.IsNaN(f.LDR.Elements[3]) {
		t.Errorf("have LR=%g LDR=%g, want NaN", f.LR.Elements[3], f.LDR.Elements[3])
	}
	if math.IsNaN(f.LR.Elements[0]) {
		t.Error("LR is NaN in a cell with particles")
	}
}

// The result should not depend on the order of the bins.
func TestComputeBinOrder(t *testing.T) {
	s := testSnapshot(t, 2, 2, 2, func(name string, i int) float64 {
		if len(name) > 4 && name[:4] == "num_" {
			return float64(i+1) * float64(name[6]-'0')
		}
		return referenceValue(name, i)
	})
	table := reffTable{}
	c1 := DefaultCompositor()
	f1, err := c1.Compute(s, table, 532)
	if err != nil {
		t.Fatal(err)
	}
	c2 := DefaultCompositor()
	for i, j := 0, len(c2.Bins)-1; i < j; i, j = i+1, j-1 {
		c2.Bins[i], c2.Bins[j] = c2.Bins[j], c2.Bins[i]
	}
	f2, err := c2.Compute(s, table, 532)
	if err != nil {
		t.Fatal(err)
	}
	v2 := f2.Variables()
	for name, data := range f1.Variables() {
		for i, v := range data.Elements {
			if different(v, v2[name].Elements[i], 1e-12) {
				t.Errorf("%s[%d]: %g != %g", name, i, v, v2[name].Elements[i])
			}
		}
	}
}

type reffTable struct{}

func (reffTable) Lookup(q LookupQuery) (CrossSections, error) {
	return CrossSections{Ext: q.ReffUM * 1e-12, BackPar: q.ReffUM * 1e-13, BackPerp: q.ReffUM * q.ReffUM * 1e-14}, nil
}

func TestComputeLookupError(t *testing.T) {
	s := testSnapshot(t, 1, 1, 1, referenceValue)
	_, err := DefaultCompositor().Compute(s, errTable{}, 532)
	if !errors.Is(err, errLookup) {
		t.Errorf("have %v, want %v", err, errLookup)
	}
}

func TestComputeLUT(t *testing.T) {
	s := testSnapshot(t, 1, 1, 2, referenceValue)
	lut := writeTestLUT(t, testLUT())
	f, err := DefaultCompositor().Compute(s, lut, 532)
	if err != nil {
		t.Fatal(err)
	}
	// Sum over bins of the encoded table index times the number density.
	want := 1.2 * (110110 + 111110 + 112110 + 113110)
	if different(f.AlphaExt.Elements[1], want, testTolerance) {
		t.Errorf("have %g, want %g", f.AlphaExt.Elements[1], want)
	}
}

// A single-point table and a snapshot with only the first bin populated.
func TestComputeSinglePointTable(t *testing.T) {
	l := &fixture.LUT{
		Wavelength: []float64{532},
		RH:         []float64{50},
		Reff:       []float64{0.039},
		MReal:      []float64{1.53},
		MImag:      []float64{0.01},
		ShapeCodes: []float64{0},
		Value: func(name string, _ map[string]int) float64 {
			switch name {
			case "Cext_m2":
				return 1e-12
			case "Cback_par_m2":
				return 5e-13
			case "Cback_perp_m2":
				return 1e-13
			}
			return 0
		},
	}
	lut := writeTestLUT(t, l)
	s := testSnapshot(t, 1, 1, 1, func(name string, i int) float64 {
		if len(name) > 4 && name[:4] == "num_" && name != "num_a01" {
			return 0
		}
		return referenceValue(name, i)
	})
	f, err := DefaultCompositor().Compute(s, lut, 532)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]float64{
		"alpha_ext":  1.2e-12,
		"beta_par":   6e-13,
		"beta_perp":  1.2e-13,
		"beta_total": 7.2e-13,
		"LR":         1.0 / 0.6,
		"LDR":        0.2,
	}
	for name, data := range f.Variables() {
		if different(data.Elements[0], want[name], testTolerance) {
			t.Errorf("%s: have %g, want %g", name, data.Elements[0], want[name])
		}
	}
	if math.Abs(f.LR.Elements[0]-1.667) > 1e-3 {
		t.Errorf("LR: have %g, want about 1.667", f.LR.Elements[0])
	}
}

func TestRatioFloor(t *testing.T) {
	if r := ratio(1, denomFloor); !math.IsNaN(r) {
		t.Errorf("at floor: have %g, want NaN", r)
	}
	if r := ratio(1, -1); !math.IsNaN(r) {
		t.Errorf("negative: have %g, want NaN", r)
	}
	above := math.Nextafter(denomFloor, 1)
	if r := ratio(1, above); math.IsNaN(r) || math.IsInf(r, 0) {
		t.Errorf("above floor: have %g, want finite", r)
	}
}

// LR and LDR are NaN exactly where their denominators are at or below
// the floor.
func TestComputeRatioFloor(t *testing.T) {
	scale := []float64{0.5, 1, 1.0000001, 2}
	s := testSnapshot(t, 1, 2, 2, func(name string, i int) float64 {
		if name == "num_a01" {
			return scale[i] / 1.2
		}
		if len(name) > 4 && name[:4] == "num_" {
			return 0
		}
		return referenceValue(name, i)
	})
	f, err := DefaultCompositor().Compute(s, constTable{Ext: 1, BackPar: denomFloor}, 532)
	if err != nil {
		t.Fatal(err)
	}
	var nNaN, nFinite int
	for i, bt := range f.BetaTotal.Elements {
		if math.IsNaN(f.LR.Elements[i]) != (bt <= denomFloor) {
			t.Errorf("cell %d: beta_total %g gives LR %g", i, bt, f.LR.Elements[i])
		}
		if math.IsNaN(f.LDR.Elements[i]) != (f.BetaPar.Elements[i] <= denomFloor) {
			t.Errorf("cell %d: beta_par %g gives LDR %g", i, f.BetaPar.Elements[i], f.LDR.Elements[i])
		}
		if math.IsNaN(f.LR.Elements[i]) {
			nNaN++
		} else {
			nFinite++
		}
	}
	if !math.IsNaN(f.LR.Elements[0]) || math.IsNaN(f.LR.Elements[3]) {
		t.Errorf("have LR %v", f.LR.Elements)
	}
	if nNaN == 0 || nFinite == 0 {
		t.Errorf("have %d NaN and %d finite cells", nNaN, nFinite)
	}
}

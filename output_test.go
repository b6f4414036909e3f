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
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/kr/pretty"
)

func TestOutputFileName(t *testing.T) {
	got := OutputFileName("2020-07-01_06:00:00")
	want := "optics_lut_product_d01_2020-07-01_06-00-00.nc"
	if got != want {
		t.Errorf("have %s, want %s", got, want)
	}
}

func TestWriteLoadOptics(t *testing.T) {
	s := testSnapshot(t, 2, 3, 4, func(name string, i int) float64 {
		if len(name) > 4 && name[:4] == "num_" && i == 0 {
			return 0
		}
		return referenceValue(name, i)
	})
	f, err := DefaultCompositor().Compute(s, constTable{Ext: 1e-12, BackPar: 4e-13, BackPerp: 8e-14}, 532)
	if err != nil {
		t.Fatal(err)
	}
	f.TimeIndex = 7
	extra := map[string]*sparse.DenseArray{"alpha_km": sparse.ZerosDense(2, 3, 4)}
	for i := range extra["alpha_km"].Elements {
		extra["alpha_km"].Elements[i] = float64(i) + 1e-9
	}
	meta := DefaultMetadata(532)
	meta.GeneratedUTC = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	path := filepath.Join(t.TempDir(), OutputFileName(f.Time))
	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err = f.Write(w, meta, extra); err != nil {
		t.Fatal(err)
	}
	w.Close()

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	f2, meta2, extra2, err := LoadOptics(r)
	if err != nil {
		t.Fatal(err)
	}
	if !meta2.GeneratedUTC.Equal(meta.GeneratedUTC) {
		t.Errorf("generated: have %v, want %v", meta2.GeneratedUTC, meta.GeneratedUTC)
	}
	meta2.GeneratedUTC = meta.GeneratedUTC
	if diff := pretty.Diff(meta2, meta); len(diff) > 0 {
		t.Errorf("metadata: %v", diff)
	}
	if f2.Time != f.Time || f2.TimeIndex != 7 || f2.ShapeClass != f.ShapeClass {
		t.Errorf("have time %s index %d shape %s", f2.Time, f2.TimeIndex, f2.ShapeClass)
	}
	v2 := f2.Variables()
	for name, data := range f.Variables() {
		for i, v := range data.Elements {
			v2i := v2[name].Elements[i]
			if math.IsNaN(v) != math.IsNaN(v2i) || !math.IsNaN(v) && v != v2i {
				t.Errorf("%s[%d]: have %g, want %g", name, i, v2i, v)
			}
		}
	}
	if len(extra2) != 1 || extra2["alpha_km"].Elements[23] != 23+1e-9 {
		t.Errorf("extra: have %v", extra2)
	}

	// Check the header directly.
	ff, err := cdf.Open(r)
	if err != nil {
		t.Fatal(err)
	}
	if u := ff.Header.GetAttribute("beta_par", "units"); u != "m-1 sr-1" {
		t.Errorf("beta_par units: have %v", u)
	}
	for _, v := range []string{"XLAT", "alpha_ext", "LDR", "alpha_km"} {
		if z := ff.Reader(v, nil, nil).Zero(1); reflect.TypeOf(z) != reflect.TypeOf([]float64{}) {
			t.Errorf("%s: have type %T, want []float64", v, z)
		}
	}
	if u := ff.Header.GetAttribute("alpha_km", "units"); u != "-" {
		t.Errorf("alpha_km units: have %v", u)
	}
	if g := ff.Header.GetAttribute("", "generated_utc"); g != "2026-01-02T03:04:05Z" {
		t.Errorf("generated_utc: have %v", g)
	}
	if lat := ff.Header.GetAttribute("", "geospatial_lat_max"); lat.([]float64)[0] != 11 {
		t.Errorf("geospatial_lat_max: have %v", lat)
	}
	fi, err := r.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if n := ff.Header.NumRecs(fi.Size()); n != 1 {
		t.Errorf("have %d records, want 1", n)
	}
}

func TestWriteDuplicateName(t *testing.T) {
	s := testSnapshot(t, 1, 1, 1, referenceValue)
	f, err := DefaultCompositor().Compute(s, constTable{Ext: 1}, 532)
	if err != nil {
		t.Fatal(err)
	}
	w, err := os.Create(filepath.Join(t.TempDir(), "out.nc"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	err = f.Write(w, DefaultMetadata(532), map[string]*sparse.DenseArray{"LR": f.LR})
	if err == nil {
		t.Error("expected an error for a duplicate variable name")
	}
}

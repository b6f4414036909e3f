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
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

const (
	dateStrLen      = 19
	generatedFormat = "2006-01-02T15:04:05Z"
)

// OutputFileName returns the name of the output file for the time step
// with the given WRF time string.
func OutputFileName(timeStr string) string {
	return "optics_lut_product_d01_" + strings.Replace(timeStr, ":", "-", -1) + ".nc"
}

// Metadata is descriptive information stored with each output file.
type Metadata struct {
	SourceCase   string
	Method       string
	WavelengthNM float64
	LUTVersion   string

	// GeneratedUTC is the time the file was created. If it is zero,
	// the current time is used.
	GeneratedUTC time.Time
}

// DefaultMetadata returns the default metadata for the given wavelength.
func DefaultMetadata(wavelengthNM float64) Metadata {
	return Metadata{
		SourceCase:   "wrfchem_20200701_20200702_d01",
		Method:       "wrfout_to_ddscat_lut_postprocess_v1_skeleton",
		WavelengthNM: wavelengthNM,
		LUTVersion:   "set-in-real-run",
	}
}

// Write writes f to w as a NetCDF file with a single record along the
// Time dimension. extra holds any additional 3-D variables to write,
// which are given units "-".
func (f *OpticsField) Write(w *os.File, meta Metadata, extra map[string]*sparse.DenseArray) error {
	if err := checkRatioUnits(); err != nil {
		return err
	}
	if len(f.AlphaExt.Shape) != 3 {
		return fmt.Errorf("wrfoptics: writing optics: alpha_ext has %d dims but should have 3", len(f.AlphaExt.Shape))
	}
	nz, ny, nx := f.AlphaExt.Shape[0], f.AlphaExt.Shape[1], f.AlphaExt.Shape[2]
	h := cdf.NewHeader(
		[]string{"Time", "bottom_top", "south_north", "west_east", "DateStrLen"},
		[]int{0, nz, ny, nx, dateStrLen})

	generated := meta.GeneratedUTC
	if generated.IsZero() {
		generated = time.Now()
	}
	h.AddAttribute("", "source_case", meta.SourceCase)
	h.AddAttribute("", "method", meta.Method)
	h.AddAttribute("", "wavelength_nm", []float64{meta.WavelengthNM})
	h.AddAttribute("", "lut_version", meta.LUTVersion)
	h.AddAttribute("", "generated_utc", generated.UTC().Format(generatedFormat))
	h.AddAttribute("", "shape_class", string(f.ShapeClass))
	if b := latLonBounds(f.XLAT, f.XLONG); b != nil {
		h.AddAttribute("", "geospatial_lat_min", []float64{b.Min.Y})
		h.AddAttribute("", "geospatial_lat_max", []float64{b.Max.Y})
		h.AddAttribute("", "geospatial_lon_min", []float64{b.Min.X})
		h.AddAttribute("", "geospatial_lon_max", []float64{b.Max.X})
	}

	h.AddVariable("Time", []string{"Time"}, []int32{0})
	h.AddAttribute("Time", "description", "Time index in the source file")
	h.AddVariable("Times", []string{"Time", "DateStrLen"}, "")
	h.AddVariable("XLAT", []string{"Time", "south_north", "west_east"}, []float64{0})
	h.AddAttribute("XLAT", "description", "Latitude")
	h.AddAttribute("XLAT", "units", "degree_north")
	h.AddVariable("XLONG", []string{"Time", "south_north", "west_east"}, []float64{0})
	h.AddAttribute("XLONG", "description", "Longitude")
	h.AddAttribute("XLONG", "units", "degree_east")

	dims3 := []string{"Time", "bottom_top", "south_north", "west_east"}
	vars := f.Variables()
	for _, v := range OutputVars() {
		h.AddVariable(v.Name, dims3, []float64{0})
		h.AddAttribute(v.Name, "description", v.Description)
		h.AddAttribute(v.Name, "units", v.Units())
	}
	// Sort the names so they write in the same order every time.
	extraNames := make([]string, 0, len(extra))
	for name := range extra {
		if _, ok := vars[name]; ok {
			return fmt.Errorf("wrfoptics: derived variable %s has the same name as an output variable", name)
		}
		extraNames = append(extraNames, name)
	}
	sort.Strings(extraNames)
	for _, name := range extraNames {
		h.AddVariable(name, dims3, []float64{0})
		h.AddAttribute(name, "description", "Derived variable")
		h.AddAttribute(name, "units", "-")
	}
	h.Define()

	ff, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	if _, err = ff.Writer("Time", []int{0}, []int{1}).Write([]int32{int32(f.TimeIndex)}); err != nil {
		return fmt.Errorf("wrfoptics: writing Time: %w", err)
	}
	ts := fmt.Sprintf("%-*s", dateStrLen, f.Time)[:dateStrLen]
	if _, err = ff.Writer("Times", []int{0, 0}, []int{1, 0}).Write(ts); err != nil {
		return fmt.Errorf("wrfoptics: writing Times: %w", err)
	}
	for name, data := range map[string]*sparse.DenseArray{"XLAT": f.XLAT, "XLONG": f.XLONG} {
		if err = writeRecord(ff, name, 0, data); err != nil {
			return fmt.Errorf("wrfoptics: writing variable %s to netcdf file: %w", name, err)
		}
	}
	for _, v := range OutputVars() {
		if err = writeRecord(ff, v.Name, 0, vars[v.Name]); err != nil {
			return fmt.Errorf("wrfoptics: writing variable %s to netcdf file: %w", v.Name, err)
		}
	}
	for _, name := range extraNames {
		if err = writeRecord(ff, name, 0, extra[name]); err != nil {
			return fmt.Errorf("wrfoptics: writing variable %s to netcdf file: %w", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// latLonBounds returns the extent of the given coordinates, ignoring
// NaNs, or nil if there are no valid coordinates.
func latLonBounds(lat, lon *sparse.DenseArray) *geom.Bounds {
	if lat == nil || lon == nil {
		return nil
	}
	b := geom.NewBounds()
	var n int
	for i, y := range lat.Elements {
		x := lon.Elements[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		b.Extend(geom.Point{X: x, Y: y}.Bounds())
		n++
	}
	if n == 0 {
		return nil
	}
	return b
}

// LoadOptics reads an output file created by Write. Variables other
// than the standard optical outputs and coordinates are returned in
// extra.
func LoadOptics(r cdf.ReaderWriterAt) (f *OpticsField, meta Metadata, extra map[string]*sparse.DenseArray, err error) {
	ff, err := cdf.Open(r)
	if err != nil {
		return nil, meta, nil, fmt.Errorf("wrfoptics: loading optics file: %w", err)
	}
	h := ff.Header
	meta.SourceCase, _ = h.GetAttribute("", "source_case").(string)
	meta.Method, _ = h.GetAttribute("", "method").(string)
	meta.LUTVersion, _ = h.GetAttribute("", "lut_version").(string)
	if wl, ok := h.GetAttribute("", "wavelength_nm").([]float64); ok && len(wl) == 1 {
		meta.WavelengthNM = wl[0]
	}
	if g, ok := h.GetAttribute("", "generated_utc").(string); ok {
		if meta.GeneratedUTC, err = time.Parse(generatedFormat, g); err != nil {
			return nil, meta, nil, fmt.Errorf("wrfoptics: loading optics file: %w", err)
		}
	}

	f = new(OpticsField)
	shape, _ := h.GetAttribute("", "shape_class").(string)
	f.ShapeClass = ShapeClass(shape)
	if f.Time, err = readCharRecord(ff, "Times", 0); err != nil {
		return nil, meta, nil, err
	}
	ti, err := readRecord(ff, "Time", 0)
	if err != nil {
		return nil, meta, nil, err
	}
	f.TimeIndex = int(ti.Elements[0])

	dest := map[string]**sparse.DenseArray{
		"XLAT":       &f.XLAT,
		"XLONG":      &f.XLONG,
		"alpha_ext":  &f.AlphaExt,
		"beta_par":   &f.BetaPar,
		"beta_perp":  &f.BetaPerp,
		"beta_total": &f.BetaTotal,
		"LR":         &f.LR,
		"LDR":        &f.LDR,
	}
	extra = make(map[string]*sparse.DenseArray)
	for _, v := range h.Variables() {
		if v == "Time" || v == "Times" {
			continue
		}
		data, err := readRecord(ff, v, 0)
		if err != nil {
			return nil, meta, nil, err
		}
		if d, ok := dest[v]; ok {
			*d = data
		} else {
			extra[v] = data
		}
	}
	for name, d := range dest {
		if *d == nil {
			return nil, meta, nil, fmt.Errorf("wrfoptics: loading optics file: variable %s is missing", name)
		}
	}
	return f, meta, extra, nil
}

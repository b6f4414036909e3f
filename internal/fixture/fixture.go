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

// Package fixture writes small WRF-Chem output and scattering table
// files for use in tests.
package fixture

import (
	"fmt"
	"io"
	"os"

	"github.com/ctessum/cdf"
)

// Reference conditions used by the default field values. With
// P + PB = P0 and no water vapor, the dry air density is RhoRef.
const (
	P0     = 1.0e5
	Rd     = 287.05
	RhoRef = 1.2
)

// TRef is the perturbation potential temperature that gives a dry air
// density of RhoRef at pressure P0.
const TRef = P0/(Rd*RhoRef) - 300

// WRF describes a WRF-Chem output file.
type WRF struct {
	// Times holds the WRF time string of each time step.
	Times      []string
	NZ, NY, NX int

	// Bins are the aerosol bin names, e.g. "a01".
	Bins []string

	// Value returns the value of 3-D variable name at time step t and
	// flat grid index i. If nil, DefaultValue is used.
	Value func(name string, t, i int) float64

	// Omit lists variables that are not written.
	Omit []string
}

// DefaultValue gives a number concentration of 1 #/kg for each bin,
// no OIN, and the reference air density everywhere.
func DefaultValue(name string, t, i int) float64 {
	switch name {
	case "T":
		return TRef
	case "P":
		return P0
	case "PB", "QVAPOR":
		return 0
	}
	if len(name) > 4 && name[:4] == "num_" {
		return 1
	}
	return 0
}

// DefaultBins are the bin names used by default.
func DefaultBins() []string { return []string{"a01", "a02", "a03", "a04"} }

// NewWRF returns a description of a file with the given times and
// grid size and the default bins.
func NewWRF(times []string, nz, ny, nx int) *WRF {
	return &WRF{Times: times, NZ: nz, NY: ny, NX: nx, Bins: DefaultBins()}
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Write writes the file to path.
func (w *WRF) Write(path string) error {
	value := w.Value
	if value == nil {
		value = DefaultValue
	}
	h := cdf.NewHeader(
		[]string{"Time", "bottom_top", "south_north", "west_east", "DateStrLen"},
		[]int{0, w.NZ, w.NY, w.NX, 19})
	vars3 := []string{"T", "P", "PB", "QVAPOR"}
	for _, b := range w.Bins {
		vars3 = append(vars3, "num_"+b, "oin_"+b)
	}
	if !contains(w.Omit, "Times") {
		h.AddVariable("Times", []string{"Time", "DateStrLen"}, "")
	}
	for _, v := range []string{"XLAT", "XLONG"} {
		if !contains(w.Omit, v) {
			h.AddVariable(v, []string{"Time", "south_north", "west_east"}, []float32{0})
		}
	}
	for _, v := range vars3 {
		if !contains(w.Omit, v) {
			h.AddVariable(v, []string{"Time", "bottom_top", "south_north", "west_east"}, []float32{0})
		}
	}
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	ff, err := cdf.Create(f, h)
	if err != nil {
		return err
	}
	n2, n3 := w.NY*w.NX, w.NZ*w.NY*w.NX
	for t, ts := range w.Times {
		if !contains(w.Omit, "Times") {
			if _, err := ff.Writer("Times", []int{t, 0}, []int{t + 1, 0}).Write(fmt.Sprintf("%-19s", ts)[:19]); err != nil {
				return err
			}
		}
		for _, v := range []string{"XLAT", "XLONG"} {
			if contains(w.Omit, v) {
				continue
			}
			data := make([]float32, n2)
			for i := range data {
				if v == "XLAT" {
					data[i] = float32(40 + i/w.NX)
				} else {
					data[i] = float32(-100 + i%w.NX)
				}
			}
			if _, err := ff.Writer(v, []int{t, 0, 0}, []int{t + 1, 0, 0}).Write(data); err != nil {
				return err
			}
		}
		for _, v := range vars3 {
			if contains(w.Omit, v) {
				continue
			}
			data := make([]float32, n3)
			for i := range data {
				data[i] = float32(value(v, t, i))
			}
			if _, err := ff.Writer(v, []int{t, 0, 0, 0}, []int{t + 1, 0, 0, 0}).Write(data); err != nil {
				return err
			}
		}
	}
	return cdf.UpdateNumRecs(f)
}

// LUT describes a scattering table file.
type LUT struct {
	Wavelength, RH, Reff, MReal, MImag []float64

	// ShapeLabels, if not nil, are written as a character
	// shape_class coordinate.
	ShapeLabels []string

	// ShapeCodes, if not nil, are written as a numeric shape_class
	// coordinate. If both ShapeLabels and ShapeCodes are nil and
	// NShape > 0, a shape_class dimension without a coordinate
	// variable is written.
	ShapeCodes []float64
	NShape     int

	// DimOrder is the order of the dimensions of the cross section
	// variables. If nil, the order is wavelength_nm, rh_percent,
	// reff_um, m_real, m_imag, shape_class.
	DimOrder []string

	// Value returns the value of cross section variable name at the
	// given index along each dimension. If nil, DefaultCrossSection is
	// used.
	Value func(name string, idx map[string]int) float64

	// Omit lists dimensions and variables that are not written.
	Omit []string
}

// DefaultCrossSection returns constant cross sections:
// 1e-12 m2 for extinction, 4e-13 for parallel backscatter and
// 8e-14 for perpendicular backscatter.
func DefaultCrossSection(name string, idx map[string]int) float64 {
	switch name {
	case "Cext_m2":
		return 1e-12
	case "Cback_par_m2":
		return 4e-13
	case "Cback_perp_m2":
		return 8e-14
	}
	return 0
}

// NewLUT returns a table with a single point on each axis, at
// 532 nm, 50 % humidity, and refractive index 1.53+0.01i, with
// effective radii matching the default bins.
func NewLUT() *LUT {
	return &LUT{
		Wavelength: []float64{532},
		RH:         []float64{50},
		Reff:       []float64{0.039, 0.156, 0.625, 2.5},
		MReal:      []float64{1.53},
		MImag:      []float64{0.01},
		ShapeCodes: []float64{0, 1},
	}
}

// Write writes the table to path.
func (l *LUT) Write(path string) error {
	value := l.Value
	if value == nil {
		value = DefaultCrossSection
	}
	coords := map[string][]float64{
		"wavelength_nm": l.Wavelength,
		"rh_percent":    l.RH,
		"reff_um":       l.Reff,
		"m_real":        l.MReal,
		"m_imag":        l.MImag,
	}
	lengths := map[string]int{}
	for d, c := range coords {
		lengths[d] = len(c)
	}
	switch {
	case l.ShapeLabels != nil:
		lengths["shape_class"] = len(l.ShapeLabels)
	case l.ShapeCodes != nil:
		lengths["shape_class"] = len(l.ShapeCodes)
	case l.NShape > 0:
		lengths["shape_class"] = l.NShape
	}
	order := l.DimOrder
	if order == nil {
		order = []string{"wavelength_nm", "rh_percent", "reff_um", "m_real", "m_imag", "shape_class"}
	}
	var dims []string
	var dimLens []int
	for _, d := range order {
		if n, ok := lengths[d]; ok && !contains(l.Omit, d) {
			dims = append(dims, d)
			dimLens = append(dimLens, n)
		}
	}
	const labelLen = 16
	allDims := append(append([]string(nil), dims...), "label_len")
	allLens := append(append([]int(nil), dimLens...), labelLen)
	h := cdf.NewHeader(allDims, allLens)
	for _, d := range dims {
		switch {
		case d == "shape_class" && l.ShapeLabels != nil:
			h.AddVariable(d, []string{d, "label_len"}, "")
		case d == "shape_class" && l.ShapeCodes == nil:
		default:
			h.AddVariable(d, []string{d}, []float64{0})
		}
	}
	vars := []string{"Cext_m2", "Cback_par_m2", "Cback_perp_m2"}
	for _, v := range vars {
		if !contains(l.Omit, v) {
			h.AddVariable(v, dims, []float64{0})
		}
	}
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	ff, err := cdf.Create(f, h)
	if err != nil {
		return err
	}
	// Writes that fill a whole variable end with io.EOF.
	for _, d := range dims {
		switch {
		case d == "shape_class" && l.ShapeLabels != nil:
			var s string
			for _, label := range l.ShapeLabels {
				s += fmt.Sprintf("%-*s", labelLen, label)[:labelLen]
			}
			if _, err := ff.Writer(d, nil, nil).Write(s); err != nil && err != io.EOF {
				return err
			}
		case d == "shape_class" && l.ShapeCodes == nil:
		case d == "shape_class":
			if _, err := ff.Writer(d, nil, nil).Write(l.ShapeCodes); err != nil && err != io.EOF {
				return err
			}
		default:
			if _, err := ff.Writer(d, nil, nil).Write(coords[d]); err != nil && err != io.EOF {
				return err
			}
		}
	}
	n := 1
	for _, dl := range dimLens {
		n *= dl
	}
	for _, v := range vars {
		if contains(l.Omit, v) {
			continue
		}
		data := make([]float64, n)
		for i := range data {
			// Convert the flat index to an index along each dimension.
			idx := make(map[string]int, len(dims))
			rem := i
			for j := len(dims) - 1; j >= 0; j-- {
				idx[dims[j]] = rem % dimLens[j]
				rem /= dimLens[j]
			}
			data[i] = value(v, idx)
		}
		if _, err := ff.Writer(v, nil, nil).Write(data); err != nil && err != io.EOF {
			return err
		}
	}
	return nil
}

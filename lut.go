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
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/ctessum/cdf"
	"github.com/ctessum/requestcache"
)

// LookupQuery specifies a point in a scattering table.
type LookupQuery struct {
	WavelengthNM float64 // [nm]
	RHPercent    float64 // [%]
	ReffUM       float64 // [μm]
	MReal, MImag float64 // refractive index
	Shape        ShapeClass
}

func (q LookupQuery) key() string {
	return fmt.Sprintf("%g_%g_%g_%g_%g_%s", q.WavelengthNM, q.RHPercent, q.ReffUM, q.MReal, q.MImag, q.Shape)
}

// CrossSections holds single-particle optical cross sections [m2].
type CrossSections struct {
	Ext      float64 // extinction
	BackPar  float64 // parallel-polarized backscatter
	BackPerp float64 // perpendicular-polarized backscatter
}

// ScatteringTable is a source of optical cross sections.
// Implementations must be safe for concurrent use.
type ScatteringTable interface {
	Lookup(q LookupQuery) (CrossSections, error)
}

// LUTCheck holds the results of checking a scattering table's structure.
type LUTCheck struct {
	MissingDims []string
	MissingVars []string
}

// Err returns a *StructuralMismatchError describing the missing
// dimensions or, if there are none, the missing variables.
// It returns nil if the table is complete.
func (c LUTCheck) Err() error {
	if len(c.MissingDims) > 0 {
		return &StructuralMismatchError{Source: "LUT", What: "dims", Missing: c.MissingDims}
	}
	if len(c.MissingVars) > 0 {
		return &StructuralMismatchError{Source: "LUT", What: "vars", Missing: c.MissingVars}
	}
	return nil
}

// lutVar is a table variable held in memory in row-major order.
type lutVar struct {
	dims  []string
	shape []int
	data  []float64
}

func (v *lutVar) at(idx map[string]int) float64 {
	off := 0
	for i, d := range v.dims {
		off = off*v.shape[i] + idx[d]
	}
	return v.data[off]
}

// LUT is a DDSCAT scattering lookup table with axes wavelength_nm,
// rh_percent, reff_um, m_real, m_imag and optionally shape_class.
// Lookups select the nearest point on each axis without interpolation.
// A LUT is read-only once created and safe for concurrent use.
type LUT struct {
	dims map[string]int

	// axes holds the coordinate values of each numeric dimension.
	axes map[string][]float64

	// shapeLabels holds the shape_class coordinate when it is stored
	// as characters.
	shapeLabels []string

	vars  map[string]*lutVar
	check LUTCheck
}

// OpenLUT loads the scattering table in the NetCDF file at path.
// It returns a *NotFoundError if the file does not exist. The structure
// of the table is not validated; use Check for that.
func OpenLUT(path string) (*LUT, error) {
	f, ff, err := openNCF("LUT", path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewLUT(ff)
}

// NewLUT loads a scattering table from an open NetCDF file.
func NewLUT(ff *cdf.File) (*LUT, error) {
	h := ff.Header
	l := &LUT{
		dims: make(map[string]int),
		axes: make(map[string][]float64),
		vars: make(map[string]*lutVar),
	}
	lengths := h.Lengths("")
	for i, d := range h.Dimensions("") {
		l.dims[d] = lengths[i]
	}

	for d, n := range l.dims {
		switch {
		case d == lutShape && isChar(h, d) && len(h.Dimensions(d)) == 2 && h.Dimensions(d)[0] == d:
			labels, err := readCharVar(ff, d)
			if err != nil {
				return nil, err
			}
			l.shapeLabels = labels
		case hasVar(h, d) && !isChar(h, d) && len(h.Dimensions(d)) == 1 && h.Dimensions(d)[0] == d:
			a, err := readVar(ff, d)
			if err != nil {
				return nil, err
			}
			l.axes[d] = a.Elements
		default:
			// No coordinate variable: use index positions.
			a := make([]float64, n)
			for i := range a {
				a[i] = float64(i)
			}
			l.axes[d] = a
		}
	}

	for _, v := range RequiredLUTVars() {
		if !hasVar(h, v) {
			continue
		}
		a, err := readVar(ff, v)
		if err != nil {
			return nil, err
		}
		l.vars[v] = &lutVar{
			dims:  h.Dimensions(v),
			shape: a.Shape,
			data:  a.Elements,
		}
	}

	for _, d := range RequiredLUTDims() {
		if _, ok := l.dims[d]; !ok {
			l.check.MissingDims = append(l.check.MissingDims, d)
		}
	}
	for _, v := range RequiredLUTVars() {
		if _, ok := l.vars[v]; !ok {
			l.check.MissingVars = append(l.check.MissingVars, v)
		}
	}
	return l, nil
}

// Check reports any required dimensions and variables that are
// missing from the table. Both lists are empty for a valid table.
func (l *LUT) Check() LUTCheck {
	return LUTCheck{
		MissingDims: append([]string(nil), l.check.MissingDims...),
		MissingVars: append([]string(nil), l.check.MissingVars...),
	}
}

// Lookup returns the cross sections at the table point nearest to q.
// If the table has a numeric shape_class axis, q.Shape is mapped to
// code 0 for Smoke and 1 otherwise. If the axis holds labels, an
// unrecognized label selects the first one. An error is returned only
// if the table is structurally incomplete.
func (l *LUT) Lookup(q LookupQuery) (CrossSections, error) {
	if err := l.check.Err(); err != nil {
		return CrossSections{}, err
	}
	idx := map[string]int{
		lutWavelength: nearest(l.axes[lutWavelength], q.WavelengthNM),
		lutRH:         nearest(l.axes[lutRH], q.RHPercent),
		lutReff:       nearest(l.axes[lutReff], q.ReffUM),
		lutMReal:      nearest(l.axes[lutMReal], q.MReal),
		lutMImag:      nearest(l.axes[lutMImag], q.MImag),
	}
	if _, ok := l.dims[lutShape]; ok {
		idx[lutShape] = l.shapeIndex(q.Shape)
	}
	return CrossSections{
		Ext:      l.vars[lutCext].at(idx),
		BackPar:  l.vars[lutCbackPar].at(idx),
		BackPerp: l.vars[lutCbackPerp].at(idx),
	}, nil
}

func (l *LUT) shapeIndex(s ShapeClass) int {
	if l.shapeLabels != nil {
		for i, label := range l.shapeLabels {
			if label == string(s) {
				return i
			}
		}
		return 0
	}
	code := 1.0
	if s == Smoke {
		code = 0
	}
	return nearest(l.axes[lutShape], code)
}

// nearest returns the index of the value in axis closest to x.
// Ties go to the larger axis value. If x is NaN, 0 is returned.
func nearest(axis []float64, x float64) int {
	best := 0
	bestDist := math.Inf(1)
	for i, a := range axis {
		d := math.Abs(a - x)
		if d < bestDist || (d == bestDist && a > axis[best]) {
			best, bestDist = i, d
		}
	}
	return best
}

// CachedTable memoizes the results of another ScatteringTable.
type CachedTable struct {
	ctx   context.Context
	cache *requestcache.Cache
}

// NewCachedTable returns a table that remembers up to maxEntries
// results of t. Concurrent identical requests are only passed to t
// once. ctx is used for all requests to t.
func NewCachedTable(ctx context.Context, t ScatteringTable, maxEntries int) *CachedTable {
	process := func(ctx context.Context, payload interface{}) (interface{}, error) {
		return t.Lookup(payload.(LookupQuery))
	}
	return &CachedTable{
		ctx: ctx,
		cache: requestcache.NewCache(process, runtime.GOMAXPROCS(-1),
			requestcache.Deduplicate(), requestcache.Memory(maxEntries)),
	}
}

// Lookup implements ScatteringTable.
func (c *CachedTable) Lookup(q LookupQuery) (CrossSections, error) {
	r, err := c.cache.NewRequest(c.ctx, q, q.key()).Result()
	if err != nil {
		return CrossSections{}, err
	}
	return r.(CrossSections), nil
}

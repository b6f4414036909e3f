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

// Package wrfoptics derives aerosol optical properties (extinction,
// backscatter, lidar ratio and depolarization ratio) from WRF-Chem
// output using a precomputed DDSCAT scattering lookup table.
package wrfoptics

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// Compositor combines per-bin aerosol number concentrations with
// scattering-table cross sections to calculate optical properties.
// RHPercent, MReal and MImag are the relative humidity and refractive
// index used for every table lookup.
type Compositor struct {
	Bins      []Bin
	RHPercent float64
	MReal     float64
	MImag     float64
}

// DefaultCompositor returns a compositor with the default bins and
// the placeholder humidity and refractive index.
func DefaultCompositor() *Compositor {
	return &Compositor{
		Bins:      DefaultBins(),
		RHPercent: DefaultRHPercent,
		MReal:     DefaultMReal,
		MImag:     DefaultMImag,
	}
}

// OpticsField holds the optical properties calculated for one time step.
// All 3-D fields have the grid shape of the snapshot they were
// calculated from.
type OpticsField struct {
	TimeIndex  int
	Time       string
	ShapeClass ShapeClass

	AlphaExt  *sparse.DenseArray // [m-1]
	BetaPar   *sparse.DenseArray // [m-1 sr-1]
	BetaPerp  *sparse.DenseArray // [m-1 sr-1]
	BetaTotal *sparse.DenseArray // [m-1 sr-1]
	LR        *sparse.DenseArray // [sr]
	LDR       *sparse.DenseArray // [1]

	// RhoDry is the dry air density [kg/m3] used in the calculation.
	RhoDry *sparse.DenseArray

	XLAT, XLONG *sparse.DenseArray
}

// Variables returns the output variables of f by name.
func (f *OpticsField) Variables() map[string]*sparse.DenseArray {
	return map[string]*sparse.DenseArray{
		"alpha_ext":  f.AlphaExt,
		"beta_par":   f.BetaPar,
		"beta_perp":  f.BetaPerp,
		"beta_total": f.BetaTotal,
		"LR":         f.LR,
		"LDR":        f.LDR,
	}
}

// Compute calculates the optical properties of snapshot s at the given
// wavelength [nm], looking up cross sections in t once per bin.
// Where a ratio's denominator is not larger than 1e-20 the ratio is NaN.
// An error is only returned if t cannot answer a lookup.
func (c *Compositor) Compute(s *Snapshot, t ScatteringTable, wavelengthNM float64) (*OpticsField, error) {
	rho := RhoDry(s)
	shape := ClassifyShape(s, c.Bins)

	zeros := func() *sparse.DenseArray { return sparse.ZerosDense(s.Shape()...) }
	f := &OpticsField{
		TimeIndex:  s.TimeIndex,
		Time:       s.Time,
		ShapeClass: shape,
		AlphaExt:   zeros(),
		BetaPar:    zeros(),
		BetaPerp:   zeros(),
		BetaTotal:  zeros(),
		LR:         zeros(),
		LDR:        zeros(),
		RhoDry:     rho,
		XLAT:       s.Get("XLAT"),
		XLONG:      s.Get("XLONG"),
	}

	for _, b := range c.Bins {
		xs, err := t.Lookup(LookupQuery{
			WavelengthNM: wavelengthNM,
			RHPercent:    c.RHPercent,
			ReffUM:       b.ReffUM,
			MReal:        c.MReal,
			MImag:        c.MImag,
			Shape:        shape,
		})
		if err != nil {
			return nil, fmt.Errorf("wrfoptics: looking up cross sections for bin %s: %w", b.Name, err)
		}
		num := s.Get(b.NumVar())
		for i, nmr := range num.Elements {
			n := nmr * rho.Elements[i] // [#/kg] -> [#/m3]
			f.AlphaExt.Elements[i] += n * xs.Ext
			f.BetaPar.Elements[i] += n * xs.BackPar
			f.BetaPerp.Elements[i] += n * xs.BackPerp
		}
	}

	for i := range f.BetaTotal.Elements {
		f.BetaTotal.Elements[i] = f.BetaPar.Elements[i] + f.BetaPerp.Elements[i]
		f.LR.Elements[i] = ratio(f.AlphaExt.Elements[i], f.BetaTotal.Elements[i])
		f.LDR.Elements[i] = ratio(f.BetaPerp.Elements[i], f.BetaPar.Elements[i])
	}
	return f, nil
}

func ratio(num, den float64) float64 {
	if den > denomFloor {
		return num / den
	}
	return math.NaN()
}

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
	"strings"

	"github.com/ctessum/unit"
)

var (
	perMeter      = unit.Dimensions{unit.LengthDim: -1}
	perMeterPerSr = unit.Dimensions{unit.LengthDim: -1, unit.AngleDim: -2}
	steradian     = unit.Dimensions{unit.AngleDim: 2}
)

// OutputVar describes an optical output variable.
type OutputVar struct {
	Name        string
	Description string
	Dims        unit.Dimensions
}

// Units returns the NetCDF units string of v.
func (v OutputVar) Units() string { return cfUnits(v.Dims) }

// OutputVars returns the optical output variables in file order.
func OutputVars() []OutputVar {
	return []OutputVar{
		{Name: "alpha_ext", Description: "Volume extinction coefficient", Dims: perMeter},
		{Name: "beta_par", Description: "Parallel-polarized volume backscatter coefficient", Dims: perMeterPerSr},
		{Name: "beta_perp", Description: "Perpendicular-polarized volume backscatter coefficient", Dims: perMeterPerSr},
		{Name: "beta_total", Description: "Total volume backscatter coefficient", Dims: perMeterPerSr},
		{Name: "LR", Description: "Lidar ratio (alpha_ext / beta_total)", Dims: steradian},
		{Name: "LDR", Description: "Linear depolarization ratio (beta_perp / beta_par)", Dims: unit.Dimless},
	}
}

// cfUnits formats d in the style of the CF conventions, e.g. "m-1 sr-1".
// Even powers of angle are written as steradians.
func cfUnits(d unit.Dimensions) string {
	order := []unit.Dimension{unit.MassDim, unit.LengthDim, unit.TimeDim,
		unit.TemperatureDim, unit.CurrentDim, unit.LuminousIntensityDim, unit.AngleDim}
	var parts []string
	for _, dim := range order {
		pow := d[dim]
		if pow == 0 {
			continue
		}
		sym := dim.String()
		if dim == unit.AngleDim && pow%2 == 0 {
			sym, pow = "sr", pow/2
		}
		if pow == 1 {
			parts = append(parts, sym)
		} else {
			parts = append(parts, fmt.Sprintf("%s%d", sym, pow))
		}
	}
	if len(parts) == 0 {
		return "1"
	}
	return strings.Join(parts, " ")
}

// checkRatioUnits checks that the dimensions of the ratio outputs
// are consistent with their definitions.
func checkRatioUnits() error {
	dims := make(map[string]unit.Dimensions)
	for _, v := range OutputVars() {
		dims[v.Name] = v.Dims
	}
	u := func(name string) *unit.Unit { return unit.New(1, dims[name]) }
	if err := unit.Div(u("alpha_ext"), u("beta_total")).Check(dims["LR"]); err != nil {
		return fmt.Errorf("wrfoptics: LR: %v", err)
	}
	if err := unit.Div(u("beta_perp"), u("beta_par")).Check(dims["LDR"]); err != nil {
		return fmt.Errorf("wrfoptics: LDR: %v", err)
	}
	if err := unit.Add(u("beta_par"), u("beta_perp")).Check(dims["beta_total"]); err != nil {
		return fmt.Errorf("wrfoptics: beta_total: %v", err)
	}
	return nil
}

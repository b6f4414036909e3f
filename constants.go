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

// Version gives the version number.
const Version = "1.0.0"

// Physical constants
const (
	p0        = 100000.0 // Reference pressure [Pa]
	rd        = 287.05   // Gas constant for dry air [J/kg/K]
	cp        = 1004.0   // Heat capacity of dry air at constant pressure [J/kg/K]
	baseTheta = 300.0    // WRF base-state potential temperature [K]
	epsVirt   = 0.61     // Virtual temperature moisture factor [-]
)

const (
	// ashRatioThreshold is the insoluble fraction at or above which
	// a snapshot is classified as a smoke-ash mixture.
	ashRatioThreshold = 0.20

	// denomFloor is the smallest denominator accepted when
	// forming lidar and depolarization ratios.
	denomFloor = 1e-20
)

// Default placeholder optical state. These are the values used by
// DefaultCompositor until a humidity or composition model is supplied.
const (
	DefaultRHPercent = 50.0
	DefaultMReal     = 1.53
	DefaultMImag     = 0.01
)

// Bin is an aerosol size bin.
type Bin struct {
	// Name is the WRF-Chem bin suffix, e.g. "a01".
	Name string
	// ReffUM is the representative effective radius [μm].
	ReffUM float64
}

// NumVar returns the name of the bin's number mixing ratio variable.
func (b Bin) NumVar() string { return "num_" + b.Name }

// OinVar returns the name of the bin's insoluble (other inorganic)
// mixing ratio variable.
func (b Bin) OinVar() string { return "oin_" + b.Name }

// DefaultBins returns the four-bin MOSAIC configuration.
// A new slice is returned on every call.
func DefaultBins() []Bin {
	return []Bin{
		{Name: "a01", ReffUM: 0.039},
		{Name: "a02", ReffUM: 0.156},
		{Name: "a03", ReffUM: 0.625},
		{Name: "a04", ReffUM: 2.500},
	}
}

// Names of the LUT dimensions and variables.
const (
	lutWavelength = "wavelength_nm"
	lutRH         = "rh_percent"
	lutReff       = "reff_um"
	lutMReal      = "m_real"
	lutMImag      = "m_imag"
	lutShape      = "shape_class"

	lutCext      = "Cext_m2"
	lutCbackPar  = "Cback_par_m2"
	lutCbackPerp = "Cback_perp_m2"
)

// RequiredLUTDims returns the dimensions a scattering table must have.
func RequiredLUTDims() []string {
	return []string{lutWavelength, lutRH, lutReff, lutMReal, lutMImag}
}

// RequiredLUTVars returns the variables a scattering table must have.
func RequiredLUTVars() []string {
	return []string{lutCext, lutCbackPar, lutCbackPerp}
}

// thermoVars are the 3-D thermodynamic fields used by the density model.
var thermoVars = [...]string{"T", "P", "PB", "QVAPOR"}

// RequiredWRFVars returns the WRF output variables needed to process
// the given bins, in a fixed order.
func RequiredWRFVars(bins []Bin) []string {
	req := []string{"Times", "XLAT", "XLONG"}
	req = append(req, thermoVars[:]...)
	for _, b := range bins {
		req = append(req, b.NumVar(), b.OinVar())
	}
	return req
}

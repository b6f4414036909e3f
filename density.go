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

	"github.com/ctessum/sparse"
)

// RhoDry calculates dry air density [kg/m3] in every grid cell of s
// from the WRF perturbation potential temperature T [K], perturbation
// and base-state pressures P and PB [Pa], and water vapor mixing ratio
// QVAPOR [kg/kg]. Invalid inputs (e.g. zero pressure) result in NaN
// rather than an error.
func RhoDry(s *Snapshot) *sparse.DenseArray {
	t, p, pb, qv := s.Get("T"), s.Get("P"), s.Get("PB"), s.Get("QVAPOR")
	rho := sparse.ZerosDense(s.Shape()...)
	for i := range rho.Elements {
		rho.Elements[i] = rhoDry(t.Elements[i], p.Elements[i], pb.Elements[i], qv.Elements[i])
	}
	return rho
}

func rhoDry(tPert, p, pb, qv float64) float64 {
	pFull := p + pb
	theta := tPert + baseTheta
	tk := theta * math.Pow(pFull/p0, rd/cp) // Poisson's equation
	tv := tk * (1 + epsVirt*qv)
	rhoMoist := pFull / (rd * tv)
	return rhoMoist / (1 + qv)
}

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
)

// ShapeClass is an aerosol mixing-state label used to choose among the
// particle shape models of a scattering table.
type ShapeClass string

// Shape classes.
const (
	Smoke       ShapeClass = "smoke"
	SmokeAshMix ShapeClass = "smoke_ash_mix"
)

// ClassifyShape returns a single shape class for the whole snapshot,
// based on the ratio of the domain-mean insoluble mixing ratio to the
// domain-mean number mixing ratio, summed over bins.
func ClassifyShape(s *Snapshot, bins []Bin) ShapeClass {
	var dryOin, dryTotal float64
	for _, b := range bins {
		dryOin += nanMean(s.Get(b.OinVar()).Elements)
		dryTotal += nanMean(s.Get(b.NumVar()).Elements)
	}
	if dryTotal <= 0 {
		return Smoke
	}
	ratio := dryOin / math.Max(dryTotal, denomFloor)
	if ratio >= ashRatioThreshold {
		return SmokeAshMix
	}
	return Smoke
}

// nanMean returns the mean of the non-NaN values in x,
// or NaN if there are none. NaNs are summed as zeros so the
// rounding matches a pairwise sum over the whole field.
func nanMean(x []float64) float64 {
	v := make([]float64, len(x))
	var n int
	for i, e := range x {
		if !math.IsNaN(e) {
			v[i] = e
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return pairwiseSum(v) / float64(n)
}

// pairwiseBlock is the largest slice pairwiseSum adds without splitting.
const pairwiseBlock = 128

// pairwiseSum adds x using eight partial sums within blocks of up to
// pairwiseBlock elements, halving larger slices at multiples of eight.
func pairwiseSum(x []float64) float64 {
	n := len(x)
	switch {
	case n < 8:
		var sum float64
		for _, v := range x {
			sum += v
		}
		return sum
	case n <= pairwiseBlock:
		var r [8]float64
		copy(r[:], x[:8])
		i := 8
		for ; i < n-n%8; i += 8 {
			for j := range r {
				r[j] += x[i+j]
			}
		}
		sum := ((r[0] + r[1]) + (r[2] + r[3])) + ((r[4] + r[5]) + (r[6] + r[7]))
		for ; i < n; i++ {
			sum += x[i]
		}
		return sum
	default:
		n2 := n / 2
		n2 -= n2 % 8
		return pairwiseSum(x[:n2]) + pairwiseSum(x[n2:])
	}
}

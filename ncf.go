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
	"os"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// openNCF opens a NetCDF file, returning a *NotFoundError
// if it does not exist.
func openNCF(kind, path string) (*os.File, *cdf.File, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, &NotFoundError{Kind: kind, Path: path}
	} else if err != nil {
		return nil, nil, fmt.Errorf("wrfoptics: opening %s file: %w", kind, err)
	}
	ff, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("wrfoptics: reading %s file %s: %w", kind, path, err)
	}
	return f, ff, nil
}

// hasVar returns whether variable v is in header h.
func hasVar(h *cdf.Header, v string) bool {
	return h.Lengths(v) != nil
}

// isChar returns whether variable v is stored as characters.
func isChar(h *cdf.Header, v string) bool {
	_, ok := h.ZeroValue(v, 0).(string)
	return ok
}

// readVar reads all of non-record variable v from ff.
func readVar(ff *cdf.File, v string) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(v)
	if dims == nil {
		return nil, fmt.Errorf("wrfoptics: read netcdf: variable %s not in file", v)
	}
	r := ff.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("wrfoptics: read netcdf variable %s: %w", v, err)
	}
	data := sparse.ZerosDense(append([]int(nil), dims...)...)
	if err := fillFloat64(data.Elements, buf); err != nil {
		return nil, fmt.Errorf("wrfoptics: read netcdf variable %s: %w", v, err)
	}
	return data, nil
}

// readRecord reads record rec of record variable v from ff. The record
// dimension is removed from the returned array. Variables without a
// record dimension are returned whole.
func readRecord(ff *cdf.File, v string, rec int) (*sparse.DenseArray, error) {
	if !ff.Header.IsRecordVariable(v) {
		return readVar(ff, v)
	}
	dims := append([]int(nil), ff.Header.Lengths(v)[1:]...)
	nread := 1
	for _, d := range dims {
		nread *= d
	}
	start, end := make([]int, len(dims)+1), make([]int, len(dims)+1)
	start[0], end[0] = rec, rec+1
	r := ff.Reader(v, start, end)
	buf := r.Zero(nread)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("wrfoptics: read netcdf variable %s record %d: %w", v, rec, err)
	}
	data := sparse.ZerosDense(dims...)
	if err := fillFloat64(data.Elements, buf); err != nil {
		return nil, fmt.Errorf("wrfoptics: read netcdf variable %s: %w", v, err)
	}
	return data, nil
}

// readCharRecord reads record rec of character variable v, trimming
// padding.
func readCharRecord(ff *cdf.File, v string, rec int) (string, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) != 2 {
		return "", fmt.Errorf("wrfoptics: read netcdf: variable %s should have 2 dimensions but has %d", v, len(dims))
	}
	start, end := []int{rec, 0}, []int{rec + 1, 0}
	if !ff.Header.IsRecordVariable(v) {
		end = []int{rec, dims[1] - 1}
	}
	r := ff.Reader(v, start, end)
	buf := make([]uint8, dims[1])
	if _, err := r.Read(buf); err != nil {
		return "", fmt.Errorf("wrfoptics: read netcdf variable %s record %d: %w", v, rec, err)
	}
	return trimChars(buf), nil
}

// readCharVar reads the 2-D character variable v as a list of strings.
func readCharVar(ff *cdf.File, v string) ([]string, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) != 2 {
		return nil, fmt.Errorf("wrfoptics: read netcdf: variable %s should have 2 dimensions but has %d", v, len(dims))
	}
	r := ff.Reader(v, nil, nil)
	buf := make([]uint8, dims[0]*dims[1])
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("wrfoptics: read netcdf variable %s: %w", v, err)
	}
	o := make([]string, dims[0])
	for i := range o {
		o[i] = trimChars(buf[i*dims[1] : (i+1)*dims[1]])
	}
	return o, nil
}

func trimChars(b []uint8) string {
	return strings.TrimSpace(strings.TrimRight(string(b), "\x00"))
}

// fillFloat64 copies the numeric NetCDF buffer buf into dst.
func fillFloat64(dst []float64, buf interface{}) error {
	n := -1
	switch v := buf.(type) {
	case []float32:
		if n = len(v); n == len(dst) {
			for i, val := range v {
				dst[i] = float64(val)
			}
		}
	case []float64:
		if n = len(v); n == len(dst) {
			copy(dst, v)
		}
	case []int32:
		if n = len(v); n == len(dst) {
			for i, val := range v {
				dst[i] = float64(val)
			}
		}
	case []int16:
		if n = len(v); n == len(dst) {
			for i, val := range v {
				dst[i] = float64(val)
			}
		}
	case []uint8:
		if n = len(v); n == len(dst) {
			for i, val := range v {
				dst[i] = float64(val)
			}
		}
	default:
		return fmt.Errorf("unsupported data type %T", buf)
	}
	if n != len(dst) {
		return fmt.Errorf("read %d values but expected %d", n, len(dst))
	}
	return nil
}

// writeRecord writes data as record rec of double variable v.
// The dimensions of data must match the non-record dimensions of v.
func writeRecord(f *cdf.File, v string, rec int, data *sparse.DenseArray) error {
	dims := f.Header.Lengths(v)[1:]
	n := 1
	for _, d := range dims {
		n *= d
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	start, end := make([]int, len(dims)+1), make([]int, len(dims)+1)
	start[0], end[0] = rec, rec+1
	w := f.Writer(v, start, end)
	_, err := w.Write(data.Elements)
	return err
}

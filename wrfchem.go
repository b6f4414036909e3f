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
	"sort"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// WRFTimeFormat is the layout of WRF "Times" strings.
const WRFTimeFormat = "2006-01-02_15:04:05"

// ParseTime parses a time in WRF format ("YYYY-MM-DD_HH:MM:SS").
// An empty string returns the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(WRFTimeFormat, s)
	if err != nil {
		return t, fmt.Errorf("wrfoptics: parsing time %q: %w", s, err)
	}
	return t, nil
}

// WRFOut reads WRF-Chem output for optical post-processing.
// Its methods may be called concurrently.
type WRFOut struct {
	path   string
	f      *os.File
	ff     *cdf.File
	bins   []Bin
	nTimes int
}

// OpenWRF opens the WRF-Chem output file at path. bins are the aerosol
// bins whose variables will be read. A *NotFoundError is returned
// if the file does not exist.
func OpenWRF(path string, bins []Bin) (*WRFOut, error) {
	f, ff, err := openNCF("WRF", path)
	if err != nil {
		return nil, err
	}
	w := &WRFOut{path: path, f: f, ff: ff, bins: bins}

	lengths := ff.Header.Lengths("")
	for i, d := range ff.Header.Dimensions("") {
		if d != "Time" {
			continue
		}
		if lengths[i] > 0 {
			w.nTimes = lengths[i]
			break
		}
		// Time is the record dimension.
		fi, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("wrfoptics: WRF file %s: %w", path, err)
		}
		w.nTimes = int(ff.Header.NumRecs(fi.Size()))
	}
	return w, nil
}

// Close closes the underlying file.
func (w *WRFOut) Close() error { return w.f.Close() }

// NTimes returns the length of the Time dimension.
func (w *WRFOut) NTimes() int { return w.nTimes }

// WRFCheck holds the results of checking a WRF output file.
type WRFCheck struct {
	// Missing lists required variables that are not in the file.
	Missing []string
	// Available lists all variables in the file, sorted.
	Available []string
	NTimes    int
}

// Err returns a *StructuralMismatchError if any required variables
// are missing, or nil otherwise.
func (c WRFCheck) Err() error {
	if len(c.Missing) > 0 {
		return &StructuralMismatchError{Source: "WRF", What: "variables", Missing: c.Missing}
	}
	return nil
}

// Check checks whether the file contains the required variables.
func (w *WRFOut) Check() WRFCheck {
	c := WRFCheck{
		Available: w.ff.Header.Variables(),
		NTimes:    w.nTimes,
	}
	sort.Strings(c.Available)
	for _, v := range RequiredWRFVars(w.bins) {
		if !hasVar(w.ff.Header, v) {
			c.Missing = append(c.Missing, v)
		}
	}
	return c
}

// TimeString returns the "Times" entry of time step i.
func (w *WRFOut) TimeString(i int) (string, error) {
	if i < 0 || i >= w.nTimes {
		return "", fmt.Errorf("wrfoptics: time index %d out of range [0, %d)", i, w.nTimes)
	}
	return readCharRecord(w.ff, "Times", i)
}

// SelectTimes returns the indices of the time steps between start and
// end, inclusive, limited to the first maxTimes if maxTimes > 0.
// A zero start or end time is unbounded.
func (w *WRFOut) SelectTimes(start, end time.Time, maxTimes int) ([]int, error) {
	if w.nTimes == 0 {
		return nil, nil
	}
	if start.IsZero() && end.IsZero() && maxTimes <= 0 {
		indices := make([]int, w.nTimes)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}
	var selected []int
	for i := 0; i < w.nTimes; i++ {
		ts, err := w.TimeString(i)
		if err != nil {
			return nil, err
		}
		t, err := ParseTime(ts)
		if err != nil {
			return nil, err
		}
		if !start.IsZero() && t.Before(start) {
			continue
		}
		if !end.IsZero() && t.After(end) {
			continue
		}
		selected = append(selected, i)
	}
	if maxTimes > 0 && len(selected) > maxTimes {
		selected = selected[:maxTimes]
	}
	return selected, nil
}

// Snapshot reads the fields of time step i.
func (w *WRFOut) Snapshot(i int) (*Snapshot, error) {
	ts, err := w.TimeString(i)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]*sparse.DenseArray)
	for _, v := range RequiredWRFVars(w.bins) {
		if v == "Times" {
			continue
		}
		if !hasVar(w.ff.Header, v) {
			return nil, &StructuralMismatchError{Source: "WRF", What: "variables", Missing: []string{v}}
		}
		data, err := readRecord(w.ff, v, i)
		if err != nil {
			return nil, err
		}
		fields[v] = data
	}
	return NewSnapshot(i, ts, fields, w.bins)
}

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
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// lutCacheSize is the number of scattering table results to remember
// during a run.
const lutCacheSize = 1024

// RunConfig holds the settings for a post-processing run.
type RunConfig struct {
	// WRFOut and LUT are the paths to the WRF-Chem output and
	// scattering table files.
	WRFOut, LUT string

	// OutputDir is the directory output files are written to.
	// It is created if it does not exist.
	OutputDir string

	WavelengthNM float64 // [nm]

	// Start and End limit the time steps that are processed.
	// Zero values are unbounded.
	Start, End time.Time

	// MaxTimes is the maximum number of time steps to process.
	// Values <= 0 mean no limit.
	MaxTimes int

	// DryRun, if true, selects time steps without reading or
	// writing any fields.
	DryRun bool

	// Workers is the number of time steps to process concurrently.
	// Values < 1 are treated as 1.
	Workers int

	// Compositor calculates the optical properties. If nil,
	// DefaultCompositor is used.
	Compositor *Compositor

	// Derived holds expressions for additional output variables.
	Derived map[string]string

	// Meta is written to each output file. If it is the zero value,
	// DefaultMetadata is used. Its wavelength is always set to
	// WavelengthNM.
	Meta Metadata
}

func (cfg *RunConfig) compositor() *Compositor {
	if cfg.Compositor == nil {
		return DefaultCompositor()
	}
	return cfg.Compositor
}

func (cfg *RunConfig) metadata() Metadata {
	meta := cfg.Meta
	if meta == (Metadata{}) {
		meta = DefaultMetadata(cfg.WavelengthNM)
	}
	meta.WavelengthNM = cfg.WavelengthNM
	return meta
}

// CheckInputs checks that the input files exist and contain the
// required variables and dimensions. The WRF file is checked first.
func CheckInputs(cfg *RunConfig, log logrus.FieldLogger) error {
	w, err := OpenWRF(cfg.WRFOut, cfg.compositor().Bins)
	if err != nil {
		return err
	}
	defer w.Close()
	wc := w.Check()
	if err = wc.Err(); err != nil {
		log.WithField("available", wc.Available).Error("WRF file is missing required variables")
		return err
	}
	log.WithFields(logrus.Fields{
		"path":  cfg.WRFOut,
		"times": wc.NTimes,
	}).Info("WRF file passed checks")

	l, err := OpenLUT(cfg.LUT)
	if err != nil {
		return err
	}
	if err = l.Check().Err(); err != nil {
		return err
	}
	log.WithField("path", cfg.LUT).Info("LUT file passed checks")
	return nil
}

// Run processes the selected time steps of the WRF file and returns
// the paths of the files written, in time order. It returns
// ErrNoSelection if no time steps are selected. In a dry run no files
// are written and no paths are returned.
func Run(ctx context.Context, cfg *RunConfig, log logrus.FieldLogger) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := cfg.compositor()
	derived, err := NewDerivedVars(cfg.Derived)
	if err != nil {
		return nil, err
	}

	w, err := OpenWRF(cfg.WRFOut, c.Bins)
	if err != nil {
		return nil, err
	}
	defer w.Close()
	if err = w.Check().Err(); err != nil {
		return nil, err
	}
	lut, err := OpenLUT(cfg.LUT)
	if err != nil {
		return nil, err
	}
	if err = lut.Check().Err(); err != nil {
		return nil, err
	}

	if err = os.MkdirAll(cfg.OutputDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("wrfoptics: creating output directory: %w", err)
	}

	indices, err := w.SelectTimes(cfg.Start, cfg.End, cfg.MaxTimes)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, ErrNoSelection
	}
	log.WithField("n", len(indices)).Info("selected time steps")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	table := NewCachedTable(ctx, lut, lutCacheSize)
	meta := cfg.metadata()

	p := &timeProcessor{
		cfg:     cfg,
		w:       w,
		c:       c,
		table:   table,
		derived: derived,
		meta:    meta,
		log:     log,
	}

	nprocs := cfg.Workers
	if nprocs < 1 {
		nprocs = 1
	}
	paths := make([]string, len(indices))
	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if ctx.Err() != nil {
					continue
				}
				path, err := p.process(indices[j])
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					continue
				}
				paths[j] = path
			}
		}()
	}
feed:
	for j := range indices {
		select {
		case jobs <- j:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.DryRun {
		return nil, nil
	}
	return paths, nil
}

// timeProcessor calculates and writes the output for individual
// time steps.
type timeProcessor struct {
	cfg     *RunConfig
	w       *WRFOut
	c       *Compositor
	table   ScatteringTable
	derived *DerivedVars
	meta    Metadata
	log     logrus.FieldLogger
}

func (p *timeProcessor) process(i int) (string, error) {
	ts, err := p.w.TimeString(i)
	if err != nil {
		return "", err
	}
	path := filepath.Join(p.cfg.OutputDir, OutputFileName(ts))
	log := p.log.WithFields(logrus.Fields{"index": i, "time": ts})
	log.Info("processing time step")
	if p.cfg.DryRun {
		log.WithField("path", path).Info("dry run: would write file")
		return "", nil
	}

	s, err := p.w.Snapshot(i)
	if err != nil {
		return "", err
	}
	f, err := p.c.Compute(s, p.table, p.cfg.WavelengthNM)
	if err != nil {
		return "", err
	}
	extra, err := p.derived.Evaluate(f)
	if err != nil {
		return "", err
	}

	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("wrfoptics: creating output file: %w", err)
	}
	if err = f.Write(out, p.meta, extra); err != nil {
		out.Close()
		return "", err
	}
	if err = out.Close(); err != nil {
		return "", err
	}
	log.WithFields(logrus.Fields{
		"path":        path,
		"shape_class": f.ShapeClass,
	}).Info("wrote optics file")
	return path, nil
}

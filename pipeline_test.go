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
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/wrfoptics/internal/fixture"
)

func testRunConfig(t *testing.T) *RunConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := &RunConfig{
		WRFOut:       filepath.Join(dir, "wrfout_d01.nc"),
		LUT:          filepath.Join(dir, "lut.nc"),
		OutputDir:    filepath.Join(dir, "output"),
		WavelengthNM: 532,
		Workers:      1,
	}
	if err := fixture.NewWRF(testTimes, 2, 3, 4).Write(cfg.WRFOut); err != nil {
		t.Fatal(err)
	}
	if err := testLUT().Write(cfg.LUT); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestRun(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.Start = mustParseTime(t, "2020-07-01_01:00:00")
	cfg.Derived = map[string]string{"alpha_km": "alpha_ext * 1000"}
	log, _ := test.NewNullLogger()
	paths, err := Run(context.Background(), cfg, log)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 {
		t.Fatalf("have %d files, want 3", len(paths))
	}
	for i, p := range paths {
		want := filepath.Join(cfg.OutputDir, OutputFileName(testTimes[i+1]))
		if p != want {
			t.Errorf("path %d: have %s, want %s", i, p, want)
		}
		r, err := os.Open(p)
		if err != nil {
			t.Fatal(err)
		}
		f, meta, extra, err := LoadOptics(r)
		r.Close()
		if err != nil {
			t.Fatal(err)
		}
		if f.TimeIndex != i+1 {
			t.Errorf("time index: have %d, want %d", f.TimeIndex, i+1)
		}
		if meta.WavelengthNM != 532 || meta.SourceCase != "wrfchem_20200701_20200702_d01" {
			t.Errorf("metadata: %+v", meta)
		}
		wantAlpha := 1.2 * (110110 + 111110 + 112110 + 113110)
		if different(f.AlphaExt.Elements[0], wantAlpha, 1e-6) {
			t.Errorf("alpha_ext: have %g, want %g", f.AlphaExt.Elements[0], wantAlpha)
		}
		if different(extra["alpha_km"].Elements[0], wantAlpha*1000, 1e-6) {
			t.Errorf("alpha_km: have %g, want %g", extra["alpha_km"].Elements[0], wantAlpha*1000)
		}
	}
}

func TestRunParallel(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.Workers = 3
	log, _ := test.NewNullLogger()
	paths, err := Run(context.Background(), cfg, log)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != len(testTimes) {
		t.Fatalf("have %d files", len(paths))
	}
	for i, p := range paths {
		if want := filepath.Join(cfg.OutputDir, OutputFileName(testTimes[i])); p != want {
			t.Errorf("path %d: have %s, want %s", i, p, want)
		}
	}
}

func TestRunDryRun(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.DryRun = true
	cfg.MaxTimes = 2
	log, hook := test.NewNullLogger()
	paths, err := Run(context.Background(), cfg, log)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 0 {
		t.Errorf("have paths %v, want none", paths)
	}
	files, err := ioutil.ReadDir(cfg.OutputDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("dry run wrote %d files", len(files))
	}
	var n int
	for _, e := range hook.AllEntries() {
		if _, ok := e.Data["path"]; ok && e.Message == "dry run: would write file" {
			n++
		}
	}
	if n != 2 {
		t.Errorf("have %d dry run messages, want 2", n)
	}
}

func TestRunNoSelection(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.Start = mustParseTime(t, "2030-01-01_00:00:00")
	log, _ := test.NewNullLogger()
	if _, err := Run(context.Background(), cfg, log); !errors.Is(err, ErrNoSelection) {
		t.Errorf("have %v, want %v", err, ErrNoSelection)
	}
}

func TestRunBadDerived(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.Derived = map[string]string{"x": "not_a_variable"}
	log, _ := test.NewNullLogger()
	if _, err := Run(context.Background(), cfg, log); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := os.Stat(cfg.OutputDir); !os.IsNotExist(err) {
		t.Errorf("output directory should not be created: %v", err)
	}
}

func TestRunCanceled(t *testing.T) {
	cfg := testRunConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	log, _ := test.NewNullLogger()
	if _, err := Run(ctx, cfg, log); !errors.Is(err, context.Canceled) {
		t.Errorf("have %v, want %v", err, context.Canceled)
	}
}

func TestCheckInputs(t *testing.T) {
	log, _ := test.NewNullLogger()
	t.Run("valid", func(t *testing.T) {
		if err := CheckInputs(testRunConfig(t), log); err != nil {
			t.Error(err)
		}
	})
	t.Run("missing WRF", func(t *testing.T) {
		cfg := testRunConfig(t)
		cfg.WRFOut += ".missing"
		var nf *NotFoundError
		if err := CheckInputs(cfg, log); !errors.As(err, &nf) || nf.Kind != "WRF" {
			t.Errorf("have %v", err)
		}
	})
	t.Run("missing LUT", func(t *testing.T) {
		cfg := testRunConfig(t)
		cfg.LUT += ".missing"
		var nf *NotFoundError
		if err := CheckInputs(cfg, log); !errors.As(err, &nf) || nf.Kind != "LUT" {
			t.Errorf("have %v", err)
		}
	})
	t.Run("missing variables", func(t *testing.T) {
		cfg := testRunConfig(t)
		fw := fixture.NewWRF(testTimes, 1, 1, 1)
		fw.Omit = []string{"PB"}
		if err := fw.Write(cfg.WRFOut); err != nil {
			t.Fatal(err)
		}
		var sErr *StructuralMismatchError
		if err := CheckInputs(cfg, log); !errors.As(err, &sErr) || sErr.Missing[0] != "PB" {
			t.Errorf("have %v", err)
		}
	})
	t.Run("incomplete LUT", func(t *testing.T) {
		cfg := testRunConfig(t)
		l := testLUT()
		l.Omit = []string{"rh_percent"}
		if err := l.Write(cfg.LUT); err != nil {
			t.Fatal(err)
		}
		var sErr *StructuralMismatchError
		if err := CheckInputs(cfg, log); !errors.As(err, &sErr) || sErr.Source != "LUT" {
			t.Errorf("have %v", err)
		}
	})
}

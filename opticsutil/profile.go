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

package opticsutil

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/wrfoptics"
	"github.com/spatialmodel/wrfoptics/cloud"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// VerticalProfile returns the mean of each vertical level of the
// given 3-D field, ignoring NaN values. Levels with no valid values
// are NaN.
func VerticalProfile(data *sparse.DenseArray) ([]float64, error) {
	if len(data.Shape) != 3 {
		return nil, fmt.Errorf("wrfoptics: vertical profile needs 3 dimensions but data has %d", len(data.Shape))
	}
	nz, nxy := data.Shape[0], data.Shape[1]*data.Shape[2]
	o := make([]float64, nz)
	for k := range o {
		level := make([]float64, 0, nxy)
		for _, v := range data.Elements[k*nxy : (k+1)*nxy] {
			if !math.IsNaN(v) {
				level = append(level, v)
			}
		}
		if len(level) == 0 {
			o[k] = math.NaN()
			continue
		}
		o[k] = stat.Mean(level, nil)
	}
	return o, nil
}

// profileVariable returns the named variable from f or from the
// derived variables in extra, along with its units.
func profileVariable(f *wrfoptics.OpticsField, extra map[string]*sparse.DenseArray, name string) (*sparse.DenseArray, string, error) {
	vars := f.Variables()
	for _, v := range wrfoptics.OutputVars() {
		if v.Name == name {
			return vars[name], v.Units(), nil
		}
	}
	if d, ok := extra[name]; ok {
		return d, "-", nil
	}
	return nil, "", fmt.Errorf("wrfoptics: variable '%s' is not in the output file", name)
}

func (cfg *Cfg) profile(cmd *cobra.Command) error {
	ctx := context.Background()
	t := newTransfers(newLogger(cmd.OutOrStderr(), cfg.GetString("log-level")))
	defer t.cleanup()

	input := os.ExpandEnv(cfg.GetString("profile.input"))
	if input == "" {
		return fmt.Errorf("wrfoptics: the profile.input configuration variable must be set")
	}
	input, err := t.maybeDownload(ctx, input)
	if err != nil {
		return err
	}
	r, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("wrfoptics: opening profile input: %w", err)
	}
	defer r.Close()
	f, _, extra, err := wrfoptics.LoadOptics(r)
	if err != nil {
		return err
	}

	name := cfg.GetString("profile.variable")
	data, units, err := profileVariable(f, extra, name)
	if err != nil {
		return err
	}
	vals, err := VerticalProfile(data)
	if err != nil {
		return err
	}

	p, err := plot.New()
	if err != nil {
		return err
	}
	p.Title.Text = fmt.Sprintf("%s domain mean\n%s", name, f.Time)
	p.X.Label.Text = fmt.Sprintf("%s (%s)", name, units)
	p.Y.Label.Text = "Model level"
	var n int
	for _, v := range vals {
		if !math.IsNaN(v) {
			n++
		}
	}
	xy := make(plotter.XYs, n)
	var i int
	for k, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		xy[i].X = v
		xy[i].Y = float64(k)
		i++
	}
	if err = plotutil.AddLinePoints(p, xy); err != nil {
		return err
	}

	output := os.ExpandEnv(cfg.GetString("profile.output"))
	local := output
	if cloud.IsBlob(output) {
		dir, err := t.outputDir(output[:strings.LastIndex(output, "/")])
		if err != nil {
			return err
		}
		if err = os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
		local = filepath.Join(dir, filepath.Base(output))
	}
	format := strings.TrimPrefix(filepath.Ext(output), ".")
	wt, err := p.WriterTo(4*vg.Inch, 6*vg.Inch, format)
	if err != nil {
		return err
	}
	w, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("wrfoptics: creating profile image: %w", err)
	}
	if _, err = wt.WriteTo(w); err != nil {
		w.Close()
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}
	if _, err = t.upload(ctx, []string{local}); err != nil {
		return err
	}
	t.Log.WithField("path", output).Info("wrote vertical profile")
	return nil
}

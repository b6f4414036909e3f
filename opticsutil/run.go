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
	"os"

	"github.com/spatialmodel/wrfoptics"
	"github.com/spf13/cobra"
)

// prepare creates the logger and run configuration and downloads any
// remote inputs.
func (cfg *Cfg) prepare(ctx context.Context, cmd *cobra.Command) (*wrfoptics.RunConfig, *transfers, error) {
	log := newLogger(cmd.OutOrStderr(), cfg.GetString("log-level"))
	rc, err := runConfig(cfg.Viper)
	if err != nil {
		return nil, nil, err
	}
	t := newTransfers(log)
	if rc.WRFOut, err = t.maybeDownload(ctx, rc.WRFOut); err != nil {
		t.cleanup()
		return nil, nil, err
	}
	if rc.LUT, err = t.maybeDownload(ctx, rc.LUT); err != nil {
		t.cleanup()
		return nil, nil, err
	}
	return rc, t, nil
}

func (cfg *Cfg) checkInputs(cmd *cobra.Command) error {
	rc, t, err := cfg.prepare(context.Background(), cmd)
	if err != nil {
		return err
	}
	defer t.cleanup()
	if err = wrfoptics.CheckInputs(rc, t.Log); err != nil {
		return err
	}
	cmd.Println("Input checks passed.")
	return nil
}

func (cfg *Cfg) run(cmd *cobra.Command) error {
	ctx := context.Background()
	rc, t, err := cfg.prepare(ctx, cmd)
	if err != nil {
		return err
	}
	defer t.cleanup()
	if rc.OutputDir, err = t.outputDir(rc.OutputDir); err != nil {
		return err
	}

	files, err := wrfoptics.Run(ctx, rc, t.Log)
	if err != nil {
		return err
	}
	if rc.DryRun {
		cmd.Println("Dry run completed.")
		return nil
	}

	m := newManifest(rc, os.ExpandEnv(cfg.GetString("wrfout")), os.ExpandEnv(cfg.GetString("lut")), files)
	manifest, err := m.writeFile(rc.OutputDir)
	if err != nil {
		return err
	}
	written, err := t.upload(ctx, append(files, manifest))
	if err != nil {
		return err
	}
	cmd.Printf("Run completed. Files written: %d\n", len(files))
	for _, f := range written[:len(files)] {
		cmd.Println(f)
	}
	return nil
}

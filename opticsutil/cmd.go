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

// Package opticsutil contains the command-line interface for wrfoptics.
package opticsutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/wrfoptics"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
type Cfg struct {
	*viper.Viper

	// Root is the main command.
	Root *cobra.Command

	versionCmd, checkCmd, runCmd, profileCmd *cobra.Command
}

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

// InitializeConfig creates the commands and configuration options.
func InitializeConfig() *Cfg {
	cfg := &Cfg{Viper: viper.New()}

	cfg.Root = &cobra.Command{
		Use:   "wrfoptics",
		Short: "Aerosol optical properties from WRF-Chem output.",
		Long: `wrfoptics calculates aerosol extinction, backscatter, lidar ratio,
and linear depolarization ratio from WRF-Chem output using a DDSCAT
scattering lookup table.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'WRFOPTICS_var' where 'var' is the
name of the variable to be set, with dashes replaced by underscores.
Input and output locations may be local paths or blob storage URLs
(gs://, s3://, or file://). Inputs may also be HTTP URLs.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return cfg.setConfig() },
	}

	cfg.versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Long:  "version prints the version number of this version of wrfoptics.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("wrfoptics v%s\n", wrfoptics.Version)
		},
		DisableAutoGenTag: true,
	}

	cfg.checkCmd = &cobra.Command{
		Use:   "check-inputs",
		Short: "Check the input files.",
		Long: `check-inputs checks that the WRF-Chem output and scattering
table files exist and contain the required variables and dimensions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.checkInputs(cmd)
		},
		DisableAutoGenTag: true,
	}

	cfg.runCmd = &cobra.Command{
		Use:   "run",
		Short: "Calculate optical properties.",
		Long: `run calculates optical properties for each selected time step
of the WRF-Chem output and writes one NetCDF file per time step to
the output directory, along with a manifest.toml file listing the
files written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.run(cmd)
		},
		DisableAutoGenTag: true,
	}

	cfg.profileCmd = &cobra.Command{
		Use:   "profile",
		Short: "Plot a vertical profile.",
		Long: `profile plots the domain-mean vertical profile of an
output variable from a file created by the run command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.profile(cmd)
		},
		DisableAutoGenTag: true,
	}

	run := []*pflag.FlagSet{cfg.runCmd.Flags(), cfg.checkCmd.Flags()}

	// options are the configuration options available to wrfoptics.
	options := []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "log-level",
			usage: `
              log-level specifies the minimum level of log messages to
              print: DEBUG, INFO, WARNING, or ERROR.`,
			defaultVal: "INFO",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "wrfout",
			usage: `
              wrfout specifies the location of the WRF-Chem output file.`,
			defaultVal: "",
			flagsets:   run,
		},
		{
			name: "lut",
			usage: `
              lut specifies the location of the DDSCAT scattering lookup table.`,
			defaultVal: "",
			flagsets:   run,
		},
		{
			name: "output-dir",
			usage: `
              output-dir specifies the directory output files are written to.`,
			shorthand:  "o",
			defaultVal: "./output",
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "wavelength-nm",
			usage: `
              wavelength-nm specifies the wavelength [nm] to calculate
              optical properties at.`,
			defaultVal: 532.0,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "time-start",
			usage: `
              time-start specifies the first time step to process, in the
              format YYYY-MM-DD_HH:MM:SS. If empty, processing starts at the
              first time step in the file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "time-end",
			usage: `
              time-end specifies the last time step to process, in the
              format YYYY-MM-DD_HH:MM:SS. If empty, processing continues to the
              last time step in the file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "max-times",
			usage: `
              max-times specifies the maximum number of time steps to process.
              Values of zero or less mean no limit.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "dry-run",
			usage: `
              dry-run specifies that time steps should be selected and
              reported without calculating or writing anything.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "workers",
			usage: `
              workers specifies the number of time steps to process
              concurrently.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "rh-percent",
			usage: `
              rh-percent specifies the relative humidity [%] used for
              scattering table lookups.`,
			defaultVal: wrfoptics.DefaultRHPercent,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "m-real",
			usage: `
              m-real specifies the real part of the aerosol refractive index.`,
			defaultVal: wrfoptics.DefaultMReal,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "m-imag",
			usage: `
              m-imag specifies the imaginary part of the aerosol refractive index.`,
			defaultVal: wrfoptics.DefaultMImag,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "source-case",
			usage: `
              source-case specifies the source_case attribute of output files.`,
			defaultVal: wrfoptics.DefaultMetadata(0).SourceCase,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "lut-version",
			usage: `
              lut-version specifies the lut_version attribute of output files.`,
			defaultVal: wrfoptics.DefaultMetadata(0).LUTVersion,
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "derived",
			usage: `
              derived specifies additional output variables as a map of
              variable names to expressions of the output variables
              (alpha_ext, beta_par, beta_perp, beta_total, LR, LDR) and rho_dry,
              for example {"alpha_ext_km": "alpha_ext * 1000"}. The functions
              exp, log, log10, sqrt, and abs are available.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{cfg.runCmd.Flags()},
		},
		{
			name: "profile.input",
			usage: `
              profile.input specifies the output file to plot.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.profileCmd.Flags()},
		},
		{
			name: "profile.variable",
			usage: `
              profile.variable specifies the variable to plot.`,
			defaultVal: "alpha_ext",
			flagsets:   []*pflag.FlagSet{cfg.profileCmd.Flags()},
		},
		{
			name: "profile.output",
			usage: `
              profile.output specifies the location of the image file to create.
              The image format is determined by the file extension.`,
			defaultVal: "profile.png",
			flagsets:   []*pflag.FlagSet{cfg.profileCmd.Flags()},
		},
	}

	// Set the prefix for configuration environment variables.
	cfg.SetEnvPrefix("WRFOPTICS")
	cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := strings.TrimSpace(b.String())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic(fmt.Errorf("invalid argument type %T", option.defaultVal))
			}
			cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	// Link the commands together.
	cfg.Root.AddCommand(cfg.versionCmd)
	cfg.Root.AddCommand(cfg.checkCmd)
	cfg.Root.AddCommand(cfg.runCmd)
	cfg.Root.AddCommand(cfg.profileCmd)
	return cfg
}

// setConfig finds and reads in the configuration file, if there is one.
func (cfg *Cfg) setConfig() error {
	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(cfgpath)
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("wrfoptics: problem reading configuration file: %v", err)
		}
	}
	return nil
}

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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/wrfoptics"
	"github.com/spf13/cast"
)

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapString(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("wrfoptics: parsing configuration variable %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("wrfoptics: invalid type for configuration variable %s: %#v", varName, i)
	}
}

// runConfig creates a run configuration from cfg. Input and output
// locations are used as given; see transfers for handling remote
// locations.
func runConfig(cfg *viper.Viper) (*wrfoptics.RunConfig, error) {
	rc := &wrfoptics.RunConfig{
		WRFOut:       os.ExpandEnv(cfg.GetString("wrfout")),
		LUT:          os.ExpandEnv(cfg.GetString("lut")),
		OutputDir:    os.ExpandEnv(cfg.GetString("output-dir")),
		WavelengthNM: cfg.GetFloat64("wavelength-nm"),
		MaxTimes:     cfg.GetInt("max-times"),
		DryRun:       cfg.GetBool("dry-run"),
		Workers:      cfg.GetInt("workers"),
	}
	if rc.WRFOut == "" {
		return nil, fmt.Errorf("wrfoptics: the wrfout configuration variable must be set")
	}
	if rc.LUT == "" {
		return nil, fmt.Errorf("wrfoptics: the lut configuration variable must be set")
	}
	if !(rc.WavelengthNM > 0) {
		return nil, fmt.Errorf("wrfoptics: wavelength-nm must be positive but is %g", rc.WavelengthNM)
	}
	var err error
	if rc.Start, err = wrfoptics.ParseTime(cfg.GetString("time-start")); err != nil {
		return nil, err
	}
	if rc.End, err = wrfoptics.ParseTime(cfg.GetString("time-end")); err != nil {
		return nil, err
	}

	c := wrfoptics.DefaultCompositor()
	c.RHPercent = cfg.GetFloat64("rh-percent")
	c.MReal = cfg.GetFloat64("m-real")
	c.MImag = cfg.GetFloat64("m-imag")
	rc.Compositor = c

	if rc.Derived, err = GetStringMapString("derived", cfg); err != nil {
		return nil, err
	}
	for k, v := range rc.Derived {
		rc.Derived[k] = strings.Replace(strings.Replace(v, "\r\n", " ", -1), "\n", " ", -1)
	}

	rc.Meta = wrfoptics.DefaultMetadata(rc.WavelengthNM)
	rc.Meta.SourceCase = cfg.GetString("source-case")
	rc.Meta.LUTVersion = cfg.GetString("lut-version")
	return rc, nil
}

// newLogger creates a logger that writes messages at or above the
// given level to w. Unrecognized levels are treated as INFO.
func newLogger(w io.Writer, level string) *logrus.Logger {
	if strings.EqualFold(level, "WARN") {
		level = "warning"
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log := logrus.New()
	log.Out = w
	log.Level = lvl
	log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	}
	return log
}

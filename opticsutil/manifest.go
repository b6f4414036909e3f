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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/wrfoptics"
	"github.com/spatialmodel/wrfoptics/internal/hash"
)

// ManifestName is the name of the file listing the outputs of a run.
const ManifestName = "manifest.toml"

// Manifest records the inputs and outputs of a run.
type Manifest struct {
	Version      string
	Generated    time.Time
	WRFOut       string
	LUT          string
	WavelengthNM float64

	// ConfigHash identifies the run configuration.
	ConfigHash string

	// Files lists the names of the output files in time order.
	Files []string
}

func newManifest(rc *wrfoptics.RunConfig, wrfout, lut string, files []string) *Manifest {
	m := &Manifest{
		Version:      wrfoptics.Version,
		Generated:    time.Now().UTC().Truncate(time.Second),
		WRFOut:       wrfout,
		LUT:          lut,
		WavelengthNM: rc.WavelengthNM,
		ConfigHash:   hash.Hash(rc),
		Files:        make([]string, len(files)),
	}
	for i, f := range files {
		m.Files[i] = filepath.Base(f)
	}
	return m
}

// Write writes m in TOML format.
func (m *Manifest) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(m)
}

// writeFile writes m to the file ManifestName in dir and returns
// the path of the file.
func (m *Manifest) writeFile(dir string) (string, error) {
	path := filepath.Join(dir, ManifestName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("wrfoptics: creating manifest: %v", err)
	}
	if err = m.Write(f); err != nil {
		f.Close()
		return "", fmt.Errorf("wrfoptics: writing manifest: %v", err)
	}
	return path, f.Close()
}

// ReadManifest reads a manifest in TOML format.
func ReadManifest(r io.Reader) (*Manifest, error) {
	m := new(Manifest)
	if _, err := toml.DecodeReader(r, m); err != nil {
		return nil, fmt.Errorf("wrfoptics: reading manifest: %v", err)
	}
	return m, nil
}

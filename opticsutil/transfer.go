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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/wrfoptics/cloud"
)

// transfers downloads remote inputs before a run and uploads outputs
// to remote storage after it.
type transfers struct {
	cloud.Transfer

	// dir is a temporary directory for downloads and outputs.
	dir string

	// remoteOutput is the blob storage location outputs are uploaded to.
	remoteOutput string
}

func newTransfers(log logrus.FieldLogger) *transfers {
	return &transfers{Transfer: cloud.Transfer{Log: log}}
}

func (t *transfers) tempDir() (string, error) {
	if t.dir == "" {
		var err error
		t.dir, err = ioutil.TempDir("", "wrfoptics")
		if err != nil {
			return "", fmt.Errorf("wrfoptics: creating temporary directory: %v", err)
		}
	}
	return t.dir, nil
}

// maybeDownload downloads path to a temporary directory if it is a
// remote location and returns the local path.
func (t *transfers) maybeDownload(ctx context.Context, path string) (string, error) {
	if !cloud.IsBlob(path) && !cloud.IsHTTP(path) {
		return path, nil
	}
	dir, err := t.tempDir()
	if err != nil {
		return "", err
	}
	t.Log.WithField("url", path).Info("downloading input")
	return t.Download(ctx, path, dir)
}

// outputDir returns the local directory outputs should be written to.
// If path is a blob storage location, a temporary directory is
// returned and the files in it are uploaded to path by upload.
func (t *transfers) outputDir(path string) (string, error) {
	if !cloud.IsBlob(path) {
		return path, nil
	}
	dir, err := t.tempDir()
	if err != nil {
		return "", err
	}
	t.remoteOutput = strings.TrimSuffix(path, "/")
	return filepath.Join(dir, "output"), nil
}

// upload uploads the given local files if the output location is
// remote and returns the locations of the files after uploading.
func (t *transfers) upload(ctx context.Context, files []string) ([]string, error) {
	if t.remoteOutput == "" {
		return files, nil
	}
	o := make([]string, len(files))
	for i, f := range files {
		o[i] = t.remoteOutput + "/" + filepath.Base(f)
		t.Log.WithField("url", o[i]).Info("uploading output")
		if err := t.Upload(ctx, f, o[i]); err != nil {
			return nil, fmt.Errorf("wrfoptics: uploading '%s' to '%s': %v", f, o[i], err)
		}
	}
	return o, nil
}

// cleanup deletes any temporary files.
func (t *transfers) cleanup() {
	if t.dir != "" {
		os.RemoveAll(t.dir)
	}
}

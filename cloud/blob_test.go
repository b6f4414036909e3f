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

package cloud

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
)

// chdir changes into a temporary directory for the rest of the test.
func chdir(t *testing.T) string {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err = os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestBlobRoundTrip(t *testing.T) {
	dir := chdir(t)
	ctx := context.Background()
	if err := os.Mkdir("bucket", os.ModePerm); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "optics.nc")
	if err := ioutil.WriteFile(src, []byte("optics data"), 0644); err != nil {
		t.Fatal(err)
	}
	log, _ := test.NewNullLogger()
	tr := &Transfer{Log: log, MaxElapsedTime: time.Second}
	if err := tr.Upload(ctx, src, "file://bucket/run1/optics.nc"); err != nil {
		t.Fatal(err)
	}

	files, err := List(ctx, "file://bucket/run1/")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"file://bucket/run1/optics.nc"}; !reflect.DeepEqual(files, want) {
		t.Errorf("list: have %v, want %v", files, want)
	}

	dl := filepath.Join(dir, "download")
	if err = os.Mkdir(dl, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	local, err := tr.Download(ctx, "file://bucket/run1/optics.nc", dl)
	if err != nil {
		t.Fatal(err)
	}
	if local != filepath.Join(dl, "optics.nc") {
		t.Errorf("path: have %s", local)
	}
	b, err := ioutil.ReadFile(local)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "optics data" {
		t.Errorf("contents: have %q", b)
	}
}

func TestDownloadLocal(t *testing.T) {
	tr := &Transfer{}
	p, err := tr.Download(context.Background(), "/data/wrfout_d01", "/tmp")
	if err != nil || p != "/data/wrfout_d01" {
		t.Errorf("have %s, %v", p, err)
	}
}

func TestDownloadHTTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lut.nc" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "lut data")
	}))
	defer ts.Close()
	dir := t.TempDir()
	log, hook := test.NewNullLogger()
	tr := &Transfer{Log: log, MaxElapsedTime: time.Second}

	p, err := tr.Download(context.Background(), ts.URL+"/lut.nc", dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "lut data" {
		t.Errorf("contents: have %q", b)
	}

	if _, err = tr.Download(context.Background(), ts.URL+"/missing.nc", dir); err == nil {
		t.Error("expected an error")
	}
	if len(hook.AllEntries()) != 0 {
		t.Errorf("not found errors should not be retried: %d retries", len(hook.AllEntries()))
	}
}

func TestIsBlob(t *testing.T) {
	for path, want := range map[string]bool{
		"gs://bucket/x.nc":   true,
		"s3://bucket/x.nc":   true,
		"file://bucket/x.nc": true,
		"/local/x.nc":        false,
		"http://host/x.nc":   false,
	} {
		if IsBlob(path) != want {
			t.Errorf("%s: have %v, want %v", path, !want, want)
		}
	}
}

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
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"gocloud.dev/blob"
)

// Transfer copies files between local storage and remote locations,
// retrying failed transfers with exponential backoff.
type Transfer struct {
	// Log receives messages about failed attempts. If nil, the
	// standard logrus logger is used.
	Log logrus.FieldLogger

	// MaxElapsedTime is the maximum time to spend retrying a transfer.
	// If zero, the backoff package default is used.
	MaxElapsedTime time.Duration
}

func (t *Transfer) log() logrus.FieldLogger {
	if t.Log == nil {
		return logrus.StandardLogger()
	}
	return t.Log
}

func (t *Transfer) retry(ctx context.Context, what string, f func() error) error {
	b := backoff.NewExponentialBackOff()
	if t.MaxElapsedTime != 0 {
		b.MaxElapsedTime = t.MaxElapsedTime
	}
	return backoff.RetryNotify(f, backoff.WithContext(b, ctx),
		func(err error, d time.Duration) {
			t.log().WithFields(logrus.Fields{
				"transfer": what,
				"retry_in": d,
			}).Warn(err)
		})
}

// Download copies the file at src, which may be a blob URL or an
// HTTP URL, into directory dir and returns the local path. Paths that
// are neither are returned unchanged.
func (t *Transfer) Download(ctx context.Context, src, dir string) (string, error) {
	switch {
	case IsBlob(src):
		bucketName, key, err := splitBlobURL(src)
		if err != nil {
			return "", err
		}
		dst := filepath.Join(dir, path.Base(key))
		err = t.retry(ctx, src, func() error {
			bucket, err := OpenBucket(ctx, bucketName)
			if err != nil {
				return err
			}
			return readBlob(ctx, bucket, key, dst)
		})
		return dst, err
	case IsHTTP(src):
		dst := filepath.Join(dir, path.Base(src))
		err := t.retry(ctx, src, func() error {
			return downloadHTTP(ctx, src, dst)
		})
		return dst, err
	default:
		return src, nil
	}
}

// Upload copies the local file src to the blob URL dst.
func (t *Transfer) Upload(ctx context.Context, src, dst string) error {
	bucketName, key, err := splitBlobURL(dst)
	if err != nil {
		return err
	}
	return t.retry(ctx, dst, func() error {
		bucket, err := OpenBucket(ctx, bucketName)
		if err != nil {
			return err
		}
		return writeBlob(ctx, bucket, key, src)
	})
}

// List returns the URLs of the blobs whose keys start with the key of
// prefix.
func List(ctx context.Context, prefix string) ([]string, error) {
	bucketName, key, err := splitBlobURL(prefix)
	if err != nil {
		return nil, err
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return nil, err
	}
	iter := bucket.List(&blob.ListOptions{Prefix: key})
	var o []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cloud: listing blobs with prefix %s: %v", prefix, err)
		}
		o = append(o, bucketName+"/"+obj.Key)
	}
	return o, nil
}

// readBlob copies the given blob from the given bucket to local file dst.
func readBlob(ctx context.Context, bucket *blob.Bucket, key, dst string) error {
	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("cloud: reading blob key %s: %v", key, err)
	}
	defer r.Close()
	return writeFile(dst, r)
}

// writeBlob copies local file src to the given bucket.
func writeBlob(ctx context.Context, bucket *blob.Bucket, key, src string) error {
	r, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("cloud: opening file '%s' for upload: %v", src, err)
	}
	defer r.Close()
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("cloud: creating writer for blob %s: %v", key, err)
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("cloud: copying blob %s: %v", key, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("cloud: writing blob %s: %v", key, err)
	}
	return nil
}

func downloadHTTP(ctx context.Context, src, dst string) error {
	req, err := http.NewRequest(http.MethodGet, src, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("cloud: downloading %s: %s", src, resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}
	return writeFile(dst, resp.Body)
}

func writeFile(dst string, r io.Reader) error {
	w, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("cloud: creating file for download: %v", err)
	}
	if _, err = io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("cloud: downloading to %s: %v", dst, err)
	}
	return w.Close()
}

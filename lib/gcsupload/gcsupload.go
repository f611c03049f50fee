// Copyright 2025 The clrtrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gcsupload archives recorded trace files to Google Cloud Storage.
package gcsupload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/clrtrace/clrtrace/lib/logger"
)

// Destination is a parsed gs:// URL naming a bucket and an object prefix.
type Destination struct {
	Bucket string
	Prefix string
}

// ParseURL splits a gs://bucket/prefix URL into its parts.
func ParseURL(gsURL string) (Destination, error) {
	trimmed := strings.TrimPrefix(gsURL, "gs://")
	if trimmed == gsURL {
		return Destination{}, fmt.Errorf("GCS destination %q must start with gs://", gsURL)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if parts[0] == "" {
		return Destination{}, fmt.Errorf("GCS destination %q has no bucket", gsURL)
	}
	dst := Destination{Bucket: parts[0]}
	if len(parts) == 2 {
		dst.Prefix = strings.Trim(parts[1], "/")
	}
	return dst, nil
}

// objectName keys an uploaded file under the destination prefix.
func (d Destination) objectName(path string) string {
	base := filepath.Base(path)
	if d.Prefix == "" {
		return base
	}
	return d.Prefix + "/" + base
}

// Upload copies the file at path into the destination bucket and returns the
// object's gs:// URL. An object that already exists is kept as is rather
// than overwritten.
func Upload(ctx context.Context, dst Destination, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating storage client: %w", err)
	}
	defer client.Close()

	object := dst.objectName(path)
	url := fmt.Sprintf("gs://%s/%s", dst.Bucket, object)
	wc := client.Bucket(dst.Bucket).Object(object).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	if _, err := io.Copy(wc, f); err != nil {
		return "", fmt.Errorf("writing %s: %w", url, err)
	}
	if err := wc.Close(); err != nil {
		// Error 412 is the DoesNotExist precondition failing: the trace
		// was already archived.
		if !strings.Contains(err.Error(), "Error 412") {
			return "", fmt.Errorf("finalizing %s: %w", url, err)
		}
		logger.Debugf(ctx, "%s already exists, keeping the archived copy", url)
	}
	return url, nil
}

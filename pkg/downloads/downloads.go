// Convoy CLI
// Copyright (c) 2026 The Convoy Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Convoy CLI.
//
// Convoy CLI is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Convoy CLI is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Convoy CLI.  If not, see <http://www.gnu.org/licenses/>.

// Package downloads implements the HTTPS file download and checksum
// verification loop used for mod file and helper binary
// synchronization.
package downloads

import (
	"context"
	"crypto/md5" //nolint:gosec // Upstream publishes md5 digests; integrity only, not security
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// FileSpec names one file to fetch and verify.
type FileSpec struct {
	// Path is the URL path on the download host.
	Path string
	// Dest is the local destination file.
	Dest string
	// MD5 is the expected hex digest of the file contents.
	MD5 string
}

// CheckHash reports whether the file at path matches the expected md5
// hex digest.
func CheckHash(path, digest string) (bool, error) {
	f, err := os.Open(path) //nolint:gosec // Verifying files the launcher itself manages
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	h := md5.New() //nolint:gosec // Integrity check against upstream-published digests
	if _, err := io.Copy(h, f); err != nil {
		return false, fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)) == digest, nil
}

// Fetch downloads every file in files from host (HTTPS unless the
// host carries an explicit scheme), verifying
// each md5 digest, creating destination directories as needed, and
// applying the server's Last-Modified time to the local file. The
// first failure aborts the batch.
func Fetch(ctx context.Context, host string, files []FileSpec) error {
	client := &http.Client{Timeout: 10 * time.Minute}
	for i, file := range files {
		name := filepath.Base(file.Dest)
		fmt.Printf("[%d/%d] Get: %s\n", i+1, len(files), name)
		if err := fetchOne(ctx, client, host, file); err != nil {
			return fmt.Errorf("download %s: %w", name, err)
		}
	}
	return nil
}

func fetchOne(ctx context.Context, client *http.Client, host string, file FileSpec) error {
	if err := os.MkdirAll(filepath.Dir(file.Dest), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	base := host
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	url := base + file.Path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: status %s", url, resp.Status)
	}

	out, err := os.Create(file.Dest) //nolint:gosec // Destination comes from trusted file lists
	if err != nil {
		return fmt.Errorf("create %s: %w", file.Dest, err)
	}

	h := md5.New() //nolint:gosec // Integrity check against upstream-published digests
	if _, err := io.Copy(io.MultiWriter(out, h), resp.Body); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", file.Dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", file.Dest, err)
	}

	if got := hex.EncodeToString(h.Sum(nil)); got != file.MD5 {
		return fmt.Errorf("md5 mismatch for %s: got %s want %s", file.Dest, got, file.MD5)
	}

	// wget-like timestamping so subsequent runs can skip fresh files
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		if stamp, parseErr := http.ParseTime(lastMod); parseErr == nil {
			if chErr := os.Chtimes(file.Dest, stamp, stamp); chErr != nil {
				log.Debug().Err(chErr).Str("path", file.Dest).Msg("failed to set file time")
			}
		}
	}
	return nil
}

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

// Package helpers contains small path, file, and logging utilities
// shared across the launcher.
package helpers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
)

// ExeDir returns the directory containing the running executable, or
// an empty string if it cannot be determined.
func ExeDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(exe)
}

// DiscordSockets returns the Discord IPC socket paths currently
// present on the system. Discord creates its sockets under
// XDG_RUNTIME_DIR, with /tmp as the conventional fallback.
// An empty slice means no running Discord client was found.
func DiscordSockets(fs afero.Fs) []string {
	dir := xdg.RuntimeDir
	if dir == "" {
		dir = "/tmp"
	}
	matches, err := afero.Glob(fs, filepath.Join(dir, "discord-ipc-*"))
	if err != nil {
		return nil
	}
	return matches
}

// CopyFile copies src to dstDir keeping the base name, preserving the
// source file's permission bits. Returns the destination path.
func CopyFile(src, dstDir string) (string, error) {
	in, err := os.Open(src) //nolint:gosec // Paths come from validated launch config
	if err != nil {
		return "", fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", src, err)
	}

	dst := filepath.Join(dstDir, filepath.Base(src))
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec // Destination is a private temp dir
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("copy %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dst, err)
	}
	return dst, nil
}

// IsDOSStyleAbsPath reports whether path looks like a DOS/Windows
// style absolute path such as "C:\tools\app.exe". Third-party entries
// in the config file may point inside the Wine prefix with such paths.
func IsDOSStyleAbsPath(path string) bool {
	if len(path) < 3 {
		return false
	}
	drive := path[0]
	if (drive < 'a' || drive > 'z') && (drive < 'A' || drive > 'Z') {
		return false
	}
	return path[1] == ':' && (path[2] == '\\' || path[2] == '/')
}

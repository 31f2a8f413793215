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

package launcher

import (
	"fmt"
	"os"
	"strings"

	"github.com/ConvoyProject/convoy-cli/pkg/config"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers"
	"github.com/ConvoyProject/convoy-cli/pkg/steam"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// SharedPaths is the ordered, duplicate-free set of host paths exposed
// into the Steam Runtime container. Order is stable for a given input
// but carries no meaning to the container.
type SharedPaths struct {
	paths []string
	seen  map[string]struct{}
}

// Add appends path unless it is empty or already present.
func (s *SharedPaths) Add(path string) {
	if path == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, dup := s.seen[path]; dup {
		return
	}
	s.seen[path] = struct{}{}
	s.paths = append(s.paths, path)
}

// List returns the paths in insertion order.
func (s *SharedPaths) List() []string {
	return s.paths
}

// Len returns the number of paths.
func (s *SharedPaths) Len() int {
	return len(s.paths)
}

// TempShareDir is the scoped temporary directory used to expose the
// launcher's own helper binaries when they live under a path the
// container cannot share (a system-wide /usr install). It is acquired
// during path resolution and must be removed during cleanup.
type TempShareDir struct {
	Dir string
}

// Remove deletes the directory and its contents.
func (t *TempShareDir) Remove() {
	if t == nil || t.Dir == "" {
		return
	}
	if err := os.RemoveAll(t.Dir); err != nil {
		log.Warn().Err(err).Str("dir", t.Dir).Msg("failed to remove container sharing workaround dir")
	}
	t.Dir = ""
}

// ShareContext is the result of shared path resolution: the path set
// plus the effective locations of the helper binaries, which may have
// been copied into a temporary directory.
type ShareContext struct {
	Paths *SharedPaths
	Temp  *TempShareDir
	// HelperExe is the runtime helper executable to run inside the
	// container (the launcher binary itself).
	HelperExe string
	// InjectExe is the multiplayer mod loader.
	InjectExe string
}

// Cleanup releases the temporary directory, if any. Safe to call more
// than once.
func (c *ShareContext) Cleanup() {
	if c != nil {
		c.Temp.Remove()
	}
	if c != nil {
		c.Temp = nil
	}
}

// ResolveSharedPaths computes the host paths that must be visible
// inside the Steam Runtime container for this launch. sandboxEnabled
// false yields an empty set; the effective helper paths are still
// filled in. sockets are discovered presence bridge IPC sockets.
func ResolveSharedPaths(
	fs afero.Fs,
	req *Request,
	sandboxEnabled bool,
	steamDir string,
	sockets []string,
) (*ShareContext, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate own executable: %w", err)
	}
	share := &ShareContext{
		Paths:     &SharedPaths{},
		HelperExe: exe,
		InjectExe: req.InjectExe,
	}

	if !sandboxEnabled {
		return share, nil
	}

	share.Paths.Add(req.GameDir)
	share.Paths.Add(req.RunnerDir)
	share.Paths.Add(req.PrefixDir)
	share.Paths.Add(config.DataDir())

	if req.Singleplayer {
		// workshop mods may load from any library, not just the one
		// holding the game install
		for _, dir := range steam.LibraryDirs(fs, steamDir) {
			share.Paths.Add(dir)
		}
	} else {
		share.Paths.Add(req.ModDir)
	}

	exeDir := helpers.ExeDir()
	if strings.HasPrefix(exeDir, "/usr/") {
		// a system-wide install cannot be shared into the container;
		// copy the binaries we need into a private temp dir instead
		log.Info().Str("dir", exeDir).Msg("system-wide installation detected")
		tempDir, tmpErr := os.MkdirTemp("", "convoy-container-sharing-workaround-")
		if tmpErr != nil {
			return nil, fmt.Errorf("create sharing workaround dir: %w", tmpErr)
		}
		share.Temp = &TempShareDir{Dir: tempDir}

		copied, copyErr := helpers.CopyFile(exe, tempDir)
		if copyErr != nil {
			share.Cleanup()
			return nil, fmt.Errorf("copy runtime helper: %w", copyErr)
		}
		share.HelperExe = copied

		if !req.Singleplayer {
			copied, copyErr = helpers.CopyFile(req.InjectExe, tempDir)
			if copyErr != nil {
				share.Cleanup()
				return nil, fmt.Errorf("copy mod loader: %w", copyErr)
			}
			share.InjectExe = copied
		}
		share.Paths.Add(tempDir)
	} else {
		share.Paths.Add(exeDir)
	}

	for _, socket := range sockets {
		share.Paths.Add(socket)
	}

	log.Debug().Strs("paths", share.Paths.List()).Msg("container shared paths")
	return share, nil
}

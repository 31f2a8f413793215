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

package steam

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ConvoyProject/convoy-cli/pkg/config"
	"github.com/andygrunwald/vdf"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// LibraryDirs returns every Steam library directory, starting with the
// installation itself. Additional libraries come from
// libraryfolders.vdf, which exists in two formats: the legacy flat one
// where numbered keys map directly to paths, and the current nested
// one where each numbered entry holds a "path" key. Entries come back
// in library index order. Parse failures are
// not fatal; workshop content simply won't resolve from the missing
// libraries.
func LibraryDirs(fs afero.Fs, steamDir string) []string {
	dirs := []string{steamDir}

	m, ok := parseLibraryVDF(fs, steamDir)
	if !ok {
		return dirs
	}

	folders, ok := lookupFold(m, "libraryfolders")
	if !ok {
		log.Debug().Msg("libraryfolders.vdf has no libraryfolders block")
		return dirs
	}

	// numbered entries in index order; non-numeric keys are metadata
	// (TimeNextStatsReport etc.)
	keys := make([]string, 0, len(folders))
	for key := range folders {
		if _, err := strconv.Atoi(key); err == nil {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})

	for _, key := range keys {
		switch entry := folders[key].(type) {
		case string:
			// legacy flat format
			dirs = append(dirs, entry)
		case map[string]any:
			if path, pathOK := entry["path"].(string); pathOK {
				dirs = append(dirs, path)
			}
		}
	}
	return dirs
}

func parseLibraryVDF(fs afero.Fs, steamDir string) (map[string]any, bool) {
	for _, inner := range []string{config.LibraryVDFInner, config.LegacyLibraryVDFInner} {
		path := filepath.Join(steamDir, inner)
		f, err := fs.Open(path)
		if err != nil {
			continue
		}
		m, parseErr := vdf.NewParser(f).Parse()
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing libraryfolders.vdf")
		}
		if parseErr != nil {
			log.Error().Err(parseErr).Str("path", path).Msg("error parsing libraryfolders.vdf")
			continue
		}
		return m, true
	}
	return nil, false
}

// lookupFold finds key in m ignoring case; Valve is not consistent
// about "LibraryFolders" vs "libraryfolders" across client versions.
func lookupFold(m map[string]any, key string) (map[string]any, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			inner, ok := v.(map[string]any)
			return inner, ok
		}
	}
	return nil, false
}

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
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// RunnerVersion is the (major, minor) pair from a Proton
// installation's metadata. It only decides Steam Runtime container
// eligibility.
type RunnerVersion struct {
	Major int
	Minor int
}

// SandboxEligible reports whether this runner version supports
// running inside the Steam Runtime container. Proton gained container
// support in 5.13.
func (v RunnerVersion) SandboxEligible() bool {
	return v.Major >= 6 || (v.Major == 5 && v.Minor >= 13)
}

func (v RunnerVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ParseRunnerVersion reads the free-text "version" file inside the
// runner installation and extracts a major.minor pair. Known forms:
//
//	"1612345 proton-5.13-6"            -> 5.13
//	"1612345 6.1-GE-2"                 -> 6.1
//	"1612345 proton-tkg-6.8.r15.gabc"  -> 6.8
func ParseRunnerVersion(fs afero.Fs, runnerDir string) (RunnerVersion, error) {
	path := filepath.Join(runnerDir, "version")
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return RunnerVersion{}, fmt.Errorf("read runner version file: %w", err)
	}
	ver := string(raw)
	if len(ver) > 128 {
		ver = ver[:128]
	}

	var token string
	if idx := strings.Index(ver, "proton-tkg-"); idx >= 0 {
		token = ver[idx+len("proton-tkg-"):]
	} else {
		ver = strings.ReplaceAll(ver, "proton-", "")
		space := strings.Index(ver, " ")
		if space < 0 {
			return RunnerVersion{}, fmt.Errorf("unrecognized runner version %q", strings.TrimSpace(string(raw)))
		}
		token = ver[space+1:]
		if dash := strings.Index(token, "-"); dash >= 0 {
			token = token[:dash]
		}
	}

	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) < 2 {
		return RunnerVersion{}, fmt.Errorf("unrecognized runner version %q", strings.TrimSpace(string(raw)))
	}
	major, majorErr := strconv.Atoi(parts[0])
	minor, minorErr := strconv.Atoi(parts[1])
	if majorErr != nil || minorErr != nil {
		return RunnerVersion{}, fmt.Errorf("unrecognized runner version %q", strings.TrimSpace(string(raw)))
	}
	return RunnerVersion{Major: major, Minor: minor}, nil
}

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
	"github.com/andygrunwald/vdf"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// CurrentUser returns the account name with saved login credentials
// from the first readable loginusers.vdf in paths. The account must
// have RememberPassword set and be marked most recent ("MostRecent"
// or "mostrecent" depending on client version).
func CurrentUser(fs afero.Fs, paths []string) (string, bool) {
	for _, path := range paths {
		f, err := fs.Open(path)
		if err != nil {
			continue
		}
		m, parseErr := vdf.NewParser(f).Parse()
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing loginusers.vdf")
		}
		if parseErr != nil {
			log.Debug().Err(parseErr).Str("path", path).Msg("error parsing loginusers.vdf")
			continue
		}

		users, ok := m["users"].(map[string]any)
		if !ok {
			continue
		}
		for _, v := range users {
			info, infoOK := v.(map[string]any)
			if !infoOK {
				continue
			}
			if info["RememberPassword"] != "1" {
				continue
			}
			if info["MostRecent"] != "1" && info["mostrecent"] != "1" {
				continue
			}
			if name, nameOK := info["AccountName"].(string); nameOK {
				return name, true
			}
		}
	}
	return "", false
}

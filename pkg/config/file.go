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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ConvoyProject/convoy-cli/pkg/helpers"
	"github.com/rs/zerolog/log"
	ini "gopkg.in/ini.v1"
)

// File is the parsed launcher configuration file. Only third-party
// program wiring and presence bridge policy live here; everything else
// comes from command-line flags.
type File struct {
	// ThirdPartyExecutables are helper programs started before the
	// game, in file order.
	ThirdPartyExecutables []string

	// ThirdPartyWait is the aggregate delay in seconds applied after
	// starting all third-party programs. The largest configured wait
	// wins.
	ThirdPartyWait int

	// DisablePresenceBridge is set when the configuration decides the
	// presence bridge is not wanted for this game/mode combination.
	DisablePresenceBridge bool
}

// LoadFile reads the INI configuration at path. gameKey selects which
// sections apply: "ets2"/"ats" for singleplayer, "ets2mp"/"atsmp" for
// multiplayer. A missing file yields an empty configuration.
//
// Third-party sections are matched by name:
//
//	[thirdparty.prog1]        -> all games
//	[thirdparty.ets2mp.prog1] -> ETS2 multiplayer only
//	[thirdparty.ats.prog1]    -> ATS singleplayer only
func LoadFile(path, gameKey string) (*File, error) {
	cfg := &File{}

	if _, err := os.Stat(path); err != nil {
		log.Debug().Str("path", path).Msg("no configuration file found")
		return cfg, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	wantsRichPresence := 0
	for _, sect := range iniFile.Sections() {
		name := sect.Name()
		if !strings.HasPrefix(name, "thirdparty.") || !sect.HasKey("executable") {
			continue
		}
		// sections with a game component apply to that game only
		if strings.Count(name, ".") == 2 &&
			!strings.HasPrefix(name, "thirdparty."+gameKey+".") {
			continue
		}

		wait, waitErr := sect.Key("wait").Int()
		if waitErr != nil {
			wait = 0
		}
		if wait > cfg.ThirdPartyWait {
			cfg.ThirdPartyWait = wait
		}

		exePath := sect.Key("executable").String()
		switch {
		case filepath.IsAbs(exePath) || helpers.IsDOSStyleAbsPath(exePath):
			cfg.ThirdPartyExecutables = append(cfg.ThirdPartyExecutables, exePath)
		default:
			// relative paths are resolved against the data directory
			cfg.ThirdPartyExecutables = append(
				cfg.ThirdPartyExecutables, filepath.Join(DataDir(), exePath))
		}

		wants, wantsErr := sect.Key("wants-rich-presence").Bool()
		if wantsErr != nil && sect.HasKey("wants-rich-presence") {
			return nil, fmt.Errorf(
				"config %s: section %s: wants-rich-presence: %w", path, name, wantsErr)
		}
		if wants {
			wantsRichPresence++
		}
	}

	if gameSect, sectErr := iniFile.GetSection(gameKey); sectErr == nil {
		withoutRP := false
		if gameSect.HasKey("without-rich-presence") {
			withoutRP, err = gameSect.Key("without-rich-presence").Bool()
			if err != nil {
				return nil, fmt.Errorf(
					"config %s: section %s: without-rich-presence: %w", path, gameKey, err)
			}
		}
		// the bridge is pointless for a singleplayer game unless some
		// third-party program asked for it
		if withoutRP || (!strings.Contains(gameKey, "mp") && wantsRichPresence == 0) {
			log.Debug().Str("game", gameKey).
				Msg("disabling presence bridge per configuration")
			cfg.DisablePresenceBridge = true
		}
	}

	return cfg, nil
}

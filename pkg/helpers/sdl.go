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

package helpers

import (
	"context"
	"strings"

	"github.com/ConvoyProject/convoy-cli/pkg/helpers/command"
	"github.com/rs/zerolog/log"
)

// libSDL2SOName is the shared object the games link against.
const libSDL2SOName = "libSDL2-2.0.so.0"

// HasLibSDL2 reports whether the dynamic linker can resolve the SDL2
// runtime library, which the games need even under Wine. The linker
// cache is consulted via ldconfig to keep cgo out of the build;
// ldconfig often lives in sbin, so both names are tried. When the
// cache cannot be read at all the library is assumed present and the
// game surfaces the failure itself.
func HasLibSDL2(ctx context.Context, exec command.Executor) bool {
	for _, name := range []string{"ldconfig", "/sbin/ldconfig"} {
		out, err := exec.CombinedOutput(ctx, command.Spec{Name: name, Args: []string{"-p"}})
		if err != nil {
			continue
		}
		return strings.Contains(string(out), libSDL2SOName)
	}
	log.Warn().Msg("unable to read the dynamic linker cache, assuming SDL2 is installed")
	return true
}

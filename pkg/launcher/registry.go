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
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ConvoyProject/convoy-cli/pkg/config"
	"github.com/ConvoyProject/convoy-cli/pkg/downloads"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers/command"
	"github.com/rs/zerolog/log"
)

const (
	regKeyExplorer = `HKCU\Software\Wine\Explorer`
	regKeyDesktops = `HKCU\Software\Wine\Explorer\Desktops`
)

// wineToolEnv builds the environment for wine management commands
// (registry edits, wineboot) against the given prefix. On the Proton
// path the esync/fsync toggles mirror Proton's own to avoid prefix
// inconsistency warnings.
func wineToolEnv(baseEnv []string, prefix string, proton bool) []string {
	env := append([]string(nil), baseEnv...)
	env = helpers.EnvSet(env, config.EnvWineDebug, "-all")
	env = helpers.EnvSet(env, config.EnvWinePrefix, prefix)
	if proton {
		esync, fsync := "1", "1"
		if helpers.EnvEnabled(env, config.EnvProtonNoESync) {
			esync = "0"
		}
		if helpers.EnvEnabled(env, config.EnvProtonNoFSync) {
			fsync = "0"
		}
		env = helpers.EnvSet(env, config.EnvWineESync, esync)
		env = helpers.EnvSet(env, config.EnvWineFSync, fsync)
	}
	return env
}

// setDesktopRegistry enables or disables the Wine virtual desktop for
// a prefix. Both directions are idempotent; a failed registry edit is
// logged but never aborts the launch, matching wine's own tolerance of
// missing keys on delete.
func setDesktopRegistry(
	ctx context.Context,
	exec command.Executor,
	wineArgv, env []string,
	size string,
	enable bool,
) {
	runReg := func(args ...string) {
		spec := command.Spec{
			Name: wineArgv[0],
			Args: append(append([]string(nil), wineArgv[1:]...), args...),
			Env:  env,
		}
		if err := exec.Run(ctx, spec); err != nil {
			log.Warn().Err(err).Strs("args", args).Msg("wine registry edit failed")
		}
	}

	if enable {
		log.Info().Str("size", size).Msg("enabling Wine desktop")
		runReg("reg", "add", regKeyExplorer, "/v", "Desktop", "/t", "REG_SZ", "/d", "Default", "/f")
		runReg("reg", "add", regKeyDesktops, "/v", "Default", "/t", "REG_SZ", "/d", size, "/f")
		return
	}
	log.Info().Msg("disabling Wine desktop")
	runReg("reg", "delete", regKeyExplorer, "/v", "Desktop", "/f")
	runReg("reg", "delete", regKeyDesktops, "/v", "Default", "/f")
}

// d3dCompilerInstalled reports whether the prefix already carries the
// native d3dcompiler_47.dll with the expected digest, making setup
// skippable.
func d3dCompilerInstalled(prefix string) bool {
	installed := filepath.Join(prefix, "drive_c/windows/system32/d3dcompiler_47.dll")
	ok, err := downloads.CheckHash(installed, config.D3DCompilerMD5)
	return err == nil && ok
}

// activateNativeD3DCompiler installs the native 64-bit
// d3dcompiler_47.dll into the prefix and registers a DLL override for
// the game executable. dllPath must already exist and be verified.
func activateNativeD3DCompiler(
	ctx context.Context,
	exec command.Executor,
	wineArgv, env []string,
	prefix, game, dllPath string,
) error {
	destDir := filepath.Join(prefix, "drive_c/windows/system32")
	log.Debug().Str("dir", destDir).Msg("installing native d3dcompiler_47.dll")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", destDir, err)
	}
	if _, err := helpers.CopyFile(dllPath, destDir); err != nil {
		return fmt.Errorf("install d3dcompiler_47.dll: %w", err)
	}

	exeName := config.GameExeNames[game]
	regKey := `HKCU\Software\Wine\AppDefaults\` + exeName + `\DllOverrides`
	spec := command.Spec{
		Name: wineArgv[0],
		Args: append(append([]string(nil), wineArgv[1:]...),
			"reg", "add", regKey,
			"/v", "d3dcompiler_47", "/t", "REG_SZ", "/d", "native", "/f"),
		Env: env,
	}
	if err := exec.Run(ctx, spec); err != nil {
		// wine may still have applied the override; not worth failing
		// the launch over
		log.Warn().Err(err).Msg("failed to register d3dcompiler_47 override")
	}
	return nil
}

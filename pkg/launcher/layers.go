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
	"path/filepath"
	"strconv"

	"github.com/ConvoyProject/convoy-cli/pkg/config"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers"
)

// LayerInput carries everything the process tree builder needs. All
// fields are data; building layers spawns nothing and is
// deterministic for a given input.
type LayerInput struct {
	Request  *Request
	SteamDir string
	// SandboxEnabled wraps the tree in the Steam Runtime container.
	SandboxEnabled bool
	// SharedPaths are exposed into the container, one --filesystem
	// flag each.
	SharedPaths []string
	// HelperExe is the runtime helper binary (the launcher itself).
	HelperExe string
	// InjectExe is the effective mod loader path.
	InjectExe string
	// BridgeExe is the presence bridge executable, empty when the
	// bridge is not wanted for this launch.
	BridgeExe string
	// WineCommand is the wine binary for direct (non-runner) layers.
	WineCommand string
	// BaseEnv is the parent environment the child env derives from.
	BaseEnv []string
}

// ProcessLayers is the assembled invocation, outer to inner. Layers
// compose by concatenation; empty layers drop out.
type ProcessLayers struct {
	// Sandbox wraps everything in the Steam Runtime container
	// ("<runtime>/run --filesystem <p>... --").
	Sandbox []string
	// Helper runs the supervision helper ("<exe> runtime-helper
	// <flags> --"), present only on the Proton path.
	Helper []string
	// Compat invokes the compatibility layer ("python3 <proton> run"
	// or "<wine> [explorer /desktop=...]").
	Compat []string
	// Game is the innermost invocation: game executable or mod loader
	// plus game options.
	Game []string
	// Env is the full child environment.
	Env []string
}

// Main returns the compat+game argument vector, the part the helper
// executes as its final child.
func (l *ProcessLayers) Main() []string {
	out := make([]string, 0, len(l.Compat)+len(l.Game))
	out = append(out, l.Compat...)
	out = append(out, l.Game...)
	return out
}

// Full returns the complete outer argument vector.
func (l *ProcessLayers) Full() []string {
	out := make([]string, 0,
		len(l.Sandbox)+len(l.Helper)+len(l.Compat)+len(l.Game))
	out = append(out, l.Sandbox...)
	out = append(out, l.Helper...)
	out = append(out, l.Compat...)
	out = append(out, l.Game...)
	return out
}

// BuildLayers assembles the ordered argument vectors for every layer
// wrapping the game invocation, plus the environment they run with.
func BuildLayers(in LayerInput) *ProcessLayers {
	req := in.Request
	layers := &ProcessLayers{}

	if req.Runner == RunnerProton {
		buildProtonLayers(in, layers)
	} else {
		buildWineLayers(in, layers)
	}
	return layers
}

func buildProtonLayers(in LayerInput, layers *ProcessLayers) {
	req := in.Request

	if in.SandboxEnabled {
		layers.Sandbox = sandboxRunArgs(req.SteamRuntimeDir, in.SharedPaths)
	}

	layers.Helper = append(layers.Helper, in.HelperExe, "runtime-helper")
	if in.BridgeExe != "" {
		layers.Helper = append(layers.Helper,
			"--early-executable", in.BridgeExe,
			"--early-wait", strconv.Itoa(presenceBridgeWait))
	}
	for _, program := range req.ThirdParty {
		layers.Helper = append(layers.Helper, "--executable", program.Path)
	}
	layers.Helper = append(layers.Helper, "--wait", strconv.Itoa(req.ThirdPartyWait))
	switch {
	case req.Verbose >= 2:
		layers.Helper = append(layers.Helper, "-vv")
	case req.Verbose == 1:
		layers.Helper = append(layers.Helper, "-v")
	}
	layers.Helper = append(layers.Helper, "--")

	// Proton is a python script; the interpreter comes from the
	// container on sandboxed launches
	layers.Compat = append(layers.Compat,
		"python3", filepath.Join(req.RunnerDir, "proton"), "run")

	layers.Game = gameArgs(req, in.InjectExe)
	layers.Env = protonEnv(in)
}

func buildWineLayers(in LayerInput, layers *ProcessLayers) {
	req := in.Request

	layers.Compat = append(layers.Compat, in.WineCommand)
	if req.WineDesktop != "" {
		layers.Compat = append(layers.Compat,
			"explorer", "/desktop=Convoy,"+req.WineDesktop)
	}

	layers.Game = gameArgs(req, in.InjectExe)
	layers.Env = wineEnv(in)
}

// sandboxRunArgs builds the Steam Runtime container entrypoint: the
// run command, one --filesystem flag per shared path, and the
// separator before the wrapped command.
func sandboxRunArgs(runtimeDir string, sharedPaths []string) []string {
	args := []string{filepath.Join(runtimeDir, "run")}
	for _, path := range sharedPaths {
		args = append(args, "--filesystem", path)
	}
	return append(args, "--")
}

// gameArgs builds the innermost invocation: the game executable for
// singleplayer, or the mod loader with its game and mod directories
// for multiplayer, followed by the rendering backend selector and any
// extra game options.
func gameArgs(req *Request, injectExe string) []string {
	var args []string
	if req.Singleplayer {
		args = append(args, req.GameExePath())
	} else {
		args = append(args, injectExe, req.GameDir, req.ModDir)
	}
	args = append(args, "-rdevice", req.RenderingBackend)
	args = append(args, req.GameOptions...)
	return args
}

// protonEnv composes the environment for a Proton launch. Later
// assignment wins; everything else is inherited from BaseEnv.
func protonEnv(in LayerInput) []string {
	req := in.Request
	env := append([]string(nil), in.BaseEnv...)

	appID := strconv.Itoa(req.SteamAppID)
	env = helpers.EnvSet(env, config.EnvSteamAppID, appID)
	env = helpers.EnvSet(env, config.EnvSteamGameID, appID)
	env = helpers.EnvSet(env, config.EnvCompatDataPath, req.PrefixDir)
	env = helpers.EnvSet(env, config.EnvCompatClientInstall, in.SteamDir)
	if req.UseWineD3D {
		env = helpers.EnvSet(env, config.EnvProtonUseWineD3D, "1")
	} else {
		env = helpers.EnvSet(env, config.EnvProtonUseWineD3D, "0")
	}

	if !req.DisableOverlay {
		overlay := filepath.Join(in.SteamDir, config.OverlayRendererInner)
		if existing, ok := helpers.EnvGet(env, config.EnvLDPreload); ok && existing != "" {
			env = helpers.EnvSet(env, config.EnvLDPreload, existing+":"+overlay)
		} else {
			env = helpers.EnvSet(env, config.EnvLDPreload, overlay)
		}
	}
	return env
}

// wineEnv composes the environment for a direct Wine launch.
func wineEnv(in LayerInput) []string {
	req := in.Request
	env := append([]string(nil), in.BaseEnv...)

	env = helpers.EnvSet(env, config.EnvWineDebug, "-all")
	env = helpers.EnvSet(env, config.EnvWineArch, "win64")
	env = helpers.EnvSet(env, config.EnvWinePrefix, req.PrefixDir)

	overrides, _ := helpers.EnvGet(env, config.EnvWineDLLOverrides)
	if !req.EnableD3D11 {
		overrides += ";d3d11=;dxgi="
	}
	env = helpers.EnvSet(env, config.EnvWineDLLOverrides, overrides)
	return env
}

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

// Package launcher orchestrates starting the game under a
// compatibility layer: shared path resolution for the Steam Runtime
// container, process layer construction, third-party helper
// supervision, and the launch state machine itself.
package launcher

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ConvoyProject/convoy-cli/pkg/config"
	"github.com/go-playground/validator/v10"
)

// Runner choices.
const (
	RunnerProton = "proton"
	RunnerWine   = "wine"
)

// Rendering backends selectable with -rdevice.
const (
	BackendDX11   = "dx11"
	BackendOpenGL = "gl"
)

// ThirdPartyProgram is one user-configured helper executable started
// ahead of the game.
type ThirdPartyProgram struct {
	Path string `validate:"required"`
	Wait int    `validate:"gte=0"`
}

// Request describes one launch. It is constructed once from validated
// flags and configuration and is read-only afterwards; every component
// receives the same value.
type Request struct {
	// Game is "ats" or "ets2".
	Game string `validate:"required,oneof=ats ets2"`
	// SteamAppID is the numeric app identifier for Game.
	SteamAppID int `validate:"required,gt=0"`
	// Singleplayer launches the plain game instead of injecting the
	// multiplayer mod.
	Singleplayer bool

	// Runner selects the compatibility layer.
	Runner string `validate:"required,oneof=proton wine"`

	GameDir         string `validate:"required"`
	PrefixDir       string `validate:"required"`
	RunnerDir       string `validate:"required_if=Runner proton"`
	ModDir          string
	SteamRuntimeDir string
	// InjectExe is the multiplayer mod loader executable.
	InjectExe string

	// WineCommand is the wine executable for the wine runner.
	WineCommand string
	// WineSteamDir is the Windows Steam install inside the prefix.
	WineSteamDir string
	// NativeSteamDir pins the native Steam install; "auto" detects.
	NativeSteamDir string

	RenderingBackend string `validate:"required,oneof=dx11 gl"`
	UseWineD3D       bool
	EnableD3D11      bool
	// ActivateNativeD3DCompiler forces installing the native
	// d3dcompiler_47.dll into the prefix before launch.
	ActivateNativeD3DCompiler bool

	// WineDesktop is a WIDTHxHEIGHT virtual desktop size, or empty.
	WineDesktop string `validate:"omitempty,desktopsize"`

	DisableOverlay        bool
	DisableSandbox        bool
	DisablePresenceBridge bool

	// GameOptions are extra arguments appended to the game invocation.
	GameOptions []string

	ThirdParty []ThirdPartyProgram `validate:"dive"`
	// ThirdPartyWait is the aggregate delay after starting all
	// third-party programs, in seconds.
	ThirdPartyWait int `validate:"gte=0"`

	Verbose int
}

// GameKey returns the configuration key for this game/mode
// combination: "ets2", "ets2mp", "ats", or "atsmp".
func (r *Request) GameKey() string {
	if r.Singleplayer {
		return r.Game
	}
	return r.Game + "mp"
}

// GameExePath returns the Windows game executable path for
// singleplayer launches.
func (r *Request) GameExePath() string {
	return filepath.Join(r.GameDir, "bin/win_x64", config.GameExeNames[r.Game])
}

var requestValidate = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	// WIDTHxHEIGHT, both positive integers
	must := v.RegisterValidation("desktopsize", func(fl validator.FieldLevel) bool {
		parts := strings.Split(fl.Field().String(), "x")
		if len(parts) != 2 {
			return false
		}
		width, wErr := strconv.Atoi(parts[0])
		height, hErr := strconv.Atoi(parts[1])
		return wErr == nil && hErr == nil && width > 0 && height > 0
	})
	if must != nil {
		panic(must)
	}
	return v
}

// Validate checks structural validity of the request. Path existence
// is checked later, at the stage that consumes each path.
func (r *Request) Validate() error {
	if err := requestValidate.Struct(r); err != nil {
		return fmt.Errorf("invalid launch request: %w", err)
	}
	return nil
}

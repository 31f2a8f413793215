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

// Package config holds application constants, default paths, and the
// launcher configuration file loader.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const AppName = "convoy"

// AppVersion is overridden at build time with -ldflags.
var AppVersion = "DEVELOPMENT"

// Supported games.
const (
	GameATS  = "ats"
	GameETS2 = "ets2"
)

// SteamAppIDs maps each supported title to its Steam app identifier.
var SteamAppIDs = map[string]int{
	GameATS:  270880,
	GameETS2: 227300,
}

// GameExeNames maps each title to its Windows executable name inside
// <gamedir>/bin/win_x64.
var GameExeNames = map[string]string{
	GameATS:  "amtrucks.exe",
	GameETS2: "eurotrucks2.exe",
}

// Environment variable keys consumed by the wrapped binaries. The
// exact spellings are load-bearing; Proton and the Steam client read
// these verbatim.
const (
	EnvSteamAppID          = "SteamAppId"
	EnvSteamGameID         = "SteamGameId"
	EnvProtonUseWineD3D    = "PROTON_USE_WINED3D"
	EnvCompatDataPath      = "STEAM_COMPAT_DATA_PATH"
	EnvCompatClientInstall = "STEAM_COMPAT_CLIENT_INSTALL_PATH"
	EnvLDPreload           = "LD_PRELOAD"
	EnvWineDebug           = "WINEDEBUG"
	EnvWineArch            = "WINEARCH"
	EnvWinePrefix          = "WINEPREFIX"
	EnvWineDLLOverrides    = "WINEDLLOVERRIDES"
	EnvWineESync           = "WINEESYNC"
	EnvWineFSync           = "WINEFSYNC"
	EnvProtonNoESync       = "PROTON_NO_ESYNC"
	EnvProtonNoFSync       = "PROTON_NO_FSYNC"
)

// Steam client file locations, relative to a Steam installation.
const (
	LoginVDFInner         = "config/loginusers.vdf"
	LibraryVDFInner       = "steamapps/libraryfolders.vdf"
	LegacyLibraryVDFInner = "config/libraryfolders.vdf"
	OverlayRendererInner  = "ubuntu12_64/gameoverlayrenderer.so"
)

// Download endpoints for mod files and helper binaries.
const (
	ModDownloadHost    = "download.ets2mp.com"
	ModDownloadHostAlt = "failover.truckersmp.com"
	ModFileListURL     = "https://update.ets2mp.com/files.json"
	ModVersionAPIURL   = "https://api.truckersmp.com/v2/version"
	GitHubRawHost      = "raw.githubusercontent.com"
	D3DCompilerPath    = "/ImagingSIMS/ImagingSIMS/master/Redist/x64/d3dcompiler_47.dll"
	D3DCompilerMD5     = "b2cc65e1930e75f563078c6a20221b37"
	IPCBridgePath      = "/0e4ef622/wine-discord-ipc-bridge/master/build/winediscordipcbridge.exe"
	IPCBridgeMD5       = "fb60b2153a7d29c0b0a076ba9ea04d3e"
)

// InjectExeName is the multiplayer mod loader executable shipped next
// to the launcher binary.
const InjectExeName = "convoy-inject.exe"

var gameDataDirNames = map[string]string{
	GameATS:  "American Truck Simulator",
	GameETS2: "Euro Truck Simulator 2",
}

// DataDir returns the launcher's data directory root.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultGameDir returns the default game file directory for game.
func DefaultGameDir(game string) string {
	return filepath.Join(DataDir(), gameDataDirNames[game], "data")
}

// DefaultPrefixDir returns the default compatibility prefix directory
// for game.
func DefaultPrefixDir(game string) string {
	return filepath.Join(DataDir(), gameDataDirNames[game], "prefix")
}

// DefaultModDir returns the default multiplayer mod directory.
func DefaultModDir() string {
	return filepath.Join(DataDir(), "TruckersMP")
}

// DefaultProtonDir returns the default Proton installation directory.
func DefaultProtonDir() string {
	return filepath.Join(DataDir(), "Proton")
}

// DefaultRuntimeDir returns the default Steam Runtime container
// directory.
func DefaultRuntimeDir() string {
	return filepath.Join(DataDir(), "SteamRuntime")
}

// DefaultConfigFile returns the default launcher configuration file
// path.
func DefaultConfigFile() string {
	return filepath.Join(xdg.ConfigHome, AppName, AppName+".conf")
}

// DLLDir returns the directory holding downloaded native DLLs.
func DLLDir() string {
	return filepath.Join(DataDir(), "dlls")
}

// IPCBridgeFile returns the full path of the presence bridge
// executable.
func IPCBridgeFile() string {
	return filepath.Join(DataDir(), "wine-discord-ipc-bridge", "winediscordipcbridge.exe")
}

// D3DCompilerFile returns the full path of the downloaded native
// d3dcompiler_47.dll.
func D3DCompilerFile() string {
	return filepath.Join(DLLDir(), "d3dcompiler_47.dll")
}

// LoginVDFPaths returns the known locations of the Steam client's
// loginusers.vdf across distributions, in preference order.
func LoginVDFPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return []string{
		// Official (Valve) install
		filepath.Join(xdg.DataHome, "Steam", LoginVDFInner),
		// Debian-based systems, old path
		filepath.Join(home, ".steam", LoginVDFInner),
		// Debian-based systems, new path
		filepath.Join(home, ".steam", "debian-installation", LoginVDFInner),
	}
}

// FallbackSteamDir returns the install directory assumed when Steam
// readiness detection finds nothing better.
func FallbackSteamDir() string {
	return filepath.Join(xdg.DataHome, "Steam")
}

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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/ConvoyProject/convoy-cli/internal/telemetry"
	"github.com/ConvoyProject/convoy-cli/pkg/config"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers/command"
	"github.com/ConvoyProject/convoy-cli/pkg/launcher"
	"github.com/ConvoyProject/convoy-cli/pkg/mods"
	"github.com/ConvoyProject/convoy-cli/pkg/steam"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func main() {
	// the runtime-helper subcommand runs inside the Steam Runtime
	// container and has its own flag contract
	if len(os.Args) > 1 && os.Args[1] == "runtime-helper" {
		os.Exit(runRuntimeHelper(os.Args[2:]))
	}

	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// countValue implements a repeatable boolean flag (-v -v).
type countValue int

func (c *countValue) String() string { return strconv.Itoa(int(*c)) }

func (*countValue) IsBoolFlag() bool { return true }

func (c *countValue) Set(value string) error {
	if value == "true" {
		*c++
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid verbosity %q: %w", value, err)
	}
	*c = countValue(n)
	return nil
}

type options struct {
	ats          bool
	ets2         bool
	proton       bool
	wine         bool
	start        bool
	update       bool
	singleplayer bool

	beta      string
	account   string
	gameDir   string
	prefixDir string
	protonDir string
	modDir    string

	configFile string
	logFile    string

	enableD3D11    bool
	useWineD3D     bool
	wineDesktop    string
	wineSteamDir   string
	nativeSteamDir string
	runtimeDir     string

	disableSandbox bool
	disableOverlay bool
	disableBridge  bool
	activateNative bool
	gameOptions    string
	reportErrors   bool
	printVersion   bool
	verbose        countValue
	veryVerbose    bool
}

func setupFlags(opts *options) {
	flag.BoolVar(&opts.ats, "a", false, "use American Truck Simulator")
	flag.BoolVar(&opts.ats, "ats", false, "use American Truck Simulator")
	flag.BoolVar(&opts.ets2, "e", false, "use Euro Truck Simulator 2 (default when neither game is given)")
	flag.BoolVar(&opts.ets2, "ets2", false, "use Euro Truck Simulator 2 (default when neither game is given)")
	flag.BoolVar(&opts.proton, "p", false, "start the game with Proton (default on Linux)")
	flag.BoolVar(&opts.proton, "proton", false, "start the game with Proton (default on Linux)")
	flag.BoolVar(&opts.wine, "w", false, "start the game with Wine")
	flag.BoolVar(&opts.wine, "wine", false, "start the game with Wine")
	flag.BoolVar(&opts.start, "s", false, "start the game (default when neither -s nor -u is given)")
	flag.BoolVar(&opts.start, "start", false, "start the game (default when neither -s nor -u is given)")
	flag.BoolVar(&opts.update, "u", false, "update the mod files (default when neither -s nor -u is given)")
	flag.BoolVar(&opts.update, "update", false, "update the mod files (default when neither -s nor -u is given)")
	flag.BoolVar(&opts.singleplayer, "singleplayer", false, "start the singleplayer game without the multiplayer mod")

	flag.StringVar(&opts.beta, "b", "", "set game version branch, useful for downgrading (e.g. temporary_1_35)")
	flag.StringVar(&opts.beta, "beta", "", "set game version branch, useful for downgrading (e.g. temporary_1_35)")
	flag.StringVar(&opts.account, "n", "", "steam account name to use")
	flag.StringVar(&opts.account, "account", "", "steam account name to use")
	flag.StringVar(&opts.gameDir, "g", "", "directory for the game files")
	flag.StringVar(&opts.gameDir, "gamedir", "", "directory for the game files")
	flag.StringVar(&opts.prefixDir, "x", "", "directory for the compatibility prefix")
	flag.StringVar(&opts.prefixDir, "prefixdir", "", "directory for the compatibility prefix")
	flag.StringVar(&opts.protonDir, "o", config.DefaultProtonDir(), "directory of the Proton installation")
	flag.StringVar(&opts.protonDir, "protondir", config.DefaultProtonDir(), "directory of the Proton installation")
	flag.StringVar(&opts.modDir, "m", "", "directory for the mod files")
	flag.StringVar(&opts.modDir, "moddir", "", "directory for the mod files")

	flag.StringVar(&opts.configFile, "c", config.DefaultConfigFile(), "configuration file path")
	flag.StringVar(&opts.configFile, "configfile", config.DefaultConfigFile(), "configuration file path")
	flag.StringVar(&opts.logFile, "l", "", "also write log output to this file")
	flag.StringVar(&opts.logFile, "logfile", "", "also write log output to this file")

	flag.BoolVar(&opts.enableD3D11, "d", false, "use Direct3D 11 instead of OpenGL")
	flag.BoolVar(&opts.enableD3D11, "enable-d3d11", false, "use Direct3D 11 instead of OpenGL")
	flag.BoolVar(&opts.useWineD3D, "use-wined3d", false, "use OpenGL-based D3D11 instead of DXVK when using Proton")
	flag.StringVar(&opts.wineDesktop, "wine-desktop", "", "use a Wine virtual desktop, size must be WIDTHxHEIGHT (e.g. 1920x1080)")
	flag.StringVar(&opts.wineSteamDir, "wine-steam-dir", "", "directory of the Windows Steam install inside the prefix")
	flag.StringVar(&opts.nativeSteamDir, "native-steam-dir", "auto", "native Steam installation directory (\"auto\" to detect)")
	flag.StringVar(&opts.runtimeDir, "steamruntime-dir", config.DefaultRuntimeDir(), "directory of the Steam Runtime container")

	flag.BoolVar(&opts.disableSandbox, "disable-steamruntime", false, "run Proton without the Steam Runtime container")
	flag.BoolVar(&opts.disableOverlay, "disable-proton-overlay", false, "disable the Steam overlay when using Proton")
	flag.BoolVar(&opts.disableBridge, "without-discord-bridge", false, "do not start the Discord presence bridge")
	flag.BoolVar(&opts.activateNative, "activate-native-d3dcompiler", false, "install the native 64-bit d3dcompiler_47.dll before starting")
	flag.StringVar(&opts.gameOptions, "game-options", "-nointro -64bit", "extra options passed to the game")
	flag.BoolVar(&opts.reportErrors, "report-errors", false, "send anonymized error reports")
	flag.BoolVar(&opts.printVersion, "version", false, "print version information and quit")
	flag.Var(&opts.verbose, "v", "verbose output (once: info, twice: debug)")
	flag.BoolVar(&opts.veryVerbose, "vv", false, "debug output, same as -v -v")
}

func run() error {
	var opts options
	setupFlags(&opts)
	flag.Parse()

	if opts.printVersion {
		fmt.Println(config.AppVersion)
		return nil
	}

	verbosity := int(opts.verbose)
	if opts.veryVerbose && verbosity < 2 {
		verbosity = 2
	}
	helpers.InitLogging(verbosity, opts.logFile)

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	req, err := buildRequest(&opts, explicit, verbosity)
	if err != nil {
		return err
	}

	if err = telemetry.Init(opts.reportErrors, req.Game, req.Runner); err != nil {
		log.Warn().Err(err).Msg("error reporting unavailable")
	}
	defer telemetry.Close()

	// console interrupts are deliberately left at OS default so an
	// interrupt kills the whole process group, game included
	ctx := context.Background()

	if opts.update && opts.account == "" {
		if name, ok := steam.CurrentUser(afero.NewOsFs(), config.LoginVDFPaths()); ok {
			log.Info().Str("account", name).Msg("detected logged in Steam account")
		} else {
			log.Info().Msg("unable to detect a logged in Steam account")
		}
	}

	syncOnUpdate, syncOnStart := modSyncPlan(req.Singleplayer, opts.update, opts.start)

	if opts.update {
		if syncOnUpdate {
			branch := mods.DetermineBranch(ctx, req.Game, opts.beta, true)
			log.Info().Str("branch", branch).Msg("game version branch for the current mod")
			if err = mods.Update(ctx, req.ModDir); err != nil {
				return fmt.Errorf("mod update: %w", err)
			}
		} else {
			log.Info().Msg("singleplayer launch, nothing to update")
		}
	}

	if opts.start {
		if runtime.GOOS != "windows" && !helpers.HasLibSDL2(ctx, &command.RealExecutor{}) {
			return errors.New("SDL2 was not found, install your distribution's SDL2 runtime library")
		}

		// mod files must match the remote before a multiplayer launch
		if syncOnStart {
			if err = mods.Update(ctx, req.ModDir); err != nil {
				return fmt.Errorf("mod update: %w", err)
			}
		}

		starter := launcher.NewStarter(req, launcher.Deps{})
		log.Debug().Str("runner", starter.RunnerName()).Msg("starting game")
		if err = starter.Run(ctx); err != nil {
			return err
		}
	}

	return nil
}

// buildRequest applies the defaulting and validation rules that turn
// raw flags into a launch request.
func buildRequest(opts *options, explicit map[string]bool, verbosity int) (*launcher.Request, error) {
	// exactly one game; ETS2 when unspecified
	if opts.ats && opts.ets2 {
		return nil, errors.New("it's only possible to use one game at a time")
	}
	if !opts.ats && !opts.ets2 {
		log.Info().Msg("-ats/-ets2 not specified, choosing ETS2")
		opts.ets2 = true
	}
	game := config.GameETS2
	if opts.ats {
		game = config.GameATS
	}

	// doing neither -s nor -u means doing both
	if !opts.start && !opts.update {
		log.Info().Msg("-update/-start not specified, doing both")
		opts.start = true
		opts.update = true
	}

	// exactly one runner; Proton is the Linux default
	if opts.proton && opts.wine {
		return nil, errors.New("start with Proton (-p) or Wine (-w)?")
	}
	if !opts.proton && !opts.wine {
		if runtime.GOOS == "linux" {
			log.Info().Msg("platform is Linux, using Proton")
			opts.proton = true
		} else {
			log.Info().Msg("platform is not Linux, using Wine")
			opts.wine = true
		}
	}
	runner := launcher.RunnerProton
	if opts.wine {
		runner = launcher.RunnerWine
	}

	if opts.gameDir == "" {
		opts.gameDir = config.DefaultGameDir(game)
	}
	if opts.prefixDir == "" {
		opts.prefixDir = config.DefaultPrefixDir(game)
	}
	// Wine's prefix is the directory Proton keeps under pfx, so the
	// two runners share one set of game settings and saves
	if opts.wine && (opts.prefixDir == config.DefaultPrefixDir(config.GameATS) ||
		opts.prefixDir == config.DefaultPrefixDir(config.GameETS2)) {
		log.Debug().Msg("default prefix with Wine, using Proton's pfx subdirectory")
		opts.prefixDir = filepath.Join(opts.prefixDir, "pfx")
	}
	if opts.wineSteamDir == "" {
		inner := ""
		if opts.proton {
			inner = "pfx"
		}
		opts.wineSteamDir = filepath.Join(
			opts.prefixDir, inner, "dosdevices/c:/Program Files (x86)/Steam")
	}
	if opts.modDir == "" {
		if local := filepath.Join(helpers.ExeDir(), "truckersmp"); isDir(local) {
			log.Debug().Str("dir", local).Msg("using mod directory next to the executable")
			opts.modDir = local
		} else {
			opts.modDir = config.DefaultModDir()
		}
	}

	if opts.wineDesktop != "" {
		opts.wineDesktop = clampDesktopSize(opts.wineDesktop)
	}

	// starting without updating requires the artifacts on disk
	if opts.start && !opts.update {
		if !isFile(filepath.Join(opts.gameDir, "bin/win_x64", config.GameExeNames[game])) {
			return nil, fmt.Errorf(
				"game not found in %s, install the Windows game files there first", opts.gameDir)
		}
	}
	if opts.start && opts.proton && !isFile(filepath.Join(opts.protonDir, "proton")) {
		return nil, fmt.Errorf(
			"Proton not found in %s, install Proton there or pass -protondir", opts.protonDir)
	}

	// a launch degrades to no container when the default runtime dir
	// is absent; an explicitly requested runtime dir must exist
	if opts.start && opts.proton && !opts.disableSandbox &&
		!isFile(filepath.Join(opts.runtimeDir, "run")) {
		if explicit["steamruntime-dir"] {
			return nil, fmt.Errorf(
				"Steam Runtime not found in %s, install it there or pass -disable-steamruntime",
				opts.runtimeDir)
		}
		log.Info().Str("dir", opts.runtimeDir).
			Msg("no Steam Runtime found, running without container")
		opts.disableSandbox = true
	}

	singleOrMulti := game
	if !opts.singleplayer {
		singleOrMulti += "mp"
	}
	cfg, err := config.LoadFile(opts.configFile, singleOrMulti)
	if err != nil {
		return nil, err
	}

	var thirdParty []launcher.ThirdPartyProgram
	for _, path := range cfg.ThirdPartyExecutables {
		thirdParty = append(thirdParty, launcher.ThirdPartyProgram{Path: path})
	}

	backend := launcher.BackendOpenGL
	if opts.enableD3D11 {
		backend = launcher.BackendDX11
	}

	nativeSteamDir := opts.nativeSteamDir
	if nativeSteamDir == "auto" {
		nativeSteamDir = ""
	}

	wineCommand := os.Getenv("WINE")
	if wineCommand == "" {
		wineCommand = "wine"
	}

	req := &launcher.Request{
		Game:         game,
		SteamAppID:   config.SteamAppIDs[game],
		Singleplayer: opts.singleplayer,

		Runner: runner,

		GameDir:         opts.gameDir,
		PrefixDir:       opts.prefixDir,
		RunnerDir:       opts.protonDir,
		ModDir:          opts.modDir,
		SteamRuntimeDir: opts.runtimeDir,
		InjectExe:       filepath.Join(helpers.ExeDir(), config.InjectExeName),

		WineCommand:    wineCommand,
		WineSteamDir:   opts.wineSteamDir,
		NativeSteamDir: nativeSteamDir,

		RenderingBackend:          backend,
		UseWineD3D:                opts.useWineD3D,
		EnableD3D11:               opts.enableD3D11,
		ActivateNativeD3DCompiler: opts.activateNative,

		WineDesktop: opts.wineDesktop,

		DisableOverlay:        opts.disableOverlay,
		DisableSandbox:        opts.disableSandbox,
		DisablePresenceBridge: opts.disableBridge || cfg.DisablePresenceBridge,

		GameOptions: strings.Fields(opts.gameOptions),

		ThirdParty:     thirdParty,
		ThirdPartyWait: cfg.ThirdPartyWait,

		Verbose: verbosity,
	}
	if err = req.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Int("appid", req.SteamAppID).
		Str("game", req.GameKey()).
		Str("gamedir", req.GameDir).
		Str("prefix", req.PrefixDir).
		Msg("launch request")

	return req, nil
}

// modSyncPlan decides when the mod files are downloaded: never for
// singleplayer, during the update phase when one was requested,
// otherwise right before a multiplayer start.
func modSyncPlan(singleplayer, update, start bool) (onUpdate, onStart bool) {
	if singleplayer {
		return false, false
	}
	return update, start && !update
}

// clampDesktopSize bumps a too-small virtual desktop to 1024x768, the
// lowest resolution the games support. Malformed sizes pass through
// and fail request validation instead.
func clampDesktopSize(size string) string {
	parts := strings.Split(size, "x")
	if len(parts) != 2 {
		return size
	}
	width, wErr := strconv.Atoi(parts[0])
	height, hErr := strconv.Atoi(parts[1])
	if wErr != nil || hErr != nil {
		return size
	}
	if width < 1024 || height < 768 {
		log.Info().Str("size", size).Msg("desktop size too small, using 1024x768")
		return "1024x768"
	}
	return size
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

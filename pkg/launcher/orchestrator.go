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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ConvoyProject/convoy-cli/pkg/config"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers/command"
	"github.com/ConvoyProject/convoy-cli/pkg/mods"
	"github.com/ConvoyProject/convoy-cli/pkg/steam"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Starter launches the configured game under one compatibility layer.
// Run performs the whole launch lifecycle: readiness detection, prefix
// preparation, helper supervision, the wrapped game invocation, and
// cleanup on every exit path. Run returns an error only for setup
// failures; a failed game process is logged and absorbed.
type Starter interface {
	RunnerName() string
	Run(ctx context.Context) error
	// KillActiveProcesses terminates any game processes left over from
	// a previous launch against the same prefix. Run invokes it before
	// preparing the prefix; it is exported for standalone cleanup.
	KillActiveProcesses(ctx context.Context) error
}

// Deps are the injectable collaborators of a Starter. Zero fields are
// filled with real implementations by NewStarter.
type Deps struct {
	Exec     command.Executor
	Clock    clockwork.Clock
	FS       afero.Fs
	Detector *steam.Detector
	// ProvisionBridge makes the presence bridge executable available
	// on disk and returns its path.
	ProvisionBridge func(ctx context.Context) (string, error)
	// ProvisionD3DCompiler makes the native d3dcompiler_47.dll
	// available on disk and returns its path.
	ProvisionD3DCompiler func(ctx context.Context) (string, error)
	// BaseEnv is the parent environment launches derive from.
	BaseEnv []string
	// Stdout receives forwarded child output in verbose mode.
	Stdout io.Writer
}

func (d *Deps) fillDefaults() {
	if d.Exec == nil {
		d.Exec = &command.RealExecutor{}
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.FS == nil {
		d.FS = afero.NewOsFs()
	}
	if d.Detector == nil {
		d.Detector = steam.NewDetector()
	}
	if d.ProvisionBridge == nil {
		d.ProvisionBridge = mods.EnsureIPCBridge
	}
	if d.ProvisionD3DCompiler == nil {
		d.ProvisionD3DCompiler = mods.EnsureD3DCompiler
	}
	if d.BaseEnv == nil {
		d.BaseEnv = os.Environ()
	}
	if d.Stdout == nil {
		d.Stdout = os.Stdout
	}
}

// NewStarter returns the Starter for the request's compatibility
// layer choice.
func NewStarter(req *Request, deps Deps) Starter {
	deps.fillDefaults()
	if req.Runner == RunnerWine {
		return &WineStarter{req: req, deps: deps, sup: &Supervisor{Exec: deps.Exec, Clock: deps.Clock}}
	}
	return &ProtonStarter{req: req, deps: deps}
}

// ProtonStarter launches the game with Proton, optionally inside the
// Steam Runtime container. Helper supervision happens in a re-exec of
// the launcher binary (the runtime-helper subcommand) so it runs
// inside the container alongside the game.
type ProtonStarter struct {
	req  *Request
	deps Deps
}

// RunnerName implements Starter.
func (*ProtonStarter) RunnerName() string { return "Proton" }

// Run implements Starter.
func (s *ProtonStarter) Run(ctx context.Context) error {
	req := s.req

	version, err := ParseRunnerVersion(s.deps.FS, req.RunnerDir)
	if err != nil {
		return fmt.Errorf("proton not usable in %s: %w", req.RunnerDir, err)
	}
	sandboxEnabled := !req.DisableSandbox && version.SandboxEligible()
	log.Info().Stringer("version", version).Bool("container", sandboxEnabled).
		Msg("detected Proton")

	// a crashed previous launch can leave game processes holding the
	// prefix; clear them before touching it
	if err = s.KillActiveProcesses(ctx); err != nil {
		return err
	}

	sockets := helpers.DiscordSockets(s.deps.FS)

	steamDir, err := s.deps.Detector.EnsureReady(ctx, steam.Options{
		UseProton:      true,
		LoginVDFPaths:  config.LoginVDFPaths(),
		NativeSteamDir: req.NativeSteamDir,
	})
	if err != nil {
		return fmt.Errorf("steam readiness: %w", err)
	}
	log.Info().Str("dir", steamDir).Msg("Steam installation directory")

	if err = os.MkdirAll(req.PrefixDir, 0o755); err != nil {
		return fmt.Errorf("create prefix directory: %w", err)
	}

	share, err := ResolveSharedPaths(s.deps.FS, req, sandboxEnabled, steamDir, sockets)
	if err != nil {
		return err
	}
	defer share.Cleanup()

	// environment for prefix preparation; the full game environment
	// is composed later by the layer builder
	toolBase := append([]string(nil), s.deps.BaseEnv...)
	toolBase = helpers.EnvSet(toolBase, config.EnvCompatDataPath, req.PrefixDir)
	toolBase = helpers.EnvSet(toolBase, config.EnvCompatClientInstall, steamDir)

	prefix := filepath.Join(req.PrefixDir, "pfx")
	protonCmd := []string{"python3", filepath.Join(req.RunnerDir, "proton"), "run"}

	doD3DSetup := req.ActivateNativeD3DCompiler ||
		(!req.Singleplayer && req.RenderingBackend == BackendDX11 && !d3dCompilerInstalled(prefix))

	// Proton's dist tree is missing until first run; wineboot both
	// materializes it and settles the prefix after up/downgrades
	wineBin := protonWineBinary(req.RunnerDir)
	if !isExecutable(wineBin) || doD3DSetup {
		wineboot := command.Spec{
			Name: protonCmd[0],
			Args: append(append([]string(nil), protonCmd[1:]...), "wineboot"),
			Env:  toolBase,
		}
		out, bootErr := s.deps.Exec.CombinedOutput(ctx, wineboot)
		if bootErr != nil {
			return fmt.Errorf("wineboot failed: %w\n%s", bootErr, bytes.TrimSpace(out))
		}
	}

	// wine management commands run through the container so they see
	// the same filesystem the game will
	wineArgv := wineBin
	var wineWrap []string
	if sandboxEnabled {
		wineWrap = append(sandboxRunArgs(req.SteamRuntimeDir, share.Paths.List()), wineArgv)
	} else {
		wineWrap = []string{wineArgv}
	}
	toolEnv := wineToolEnv(toolBase, prefix, true)

	if doD3DSetup {
		dllPath, dllErr := s.deps.ProvisionD3DCompiler(ctx)
		if dllErr != nil {
			return fmt.Errorf("native d3dcompiler_47 setup: %w", dllErr)
		}
		if err = activateNativeD3DCompiler(
			ctx, s.deps.Exec, wineWrap, toolEnv, prefix, req.Game, dllPath); err != nil {
			return err
		}
	}

	if req.WineDesktop != "" {
		setDesktopRegistry(ctx, s.deps.Exec, wineWrap, toolEnv, req.WineDesktop, true)
		// disable must run on every path once enable ran
		defer setDesktopRegistry(ctx, s.deps.Exec, wineWrap, toolEnv, req.WineDesktop, false)
	}

	bridgeExe := ""
	if !req.Singleplayer && !req.DisablePresenceBridge && len(sockets) > 0 {
		bridgeExe, err = s.deps.ProvisionBridge(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("presence bridge unavailable, continuing without it")
			bridgeExe = ""
		}
	}

	layers := BuildLayers(LayerInput{
		Request:        req,
		SteamDir:       steamDir,
		SandboxEnabled: sandboxEnabled,
		SharedPaths:    share.Paths.List(),
		HelperExe:      share.HelperExe,
		InjectExe:      share.InjectExe,
		BridgeExe:      bridgeExe,
		BaseEnv:        s.deps.BaseEnv,
	})
	logStartupCommand("Proton", layers)

	runWrapped(ctx, s.deps, layers.Full(), layers.Env, req.Verbose > 0)
	return nil
}

// KillActiveProcesses implements Starter.
func (s *ProtonStarter) KillActiveProcesses(ctx context.Context) error {
	exeName := config.GameExeNames[s.req.Game]
	err := s.deps.Exec.Run(ctx, command.Spec{
		Name: "pkill",
		Args: []string{"-f", exeName},
	})
	if err != nil {
		// pkill exits non-zero when nothing matched
		log.Debug().Err(err).Str("exe", exeName).Msg("no game processes to kill")
	}
	return nil
}

// WineStarter launches the game with plain Wine. Helpers are
// supervised in-process since there is no container boundary.
type WineStarter struct {
	req  *Request
	deps Deps
	sup  *Supervisor
}

// RunnerName implements Starter.
func (*WineStarter) RunnerName() string { return "Wine" }

// Run implements Starter.
func (s *WineStarter) Run(ctx context.Context) error {
	req := s.req

	if err := os.MkdirAll(req.PrefixDir, 0o755); err != nil {
		return fmt.Errorf("create prefix directory: %w", err)
	}

	// shut down any wineserver a crashed previous launch left on this
	// prefix before reusing it
	if err := s.KillActiveProcesses(ctx); err != nil {
		return err
	}

	wineEnv := append([]string(nil), s.deps.BaseEnv...)
	wineEnv = helpers.EnvSet(wineEnv, config.EnvWineDebug, "-all")
	wineEnv = helpers.EnvSet(wineEnv, config.EnvWineArch, "win64")
	wineEnv = helpers.EnvSet(wineEnv, config.EnvWinePrefix, req.PrefixDir)

	doD3DSetup := req.ActivateNativeD3DCompiler ||
		(!req.Singleplayer && req.RenderingBackend == BackendDX11 && !d3dCompilerInstalled(req.PrefixDir))
	if doD3DSetup {
		dllPath, dllErr := s.deps.ProvisionD3DCompiler(ctx)
		if dllErr != nil {
			return fmt.Errorf("native d3dcompiler_47 setup: %w", dllErr)
		}
		toolEnv := wineToolEnv(s.deps.BaseEnv, req.PrefixDir, false)
		if err := activateNativeD3DCompiler(
			ctx, s.deps.Exec, []string{req.WineCommand}, toolEnv,
			req.PrefixDir, req.Game, dllPath); err != nil {
			return err
		}
	}

	_, err := s.deps.Detector.EnsureReady(ctx, steam.Options{
		UseProton:     false,
		LoginVDFPaths: []string{filepath.Join(req.WineSteamDir, config.LoginVDFInner)},
		WineCommand:   req.WineCommand,
		WineSteamDir:  req.WineSteamDir,
		Env:           wineEnv,
	})
	if err != nil {
		return fmt.Errorf("steam readiness: %w", err)
	}

	helperList := s.helperList(ctx)
	s.sup.StartAll(ctx, helperList, []string{req.WineCommand}, wineEnv, req.ThirdPartyWait)
	defer s.sup.StopAll()

	layers := BuildLayers(LayerInput{
		Request:     req,
		InjectExe:   req.InjectExe,
		WineCommand: req.WineCommand,
		BaseEnv:     s.deps.BaseEnv,
	})
	logStartupCommand("Wine", layers)

	runWrapped(ctx, s.deps, layers.Full(), layers.Env, req.Verbose > 0)
	return nil
}

// helperList assembles the early and normal helpers for this launch.
// Provisioning failures degrade to launching without the helper.
func (s *WineStarter) helperList(ctx context.Context) []Helper {
	var list []Helper
	req := s.req
	if !req.Singleplayer && !req.DisablePresenceBridge &&
		len(helpers.DiscordSockets(s.deps.FS)) > 0 {
		bridgeExe, err := s.deps.ProvisionBridge(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("presence bridge unavailable, continuing without it")
		} else {
			list = append(list, Helper{Path: bridgeExe, Wait: presenceBridgeWait, Early: true})
		}
	}
	for _, program := range req.ThirdParty {
		list = append(list, Helper{Path: program.Path})
	}
	return list
}

// KillActiveProcesses implements Starter.
func (s *WineStarter) KillActiveProcesses(ctx context.Context) error {
	env := wineToolEnv(s.deps.BaseEnv, s.req.PrefixDir, false)
	err := s.deps.Exec.Run(ctx, command.Spec{
		Name: "wineserver",
		Args: []string{"-k"},
		Env:  env,
	})
	if err != nil {
		log.Debug().Err(err).Msg("no wineserver to kill")
	}
	return nil
}

// protonWineBinary locates the wine binary inside a Proton install:
// proton-tkg ships files/bin/wine, Valve Proton ships dist/bin/wine.
func protonWineBinary(runnerDir string) string {
	tkg := filepath.Join(runnerDir, "files/bin/wine")
	if isExecutable(tkg) {
		return tkg
	}
	return filepath.Join(runnerDir, "dist/bin/wine")
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().Perm()&0o111 != 0
}

// logStartupCommand records the fully assembled invocation at info
// level, with the environment keys that matter for diagnosing launch
// problems.
func logStartupCommand(runner string, layers *ProcessLayers) {
	event := log.Info().Str("runner", runner).Strs("argv", layers.Full())
	for _, key := range []string{
		config.EnvSteamAppID, config.EnvSteamGameID, config.EnvLDPreload,
		config.EnvProtonUseWineD3D, config.EnvCompatClientInstall,
		config.EnvCompatDataPath, config.EnvWineArch, config.EnvWineDebug,
		config.EnvWineDLLOverrides, config.EnvWinePrefix,
	} {
		if value, ok := helpers.EnvGet(layers.Env, key); ok {
			event = event.Str(key, value)
		}
	}
	event.Msg("startup command")
}

// runWrapped executes the assembled process tree and waits for it.
// Child output is forwarded line by line in verbose mode, otherwise
// captured for failure reporting. A failing child is logged, never
// escalated: cleanup still has to run and the orchestration itself
// succeeded.
func runWrapped(ctx context.Context, deps Deps, argv, env []string, verbose bool) {
	handle, err := deps.Exec.Start(ctx, command.Spec{
		Name:        argv[0],
		Args:        argv[1:],
		Env:         env,
		MergeStderr: true,
		PipeStdout:  true,
	})
	if err != nil {
		log.Error().Err(err).Str("command", argv[0]).Msg("failed to start game invocation")
		return
	}

	var captured bytes.Buffer
	if stdout := handle.Stdout(); stdout != nil {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if verbose {
				_, _ = fmt.Fprintln(deps.Stdout, scanner.Text())
			} else {
				captured.WriteString(scanner.Text())
				captured.WriteByte('\n')
			}
		}
	}

	if waitErr := handle.Wait(); waitErr != nil {
		log.Error().Err(waitErr).Str("output", captured.String()).
			Msg("game invocation exited abnormally")
	}
}

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

// Package steam detects and reads state of the local Steam client:
// readiness for compatibility launches, library directories, and
// saved login credentials.
package steam

import (
	"context"
	"fmt"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/ConvoyProject/convoy-cli/pkg/config"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers/command"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	// DefaultPollSeconds bounds how long EnsureReady waits for an
	// interactive Steam login before giving up.
	DefaultPollSeconds = 99

	pollInterval = time.Second
)

// Options select which compatibility layer's Steam client to wait for
// and where to look for it.
type Options struct {
	// UseProton selects the native Linux Steam client; false selects
	// the Windows Steam client inside the Wine prefix.
	UseProton bool

	// LoginVDFPaths are the candidate loginusers.vdf files whose
	// modification time signals a completed login.
	LoginVDFPaths []string

	// NativeSteamDir pins the native Steam installation directory.
	// The value "auto" (or empty) enables detection from the login
	// file that changed.
	NativeSteamDir string

	// WineCommand is the wine executable used to inspect and start
	// the Windows Steam client. Ignored on the Proton path.
	WineCommand string

	// WineSteamDir is the Windows Steam installation inside the
	// prefix. Ignored on the Proton path.
	WineSteamDir string

	// Env is the environment for wine invocations.
	Env []string
}

// Detector waits for the Steam client to be ready, starting it when
// necessary. The clock, filesystem, and process spawns are injectable
// so the polling loop is testable.
type Detector struct {
	Clock       clockwork.Clock
	FS          afero.Fs
	Exec        command.Executor
	PollSeconds int
}

// NewDetector returns a Detector wired to the real system.
func NewDetector() *Detector {
	return &Detector{
		Clock:       clockwork.NewRealClock(),
		FS:          afero.NewOsFs(),
		Exec:        &command.RealExecutor{},
		PollSeconds: DefaultPollSeconds,
	}
}

// EnsureReady makes sure the Steam client is running and the user is
// logged in, and returns the Steam installation directory. When Steam
// is not detected it is started and the login files are polled for a
// modification time advance, bounded by PollSeconds. Exhausting the
// bound is not an error: a conventional default directory is
// substituted, since a launch can still succeed against it.
func (d *Detector) EnsureReady(ctx context.Context, opts Options) (string, error) {
	checked := opts.LoginVDFPaths
	if opts.UseProton && !autoNativeSteamDir(opts) {
		checked = []string{filepath.Join(opts.NativeSteamDir, config.LoginVDFInner)}
	}

	// snapshot mtimes before anything might touch them; missing files
	// count as zero so their first appearance registers as a change
	stamps := make([]time.Time, len(checked))
	for i, path := range checked {
		if info, err := d.FS.Stat(path); err == nil {
			stamps[i] = info.ModTime()
		}
	}

	running, err := d.steamRunning(ctx, opts)
	if err != nil {
		return "", err
	}

	if running {
		log.Debug().Msg("Steam is running")
		return d.installDirFromStamps(opts, checked, stamps), nil
	}

	log.Debug().Msg("starting Steam")
	if startErr := d.startSteam(ctx, opts); startErr != nil {
		log.Warn().Err(startErr).Msg("failed to start Steam client")
	}

	fmt.Printf("Waiting up to %d seconds for Steam login...\n", d.PollSeconds)
	for i := 0; i < d.PollSeconds; i++ {
		d.Clock.Sleep(pollInterval)
		for j, path := range checked {
			info, statErr := d.FS.Stat(path)
			if statErr != nil {
				continue
			}
			if info.ModTime().After(stamps[j]) {
				log.Debug().Str("path", path).
					Msg("Steam login file updated, client should be ready")
				return d.detectedDir(opts, path), nil
			}
		}
	}

	// bound exhausted; assume Steam came up without a login change
	log.Debug().Msg("Steam readiness poll exhausted, assuming it is up")
	return d.fallbackDir(opts), nil
}

func autoNativeSteamDir(opts Options) bool {
	return opts.NativeSteamDir == "" || opts.NativeSteamDir == "auto"
}

// installDirFromStamps picks the install directory owning the most
// recently updated login file.
func (d *Detector) installDirFromStamps(opts Options, checked []string, stamps []time.Time) string {
	if !opts.UseProton {
		return opts.WineSteamDir
	}
	if !autoNativeSteamDir(opts) {
		return opts.NativeSteamDir
	}
	best := 0
	for i := range stamps {
		if stamps[i].After(stamps[best]) {
			best = i
		}
	}
	return landingDir(checked[best])
}

func (d *Detector) detectedDir(opts Options, loginVDF string) string {
	if !opts.UseProton {
		return opts.WineSteamDir
	}
	if !autoNativeSteamDir(opts) {
		return opts.NativeSteamDir
	}
	return landingDir(loginVDF)
}

func (d *Detector) fallbackDir(opts Options) string {
	if !opts.UseProton {
		return opts.WineSteamDir
	}
	if !autoNativeSteamDir(opts) {
		return opts.NativeSteamDir
	}
	return config.FallbackSteamDir()
}

// landingDir maps <steamdir>/config/loginusers.vdf back to <steamdir>.
func landingDir(loginVDF string) string {
	return filepath.Dir(filepath.Dir(loginVDF))
}

// steamRunning checks the process table for a Steam client matching
// the active compatibility layer.
func (d *Detector) steamRunning(ctx context.Context, opts Options) (bool, error) {
	if opts.UseProton {
		current, err := user.Current()
		if err != nil {
			return false, fmt.Errorf("current user: %w", err)
		}
		runErr := d.Exec.Run(ctx, command.Spec{
			Name: "pgrep",
			Args: []string{"-u", current.Username, "-x", "steam"},
		})
		return runErr == nil, nil
	}

	// under Wine the only reliable process table is winedbg's
	env := append([]string(nil), opts.Env...)
	env = helpers.EnvSet(env, config.EnvWineDLLOverrides, "winex11.drv=")
	out, err := d.Exec.CombinedOutput(ctx, command.Spec{
		Name: opts.WineCommand,
		Args: []string{"winedbg", "--command", "info process"},
		Env:  env,
	})
	if err != nil {
		return false, fmt.Errorf("wine process list: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSuffix(strings.TrimSpace(line), "'")
		idx := strings.LastIndex(line, "'")
		if idx < 0 {
			continue
		}
		if strings.HasSuffix(strings.ToLower(line[idx+1:]), "steam.exe") {
			return true, nil
		}
	}
	return false, nil
}

// startSteam launches the Steam client detached so it survives the
// launcher.
func (d *Detector) startSteam(ctx context.Context, opts Options) error {
	if opts.UseProton {
		_, err := d.Exec.Start(ctx, command.Spec{
			Name:   "steam",
			Detach: true,
		})
		if err != nil {
			return fmt.Errorf("start steam: %w", err)
		}
		return nil
	}

	_, err := d.Exec.Start(ctx, command.Spec{
		Name:   opts.WineCommand,
		Args:   []string{filepath.Join(opts.WineSteamDir, "steam.exe"), "-no-cef-sandbox"},
		Env:    opts.Env,
		Detach: true,
	})
	if err != nil {
		return fmt.Errorf("start windows steam: %w", err)
	}
	return nil
}

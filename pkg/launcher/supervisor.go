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
	"time"

	"github.com/ConvoyProject/convoy-cli/pkg/config"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers/command"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// presenceBridgeWait is how long the launch pauses after starting the
// presence bridge before anything else starts. The bridge has no
// readiness signal; the fixed delay is a heuristic carried over from
// long-standing launcher behavior.
const presenceBridgeWait = 5

// Helper is one auxiliary executable started ahead of the game.
type Helper struct {
	// Path of the executable, run through the wrapping invocation.
	Path string
	// Wait is a delay in seconds applied after starting this helper,
	// before the next stage proceeds. Only honored for early helpers.
	Wait int
	// Early helpers start before all normal helpers and complete
	// their delay first.
	Early bool
}

// Supervisor starts auxiliary helper processes and guarantees any
// still alive are terminated when the launch finishes.
type Supervisor struct {
	Exec  command.Executor
	Clock clockwork.Clock

	procs []command.Handle
}

// NewSupervisor returns a Supervisor wired to the real system.
func NewSupervisor() *Supervisor {
	return &Supervisor{
		Exec:  &command.RealExecutor{},
		Clock: clockwork.NewRealClock(),
	}
}

// StartAll starts every helper: early ones first, each followed by its
// own delay, then all normal ones followed by the single aggregate
// delay. Each helper is run as wrap+path (e.g. "python3 proton run
// prog.exe" or "wine prog.exe") with stderr merged into stdout and any
// LD_PRELOAD stripped, so overlay injection meant for the game does
// not leak into arbitrary third-party tools. A helper that fails to
// start is logged and skipped; it never aborts the launch.
func (s *Supervisor) StartAll(ctx context.Context, helperList []Helper, wrap, env []string, aggregateWait int) {
	helperEnv := helpers.EnvUnset(append([]string(nil), env...), config.EnvLDPreload)

	for _, h := range helperList {
		if !h.Early {
			continue
		}
		if s.start(ctx, h, wrap, helperEnv) && h.Wait > 0 {
			s.Clock.Sleep(time.Duration(h.Wait) * time.Second)
		}
	}
	started := 0
	for _, h := range helperList {
		if h.Early {
			continue
		}
		if s.start(ctx, h, wrap, helperEnv) {
			started++
		}
	}
	if started > 0 && aggregateWait > 0 {
		log.Debug().Int("seconds", aggregateWait).Msg("waiting for third-party programs")
		s.Clock.Sleep(time.Duration(aggregateWait) * time.Second)
	}
}

func (s *Supervisor) start(ctx context.Context, h Helper, wrap, env []string) bool {
	argv := make([]string, 0, len(wrap)+1)
	argv = append(argv, wrap...)
	argv = append(argv, h.Path)

	log.Info().Str("path", h.Path).Bool("early", h.Early).Msg("starting helper")
	handle, err := s.Exec.Start(ctx, command.Spec{
		Name:        argv[0],
		Args:        argv[1:],
		Env:         env,
		MergeStderr: true,
	})
	if err != nil {
		log.Error().Err(err).Str("path", h.Path).Msg("failed to start helper")
		return false
	}
	s.procs = append(s.procs, handle)
	return true
}

// StopAll terminates and reaps every helper still alive. It is
// idempotent: helpers are reaped at most once, and calling StopAll
// again is a no-op.
func (s *Supervisor) StopAll() {
	procs := s.procs
	s.procs = nil
	for _, proc := range procs {
		if proc.Running() {
			if err := proc.Kill(); err != nil {
				log.Warn().Err(err).Msg("failed to kill helper")
			}
		}
		// reap even if already dead; ignore exit status of killed
		// helpers
		_ = proc.Wait()
	}
}

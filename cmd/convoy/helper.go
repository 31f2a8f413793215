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
	"bufio"
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ConvoyProject/convoy-cli/pkg/helpers"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers/command"
	"github.com/ConvoyProject/convoy-cli/pkg/launcher"
	"github.com/rs/zerolog/log"
)

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// runRuntimeHelper is the hidden subcommand executed inside the Steam
// Runtime container. It starts the configured helper executables, then
// runs the wrapped game invocation given after "--", and finally reaps
// every helper it started. The exit code reflects the supervision, not
// the game's own exit status.
func runRuntimeHelper(args []string) int {
	fs := flag.NewFlagSet("runtime-helper", flag.ContinueOnError)

	var (
		earlyExecutables stringList
		executables      stringList
		verbose          countValue
	)
	earlyWait := fs.Int("early-wait", 0, "seconds to sleep after starting each early executable")
	wait := fs.Int("wait", 0, "seconds to sleep after starting all executables")
	veryVerbose := fs.Bool("vv", false, "debug output, same as -v -v")
	fs.Var(&earlyExecutables, "early-executable", "executable to start before the others (repeatable)")
	fs.Var(&executables, "executable", "third-party executable to start (repeatable)")
	fs.Var(&verbose, "v", "verbose output (once: info, twice: debug)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	wrapped := fs.Args()
	if len(wrapped) == 0 {
		_, _ = fmt.Fprintln(os.Stderr, "runtime-helper: missing wrapped command after --")
		return 2
	}

	verbosity := int(verbose)
	if *veryVerbose && verbosity < 2 {
		verbosity = 2
	}
	helpers.InitLogging(verbosity, "")

	var helperList []launcher.Helper
	for _, path := range earlyExecutables {
		helperList = append(helperList, launcher.Helper{
			Path: path, Wait: *earlyWait, Early: true,
		})
	}
	for _, path := range executables {
		helperList = append(helperList, launcher.Helper{Path: path})
	}

	ctx := context.Background()
	exec := &command.RealExecutor{}

	// Windows helper executables run through the same compat
	// invocation as the game, e.g. "python3 <protondir>/proton run"
	wrap := wrapped
	if len(wrapped) > 3 {
		wrap = wrapped[:3]
	}

	supervisor := launcher.NewSupervisor()
	supervisor.StartAll(ctx, helperList, wrap, os.Environ(), *wait)
	defer supervisor.StopAll()

	runWrappedChild(ctx, exec, wrapped, verbosity > 0)
	return 0
}

// runWrappedChild runs the compat+game invocation and waits for it,
// forwarding output in verbose mode. A failing child is logged only.
func runWrappedChild(ctx context.Context, exec command.Executor, argv []string, verbose bool) {
	handle, err := exec.Start(ctx, command.Spec{
		Name:        argv[0],
		Args:        argv[1:],
		Env:         os.Environ(),
		MergeStderr: true,
		PipeStdout:  true,
	})
	if err != nil {
		log.Error().Err(err).Str("command", argv[0]).Msg("failed to start wrapped command")
		return
	}

	var captured bytes.Buffer
	if stdout := handle.Stdout(); stdout != nil {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if verbose {
				fmt.Println(scanner.Text())
			} else {
				captured.WriteString(scanner.Text())
				captured.WriteByte('\n')
			}
		}
	}

	if waitErr := handle.Wait(); waitErr != nil {
		log.Error().Err(waitErr).Str("output", captured.String()).
			Msg("wrapped command exited abnormally")
	}
}

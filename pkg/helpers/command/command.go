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

// Package command provides an abstraction over exec.Cmd for testability.
package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Spec describes a single child process invocation. The zero value of
// every optional field means "inherit from the parent".
type Spec struct {
	// Name is the executable to run, resolved against PATH when not
	// an absolute path.
	Name string

	// Args are the arguments passed to the executable, not including
	// the executable itself.
	Args []string

	// Env is the full environment for the child. A nil slice inherits
	// the parent environment.
	Env []string

	// MergeStderr redirects the child's standard error into its
	// standard output stream.
	MergeStderr bool

	// PipeStdout exposes the child's standard output as a pipe on the
	// returned Handle. Without it output goes to the parent's stdout.
	PipeStdout bool

	// Detach starts the child in a new session with all output
	// discarded, so it survives the parent and never blocks on a full
	// pipe. Used for fire-and-forget starts like the Steam client.
	Detach bool
}

// Handle is a started child process.
type Handle interface {
	// Stdout returns the child's standard output pipe, or nil when the
	// process was not started with PipeStdout.
	Stdout() io.ReadCloser

	// Running reports whether the process has not yet been waited on
	// and still exists in the process table.
	Running() bool

	// Kill forcibly terminates the process.
	Kill() error

	// Wait blocks until the process exits and releases its resources.
	// Returns an error for non-zero exit status.
	Wait() error
}

// Executor provides an abstraction over exec.Cmd so launch plumbing
// can be tested without spawning real processes.
type Executor interface {
	// Run executes a command and waits for it to complete.
	// Returns an error if the command fails to start or exits with
	// non-zero status.
	Run(ctx context.Context, spec Spec) error

	// CombinedOutput runs a command and returns its combined standard
	// output and standard error.
	CombinedOutput(ctx context.Context, spec Spec) ([]byte, error)

	// Start starts a command without waiting for it to complete.
	Start(ctx context.Context, spec Spec) (Handle, error)
}

// RealExecutor uses actual exec.Cmd to execute system commands.
// This is the production implementation used in normal operation.
type RealExecutor struct{}

// Run executes a system command using exec.CommandContext.
//
//nolint:wrapcheck // Wrapping exec errors loses important context
func (*RealExecutor) Run(ctx context.Context, spec Spec) error {
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Env = spec.Env
	if spec.MergeStderr {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stdout
	}
	return cmd.Run()
}

// CombinedOutput runs a command and returns its combined output.
//
//nolint:wrapcheck // Wrapping exec errors loses important context
func (*RealExecutor) CombinedOutput(ctx context.Context, spec Spec) ([]byte, error) {
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Env = spec.Env
	return cmd.CombinedOutput()
}

// Start starts a command without waiting for it to complete. The
// returned handle must be waited on unless the process was detached.
func (*RealExecutor) Start(_ context.Context, spec Spec) (Handle, error) {
	// deliberately not CommandContext: started children outlive the
	// calling scope and are reaped explicitly by their owner
	cmd := exec.Command(spec.Name, spec.Args...) //nolint:gosec // Argument vectors are built from validated launch config
	cmd.Env = spec.Env

	h := &realHandle{cmd: cmd}
	switch {
	case spec.Detach:
		detachSysProcAttr(cmd)
	case spec.PipeStdout:
		pipe, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("stdout pipe: %w", err)
		}
		h.stdout = pipe
		if spec.MergeStderr {
			cmd.Stderr = cmd.Stdout
		}
	default:
		cmd.Stdout = os.Stdout
		if spec.MergeStderr {
			cmd.Stderr = os.Stdout
		} else {
			cmd.Stderr = os.Stderr
		}
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", spec.Name, err)
	}
	return h, nil
}

type realHandle struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	waited bool
}

func (h *realHandle) Stdout() io.ReadCloser { return h.stdout }

func (h *realHandle) Running() bool {
	if h.waited || h.cmd.Process == nil {
		return false
	}
	return processAlive(h.cmd.Process)
}

//nolint:wrapcheck // Wrapping exec errors loses important context
func (h *realHandle) Kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}

//nolint:wrapcheck // Wrapping exec errors loses important context
func (h *realHandle) Wait() error {
	h.waited = true
	return h.cmd.Wait()
}

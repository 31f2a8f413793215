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

package command

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealExecutorRun(t *testing.T) {
	t.Parallel()

	exec := &RealExecutor{}

	assert.NoError(t, exec.Run(context.Background(), Spec{Name: "true"}))
	assert.Error(t, exec.Run(context.Background(), Spec{Name: "false"}))
	assert.Error(t, exec.Run(context.Background(), Spec{Name: "definitely-not-a-command"}))
}

func TestRealExecutorCombinedOutput(t *testing.T) {
	t.Parallel()

	exec := &RealExecutor{}

	out, err := exec.CombinedOutput(context.Background(), Spec{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err >&2"},
	})

	require.NoError(t, err)
	assert.Contains(t, string(out), "out")
	assert.Contains(t, string(out), "err")
}

func TestRealExecutorStartPipeStdout(t *testing.T) {
	t.Parallel()

	exec := &RealExecutor{}
	handle, err := exec.Start(context.Background(), Spec{
		Name:       "sh",
		Args:       []string{"-c", "echo out; echo err >&2"},
		PipeStdout: true,
	})
	require.NoError(t, err)

	// without MergeStderr only stdout reaches the pipe
	out, err := io.ReadAll(handle.Stdout())
	require.NoError(t, err)
	require.NoError(t, handle.Wait())
	assert.Equal(t, "out\n", string(out))
	assert.False(t, handle.Running())
}

func TestRealExecutorStartMergeStderr(t *testing.T) {
	t.Parallel()

	exec := &RealExecutor{}
	handle, err := exec.Start(context.Background(), Spec{
		Name:        "sh",
		Args:        []string{"-c", "echo out; echo err >&2"},
		PipeStdout:  true,
		MergeStderr: true,
	})
	require.NoError(t, err)

	out, err := io.ReadAll(handle.Stdout())
	require.NoError(t, err)
	require.NoError(t, handle.Wait())
	assert.Contains(t, string(out), "out")
	assert.Contains(t, string(out), "err")
}

func TestRealExecutorStartEnv(t *testing.T) {
	t.Parallel()

	exec := &RealExecutor{}
	handle, err := exec.Start(context.Background(), Spec{
		Name:       "sh",
		Args:       []string{"-c", "echo $CONVOY_TEST_VALUE"},
		Env:        []string{"CONVOY_TEST_VALUE=marker"},
		PipeStdout: true,
	})
	require.NoError(t, err)

	out, err := io.ReadAll(handle.Stdout())
	require.NoError(t, err)
	require.NoError(t, handle.Wait())
	assert.Equal(t, "marker", strings.TrimSpace(string(out)))
}

func TestRealHandleKill(t *testing.T) {
	t.Parallel()

	exec := &RealExecutor{}
	handle, err := exec.Start(context.Background(), Spec{
		Name:       "sleep",
		Args:       []string{"30"},
		PipeStdout: true,
	})
	require.NoError(t, err)

	assert.True(t, handle.Running())
	require.NoError(t, handle.Kill())
	assert.Error(t, handle.Wait())
	assert.False(t, handle.Running())
}

func TestRealExecutorStartFailure(t *testing.T) {
	t.Parallel()

	exec := &RealExecutor{}
	_, err := exec.Start(context.Background(), Spec{Name: "definitely-not-a-command"})

	assert.Error(t, err)
}

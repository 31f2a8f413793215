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
	"errors"
	"testing"

	"github.com/ConvoyProject/convoy-cli/pkg/config"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers/command"
	"github.com/ConvoyProject/convoy-cli/pkg/steam"
	"github.com/ConvoyProject/convoy-cli/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// runningDetector returns a Detector whose Steam client always reports
// as already running for the given layer.
func runningDetector(proton bool) *steam.Detector {
	exec := &mocks.MockExecutor{}
	if proton {
		exec.On("Run", mock.Anything, mock.Anything).Return(nil)
	} else {
		exec.On("CombinedOutput", mock.Anything, mock.Anything).
			Return([]byte(" 00000044 12 'steam.exe'\n"), nil)
	}
	return &steam.Detector{
		Clock:       clockwork.NewFakeClock(),
		FS:          afero.NewMemMapFs(),
		Exec:        exec,
		PollSeconds: steam.DefaultPollSeconds,
	}
}

func TestNewStarterDispatch(t *testing.T) {
	t.Parallel()

	proton := NewStarter(&Request{Runner: RunnerProton}, Deps{})
	assert.Equal(t, "Proton", proton.RunnerName())
	assert.IsType(t, &ProtonStarter{}, proton)

	wine := NewStarter(&Request{Runner: RunnerWine}, Deps{})
	assert.Equal(t, "Wine", wine.RunnerName())
	assert.IsType(t, &WineStarter{}, wine)
}

func TestProtonStarterRunBadVersion(t *testing.T) {
	t.Parallel()

	req := validRequest()
	starter := NewStarter(req, Deps{FS: afero.NewMemMapFs()})

	err := starter.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "proton not usable")
}

func TestProtonStarterRunAbsorbsGameFailure(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	req := validRequest()
	req.RunnerDir = "/runner"
	req.PrefixDir = t.TempDir()
	req.Singleplayer = true
	req.DisableSandbox = true
	req.WineDesktop = "1024x768"
	require.NoError(t, afero.WriteFile(fs,
		"/runner/version", []byte("1612345 proton-8.0-5\n"), 0o644))

	var regCalls [][]string
	killCalls := 0
	exec := &mocks.MockExecutor{}
	// dist tree is absent, so the prefix is settled with wineboot
	exec.On("CombinedOutput", mock.Anything, mock.MatchedBy(func(spec command.Spec) bool {
		return spec.Args[len(spec.Args)-1] == "wineboot"
	})).Return([]byte("wine: created prefix\n"), nil)
	exec.On("Run", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			spec, ok := args.Get(1).(command.Spec)
			require.True(t, ok)
			if spec.Name == "pkill" {
				killCalls++
				return
			}
			regCalls = append(regCalls, spec.Args)
		}).
		Return(nil)
	exec.On("Start", mock.Anything, mock.Anything).
		Return(&mocks.FakeHandle{
			Output:  "GL error\n",
			WaitErr: errors.New("exit status 1"),
		}, nil)

	starter := NewStarter(req, Deps{
		Exec:     exec,
		Clock:    clockwork.NewFakeClock(),
		FS:       fs,
		Detector: runningDetector(true),
		BaseEnv:  []string{"HOME=/home/u"},
	})

	// a crashing game is not an orchestration failure
	err := starter.Run(context.Background())
	require.NoError(t, err)

	// leftovers from a previous launch are cleared first
	assert.Equal(t, 1, killCalls)

	// desktop registry: add twice before the game, delete twice after
	require.Len(t, regCalls, 4)
	assert.Equal(t, "add", regCalls[0][1])
	assert.Equal(t, "add", regCalls[1][1])
	assert.Equal(t, "delete", regCalls[2][1])
	assert.Equal(t, "delete", regCalls[3][1])
	exec.AssertNumberOfCalls(t, "Start", 1)
}

func TestWineStarterRun(t *testing.T) {
	t.Parallel()

	req := validRequest()
	req.Runner = RunnerWine
	req.RunnerDir = ""
	req.PrefixDir = t.TempDir()
	req.WineCommand = "wine"
	req.WineSteamDir = req.PrefixDir + "/dosdevices/c:/Program Files (x86)/Steam"
	req.Singleplayer = true

	var gameSpec command.Spec
	exec := &mocks.MockExecutor{}
	// the pre-launch wineserver shutdown on the reused prefix
	exec.On("Run", mock.Anything, mock.MatchedBy(func(spec command.Spec) bool {
		return spec.Name == "wineserver"
	})).Return(nil).Once()
	exec.On("Start", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			spec, ok := args.Get(1).(command.Spec)
			require.True(t, ok)
			gameSpec = spec
		}).
		Return(&mocks.FakeHandle{Output: "ok\n"}, nil)

	starter := NewStarter(req, Deps{
		Exec:     exec,
		Clock:    clockwork.NewFakeClock(),
		FS:       afero.NewMemMapFs(),
		Detector: runningDetector(false),
		BaseEnv:  []string{"HOME=/home/u"},
	})

	err := starter.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "wine", gameSpec.Name)
	assert.True(t, gameSpec.MergeStderr)
	assert.True(t, gameSpec.PipeStdout)
	assert.Contains(t, gameSpec.Env, "WINEPREFIX="+req.PrefixDir)
	exec.AssertExpectations(t)
}

func TestWineStarterRunAbsorbsStartFailure(t *testing.T) {
	t.Parallel()

	req := validRequest()
	req.Runner = RunnerWine
	req.RunnerDir = ""
	req.PrefixDir = t.TempDir()
	req.WineCommand = "wine"
	req.WineSteamDir = req.PrefixDir + "/steam"
	req.Singleplayer = true

	exec := &mocks.MockExecutor{}
	exec.On("Run", mock.Anything, mock.MatchedBy(func(spec command.Spec) bool {
		return spec.Name == "wineserver"
	})).Return(nil)
	exec.On("Start", mock.Anything, mock.Anything).
		Return(nil, errors.New("wine: not found"))

	starter := NewStarter(req, Deps{
		Exec:     exec,
		Clock:    clockwork.NewFakeClock(),
		FS:       afero.NewMemMapFs(),
		Detector: runningDetector(false),
		BaseEnv:  []string{"HOME=/home/u"},
	})

	assert.NoError(t, starter.Run(context.Background()))
}

func TestProtonKillActiveProcesses(t *testing.T) {
	t.Parallel()

	var spec command.Spec
	exec := &mocks.MockExecutor{}
	// pkill exits non-zero when nothing matched; that is not an error
	exec.On("Run", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			s, ok := args.Get(1).(command.Spec)
			require.True(t, ok)
			spec = s
		}).
		Return(errors.New("exit status 1"))

	req := validRequest()
	req.Game = config.GameATS
	starter := &ProtonStarter{req: req, deps: Deps{Exec: exec}}

	require.NoError(t, starter.KillActiveProcesses(context.Background()))
	assert.Equal(t, "pkill", spec.Name)
	assert.Equal(t, []string{"-f", "amtrucks.exe"}, spec.Args)
}

func TestWineKillActiveProcesses(t *testing.T) {
	t.Parallel()

	var spec command.Spec
	exec := &mocks.MockExecutor{}
	exec.On("Run", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			s, ok := args.Get(1).(command.Spec)
			require.True(t, ok)
			spec = s
		}).
		Return(nil)

	req := validRequest()
	req.Runner = RunnerWine
	starter := &WineStarter{req: req, deps: Deps{Exec: exec, BaseEnv: []string{"HOME=/home/u"}}}

	require.NoError(t, starter.KillActiveProcesses(context.Background()))
	assert.Equal(t, "wineserver", spec.Name)
	assert.Equal(t, []string{"-k"}, spec.Args)
	assert.Contains(t, spec.Env, "WINEPREFIX="+req.PrefixDir)
}

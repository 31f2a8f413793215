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
	"os"
	"testing"

	"github.com/ConvoyProject/convoy-cli/pkg/helpers"
	"github.com/ConvoyProject/convoy-cli/pkg/helpers/command"
	"github.com/ConvoyProject/convoy-cli/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWineToolEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		base   []string
		proton bool
		want   map[string]string
	}{
		{
			name:   "wine path sets debug and prefix only",
			base:   []string{"HOME=/home/u"},
			proton: false,
			want: map[string]string{
				"WINEDEBUG":  "-all",
				"WINEPREFIX": "/data/pfx",
				"WINEESYNC":  "",
				"WINEFSYNC":  "",
			},
		},
		{
			name:   "proton defaults enable esync and fsync",
			base:   []string{"HOME=/home/u"},
			proton: true,
			want: map[string]string{
				"WINEDEBUG":  "-all",
				"WINEPREFIX": "/data/pfx",
				"WINEESYNC":  "1",
				"WINEFSYNC":  "1",
			},
		},
		{
			name:   "proton no-esync mirrors into wineesync",
			base:   []string{"HOME=/home/u", "PROTON_NO_ESYNC=1"},
			proton: true,
			want: map[string]string{
				"WINEESYNC": "0",
				"WINEFSYNC": "1",
			},
		},
		{
			name:   "proton no-fsync mirrors into winefsync",
			base:   []string{"HOME=/home/u", "PROTON_NO_FSYNC=1"},
			proton: true,
			want: map[string]string{
				"WINEESYNC": "1",
				"WINEFSYNC": "0",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := wineToolEnv(tt.base, "/data/pfx", tt.proton)

			for key, want := range tt.want {
				got, _ := helpers.EnvGet(env, key)
				assert.Equal(t, want, got, key)
			}
			// the caller's slice is never mutated
			assert.Equal(t, tt.base[0], "HOME=/home/u")
		})
	}
}

func TestSetDesktopRegistry(t *testing.T) {
	t.Parallel()

	t.Run("enable", func(t *testing.T) {
		t.Parallel()

		var calls [][]string
		exec := &mocks.MockExecutor{}
		exec.On("Run", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				spec, ok := args.Get(1).(command.Spec)
				require.True(t, ok)
				calls = append(calls, append([]string{spec.Name}, spec.Args...))
			}).
			Return(nil)

		setDesktopRegistry(context.Background(), exec,
			[]string{"python3", "/proton/proton", "run"},
			[]string{"WINEPREFIX=/data/pfx"}, "1024x768", true)

		require.Len(t, calls, 2)
		assert.Equal(t, []string{
			"python3", "/proton/proton", "run",
			"reg", "add", `HKCU\Software\Wine\Explorer`,
			"/v", "Desktop", "/t", "REG_SZ", "/d", "Default", "/f",
		}, calls[0])
		assert.Equal(t, []string{
			"python3", "/proton/proton", "run",
			"reg", "add", `HKCU\Software\Wine\Explorer\Desktops`,
			"/v", "Default", "/t", "REG_SZ", "/d", "1024x768", "/f",
		}, calls[1])
	})

	t.Run("disable", func(t *testing.T) {
		t.Parallel()

		var calls [][]string
		exec := &mocks.MockExecutor{}
		exec.On("Run", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				spec, ok := args.Get(1).(command.Spec)
				require.True(t, ok)
				calls = append(calls, spec.Args)
			}).
			Return(nil)

		setDesktopRegistry(context.Background(), exec,
			[]string{"wine"}, nil, "1024x768", false)

		require.Len(t, calls, 2)
		assert.Equal(t, []string{
			"reg", "delete", `HKCU\Software\Wine\Explorer`, "/v", "Desktop", "/f",
		}, calls[0])
		assert.Equal(t, []string{
			"reg", "delete", `HKCU\Software\Wine\Explorer\Desktops`, "/v", "Default", "/f",
		}, calls[1])
	})

	t.Run("registry failure does not panic", func(t *testing.T) {
		t.Parallel()

		exec := &mocks.MockExecutor{}
		exec.On("Run", mock.Anything, mock.Anything).Return(assert.AnError)

		setDesktopRegistry(context.Background(), exec,
			[]string{"wine"}, nil, "1024x768", true)

		exec.AssertNumberOfCalls(t, "Run", 2)
	})
}

func TestActivateNativeD3DCompiler(t *testing.T) {
	t.Parallel()

	dll := t.TempDir() + "/d3dcompiler_47.dll"
	require.NoError(t, os.WriteFile(dll, []byte("not a real dll"), 0o644))
	prefix := t.TempDir()

	var spec command.Spec
	exec := &mocks.MockExecutor{}
	exec.On("Run", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			s, ok := args.Get(1).(command.Spec)
			require.True(t, ok)
			spec = s
		}).
		Return(nil)

	err := activateNativeD3DCompiler(context.Background(), exec,
		[]string{"wine"}, []string{"WINEPREFIX=" + prefix},
		prefix, "ats", dll)

	require.NoError(t, err)
	assert.FileExists(t, prefix+"/drive_c/windows/system32/d3dcompiler_47.dll")
	assert.Equal(t, "wine", spec.Name)
	assert.Equal(t, []string{
		"reg", "add", `HKCU\Software\Wine\AppDefaults\amtrucks.exe\DllOverrides`,
		"/v", "d3dcompiler_47", "/t", "REG_SZ", "/d", "native", "/f",
	}, spec.Args)
}

func TestActivateNativeD3DCompilerMissingSource(t *testing.T) {
	t.Parallel()

	exec := &mocks.MockExecutor{}

	err := activateNativeD3DCompiler(context.Background(), exec,
		[]string{"wine"}, nil,
		t.TempDir(), "ets2", t.TempDir()+"/missing.dll")

	require.Error(t, err)
	exec.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

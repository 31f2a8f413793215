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
	"os"
	"testing"

	"github.com/ConvoyProject/convoy-cli/pkg/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedPathsAdd(t *testing.T) {
	t.Parallel()

	var set SharedPaths
	set.Add("/a")
	set.Add("/b")
	set.Add("/a") // duplicate
	set.Add("")   // empty is ignored
	set.Add("/c")

	assert.Equal(t, []string{"/a", "/b", "/c"}, set.List())
	assert.Equal(t, 3, set.Len())
}

func TestResolveSharedPathsDisabled(t *testing.T) {
	t.Parallel()

	req := validRequest()
	req.InjectExe = "/opt/convoy/convoy-inject.exe"

	share, err := ResolveSharedPaths(afero.NewMemMapFs(), req, false, "/steam", nil)
	require.NoError(t, err)
	defer share.Cleanup()

	assert.Equal(t, 0, share.Paths.Len())

	// the effective helper locations are filled in regardless
	exe, err := os.Executable()
	require.NoError(t, err)
	assert.Equal(t, exe, share.HelperExe)
	assert.Equal(t, "/opt/convoy/convoy-inject.exe", share.InjectExe)
}

func TestResolveSharedPathsMultiplayer(t *testing.T) {
	t.Parallel()

	req := validRequest()
	sockets := []string{"/run/user/1000/discord-ipc-0"}

	share, err := ResolveSharedPaths(afero.NewMemMapFs(), req, true, "/steam", sockets)
	require.NoError(t, err)
	defer share.Cleanup()

	paths := share.Paths.List()
	assert.Contains(t, paths, req.GameDir)
	assert.Contains(t, paths, req.RunnerDir)
	assert.Contains(t, paths, req.PrefixDir)
	assert.Contains(t, paths, config.DataDir())
	assert.Contains(t, paths, req.ModDir)
	assert.Contains(t, paths, "/run/user/1000/discord-ipc-0")

	// sockets come last
	assert.Equal(t, "/run/user/1000/discord-ipc-0", paths[len(paths)-1])
}

func TestResolveSharedPathsSingleplayerUsesLibraries(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	vdf := `"libraryfolders"
{
	"0"
	{
		"path"		"/mnt/games"
	}
}
`
	require.NoError(t, afero.WriteFile(
		fs, "/steam/steamapps/libraryfolders.vdf", []byte(vdf), 0o644))

	req := validRequest()
	req.Singleplayer = true

	share, err := ResolveSharedPaths(fs, req, true, "/steam", nil)
	require.NoError(t, err)
	defer share.Cleanup()

	paths := share.Paths.List()
	assert.Contains(t, paths, "/steam")
	assert.Contains(t, paths, "/mnt/games")
	assert.NotContains(t, paths, req.ModDir)
}

func TestResolveSharedPathsDeduplicates(t *testing.T) {
	t.Parallel()

	req := validRequest()
	// two request fields pointing at the same directory share one entry
	req.RunnerDir = req.GameDir

	share, err := ResolveSharedPaths(afero.NewMemMapFs(), req, true, "/steam", nil)
	require.NoError(t, err)
	defer share.Cleanup()

	seen := 0
	for _, path := range share.Paths.List() {
		if path == req.GameDir {
			seen++
		}
	}
	assert.Equal(t, 1, seen)
}

func TestResolveSharedPathsDeterministic(t *testing.T) {
	t.Parallel()

	// the singleplayer branch pulls in every Steam library, which must
	// not disturb the ordering between runs
	fs := afero.NewMemMapFs()
	vdf := `"libraryfolders"
{
	"0"
	{
		"path"		"/mnt/a"
	}
	"1"
	{
		"path"		"/mnt/b"
	}
	"2"
	{
		"path"		"/mnt/c"
	}
}
`
	require.NoError(t, afero.WriteFile(
		fs, "/steam/steamapps/libraryfolders.vdf", []byte(vdf), 0o644))

	for _, singleplayer := range []bool{false, true} {
		req := validRequest()
		req.Singleplayer = singleplayer

		first, err := ResolveSharedPaths(fs, req, true, "/steam", nil)
		require.NoError(t, err)
		defer first.Cleanup()

		for i := 0; i < 20; i++ {
			next, err := ResolveSharedPaths(fs, req, true, "/steam", nil)
			require.NoError(t, err)
			defer next.Cleanup()
			assert.Equal(t, first.Paths.List(), next.Paths.List())
		}
	}
}

func TestShareContextCleanupIdempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	share := &ShareContext{Paths: &SharedPaths{}, Temp: &TempShareDir{Dir: dir}}

	share.Cleanup()
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	// second cleanup is a no-op
	share.Cleanup()
}

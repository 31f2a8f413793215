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

package steam

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		vdf      string
		wantName string
		wantOK   bool
	}{
		{
			name: "remembered and most recent",
			vdf: `"users"
{
	"76561190000000001"
	{
		"AccountName"	"trucker"
		"RememberPassword"	"1"
		"MostRecent"	"1"
	}
	"76561190000000002"
	{
		"AccountName"	"other"
		"RememberPassword"	"1"
		"MostRecent"	"0"
	}
}`,
			wantName: "trucker",
			wantOK:   true,
		},
		{
			name: "lowercase mostrecent key",
			vdf: `"users"
{
	"76561190000000001"
	{
		"AccountName"	"trucker"
		"RememberPassword"	"1"
		"mostrecent"	"1"
	}
}`,
			wantName: "trucker",
			wantOK:   true,
		},
		{
			name: "password not remembered",
			vdf: `"users"
{
	"76561190000000001"
	{
		"AccountName"	"trucker"
		"RememberPassword"	"0"
		"MostRecent"	"1"
	}
}`,
			wantOK: false,
		},
		{
			name: "nobody most recent",
			vdf: `"users"
{
	"76561190000000001"
	{
		"AccountName"	"trucker"
		"RememberPassword"	"1"
	}
}`,
			wantOK: false,
		},
		{
			name:   "no users block",
			vdf:    `"config" { }`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := afero.NewMemMapFs()
			path := "/steam/config/loginusers.vdf"
			require.NoError(t, afero.WriteFile(fs, path, []byte(tt.vdf), 0o644))

			name, ok := CurrentUser(fs, []string{path})

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestCurrentUserFallsThroughPaths(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	good := "/steam-flatpak/config/loginusers.vdf"
	require.NoError(t, afero.WriteFile(fs, good, []byte(`"users"
{
	"76561190000000001"
	{
		"AccountName"	"trucker"
		"RememberPassword"	"1"
		"MostRecent"	"1"
	}
}`), 0o644))

	name, ok := CurrentUser(fs, []string{"/steam/config/loginusers.vdf", good})

	require.True(t, ok)
	assert.Equal(t, "trucker", name)
}

func TestCurrentUserNoFiles(t *testing.T) {
	t.Parallel()

	_, ok := CurrentUser(afero.NewMemMapFs(), []string{"/steam/config/loginusers.vdf"})

	assert.False(t, ok)
}

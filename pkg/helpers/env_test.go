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

package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvGet(t *testing.T) {
	t.Parallel()

	env := []string{"HOME=/home/u", "WINEPREFIX=/pfx", "EMPTY="}

	value, ok := EnvGet(env, "WINEPREFIX")
	assert.True(t, ok)
	assert.Equal(t, "/pfx", value)

	value, ok = EnvGet(env, "EMPTY")
	assert.True(t, ok)
	assert.Empty(t, value)

	_, ok = EnvGet(env, "WINE")
	assert.False(t, ok)
}

func TestEnvSet(t *testing.T) {
	t.Parallel()

	env := []string{"HOME=/home/u"}

	env = EnvSet(env, "WINEPREFIX", "/pfx")
	assert.Equal(t, []string{"HOME=/home/u", "WINEPREFIX=/pfx"}, env)

	env = EnvSet(env, "WINEPREFIX", "/other")
	assert.Equal(t, []string{"HOME=/home/u", "WINEPREFIX=/other"}, env)
}

func TestEnvUnset(t *testing.T) {
	t.Parallel()

	env := []string{"LD_PRELOAD=/a.so", "HOME=/home/u", "LD_PRELOAD=/b.so"}

	assert.Equal(t, []string{"HOME=/home/u"}, EnvUnset(env, "LD_PRELOAD"))
	// a key that merely prefixes another key does not match it
	assert.Equal(t, []string{"AB=1"}, EnvUnset([]string{"AB=1"}, "A"))
}

func TestEnvEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  []string
		want bool
	}{
		{name: "set to one", env: []string{"PROTON_NO_ESYNC=1"}, want: true},
		{name: "set to arbitrary value", env: []string{"PROTON_NO_ESYNC=yes"}, want: true},
		{name: "set to zero", env: []string{"PROTON_NO_ESYNC=0"}, want: false},
		{name: "set to empty", env: []string{"PROTON_NO_ESYNC="}, want: false},
		{name: "unset", env: []string{"HOME=/home/u"}, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, EnvEnabled(tt.env, "PROTON_NO_ESYNC"))
		})
	}
}

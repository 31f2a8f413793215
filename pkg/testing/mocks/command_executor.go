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

// Package mocks provides testify mocks shared across package tests.
package mocks

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/ConvoyProject/convoy-cli/pkg/helpers/command"
	"github.com/stretchr/testify/mock"
)

// MockExecutor is a testify mock for command.Executor.
// It allows testing code that executes system commands without
// actually running them.
type MockExecutor struct {
	mock.Mock
}

// Run mocks the execution of a system command.
// Use On() to set expectations and Return() to control the mock behavior.
//
// Example:
//
//	exec := &MockExecutor{}
//	exec.On("Run", mock.Anything, mock.Anything).Return(nil)
func (m *MockExecutor) Run(ctx context.Context, spec command.Spec) error {
	called := m.Called(ctx, spec)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return called.Error(0)
}

// CombinedOutput mocks running a command and capturing its output.
func (m *MockExecutor) CombinedOutput(ctx context.Context, spec command.Spec) ([]byte, error) {
	called := m.Called(ctx, spec)
	out, _ := called.Get(0).([]byte)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return out, called.Error(1)
}

// Start mocks starting a command without waiting for it.
func (m *MockExecutor) Start(ctx context.Context, spec command.Spec) (command.Handle, error) {
	called := m.Called(ctx, spec)
	handle, _ := called.Get(0).(command.Handle)
	//nolint:wrapcheck // Mock returns are already wrapped by caller
	return handle, called.Error(1)
}

// FakeHandle is a hand-rolled command.Handle for tests that need to
// observe kill/wait ordering rather than set expectations.
type FakeHandle struct {
	WaitErr   error
	Output    string
	Alive     bool
	mu        sync.Mutex
	KillCount int
	WaitCount int
}

// Stdout returns the configured output as a pipe.
func (h *FakeHandle) Stdout() io.ReadCloser {
	return io.NopCloser(strings.NewReader(h.Output))
}

// Running reports the configured liveness, false after a kill.
func (h *FakeHandle) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Alive
}

// Kill records the call and marks the process dead.
func (h *FakeHandle) Kill() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.KillCount++
	h.Alive = false
	return nil
}

// Wait records the call and returns the configured error.
func (h *FakeHandle) Wait() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.WaitCount++
	h.Alive = false
	return h.WaitErr
}

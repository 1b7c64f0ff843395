// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/sys/unix"
)

// -----------------------------------------------------------------------------
// Interface Definition
// -----------------------------------------------------------------------------

// ProcessManager launches the local processes (ssh, scp, sh, cp) through
// which every gateway operation is carried out.
//
// All exec calls in the gateway go through this interface so unit tests
// can record invocations instead of reaching real hosts.
type ProcessManager interface {
	// Run executes a command synchronously, streaming its output to the
	// operator's terminal.
	//
	// # Description
	//
	// Waits for the command to finish. A command that ran and exited
	// non-zero is not an error at this level: the exit code is returned
	// with a nil error and the caller decides what it means.
	//
	// # Inputs
	//
	//   - ctx: Context for cancellation (no timeout is applied here)
	//   - name: The executable name or path
	//   - args: Command arguments (variadic)
	//
	// # Outputs
	//
	//   - int: The exit code (-1 when the process could not be started)
	//   - error: Non-nil only when the process could not be started or
	//     was cancelled
	//
	// # Examples
	//
	//   code, err := pm.Run(ctx, "ssh", "-i", identity, "cms@10.0.0.2", "screen -list")
	Run(ctx context.Context, name string, args ...string) (int, error)

	// Exec replaces the current process with the command.
	//
	// # Description
	//
	// On success Exec never returns: the calling program image is gone.
	// It must therefore be the last action of a command handler.
	//
	// # Outputs
	//
	//   - error: Non-nil if the executable cannot be found or exec fails
	Exec(name string, args ...string) error
}

// -----------------------------------------------------------------------------
// Implementation
// -----------------------------------------------------------------------------

// DefaultProcessManager implements ProcessManager using os/exec and
// execve(2).
type DefaultProcessManager struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewDefaultProcessManager returns a ProcessManager attached to the
// process's own stdin, stdout and stderr.
func NewDefaultProcessManager() *DefaultProcessManager {
	return &DefaultProcessManager{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes a command synchronously and returns its exit code.
func (pm *DefaultProcessManager) Run(ctx context.Context, name string, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = pm.Stdin
	cmd.Stdout = pm.Stdout
	cmd.Stderr = pm.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return exitErr.ExitCode(), nil
	}
	if ctx.Err() != nil {
		return -1, fmt.Errorf("%s: %w", name, ctx.Err())
	}
	return -1, fmt.Errorf("failed to start %s: %w", name, err)
}

// Exec replaces the current process image.
func (pm *DefaultProcessManager) Exec(name string, args ...string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("cannot find %s: %w", name, err)
	}
	argv := append([]string{name}, args...)
	if err := unix.Exec(path, argv, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Mock Implementation for Testing
// -----------------------------------------------------------------------------

// MockProcessManager is a test double for ProcessManager.
//
// Configure the mock by setting function fields before use. A nil RunFunc
// makes every command succeed with exit code 0; a nil ExecFunc makes Exec
// return nil, standing in for a successful process replacement.
//
// # Examples
//
//	mock := &MockProcessManager{
//	    RunFunc: func(ctx context.Context, name string, args ...string) (int, error) {
//	        if name == "scp" {
//	            return 1, nil
//	        }
//	        return 0, nil
//	    },
//	}
type MockProcessManager struct {
	// RunFunc is called when Run is invoked
	RunFunc func(ctx context.Context, name string, args ...string) (int, error)

	// ExecFunc is called when Exec is invoked
	ExecFunc func(name string, args ...string) error

	// Calls records all method invocations for verification
	Calls []ProcessManagerCall

	// mu protects Calls for concurrent access
	mu sync.Mutex
}

// ProcessManagerCall records a single method invocation.
type ProcessManagerCall struct {
	Method string
	Name   string
	Args   []string
}

// Argv returns the call as a single argument vector.
func (c ProcessManagerCall) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// Run delegates to RunFunc and records the call.
func (m *MockProcessManager) Run(ctx context.Context, name string, args ...string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, ProcessManagerCall{
		Method: "Run",
		Name:   name,
		Args:   append([]string(nil), args...),
	})
	if m.RunFunc == nil {
		return 0, nil
	}
	return m.RunFunc(ctx, name, args...)
}

// Exec delegates to ExecFunc and records the call.
func (m *MockProcessManager) Exec(name string, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, ProcessManagerCall{
		Method: "Exec",
		Name:   name,
		Args:   append([]string(nil), args...),
	})
	if m.ExecFunc == nil {
		return nil
	}
	return m.ExecFunc(name, args...)
}

// Reset clears all recorded calls.
func (m *MockProcessManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// GetCalls returns a copy of all recorded calls.
func (m *MockProcessManager) GetCalls() []ProcessManagerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]ProcessManagerCall, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// Compile-time interface compliance check.
var (
	_ ProcessManager = (*DefaultProcessManager)(nil)
	_ ProcessManager = (*MockProcessManager)(nil)
)

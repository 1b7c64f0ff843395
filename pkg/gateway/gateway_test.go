// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gateway

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jinterlante1206/cmsfleet/pkg/logging"
	"github.com/jinterlante1206/cmsfleet/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	remoteHost = topology.Host{
		Name:    "worker0",
		Address: "10.0.0.2",
		Role:    topology.RoleWorker,
		Kind:    topology.KindRemote,
		SSH:     topology.SSH{Address: "203.0.113.2", Username: "cms"},
	}
	localHost = topology.Host{
		Name:    "main",
		Address: "127.0.0.1",
		Role:    topology.RoleMain,
		Kind:    topology.KindLocal,
		Main:    &topology.MainExtension{},
	}
)

// newTestExecutor returns an executor wired to a recording mock, capturing
// echoed lines and log output.
func newTestExecutor(mock *MockProcessManager) (*Executor, *[]string, *bytes.Buffer) {
	var echoed []string
	var logs bytes.Buffer
	exec := New(Config{
		IdentityFile: "/keys/cluster",
		Processes:    mock,
		Logger:       logging.New(logging.Config{Output: &logs}),
		Echo:         func(line string) { echoed = append(echoed, line) },
		Shell:        "/bin/bash",
	})
	return exec, &echoed, &logs
}

func TestRun_Remote(t *testing.T) {
	mock := &MockProcessManager{}
	exec, echoed, logs := newTestExecutor(mock)

	code, err := exec.Run(context.Background(), remoteHost, "screen -list")
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	calls := mock.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Run", calls[0].Method)
	assert.Equal(t, []string{"ssh", "-i", "/keys/cluster", "cms@203.0.113.2", "screen -list"}, calls[0].Argv())

	require.Len(t, *echoed, 1)
	assert.Equal(t, "ssh -i /keys/cluster cms@203.0.113.2 'screen -list'", (*echoed)[0])

	assert.Contains(t, logs.String(), "msg=executing")
	assert.Contains(t, logs.String(), "host=worker0")
	assert.Contains(t, logs.String(), "kind=remote")
}

func TestRun_LogsBeforeLaunch(t *testing.T) {
	mock := &MockProcessManager{}
	exec, echoed, logs := newTestExecutor(mock)

	var loggedAtLaunch string
	var echoedAtLaunch int
	mock.RunFunc = func(ctx context.Context, name string, args ...string) (int, error) {
		loggedAtLaunch = logs.String()
		echoedAtLaunch = len(*echoed)
		return 0, nil
	}

	_, err := exec.Run(context.Background(), remoteHost, "screen -list")
	require.NoError(t, err)

	assert.Contains(t, loggedAtLaunch, "msg=executing")
	assert.Contains(t, loggedAtLaunch, "host=worker0")
	assert.Equal(t, 1, echoedAtLaunch)
}

func TestCopy_LogsBeforeLaunch(t *testing.T) {
	mock := &MockProcessManager{}
	exec, _, logs := newTestExecutor(mock)

	var loggedAtLaunch string
	mock.RunFunc = func(ctx context.Context, name string, args ...string) (int, error) {
		loggedAtLaunch = logs.String()
		return 0, nil
	}

	require.NoError(t, exec.Copy(context.Background(), remoteHost, "/tmp/cms.toml", "/usr/local/etc/cms.toml"))
	assert.Contains(t, loggedAtLaunch, "msg=executing")
}

func TestRun_Local(t *testing.T) {
	mock := &MockProcessManager{}
	exec, _, logs := newTestExecutor(mock)

	_, err := exec.Run(context.Background(), localHost, "echo hi")
	require.NoError(t, err)

	calls := mock.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"sh", "-c", "echo hi"}, calls[0].Argv())
	assert.Contains(t, logs.String(), "kind=local")
}

func TestRun_NonZeroExit(t *testing.T) {
	mock := &MockProcessManager{
		RunFunc: func(ctx context.Context, name string, args ...string) (int, error) {
			return 3, nil
		},
	}
	exec, _, _ := newTestExecutor(mock)

	code, err := exec.Run(context.Background(), remoteHost, "false")
	assert.Equal(t, 3, code)

	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "worker0", cmdErr.Host)
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Contains(t, err.Error(), "worker0")
	assert.Contains(t, err.Error(), "exit 3")
	assert.True(t, IsCommandError(err))
}

func TestRun_LaunchFailure(t *testing.T) {
	launchErr := errors.New("executable file not found")
	mock := &MockProcessManager{
		RunFunc: func(ctx context.Context, name string, args ...string) (int, error) {
			return -1, launchErr
		},
	}
	exec, _, _ := newTestExecutor(mock)

	code, err := exec.Run(context.Background(), remoteHost, "true")
	assert.Equal(t, -1, code)
	assert.ErrorIs(t, err, launchErr)
	assert.True(t, IsCommandError(err))
}

func TestRun_UnknownKind(t *testing.T) {
	mock := &MockProcessManager{}
	exec, _, _ := newTestExecutor(mock)

	host := remoteHost
	host.Kind = topology.Kind(9)
	_, err := exec.Run(context.Background(), host, "true")
	assert.Error(t, err)
	assert.Empty(t, mock.GetCalls())
}

func TestCopy_Remote(t *testing.T) {
	mock := &MockProcessManager{}
	exec, echoed, _ := newTestExecutor(mock)

	err := exec.Copy(context.Background(), remoteHost, "/tmp/cms.toml", "/usr/local/etc/cms.toml")
	require.NoError(t, err)

	calls := mock.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t,
		[]string{"scp", "-i", "/keys/cluster", "/tmp/cms.toml", "cms@203.0.113.2:/usr/local/etc/cms.toml"},
		calls[0].Argv())
	assert.Len(t, *echoed, 1)
}

func TestCopy_Local(t *testing.T) {
	mock := &MockProcessManager{}
	exec, _, _ := newTestExecutor(mock)

	require.NoError(t, exec.Copy(context.Background(), localHost, "a", "b"))
	assert.Equal(t, []string{"cp", "a", "b"}, mock.GetCalls()[0].Argv())
}

func TestCopy_Failure(t *testing.T) {
	mock := &MockProcessManager{
		RunFunc: func(ctx context.Context, name string, args ...string) (int, error) {
			return 1, nil
		},
	}
	exec, _, logs := newTestExecutor(mock)

	err := exec.Copy(context.Background(), remoteHost, "/tmp/cms.toml", "/etc/cms.toml")

	var transferErr *TransferError
	require.ErrorAs(t, err, &transferErr)
	assert.Equal(t, "worker0", transferErr.Host)
	assert.Equal(t, "/etc/cms.toml", transferErr.Destination)
	assert.Equal(t, 1, transferErr.ExitCode)
	assert.True(t, IsTransferError(err))
	assert.False(t, IsCommandError(err))
	assert.Contains(t, logs.String(), "transfer failed")
}

func TestConnectInteractive_Remote(t *testing.T) {
	mock := &MockProcessManager{}
	exec, _, _ := newTestExecutor(mock)

	require.NoError(t, exec.ConnectInteractive(remoteHost))

	calls := mock.GetCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Exec", calls[0].Method)
	assert.Equal(t, []string{"ssh", "-i", "/keys/cluster", "cms@203.0.113.2"}, calls[0].Argv())
}

func TestConnectInteractive_Local(t *testing.T) {
	mock := &MockProcessManager{}
	exec, _, _ := newTestExecutor(mock)

	require.NoError(t, exec.ConnectInteractive(localHost))
	assert.Equal(t, []string{"/bin/bash"}, mock.GetCalls()[0].Argv())
}

func TestConnectInteractive_ExecFailure(t *testing.T) {
	mock := &MockProcessManager{
		ExecFunc: func(name string, args ...string) error {
			return errors.New("no such file")
		},
	}
	exec, _, _ := newTestExecutor(mock)

	err := exec.ConnectInteractive(remoteHost)
	assert.ErrorContains(t, err, "connect to worker0")
}

func TestNew_NoIdentityFile(t *testing.T) {
	mock := &MockProcessManager{}
	exec := New(Config{Processes: mock, Echo: func(string) {}})

	_, err := exec.Run(context.Background(), remoteHost, "uptime")
	require.NoError(t, err)
	assert.Equal(t, []string{"ssh", "cms@203.0.113.2", "uptime"}, mock.GetCalls()[0].Argv())
}

func TestNew_ExpandsIdentityFile(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	mock := &MockProcessManager{}
	exec := New(Config{IdentityFile: "~/.ssh/cms", Processes: mock, Echo: func(string) {}})

	_, err = exec.Run(context.Background(), remoteHost, "uptime")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".ssh/cms"), mock.GetCalls()[0].Args[1])
}

func TestMockProcessManager_Reset(t *testing.T) {
	mock := &MockProcessManager{}
	_, _ = mock.Run(context.Background(), "true")
	require.Len(t, mock.GetCalls(), 1)

	mock.Reset()
	assert.Empty(t, mock.GetCalls())
}

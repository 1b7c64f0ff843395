// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gateway runs commands, copies files and opens interactive
// sessions on cluster hosts.
//
// The same three operations work for every host kind. Remote hosts are
// driven through ssh and scp with the cluster's shared identity file;
// local hosts run through sh and cp. Every invocation is logged and echoed
// to the operator before it executes.
//
//	gw := gateway.New(gateway.Config{
//	    IdentityFile: topo.IdentityFile(),
//	    Logger:       logger,
//	})
//	code, err := gw.Run(ctx, host, "screen -list")
package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jinterlante1206/cmsfleet/pkg/logging"
	"github.com/jinterlante1206/cmsfleet/pkg/topology"
	"github.com/jinterlante1206/cmsfleet/pkg/ux"
	"github.com/kballard/go-shellquote"
)

// Gateway is the execution contract shared by all host kinds.
type Gateway interface {
	// Run executes one shell command on host.
	//
	// # Outputs
	//
	//   - int: Exit code of the command (-1 if it never ran)
	//   - error: *CommandError when the exit code is non-zero or the
	//     command could not be launched
	Run(ctx context.Context, host topology.Host, command string) (int, error)

	// Copy transfers the local file src to dst on host.
	//
	// # Outputs
	//
	//   - error: *TransferError on failure
	Copy(ctx context.Context, host topology.Host, src, dst string) error

	// ConnectInteractive replaces the current process with a shell on
	// host. It does not return on success, so it must be the last action
	// of its caller.
	ConnectInteractive(host topology.Host) error
}

// Config configures an Executor.
type Config struct {
	// IdentityFile is the private key used for every remote host. A
	// leading "~" is expanded.
	IdentityFile string

	// Processes launches the ssh/scp/sh/cp processes. Default:
	// NewDefaultProcessManager().
	Processes ProcessManager

	// Logger receives one audit entry per invocation. Default: discard.
	Logger *logging.Logger

	// Echo prints the command line before it runs. Default: ux.Command.
	Echo func(line string)

	// Shell is the program local connect replaces the process with.
	// Default: $SHELL, then /bin/sh.
	Shell string
}

// Executor implements Gateway by dispatching each host to the transport
// for its kind.
type Executor struct {
	processes ProcessManager
	logger    *logging.Logger
	echo      func(string)

	transports map[topology.Kind]transport
}

// New creates an Executor from config, filling in defaults.
func New(config Config) *Executor {
	processes := config.Processes
	if processes == nil {
		processes = NewDefaultProcessManager()
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	echo := config.Echo
	if echo == nil {
		echo = ux.Command
	}
	shell := config.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}

	return &Executor{
		processes: processes,
		logger:    logger,
		echo:      echo,
		transports: map[topology.Kind]transport{
			topology.KindRemote: remoteTransport{identityFile: expandHome(config.IdentityFile)},
			topology.KindLocal:  localTransport{shell: shell},
		},
	}
}

// Run executes command on host and reports a non-zero exit as a
// *CommandError. The caller decides whether to continue.
func (e *Executor) Run(ctx context.Context, host topology.Host, command string) (int, error) {
	t, err := e.transport(host)
	if err != nil {
		return -1, &CommandError{Host: host.Name, Command: command, ExitCode: -1, Wrapped: err}
	}
	argv := t.run(host, command)
	line := e.announce(host, argv)

	code, err := e.processes.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		e.logger.Warn("command failed to run", "host", host.Name, "command", line, "error", err.Error())
		return code, &CommandError{Host: host.Name, Command: line, ExitCode: code, Wrapped: err}
	}
	if code != 0 {
		e.logger.Warn("command exited non-zero", "host", host.Name, "command", line, "exit_code", code)
		return code, &CommandError{Host: host.Name, Command: line, ExitCode: code}
	}
	return 0, nil
}

// Copy transfers src to dst on host.
func (e *Executor) Copy(ctx context.Context, host topology.Host, src, dst string) error {
	t, err := e.transport(host)
	if err != nil {
		return &TransferError{Host: host.Name, Source: src, Destination: dst, ExitCode: -1, Wrapped: err}
	}
	argv := t.copy(host, src, dst)
	line := e.announce(host, argv)

	code, err := e.processes.Run(ctx, argv[0], argv[1:]...)
	if err != nil || code != 0 {
		e.logger.Error("transfer failed", "host", host.Name, "command", line, "exit_code", code)
		return &TransferError{Host: host.Name, Source: src, Destination: dst, ExitCode: code, Wrapped: err}
	}
	return nil
}

// ConnectInteractive replaces the current process with a shell on host.
func (e *Executor) ConnectInteractive(host topology.Host) error {
	t, err := e.transport(host)
	if err != nil {
		return err
	}
	argv := t.connect(host)
	e.announce(host, argv)

	if err := e.processes.Exec(argv[0], argv[1:]...); err != nil {
		return fmt.Errorf("connect to %s: %w", host.Name, err)
	}
	return nil
}

func (e *Executor) transport(host topology.Host) (transport, error) {
	t, ok := e.transports[host.Kind]
	if !ok {
		return nil, fmt.Errorf("host %s has unsupported kind %s", host.Name, host.Kind)
	}
	return t, nil
}

// announce writes the audit entry and echoes the command line.
func (e *Executor) announce(host topology.Host, argv []string) string {
	line := shellquote.Join(argv...)
	e.logger.Info("executing", "host", host.Name, "kind", host.Kind.String(), "command", line)
	e.echo(line)
	return line
}

// =============================================================================
// Transports
// =============================================================================

// transport builds the argument vectors for one host kind.
type transport interface {
	run(host topology.Host, command string) []string
	copy(host topology.Host, src, dst string) []string
	connect(host topology.Host) []string
}

// remoteTransport reaches hosts over ssh and scp.
type remoteTransport struct {
	identityFile string
}

func (r remoteTransport) identity() []string {
	if r.identityFile == "" {
		return nil
	}
	return []string{"-i", r.identityFile}
}

func (r remoteTransport) run(host topology.Host, command string) []string {
	argv := append([]string{"ssh"}, r.identity()...)
	return append(argv, host.SSH.Target(), command)
}

func (r remoteTransport) copy(host topology.Host, src, dst string) []string {
	argv := append([]string{"scp"}, r.identity()...)
	return append(argv, src, host.SSH.Target()+":"+dst)
}

func (r remoteTransport) connect(host topology.Host) []string {
	argv := append([]string{"ssh"}, r.identity()...)
	return append(argv, host.SSH.Target())
}

// localTransport runs on the operator's own machine.
type localTransport struct {
	shell string
}

func (l localTransport) run(_ topology.Host, command string) []string {
	return []string{"sh", "-c", command}
}

func (l localTransport) copy(_ topology.Host, src, dst string) []string {
	return []string{"cp", src, dst}
}

func (l localTransport) connect(_ topology.Host) []string {
	return []string{l.shell}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// Compile-time interface compliance check.
var _ Gateway = (*Executor)(nil)

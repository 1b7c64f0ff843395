// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gateway

import (
	"errors"
	"fmt"
)

// CommandError reports a command that exited non-zero on a host, or that
// could not be launched at all.
//
// # Description
//
// Batch operations record a CommandError per failing host and continue
// with the next one. The error names the host and the exact command line
// so the operator can re-run it by hand.
//
// # Example
//
//	var cmdErr *CommandError
//	if errors.As(err, &cmdErr) {
//	    fmt.Println(cmdErr.Host, cmdErr.ExitCode)
//	}
type CommandError struct {
	// Host is the name of the target host (main, worker0, ...).
	Host string

	// Command is the command line run on the host.
	Command string

	// ExitCode is the process exit code (-1 if it never ran).
	ExitCode int

	// Wrapped is the launch failure, if any.
	Wrapped error
}

// Error returns a formatted error message.
func (e *CommandError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (exit %d): %v", e.Host, e.Command, e.ExitCode, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s (exit %d)", e.Host, e.Command, e.ExitCode)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Wrapped
}

// TransferError reports a failed file copy to a host. A TransferError
// aborts configuration distribution.
type TransferError struct {
	Host        string
	Source      string
	Destination string

	// ExitCode is the copy process exit code (-1 if it never ran).
	ExitCode int

	Wrapped error
}

func (e *TransferError) Error() string {
	msg := fmt.Sprintf("%s: copy %s to %s failed (exit %d)", e.Host, e.Source, e.Destination, e.ExitCode)
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

func (e *TransferError) Unwrap() error {
	return e.Wrapped
}

// IsCommandError reports whether err is, or wraps, a *CommandError.
func IsCommandError(err error) bool {
	var cmdErr *CommandError
	return errors.As(err, &cmdErr)
}

// IsTransferError reports whether err is, or wraps, a *TransferError.
func IsTransferError(err error) bool {
	var transferErr *TransferError
	return errors.As(err, &transferErr)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package topology

import (
	"fmt"
)

// ConfigError reports a malformed or incomplete topology or template source.
//
// # Description
//
// ConfigError is fatal: callers abort before any remote action is taken.
// Path names the offending field using the document's own key names
// (e.g. "main.db.name", "workers[1].ssh.username") so the operator can
// fix the file without reading the code.
//
// # Example
//
//	var cfgErr *topology.ConfigError
//	if errors.As(err, &cfgErr) {
//	    fmt.Println(cfgErr.Path) // "main.address"
//	}
type ConfigError struct {
	// Source is the file the error was found in (may be empty).
	Source string

	// Path is the dotted key path of the offending field (may be empty
	// when the whole document is unreadable).
	Path string

	// Reason is a short human-readable explanation.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

// Error returns a formatted error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Source != "" {
		msg += " in " + e.Source
	}
	if e.Path != "" {
		msg += fmt.Sprintf(": %s", e.Path)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// SelectorError reports a host pattern that does not match the selector
// grammar, or that resolved to the wrong number of hosts for a command
// requiring exactly one.
type SelectorError struct {
	Pattern string
	Reason  string
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("host selector `%s`: %s", e.Pattern, e.Reason)
}

// NotFoundError reports a worker index outside [0, Count).
type NotFoundError struct {
	Pattern string
	Index   int
	Count   int
}

func (e *NotFoundError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("host selector `%s`: no workers are configured", e.Pattern)
	}
	if e.Index < 0 {
		return fmt.Sprintf("host selector `%s`: worker index out of range, configuration has workers 0..%d",
			e.Pattern, e.Count-1)
	}
	return fmt.Sprintf("host selector `%s`: worker index %d out of range, configuration has workers 0..%d",
		e.Pattern, e.Index, e.Count-1)
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"

	"github.com/jinterlante1206/cmsfleet/pkg/lifecycle"
	"github.com/jinterlante1206/cmsfleet/pkg/ux"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess  = 0 // Operation completed successfully
	CLIExitFailures = 1 // Batch completed, some hosts failed
	CLIExitError    = 2 // Operation failed
)

// batchError reports a batch that ran to completion with failed hosts.
type batchError struct {
	failed int
	total  int
}

func (e *batchError) Error() string {
	return fmt.Sprintf("%d of %d hosts failed", e.failed, e.total)
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return CLIExitSuccess
	}
	var batchErr *batchError
	if errors.As(err, &batchErr) {
		return CLIExitFailures
	}
	return CLIExitError
}

// finishReport prints the per-host failures and the summary line, and
// returns a *batchError when any host failed.
func finishReport(report *lifecycle.Report) error {
	failed := report.Failed()
	for _, res := range failed {
		ux.Error(res.Err.Error())
	}
	total := len(report.Results)
	ux.Summary(total-len(failed), len(failed), total)
	if len(failed) > 0 {
		return &batchError{failed: len(failed), total: total}
	}
	return nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation checks operator inputs that end up inside remote
// shell commands or remote file paths. Callers validate before any host is
// contacted.
package validation

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// AllContests is the contest id that makes the resource service serve
// every contest.
const AllContests = "ALL"

// contestIDPattern matches a CMS contest id: a positive integer.
var contestIDPattern = regexp.MustCompile(`^[1-9][0-9]{0,9}$`)

// ValidateContestID accepts ALL or a positive integer.
//
// Example:
//
//	if err := validation.ValidateContestID(id); err != nil {
//	    return nil, err
//	}
func ValidateContestID(id string) error {
	if id == "" {
		return fmt.Errorf("contest id cannot be empty")
	}
	if id == AllContests || contestIDPattern.MatchString(id) {
		return nil
	}
	return fmt.Errorf("invalid contest id %q (want %s or a positive integer)", id, AllContests)
}

// SanitizeContestID trims the id, accepts "all" in any case, and
// validates the result. An empty id means ALL.
func SanitizeContestID(id string) (string, error) {
	normalized := strings.TrimSpace(id)
	if normalized == "" || strings.EqualFold(normalized, AllContests) {
		return AllContests, nil
	}
	if err := ValidateContestID(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// ValidateRemotePath checks a destination path on a remote host: it must
// be absolute, clean of control characters, and name a file.
func ValidateRemotePath(p string) error {
	if p == "" {
		return fmt.Errorf("remote path cannot be empty")
	}
	if strings.ContainsFunc(p, func(r rune) bool { return r < 0x20 || r == 0x7f }) {
		return fmt.Errorf("remote path %q contains control characters", p)
	}
	if !path.IsAbs(p) {
		return fmt.Errorf("remote path %q must be absolute", p)
	}
	if strings.HasSuffix(p, "/") || path.Clean(p) == "/" {
		return fmt.Errorf("remote path %q names a directory, not a file", p)
	}
	return nil
}

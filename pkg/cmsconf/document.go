// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cmsconf

import (
	"strings"

	"github.com/jinterlante1206/cmsfleet/pkg/topology"
)

// Overwrite replaces the value at a dotted Path of a Document.
type Overwrite struct {
	Path  string
	Value any
}

// Document is a CMS configuration tree decoded from a template.
//
// Values keep the types their codec produced (json.Number for JSON
// numbers, int64 for TOML integers, and so on) so that untouched paths
// encode back to what the template held.
type Document struct {
	// Source names where the template came from, for error messages.
	Source string

	// Format is the codec the document was decoded with and is encoded
	// with by default.
	Format Format

	root map[string]any
}

// NewDocument wraps a decoded tree. A nil root becomes an empty document.
func NewDocument(source string, format Format, root map[string]any) *Document {
	if root == nil {
		root = map[string]any{}
	}
	return &Document{Source: source, Format: format, root: root}
}

// Tree returns the underlying tree. Callers must not modify it.
func (d *Document) Tree() map[string]any {
	return d.root
}

// Get returns the value at a dotted path.
func (d *Document) Get(path string) (any, bool) {
	var cur any = d.root
	for _, key := range strings.Split(path, ".") {
		section, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = section[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set writes value at a dotted path.
//
// # Description
//
// Every section on the way to the final key must already exist in the
// template: Set never invents containers, so a template missing e.g. the
// [database] section fails instead of silently growing one. The final
// key itself is created or replaced.
//
// # Outputs
//
//   - error: *topology.ConfigError naming the missing or non-section path
func (d *Document) Set(path string, value any) error {
	keys := strings.Split(path, ".")
	section := d.root
	for i, key := range keys[:len(keys)-1] {
		prefix := strings.Join(keys[:i+1], ".")
		next, ok := section[key]
		if !ok {
			return &topology.ConfigError{
				Source: d.Source,
				Path:   prefix,
				Reason: "section is missing from the template (needed for " + path + ")",
			}
		}
		nested, ok := next.(map[string]any)
		if !ok {
			return &topology.ConfigError{
				Source: d.Source,
				Path:   prefix,
				Reason: "is not a section (needed for " + path + ")",
			}
		}
		section = nested
	}
	section[keys[len(keys)-1]] = value
	return nil
}

// Apply performs the overwrites in order and stops at the first failure.
func (d *Document) Apply(overwrites []Overwrite) error {
	for _, o := range overwrites {
		if err := d.Set(o.Path, o.Value); err != nil {
			return err
		}
	}
	return nil
}

// Encode serializes the document in its own format.
func (d *Document) Encode() ([]byte, error) {
	return Encode(d.root, d.Format)
}

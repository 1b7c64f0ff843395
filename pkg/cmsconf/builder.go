// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package cmsconf builds the CMS configuration distributed to every host.
//
// A base template (JSON, TOML or YAML) is decoded into a generic tree, a
// fixed list of overwrites derived from the topology is applied, and every
// other value of the template passes through untouched:
//
//	tmpl, err := cmsconf.LoadTemplate("cms.sample.toml")
//	doc, err := cmsconf.Build(tmpl, topo, "")
//	data, err := doc.Encode()
package cmsconf

import (
	_ "embed"
	"errors"
	"os"

	"github.com/jinterlante1206/cmsfleet/pkg/topology"
)

//go:embed templates/cms.sample.toml
var sampleTOML []byte

// Template is a base configuration document before injection.
type Template struct {
	Source string
	Format Format
	Data   []byte
}

// SampleTemplate returns the embedded CMS 1.5 sample configuration.
func SampleTemplate() Template {
	return Template{
		Source: "embedded cms.sample.toml",
		Format: FormatTOML,
		Data:   sampleTOML,
	}
}

// LoadTemplate reads a template from disk. An empty path selects the
// embedded sample.
func LoadTemplate(path string) (Template, error) {
	if path == "" {
		return SampleTemplate(), nil
	}
	format, err := FormatFromPath(path)
	if err != nil {
		return Template{}, &topology.ConfigError{Source: path, Reason: "unknown template format", Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		reason := "cannot read template"
		if errors.Is(err, os.ErrNotExist) {
			reason = "template not found"
		}
		return Template{}, &topology.ConfigError{Source: path, Reason: reason, Err: err}
	}
	return Template{Source: path, Format: format, Data: data}, nil
}

// Build decodes the template and injects the values derived from t.
//
// # Description
//
// An empty layout is chosen from the template format (see DefaultLayout).
// The template must already contain every section an overwrite writes
// into; otherwise Build fails and nothing is produced.
//
// # Outputs
//
//   - *Document: The configuration to distribute
//   - error: *topology.ConfigError for malformed templates or missing sections
func Build(tmpl Template, t *topology.Topology, layout Layout) (*Document, error) {
	doc, err := Decode(tmpl.Data, tmpl.Format, tmpl.Source)
	if err != nil {
		return nil, err
	}
	if layout == "" {
		layout = DefaultLayout(tmpl.Format)
	}
	if err := doc.Apply(layout.Overwrites(t)); err != nil {
		return nil, err
	}
	return doc, nil
}

// Render builds the document and encodes it in the template's format.
func Render(tmpl Template, t *topology.Topology, layout Layout) ([]byte, error) {
	doc, err := Build(tmpl, t, layout)
	if err != nil {
		return nil, err
	}
	return doc.Encode()
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cmsconf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jinterlante1206/cmsfleet/pkg/topology"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a configuration document.
type Format string

const (
	// FormatJSON is the cms.conf format of CMS 1.4 and earlier.
	FormatJSON Format = "json"

	// FormatTOML is the cms.toml format of CMS 1.5.
	FormatTOML Format = "toml"

	// FormatYAML is accepted for operators who keep their templates in YAML.
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. ".conf" is the
// historical name of the JSON configuration.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".conf":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("cannot tell the format of %q (want .json, .conf, .toml, .yaml or .yml)", path)
	}
}

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatTOML, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, toml or yaml)", s)
	}
}

// FileName is the conventional CMS configuration file name for f.
func (f Format) FileName() string {
	switch f {
	case FormatJSON:
		return "cms.conf"
	case FormatYAML:
		return "cms.yaml"
	default:
		return "cms.toml"
	}
}

// Decode parses data into a Document. The root must be a mapping.
func Decode(data []byte, format Format, source string) (*Document, error) {
	root := map[string]any{}
	var err error

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(&root)
	case FormatTOML:
		err = toml.Unmarshal(data, &root)
	case FormatYAML:
		err = yaml.Unmarshal(data, &root)
	default:
		return nil, &topology.ConfigError{Source: source, Reason: fmt.Sprintf("unsupported format %q", format)}
	}
	if err != nil && err != io.EOF {
		return nil, &topology.ConfigError{Source: source, Reason: "malformed " + string(format) + " template", Err: err}
	}
	return NewDocument(source, format, root), nil
}

// Encode serializes a tree. JSON uses four-space indentation like the
// stock cms.conf; map keys come out sorted in every format.
func Encode(tree map[string]any, format Format) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "    ")
		if err := enc.Encode(tree); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
	case FormatTOML:
		if err := toml.NewEncoder(&buf).Encode(tree); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return buf.Bytes(), nil
}

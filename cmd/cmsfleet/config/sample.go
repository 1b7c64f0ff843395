// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config generates the operator's starting topology file.
package config

import (
	"bytes"
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where init-conf writes when no path is given.
const DefaultPath = "conf.yaml"

//go:embed conf.sample.yaml
var sampleConf []byte

// ErrExists is returned by WriteSample when the target exists and force
// is not set.
var ErrExists = errors.New("configuration file already exists")

// NewSecretKey returns 16 random bytes as 32 hex characters.
func NewSecretKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Sample renders the commented sample topology with secretKey filled in.
//
// # Description
//
// The sample is edited as a yaml.Node tree so its comments survive; only
// the secret_key scalar is replaced.
func Sample(secretKey string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(sampleConf, &doc); err != nil {
		return nil, fmt.Errorf("parse embedded sample: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("embedded sample is not a mapping")
	}

	root := doc.Content[0]
	found := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "secret_key" {
			root.Content[i+1].Value = secretKey
			root.Content[i+1].Tag = "!!str"
			root.Content[i+1].Style = 0
			found = true
			break
		}
	}
	if !found {
		return nil, errors.New("embedded sample has no secret_key")
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("encode sample: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode sample: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteSample writes a fresh topology file with a random secret key.
//
// # Inputs
//
//   - path: Destination file ("" for DefaultPath)
//   - force: Overwrite an existing file
//
// # Outputs
//
//   - string: The path written
//   - error: ErrExists (wrapped) when path exists and force is false
func WriteSample(path string, force bool) (string, error) {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("%s: %w (use --force to overwrite)", path, ErrExists)
	}

	key, err := NewSecretKey()
	if err != nil {
		return path, err
	}
	data, err := Sample(key)
	if err != nil {
		return path, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return path, fmt.Errorf("failed to create the config directory %w", err)
	}
	// The file holds the database password and the secret key.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return path, fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/jinterlante1206/cmsfleet/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexKey = regexp.MustCompile(`^[0-9a-f]{32}$`)

func TestNewSecretKey(t *testing.T) {
	a, err := NewSecretKey()
	require.NoError(t, err)
	b, err := NewSecretKey()
	require.NoError(t, err)

	assert.Regexp(t, hexKey, a)
	assert.NotEqual(t, a, b)
}

func TestSample_IsValidTopology(t *testing.T) {
	data, err := Sample("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	topo, err := topology.Parse(data, "conf.yaml")
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", topo.SecretKey())
	assert.Len(t, topo.Workers(), 2)
	assert.Equal(t, "/opt/cms", topo.CMSDir())
}

func TestSample_KeepsComments(t *testing.T) {
	data, err := Sample("abc")
	require.NoError(t, err)

	assert.Contains(t, string(data), "# Private key used to ssh/scp into every host.")
	assert.Contains(t, string(data), "secret_key: abc")
	assert.NotContains(t, string(data), "REPLACED_BY_INIT_CONF")
}

func TestWriteSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "conf.yaml")

	written, err := WriteSample(path, false)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	topo, err := topology.Load(path)
	require.NoError(t, err)
	assert.Regexp(t, hexKey, topo.SecretKey())
}

func TestWriteSample_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mine"), 0600))

	_, err := WriteSample(path, false)
	assert.True(t, errors.Is(err, ErrExists))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))

	_, err = WriteSample(path, true)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, "mine", string(data))
}

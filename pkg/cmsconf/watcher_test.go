// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cmsconf

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeRecorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *changeRecorder) handle(changed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, changed)
}

func (r *changeRecorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.batches))
	copy(out, r.batches)
	return out
}

func startWatcher(t *testing.T, paths []string) *changeRecorder {
	t.Helper()
	w, err := NewFileWatcher(paths, &WatcherOptions{DebounceWindow: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	rec := &changeRecorder{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx, rec.handle)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
	return rec
}

func TestFileWatcher_ReportsWatchedFile(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "conf.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("a: 1\n"), 0o600))

	rec := startWatcher(t, []string{conf})

	require.NoError(t, os.WriteFile(conf, []byte("a: 2\n"), 0o600))

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) > 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{conf}, rec.snapshot()[0])
}

func TestFileWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "conf.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("a: 1\n"), 0o600))

	rec := startWatcher(t, []string{conf})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestFileWatcher_BatchesBurst(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "conf.yaml")
	tmpl := filepath.Join(dir, "cms.toml")
	require.NoError(t, os.WriteFile(conf, nil, 0o600))
	require.NoError(t, os.WriteFile(tmpl, nil, 0o600))

	rec := startWatcher(t, []string{conf, tmpl})

	require.NoError(t, os.WriteFile(conf, []byte("a: 1\n"), 0o600))
	require.NoError(t, os.WriteFile(tmpl, []byte("[x]\n"), 0o600))

	require.Eventually(t, func() bool {
		for _, batch := range rec.snapshot() {
			if len(batch) == 2 {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewFileWatcher_MissingDirectory(t *testing.T) {
	_, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "nope", "conf.yaml")}, nil)
	assert.Error(t, err)
}

func TestFileWatcher_CloseIdempotent(t *testing.T) {
	w, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "conf.yaml")}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

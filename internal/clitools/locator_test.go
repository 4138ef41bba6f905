//go:build unix

package clitools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTool(t *testing.T, dir, name string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), mode))
	return path
}

func newTestLocator(dirs ...string) *Locator {
	l := NewLocator().WithSearchPaths(dirs...)
	l.shells = nil
	return l
}

func TestFindInSearchPath(t *testing.T) {
	dir := t.TempDir()
	want := writeTool(t, dir, "gh", 0o755)

	l := newTestLocator(dir)
	got, err := l.Find("gh")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindSkipsNonExecutable(t *testing.T) {
	dir := t.TempDir()
	writeTool(t, dir, "gh", 0o644)

	l := newTestLocator(dir)
	t.Setenv("PATH", dir)

	_, err := l.Find("gh")
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestFindSearchPathOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	want := writeTool(t, first, "gh", 0o755)
	writeTool(t, second, "gh", 0o755)

	l := newTestLocator(first, second)
	got, err := l.Find("gh")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindFallsBackToPath(t *testing.T) {
	dir := t.TempDir()
	want := writeTool(t, dir, "gh", 0o755)
	t.Setenv("PATH", dir)

	l := newTestLocator(t.TempDir())
	got, err := l.Find("gh")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFindCachesResult(t *testing.T) {
	dir := t.TempDir()
	want := writeTool(t, dir, "gh", 0o755)

	l := newTestLocator(dir)
	_, err := l.Find("gh")
	require.NoError(t, err)

	cached, ok := l.Cached("gh")
	require.True(t, ok)
	assert.Equal(t, want, cached)

	// The cache answers even after the binary disappears.
	require.NoError(t, os.Remove(want))
	got, err := l.Find("gh")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestClearCache(t *testing.T) {
	dir := t.TempDir()
	want := writeTool(t, dir, "gh", 0o755)

	l := newTestLocator(dir)
	_, err := l.Find("gh")
	require.NoError(t, err)

	l.ClearCache()
	_, ok := l.Cached("gh")
	assert.False(t, ok)

	require.NoError(t, os.Remove(want))
	t.Setenv("PATH", dir)
	_, err = l.Find("gh")
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestFindRejectsInvalidNames(t *testing.T) {
	l := newTestLocator(t.TempDir())

	for _, name := range []string{"", "a b", "../gh", "dir/gh"} {
		_, err := l.Find(name)
		assert.Error(t, err, name)
		assert.NotErrorIs(t, err, ErrToolNotFound, name)
	}
}

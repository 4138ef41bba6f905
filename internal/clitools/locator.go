// Package clitools locates external CLI binaries the UI shells out to
// (gh, claude, ...). Desktop apps launched from a dock or launcher do
// not inherit the user's shell PATH, so lookup tries well-known install
// locations first and falls back to an interactive login shell.
package clitools

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// ErrToolNotFound indicates the binary exists nowhere we know to look
var ErrToolNotFound = fmt.Errorf("cli tool not found")

var defaultSearchPaths = []string{
	"/opt/homebrew/bin",
	"/usr/local/bin",
	"/usr/bin",
	"/bin",
	"/opt/local/bin",
}

var defaultShells = []string{"/bin/zsh", "/bin/bash", "/bin/sh"}

// Locator resolves tool names to absolute paths, caching hits
type Locator struct {
	mu          sync.Mutex
	cache       map[string]string
	searchPaths []string
	shells      []string
}

// NewLocator creates a locator with the standard search locations
func NewLocator() *Locator {
	return &Locator{
		cache:       make(map[string]string),
		searchPaths: defaultSearchPaths,
		shells:      defaultShells,
	}
}

// WithSearchPaths replaces the well-known install locations
func (l *Locator) WithSearchPaths(paths ...string) *Locator {
	l.searchPaths = paths
	return l
}

// Find resolves a tool name to an absolute path. Results are cached
// for the locator's lifetime; installs done while the app is running
// are picked up only after ClearCache.
func (l *Locator) Find(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, " \t/\\") {
		return "", fmt.Errorf("invalid tool name %q", name)
	}

	l.mu.Lock()
	if path, ok := l.cache[name]; ok {
		l.mu.Unlock()
		return path, nil
	}
	l.mu.Unlock()

	path, ok := l.locate(name)
	if !ok {
		return "", fmt.Errorf("%q: %w", name, ErrToolNotFound)
	}

	l.mu.Lock()
	l.cache[name] = path
	l.mu.Unlock()
	return path, nil
}

// Cached returns the cached path for a tool, if any
func (l *Locator) Cached(name string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	path, ok := l.cache[name]
	return path, ok
}

// ClearCache drops all cached lookups
func (l *Locator) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]string)
}

func (l *Locator) locate(name string) (string, bool) {
	for _, base := range l.searchPaths {
		full := filepath.Join(base, name)
		if isExecutable(full) {
			return full, true
		}
	}

	if path, err := exec.LookPath(name); err == nil {
		if abs, err := filepath.Abs(path); err == nil {
			return abs, true
		}
		return path, true
	}

	return l.shellWhich(name)
}

// shellWhich asks a login shell, which sources the user's profile and
// therefore sees PATH entries this process does not.
func (l *Locator) shellWhich(name string) (string, bool) {
	for _, shell := range l.shells {
		if _, err := os.Stat(shell); err != nil {
			continue
		}
		out, err := exec.Command(shell, "-l", "-c", "which "+name).Output()
		if err != nil {
			continue
		}
		path := strings.TrimSpace(string(out))
		if path != "" && isExecutable(path) {
			return path, true
		}
	}
	return "", false
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}

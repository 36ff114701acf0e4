// testing_helpers_test.go: Test environment with fake plugin units on disk
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/agilira/go-errors"
	"github.com/stretchr/testify/require"
)

// TestEnvironment writes placeholder unit files under a temporary directory
// and serves them through an Opener that maps each path to the Register
// behaviour registered for it.
type TestEnvironment struct {
	t    *testing.T
	Root string

	mu    sync.Mutex
	units map[string]SymbolMap
	opens map[string]int
	order []string
}

// NewTestEnvironment creates an environment rooted at a fresh temp directory.
func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()
	return &TestEnvironment{
		t:     t,
		Root:  t.TempDir(),
		units: make(map[string]SymbolMap),
		opens: make(map[string]int),
	}
}

// Path joins elem below the environment root.
func (te *TestEnvironment) Path(elem ...string) string {
	return filepath.Join(append([]string{te.Root}, elem...)...)
}

// AddUnit writes a unit file at rel (slash separated, below Root) exporting
// register, and returns its absolute path.
func (te *TestEnvironment) AddUnit(rel string, register RegisterFunc) string {
	te.t.Helper()
	return te.AddUnitSymbols(rel, SymbolMap{RegisterSymbol: register})
}

// AddUnitSymbols writes a unit file exporting syms.
func (te *TestEnvironment) AddUnitSymbols(rel string, syms SymbolMap) string {
	te.t.Helper()
	path := te.Path(filepath.FromSlash(rel))
	te.WriteFile(path, "unit")

	te.mu.Lock()
	defer te.mu.Unlock()
	te.units[path] = syms
	if real, err := filepath.EvalSymlinks(path); err == nil {
		te.units[real] = syms
	}
	return path
}

// AddSpecializingUnit writes a unit whose Register adds impl under parent.
func (te *TestEnvironment) AddSpecializingUnit(rel, parent, impl string) string {
	te.t.Helper()
	return te.AddUnit(rel, func(r *ImplementationRegistry) error {
		return r.Specialize(parent, Implementation{Name: impl})
	})
}

// AddFailingUnit writes a unit whose Register returns an error.
func (te *TestEnvironment) AddFailingUnit(rel string) string {
	te.t.Helper()
	return te.AddUnit(rel, func(*ImplementationRegistry) error {
		return fmt.Errorf("unit %s refuses to register", rel)
	})
}

// WriteFile writes content at path, creating parent directories.
func (te *TestEnvironment) WriteFile(path, content string) {
	te.t.Helper()
	require.NoError(te.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(te.t, os.WriteFile(path, []byte(content), 0o600))
}

// Mkdir creates the directory at rel below Root.
func (te *TestEnvironment) Mkdir(rel string) string {
	te.t.Helper()
	dir := te.Path(filepath.FromSlash(rel))
	require.NoError(te.t, os.MkdirAll(dir, 0o755))
	return dir
}

// Open implements Opener. Paths reached through symlinks open the unit they
// point to; files without registered symbols fail to open.
func (te *TestEnvironment) Open(path string) (Symbols, error) {
	te.mu.Lock()
	defer te.mu.Unlock()

	te.opens[path]++
	te.order = append(te.order, path)
	syms, ok := te.units[path]
	if !ok {
		if real, err := filepath.EvalSymlinks(path); err == nil {
			syms, ok = te.units[real]
		}
	}
	if !ok {
		return nil, fmt.Errorf("%s: not a plugin unit", path)
	}
	return syms, nil
}

// OpenCount returns how often path was opened.
func (te *TestEnvironment) OpenCount(path string) int {
	te.mu.Lock()
	defer te.mu.Unlock()
	return te.opens[path]
}

// Opened returns every opened path in order.
func (te *TestEnvironment) Opened() []string {
	te.mu.Lock()
	defer te.mu.Unlock()
	return append([]string(nil), te.order...)
}

// NewLoader creates a loader over this environment's units with a capturing
// logger.
func (te *TestEnvironment) NewLoader(cfg Config, opts ...Option) (*Loader, *TestLogger) {
	te.t.Helper()
	logger := NewTestLogger()
	all := append([]Option{WithOpener(te), WithLogger(logger), WithProviderSource(StaticSource(nil))}, opts...)
	loader, err := NewLoader(cfg, all...)
	require.NoError(te.t, err)
	return loader, logger
}

// countingRegister returns a register function that increments *n each time
// the unit initializes.
func countingRegister(n *int) RegisterFunc {
	return func(*ImplementationRegistry) error {
		*n++
		return nil
	}
}

// noopRegister registers nothing.
func noopRegister(*ImplementationRegistry) error { return nil }

// requireErrorCode asserts that err is a coded error carrying code.
func requireErrorCode(t *testing.T, err error, code string) *errors.Error {
	t.Helper()
	require.Error(t, err)
	var coded *errors.Error
	require.ErrorAs(t, err, &coded)
	require.Equal(t, errors.ErrorCode(code), coded.ErrorCode(), "error: %v", err)
	return coded
}

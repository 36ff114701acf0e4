// search_path.go: Ordered, de-duplicated module search path
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"os"
	"path/filepath"
	"sync"
)

// SearchPath is the ordered list of locations consulted when resolving a bare
// module name to a unit file. Each location appears at most once; earlier
// entries take precedence.
type SearchPath struct {
	mu    sync.RWMutex
	dirs  []string
	index map[string]struct{}
}

// NewSearchPath creates a search path seeded with dirs, dropping duplicates.
func NewSearchPath(dirs ...string) *SearchPath {
	sp := &SearchPath{index: make(map[string]struct{})}
	for _, d := range dirs {
		sp.Add(d)
	}
	return sp
}

// Add appends dir if it is not present yet and reports whether it was added.
func (sp *SearchPath) Add(dir string) bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if _, ok := sp.index[dir]; ok {
		return false
	}
	sp.index[dir] = struct{}{}
	sp.dirs = append(sp.dirs, dir)
	return true
}

// Contains reports whether dir is on the search path.
func (sp *SearchPath) Contains(dir string) bool {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	_, ok := sp.index[dir]
	return ok
}

// Dirs returns a copy of the search path in insertion order.
func (sp *SearchPath) Dirs() []string {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	out := make([]string, len(sp.dirs))
	copy(out, sp.dirs)
	return out
}

// Len returns the number of locations on the search path.
func (sp *SearchPath) Len() int {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return len(sp.dirs)
}

// Resolve returns the first regular file <dir>/<name><suffix> over the
// search path.
func (sp *SearchPath) Resolve(name ModuleID, suffix string) (string, bool) {
	for _, dir := range sp.Dirs() {
		if path, ok := resolveIn(dir, name, suffix); ok {
			return path, true
		}
	}
	return "", false
}

// resolveIn looks for the unit file of name directly inside dir.
func resolveIn(dir string, name ModuleID, suffix string) (string, bool) {
	candidate := filepath.Join(dir, string(name)+suffix)
	info, err := os.Stat(candidate)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return candidate, true
}

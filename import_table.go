// import_table.go: Record of module identities already loaded by a Loader
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"sort"
	"sync"
	"time"

	"github.com/agilira/go-timecache"
)

// LoadSource identifies which importer loaded a unit.
type LoadSource string

const (
	// SourceInTree marks units imported from the host's own install tree
	SourceInTree LoadSource = "in-tree"
	// SourceProvider marks units imported through a provider entry
	SourceProvider LoadSource = "provider"
	// SourceAdHoc marks units loaded from a user-supplied path
	SourceAdHoc LoadSource = "ad-hoc"
)

// ImportRecord describes one loaded unit.
type ImportRecord struct {
	ID       ModuleID   `json:"id"`
	Path     string     `json:"path"`
	Source   LoadSource `json:"source"`
	LoadedAt time.Time  `json:"loaded_at"`
}

// ImportTable is the set of module identities a Loader has already loaded.
// It only grows: entries are added or replaced, never removed.
type ImportTable struct {
	mu      sync.RWMutex
	records map[ModuleID]ImportRecord
	order   []ModuleID
}

// NewImportTable creates an empty import table.
func NewImportTable() *ImportTable {
	return &ImportTable{
		records: make(map[ModuleID]ImportRecord),
	}
}

// Has reports whether id has been loaded.
func (t *ImportTable) Has(id ModuleID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.records[id]
	return ok
}

// Lookup returns the record for id.
func (t *ImportTable) Lookup(id ModuleID) (ImportRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[id]
	return rec, ok
}

// Record stores a loaded unit and returns the record it replaced, if any.
func (t *ImportTable) Record(id ModuleID, path string, source LoadSource) (previous ImportRecord, replaced bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	previous, replaced = t.records[id]
	if !replaced {
		t.order = append(t.order, id)
	}
	t.records[id] = ImportRecord{
		ID:       id,
		Path:     path,
		Source:   source,
		LoadedAt: timecache.CachedTime(),
	}
	return previous, replaced
}

// Len returns the number of distinct identities loaded.
func (t *ImportTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// IDs returns the loaded identities in first-load order.
func (t *ImportTable) IDs() []ModuleID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]ModuleID, len(t.order))
	copy(out, t.order)
	return out
}

// Records returns a copy of all records sorted by identity.
func (t *ImportTable) Records() []ImportRecord {
	t.mu.RLock()
	out := make([]ImportRecord, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, rec)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

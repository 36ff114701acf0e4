// import_table_test.go: Import table and search path tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportTable_Record(t *testing.T) {
	table := NewImportTable()
	assert.False(t, table.Has("a.b"))

	_, replaced := table.Record("a.b", "/x/a/b.so", SourceInTree)
	assert.False(t, replaced)
	assert.True(t, table.Has("a.b"))

	rec, ok := table.Lookup("a.b")
	require.True(t, ok)
	assert.Equal(t, "/x/a/b.so", rec.Path)
	assert.Equal(t, SourceInTree, rec.Source)
	assert.False(t, rec.LoadedAt.IsZero())
}

func TestImportTable_ReplaceKeepsFirstLoadOrder(t *testing.T) {
	table := NewImportTable()
	table.Record("first", "/1/first.so", SourceAdHoc)
	table.Record("second", "/1/second.so", SourceAdHoc)

	prev, replaced := table.Record("first", "/2/first.so", SourceAdHoc)
	assert.True(t, replaced)
	assert.Equal(t, "/1/first.so", prev.Path)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []ModuleID{"first", "second"}, table.IDs())

	rec, _ := table.Lookup("first")
	assert.Equal(t, "/2/first.so", rec.Path)
}

func TestImportTable_RecordsSorted(t *testing.T) {
	table := NewImportTable()
	table.Record("zeta", "/z.so", SourceAdHoc)
	table.Record("alpha", "/a.so", SourceProvider)

	recs := table.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, ModuleID("alpha"), recs[0].ID)
	assert.Equal(t, ModuleID("zeta"), recs[1].ID)
}

func TestImportTable_ConcurrentReaders(t *testing.T) {
	table := NewImportTable()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := ModuleID(fmt.Sprintf("m%d", i))
			table.Record(id, "/"+string(id)+".so", SourceAdHoc)
			_ = table.Has(id)
			_ = table.Records()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, table.Len())
}

func TestSearchPath_AddDeduplicates(t *testing.T) {
	sp := NewSearchPath("/a", "/b", "/a")
	assert.Equal(t, []string{"/a", "/b"}, sp.Dirs())

	assert.True(t, sp.Add("/c"))
	assert.False(t, sp.Add("/b"))
	assert.Equal(t, 3, sp.Len())
	assert.True(t, sp.Contains("/c"))
	assert.False(t, sp.Contains("/d"))
}

func TestSearchPath_ResolveFirstMatchWins(t *testing.T) {
	env := NewTestEnvironment(t)
	first := env.Mkdir("first")
	second := env.Mkdir("second")
	env.WriteFile(filepath.Join(second, "tool.so"), "unit")
	env.WriteFile(filepath.Join(first, "other.so"), "unit")

	sp := NewSearchPath(first, second)
	path, ok := sp.Resolve("tool", ".so")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(second, "tool.so"), path)

	env.WriteFile(filepath.Join(first, "tool.so"), "unit")
	path, ok = sp.Resolve("tool", ".so")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(first, "tool.so"), path)

	_, ok = sp.Resolve("missing", ".so")
	assert.False(t, ok)
}

func TestSearchPath_ResolveIgnoresDirectories(t *testing.T) {
	env := NewTestEnvironment(t)
	env.Mkdir("root/tool.so")

	_, ok := NewSearchPath(env.Path("root")).Resolve("tool", ".so")
	assert.False(t, ok)
}

// provider.go: Importing plugin packages declared by installed distributions
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Distribution identifies an installed package that declares provider entries.
type Distribution struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Version  string `json:"version" yaml:"version" toml:"version"`
	Location string `json:"location,omitempty" yaml:"location,omitempty" toml:"location,omitempty"`
}

// String returns "name version", the form used in diagnostics.
func (d Distribution) String() string {
	if d.Version == "" {
		return d.Name
	}
	return d.Name + " " + d.Version
}

// ProviderEntry is one named reference declared by a distribution under an
// extension group. Target is the dotted name of the package or unit to load,
// resolved below the distribution location.
type ProviderEntry struct {
	Name         string       `json:"name"`
	Group        string       `json:"group"`
	Target       string       `json:"target"`
	Distribution Distribution `json:"distribution"`
}

// ProviderSource lists the provider entries declared for an extension group.
type ProviderSource interface {
	Entries(group string) ([]ProviderEntry, error)
}

// StaticSource is a fixed list of provider entries.
type StaticSource []ProviderEntry

// Entries implements ProviderSource.
func (s StaticSource) Entries(group string) ([]ProviderEntry, error) {
	var out []ProviderEntry
	for _, e := range s {
		if e.Group == group {
			out = append(out, e)
		}
	}
	return out, nil
}

// ProviderSourceFunc adapts a function to ProviderSource.
type ProviderSourceFunc func(group string) ([]ProviderEntry, error)

// Entries implements ProviderSource.
func (f ProviderSourceFunc) Entries(group string) ([]ProviderEntry, error) { return f(group) }

// ProviderTarget is a resolved provider entry: either a package spread over
// one or more directories, or a single unit file.
type ProviderTarget struct {
	Module      ModuleID
	PackageDirs []string
	File        string
}

// IsPackage reports whether the target is a package.
func (t ProviderTarget) IsPackage() bool { return len(t.PackageDirs) > 0 }

// ProviderImportResult summarizes one ImportProviderEntries call.
type ProviderImportResult struct {
	// Entries counts the actionable entries processed
	Entries int
	// Ignored counts entries skipped because of their name
	Ignored  int
	Loaded   []ModuleID
	Failures []LoadFailure
}

// ImportProviderEntries loads every unit reachable from the provider entries
// named "path" in Config.ProviderGroup. Each entry is handled on its own: the
// first failure ends that entry, is logged with the entry's target and
// distribution, and processing moves to the next entry. The call itself never
// fails.
func (l *Loader) ImportProviderEntries(ctx context.Context) ProviderImportResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.importProviderEntries(ctx)
}

func (l *Loader) importProviderEntries(ctx context.Context) (result ProviderImportResult) {
	group := l.config.ProviderGroup
	_, span := l.startSpan(ctx, "ImportProviderEntries", attribute.String("group", group))
	started := time.Now()
	defer func() { l.finishPass(span, "provider", started, len(result.Loaded), len(result.Failures), nil) }()

	entries, err := l.source.Entries(group)
	if err != nil {
		l.reportFailure("Failed to list provider entries", NewProviderSourceError(group, err), "group", group)
		return result
	}

	for _, entry := range entries {
		if entry.Name != ProviderEntryName {
			result.Ignored++
			l.logger.Debug("Ignoring provider entry",
				"name", entry.Name,
				"target", entry.Target,
				"distribution", entry.Distribution.String())
			continue
		}
		result.Entries++

		loaded, failedPath, err := l.importProviderEntry(entry)
		result.Loaded = append(result.Loaded, loaded...)
		if err != nil {
			result.Failures = append(result.Failures, LoadFailure{
				Module:       ModuleID(entry.Target),
				Path:         failedPath,
				Source:       SourceProvider,
				Distribution: entry.Distribution.String(),
				Err:          err,
			})
			l.reportFailure("Failed to load plugins from module '"+entry.Target+
				"' (package: '"+entry.Distribution.String()+"')", err,
				"module", entry.Target,
				"distribution", entry.Distribution.Name,
				"version", entry.Distribution.Version)
			continue
		}
		l.logger.Info("Loaded plugins from provider entry",
			"module", entry.Target,
			"distribution", entry.Distribution.String(),
			"units", len(loaded))
	}
	return result
}

// importProviderEntry resolves entry and loads its units. On failure it
// returns the units loaded so far and the path that failed, if any.
func (l *Loader) importProviderEntry(entry ProviderEntry) (loaded []ModuleID, failedPath string, err error) {
	target, err := l.ResolveTarget(entry)
	if err != nil {
		return nil, "", err
	}

	if !target.IsPackage() {
		outcome, err := l.loadUnit(target.Module, target.File, SourceProvider)
		if err != nil {
			return nil, target.File, err
		}
		if outcome == OutcomeLoaded {
			loaded = append(loaded, target.Module)
		}
		return loaded, "", nil
	}

	for _, dir := range target.PackageDirs {
		units, err := walkUnits(dir, l.config.ModuleSuffix, false, nil)
		if err != nil {
			return loaded, dir, NewWalkFailedError(dir, err)
		}
		for _, path := range units {
			rel, err := ModuleIDFromPath(dir, path, l.config.ModuleSuffix)
			if err != nil {
				return loaded, path, err
			}
			id := target.Module.Child(string(rel))
			outcome, err := l.loadUnit(id, path, SourceProvider)
			if err != nil {
				return loaded, path, err
			}
			if outcome == OutcomeLoaded {
				loaded = append(loaded, id)
			}
		}
	}
	return loaded, "", nil
}

// ResolveTarget resolves the dotted target of entry. Package directories of
// the same dotted name are merged across the distribution location, the
// distribution roots and the search path, in that order; when no directory
// exists the first matching unit file over the same roots is used.
func (l *Loader) ResolveTarget(entry ProviderEntry) (ProviderTarget, error) {
	module, err := ParseModuleID(entry.Target)
	if err != nil {
		return ProviderTarget{}, err
	}
	rel := filepath.Join(module.Segments()...)

	var roots []string
	seenRoot := make(map[string]struct{})
	addRoot := func(dir string) {
		if dir == "" {
			return
		}
		dir = filepath.Clean(dir)
		if _, dup := seenRoot[dir]; dup {
			return
		}
		seenRoot[dir] = struct{}{}
		roots = append(roots, dir)
	}
	addRoot(entry.Distribution.Location)
	for _, dir := range l.config.DistributionPaths {
		addRoot(dir)
	}
	for _, dir := range l.search.Dirs() {
		addRoot(dir)
	}

	target := ProviderTarget{Module: module}
	for _, root := range roots {
		dir := filepath.Join(root, rel)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			target.PackageDirs = append(target.PackageDirs, dir)
		}
	}
	if target.IsPackage() {
		return target, nil
	}

	for _, root := range roots {
		file := filepath.Join(root, rel) + l.config.ModuleSuffix
		if info, err := os.Stat(file); err == nil && info.Mode().IsRegular() {
			target.File = file
			return target, nil
		}
	}
	return ProviderTarget{}, NewProviderTargetError(entry.Target, entry.Distribution)
}

// walkUnits lists the files below root carrying suffix, in lexical order.
// Returned paths are spelled below root even when root is a symlink. With
// followLinks, symlinked directories are descended into once per real
// directory.
//
// An unreadable root is always an error. Below the root, onErr decides: when
// it is nil the walk stops at the first error, otherwise the error is handed
// to onErr and the unreadable entry is skipped.
func walkUnits(root, suffix string, followLinks bool, onErr func(path string, err error)) ([]string, error) {
	var units []string
	visited := make(map[string]struct{})

	var walk func(dir string, top bool) error
	walk = func(dir string, top bool) error {
		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			return err
		}
		if _, ok := visited[real]; ok {
			return nil
		}
		visited[real] = struct{}{}

		shownPath := func(path string) string {
			if rel, err := filepath.Rel(real, path); err == nil {
				return filepath.Join(dir, rel)
			}
			return path
		}

		return filepath.WalkDir(real, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if (top && path == real) || onErr == nil {
					return err
				}
				onErr(shownPath(path), err)
				if d != nil && d.IsDir() && path != real {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			shown := shownPath(path)

			if d.Type()&fs.ModeSymlink != 0 {
				info, err := os.Stat(path)
				if err != nil {
					return nil
				}
				if info.IsDir() {
					if !followLinks {
						return nil
					}
					if err := walk(shown, false); err != nil {
						if onErr == nil {
							return err
						}
						onErr(shown, err)
					}
					return nil
				}
			}
			if strings.HasSuffix(d.Name(), suffix) {
				units = append(units, shown)
			}
			return nil
		})
	}

	if err := walk(root, true); err != nil {
		return nil, err
	}
	return units, nil
}

// adhoc.go: Loading plugin units from arbitrary files and directories
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// AdHocResult summarizes one LoadPath call.
type AdHocResult struct {
	Path     string
	Loaded   []ModuleID
	Failures []LoadFailure
}

// LoadPath loads the plugin units found at path.
//
// A directory is walked recursively, following symlinked directories, and
// every unit file is loaded under its bare name after adding its directory to
// the search path. A regular file is added to the search path itself and
// loaded from its exact location. A path that does not exist is ignored.
//
// Units are isolated from each other: a failing unit is logged and the
// remaining units are still loaded.
func (l *Loader) LoadPath(ctx context.Context, path string) AdHocResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadPath(ctx, path)
}

func (l *Loader) loadPath(ctx context.Context, path string) (result AdHocResult) {
	result.Path = path
	_, span := l.startSpan(ctx, "LoadPath", attribute.String("path", path))
	started := time.Now()
	defer func() { l.finishPass(span, "ad-hoc", started, len(result.Loaded), len(result.Failures), nil) }()

	info, err := os.Stat(path)
	if err != nil {
		l.logger.Debug("Plugin path not found", "path", path)
		return result
	}

	switch {
	case info.IsDir():
		l.logger.Info("Loading plugins from directory", "path", path)
		units, err := walkUnits(path, l.config.ModuleSuffix, true, func(p string, err error) {
			walkErr := NewWalkFailedError(p, err)
			result.Failures = append(result.Failures, LoadFailure{
				Path:   p,
				Source: SourceAdHoc,
				Err:    walkErr,
			})
			l.reportFailure("Skipping unreadable plugin path "+p, walkErr, "path", p)
		})
		if err != nil {
			walkErr := NewWalkFailedError(path, err)
			result.Failures = append(result.Failures, LoadFailure{
				Path:   path,
				Source: SourceAdHoc,
				Err:    walkErr,
			})
			l.reportFailure("Failed to scan plugin directory", walkErr, "path", path)
			return result
		}
		for _, unit := range units {
			dir := filepath.Dir(unit)
			l.search.Add(dir)
			id := BaseModuleName(unit, l.config.ModuleSuffix)
			resolved, ok := resolveIn(dir, id, l.config.ModuleSuffix)
			if !ok {
				resolved = unit
			}
			l.loadAdHocUnit(&result, id, resolved)
		}
	case info.Mode().IsRegular():
		l.logger.Info("Loading plugins from file", "path", path)
		l.search.Add(path)
		l.loadAdHocUnit(&result, BaseModuleName(path, l.config.ModuleSuffix), path)
	default:
		l.logger.Debug("Plugin path is neither a file nor a directory", "path", path)
	}
	return result
}

func (l *Loader) loadAdHocUnit(result *AdHocResult, id ModuleID, path string) {
	outcome, err := l.loadUnit(id, path, SourceAdHoc)
	if err != nil {
		result.Failures = append(result.Failures, LoadFailure{
			Module: id,
			Path:   path,
			Source: SourceAdHoc,
			Err:    err,
		})
		l.reportFailure("Failed to load module with plugins "+path, err, "module", string(id), "path", path)
		return
	}
	if outcome == OutcomeLoaded {
		result.Loaded = append(result.Loaded, id)
		l.logger.Info("Loaded module with plugins", "path", path, "module", string(id))
	}
}

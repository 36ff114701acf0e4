// intree.go: Importing every unit of a package shipped in the host install tree
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

// ImportPackage imports every unit below the in-tree package pkg (e.g.
// "rally.plugins.openstack") that is not loaded yet. Identities are derived
// from the unit path relative to Config.InstallRoot, so a unit is imported at
// most once however often its package is imported. An identity loaded earlier
// from a different path is replaced, as with every other importer.
//
// In-tree code is trusted: a malformed path or a unit that fails to load
// stops the call and the error is returned.
func (l *Loader) ImportPackage(ctx context.Context, pkg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.importPackage(ctx, pkg)
	return err
}

func (l *Loader) importPackage(ctx context.Context, pkg string) (loaded []ModuleID, err error) {
	_, span := l.startSpan(ctx, "ImportPackage", attribute.String("package", pkg))
	started := time.Now()
	defer func() { l.finishPass(span, "in-tree", started, len(loaded), 0, err) }()

	if l.config.InstallRoot == "" {
		return nil, NewMissingInstallRootError()
	}
	dir, err := PackageDir(l.config.InstallRoot, pkg)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, NewPackageNotFoundError(pkg, dir, err)
	}
	if !info.IsDir() {
		return nil, NewPackageNotFoundError(pkg, dir, &fs.PathError{Op: "open", Path: dir, Err: fs.ErrInvalid})
	}

	units, err := l.collectInTreeUnits(dir)
	if err != nil {
		return nil, err
	}

	for _, path := range units {
		id, err := ModuleIDFromPath(l.config.InstallRoot, path, l.config.ModuleSuffix)
		if err != nil {
			return loaded, err
		}
		outcome, err := l.loadUnit(id, path, SourceInTree)
		if err != nil {
			return loaded, NewModuleLoadFailedError(id, err)
		}
		if outcome == OutcomeLoaded {
			loaded = append(loaded, id)
		}
	}

	l.logger.Debug("In-tree package imported",
		"package", pkg,
		"units", len(units),
		"loaded", len(loaded))
	return loaded, nil
}

// collectInTreeUnits lists the unit files below dir in lexical walk order,
// skipping private files.
func (l *Loader) collectInTreeUnits(dir string) ([]string, error) {
	var units []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, l.config.ModuleSuffix) {
			return nil
		}
		if l.config.PrivatePrefix != "" && strings.HasPrefix(name, l.config.PrivatePrefix) {
			return nil
		}
		units = append(units, path)
		return nil
	})
	if err != nil {
		return nil, NewWalkFailedError(dir, err)
	}
	return units, nil
}

// module_name.go: Mapping between filesystem paths and dotted module identities
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"path/filepath"
	"strings"
)

// ModuleID is the dotted, process-unique identity of a loadable unit,
// e.g. "scenarios.nova.servers".
type ModuleID string

// String implements fmt.Stringer.
func (m ModuleID) String() string { return string(m) }

// Segments splits the identity into its dotted components.
func (m ModuleID) Segments() []string {
	return strings.Split(string(m), ".")
}

// Child returns the identity of name nested under m. An empty m yields name.
func (m ModuleID) Child(name string) ModuleID {
	if m == "" {
		return ModuleID(name)
	}
	return ModuleID(string(m) + "." + name)
}

// validSegment reports whether s can be one component of a dotted identity.
func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `./\`)
}

// ParseModuleID validates a dotted name and returns it as a ModuleID.
func ParseModuleID(name string) (ModuleID, error) {
	if name == "" {
		return "", NewMalformedModulePathError(name, "empty module name")
	}
	for _, seg := range strings.Split(name, ".") {
		if !validSegment(seg) {
			return "", NewMalformedModulePathError(name, "invalid segment "+quote(seg))
		}
	}
	return ModuleID(name), nil
}

// PackageDir maps a dotted package name to its directory under root.
func PackageDir(root, pkg string) (string, error) {
	id, err := ParseModuleID(pkg)
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{root}, id.Segments()...)...), nil
}

// ModuleIDFromPath derives the identity of the unit at path relative to root:
// the directories between root and the file become dotted package segments and
// the file name without suffix becomes the last segment. A path outside root,
// without the suffix, or with a segment that cannot be expressed in dotted form
// is rejected.
func ModuleIDFromPath(root, path, suffix string) (ModuleID, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", NewMalformedModulePathError(path, err.Error())
	}
	if rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", NewMalformedModulePathError(path, "path is not below "+root)
	}
	if !strings.HasSuffix(rel, suffix) {
		return "", NewMalformedModulePathError(path, "missing module suffix "+suffix)
	}
	rel = strings.TrimSuffix(rel, suffix)

	segments := strings.Split(filepath.ToSlash(rel), "/")
	for _, seg := range segments {
		if !validSegment(seg) {
			return "", NewMalformedModulePathError(path, "invalid segment "+quote(seg))
		}
	}
	return ModuleID(strings.Join(segments, ".")), nil
}

// BaseModuleName derives the bare module name from a file path: the base name
// without suffix, or without its final extension when it does not carry
// suffix. Distinct files with the same base name map to the same identity.
func BaseModuleName(path, suffix string) ModuleID {
	base := filepath.Base(path)
	if suffix != "" && strings.HasSuffix(base, suffix) && base != suffix {
		return ModuleID(strings.TrimSuffix(base, suffix))
	}
	return ModuleID(strings.TrimSuffix(base, filepath.Ext(base)))
}

func quote(s string) string {
	return `"` + s + `"`
}

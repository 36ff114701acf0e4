// distribution.go: Provider entries declared by installed distribution metadata
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/agilira/argus"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DistributionMetadataFiles are the metadata file names looked up in each
// distribution directory, in order of preference.
var DistributionMetadataFiles = []string{
	"plugin-dist.toml",
	"plugin-dist.yaml",
	"plugin-dist.yml",
	"plugin-dist.json",
}

// DistributionManifest is the content of a distribution metadata file.
//
// Example TOML manifest:
//
//	name = "rally-openstack"
//	version = "2.1.0"
//
//	[entry_points.rally_plugins]
//	path = "rally_openstack"
//	options = "rally_openstack.cfg"
type DistributionManifest struct {
	Name        string                       `json:"name" yaml:"name" toml:"name"`
	Version     string                       `json:"version" yaml:"version" toml:"version"`
	EntryPoints map[string]map[string]string `json:"entry_points" yaml:"entry_points" toml:"entry_points"`
}

// DistributionSource reads provider entries from distribution directories.
// Every immediate subdirectory of a root holding a metadata file is one
// distribution; the subdirectory is its location.
type DistributionSource struct {
	roots  []string
	logger Logger
}

// NewDistributionSource creates a source scanning roots.
func NewDistributionSource(roots []string, logger Logger) *DistributionSource {
	return &DistributionSource{
		roots:  append([]string(nil), roots...),
		logger: NewLogger(logger),
	}
}

// Entries implements ProviderSource. Distributions are visited root by root in
// directory order, and entries of one distribution by name. Unreadable roots
// and malformed metadata files are logged and skipped.
func (s *DistributionSource) Entries(group string) ([]ProviderEntry, error) {
	var entries []ProviderEntry
	for _, dist := range s.Distributions() {
		names := make([]string, 0, len(dist.EntryPoints[group]))
		for name := range dist.EntryPoints[group] {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			entries = append(entries, ProviderEntry{
				Name:   name,
				Group:  group,
				Target: dist.EntryPoints[group][name],
				Distribution: Distribution{
					Name:     dist.Name,
					Version:  dist.Version,
					Location: dist.Location,
				},
			})
		}
	}
	return entries, nil
}

// InstalledDistribution is a parsed manifest and the directory it was found in.
type InstalledDistribution struct {
	DistributionManifest
	Location string
	Metadata string
}

// Distributions lists the installed distributions below the source roots.
func (s *DistributionSource) Distributions() []InstalledDistribution {
	var dists []InstalledDistribution
	for _, root := range s.roots {
		dirEntries, err := os.ReadDir(root)
		if err != nil {
			s.logger.Debug("Skipping distribution root", "root", root, "error", err)
			continue
		}
		for _, de := range dirEntries {
			location := filepath.Join(root, de.Name())
			if info, err := os.Stat(location); err != nil || !info.IsDir() {
				continue
			}
			metadata := findDistributionMetadata(location)
			if metadata == "" {
				continue
			}
			manifest, err := ParseDistributionManifest(metadata)
			if err != nil {
				s.logger.Warn("Ignoring distribution with unreadable metadata",
					"path", metadata,
					"error", err)
				continue
			}
			if manifest.Name == "" {
				manifest.Name = de.Name()
			}
			dists = append(dists, InstalledDistribution{
				DistributionManifest: *manifest,
				Location:             location,
				Metadata:             metadata,
			})
		}
	}
	return dists
}

func findDistributionMetadata(dir string) string {
	for _, name := range DistributionMetadataFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// ParseDistributionManifest reads a metadata file, choosing the decoder from
// its extension.
func ParseDistributionManifest(path string) (*DistributionManifest, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 - metadata path comes from a configured root
	if err != nil {
		return nil, NewDistributionParseError(path, err)
	}

	var manifest DistributionManifest
	switch format := argus.DetectFormat(path); format {
	case argus.FormatTOML:
		err = toml.Unmarshal(data, &manifest)
	case argus.FormatYAML:
		err = yaml.Unmarshal(data, &manifest)
	default:
		var configMap map[string]interface{}
		configMap, err = argus.ParseConfig(data, format)
		if err == nil {
			err = bindConfigMap(configMap, &manifest)
		}
	}
	if err != nil {
		return nil, NewDistributionParseError(path, err)
	}
	return &manifest, nil
}

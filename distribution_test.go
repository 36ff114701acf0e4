// distribution_test.go: Distribution metadata source tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tomlManifest = `name = "rally-openstack"
version = "2.1.0"

[entry_points.rally_plugins]
path = "rally_openstack"
options = "rally_openstack.cfg"
`

const yamlManifest = `name: rally-docker
version: "0.3"
entry_points:
  rally_plugins:
    path: rally_docker.plugins
`

const jsonManifest = `{
  "name": "rally-k8s",
  "version": "1.0.0",
  "entry_points": {
    "rally_plugins": {"path": "rally_k8s"},
    "other_plugins": {"path": "rally_k8s.other"}
  }
}`

// writeDistributions lays out one distribution per metadata format below
// <root>/site and returns the site directory.
func writeDistributions(env *TestEnvironment) string {
	site := env.Mkdir("site")
	env.WriteFile(filepath.Join(site, "a_openstack", "plugin-dist.toml"), tomlManifest)
	env.WriteFile(filepath.Join(site, "b_docker", "plugin-dist.yaml"), yamlManifest)
	env.WriteFile(filepath.Join(site, "c_k8s", "plugin-dist.json"), jsonManifest)
	return site
}

func TestParseDistributionManifest_Formats(t *testing.T) {
	env := NewTestEnvironment(t)
	site := writeDistributions(env)

	tests := []struct {
		file     string
		name     string
		version  string
		pathTarg string
	}{
		{"a_openstack/plugin-dist.toml", "rally-openstack", "2.1.0", "rally_openstack"},
		{"b_docker/plugin-dist.yaml", "rally-docker", "0.3", "rally_docker.plugins"},
		{"c_k8s/plugin-dist.json", "rally-k8s", "1.0.0", "rally_k8s"},
	}
	for _, tt := range tests {
		t.Run(filepath.Ext(tt.file), func(t *testing.T) {
			manifest, err := ParseDistributionManifest(filepath.Join(site, filepath.FromSlash(tt.file)))
			require.NoError(t, err)
			assert.Equal(t, tt.name, manifest.Name)
			assert.Equal(t, tt.version, manifest.Version)
			assert.Equal(t, tt.pathTarg, manifest.EntryPoints["rally_plugins"]["path"])
		})
	}
}

func TestParseDistributionManifest_Errors(t *testing.T) {
	env := NewTestEnvironment(t)
	bad := env.Path("bad", "plugin-dist.yaml")
	env.WriteFile(bad, "name: [unclosed")

	_, err := ParseDistributionManifest(bad)
	coded := requireErrorCode(t, err, ErrCodeDistributionParse)
	assert.Equal(t, bad, coded.Context["metadata_path"])

	_, err = ParseDistributionManifest(env.Path("missing", "plugin-dist.toml"))
	requireErrorCode(t, err, ErrCodeDistributionParse)
}

func TestDistributionSource_Entries(t *testing.T) {
	env := NewTestEnvironment(t)
	site := writeDistributions(env)
	env.WriteFile(filepath.Join(site, "d_broken", "plugin-dist.yml"), "entry_points: [nope")
	env.Mkdir("site/e_plain")
	env.WriteFile(filepath.Join(site, "loose-file.txt"), "ignored")

	logger := NewTestLogger()
	source := NewDistributionSource([]string{site, env.Path("absent")}, logger)

	entries, err := source.Entries("rally_plugins")
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, e.Distribution.String()+" "+e.Name+"="+e.Target)
	}
	assert.Equal(t, []string{
		"rally-openstack 2.1.0 options=rally_openstack.cfg",
		"rally-openstack 2.1.0 path=rally_openstack",
		"rally-docker 0.3 path=rally_docker.plugins",
		"rally-k8s 1.0.0 path=rally_k8s",
	}, got)

	assert.Equal(t, filepath.Join(site, "a_openstack"), entries[0].Distribution.Location)
	assert.Len(t, logger.Filter("WARN", "Ignoring distribution with unreadable metadata"), 1)
}

func TestDistributionSource_DefaultsNameToDirectory(t *testing.T) {
	env := NewTestEnvironment(t)
	env.WriteFile(env.Path("site", "anonymous", "plugin-dist.toml"), "[entry_points.g]\npath = \"anon\"\n")

	dists := NewDistributionSource([]string{env.Path("site")}, nil).Distributions()
	require.Len(t, dists, 1)
	assert.Equal(t, "anonymous", dists[0].Name)
	assert.Equal(t, env.Path("site", "anonymous", "plugin-dist.toml"), dists[0].Metadata)
}

func TestDistributionSource_DrivesProviderImport(t *testing.T) {
	env := NewTestEnvironment(t)
	site := writeDistributions(env)
	env.AddSpecializingUnit("site/a_openstack/rally_openstack/nova.so", "scenario", "nova")
	env.AddSpecializingUnit("site/b_docker/rally_docker/plugins/docker.so", "scenario", "docker")
	env.AddSpecializingUnit("site/c_k8s/rally_k8s.so", "scenario", "k8s")

	logger := NewTestLogger()
	loader, err := NewLoader(Config{Product: "rally", DistributionPaths: []string{site}},
		WithOpener(env), WithLogger(logger))
	require.NoError(t, err)

	result := loader.ImportProviderEntries(context.Background())

	assert.Empty(t, result.Failures)
	assert.Equal(t, 3, result.Entries)
	assert.Equal(t, 1, result.Ignored)
	assert.Equal(t, []ModuleID{"rally_openstack.nova", "rally_docker.plugins.docker", "rally_k8s"}, result.Loaded)

	names, err := loader.Registry().ImplementationNames("scenario")
	require.NoError(t, err)
	assert.Equal(t, []string{"nova", "docker", "k8s"}, names)
}

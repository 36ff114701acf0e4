// config.go: Loader configuration with defaults, validation and file loading
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agilira/argus"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultProduct is the product name used when none is configured
	DefaultProduct = "app"

	// DefaultModuleSuffix is the file suffix of loadable units
	DefaultModuleSuffix = ".so"

	// DefaultPrivatePrefix marks files skipped by the in-tree importer
	DefaultPrivatePrefix = "_"

	// ProviderEntryName is the only provider entry name treated as a plugin
	// path root
	ProviderEntryName = "path"

	// DefaultEnvPrefix prefixes the environment overrides read by
	// ApplyEnvOverrides
	DefaultEnvPrefix = "PLUGIN_LOADER_"
)

// Config configures a Loader.
//
// Example YAML:
//
//	product: rally
//	install_root: /opt/rally/lib
//	packages:
//	  - rally.plugins.common
//	distribution_paths:
//	  - /opt/rally/site-plugins
//	plugin_paths:
//	  - ~/.rally/plugins
//	debug: false
type Config struct {
	// Product names the host application; it defaults the provider group
	Product string `json:"product" yaml:"product"`

	// InstallRoot is the directory holding the host's in-tree packages
	InstallRoot string `json:"install_root,omitempty" yaml:"install_root,omitempty"`

	// Packages are the dotted in-tree packages imported by LoadAll
	Packages []string `json:"packages,omitempty" yaml:"packages,omitempty"`

	// ProviderGroup is the extension group scanned for provider entries
	ProviderGroup string `json:"provider_group,omitempty" yaml:"provider_group,omitempty"`

	// DistributionPaths are the directories holding installed distributions
	DistributionPaths []string `json:"distribution_paths,omitempty" yaml:"distribution_paths,omitempty"`

	// PluginPaths are the ad hoc files or directories loaded by LoadAll
	PluginPaths []string `json:"plugin_paths,omitempty" yaml:"plugin_paths,omitempty"`

	// ModuleSuffix is the file suffix of loadable units
	ModuleSuffix string `json:"module_suffix,omitempty" yaml:"module_suffix,omitempty"`

	// PrivatePrefix marks in-tree files that are never imported
	PrivatePrefix string `json:"private_prefix,omitempty" yaml:"private_prefix,omitempty"`

	// Debug enables full failure detail in load diagnostics
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() Config {
	var c Config
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Product == "" {
		c.Product = DefaultProduct
	}
	if c.ProviderGroup == "" {
		c.ProviderGroup = c.Product + "_plugins"
	}
	if c.ModuleSuffix == "" {
		c.ModuleSuffix = DefaultModuleSuffix
	}
	if c.PrivatePrefix == "" {
		c.PrivatePrefix = DefaultPrivatePrefix
	}
}

// Validate checks the configuration for values the loader cannot work with.
func (c *Config) Validate() error {
	if c.Product == "" || strings.ContainsAny(c.Product, " \t\n") {
		return NewInvalidConfigError("product", "product must be a non-empty word")
	}
	if c.ProviderGroup == "" {
		return NewInvalidConfigError("provider_group", "provider group cannot be empty")
	}
	if len(c.ModuleSuffix) < 2 || !strings.HasPrefix(c.ModuleSuffix, ".") {
		return NewInvalidModuleSuffixError(c.ModuleSuffix)
	}
	if strings.ContainsAny(c.PrivatePrefix, `/\`) {
		return NewInvalidConfigError("private_prefix", "private prefix cannot contain path separators")
	}
	if len(c.Packages) > 0 && c.InstallRoot == "" {
		return NewMissingInstallRootError()
	}
	for _, pkg := range c.Packages {
		if _, err := ParseModuleID(pkg); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnvOverrides overrides fields from environment variables named
// prefix+FIELD. List variables use the OS path list separator.
func (c *Config) ApplyEnvOverrides(prefix string) error {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	if v, ok := os.LookupEnv(prefix + "PRODUCT"); ok {
		c.Product = v
	}
	if v, ok := os.LookupEnv(prefix + "INSTALL_ROOT"); ok {
		c.InstallRoot = v
	}
	if v, ok := os.LookupEnv(prefix + "PROVIDER_GROUP"); ok {
		c.ProviderGroup = v
	}
	if v, ok := os.LookupEnv(prefix + "PACKAGES"); ok {
		c.Packages = splitList(v, ",")
	}
	if v, ok := os.LookupEnv(prefix + "PLUGIN_PATHS"); ok {
		c.PluginPaths = splitList(v, string(os.PathListSeparator))
	}
	if v, ok := os.LookupEnv(prefix + "DISTRIBUTION_PATHS"); ok {
		c.DistributionPaths = splitList(v, string(os.PathListSeparator))
	}
	if v, ok := os.LookupEnv(prefix + "DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return NewInvalidConfigError("debug", "invalid boolean "+quote(v))
		}
		c.Debug = debug
	}
	return nil
}

func splitList(v, sep string) []string {
	var out []string
	for _, item := range strings.Split(v, sep) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// LoadConfigFromFile reads a configuration file, applies defaults and
// validates the result. The format is detected from the file extension:
// YAML is decoded with gopkg.in/yaml.v3, every other format supported by
// argus (JSON, TOML, HCL, INI, properties) is parsed by argus and bound
// through its generic map form.
func LoadConfigFromFile(path string) (Config, error) {
	var config Config

	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 - operator supplied config path
	if err != nil {
		return config, NewConfigNotFoundError(path, err)
	}

	if err := parseConfigBytes(data, argus.DetectFormat(path), &config); err != nil {
		return config, NewConfigParseError(path, err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

func parseConfigBytes(data []byte, format argus.ConfigFormat, out any) error {
	if format == argus.FormatYAML {
		return yaml.Unmarshal(data, out)
	}

	configMap, err := argus.ParseConfig(data, format)
	if err != nil {
		return err
	}
	return bindConfigMap(configMap, out)
}

// bindConfigMap binds a generic map onto a tagged struct by round-tripping it
// through YAML, so one set of field tags serves every format.
func bindConfigMap(configMap map[string]interface{}, out any) error {
	data, err := yaml.Marshal(configMap)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

// ExecutableInstallRoot returns the directory of the running executable, the
// usual in-tree root for hosts that ship plugins next to their binary.
func ExecutableInstallRoot() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// errors.go: structured error definitions for the plugin loader
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"github.com/agilira/go-errors"
)

// Error codes for the plugin loader
const (
	// Configuration errors (1000-1099)
	ErrCodeInvalidConfig     = "LOADER_1001"
	ErrCodeConfigNotFound    = "LOADER_1002"
	ErrCodeConfigParseError  = "LOADER_1003"
	ErrCodeInvalidModuleSfx  = "LOADER_1004"
	ErrCodeMissingInstallDir = "LOADER_1005"
	ErrCodeWatcherState      = "LOADER_1006"
	ErrCodeWatcherFailed     = "LOADER_1007"

	// Discovery errors (2000-2099)
	ErrCodeMalformedModulePath = "LOADER_2001"
	ErrCodePackageNotFound     = "LOADER_2002"
	ErrCodeWalkFailed          = "LOADER_2003"
	ErrCodeProviderTarget      = "LOADER_2004"
	ErrCodeProviderSource      = "LOADER_2005"
	ErrCodeDistributionParse   = "LOADER_2006"

	// Loading errors (3000-3099)
	ErrCodeModuleOpenFailed   = "LOADER_3001"
	ErrCodeMissingRegister    = "LOADER_3002"
	ErrCodeInvalidRegister    = "LOADER_3003"
	ErrCodeRegistrationFailed = "LOADER_3004"
	ErrCodeModulePanic        = "LOADER_3005"
	ErrCodeModuleLoadFailed   = "LOADER_3006"

	// Registry errors (4000-4099)
	ErrCodeUnknownCapability  = "LOADER_4001"
	ErrCodeInvalidKind        = "LOADER_4002"
	ErrCodeSelfSpecialization = "LOADER_4003"
)

// Configuration error constructors

func NewInvalidConfigError(field, message string) *errors.Error {
	return errors.New(ErrCodeInvalidConfig, "Invalid configuration: "+message).
		WithUserMessage("Plugin loader configuration is invalid").
		WithContext("field", field).
		WithSeverity("error")
}

func NewConfigNotFoundError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigNotFound, "Configuration file not found").
		WithUserMessage("The configuration file could not be read").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewConfigParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigParseError, "Configuration parse error").
		WithUserMessage("Failed to parse configuration file").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewWatcherStateError(path, message string) *errors.Error {
	return errors.New(ErrCodeWatcherState, "Config watcher "+message).
		WithUserMessage("The configuration watcher cannot perform this operation").
		WithContext("config_path", path).
		WithSeverity("warning")
}

func NewWatcherFailedError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeWatcherFailed, "Config watcher failed").
		WithUserMessage("The configuration file could not be watched").
		WithContext("config_path", path).
		WithSeverity("error")
}

func NewInvalidModuleSuffixError(suffix string) *errors.Error {
	return errors.New(ErrCodeInvalidModuleSfx, "Invalid module suffix").
		WithUserMessage("Module suffix must start with a dot, e.g. \".so\"").
		WithContext("module_suffix", suffix).
		WithSeverity("error")
}

func NewMissingInstallRootError() *errors.Error {
	return errors.New(ErrCodeMissingInstallDir, "Missing install root").
		WithUserMessage("An install root is required to import in-tree packages").
		WithSeverity("error")
}

// Discovery error constructors

func NewMalformedModulePathError(path, reason string) *errors.Error {
	return errors.New(ErrCodeMalformedModulePath, "Malformed module path: "+reason).
		WithUserMessage("Cannot derive a module identity from the given path").
		WithContext("path", path).
		WithSeverity("error")
}

func NewPackageNotFoundError(pkg, dir string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodePackageNotFound, "Package not found").
		WithUserMessage("The in-tree package directory does not exist").
		WithContext("package", pkg).
		WithContext("directory", dir).
		WithSeverity("error")
}

func NewWalkFailedError(root string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeWalkFailed, "Directory walk failed").
		WithUserMessage("Failed to scan plugin directory").
		WithContext("root", root).
		WithSeverity("error")
}

func NewProviderTargetError(target string, dist Distribution) *errors.Error {
	return errors.New(ErrCodeProviderTarget, "Provider target not found").
		WithUserMessage("The provider entry target resolves to neither a package nor a unit file").
		WithContext("target", target).
		WithContext("distribution", dist.String()).
		WithSeverity("error")
}

func NewProviderSourceError(group string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeProviderSource, "Provider source failed").
		WithUserMessage("Failed to enumerate provider entries").
		WithContext("group", group).
		WithSeverity("error")
}

func NewDistributionParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeDistributionParse, "Distribution metadata parse error").
		WithUserMessage("Failed to parse distribution metadata").
		WithContext("metadata_path", path).
		WithSeverity("warning")
}

// Loading error constructors

func NewModuleOpenError(id ModuleID, path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeModuleOpenFailed, "Module open failed").
		WithUserMessage("The plugin unit could not be opened").
		WithContext("module", string(id)).
		WithContext("path", path).
		WithSeverity("error")
}

func NewMissingRegisterError(id ModuleID, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeMissingRegister, "Missing "+RegisterSymbol+" symbol").
		WithUserMessage("The plugin unit does not export a registration entry point").
		WithContext("module", string(id)).
		WithSeverity("error")
}

func NewInvalidRegisterError(id ModuleID, got string) *errors.Error {
	return errors.New(ErrCodeInvalidRegister, "Invalid "+RegisterSymbol+" symbol").
		WithUserMessage("The registration entry point has an unsupported signature").
		WithContext("module", string(id)).
		WithContext("symbol_type", got).
		WithSeverity("error")
}

func NewRegistrationFailedError(id ModuleID, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeRegistrationFailed, "Registration failed").
		WithUserMessage("The plugin unit failed to register its implementations").
		WithContext("module", string(id)).
		WithSeverity("error")
}

func NewModulePanicError(id ModuleID, recovered interface{}, stack []byte) *errors.Error {
	return errors.New(ErrCodeModulePanic, "Module panicked while loading").
		WithUserMessage("The plugin unit panicked during load").
		WithContext("module", string(id)).
		WithContext("panic", recovered).
		WithContext("stack", string(stack)).
		WithSeverity("error")
}

func NewModuleLoadFailedError(id ModuleID, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeModuleLoadFailed, "Module load failed").
		WithUserMessage("An in-tree module failed to load").
		WithContext("module", string(id)).
		WithSeverity("error")
}

// Registry error constructors

func NewUnknownCapabilityError(base string) *errors.Error {
	return errors.New(ErrCodeUnknownCapability, "Unknown capability").
		WithUserMessage("The capability is not known to the implementation registry").
		WithContext("capability", base).
		WithSeverity("error")
}

func NewInvalidKindError(kind string) *errors.Error {
	return errors.New(ErrCodeInvalidKind, "Invalid kind name").
		WithUserMessage("Capability and implementation names cannot be empty").
		WithContext("kind", kind).
		WithSeverity("error")
}

func NewSelfSpecializationError(kind string) *errors.Error {
	return errors.New(ErrCodeSelfSpecialization, "Self specialization").
		WithUserMessage("A kind cannot specialize itself").
		WithContext("kind", kind).
		WithSeverity("error")
}

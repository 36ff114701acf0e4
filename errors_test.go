// errors_test.go: structured error definition tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"testing"

	"github.com/agilira/go-errors"
	"github.com/stretchr/testify/assert"
)

// TestErrorConstructors checks code, context and severity of every constructor
func TestErrorConstructors(t *testing.T) {
	cause := fmt.Errorf("underlying failure")

	tests := []struct {
		name       string
		err        *errors.Error
		code       string
		contextKey string
		contextVal interface{}
	}{
		{"InvalidConfig", NewInvalidConfigError("product", "bad"), ErrCodeInvalidConfig, "field", "product"},
		{"ConfigNotFound", NewConfigNotFoundError("/etc/x.yaml", cause), ErrCodeConfigNotFound, "config_path", "/etc/x.yaml"},
		{"ConfigParse", NewConfigParseError("/etc/x.yaml", cause), ErrCodeConfigParseError, "config_path", "/etc/x.yaml"},
		{"InvalidSuffix", NewInvalidModuleSuffixError("so"), ErrCodeInvalidModuleSfx, "module_suffix", "so"},
		{"MalformedPath", NewMalformedModulePathError("/x/a.b.so", "invalid segment"), ErrCodeMalformedModulePath, "path", "/x/a.b.so"},
		{"PackageNotFound", NewPackageNotFoundError("a.b", "/x/a/b", cause), ErrCodePackageNotFound, "package", "a.b"},
		{"WalkFailed", NewWalkFailedError("/x", cause), ErrCodeWalkFailed, "root", "/x"},
		{"ProviderTarget", NewProviderTargetError("pkg", Distribution{Name: "d", Version: "1"}), ErrCodeProviderTarget, "distribution", "d 1"},
		{"ProviderSource", NewProviderSourceError("g", cause), ErrCodeProviderSource, "group", "g"},
		{"DistributionParse", NewDistributionParseError("/d/plugin-dist.toml", cause), ErrCodeDistributionParse, "metadata_path", "/d/plugin-dist.toml"},
		{"ModuleOpen", NewModuleOpenError("m", "/m.so", cause), ErrCodeModuleOpenFailed, "path", "/m.so"},
		{"MissingRegister", NewMissingRegisterError("m", cause), ErrCodeMissingRegister, "module", "m"},
		{"InvalidRegister", NewInvalidRegisterError("m", "int"), ErrCodeInvalidRegister, "symbol_type", "int"},
		{"RegistrationFailed", NewRegistrationFailedError("m", cause), ErrCodeRegistrationFailed, "module", "m"},
		{"ModulePanic", NewModulePanicError("m", "boom", []byte("stack")), ErrCodeModulePanic, "stack", "stack"},
		{"ModuleLoadFailed", NewModuleLoadFailedError("m", cause), ErrCodeModuleLoadFailed, "module", "m"},
		{"UnknownCapability", NewUnknownCapabilityError("scenario"), ErrCodeUnknownCapability, "capability", "scenario"},
		{"InvalidKind", NewInvalidKindError(""), ErrCodeInvalidKind, "kind", ""},
		{"SelfSpecialization", NewSelfSpecializationError("x"), ErrCodeSelfSpecialization, "kind", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, errors.ErrorCode(tt.code), tt.err.ErrorCode())
			assert.Equal(t, tt.contextVal, tt.err.Context[tt.contextKey])
			assert.NotEmpty(t, tt.err.UserMessage())
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrorConstructors_Severity(t *testing.T) {
	assert.Equal(t, "warning", NewDistributionParseError("/p", fmt.Errorf("x")).Severity)
	assert.Equal(t, "error", NewModulePanicError("m", "boom", nil).Severity)
}

func TestErrorCodes_Ranges(t *testing.T) {
	for _, code := range []string{ErrCodeInvalidConfig, ErrCodeMissingInstallDir} {
		assert.Regexp(t, `^LOADER_10\d\d$`, code)
	}
	for _, code := range []string{ErrCodeMalformedModulePath, ErrCodeDistributionParse} {
		assert.Regexp(t, `^LOADER_20\d\d$`, code)
	}
	for _, code := range []string{ErrCodeModuleOpenFailed, ErrCodeModuleLoadFailed} {
		assert.Regexp(t, `^LOADER_30\d\d$`, code)
	}
	for _, code := range []string{ErrCodeUnknownCapability, ErrCodeSelfSpecialization} {
		assert.Regexp(t, `^LOADER_40\d\d$`, code)
	}
}

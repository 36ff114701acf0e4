// opener_test.go: Register symbol resolution tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"path/filepath"
	"testing"

	"github.com/agilira/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registrantUnit struct{ kind string }

func (u registrantUnit) Register(r *ImplementationRegistry) error {
	return r.Specialize("base", Implementation{Name: u.kind})
}

func TestRegisterEntry_AcceptedForms(t *testing.T) {
	plain := func(r *ImplementationRegistry) error {
		return r.Specialize("base", Implementation{Name: "plain"})
	}
	pointed := func(r *ImplementationRegistry) error {
		return r.Specialize("base", Implementation{Name: "pointed"})
	}
	var typedVar RegisterFunc = func(r *ImplementationRegistry) error {
		return r.Specialize("base", Implementation{Name: "typed_var"})
	}

	tests := []struct {
		name string
		sym  any
		kind string
	}{
		{"Func", plain, "plain"},
		{"FuncPointer", &pointed, "pointed"},
		{"RegisterFunc", RegisterFunc(func(r *ImplementationRegistry) error {
			return r.Specialize("base", Implementation{Name: "typed"})
		}), "typed"},
		{"RegisterFuncVariable", &typedVar, "typed_var"},
		{"Registrant", registrantUnit{kind: "registrant"}, "registrant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := registerEntry("unit", tt.sym)
			require.NoError(t, err)

			r := NewImplementationRegistry()
			require.NoError(t, fn(r))
			assert.True(t, r.Known(tt.kind))
		})
	}
}

func TestRegisterEntry_RejectedForms(t *testing.T) {
	var nilFn func(*ImplementationRegistry) error
	var nilTyped RegisterFunc

	for name, sym := range map[string]any{
		"WrongSignature": func() {},
		"NilPointer":     &nilFn,
		"NilTypedVar":    &nilTyped,
		"Value":          42,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := registerEntry("unit", sym)
			var coded *errors.Error
			require.ErrorAs(t, err, &coded)
			assert.Equal(t, errors.ErrorCode(ErrCodeInvalidRegister), coded.ErrorCode())
		})
	}
}

func TestSymbolMap_Lookup(t *testing.T) {
	syms := SymbolMap{"Register": 1}

	v, err := syms.Lookup("Register")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = syms.Lookup("Missing")
	assert.Error(t, err)
}

func TestNativeOpener_RejectsNonPlugin(t *testing.T) {
	env := NewTestEnvironment(t)
	path := filepath.Join(env.Root, "fake.so")
	env.WriteFile(path, "not an ELF shared object")

	_, err := NativeOpener{}.Open(path)
	assert.Error(t, err)
}

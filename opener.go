// opener.go: Opening plugin units and resolving their registration entry point
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"fmt"
	"plugin"
)

// RegisterSymbol is the exported symbol every unit must provide.
const RegisterSymbol = "Register"

// Symbols gives access to the exported symbols of an opened unit.
type Symbols interface {
	Lookup(name string) (any, error)
}

// Opener opens the unit stored at path. Implementations must run the unit's
// initialization at most once per path.
type Opener interface {
	Open(path string) (Symbols, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Symbols, error)

// Open implements Opener.
func (f OpenerFunc) Open(path string) (Symbols, error) { return f(path) }

// NativeOpener opens Go plugins built with -buildmode=plugin.
type NativeOpener struct{}

// Open implements Opener using the runtime plugin loader, which runs package
// initialization once per shared object.
func (NativeOpener) Open(path string) (Symbols, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	return nativeSymbols{p: p}, nil
}

type nativeSymbols struct {
	p *plugin.Plugin
}

func (s nativeSymbols) Lookup(name string) (any, error) {
	sym, err := s.p.Lookup(name)
	if err != nil {
		return nil, err
	}
	return sym, nil
}

// SymbolMap is an in-memory Symbols implementation, used by embedders that
// link units statically and by tests.
type SymbolMap map[string]any

// Lookup implements Symbols.
func (m SymbolMap) Lookup(name string) (any, error) {
	sym, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("symbol %s not found", name)
	}
	return sym, nil
}

// registerEntry converts an exported Register symbol into a callable entry
// point. Function symbols exported from a plugin arrive as pointers when they
// are package-level variables, so both forms are accepted.
func registerEntry(id ModuleID, sym any) (RegisterFunc, error) {
	switch fn := sym.(type) {
	case func(*ImplementationRegistry) error:
		return fn, nil
	case *func(*ImplementationRegistry) error:
		if fn == nil || *fn == nil {
			return nil, NewInvalidRegisterError(id, "nil function pointer")
		}
		return *fn, nil
	case RegisterFunc:
		return fn, nil
	case *RegisterFunc:
		if fn == nil || *fn == nil {
			return nil, NewInvalidRegisterError(id, "nil function pointer")
		}
		return *fn, nil
	case Registrant:
		return fn.Register, nil
	default:
		return nil, NewInvalidRegisterError(id, fmt.Sprintf("%T", sym))
	}
}

// implementations.go: Registry of capabilities and their specializations
//
// Plugin units populate the registry from their Register entry point. The
// read side enumerates every implementation reachable from a base capability,
// depth-first, each exactly once.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"iter"
	"sync"
)

// Implementation describes one registered kind.
type Implementation struct {
	// Name is the registry-unique kind name
	Name string `json:"name"`

	// Module is the unit that registered the kind, empty for host kinds
	Module ModuleID `json:"module,omitempty"`

	// Description is free text shown by listing tools
	Description string `json:"description,omitempty"`

	// Factory optionally constructs an instance of the implementation
	Factory func() any `json:"-"`
}

// Registrant is implemented by values exported as a unit's Register symbol.
type Registrant interface {
	Register(*ImplementationRegistry) error
}

// RegisterFunc is the function form of a unit's Register entry point.
type RegisterFunc func(*ImplementationRegistry) error

// ImplementationRegistry maps each kind to its direct specializations, in
// registration order.
type ImplementationRegistry struct {
	mu       sync.RWMutex
	kinds    map[string]*Implementation
	children map[string][]string
	edges    map[[2]string]struct{}

	// current is the unit whose Register call is running
	current ModuleID
}

// NewImplementationRegistry creates an empty registry.
func NewImplementationRegistry() *ImplementationRegistry {
	return &ImplementationRegistry{
		kinds:    make(map[string]*Implementation),
		children: make(map[string][]string),
		edges:    make(map[[2]string]struct{}),
	}
}

// Define declares a base capability. Defining an existing kind is a no-op.
func (r *ImplementationRegistry) Define(base string) error {
	if base == "" {
		return NewInvalidKindError(base)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defineLocked(Implementation{Name: base})
	return nil
}

func (r *ImplementationRegistry) defineLocked(impl Implementation) {
	if existing, ok := r.kinds[impl.Name]; ok {
		if existing.Module == "" {
			existing.Module = impl.Module
		}
		if existing.Description == "" {
			existing.Description = impl.Description
		}
		if existing.Factory == nil {
			existing.Factory = impl.Factory
		}
		return
	}
	cp := impl
	r.kinds[impl.Name] = &cp
}

// Specialize records impl as a direct specialization of parent. The parent is
// defined implicitly when unknown. Repeating an edge is a no-op, so a kind
// reachable through several parents is stored once per parent.
func (r *ImplementationRegistry) Specialize(parent string, impl Implementation) error {
	if parent == "" {
		return NewInvalidKindError(parent)
	}
	if impl.Name == "" {
		return NewInvalidKindError(impl.Name)
	}
	if parent == impl.Name {
		return NewSelfSpecializationError(parent)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if impl.Module == "" {
		impl.Module = r.current
	}
	r.defineLocked(Implementation{Name: parent})
	r.defineLocked(impl)

	edge := [2]string{parent, impl.Name}
	if _, ok := r.edges[edge]; ok {
		return nil
	}
	r.edges[edge] = struct{}{}
	r.children[parent] = append(r.children[parent], impl.Name)
	return nil
}

// Known reports whether kind has been defined.
func (r *ImplementationRegistry) Known(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.kinds[kind]
	return ok
}

// Lookup returns the descriptor of kind.
func (r *ImplementationRegistry) Lookup(kind string) (Implementation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	impl, ok := r.kinds[kind]
	if !ok {
		return Implementation{}, false
	}
	return *impl, true
}

// Specializations returns the direct specializations of kind in registration
// order.
func (r *ImplementationRegistry) Specializations(kind string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.children[kind]))
	copy(out, r.children[kind])
	return out
}

// Implementations returns a lazy depth-first sequence of every kind reachable
// from base, base itself excluded. Each kind is yielded once, on first
// encounter, even when several specialization paths lead to it. Every direct
// specialization is fully explored before its next sibling.
func (r *ImplementationRegistry) Implementations(base string) (iter.Seq[Implementation], error) {
	if !r.Known(base) {
		return nil, NewUnknownCapabilityError(base)
	}

	return func(yield func(Implementation) bool) {
		seen := make(map[string]struct{})
		r.walk(base, seen, yield)
	}, nil
}

// walk visits the specializations of kind; it returns false once the
// consumer stops iterating.
func (r *ImplementationRegistry) walk(kind string, seen map[string]struct{}, yield func(Implementation) bool) bool {
	for _, sub := range r.Specializations(kind) {
		if _, ok := seen[sub]; ok {
			continue
		}
		seen[sub] = struct{}{}

		impl, _ := r.Lookup(sub)
		if !yield(impl) {
			return false
		}
		if !r.walk(sub, seen, yield) {
			return false
		}
	}
	return true
}

// ImplementationNames collects the names yielded by Implementations.
func (r *ImplementationRegistry) ImplementationNames(base string) ([]string, error) {
	seq, err := r.Implementations(base)
	if err != nil {
		return nil, err
	}
	var names []string
	for impl := range seq {
		names = append(names, impl.Name)
	}
	return names, nil
}

// Len returns the number of defined kinds.
func (r *ImplementationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.kinds)
}

// withModule runs fn with module attributed to every Specialize call that does
// not name its own module.
func (r *ImplementationRegistry) withModule(module ModuleID, fn func() error) error {
	r.mu.Lock()
	prev := r.current
	r.current = module
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.current = prev
		r.mu.Unlock()
	}()
	return fn()
}

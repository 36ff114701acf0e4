// events.go: Load event notifications
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"time"

	"github.com/agilira/go-timecache"
)

// Load event types
const (
	EventModuleLoaded   = "module_loaded"
	EventModuleSkipped  = "module_skipped"
	EventModuleFailed   = "module_failed"
	EventModuleShadowed = "module_shadowed"
)

// LoadEvent describes what happened to one unit.
type LoadEvent struct {
	Type      string     `json:"type"`
	Timestamp time.Time  `json:"timestamp"`
	Module    ModuleID   `json:"module"`
	Path      string     `json:"path,omitempty"`
	Source    LoadSource `json:"source"`
	Error     error      `json:"-"`
}

// LoadEventHandler receives load events. Handlers run synchronously on the
// discovery call; a panicking handler is logged and does not stop discovery.
type LoadEventHandler func(event LoadEvent)

// AddEventHandler registers handler for every subsequent load event.
func (l *Loader) AddEventHandler(handler LoadEventHandler) {
	l.eventMu.Lock()
	defer l.eventMu.Unlock()
	l.handlers = append(l.handlers, handler)
}

func (l *Loader) emit(event LoadEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = timecache.CachedTime()
	}

	l.eventMu.RLock()
	handlers := make([]LoadEventHandler, len(l.handlers))
	copy(handlers, l.handlers)
	l.eventMu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer withStackRecover(l.logger)()
			handler(event)
		}()
	}
}

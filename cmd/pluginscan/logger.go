// logger.go: charmbracelet/log adapter for the loader Logger interface
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"io"

	"github.com/charmbracelet/log"

	pluginloader "github.com/agilira/go-plugin-loader"
)

// charmLogger implements pluginloader.Logger and pluginloader.DebugReporter.
type charmLogger struct {
	l *log.Logger
}

func newCharmLogger(w io.Writer, debug bool) *charmLogger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return &charmLogger{l: log.NewWithOptions(w, log.Options{
		Prefix:          "pluginscan",
		Level:           level,
		ReportTimestamp: debug,
	})}
}

func (c *charmLogger) Debug(msg string, args ...any) { c.l.Debug(msg, args...) }
func (c *charmLogger) Info(msg string, args ...any)  { c.l.Info(msg, args...) }
func (c *charmLogger) Warn(msg string, args ...any)  { c.l.Warn(msg, args...) }
func (c *charmLogger) Error(msg string, args ...any) { c.l.Error(msg, args...) }

func (c *charmLogger) With(args ...any) pluginloader.Logger {
	return &charmLogger{l: c.l.With(args...)}
}

// DebugEnabled reports whether the underlying logger emits debug records.
func (c *charmLogger) DebugEnabled() bool {
	return c.l.GetLevel() <= log.DebugLevel
}

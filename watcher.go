// watcher.go: Rescanning plugin sources when the loader configuration changes
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/argus"
)

// WatcherOptions tunes a ConfigWatcher.
type WatcherOptions struct {
	// PollInterval is how often the configuration file is checked.
	PollInterval time.Duration

	// CacheTTL bounds how long a file stat result is reused.
	CacheTTL time.Duration

	// EnvPrefix, when set, applies environment overrides to every reloaded
	// configuration.
	EnvPrefix string

	// OnReload is called after every rescan triggered by a change.
	OnReload func(report *DiscoveryReport, err error)
}

// DefaultWatcherOptions returns options suited to configuration files that
// change rarely.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		PollInterval: 5 * time.Second,
		CacheTTL:     2 * time.Second,
	}
}

// ConfigWatcher watches a loader configuration file and rescans the packages
// and plugin paths it names whenever it changes. Rescans only add units:
// modules already in the import table stay loaded.
//
// A watcher is started once and stopped once; it cannot be restarted.
type ConfigWatcher struct {
	loader  *Loader
	path    string
	options WatcherOptions
	watcher *argus.Watcher

	current atomic.Pointer[Config]

	enabled  atomic.Bool
	stopped  atomic.Bool
	stopOnce sync.Once
	mutex    sync.Mutex
}

// NewConfigWatcher creates a watcher for the configuration file at path.
func NewConfigWatcher(loader *Loader, path string, options WatcherOptions) *ConfigWatcher {
	defaults := DefaultWatcherOptions()
	if options.PollInterval <= 0 {
		options.PollInterval = defaults.PollInterval
	}
	if options.CacheTTL <= 0 {
		options.CacheTTL = defaults.CacheTTL
	}

	cw := &ConfigWatcher{
		loader:  loader,
		path:    path,
		options: options,
	}
	cw.watcher = argus.New(argus.Config{
		PollInterval:         options.PollInterval,
		CacheTTL:             options.CacheTTL,
		MaxWatchedFiles:      1,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		ErrorHandler: func(err error, file string) {
			loader.logger.Warn("Config watcher error", "path", file, "error", err)
		},
	})
	return cw
}

// Start reads the current configuration and begins watching the file. The
// configuration must load and validate for the watcher to start.
func (cw *ConfigWatcher) Start() error {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()

	if cw.stopped.Load() {
		return NewWatcherStateError(cw.path, "has been stopped and cannot be restarted")
	}
	if !cw.enabled.CompareAndSwap(false, true) {
		return NewWatcherStateError(cw.path, "is already running")
	}

	cfg, err := cw.readConfig(cw.path)
	if err != nil {
		cw.enabled.Store(false)
		return err
	}
	cw.current.Store(&cfg)

	if err := cw.watcher.Watch(cw.path, cw.handleConfigChange); err != nil {
		cw.enabled.Store(false)
		return NewWatcherFailedError(cw.path, err)
	}
	if err := cw.watcher.Start(); err != nil {
		cw.enabled.Store(false)
		return NewWatcherFailedError(cw.path, err)
	}

	cw.loader.logger.Info("Config watcher started",
		"config_path", cw.path,
		"poll_interval", cw.options.PollInterval)
	return nil
}

// Stop stops a running watcher for good. Stopping a watcher that was never
// started is an error and leaves it startable.
func (cw *ConfigWatcher) Stop() error {
	cw.mutex.Lock()
	defer cw.mutex.Unlock()

	if cw.stopped.Load() {
		return NewWatcherStateError(cw.path, "is already stopped")
	}
	if !cw.enabled.CompareAndSwap(true, false) {
		return NewWatcherStateError(cw.path, "is not running")
	}
	cw.stopped.Store(true)

	var stopErr error
	cw.stopOnce.Do(func() {
		if err := cw.watcher.Stop(); err != nil {
			stopErr = NewWatcherFailedError(cw.path, err)
		}
	})
	if stopErr != nil {
		return stopErr
	}
	cw.loader.logger.Info("Config watcher stopped", "config_path", cw.path)
	return nil
}

// IsRunning reports whether the watcher is started and not yet stopped.
func (cw *ConfigWatcher) IsRunning() bool {
	return cw.enabled.Load() && !cw.stopped.Load()
}

// CurrentConfig returns the last configuration that loaded successfully, or
// nil before Start.
func (cw *ConfigWatcher) CurrentConfig() *Config {
	return cw.current.Load()
}

func (cw *ConfigWatcher) handleConfigChange(event argus.ChangeEvent) {
	cw.loader.logger.Debug("Configuration file change detected",
		"path", event.Path,
		"mod_time", event.ModTime,
		"size", event.Size,
		"is_create", event.IsCreate,
		"is_modify", event.IsModify)

	if event.IsDelete {
		cw.loader.logger.Warn("Configuration file was deleted, skipping rescan", "path", event.Path)
		return
	}
	cw.reload(context.Background(), event.Path)
}

// reload loads the configuration at path and rescans with it. A file that
// fails to load keeps the previous configuration.
func (cw *ConfigWatcher) reload(ctx context.Context, path string) {
	cfg, err := cw.readConfig(path)
	if err != nil {
		cw.loader.logger.Warn("Ignoring invalid configuration change", "path", path, "error", err)
		if cw.options.OnReload != nil {
			cw.options.OnReload(nil, err)
		}
		return
	}
	cw.current.Store(&cfg)

	report, err := cw.loader.Rescan(ctx, cfg)
	if err != nil {
		cw.loader.reportFailure("Rescan after configuration change failed", err, "path", path)
	} else {
		cw.loader.logger.Info("Rescanned plugins after configuration change",
			"path", path,
			"run_id", report.ID,
			"loaded", len(report.Loaded),
			"failed", len(report.Failures))
	}
	if cw.options.OnReload != nil {
		cw.options.OnReload(report, err)
	}
}

func (cw *ConfigWatcher) readConfig(path string) (Config, error) {
	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		return cfg, err
	}
	if cw.options.EnvPrefix != "" {
		if err := cfg.ApplyEnvOverrides(cw.options.EnvPrefix); err != nil {
			return cfg, err
		}
		if err := cfg.Validate(); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// loader.go: Loader façade shared by the in-tree, provider and ad hoc importers
//
// A Loader owns the import table, the search path and the implementation
// registry for one host process. The three importers are independent entry
// points; each keeps its own idempotence through the shared import table.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	goerrors "github.com/agilira/go-errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Loader discovers and loads plugin units.
//
// Example usage:
//
//	cfg := pluginloader.Config{
//	    Product:     "rally",
//	    InstallRoot: "/opt/rally/lib",
//	    Packages:    []string{"rally.plugins"},
//	    PluginPaths: []string{"/etc/rally/plugins"},
//	}
//	loader, err := pluginloader.NewLoader(cfg, pluginloader.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := loader.LoadAll(ctx)
//	...
//	names, err := loader.Registry().ImplementationNames("scenario")
type Loader struct {
	config   Config
	logger   Logger
	opener   Opener
	source   ProviderSource
	registry *ImplementationRegistry
	table    *ImportTable
	search   *SearchPath
	metrics  MetricsCollector
	tracerTP trace.TracerProvider
	tracer   trace.Tracer
	debug    *bool

	// mu serializes discovery calls so the already-loaded check and the
	// load itself happen as one step
	mu sync.Mutex

	eventMu  sync.RWMutex
	handlers []LoadEventHandler
}

// Option customizes a Loader.
type Option func(*Loader)

// WithLogger sets the loader logger.
func WithLogger(logger Logger) Option {
	return func(l *Loader) { l.logger = NewLogger(logger) }
}

// WithOpener sets how unit files are opened. Defaults to NativeOpener.
func WithOpener(opener Opener) Option {
	return func(l *Loader) { l.opener = opener }
}

// WithProviderSource sets where provider entries come from. Defaults to a
// DistributionSource over Config.DistributionPaths.
func WithProviderSource(source ProviderSource) Option {
	return func(l *Loader) { l.source = source }
}

// WithRegistry sets the implementation registry units register into.
func WithRegistry(registry *ImplementationRegistry) Option {
	return func(l *Loader) { l.registry = registry }
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics MetricsCollector) Option {
	return func(l *Loader) { l.metrics = metrics }
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(l *Loader) { l.tracerTP = tp }
}

// WithDebug forces full failure detail on or off, overriding both
// Config.Debug and the logger's DebugReporter.
func WithDebug(debug bool) Option {
	return func(l *Loader) { l.debug = &debug }
}

// NewLoader creates a loader for cfg.
func NewLoader(cfg Config, opts ...Option) (*Loader, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Loader{
		config: cfg,
		logger: DefaultLogger(),
		opener: NativeOpener{},
		table:  NewImportTable(),
		search: NewSearchPath(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.registry == nil {
		l.registry = NewImplementationRegistry()
	}
	if l.metrics == nil {
		l.metrics = NoOpMetrics{}
	}
	if l.source == nil {
		l.source = NewDistributionSource(cfg.DistributionPaths, l.logger)
	}
	if l.tracerTP == nil {
		l.tracerTP = defaultTracerProvider()
	}
	l.tracer = l.tracerTP.Tracer(tracerName)
	return l, nil
}

// Config returns the effective configuration.
func (l *Loader) Config() Config { return l.config }

// Registry returns the implementation registry populated by loaded units.
func (l *Loader) Registry() *ImplementationRegistry { return l.registry }

// ImportTable returns the table of loaded identities.
func (l *Loader) ImportTable() *ImportTable { return l.table }

// SearchPath returns the search path grown by the ad hoc loader.
func (l *Loader) SearchPath() *SearchPath { return l.search }

// debugEnabled reports whether failures are logged with full detail.
func (l *Loader) debugEnabled() bool {
	if l.debug != nil {
		return *l.debug
	}
	return l.config.Debug || isDebugLogger(l.logger)
}

// LoadFailure describes one unit or provider entry that failed to load.
type LoadFailure struct {
	Module       ModuleID   `json:"module"`
	Path         string     `json:"path,omitempty"`
	Source       LoadSource `json:"source"`
	Distribution string     `json:"distribution,omitempty"`
	Err          error      `json:"-"`
}

// Error returns the failure message.
func (f LoadFailure) Error() string {
	subject := string(f.Module)
	if subject == "" {
		subject = f.Path
	}
	if f.Err == nil {
		return subject + ": unknown failure"
	}
	return subject + ": " + f.Err.Error()
}

// loadUnit loads the unit at path under identity id unless that exact unit is
// already loaded. A recorded identity with a different path is replaced and
// the shadowing reported.
func (l *Loader) loadUnit(id ModuleID, path string, source LoadSource) (Outcome, error) {
	if rec, ok := l.table.Lookup(id); ok && rec.Path == path {
		l.metrics.RecordUnit(source, OutcomeSkipped)
		l.emit(LoadEvent{Type: EventModuleSkipped, Module: id, Path: path, Source: source})
		return OutcomeSkipped, nil
	}

	if err := l.openAndRegister(id, path); err != nil {
		l.metrics.RecordUnit(source, OutcomeFailed)
		l.emit(LoadEvent{Type: EventModuleFailed, Module: id, Path: path, Source: source, Error: err})
		return OutcomeFailed, err
	}

	if prev, replaced := l.table.Record(id, path, source); replaced {
		l.logger.Warn("Module identity shadowed by a later unit",
			"module", string(id),
			"previous_path", prev.Path,
			"path", path)
		l.metrics.RecordUnit(source, OutcomeShadowed)
		l.emit(LoadEvent{Type: EventModuleShadowed, Module: id, Path: path, Source: source})
	}
	l.metrics.RecordUnit(source, OutcomeLoaded)
	l.emit(LoadEvent{Type: EventModuleLoaded, Module: id, Path: path, Source: source})
	return OutcomeLoaded, nil
}

// openAndRegister opens the unit and runs its Register entry point against
// the registry. Panics from unit code become errors.
func (l *Loader) openAndRegister(id ModuleID, path string) error {
	return callRecovered(id, func() error {
		syms, err := l.opener.Open(path)
		if err != nil {
			return NewModuleOpenError(id, path, err)
		}
		sym, err := syms.Lookup(RegisterSymbol)
		if err != nil {
			return NewMissingRegisterError(id, err)
		}
		register, err := registerEntry(id, sym)
		if err != nil {
			return err
		}
		if err := l.registry.withModule(id, func() error { return register(l.registry) }); err != nil {
			return NewRegistrationFailedError(id, err)
		}
		return nil
	})
}

// reportFailure logs a recoverable load failure: the full error and any
// captured stack in debug mode, a single line otherwise.
func (l *Loader) reportFailure(msg string, err error, args ...any) {
	if l.debugEnabled() {
		fields := make([]any, 0, len(args)+6)
		fields = append(fields, args...)
		fields = append(fields, "error", err, "detail", fmt.Sprintf("%+v", err))
		if stack := panicStack(err); stack != "" {
			fields = append(fields, "stack", stack)
		}
		l.logger.Error(msg, fields...)
		return
	}
	l.logger.Warn(msg+": "+err.Error(), args...)
}

// panicStack returns the stack captured when err was produced by a panic.
func panicStack(err error) string {
	if e, ok := err.(*goerrors.Error); ok && e.ErrorCode() == goerrors.ErrorCode(ErrCodeModulePanic) {
		if stack, ok := e.Context["stack"].(string); ok {
			return stack
		}
	}
	return ""
}

// DiscoveryReport summarizes one LoadAll pass.
type DiscoveryReport struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Loaded     []ModuleID    `json:"loaded"`
	Failures   []LoadFailure `json:"failures,omitempty"`
}

// Duration returns how long the pass took.
func (r *DiscoveryReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// LoadAll runs every configured discovery source in the host startup order:
// in-tree packages, provider entries, then ad hoc plugin paths. Unit failures
// from provider entries and ad hoc paths are collected in the report; an
// in-tree failure aborts the pass and is returned.
func (l *Loader) LoadAll(ctx context.Context) (*DiscoveryReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.discover(ctx, l.config.Packages, l.config.PluginPaths)
}

// Rescan runs a discovery pass over the packages and plugin paths of cfg,
// using the loader's install root and provider source. Units loaded by
// earlier passes are not loaded again, so a rescan only adds what is new.
func (l *Loader) Rescan(ctx context.Context, cfg Config) (*DiscoveryReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.discover(ctx, cfg.Packages, cfg.PluginPaths)
}

func (l *Loader) discover(ctx context.Context, packages, pluginPaths []string) (*DiscoveryReport, error) {
	report := &DiscoveryReport{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
	l.logger.Info("Starting plugin discovery",
		"run_id", report.ID,
		"packages", len(packages),
		"provider_group", l.config.ProviderGroup,
		"plugin_paths", len(pluginPaths))

	for _, pkg := range packages {
		loaded, err := l.importPackage(ctx, pkg)
		report.Loaded = append(report.Loaded, loaded...)
		if err != nil {
			report.FinishedAt = time.Now()
			return report, err
		}
	}

	provider := l.importProviderEntries(ctx)
	report.Loaded = append(report.Loaded, provider.Loaded...)
	report.Failures = append(report.Failures, provider.Failures...)

	for _, path := range pluginPaths {
		adhoc := l.loadPath(ctx, path)
		report.Loaded = append(report.Loaded, adhoc.Loaded...)
		report.Failures = append(report.Failures, adhoc.Failures...)
	}

	report.FinishedAt = time.Now()
	l.logger.Info("Plugin discovery completed",
		"run_id", report.ID,
		"loaded", len(report.Loaded),
		"failed", len(report.Failures),
		"duration", report.Duration())
	return report, nil
}

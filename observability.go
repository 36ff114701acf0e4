// observability.go: Metrics and tracing hooks for discovery passes
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans emitted by the loader.
const tracerName = "github.com/agilira/go-plugin-loader"

// Outcome is the result of handling one unit.
type Outcome string

const (
	OutcomeLoaded   Outcome = "loaded"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeFailed   Outcome = "failed"
	OutcomeShadowed Outcome = "shadowed"
)

// MetricsCollector receives loader measurements.
type MetricsCollector interface {
	// RecordUnit counts one unit handled by an importer
	RecordUnit(source LoadSource, outcome Outcome)

	// RecordPass observes the duration of one importer call
	RecordPass(importer string, duration time.Duration)
}

// NoOpMetrics discards all measurements.
type NoOpMetrics struct{}

// RecordUnit implements MetricsCollector (no-op)
func (NoOpMetrics) RecordUnit(LoadSource, Outcome) {}

// RecordPass implements MetricsCollector (no-op)
func (NoOpMetrics) RecordPass(string, time.Duration) {}

// PrometheusMetrics exports loader measurements as Prometheus metrics.
type PrometheusMetrics struct {
	units  *prometheus.CounterVec
	passes *prometheus.HistogramVec
}

// NewPrometheusMetrics creates the loader metrics and registers them with reg.
// A nil reg registers with the default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer) (*PrometheusMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		units: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plugin_loader",
			Name:      "units_total",
			Help:      "Plugin units handled by the loader, by source and outcome.",
		}, []string{"source", "outcome"}),
		passes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "plugin_loader",
			Name:      "pass_duration_seconds",
			Help:      "Duration of importer calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"importer"}),
	}

	for _, c := range []prometheus.Collector{m.units, m.passes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordUnit implements MetricsCollector.
func (m *PrometheusMetrics) RecordUnit(source LoadSource, outcome Outcome) {
	m.units.WithLabelValues(string(source), string(outcome)).Inc()
}

// RecordPass implements MetricsCollector.
func (m *PrometheusMetrics) RecordPass(importer string, duration time.Duration) {
	m.passes.WithLabelValues(importer).Observe(duration.Seconds())
}

// Units exposes the unit counter, mainly for tests and custom exporters.
func (m *PrometheusMetrics) Units() *prometheus.CounterVec { return m.units }

// defaultTracerProvider returns the globally registered provider.
func defaultTracerProvider() trace.TracerProvider {
	return otel.GetTracerProvider()
}

// startSpan opens a span for one importer call.
func (l *Loader) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return l.tracer.Start(ctx, "pluginloader."+name, trace.WithAttributes(attrs...))
}

// finishPass closes the span and records the pass duration.
func (l *Loader) finishPass(span trace.Span, importer string, started time.Time, loaded, failed int, err error) {
	span.SetAttributes(
		attribute.Int("units.loaded", loaded),
		attribute.Int("units.failed", failed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if failed > 0 {
		span.SetStatus(codes.Error, "some units failed to load")
	}
	span.End()
	l.metrics.RecordPass(importer, time.Since(started))
}

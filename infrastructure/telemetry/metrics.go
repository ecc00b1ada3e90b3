// Package telemetry records arrangement session metrics through the
// OpenTelemetry metrics API.
package telemetry

import (
	"context"
	"time"

	domain "github.com/felixgeelhaar/arrange-go/domain/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider implements domain.Recorder with OpenTelemetry instruments.
type MetricsProvider struct {
	meter metric.Meter

	sessions    metric.Int64Counter
	verbs       metric.Int64Counter
	transitions metric.Int64Counter
	loads       metric.Int64Counter
	commits     metric.Int64Counter
	discarded   metric.Int64Counter

	loadDuration   metric.Float64Histogram
	commitDuration metric.Float64Histogram
	commitElements metric.Int64Histogram

	activeSessions metric.Int64UpDownCounter

	initErr error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the instrumentation scope name.
	MeterName string
	// MeterVersion is the instrumentation scope version.
	MeterVersion string
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/arrange-go",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates instruments on the global meter provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	meter := otel.GetMeterProvider().Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{meter: meter}
	mp.initErr = mp.initInstruments()
	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var err error

	if mp.sessions, err = mp.meter.Int64Counter(
		"arrange.sessions",
		metric.WithDescription("Number of arrangement sessions opened"),
		metric.WithUnit("{session}"),
	); err != nil {
		return err
	}

	if mp.verbs, err = mp.meter.Int64Counter(
		"arrange.verbs",
		metric.WithDescription("Number of verbs dispatched to sessions"),
		metric.WithUnit("{verb}"),
	); err != nil {
		return err
	}

	if mp.transitions, err = mp.meter.Int64Counter(
		"arrange.state.transitions",
		metric.WithDescription("Number of session lifecycle transitions"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return err
	}

	if mp.loads, err = mp.meter.Int64Counter(
		"arrange.structure.loads",
		metric.WithDescription("Number of structure loads"),
		metric.WithUnit("{load}"),
	); err != nil {
		return err
	}

	if mp.commits, err = mp.meter.Int64Counter(
		"arrange.commits",
		metric.WithDescription("Number of commit attempts"),
		metric.WithUnit("{commit}"),
	); err != nil {
		return err
	}

	if mp.discarded, err = mp.meter.Int64Counter(
		"arrange.responses.discarded",
		metric.WithDescription("Number of service responses dropped after the session moved on"),
		metric.WithUnit("{response}"),
	); err != nil {
		return err
	}

	if mp.loadDuration, err = mp.meter.Float64Histogram(
		"arrange.structure.load.duration",
		metric.WithDescription("Duration of structure loads"),
		metric.WithUnit("ms"),
	); err != nil {
		return err
	}

	if mp.commitDuration, err = mp.meter.Float64Histogram(
		"arrange.commit.duration",
		metric.WithDescription("Duration of commit requests"),
		metric.WithUnit("ms"),
	); err != nil {
		return err
	}

	if mp.commitElements, err = mp.meter.Int64Histogram(
		"arrange.commit.elements",
		metric.WithDescription("Elements included in a commit"),
		metric.WithUnit("{element}"),
	); err != nil {
		return err
	}

	mp.activeSessions, err = mp.meter.Int64UpDownCounter(
		"arrange.sessions.active",
		metric.WithDescription("Number of open arrangement sessions"),
		metric.WithUnit("{session}"),
	)
	return err
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// SessionOpened implements domain.Recorder.
func (mp *MetricsProvider) SessionOpened(ctx context.Context, kind string) {
	attrs := metric.WithAttributes(attribute.String("document.kind", kind))
	mp.sessions.Add(ctx, 1, attrs)
	mp.activeSessions.Add(ctx, 1, attrs)
}

// SessionClosed implements domain.Recorder.
func (mp *MetricsProvider) SessionClosed(ctx context.Context, kind string) {
	mp.activeSessions.Add(ctx, -1, metric.WithAttributes(attribute.String("document.kind", kind)))
}

// Verb implements domain.Recorder.
func (mp *MetricsProvider) Verb(ctx context.Context, verb string, applied bool) {
	mp.verbs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("verb", verb),
		attribute.Bool("applied", applied),
	))
}

// Transition implements domain.Recorder.
func (mp *MetricsProvider) Transition(ctx context.Context, from, to string) {
	mp.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state.from", from),
		attribute.String("state.to", to),
	))
}

// Load implements domain.Recorder.
func (mp *MetricsProvider) Load(ctx context.Context, kind string, cached bool, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("document.kind", kind),
		attribute.Bool("cached", cached),
		attribute.Bool("success", success),
	)
	mp.loads.Add(ctx, 1, attrs)
	mp.loadDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// Commit implements domain.Recorder.
func (mp *MetricsProvider) Commit(ctx context.Context, kind string, success bool, elements int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("document.kind", kind),
		attribute.Bool("success", success),
	)
	mp.commits.Add(ctx, 1, attrs)
	mp.commitDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	mp.commitElements.Record(ctx, int64(elements), attrs)
}

// Discarded implements domain.Recorder.
func (mp *MetricsProvider) Discarded(ctx context.Context, operation string) {
	mp.discarded.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

var _ domain.Recorder = (*MetricsProvider)(nil)

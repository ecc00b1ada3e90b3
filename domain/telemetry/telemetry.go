// Package telemetry provides observability interfaces for tracing and
// session metrics.
package telemetry

import (
	"context"
	"time"
)

// Tracer creates spans for distributed tracing.
type Tracer interface {
	// StartSpan starts a new span and returns a new context containing the span.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
}

// Span represents a unit of work in a trace.
type Span interface {
	End()
	SetAttributes(attrs ...Attribute)
	RecordError(err error)
	SetStatus(code StatusCode, description string)
	AddEvent(name string, attrs ...Attribute)
}

// SpanOption configures a span.
type SpanOption interface {
	ApplySpan(*SpanConfig)
}

// SpanConfig holds span configuration.
type SpanConfig struct {
	Attributes []Attribute
	Kind       SpanKind
}

// WithAttributes sets span attributes at creation.
func WithAttributes(attrs ...Attribute) SpanOption {
	return SpanOptionFunc(func(c *SpanConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	})
}

// WithSpanKind sets the span kind.
func WithSpanKind(kind SpanKind) SpanOption {
	return SpanOptionFunc(func(c *SpanConfig) {
		c.Kind = kind
	})
}

// SpanOptionFunc is a function that implements SpanOption.
type SpanOptionFunc func(*SpanConfig)

// ApplySpan implements SpanOption.
func (f SpanOptionFunc) ApplySpan(c *SpanConfig) { f(c) }

// SpanKind represents the role of a span.
type SpanKind int

const (
	SpanKindUnspecified SpanKind = iota
	SpanKindInternal
	SpanKindClient
)

// StatusCode represents the status of a span.
type StatusCode int

const (
	StatusCodeUnset StatusCode = iota
	StatusCodeOK
	StatusCodeError
)

// Attribute represents a key-value pair.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Ints creates an integer list attribute.
func Ints(key string, values []int) Attribute {
	return Attribute{Key: key, Value: values}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Recorder records session metrics.
type Recorder interface {
	// SessionOpened counts a new session for the document kind.
	SessionOpened(ctx context.Context, kind string)

	// SessionClosed releases an open session.
	SessionClosed(ctx context.Context, kind string)

	// Verb counts a verb and whether it was applied.
	Verb(ctx context.Context, verb string, applied bool)

	// Transition counts a lifecycle transition.
	Transition(ctx context.Context, from, to string)

	// Load records a structure load.
	Load(ctx context.Context, kind string, cached bool, success bool, duration time.Duration)

	// Commit records a commit attempt.
	Commit(ctx context.Context, kind string, success bool, elements int, duration time.Duration)

	// Discarded counts a response dropped because its session moved on.
	Discarded(ctx context.Context, operation string)
}

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

func (NoopRecorder) SessionOpened(context.Context, string) {}
func (NoopRecorder) SessionClosed(context.Context, string) {}
func (NoopRecorder) Verb(context.Context, string, bool) {}
func (NoopRecorder) Transition(context.Context, string, string) {}
func (NoopRecorder) Load(context.Context, string, bool, bool, time.Duration) {}
func (NoopRecorder) Commit(context.Context, string, bool, int, time.Duration) {}
func (NoopRecorder) Discarded(context.Context, string) {}

var _ Recorder = NoopRecorder{}

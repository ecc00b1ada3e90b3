package observability

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/arrange-go/domain/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultNamespace prefixes attribute keys of arrange spans.
const DefaultNamespace = "arrange"

// Tracer adapts an OpenTelemetry tracer to telemetry.Tracer.
//
// Attribute keys are written under the namespace, so "document.ref"
// becomes "arrange.document.ref". Keys already carrying the namespace are
// left alone.
type Tracer struct {
	tracer    trace.Tracer
	namespace string
}

// NewTracer wraps tracer. An empty namespace writes keys unchanged.
func NewTracer(tracer trace.Tracer, namespace string) *Tracer {
	return &Tracer{tracer: tracer, namespace: namespace}
}

// StartSpan implements telemetry.Tracer.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...telemetry.SpanOption) (context.Context, telemetry.Span) {
	cfg := &telemetry.SpanConfig{}
	for _, opt := range opts {
		opt.ApplySpan(cfg)
	}

	start := []trace.SpanStartOption{trace.WithSpanKind(spanKind(cfg.Kind))}
	if len(cfg.Attributes) > 0 {
		start = append(start, trace.WithAttributes(t.attributes(cfg.Attributes)...))
	}

	ctx, span := t.tracer.Start(ctx, name, start...)
	return ctx, &otelSpan{span: span, tracer: t}
}

var _ telemetry.Tracer = (*Tracer)(nil)

func (t *Tracer) key(k string) string {
	if t.namespace == "" || strings.HasPrefix(k, t.namespace+".") {
		return k
	}
	return t.namespace + "." + k
}

// attributes drops values with no OpenTelemetry counterpart.
func (t *Tracer) attributes(attrs []telemetry.Attribute) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		k := t.key(a.Key)
		switch v := a.Value.(type) {
		case string:
			out = append(out, attribute.String(k, v))
		case int:
			out = append(out, attribute.Int(k, v))
		case int64:
			out = append(out, attribute.Int64(k, v))
		case bool:
			out = append(out, attribute.Bool(k, v))
		case []int:
			out = append(out, attribute.IntSlice(k, v))
		}
	}
	return out
}

type otelSpan struct {
	span   trace.Span
	tracer *Tracer
}

func (s *otelSpan) End() {
	s.span.End()
}

func (s *otelSpan) SetAttributes(attrs ...telemetry.Attribute) {
	s.span.SetAttributes(s.tracer.attributes(attrs)...)
}

func (s *otelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

func (s *otelSpan) SetStatus(code telemetry.StatusCode, description string) {
	s.span.SetStatus(statusCode(code), description)
}

func (s *otelSpan) AddEvent(name string, attrs ...telemetry.Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(s.tracer.attributes(attrs)...))
}

var _ telemetry.Span = (*otelSpan)(nil)

// Loads and organize calls are client spans; everything else stays internal.
func spanKind(kind telemetry.SpanKind) trace.SpanKind {
	if kind == telemetry.SpanKindClient {
		return trace.SpanKindClient
	}
	return trace.SpanKindInternal
}

func statusCode(code telemetry.StatusCode) codes.Code {
	switch code {
	case telemetry.StatusCodeOK:
		return codes.Ok
	case telemetry.StatusCodeError:
		return codes.Error
	default:
		return codes.Unset
	}
}

package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/kiln/internal/core/ports"
)

// OTelTracer implements ports.Tracer using OpenTelemetry. Output written to
// spans is recorded as span events and, when an output sink is set, copied to
// it line by line with the span name as prefix.
type OTelTracer struct {
	tracer trace.Tracer

	mu   sync.RWMutex
	sink io.Writer
	wmu  sync.Mutex
}

// NewOTelTracer creates a tracer with the given instrumentation name.
func NewOTelTracer(name string) *OTelTracer {
	return &OTelTracer{tracer: otel.Tracer(name)}
}

// WithOutput copies span output to w.
func (t *OTelTracer) WithOutput(w io.Writer) *OTelTracer {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sink = w
	return t
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	attrs := make([]attribute.KeyValue, 0, len(cfg.Attributes))
	for k, v := range cfg.Attributes {
		attrs = append(attrs, toAttribute(k, v))
	}
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))

	t.mu.RLock()
	sink := t.sink
	t.mu.RUnlock()

	s := &OTelSpan{span: span}
	if sink != nil {
		prefix := []byte("[" + name + "] ")
		s.batcher = NewLineBatcher(0, 0, func(lines []byte) {
			t.wmu.Lock()
			defer t.wmu.Unlock()
			for line := range bytes.Lines(lines) {
				_, _ = sink.Write(prefix)
				_, _ = sink.Write(line)
				if !bytes.HasSuffix(line, []byte("\n")) {
					_, _ = sink.Write([]byte("\n"))
				}
			}
		})
	}
	return ctx, s
}

// EmitPlan records the configurations of a pass as an event on the current span.
func (t *OTelTracer) EmitPlan(ctx context.Context, configs []string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(
			attribute.StringSlice("kiln.configs", configs),
		))
	}
}

// OTelSpan implements ports.Span using OpenTelemetry.
type OTelSpan struct {
	span    trace.Span
	batcher *LineBatcher
}

// End completes the span.
func (s *OTelSpan) End() {
	if s.batcher != nil {
		_ = s.batcher.Close()
	}
	s.span.End()
}

// RecordError records err and marks the span as failed.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	s.span.SetAttributes(toAttribute(key, value))
}

// Write records p as a log event and copies it to the output sink.
func (s *OTelSpan) Write(p []byte) (int, error) {
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	if s.batcher != nil {
		return s.batcher.Write(p)
	}
	return len(p), nil
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

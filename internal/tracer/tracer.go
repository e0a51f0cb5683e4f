// Package tracer provides distributed tracing abstractions for the
// optimizer. It supports OpenTelemetry and allows custom tracer
// implementations.
package tracer

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans around tracked query executions.
type Tracer interface {
	// StartSpan starts a new tracing span with the given name
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span captures the execution of one tracked statement.
type Span interface {
	// SetAttributes sets key-value attributes on the span
	SetAttributes(attrs ...attribute.KeyValue)
	// RecordError records an error that occurred during the span
	RecordError(err error)
	// SetStatus sets the status code and description of the span
	SetStatus(code codes.Code, description string)
	// End marks the span as complete
	End()
}

// NoopTracer does nothing. It is the default when tracing is not
// configured.
type NoopTracer struct{}

// StartSpan returns the context unchanged with a no-op span.
func (n *NoopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, &NoopSpan{}
}

// NoopSpan is a span that does nothing.
type NoopSpan struct{}

// SetAttributes does nothing.
func (n *NoopSpan) SetAttributes(_ ...attribute.KeyValue) {}

// RecordError does nothing.
func (n *NoopSpan) RecordError(_ error) {}

// SetStatus does nothing.
func (n *NoopSpan) SetStatus(_ codes.Code, _ string) {}

// End does nothing.
func (n *NoopSpan) End() {}

// OtelTracer adapts an OpenTelemetry tracer to the Tracer interface.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer creates a new OpenTelemetry tracer adapter.
// The provided tracer must not be nil.
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

// StartSpan starts a new OpenTelemetry span.
func (t *OtelTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name)
	return ctx, &OtelSpan{span: span}
}

// OtelSpan wraps an OpenTelemetry span.
type OtelSpan struct {
	span trace.Span
}

// SetAttributes sets OpenTelemetry attributes on the span.
func (s *OtelSpan) SetAttributes(attrs ...attribute.KeyValue) {
	s.span.SetAttributes(attrs...)
}

// RecordError records an error on the OpenTelemetry span.
func (s *OtelSpan) RecordError(err error) {
	s.span.RecordError(err)
}

// SetStatus sets the status of the OpenTelemetry span.
func (s *OtelSpan) SetStatus(code codes.Code, description string) {
	s.span.SetStatus(code, description)
}

// End completes the OpenTelemetry span.
func (s *OtelSpan) End() {
	s.span.End()
}

// ExecutionMetadata describes one tracked execution for tracing purposes.
// Attributes follow OpenTelemetry database semantic conventions.
type ExecutionMetadata struct {
	// SQL is the executed statement (possibly truncated)
	SQL string
	// QueryID is the statement's deterministic identity
	QueryID string
	// Category is the workload category assigned by the analyzer
	Category string
	// Duration is how long the execution took
	Duration time.Duration
	// RowCount is the number of rows returned or affected
	RowCount int64
	// Database is the database family (postgresql, mysql, sqlite)
	Database string
	// Error is any error raised by the driver (nil on success)
	Error error
}

// AddExecutionAttributes annotates a span with execution metadata.
// See: https://opentelemetry.io/docs/specs/semconv/database/
func AddExecutionAttributes(span Span, meta *ExecutionMetadata) {
	span.SetAttributes(
		attribute.String("db.system", meta.Database),
		attribute.String("db.statement", meta.SQL),
		attribute.String("db.query_id", meta.QueryID),
		attribute.String("db.workload_category", meta.Category),
		attribute.Float64("db.duration_ms", float64(meta.Duration.Microseconds())/1000.0),
		attribute.Int64("db.row_count", meta.RowCount),
	)

	if meta.Error != nil {
		span.RecordError(meta.Error)
		span.SetStatus(codes.Error, meta.Error.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

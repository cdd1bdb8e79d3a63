package observ

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span.
const TracerName = "shaderls"

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	ServiceVersion string
	// OTLPEndpoint is the OTLP gRPC endpoint, e.g. "localhost:4317".
	// Empty disables export.
	OTLPEndpoint string
	SampleRate   float64
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing installs a global tracer provider exporting to cfg.OTLPEndpoint.
// Without an endpoint the global no-op tracer is used.
func InitTracing(ctx context.Context, cfg TracingConfig) (*TracerProvider, error) {
	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{tracer: otel.Tracer(TracerName)}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(TracerName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

// Shutdown flushes pending spans.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// StartLintSpan starts the span covering one entry lint.
func StartLintSpan(ctx context.Context, entry, stage string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "lint",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("shader.entry", entry),
			attribute.String("shader.stage", stage),
		),
	)
}

// StartValidateSpan starts the span around the external validator call.
func StartValidateSpan(ctx context.Context, vendor string, bytes int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "validate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("validator.vendor", vendor),
			attribute.Int("validator.source_bytes", bytes),
		),
	)
}

// StartScanSpan starts the span for an include scan.
func StartScanSpan(ctx context.Context, path string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "scan",
		trace.WithAttributes(attribute.String("shader.path", path)),
	)
}

// RecordLintResult attaches diagnostic counts to a lint span.
func RecordLintResult(span trace.Span, files, diagnostics int, hasErrors bool) {
	span.SetAttributes(
		attribute.Int("lint.file_count", files),
		attribute.Int("lint.diagnostic_count", diagnostics),
		attribute.Bool("lint.success", !hasErrors),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// Package otel wires OTLP/gRPC trace export into the request path: a
// tracer provider, an otlptracegrpc exporter and a batch span processor,
// exposed as IsEnabled/Init/StartSpan/AddSpanTags/RecordError/Shutdown.
package otel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/forbearing/crud6/config"
)

var (
	enabled  atomic.Bool
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	initOnce sync.Once
)

// Init configures the global tracer provider from config.App.OTEL. It is a
// no-op (and leaves IsEnabled() false) when tracing is disabled or no
// collector endpoint is configured, so callers never need to guard the
// call site.
func Init() error {
	cfg := config.App.OTEL
	if !cfg.Enable || cfg.Endpoint == "" {
		return nil
	}

	var err error
	initOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var exporter *otlptrace.Exporter
		exporter, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return
		}
		res, resErr := resource.New(ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName(cfg)),
				semconv.ServiceVersion(cfg.ServiceVersion),
			),
		)
		if resErr != nil {
			res = resource.Default()
		}
		provider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(samplerRatio(cfg))),
		)
		otel.SetTracerProvider(provider)
		tracer = provider.Tracer("github.com/forbearing/crud6")
		enabled.Store(true)
		zap.S().Infow("otel tracing enabled", "endpoint", cfg.Endpoint, "service", serviceName(cfg))
	})
	return err
}

func serviceName(cfg config.OTEL) string {
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	return "crud6"
}

func samplerRatio(cfg config.OTEL) float64 {
	if cfg.SampleRatio > 0 {
		return cfg.SampleRatio
	}
	return 1.0
}

// IsEnabled reports whether tracing was successfully initialized.
func IsEnabled() bool { return enabled.Load() }

// StartSpan begins a child span under ctx, returning the context it must be
// threaded through and the span to close with End().
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !IsEnabled() {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name)
}

// AddSpanTags attaches arbitrary key/value attributes to span.
func AddSpanTags(span trace.Span, tags map[string]any) {
	if span == nil || !span.IsRecording() {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(tags))
	for k, v := range tags {
		attrs = append(attrs, toAttribute(k, v))
	}
	span.SetAttributes(attrs...)
}

// RecordError records err on span and marks the span status as an error.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func toAttribute(k string, v any) attribute.KeyValue {
	switch val := v.(type) {
	case string:
		return attribute.String(k, val)
	case bool:
		return attribute.Bool(k, val)
	case int:
		return attribute.Int(k, val)
	case int64:
		return attribute.Int64(k, val)
	case float64:
		return attribute.Float64(k, val)
	default:
		return attribute.String(k, fmt.Sprintf("%v", val))
	}
}

// Shutdown flushes and stops the tracer provider; called from the server's
// graceful-shutdown sequence.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}

// Package observability wires the OpenTelemetry tracer provider used by the
// traced iterator decorator. Metrics stay on Prometheus (pkg/metrics); this
// package only owns tracing.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/cometdb/comet/pkg/errors"
)

// TracingConfig controls the tracer provider.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	// SamplingRate in [0, 1]; 0 disables, 1 samples everything.
	SamplingRate float64
	// BatchTimeout bounds how long finished spans wait before export.
	BatchTimeout time.Duration
}

// DefaultTracingConfig returns development-friendly tracing defaults.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "comet",
		ServiceVersion: "dev",
		SamplingRate:   1.0,
		BatchTimeout:   5 * time.Second,
	}
}

// InitTracing installs a global tracer provider exporting pretty-printed
// spans to stdout. The returned shutdown function flushes pending spans.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "create tracing resource")
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "create stdout span exporter")
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	case cfg.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(cfg.BatchTimeout)),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

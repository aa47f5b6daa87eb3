// Package observability adapts nova's internal/observability telemetry
// provider to stoilo: an OTLP-HTTP exporter wired through the Gateway's
// gRPC interceptor chain (internal/gateway/interceptors.go).
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/metadata"
)

// Config holds telemetry configuration.
type Config struct {
	Enabled     bool
	Endpoint    string // host:port, e.g. localhost:4318
	ServiceName string
	SampleRate  float64
}

type provider struct {
	tp      *sdktrace.TracerProvider
	tracer  trace.Tracer
	enabled bool
}

var global = &provider{enabled: false, tracer: trace.NewNoopTracerProvider().Tracer("")}

// Init initializes the global tracer provider. Calling it with
// Enabled: false (the default) leaves tracing a no-op.
func Init(ctx context.Context, cfg Config) error {
	if !cfg.Enabled {
		global = &provider{enabled: false, tracer: trace.NewNoopTracerProvider().Tracer("")}
		return nil
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "stoilo-gateway"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return fmt.Errorf("create telemetry resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return fmt.Errorf("create OTLP exporter: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRate > 0 && cfg.SampleRate < 1.0 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	global = &provider{tp: tp, tracer: tp.Tracer(serviceName), enabled: true}
	return nil
}

// Shutdown flushes and stops the tracer provider, if any.
func Shutdown(ctx context.Context) error {
	if global.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return global.tp.Shutdown(ctx)
}

// Tracer returns the global tracer (a no-op tracer if Init was never
// called or called with Enabled: false).
func Tracer() trace.Tracer {
	return global.tracer
}

// Enabled reports whether tracing is wired to a real exporter.
func Enabled() bool {
	return global.enabled
}

// grpcMetadataCarrier adapts grpc metadata.MD to propagation.TextMapCarrier
// so the global propagator can read/write traceparent headers directly
// against gRPC request metadata.
type grpcMetadataCarrier metadata.MD

func (c grpcMetadataCarrier) Get(key string) string {
	vals := metadata.MD(c).Get(key)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func (c grpcMetadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}

func (c grpcMetadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// InjectGRPCMetadata propagates the span context active in ctx into
// outgoing gRPC request metadata (traceparent, per SPEC_FULL §2.5), so
// the Task Gateway's server span becomes a child of the caller's.
func InjectGRPCMetadata(ctx context.Context) context.Context {
	md, ok := metadata.FromOutgoingContext(ctx)
	if ok {
		md = md.Copy()
	} else {
		md = metadata.MD{}
	}
	otel.GetTextMapPropagator().Inject(ctx, grpcMetadataCarrier(md))
	return metadata.NewOutgoingContext(ctx, md)
}

// ExtractGRPCMetadata rebuilds the remote span context, if any, from
// incoming gRPC request metadata, so a client-set traceparent correlates
// with the Gateway's own span (SPEC_FULL §2.5).
func ExtractGRPCMetadata(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, grpcMetadataCarrier(md))
}

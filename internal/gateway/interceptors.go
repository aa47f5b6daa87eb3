package gateway

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sermir2003/stoilo/internal/logging"
	"github.com/sermir2003/stoilo/internal/metrics"
	"github.com/sermir2003/stoilo/internal/observability"
)

// loggingInterceptor logs every RPC's method and outcome on the
// operational logger, adapted from nova's internal/grpc loggingInterceptor.
func loggingInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	duration := time.Since(start)

	if err != nil {
		logging.Op().Error("gRPC request failed",
			"method", info.FullMethod,
			"duration", duration,
			"error", err,
		)
	} else {
		logging.Op().Debug("gRPC request completed",
			"method", info.FullMethod,
			"duration", duration,
		)
	}
	return resp, err
}

// recoveryInterceptor converts a handler panic into an INTERNAL status
// rather than crashing the process, matching nova's posture of never
// letting one bad request take the whole Gateway down.
func recoveryInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Op().Error("gRPC handler panicked", "method", info.FullMethod, "panic", r)
			err = status.Errorf(grpccodes.Internal, "internal error: %v", r)
		}
	}()
	return handler(ctx, req)
}

// tracingInterceptor starts a server span per RPC (SPEC_FULL §2.5),
// first extracting a client-set traceparent from incoming gRPC metadata
// so the span correlates end to end instead of starting a fresh trace.
func tracingInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	ctx = observability.ExtractGRPCMetadata(ctx)
	ctx, span := observability.Tracer().Start(ctx, info.FullMethod)
	defer span.End()

	resp, err := handler(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.String("rpc.method", info.FullMethod))
	return resp, err
}

// metricsInterceptor logs, at debug level, every RPC that returns an
// error when metrics are enabled. It records no latency of its own:
// the only RPC histograms are the ones CreateTask/PollTask observe
// directly.
func metricsInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil && m != nil {
			logging.Op().Debug("rpc returned error", "method", info.FullMethod, "error", fmt.Sprintf("%v", err))
		}
		return resp, err
	}
}

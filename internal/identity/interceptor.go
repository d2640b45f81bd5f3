package identity

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/MikeMC777/ordenes-saga/internal/logging"
	"github.com/MikeMC777/ordenes-saga/internal/metrics"
)

// UnaryLogger logs one line per call with the resulting status code and
// counts calls as saga steps of the "user" service.
func UnaryLogger(logger *zap.Logger, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("dur", time.Since(start)),
		}
		if err != nil {
			logging.Warn(ctx, logger, "grpc", append(fields, zap.Error(err))...)
		} else {
			logging.Info(ctx, logger, "grpc", fields...)
		}
		m.Step("user", info.FullMethod, metrics.Outcome(err))
		return resp, err
	}
}

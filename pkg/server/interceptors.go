package server

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// =============================================================================
// 1. Logging Interceptor
// =============================================================================

// UnaryLoggingInterceptor 记录 Has / Expand / Put
func UnaryLoggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logRPC(ctx, "unary", info.FullMethod, time.Since(start), err)
	return resp, err
}

// StreamLoggingInterceptor 记录对象下载流
func StreamLoggingInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	logRPC(ss.Context(), "stream", info.FullMethod, time.Since(start), err)
	return err
}

func logRPC(ctx context.Context, kind, method string, duration time.Duration, err error) {
	code := status.Code(err)

	level := slog.LevelDebug
	switch code {
	case codes.OK:
	case codes.NotFound, codes.InvalidArgument, codes.FailedPrecondition, codes.Canceled:
		// 调用方的问题，服务端只需留痕
		level = slog.LevelWarn
	default:
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("kind", kind),
		slog.String("method", method),
		slog.String("code", code.String()),
		slog.Duration("dur", duration),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
	}
	slog.LogAttrs(ctx, level, "grpc request", attrs...)
}

// =============================================================================
// 2. Recovery Interceptor
// =============================================================================

// UnaryRecoveryInterceptor 捕获 Panic
func UnaryRecoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverFromPanic(info.FullMethod, r)
		}
	}()
	return handler(ctx, req)
}

// StreamRecoveryInterceptor 捕获 Panic
func StreamRecoveryInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverFromPanic(info.FullMethod, r)
		}
	}()
	return handler(srv, ss)
}

func recoverFromPanic(method string, p any) error {
	slog.Error("🔥 panic recovered",
		slog.String("method", method),
		slog.Any("panic", p),
		slog.String("stack", string(debug.Stack())),
	)
	// 连接保持可用，只让本次调用失败
	return status.Errorf(codes.Internal, "internal server error: panic recovered")
}

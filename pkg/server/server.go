package server

import (
	"commitfs/pkg/api/objectrpc"
	"commitfs/pkg/storage"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

// NewGRPCServer 组装带拦截器的 gRPC 服务并注册对象服务
func NewGRPCServer(store storage.Store, opts ...grpc.ServerOption) *grpc.Server {
	base := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(64 * 1024 * 1024),
		grpc.ChainUnaryInterceptor(UnaryRecoveryInterceptor, UnaryLoggingInterceptor),
		grpc.ChainStreamInterceptor(StreamRecoveryInterceptor, StreamLoggingInterceptor),
	}
	s := grpc.NewServer(append(base, opts...)...)
	objectrpc.RegisterObjectServiceServer(s, NewObjectServer(store))
	reflection.Register(s)
	return s
}

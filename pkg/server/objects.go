package server

import (
	"context"
	"errors"
	"io"

	"commitfs/pkg/api/objectrpc"
	"commitfs/pkg/core"
	"commitfs/pkg/storage"
	"commitfs/pkg/types"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FrameSize 是 Get 流中单帧的最大字节数
const FrameSize = 256 * 1024

// ObjectServer 把一个 storage.Store 通过 gRPC 暴露出去
type ObjectServer struct {
	objectrpc.UnimplementedObjectServiceServer
	store storage.Store
}

func NewObjectServer(store storage.Store) *ObjectServer {
	return &ObjectServer{store: store}
}

func (s *ObjectServer) Has(ctx context.Context, req *objectrpc.HasRequest) (*objectrpc.HasResponse, error) {
	ok, err := s.store.Has(ctx, req.Hash)
	if err != nil {
		return nil, toStatus(err)
	}
	return &objectrpc.HasResponse{Exists: ok}, nil
}

func (s *ObjectServer) Expand(ctx context.Context, req *objectrpc.ExpandRequest) (*objectrpc.ExpandResponse, error) {
	h, err := s.store.ExpandHash(ctx, req.Prefix)
	if err != nil {
		return nil, toStatus(err)
	}
	return &objectrpc.ExpandResponse{Hash: h}, nil
}

func (s *ObjectServer) Put(ctx context.Context, req *objectrpc.PutRequest) (*objectrpc.PutResponse, error) {
	obj := core.NewRawObject(req.Data)
	if req.Hash != obj.ID() {
		return nil, status.Errorf(codes.InvalidArgument, "hash mismatch: claimed %s, actual %s", req.Hash.Short(), obj.ID().Short())
	}
	if err := s.store.Put(ctx, obj); err != nil {
		return nil, toStatus(err)
	}
	return &objectrpc.PutResponse{}, nil
}

func (s *ObjectServer) Get(req *objectrpc.GetRequest, stream grpc.ServerStreamingServer[objectrpc.GetResponse]) error {
	ctx := stream.Context()
	rc, err := s.store.Get(ctx, req.Hash)
	if err != nil {
		return toStatus(err)
	}
	defer rc.Close()

	buf := make([]byte, FrameSize)
	sent := false
	for {
		n, err := io.ReadFull(rc, buf)
		if n > 0 {
			if sendErr := stream.Send(&objectrpc.GetResponse{Data: buf[:n]}); sendErr != nil {
				return sendErr
			}
			sent = true
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return toStatus(err)
		}
	}
	// 空对象也要发一帧，客户端据此区分 "存在但为空" 与 "不存在"
	if !sent {
		return stream.Send(&objectrpc.GetResponse{})
	}
	return nil
}

// toStatus 把存储层错误映射为 gRPC 状态码
func toStatus(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, storage.ErrAmbiguousHash):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, storage.ErrPrefixTooShort), errors.Is(err, types.ErrInvalidHash):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

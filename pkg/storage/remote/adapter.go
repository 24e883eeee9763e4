// Package remote 通过 gRPC 对象服务访问另一台机器上的对象库
package remote

import (
	"context"
	"fmt"
	"io"
	"strings"

	"commitfs/pkg/api/objectrpc"
	"commitfs/pkg/client"
	"commitfs/pkg/core"
	"commitfs/pkg/storage"
	"commitfs/pkg/types"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var _ storage.Store = (*Adapter)(nil)

type Adapter struct {
	client *client.Client
	rpc    objectrpc.ObjectServiceClient
}

// NewAdapter 连接到 addr 上的对象服务
func NewAdapter(addr string, opts ...grpc.DialOption) (*Adapter, error) {
	c, err := client.New(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &Adapter{client: c, rpc: c.Objects}, nil
}

func (a *Adapter) Close() error {
	return a.client.Close()
}

func (a *Adapter) Put(ctx context.Context, obj core.Object) error {
	_, err := a.rpc.Put(ctx, &objectrpc.PutRequest{Hash: obj.ID(), Data: obj.Bytes()})
	if err != nil {
		return fmt.Errorf("remote put %s: %w", obj.ID().Short(), fromStatus(err))
	}
	return nil
}

func (a *Adapter) Has(ctx context.Context, hash types.Hash) (bool, error) {
	resp, err := a.rpc.Has(ctx, &objectrpc.HasRequest{Hash: hash})
	if err != nil {
		return false, fmt.Errorf("remote has %s: %w", hash.Short(), fromStatus(err))
	}
	return resp.Exists, nil
}

func (a *Adapter) ExpandHash(ctx context.Context, prefix types.HashPrefix) (types.Hash, error) {
	prefix = types.HashPrefix(strings.ToLower(string(prefix)))
	if err := storage.CheckPrefix(prefix); err != nil {
		return "", fmt.Errorf("%w: %q", err, prefix)
	}
	resp, err := a.rpc.Expand(ctx, &objectrpc.ExpandRequest{Prefix: prefix})
	if err != nil {
		return "", fmt.Errorf("remote expand %s: %w", prefix, fromStatus(err))
	}
	return resp.Hash, nil
}

// Get 打开下载流。首帧在这里同步读取，
// 这样 "对象不存在" 会从 Get 本身返回，而不是推迟到第一次 Read。
func (a *Adapter) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)
	stream, err := a.rpc.Get(ctx, &objectrpc.GetRequest{Hash: hash})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("remote get %s: %w", hash.Short(), fromStatus(err))
	}
	first, err := stream.Recv()
	if err != nil {
		cancel()
		if err == io.EOF {
			return nil, fmt.Errorf("remote get %s: empty stream: %w", hash.Short(), storage.ErrNotFound)
		}
		return nil, fmt.Errorf("remote get %s: %w", hash.Short(), fromStatus(err))
	}
	r := newStreamReader(stream, cancel)
	r.buf = first.Data
	return r, nil
}

// fromStatus 把 gRPC 状态码还原为存储层的哨兵错误
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%w: %s", storage.ErrNotFound, st.Message())
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", storage.ErrAmbiguousHash, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", types.ErrInvalidHash, st.Message())
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	default:
		return err
	}
}

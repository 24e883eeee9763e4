package client

import (
	"fmt"
	"time"

	"commitfs/pkg/api/objectrpc"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// Client 封装了与对象服务端的连接
type Client struct {
	conn *grpc.ClientConn

	Objects objectrpc.ObjectServiceClient
}

// New 创建客户端。
// grpc.NewClient 立即返回，连接在第一次调用时建立，所以这里不需要 context。
// 额外的 DialOption 追加在默认值之后 (测试用 bufconn 覆盖拨号器)。
func New(addr string, extra ...grpc.DialOption) (*Client, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(64*1024*1024),
			grpc.MaxCallSendMsgSize(64*1024*1024),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                10 * time.Second,
			Timeout:             20 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		// 这里只会是配置错误 (如地址格式不对)，网络不通不会在这里报错
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", addr, err)
	}

	return &Client{
		conn:    conn,
		Objects: objectrpc.NewObjectServiceClient(conn),
	}, nil
}

// Close 关闭底层连接
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

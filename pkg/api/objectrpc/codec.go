package objectrpc

import (
	"fmt"

	"commitfs/pkg/core"

	"google.golang.org/grpc/encoding"
)

// CodecName 是注册到 gRPC 的 content-subtype ("application/grpc+cbor")
const CodecName = "cbor"

func init() {
	encoding.RegisterCodec(cborCodec{})
}

// cborCodec 使用与对象库相同的规范 CBOR 编码传输消息
type cborCodec struct{}

func (cborCodec) Marshal(v any) ([]byte, error) {
	b, err := core.EncodeValue(v)
	if err != nil {
		return nil, fmt.Errorf("cbor codec marshal: %w", err)
	}
	return b, nil
}

func (cborCodec) Unmarshal(data []byte, v any) error {
	if err := core.DecodeObject(data, v); err != nil {
		return fmt.Errorf("cbor codec unmarshal: %w", err)
	}
	return nil
}

func (cborCodec) Name() string { return CodecName }

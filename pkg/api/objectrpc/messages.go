package objectrpc

import "commitfs/pkg/types"

type HasRequest struct {
	Hash types.Hash `cbor:"h"`
}

type HasResponse struct {
	Exists bool `cbor:"e"`
}

type ExpandRequest struct {
	Prefix types.HashPrefix `cbor:"p"`
}

type ExpandResponse struct {
	Hash types.Hash `cbor:"h"`
}

// PutRequest 携带对象的完整序列化数据，服务端会重新计算 Hash 校验
type PutRequest struct {
	Hash types.Hash `cbor:"h"`
	Data []byte     `cbor:"d"`
}

type PutResponse struct{}

type GetRequest struct {
	Hash types.Hash `cbor:"h"`
}

// GetResponse 是对象数据的一帧 (已解压)
type GetResponse struct {
	Data []byte `cbor:"d"`
}

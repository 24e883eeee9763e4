package core

import "commitfs/pkg/types"

// RawObject 只持有序列化数据，类型按需探测。
// 用于在进程之间原样转发对象 (RPC、校验)。
type RawObject struct {
	hash types.Hash
	data []byte
}

func NewRawObject(data []byte) *RawObject {
	return &RawObject{hash: CalculateBlobHash(data), data: data}
}

func (o *RawObject) Type() ObjectType { return PeekType(o.data) }
func (o *RawObject) ID() types.Hash   { return o.hash }
func (o *RawObject) Bytes() []byte    { return o.data }

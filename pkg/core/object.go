package core

import (
	"errors"

	"commitfs/pkg/types"
)

// ObjectType 定义了对象库中的对象类型
type ObjectType string

const (
	TypeChunk    ObjectType = "chunk"    // 原始数据块 (L1)
	TypeFileNode ObjectType = "filenode" // 文件索引, 即 Blob (L2)
	TypeTree     ObjectType = "tree"     // 目录树 (L3)
	TypeCommit   ObjectType = "commit"   // 版本快照 (L4)
)

// ErrTypeMismatch 表示对象存在，但不是调用方期望的类型
var ErrTypeMismatch = errors.New("object type mismatch")

// Object 是所有 Merkle DAG 节点的通用接口
type Object interface {
	// Type 返回对象类型
	Type() ObjectType

	// ID 返回对象的哈希值 (CID)
	ID() types.Hash

	// Bytes 返回对象的序列化数据 (用于存储)
	Bytes() []byte
}

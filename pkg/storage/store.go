package storage

import (
	"context"
	"errors"
	"io"

	"commitfs/pkg/core"
	"commitfs/pkg/types"
)

// MinPrefixLen 是 ExpandHash 接受的最短前缀
const MinPrefixLen = 4

var (
	ErrNotFound       = errors.New("object not found")
	ErrAmbiguousHash  = errors.New("ambiguous hash prefix")
	ErrPrefixTooShort = errors.New("hash prefix too short")
)

// Store defines the interface for a storage backend.
// Implementations can be local disk, cloud storage, or a remote object server.
// All implementations must be safe for concurrent use.
type Store interface {
	// Put 将一个核心对象持久化
	// 它不需要返回 Hash，因为 Hash 已经在 core.Object 里了
	Put(ctx context.Context, obj core.Object) error

	// Get 根据 Hash 读取原始数据
	// 注意：这里返回的是 io.ReadCloser 而不是 []byte
	// 原因：为了支持大文件的流式读取 (Stream)，避免一次性把 100MB 读进内存
	Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error)

	// Has 检查对象是否存在 (用于去重逻辑)
	Has(ctx context.Context, hash types.Hash) (bool, error)

	// ExpandHash 将短前缀扩展为完整 Hash
	ExpandHash(ctx context.Context, prefix types.HashPrefix) (types.Hash, error)
}

// CheckPrefix 校验前缀长度与字符集，供各实现共用
func CheckPrefix(prefix types.HashPrefix) error {
	if len(prefix) < MinPrefixLen {
		return ErrPrefixTooShort
	}
	for _, r := range prefix {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return types.ErrInvalidHash
		}
	}
	return nil
}

// ReadAll 读取完整对象数据
func ReadAll(ctx context.Context, s Store, hash types.Hash) ([]byte, error) {
	rc, err := s.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

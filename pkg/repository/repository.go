package repository

import (
	"context"
	"errors"
	"fmt"

	"commitfs/pkg/core"
	"commitfs/pkg/storage"
	"commitfs/pkg/types"
)

// ErrTypeMismatch 表示对象存在但类型不符 (例如把 Tree 当作 Commit 打开)
var ErrTypeMismatch = core.ErrTypeMismatch

// ErrCorruptObject 表示对象内容与其索引记录不一致
var ErrCorruptObject = errors.New("corrupt object")

// Repository 是对象库的共享句柄。
// 它本身无状态，并发安全性由底层 storage.Store 保证，
// 多个 CommitFS 可以共用同一个 *Repository。
type Repository struct {
	store storage.Store
}

func New(store storage.Store) *Repository {
	return &Repository{store: store}
}

// Store 返回底层存储 (写入路径使用)
func (r *Repository) Store() storage.Store { return r.store }

// Open 实现 Source，已打开的仓库原样返回
func (r *Repository) Open(ctx context.Context) (*Repository, error) { return r, nil }

func (r *Repository) read(ctx context.Context, hash types.Hash) ([]byte, error) {
	data, err := storage.ReadAll(ctx, r.store, hash)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", hash.Short(), err)
	}
	return data, nil
}

// Commit 读取并解码一个 Commit。对象不是 Commit 时返回 ErrTypeMismatch。
func (r *Repository) Commit(ctx context.Context, hash types.CommitHash) (*core.Commit, error) {
	data, err := r.read(ctx, hash.Untyped())
	if err != nil {
		return nil, err
	}
	return core.DecodeCommit(data)
}

// Tree 读取并解码一个目录树
func (r *Repository) Tree(ctx context.Context, hash types.Hash) (*core.Tree, error) {
	data, err := r.read(ctx, hash)
	if err != nil {
		return nil, err
	}
	return core.DecodeTree(data)
}

// FileNode 读取并解码一个文件索引节点
func (r *Repository) FileNode(ctx context.Context, hash types.Hash) (*core.FileNode, error) {
	data, err := r.read(ctx, hash)
	if err != nil {
		return nil, err
	}
	return core.DecodeFileNode(data)
}

// ObjectType 向存储查询对象类型。Hash 本身不带类型信息。
func (r *Repository) ObjectType(ctx context.Context, hash types.Hash) (core.ObjectType, error) {
	data, err := r.read(ctx, hash)
	if err != nil {
		return "", err
	}
	return core.PeekType(data), nil
}

// ObjectInfo 是对象的类型与逻辑大小
type ObjectInfo struct {
	Type core.ObjectType
	// Size 对 FileNode 是文件总长度，对 Chunk 是原始字节数，其他类型为 0
	Size uint64
}

// Stat 一次读取同时得到类型和大小
func (r *Repository) Stat(ctx context.Context, hash types.Hash) (ObjectInfo, error) {
	data, err := r.read(ctx, hash)
	if err != nil {
		return ObjectInfo{}, err
	}
	switch t := core.PeekType(data); t {
	case core.TypeFileNode:
		node, err := core.DecodeFileNode(data)
		if err != nil {
			return ObjectInfo{}, err
		}
		if node.TotalSize < 0 {
			return ObjectInfo{}, fmt.Errorf("%w: filenode %s has negative size", ErrCorruptObject, hash.Short())
		}
		return ObjectInfo{Type: t, Size: uint64(node.TotalSize)}, nil
	case core.TypeChunk:
		return ObjectInfo{Type: t, Size: uint64(len(data))}, nil
	default:
		return ObjectInfo{Type: t}, nil
	}
}

// ObjectSize 返回对象的逻辑大小，语义同 ObjectInfo.Size
func (r *Repository) ObjectSize(ctx context.Context, hash types.Hash) (uint64, error) {
	info, err := r.Stat(ctx, hash)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

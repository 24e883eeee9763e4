// Package commitfs 把某个 Commit 记录的文件树暴露为只读文件系统。
//
// 路径分隔符可以是 '/' 或 '\'，首尾分隔符会被忽略，空路径即根目录。
// 所有写操作都返回 ErrNotSupported。
package commitfs

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync/atomic"
	"unicode/utf8"

	"commitfs/pkg/core"
	"commitfs/pkg/repository"
	"commitfs/pkg/types"
)

type FileType int

const (
	File FileType = iota + 1
	Directory
)

func (t FileType) String() string {
	switch t {
	case File:
		return "file"
	case Directory:
		return "dir"
	default:
		return "unknown"
	}
}

// Metadata 每次调用重新计算
type Metadata struct {
	Type FileType
	// Len 对文件是内容字节数，对目录恒为 0
	Len uint64
}

func (m Metadata) IsDir() bool { return m.Type == Directory }

// FileSystem 是通用的文件系统能力接口
type FileSystem interface {
	ReadDir(ctx context.Context, path string) (iter.Seq[string], error)
	OpenFile(ctx context.Context, path string) (Handle, error)
	Metadata(ctx context.Context, path string) (Metadata, error)
	Exists(ctx context.Context, path string) bool

	CreateDir(ctx context.Context, path string) error
	CreateFile(ctx context.Context, path string) (io.WriteCloser, error)
	AppendFile(ctx context.Context, path string) (io.WriteCloser, error)
	RemoveFile(ctx context.Context, path string) error
	RemoveDir(ctx context.Context, path string) error
	CopyFile(ctx context.Context, from, to string) error
	MoveFile(ctx context.Context, from, to string) error
	MoveDir(ctx context.Context, from, to string) error
}

var _ FileSystem = (*CommitFS)(nil)

// CommitFS 是某个 Commit 的只读视图。构造后不可变，可并发使用。
type CommitFS struct {
	repo   *repository.Repository
	commit *core.Commit
	root   types.Hash
}

// New 打开仓库并定位到指定 Commit。
// commit 可以是 types.CommitHash、types.Hash、types.CommitText 或 types.CommitBytes。
func New(ctx context.Context, src repository.Source, commit types.CommitSource) (*CommitFS, error) {
	repo, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	hash, err := commit.ToCommitHash()
	if err != nil {
		return nil, err
	}
	c, err := repo.Commit(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("load commit %s: %w", hash.Untyped().Short(), err)
	}
	return &CommitFS{repo: repo, commit: c, root: c.TreeHash()}, nil
}

// Commit 返回底层的 Commit 对象
func (c *CommitFS) Commit() *core.Commit { return c.commit }

// Repository 返回共享的仓库句柄
func (c *CommitFS) Repository() *repository.Repository { return c.repo }

func (c *CommitFS) String() string {
	return fmt.Sprintf("CommitFS(%q)", string(c.commit.ID()))
}

// ReadDir 返回目录项名字，顺序即存储顺序。
// 返回的序列只能遍历一次。
func (c *CommitFS) ReadDir(ctx context.Context, path string) (iter.Seq[string], error) {
	hash, _, err := c.resolve(ctx, "readdir", path)
	if err != nil {
		return nil, err
	}
	tree, err := c.repo.Tree(ctx, hash)
	if err != nil {
		return nil, err
	}
	for _, e := range tree.Entries {
		if !utf8.ValidString(e.Name) {
			return nil, invalidData("readdir", path)
		}
	}

	entries := tree.Entries
	var used atomic.Bool
	return func(yield func(string) bool) {
		if used.Swap(true) {
			return
		}
		for _, e := range entries {
			if !yield(e.Name) {
				return
			}
		}
	}, nil
}

// OpenFile 打开文件内容流。返回的 Handle 不支持 Seek，调用方负责 Close。
func (c *CommitFS) OpenFile(ctx context.Context, path string) (Handle, error) {
	hash, _, err := c.resolve(ctx, "open", path)
	if err != nil {
		return nil, err
	}
	rc, err := c.repo.BlobReader(ctx, hash)
	if err != nil {
		return nil, err
	}
	return &noSeekFile{rc: rc}, nil
}

// Metadata 返回文件或目录的类型与长度。
// 指向嵌套仓库 (Commit) 等其他对象时返回 ErrNotFound。
func (c *CommitFS) Metadata(ctx context.Context, path string) (Metadata, error) {
	hash, kind, err := c.resolve(ctx, "metadata", path)
	if err != nil {
		return Metadata{}, err
	}
	// 嵌套仓库的 Commit 通常不在本仓库的存储里，不去查询
	if kind == core.EntryCommit {
		return Metadata{}, notFound("metadata", path)
	}
	typ, err := c.repo.ObjectType(ctx, hash)
	if err != nil {
		return Metadata{}, err
	}
	switch typ {
	case core.TypeFileNode:
		size, err := c.repo.ObjectSize(ctx, hash)
		if err != nil {
			return Metadata{}, err
		}
		return Metadata{Type: File, Len: size}, nil
	case core.TypeTree:
		return Metadata{Type: Directory}, nil
	default:
		return Metadata{}, notFound("metadata", path)
	}
}

// Exists 当且仅当路径能解析成功时为 true
func (c *CommitFS) Exists(ctx context.Context, path string) bool {
	_, _, err := c.resolve(ctx, "exists", path)
	return err == nil
}

func (c *CommitFS) CreateDir(ctx context.Context, path string) error { return ErrNotSupported }

func (c *CommitFS) CreateFile(ctx context.Context, path string) (io.WriteCloser, error) {
	return nil, ErrNotSupported
}

func (c *CommitFS) AppendFile(ctx context.Context, path string) (io.WriteCloser, error) {
	return nil, ErrNotSupported
}

func (c *CommitFS) RemoveFile(ctx context.Context, path string) error { return ErrNotSupported }

func (c *CommitFS) RemoveDir(ctx context.Context, path string) error { return ErrNotSupported }

func (c *CommitFS) CopyFile(ctx context.Context, from, to string) error { return ErrNotSupported }

func (c *CommitFS) MoveFile(ctx context.Context, from, to string) error { return ErrNotSupported }

func (c *CommitFS) MoveDir(ctx context.Context, from, to string) error { return ErrNotSupported }

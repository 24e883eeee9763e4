package core

import (
	"fmt"
	"time"

	"commitfs/pkg/types"
)

type Commit struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal ObjectType `cbor:"t"`

	TreeCid Link   `cbor:"th"`
	Parents []Link `cbor:"p"`

	Author  string `cbor:"a"`
	Message string `cbor:"m"`

	Timestamp int64 `cbor:"ts"`
}

func NewCommit(treeHash types.Hash, parents []types.Hash, author, msg string) (*Commit, error) {
	return NewCommitAt(treeHash, parents, author, msg, time.Now())
}

// NewCommitAt 使用指定时间创建 Commit (测试中用于构造确定的 Hash)
func NewCommitAt(treeHash types.Hash, parents []types.Hash, author, msg string, at time.Time) (*Commit, error) {
	parentLinks := make([]Link, len(parents))
	for i, p := range parents {
		parentLinks[i] = NewLink(p)
	}

	c := &Commit{
		TypeVal:   TypeCommit,
		TreeCid:   NewLink(treeHash),
		Parents:   parentLinks,
		Author:    author,
		Message:   msg,
		Timestamp: at.Unix(),
	}

	h, b, err := CalculateHash(c)
	if err != nil {
		return nil, err
	}
	c.hash = h
	c.rawBytes = b
	return c, nil
}

// DecodeCommit 从存储的字节还原 Commit，并校验类型
func DecodeCommit(data []byte) (*Commit, error) {
	var c Commit
	if err := DecodeObject(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode commit: %w", err)
	}
	if c.TypeVal != TypeCommit {
		return nil, fmt.Errorf("%w: want %s, got %q", ErrTypeMismatch, TypeCommit, c.TypeVal)
	}
	c.hash = CalculateBlobHash(data)
	c.rawBytes = data
	return &c, nil
}

func (c *Commit) Type() ObjectType { return TypeCommit }
func (c *Commit) ID() types.Hash   { return c.hash }
func (c *Commit) Bytes() []byte    { return c.rawBytes }

// TreeHash 返回根目录树的引用
func (c *Commit) TreeHash() types.Hash { return c.TreeCid.Hash }

func (c *Commit) Time() time.Time { return time.Unix(c.Timestamp, 0) }

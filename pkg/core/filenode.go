package core

import (
	"fmt"

	"commitfs/pkg/types"
)

// ChunkLink 描述了 FileNode 对底层 Chunk 的引用
type ChunkLink struct {
	Cid  Link `cbor:"h"`
	Size int  `cbor:"s"` // 这个 Chunk 的大小
}

func NewChunkLink(c *Chunk) ChunkLink {
	return ChunkLink{Cid: NewLink(c.ID()), Size: len(c.Bytes())}
}

// FileNode 将散乱的 Chunk 组装成一个逻辑上的文件 (Blob)
type FileNode struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal   ObjectType  `cbor:"t"`  // 必须是 "filenode"
	TotalSize int64       `cbor:"ts"` // 文件总大小
	Chunks    []ChunkLink `cbor:"cs"` // 所有的切片引用 (有序)
}

// NewFileNode 创建一个新的文件索引节点
func NewFileNode(totalSize int64, chunks []ChunkLink) (*FileNode, error) {
	node := &FileNode{
		TypeVal:   TypeFileNode,
		TotalSize: totalSize,
		Chunks:    chunks,
	}
	h, b, err := CalculateHash(node)
	if err != nil {
		return nil, err
	}
	node.hash = h
	node.rawBytes = b
	return node, nil
}

// DecodeFileNode 从存储的字节还原 FileNode，并校验类型
func DecodeFileNode(data []byte) (*FileNode, error) {
	var node FileNode
	if err := DecodeObject(data, &node); err != nil {
		return nil, fmt.Errorf("failed to decode filenode: %w", err)
	}
	if node.TypeVal != TypeFileNode {
		return nil, fmt.Errorf("%w: want %s, got %q", ErrTypeMismatch, TypeFileNode, node.TypeVal)
	}
	node.hash = CalculateBlobHash(data)
	node.rawBytes = data
	return &node, nil
}

func (f *FileNode) Type() ObjectType { return TypeFileNode }
func (f *FileNode) ID() types.Hash   { return f.hash }
func (f *FileNode) Bytes() []byte    { return f.rawBytes }
func (f *FileNode) Size() int64      { return f.TotalSize }

// FileNodeBuilder 按顺序累积 Chunk，最后封装成 FileNode
type FileNodeBuilder struct {
	chunks []ChunkLink
	total  int64
}

func NewFileNodeBuilder() *FileNodeBuilder {
	return &FileNodeBuilder{}
}

func (b *FileNodeBuilder) Add(c *Chunk) {
	b.chunks = append(b.chunks, NewChunkLink(c))
	b.total += c.Size()
}

func (b *FileNodeBuilder) Build() (*FileNode, error) {
	return NewFileNode(b.total, b.chunks)
}

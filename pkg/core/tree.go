package core

import (
	"fmt"

	"commitfs/pkg/types"
)

type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
	// EntryCommit 指向另一个仓库的 Commit (类似 git submodule)
	EntryCommit EntryType = "commit"
)

type TreeEntry struct {
	Name string    `cbor:"n"`
	Type EntryType `cbor:"t"`
	Cid  Link      `cbor:"h"`
	Size int64     `cbor:"s"`
}

// Tree 是目录对象。Entries 的顺序即存储顺序，读取时不再排序。
type Tree struct {
	hash     types.Hash `cbor:"-"`
	rawBytes []byte     `cbor:"-"`

	TypeVal ObjectType  `cbor:"t"`
	Entries []TreeEntry `cbor:"e"`
}

// NewTree 创建一个新的目录树节点
func NewTree(entries []TreeEntry) (*Tree, error) {
	if entries == nil {
		entries = []TreeEntry{}
	}
	t := &Tree{
		TypeVal: TypeTree,
		Entries: entries,
	}
	h, b, err := CalculateHash(t)
	if err != nil {
		return nil, err
	}
	t.hash = h
	t.rawBytes = b
	return t, nil
}

// DecodeTree 从存储的字节还原 Tree，并校验类型
func DecodeTree(data []byte) (*Tree, error) {
	var t Tree
	if err := DecodeObject(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode tree: %w", err)
	}
	if t.TypeVal != TypeTree {
		return nil, fmt.Errorf("%w: want %s, got %q", ErrTypeMismatch, TypeTree, t.TypeVal)
	}
	t.hash = CalculateBlobHash(data)
	t.rawBytes = data
	return &t, nil
}

func NewFileEntry(name string, hash types.Hash, size int64) TreeEntry {
	return TreeEntry{Name: name, Type: EntryFile, Cid: NewLink(hash), Size: size}
}

func NewDirEntry(name string, hash types.Hash) TreeEntry {
	return TreeEntry{Name: name, Type: EntryDir, Cid: NewLink(hash)}
}

func NewCommitEntry(name string, hash types.Hash) TreeEntry {
	return TreeEntry{Name: name, Type: EntryCommit, Cid: NewLink(hash)}
}

// NewTreeEntryFromObject 自动根据子对象生成条目
func NewTreeEntryFromObject(name string, child Object) (TreeEntry, error) {
	switch n := child.(type) {
	case *FileNode:
		return NewFileEntry(name, n.ID(), n.TotalSize), nil
	case *Tree:
		return NewDirEntry(name, n.ID()), nil
	case *Commit:
		return NewCommitEntry(name, n.ID()), nil
	default:
		return TreeEntry{}, fmt.Errorf("unsupported object type: %s", child.Type())
	}
}

// Entry 按名字精确查找条目。名字在同一层内唯一，重复时取第一个。
func (t *Tree) Entry(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

func (t *Tree) Type() ObjectType { return TypeTree }
func (t *Tree) ID() types.Hash   { return t.hash }
func (t *Tree) Bytes() []byte    { return t.rawBytes }

package treebuilder

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"commitfs/pkg/core"
	"commitfs/pkg/storage"
	"commitfs/pkg/types"
)

// Entry 是一个已入库的文件: 相对路径 + FileNode Hash
type Entry struct {
	Path string // 以 "/" 分隔的相对路径，例如 "data/model.bin"
	Hash types.Hash
	Size int64
}

// Builder 负责将文件清单转换为 Merkle Tree
type Builder struct {
	store storage.Store
}

func NewBuilder(store storage.Store) *Builder {
	return &Builder{store: store}
}

// Build 执行构建过程，返回根树的 Hash。
// 每一层的条目都按名字排序写入，相同内容总是得到相同的 Hash。
func (b *Builder) Build(ctx context.Context, files []Entry) (types.Hash, error) {
	// 1. 构建内存中的目录树结构
	root := newDirNode("")
	for _, f := range files {
		if err := root.addFile(f); err != nil {
			return "", err
		}
	}
	// 2. 自底向上计算 Hash 并持久化
	return b.writeNode(ctx, root)
}

type node struct {
	name     string
	isDir    bool
	children map[string]*node // 子节点 (仅目录有效)
	entry    Entry            // 文件元数据 (仅文件有效)
}

func newDirNode(name string) *node {
	return &node{
		name:     name,
		isDir:    true,
		children: make(map[string]*node),
	}
}

// addFile 将一个文件路径插入到内存树中
// 例如 path="a/b/c.txt" -> 递归创建 a, b, 然后在 b 下创建 c.txt
func (n *node) addFile(e Entry) error {
	clean := strings.Trim(path.Clean("/"+e.Path), "/")
	if clean == "" || clean == "." {
		return fmt.Errorf("invalid file path %q", e.Path)
	}
	parts := strings.Split(clean, "/")
	current := n

	for _, part := range parts[:len(parts)-1] {
		child, exists := current.children[part]
		if !exists {
			child = newDirNode(part)
			current.children[part] = child
		}
		if !child.isDir {
			return fmt.Errorf("path conflict: %q is both a file and a directory", part)
		}
		current = child
	}

	fileName := parts[len(parts)-1]
	if existing, ok := current.children[fileName]; ok && existing.isDir {
		return fmt.Errorf("path conflict: %q is both a file and a directory", clean)
	}
	current.children[fileName] = &node{name: fileName, entry: e}
	return nil
}

// writeNode 递归地将内存节点转换为 core.Tree 并写入存储
func (b *Builder) writeNode(ctx context.Context, n *node) (types.Hash, error) {
	// 文件直接返回它的 FileNode Hash
	if !n.isDir {
		return n.entry.Hash, nil
	}

	childNames := make([]string, 0, len(n.children))
	for name := range n.children {
		childNames = append(childNames, name)
	}
	sort.Strings(childNames)

	entries := make([]core.TreeEntry, 0, len(childNames))
	for _, name := range childNames {
		child := n.children[name]

		childHash, err := b.writeNode(ctx, child)
		if err != nil {
			return "", err
		}

		// 目录 Size 为 0，文件 Size 取自清单
		if child.isDir {
			entries = append(entries, core.NewDirEntry(name, childHash))
		} else {
			entries = append(entries, core.NewFileEntry(name, childHash, child.entry.Size))
		}
	}

	treeObj, err := core.NewTree(entries)
	if err != nil {
		return "", fmt.Errorf("failed to create tree object: %w", err)
	}
	if err := b.store.Put(ctx, treeObj); err != nil {
		return "", fmt.Errorf("failed to store tree: %w", err)
	}
	return treeObj.ID(), nil
}

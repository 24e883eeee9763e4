// Package repotest 提供在测试中构造对象库的辅助函数
package repotest

import (
	"context"
	"strings"
	"testing"
	"time"

	"commitfs/pkg/core"
	"commitfs/pkg/repository"
	"commitfs/pkg/storage"
	"commitfs/pkg/storage/disk"
	"commitfs/pkg/types"

	"github.com/stretchr/testify/require"
)

// FixedTime 让测试中的 Commit Hash 保持稳定
var FixedTime = time.Unix(1700000000, 0)

// ForeignCommit 是另一个仓库的 Commit，本地存储里没有它
var ForeignCommit = types.Hash(strings.Repeat("ab", 32))

// NewDiskStore 在临时目录中创建磁盘对象库，返回 store 和其目录
func NewDiskStore(t testing.TB, opts ...disk.Option) (*disk.Adapter, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := disk.NewAdapter(dir, opts...)
	require.NoError(t, err)
	return store, dir
}

func mustPut(t testing.TB, store storage.Store, obj core.Object) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), obj))
}

// File 把每个 part 存成一个 Chunk，返回组装好的 FileNode
func File(t testing.TB, store storage.Store, parts ...[]byte) *core.FileNode {
	t.Helper()
	b := core.NewFileNodeBuilder()
	for _, p := range parts {
		c := core.NewChunk(p)
		mustPut(t, store, c)
		b.Add(c)
	}
	node, err := b.Build()
	require.NoError(t, err)
	mustPut(t, store, node)
	return node
}

// Tree 按给定顺序存储目录项
func Tree(t testing.TB, store storage.Store, entries ...core.TreeEntry) *core.Tree {
	t.Helper()
	tree, err := core.NewTree(entries)
	require.NoError(t, err)
	mustPut(t, store, tree)
	return tree
}

// Commit 以 FixedTime 创建并存储 Commit
func Commit(t testing.TB, store storage.Store, tree *core.Tree, parents ...types.Hash) *core.Commit {
	t.Helper()
	c, err := core.NewCommitAt(tree.ID(), parents, "tester", "test commit", FixedTime)
	require.NoError(t, err)
	mustPut(t, store, c)
	return c
}

// FileEntry 生成指向 node 的文件条目
func FileEntry(name string, node *core.FileNode) core.TreeEntry {
	return core.NewFileEntry(name, node.ID(), node.TotalSize)
}

// DirEntry 生成指向 tree 的目录条目
func DirEntry(name string, tree *core.Tree) core.TreeEntry {
	return core.NewDirEntry(name, tree.ID())
}

// Sample 是上层包 (导出、挂载、HTTP) 共用的小仓库:
//
//	README          Readme
//	src/main.x      两个 Chunk，内容为 Main
//	vendor          嵌套仓库 (Commit 条目，指向的 Commit 不在本仓库)
type Sample struct {
	Store  *disk.Adapter
	Dir    string
	Repo   *repository.Repository
	Commit *core.Commit
	Readme []byte
	Main   []byte
}

func NewSample(t testing.TB) *Sample {
	t.Helper()
	store, dir := NewDiskStore(t)

	readme := []byte("# sample\n")
	mainParts := [][]byte{[]byte("fn main() {\n"), []byte("    run()\n}\n")}

	src := Tree(t, store, FileEntry("main.x", File(t, store, mainParts...)))
	root := Tree(t, store,
		FileEntry("README", File(t, store, readme)),
		DirEntry("src", src),
		core.NewCommitEntry("vendor", ForeignCommit),
	)
	commit := Commit(t, store, root)

	return &Sample{
		Store:  store,
		Dir:    dir,
		Repo:   repository.New(store),
		Commit: commit,
		Readme: readme,
		Main:   append(append([]byte(nil), mainParts[0]...), mainParts[1]...),
	}
}

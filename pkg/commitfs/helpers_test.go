package commitfs

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"commitfs/pkg/core"
	"commitfs/pkg/repository"
	"commitfs/pkg/repository/repotest"
	"commitfs/pkg/storage/disk"
	"commitfs/pkg/types"

	"github.com/stretchr/testify/require"
)

var readme = []byte("# commitfs\na read-only view of one commit\n") // 42 字节

// fixture 是测试用的仓库:
//
//	README          42 字节
//	src/main.x      两个 Chunk
//	vendor          嵌套仓库 (Commit 条目)
//
// 根目录条目故意不按名字排序，用来验证读取顺序等于存储顺序。
type fixture struct {
	dir    string
	store  *disk.Adapter
	repo   *repository.Repository
	commit *core.Commit
	main   *core.FileNode
	fs     *CommitFS
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	require.Len(t, readme, 42)

	store, dir := repotest.NewDiskStore(t)

	sub := repotest.Commit(t, store, repotest.Tree(t, store))

	readmeNode := repotest.File(t, store, readme)
	mainNode := repotest.File(t, store, []byte("fn main() {\n"), []byte("    run()\n}\n"))
	src := repotest.Tree(t, store, repotest.FileEntry("main.x", mainNode))

	root := repotest.Tree(t, store,
		repotest.FileEntry("README", readmeNode),
		repotest.DirEntry("src", src),
		core.NewCommitEntry("vendor", sub.ID()),
	)
	commit := repotest.Commit(t, store, root)

	repo := repository.New(store)
	cfs, err := New(context.Background(), repo, types.CommitHash(commit.ID()))
	require.NoError(t, err)

	return &fixture{dir: dir, store: store, repo: repo, commit: commit, main: mainNode, fs: cfs}
}

func mustReadDir(t *testing.T, c *CommitFS, p string) []string {
	t.Helper()
	seq, err := c.ReadDir(context.Background(), p)
	require.NoError(t, err)
	return slices.Collect(seq)
}

// snapshotDir 记录目录下所有文件的内容，用来断言“没有任何副作用”
func snapshotDir(t *testing.T, root string) map[string][]byte {
	t.Helper()
	out := map[string][]byte{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		if d.IsDir() {
			out[rel+"/"] = nil
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[rel] = bytes.Clone(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

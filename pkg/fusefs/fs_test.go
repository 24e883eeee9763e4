package fusefs

import (
	"context"
	"io"
	"os"
	"syscall"
	"testing"

	"commitfs/pkg/commitfs"
	"commitfs/pkg/repository"
	"commitfs/pkg/repository/repotest"
	"commitfs/pkg/storage"
	"commitfs/pkg/types"

	"bazil.org/fuse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) (*repotest.Sample, *FS) {
	t.Helper()
	s := repotest.NewSample(t)
	cfs, err := commitfs.New(context.Background(), s.Repo, types.CommitHash(s.Commit.ID()))
	require.NoError(t, err)
	return s, New(cfs)
}

func rootDir(t *testing.T, f *FS) *Dir {
	t.Helper()
	n, err := f.Root()
	require.NoError(t, err)
	return n.(*Dir)
}

func TestDir_ReadDirAll(t *testing.T) {
	_, f := newTestFS(t)
	ents, err := rootDir(t, f).ReadDirAll(context.Background())
	require.NoError(t, err)

	// 嵌套仓库 vendor 不出现
	assert.Equal(t, []fuse.Dirent{
		{Name: "README", Type: fuse.DT_File},
		{Name: "src", Type: fuse.DT_Dir},
	}, ents)
}

func TestDir_Lookup(t *testing.T) {
	ctx := context.Background()
	s, f := newTestFS(t)
	root := rootDir(t, f)

	n, err := root.Lookup(ctx, "README")
	require.NoError(t, err)
	file, ok := n.(*File)
	require.True(t, ok)

	var a fuse.Attr
	require.NoError(t, file.Attr(ctx, &a))
	assert.EqualValues(t, len(s.Readme), a.Size)
	assert.Equal(t, os.FileMode(0o444), a.Mode)
	assert.Equal(t, s.Commit.Time(), a.Mtime)

	n, err = root.Lookup(ctx, "src")
	require.NoError(t, err)
	dir, ok := n.(*Dir)
	require.True(t, ok)
	require.NoError(t, dir.Attr(ctx, &a))
	assert.True(t, a.Mode.IsDir())

	_, err = root.Lookup(ctx, "missing")
	assert.Equal(t, syscall.ENOENT, err)

	_, err = root.Lookup(ctx, "vendor")
	assert.Equal(t, syscall.ENOENT, err)
}

func TestFile_OpenRead(t *testing.T) {
	ctx := context.Background()
	s, f := newTestFS(t)

	n, err := rootDir(t, f).Lookup(ctx, "src")
	require.NoError(t, err)
	n, err = n.(*Dir).Lookup(ctx, "main.x")
	require.NoError(t, err)
	file := n.(*File)

	_, err = file.Open(ctx, &fuse.OpenRequest{Flags: fuse.OpenReadWrite}, &fuse.OpenResponse{})
	assert.Equal(t, fuse.Errno(syscall.EROFS), err)

	resp := &fuse.OpenResponse{}
	hn, err := file.Open(ctx, &fuse.OpenRequest{Flags: fuse.OpenReadOnly}, resp)
	require.NoError(t, err)
	assert.NotZero(t, resp.Flags&fuse.OpenKeepCache)
	h := hn.(*handle)

	read := func(off int64, size int) string {
		t.Helper()
		r := &fuse.ReadResponse{}
		require.NoError(t, h.Read(ctx, &fuse.ReadRequest{Offset: off, Size: size}, r))
		return string(r.Data)
	}

	// 顺序读，跨越 Chunk 边界
	assert.Equal(t, string(s.Main[:8]), read(0, 8))
	assert.Equal(t, string(s.Main[8:16]), read(8, 8))
	// 向前跳
	assert.Equal(t, string(s.Main[20:]), read(20, 100))
	// 向后跳会重新打开
	assert.Equal(t, string(s.Main[2:5]), read(2, 3))
	// 超过末尾
	assert.Empty(t, read(int64(len(s.Main)), 10))

	require.NoError(t, h.Release(ctx, &fuse.ReleaseRequest{}))
}

// ctxStore 像远程存储一样，在 ctx 取消后拒绝读取
type ctxStore struct {
	storage.Store
}

func (s ctxStore) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Store.Get(ctx, hash)
}

// 每个内核请求的 ctx 在请求返回后都会被取消，流必须仍能读到后续 Chunk
func TestHandle_ReadsOutliveRequestContext(t *testing.T) {
	s := repotest.NewSample(t)
	repo := repository.New(ctxStore{Store: s.Store})
	cfs, err := commitfs.New(context.Background(), repo, types.CommitHash(s.Commit.ID()))
	require.NoError(t, err)

	request := func() context.Context {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(cancel)
		return ctx
	}

	ctx := request()
	n, err := rootDir(t, New(cfs)).Lookup(ctx, "src")
	require.NoError(t, err)
	n, err = n.(*Dir).Lookup(ctx, "main.x")
	require.NoError(t, err)
	hn, err := n.(*File).Open(ctx, &fuse.OpenRequest{Flags: fuse.OpenReadOnly}, &fuse.OpenResponse{})
	require.NoError(t, err)
	h := hn.(*handle)

	read := func(off int64, size int) string {
		t.Helper()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r := &fuse.ReadResponse{}
		require.NoError(t, h.Read(ctx, &fuse.ReadRequest{Offset: off, Size: size}, r))
		return string(r.Data)
	}

	// 第一个 Chunk 12 字节，第二次读取需要拉取第二个 Chunk
	assert.Equal(t, string(s.Main[:4]), read(0, 4))
	assert.Equal(t, string(s.Main[4:]), read(4, 100))

	require.NoError(t, h.Release(request(), &fuse.ReleaseRequest{}))
	assert.Error(t, h.ctx.Err(), "Release 后句柄的 ctx 被取消")
}

func TestHandle_CanceledRequest(t *testing.T) {
	s, f := newTestFS(t)
	ctx := context.Background()
	n, err := rootDir(t, f).Lookup(ctx, "README")
	require.NoError(t, err)
	hn, err := n.(*File).Open(ctx, &fuse.OpenRequest{Flags: fuse.OpenReadOnly}, &fuse.OpenResponse{})
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err = hn.(*handle).Read(canceled, &fuse.ReadRequest{Offset: 0, Size: len(s.Readme)}, &fuse.ReadResponse{})
	assert.Equal(t, syscall.EINTR, err)
}

func TestToErrno(t *testing.T) {
	assert.NoError(t, toErrno(nil))
	assert.Equal(t, syscall.ENOENT, toErrno(commitfs.ErrNotFound))
	assert.Equal(t, syscall.EINVAL, toErrno(commitfs.ErrInvalidData))
	assert.Equal(t, syscall.EIO, toErrno(os.ErrPermission))
}

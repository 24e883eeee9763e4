// Package fusefs 把一个提交以只读 FUSE 文件系统的形式挂载出来
package fusefs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"commitfs/pkg/commitfs"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
)

// FS 实现 fs.FS。所有节点共享同一个 CommitFS。
type FS struct {
	cfs   *commitfs.CommitFS
	mtime time.Time
}

var (
	_ fs.FS = (*FS)(nil)

	_ fs.Node               = (*Dir)(nil)
	_ fs.NodeStringLookuper = (*Dir)(nil)
	_ fs.HandleReadDirAller = (*Dir)(nil)

	_ fs.Node           = (*File)(nil)
	_ fs.NodeOpener     = (*File)(nil)
	_ fs.HandleReader   = (*handle)(nil)
	_ fs.HandleReleaser = (*handle)(nil)
)

// New 包装一个 CommitFS。所有节点的时间戳都是提交时间。
func New(cfs *commitfs.CommitFS) *FS {
	return &FS{cfs: cfs, mtime: cfs.Commit().Time()}
}

func (f *FS) Root() (fs.Node, error) {
	return &Dir{fs: f, path: ""}, nil
}

// Mount 挂载并阻塞直到 ctx 结束或内核卸载
func Mount(ctx context.Context, cfs *commitfs.CommitFS, mountpoint string) error {
	c, err := fuse.Mount(
		mountpoint,
		fuse.FSName("commitfs"),
		fuse.Subtype("cfs"),
		fuse.ReadOnly(),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	go func() {
		<-ctx.Done()
		if err := fuse.Unmount(mountpoint); err != nil {
			slog.Warn("unmount failed", slog.String("mountpoint", mountpoint), slog.Any("err", err))
		}
	}()

	slog.Info("mounted", slog.String("commit", cfs.Commit().ID().String()), slog.String("mountpoint", mountpoint))
	return fs.Serve(c, New(cfs))
}

// toErrno 把门面层错误映射为内核能理解的错误码
func toErrno(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, commitfs.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, commitfs.ErrInvalidData):
		return syscall.EINVAL
	case errors.Is(err, context.Canceled):
		return syscall.EINTR
	default:
		slog.Error("fuse request failed", slog.Any("err", err))
		return syscall.EIO
	}
}

func (f *FS) setTimes(a *fuse.Attr) {
	a.Mtime = f.mtime
	a.Ctime = f.mtime
	a.Atime = f.mtime
}

// Dir 是目录节点。path 形如 "/src"，根目录为 ""。
type Dir struct {
	fs   *FS
	path string
}

func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0o555
	d.fs.setTimes(a)
	return nil
}

func (d *Dir) child(ctx context.Context, name string) (fs.Node, error) {
	p := d.path + "/" + name
	md, err := d.fs.cfs.Metadata(ctx, p)
	if err != nil {
		return nil, err
	}
	if md.IsDir() {
		return &Dir{fs: d.fs, path: p}, nil
	}
	return &File{fs: d.fs, path: p, size: md.Len}, nil
}

func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	n, err := d.child(ctx, name)
	return n, toErrno(err)
}

// ReadDirAll 按存储顺序列出目录。嵌套仓库没有元数据，不出现在列表中。
func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	names, err := d.fs.cfs.ReadDir(ctx, d.path)
	if err != nil {
		return nil, toErrno(err)
	}
	var dirents []fuse.Dirent
	for name := range names {
		md, err := d.fs.cfs.Metadata(ctx, d.path+"/"+name)
		if errors.Is(err, commitfs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, toErrno(err)
		}
		typ := fuse.DT_File
		if md.IsDir() {
			typ = fuse.DT_Dir
		}
		dirents = append(dirents, fuse.Dirent{Name: name, Type: typ})
	}
	return dirents, nil
}

// File 是文件节点
type File struct {
	fs   *FS
	path string
	size uint64
}

func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = 0o444
	a.Size = f.size
	f.fs.setTimes(a)
	return nil
}

func (f *File) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fs.Handle, error) {
	if !req.Flags.IsReadOnly() {
		return nil, fuse.Errno(syscall.EROFS)
	}
	// 内容不可变，允许内核缓存
	resp.Flags |= fuse.OpenKeepCache

	// 请求结束时 ctx 就会被取消，而流要跨多个读请求拉取 Chunk。
	// 流的生命周期跟随句柄，Release 时取消。
	hctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &handle{file: f, ctx: hctx, cancel: cancel}, nil
}

// handle 持有一个只进流。
// 内核的读请求通常是顺序的；向后跳时重新打开，向前跳时丢弃中间字节。
type handle struct {
	file   *File
	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	rc  commitfs.Handle
	off int64
}

func (h *handle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if req.Offset >= int64(h.file.size) {
		resp.Data = resp.Data[:0]
		return nil
	}
	if err := ctx.Err(); err != nil {
		return toErrno(err)
	}
	if h.rc == nil || req.Offset < h.off {
		if err := h.reopen(); err != nil {
			return toErrno(err)
		}
	}
	if skip := req.Offset - h.off; skip > 0 {
		n, err := io.CopyN(io.Discard, h.rc, skip)
		h.off += n
		if err != nil && err != io.EOF {
			return toErrno(err)
		}
	}

	buf := make([]byte, req.Size)
	n, err := io.ReadFull(h.rc, buf)
	h.off += int64(n)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return toErrno(err)
	}
	resp.Data = buf[:n]
	return nil
}

func (h *handle) reopen() error {
	if h.rc != nil {
		h.rc.Close()
		h.rc = nil
	}
	rc, err := h.file.fs.cfs.OpenFile(h.ctx, h.file.path)
	if err != nil {
		return err
	}
	h.rc = rc
	h.off = 0
	return nil
}

func (h *handle) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	defer h.cancel()
	if h.rc != nil {
		err := h.rc.Close()
		h.rc = nil
		return err
	}
	return nil
}

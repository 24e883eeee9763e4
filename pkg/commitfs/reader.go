package commitfs

import "io"

// Handle 是 OpenFile 返回的只读文件句柄
type Handle interface {
	io.Reader
	io.Seeker
	io.Closer
}

var _ Handle = (*noSeekFile)(nil)

// noSeekFile 让只进流满足 io.Seeker。
// Seek 总是失败，包括 Seek(0, io.SeekCurrent)。
type noSeekFile struct {
	rc io.ReadCloser
}

func (f *noSeekFile) Read(p []byte) (int, error) { return f.rc.Read(p) }

func (f *noSeekFile) Close() error { return f.rc.Close() }

func (f *noSeekFile) Seek(offset int64, whence int) (int64, error) {
	return 0, ErrSeekNotSupported
}

package remote

import (
	"context"
	"io"

	"commitfs/pkg/api/objectrpc"
)

// frameStream 是 Get 流所需的最小集合，方便测试 Mock
type frameStream interface {
	Recv() (*objectrpc.GetResponse, error)
}

// streamReader 将下载流包装为 io.ReadCloser
type streamReader struct {
	stream frameStream
	cancel context.CancelFunc
	buf    []byte // 从 Recv 拿到、还没被 Read 读走的数据
	err    error
}

func newStreamReader(stream frameStream, cancel context.CancelFunc) *streamReader {
	return &streamReader{stream: stream, cancel: cancel}
}

func (r *streamReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		resp, err := r.stream.Recv()
		if err != nil {
			if err != io.EOF {
				err = fromStatus(err)
			}
			r.err = err
			return 0, err
		}
		// 空帧直接跳过
		r.buf = resp.Data
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// Close 取消流，服务端会看到 Canceled
func (r *streamReader) Close() error {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.err == nil {
		r.err = io.ErrClosedPipe
	}
	r.buf = nil
	return nil
}

package repository

import (
	"context"
	"fmt"
	"io"

	"commitfs/pkg/core"
	"commitfs/pkg/storage"
	"commitfs/pkg/types"
)

// BlobReader 返回文件内容的只进流。
// Chunk 按需逐个拉取、边读边解压，任何时刻最多持有一个 Chunk 的句柄。
func (r *Repository) BlobReader(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	node, err := r.FileNode(ctx, hash)
	if err != nil {
		return nil, err
	}
	return &blobReader{ctx: ctx, store: r.store, chunks: node.Chunks}, nil
}

type blobReader struct {
	ctx    context.Context
	store  storage.Store
	chunks []core.ChunkLink

	idx  int           // 下一个要打开的 Chunk
	cur  io.ReadCloser // 当前 Chunk
	read int           // 当前 Chunk 已读字节数
	err  error         // 粘滞错误
}

func (b *blobReader) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	for {
		if b.cur == nil {
			if b.idx >= len(b.chunks) {
				return 0, io.EOF
			}
			link := b.chunks[b.idx]
			rc, err := b.store.Get(b.ctx, link.Cid.Hash)
			if err != nil {
				b.err = fmt.Errorf("failed to get chunk %d: %w", b.idx, err)
				return 0, b.err
			}
			b.cur = rc
			b.read = 0
			b.idx++
		}

		n, err := b.cur.Read(p)
		b.read += n
		if err == io.EOF {
			want := b.chunks[b.idx-1].Size
			b.cur.Close()
			b.cur = nil
			if b.read != want {
				b.err = fmt.Errorf("%w: chunk %d has %d bytes, want %d", ErrCorruptObject, b.idx-1, b.read, want)
				return n, b.err
			}
			if n > 0 {
				return n, nil
			}
			continue
		}
		if err != nil {
			b.err = err
		}
		return n, err
	}
}

func (b *blobReader) Close() error {
	if b.cur != nil {
		err := b.cur.Close()
		b.cur = nil
		return err
	}
	return nil
}

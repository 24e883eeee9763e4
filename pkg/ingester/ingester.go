package ingester

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"commitfs/pkg/chunker"
	"commitfs/pkg/core"
	"commitfs/pkg/ignore"
	"commitfs/pkg/storage"
	"commitfs/pkg/treebuilder"

	"golang.org/x/sync/errgroup"
)

// 每次从文件读取的字节数，远大于 chunker.MaxSize
const readBufferSize = 1 << 20

type Ingester struct {
	store       storage.Store
	chunker     *chunker.Chunker
	concurrency int
}

func NewIngester(store storage.Store) *Ingester {
	return &Ingester{
		store:       store,
		chunker:     chunker.NewChunker(),
		concurrency: runtime.NumCPU() * 2,
	}
}

// IngestFile 流式读取文件，切分并并发上传 Chunk，最后存储 FileNode。
// 内存占用与文件大小无关，只与 readBufferSize 和并发数有关。
func (ing *Ingester) IngestFile(ctx context.Context, reader io.Reader) (*core.FileNode, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ing.concurrency)

	builder := core.NewFileNodeBuilder()
	var pending []byte // 上一轮未确定切点的尾部

	for eof := false; !eof; {
		buf := make([]byte, len(pending)+readBufferSize)
		copy(buf, pending)
		n, err := io.ReadFull(reader, buf[len(pending):])
		switch {
		case err == io.EOF || err == io.ErrUnexpectedEOF:
			eof = true
		case err != nil:
			_ = g.Wait()
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		data := buf[:len(pending)+n]

		// 最后一个切点依赖于缓冲区末尾，未到 EOF 时留到下一轮
		cuts := ing.chunker.Cut(data)
		if !eof && len(cuts) > 0 {
			cuts = cuts[:len(cuts)-1]
		}

		start := 0
		for _, end := range cuts {
			chunk := core.NewChunk(data[start:end])
			builder.Add(chunk) // 顺序在主 goroutine 中确定
			g.Go(func() error {
				if err := ing.store.Put(gctx, chunk); err != nil {
					return fmt.Errorf("failed to store chunk: %w", err)
				}
				return nil
			})
			start = end
		}
		pending = data[start:]

		if gctx.Err() != nil {
			break
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fileNode, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create file node: %w", err)
	}
	if err := ing.store.Put(ctx, fileNode); err != nil {
		return nil, fmt.Errorf("failed to store file node: %w", err)
	}
	return fileNode, nil
}

// IngestPath 入库单个文件
func (ing *Ingester) IngestPath(ctx context.Context, path string) (*core.FileNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ing.IngestFile(ctx, f)
}

// Progress 在每个文件入库后被调用
type Progress func(rel string, node *core.FileNode)

// IngestDir 遍历目录，跳过 matcher 命中的路径，返回构建目录树所需的清单。
// 符号链接和其他特殊文件不入库。
func (ing *Ingester) IngestDir(ctx context.Context, root string, matcher *ignore.Matcher, progress Progress) ([]treebuilder.Entry, error) {
	var entries []treebuilder.Entry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if matcher != nil && matcher.Skip(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		node, err := ing.IngestPath(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", rel, err)
		}
		entries = append(entries, treebuilder.Entry{Path: rel, Hash: node.ID(), Size: node.TotalSize})
		if progress != nil {
			progress(rel, node)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk failed: %w", err)
	}
	return entries, nil
}

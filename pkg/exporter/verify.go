package exporter

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"

	"commitfs/pkg/commitfs"

	"github.com/sourcegraph/conc/pool"
)

// Report 汇总一次完整校验的结果
type Report struct {
	Files   int64
	Dirs    int64
	Bytes   int64
	Skipped []string // 无法描述的目录项 (嵌套仓库)
}

// Verify 读取提交中的每个文件，确认读出的字节数等于元数据中的长度。
// 目录遍历是串行的，文件读取交给 workers 个 goroutine 并发执行。
// 任一文件失败会取消其余工作。
func Verify(ctx context.Context, fsys commitfs.FileSystem, workers int) (*Report, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var (
		report      Report
		files, dirs atomic.Int64
		total       atomic.Int64
	)

	// 任一文件失败时同时停止遍历，不再继续排队注定被取消的任务
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := pool.New().WithMaxGoroutines(workers).WithContext(wctx).WithCancelOnError()

	walkErr := walk(wctx, fsys, "", func(path string, md commitfs.Metadata) error {
		if md.IsDir() {
			dirs.Add(1)
			return nil
		}
		p.Go(func(ctx context.Context) error {
			n, err := readLen(ctx, fsys, path)
			if err == nil && uint64(n) != md.Len {
				err = fmt.Errorf("%s: %w (read %d, want %d)", path, ErrLengthMismatch, n, md.Len)
			}
			if err != nil {
				cancel()
				return err
			}
			files.Add(1)
			total.Add(n)
			return nil
		})
		return nil
	}, func(path string) {
		report.Skipped = append(report.Skipped, path)
	})

	// 即便遍历失败也要等已提交的任务结束。
	// 任务的错误优先，遍历此时多半只是因取消而退出。
	if err := p.Wait(); err != nil {
		return nil, err
	}
	if walkErr != nil {
		return nil, walkErr
	}

	report.Files = files.Load()
	report.Dirs = dirs.Load()
	report.Bytes = total.Load()
	return &report, nil
}

func readLen(ctx context.Context, fsys commitfs.FileSystem, path string) (int64, error) {
	f, err := fsys.OpenFile(ctx, path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	n, err := io.Copy(io.Discard, f)
	if err != nil {
		return n, fmt.Errorf("read %s: %w", path, err)
	}
	return n, nil
}

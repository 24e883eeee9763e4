package repository

import (
	"context"
	"fmt"
	"os"

	"commitfs/pkg/storage/disk"
)

// Source 描述“从哪里得到仓库”：
// 已打开的 *Repository 直接共享，Path 则按磁盘对象库打开。
type Source interface {
	Open(ctx context.Context) (*Repository, error)
}

// Path 是磁盘对象库的目录 (例如 .cfs/objects)
type Path string

// Open 以只读方式使用已有目录，不会创建它
func (p Path) Open(ctx context.Context) (*Repository, error) {
	info, err := os.Stat(string(p))
	if err != nil {
		return nil, fmt.Errorf("open repository %q: %w", string(p), err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open repository %q: not a directory", string(p))
	}
	store, err := disk.NewAdapter(string(p))
	if err != nil {
		return nil, fmt.Errorf("open repository %q: %w", string(p), err)
	}
	return New(store), nil
}

package exporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"commitfs/pkg/commitfs"
)

// RestoreCallback 每写出一个文件调用一次
type RestoreCallback func(path string, size uint64)

// Export 通过只读文件系统把整个提交还原到 targetDir。
// 嵌套仓库被跳过。已存在的文件会被覆盖。
func Export(ctx context.Context, fsys commitfs.FileSystem, targetDir string, onRestore RestoreCallback) error {
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("failed to create dir %s: %w", targetDir, err)
	}
	return walk(ctx, fsys, "", func(p string, md commitfs.Metadata) error {
		local, err := localPath(targetDir, p)
		if err != nil {
			return err
		}
		if md.IsDir() {
			if err := os.MkdirAll(local, 0755); err != nil {
				return fmt.Errorf("failed to create dir %s: %w", local, err)
			}
			return nil
		}
		if err := exportFile(ctx, fsys, p, md, local); err != nil {
			return err
		}
		if onRestore != nil {
			onRestore(p, md.Len)
		}
		return nil
	}, nil)
}

// localPath 把仓库路径映射到 targetDir 下，拒绝逃逸出目标目录的名字
func localPath(targetDir, p string) (string, error) {
	for _, name := range strings.Split(strings.TrimPrefix(p, "/"), "/") {
		if name == "." || name == ".." {
			return "", &os.PathError{Op: "export", Path: p, Err: commitfs.ErrInvalidData}
		}
	}
	return filepath.Join(targetDir, filepath.FromSlash(p)), nil
}

func exportFile(ctx context.Context, fsys commitfs.FileSystem, p string, md commitfs.Metadata, local string) error {
	src, err := fsys.OpenFile(ctx, p)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", local, err)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", local, err)
	}
	if uint64(n) != md.Len {
		return fmt.Errorf("%s: %w (read %d, want %d)", p, ErrLengthMismatch, n, md.Len)
	}
	return nil
}

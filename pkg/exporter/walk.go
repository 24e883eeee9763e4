package exporter

import (
	"context"
	"errors"
	"io/fs"
	"strings"

	"commitfs/pkg/commitfs"
)

// VisitFunc 对遍历到的每个文件或目录调用一次。
// path 形如 "/src/main.x"，根目录为 ""。
type VisitFunc func(path string, md commitfs.Metadata) error

// SkipFunc 对无法描述的目录项调用 (嵌套仓库)
type SkipFunc func(path string)

func joinPath(dir, name string) string {
	return dir + "/" + name
}

// walk 以存储顺序深度优先遍历 dir 下的所有节点 (不含 dir 本身)
func walk(ctx context.Context, fsys commitfs.FileSystem, dir string, visit VisitFunc, skip SkipFunc) error {
	names, err := fsys.ReadDir(ctx, dir)
	if err != nil {
		return err
	}
	for name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := joinPath(dir, name)
		if name == "" || strings.ContainsAny(name, `/\`) {
			// 这样的名字会被路径解析拆开，无法单独定位
			return &fs.PathError{Op: "walk", Path: p, Err: commitfs.ErrInvalidData}
		}
		md, err := fsys.Metadata(ctx, p)
		if errors.Is(err, commitfs.ErrNotFound) {
			// 名字来自 ReadDir 却解析不出元数据：嵌套仓库
			if skip != nil {
				skip(p)
			}
			continue
		}
		if err != nil {
			return err
		}
		if err := visit(p, md); err != nil {
			return err
		}
		if md.IsDir() {
			if err := walk(ctx, fsys, p, visit, skip); err != nil {
				return err
			}
		}
	}
	return nil
}

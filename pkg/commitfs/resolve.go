package commitfs

import (
	"context"
	"strings"

	"commitfs/pkg/core"
	"commitfs/pkg/types"
)

const separators = `/\`

// splitPath 去掉首尾分隔符后按 '/' 或 '\' 切分，返回 nil 表示根目录。
// 中间的空分量 (a//b) 原样保留。
func splitPath(p string) []string {
	trimmed := strings.Trim(p, separators)
	if trimmed == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(trimmed, `\`, "/"), "/")
}

// resolve 从根目录逐级查找，返回路径指向的对象 Hash 以及父目录中记录的条目类型。
// 根目录的条目类型为 core.EntryDir。
// 返回的 Hash 不带类型，对象的真实类型只能再向存储查询。
// 每次调用都重新遍历，不缓存任何中间结果。
func (c *CommitFS) resolve(ctx context.Context, op, p string) (types.Hash, core.EntryType, error) {
	cur, kind := c.root, core.EntryDir
	for _, name := range splitPath(p) {
		if name == "" {
			return "", "", notFound(op, p)
		}
		// 当前对象取不出 Tree (不存在、不是目录、数据损坏) 一律视为路径不存在
		tree, err := c.repo.Tree(ctx, cur)
		if err != nil {
			return "", "", notFound(op, p)
		}
		entry, ok := tree.Entry(name)
		if !ok {
			return "", "", notFound(op, p)
		}
		cur, kind = entry.Cid.Hash, entry.Type
	}
	return cur, kind, nil
}

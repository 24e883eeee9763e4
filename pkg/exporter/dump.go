package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"commitfs/pkg/commitfs"
)

// ErrLengthMismatch 表示读出的字节数与元数据记录的长度不符
var ErrLengthMismatch = errors.New("content length does not match metadata")

// Dump 把提交中的每个文件依次打印到 w：
// 路径、等长的 "=" 下划线、内容、三个空行。
func Dump(ctx context.Context, fsys commitfs.FileSystem, w io.Writer) error {
	return walk(ctx, fsys, "", func(p string, md commitfs.Metadata) error {
		if md.IsDir() {
			return nil
		}
		f, err := fsys.OpenFile(ctx, p)
		if err != nil {
			return err
		}
		defer f.Close()

		var body strings.Builder
		n, err := io.Copy(&body, f)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		if uint64(n) != md.Len {
			return fmt.Errorf("%s: %w (read %d, want %d)", p, ErrLengthMismatch, n, md.Len)
		}

		_, err = fmt.Fprintf(w, "%s\n%s\n%s\n\n\n\n", p, strings.Repeat("=", len(p)), body.String())
		return err
	}, nil)
}

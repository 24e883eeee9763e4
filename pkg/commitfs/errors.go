package commitfs

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound 路径无法解析，或目标不是文件/目录 (例如嵌套仓库)
	ErrNotFound = fmt.Errorf("commitfs: not found: %w", fs.ErrNotExist)

	// ErrNotSupported 所有写操作都返回它
	ErrNotSupported = fmt.Errorf("commitfs: read-only filesystem: %w", errors.ErrUnsupported)

	// ErrInvalidData 目录项名字不是合法的 UTF-8 文本
	ErrInvalidData = errors.New("commitfs: directory entry name is not valid text")

	// ErrSeekNotSupported 只进流上调用 Seek
	ErrSeekNotSupported = errors.New("seeking not supported on this stream")
)

func notFound(op, path string) error {
	return &fs.PathError{Op: op, Path: path, Err: ErrNotFound}
}

func invalidData(op, path string) error {
	return &fs.PathError{Op: op, Path: path, Err: ErrInvalidData}
}

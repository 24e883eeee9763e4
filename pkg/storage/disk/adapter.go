package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"commitfs/pkg/compression"
	"commitfs/pkg/core"
	"commitfs/pkg/storage"
	"commitfs/pkg/types"
)

// Adapter 实现了 storage.Store 接口
// 它是无状态的，多个 goroutine 可以并发读写
type Adapter struct {
	rootPath    string // 比如: /home/user/.cfs/objects
	compression compression.Tag
}

type Option func(*Adapter)

// WithCompression 设置新写入对象的压缩算法 (已有对象按各自的 tag 读取)
func WithCompression(tag compression.Tag) Option {
	return func(a *Adapter) { a.compression = tag }
}

// NewAdapter 创建一个新的磁盘存储适配器
func NewAdapter(root string, opts ...Option) (*Adapter, error) {
	// 确保根目录存在
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage dir: %w", err)
	}
	a := &Adapter{rootPath: root, compression: compression.None}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Root 返回对象目录
func (s *Adapter) Root() string { return s.rootPath }

// layout 返回哈希对应的物理路径
// 策略：使用前 2 个字符作为子目录 (Sharding)
// Example: hash "aabbcc..." -> root/aa/bbcc...
func (s *Adapter) layout(hash types.Hash) string {
	h := string(hash)
	if len(h) < 2 {
		return filepath.Join(s.rootPath, h)
	}
	return filepath.Join(s.rootPath, h[:2], h[2:])
}

func (s *Adapter) Put(ctx context.Context, obj core.Object) error {
	hash := obj.ID()
	targetPath := s.layout(hash)

	// 1. 检查是否存在 (幂等性)
	if _, err := os.Stat(targetPath); err == nil {
		return nil // 已经存在，直接跳过 (CAS 的好处)
	}

	data, err := compression.Encode(obj.Bytes(), s.compression)
	if err != nil {
		return fmt.Errorf("failed to encode object %s: %w", hash.Short(), err)
	}

	// 2. 准备目录
	dir := filepath.Dir(targetPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// 3. 原子写入 (Atomic Write)
	// 先写到一个临时文件，然后 Rename。
	// 这样保证要么文件不存在，要么文件是完整的。
	tempFile, err := os.CreateTemp(dir, "temp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return err
	}
	if err := tempFile.Close(); err != nil { // 必须先关闭才能 Rename
		return err
	}

	// 4. 移动到最终位置
	return os.Rename(tempFile.Name(), targetPath)
}

// Get 返回边读边解压的流
func (s *Adapter) Get(ctx context.Context, hash types.Hash) (io.ReadCloser, error) {
	if !hash.IsValid() {
		return nil, storage.ErrNotFound
	}
	f, err := os.Open(s.layout(hash))
	if os.IsNotExist(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r, err := compression.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", hash.Short(), err)
	}
	return r, nil
}

func (s *Adapter) Has(ctx context.Context, hash types.Hash) (bool, error) {
	if !hash.IsValid() {
		return false, nil
	}
	_, err := os.Stat(s.layout(hash))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ExpandHash 在分片目录中查找以 prefix 开头的对象
func (s *Adapter) ExpandHash(ctx context.Context, prefix types.HashPrefix) (types.Hash, error) {
	p := types.HashPrefix(strings.ToLower(string(prefix)))
	if err := storage.CheckPrefix(p); err != nil {
		return "", fmt.Errorf("%w: %q", err, prefix)
	}
	if len(p) == types.HashSize*2 {
		h := types.Hash(p)
		ok, err := s.Has(ctx, h)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", storage.ErrNotFound, p)
		}
		return h, nil
	}

	shard := string(p[:2])
	rest := string(p[2:])
	entries, err := os.ReadDir(filepath.Join(s.rootPath, shard))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%w: prefix %s", storage.ErrNotFound, p)
	}
	if err != nil {
		return "", err
	}

	var match types.Hash
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, rest) {
			continue
		}
		candidate := types.Hash(shard + name)
		if !candidate.IsValid() {
			continue // 临时文件等
		}
		if match != "" {
			return "", fmt.Errorf("%w: %s", storage.ErrAmbiguousHash, p)
		}
		match = candidate
	}
	if match == "" {
		return "", fmt.Errorf("%w: prefix %s", storage.ErrNotFound, p)
	}
	return match, nil
}

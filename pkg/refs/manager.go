package refs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"commitfs/pkg/meta"
	"commitfs/pkg/storage"
	"commitfs/pkg/types"
)

const (
	Head        = "HEAD"
	BranchSpace = "refs/heads/"
)

var (
	ErrNoHead    = errors.New("HEAD not found (clean repo)")
	ErrStaleHead = errors.New("ref was updated concurrently, retry")
	ErrNoRef     = errors.New("reference not found")
	// ErrUnknownRevision 既不是 Hash、也不是前缀、也不是引用名
	ErrUnknownRevision = errors.New("unknown revision")
)

// Manager 负责管理引用 (Refs)，数据存储在元数据库中
type Manager struct {
	repo *meta.Repository
}

func NewManager(repo *meta.Repository) *Manager {
	return &Manager{repo: repo}
}

// FullName 把短分支名展开: "main" -> "refs/heads/main"，HEAD 保持不变
func FullName(name string) string {
	if name == Head || strings.HasPrefix(name, "refs/") {
		return name
	}
	return BranchSpace + name
}

// Get 读取引用指向的 Commit 及其版本号
func (m *Manager) Get(ctx context.Context, name string) (types.Hash, int64, error) {
	ref, err := m.repo.GetRef(ctx, FullName(name))
	if errors.Is(err, meta.ErrRefNotFound) {
		return "", 0, fmt.Errorf("%w: %s", ErrNoRef, name)
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to read ref %s: %w", name, err)
	}
	return ref.CommitHash, ref.Version, nil
}

// Update 以 CAS 方式移动引用。oldVersion 为 0 表示创建。
func (m *Manager) Update(ctx context.Context, name string, hash types.Hash, oldVersion int64) error {
	err := m.repo.UpdateRef(ctx, FullName(name), hash, oldVersion)
	if errors.Is(err, meta.ErrConcurrentUpdate) {
		return ErrStaleHead
	}
	return err
}

// GetHead 读取当前的 Commit Hash
// 如果是新仓库（没提交过），返回 ErrNoHead
func (m *Manager) GetHead(ctx context.Context) (types.Hash, int64, error) {
	h, v, err := m.Get(ctx, Head)
	if errors.Is(err, ErrNoRef) {
		return "", 0, ErrNoHead
	}
	return h, v, err
}

// UpdateHead 更新 HEAD 到新的 Commit Hash
func (m *Manager) UpdateHead(ctx context.Context, hash types.Hash, oldVersion int64) error {
	return m.Update(ctx, Head, hash, oldVersion)
}

// List 返回所有引用
func (m *Manager) List(ctx context.Context) ([]meta.Ref, error) {
	return m.repo.ListRefs(ctx)
}

// Resolve 把用户输入的 revision 解析为 Commit Hash。
// 顺序: 完整 Hash -> 引用名 -> 唯一前缀 (至少 4 位)。
// 这里只确定 Hash，对象是否真的是 Commit 由 repository.Commit 检查。
func (m *Manager) Resolve(ctx context.Context, store storage.Store, rev string) (types.CommitHash, error) {
	if rev == "" {
		rev = Head
	}
	if h, err := types.ParseHash(rev); err == nil {
		return types.CommitHash(h), nil
	}

	h, _, err := m.Get(ctx, rev)
	if err == nil {
		return types.CommitHash(h), nil
	}
	if !errors.Is(err, ErrNoRef) {
		return "", err
	}

	full, err := store.ExpandHash(ctx, types.HashPrefix(rev))
	switch {
	case err == nil:
		return types.CommitHash(full), nil
	case errors.Is(err, storage.ErrAmbiguousHash):
		return "", err
	default:
		if rev == Head {
			return "", ErrNoHead
		}
		return "", fmt.Errorf("%w: %s", ErrUnknownRevision, rev)
	}
}

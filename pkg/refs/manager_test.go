package refs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"

	"commitfs/pkg/core"
	"commitfs/pkg/meta"
	"commitfs/pkg/storage/disk"
	"commitfs/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mockHash(input string) types.Hash {
	sum := sha256.Sum256([]byte(input))
	return types.Hash(hex.EncodeToString(sum[:]))
}

// setupTestEnv 搭建基于内存 SQLite 的测试环境
func setupTestEnv(t *testing.T) *Manager {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // 测试时静默日志
	})
	require.NoError(t, err)

	metaDB := meta.NewWithConn(db)
	require.NoError(t, metaDB.AutoMigrate(meta.Models()...))

	return NewManager(meta.NewRepository(metaDB))
}

func TestRefFlow_Lifecycle(t *testing.T) {
	mgr := setupTestEnv(t)
	ctx := context.Background()

	// 1. 初始状态应该是 NoHead
	_, _, err := mgr.GetHead(ctx)
	assert.ErrorIs(t, err, ErrNoHead, "空仓库应该返回 ErrNoHead")

	// 2. 第一次提交，oldVersion 传 0
	hash1 := mockHash("v1")
	require.NoError(t, mgr.UpdateHead(ctx, hash1, 0), "首次 UpdateHead 应该成功")

	gotHash, gotVer, err := mgr.GetHead(ctx)
	require.NoError(t, err)
	assert.Equal(t, hash1, gotHash)
	assert.Equal(t, int64(1), gotVer, "第一次版本号应该是 1")

	// 3. 基于版本 1 更新
	hash2 := mockHash("v2")
	require.NoError(t, mgr.UpdateHead(ctx, hash2, 1), "基于正确版本的更新应该成功")

	gotHash, gotVer, err = mgr.GetHead(ctx)
	require.NoError(t, err)
	assert.Equal(t, hash2, gotHash)
	assert.Equal(t, int64(2), gotVer, "版本号应该递增为 2")
}

func TestRefFlow_OptimisticLocking(t *testing.T) {
	mgr := setupTestEnv(t)
	ctx := context.Background()

	require.NoError(t, mgr.UpdateHead(ctx, mockHash("v1"), 0))

	_, ver, err := mgr.GetHead(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)

	// 用户 B 先成功了
	hashB := mockHash("user_B")
	require.NoError(t, mgr.UpdateHead(ctx, hashB, ver), "用户 B 应该更新成功")

	// 用户 A 拿着过期的 ver=1 试图更新
	err = mgr.UpdateHead(ctx, mockHash("user_A"), ver)
	assert.ErrorIs(t, err, ErrStaleHead, "使用过期的版本号更新应该被拒绝")

	// 确保数据没有被覆盖
	currHash, currVer, _ := mgr.GetHead(ctx)
	assert.Equal(t, hashB, currHash, "HEAD 应该保持为用户 B 的值")
	assert.Equal(t, int64(2), currVer)
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "HEAD", FullName("HEAD"))
	assert.Equal(t, "refs/heads/main", FullName("main"))
	assert.Equal(t, "refs/tags/v1", FullName("refs/tags/v1"))
}

func TestResolve(t *testing.T) {
	mgr := setupTestEnv(t)
	ctx := context.Background()

	store, err := disk.NewAdapter(t.TempDir())
	require.NoError(t, err)

	tree, err := core.NewTree(nil)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, tree))
	commit, err := core.NewCommit(tree.ID(), nil, "me", "init")
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, commit))

	// 空仓库: HEAD 不存在
	_, err = mgr.Resolve(ctx, store, "")
	assert.ErrorIs(t, err, ErrNoHead)

	require.NoError(t, mgr.Update(ctx, "main", commit.ID(), 0))
	require.NoError(t, mgr.UpdateHead(ctx, commit.ID(), 0))

	want := types.CommitHash(commit.ID())
	tests := []struct {
		name string
		rev  string
	}{
		{"default is HEAD", ""},
		{"HEAD", "HEAD"},
		{"short branch", "main"},
		{"full branch", "refs/heads/main"},
		{"full hash", string(commit.ID())},
		{"prefix", string(commit.ID()[:8])},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mgr.Resolve(ctx, store, tt.rev)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	_, err = mgr.Resolve(ctx, store, "no-such-branch")
	assert.ErrorIs(t, err, ErrUnknownRevision)

	// 完整 Hash 不查存储，存在性留给调用方检查
	missing := mockHash("missing")
	got, err := mgr.Resolve(ctx, store, string(missing))
	require.NoError(t, err)
	assert.Equal(t, types.CommitHash(missing), got)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"commitfs/pkg/commitfs"
	"commitfs/pkg/compression"
	"commitfs/pkg/meta"
	"commitfs/pkg/refs"
	"commitfs/pkg/repository"
	"commitfs/pkg/storage"
	"commitfs/pkg/storage/cache"
	"commitfs/pkg/storage/disk"
	"commitfs/pkg/storage/remote"
	"commitfs/pkg/storage/s3"
	"commitfs/pkg/types"

	"github.com/spf13/viper"
)

// ErrNotInitialized 表示本地仓库目录不存在
var ErrNotInitialized = errors.New("not a commitfs repository (run 'cfs init' first)")

// App 是整个应用程序的依赖容器
// 它持有所有“单例”服务
type App struct {
	Store storage.Store
	Repo  *repository.Repository
	DB    *meta.DB
	Meta  *meta.Repository
	Refs  *refs.Manager

	// RepoPath 是本地仓库目录 (默认 ./.cfs)，元数据库也放在这里
	RepoPath string

	closers []io.Closer
}

// NewApp 按 Viper 配置组装存储、元数据库和引用管理
func NewApp(ctx context.Context) (*App, error) {
	storePath := viper.GetString("storage.path")
	if storePath == "" {
		return nil, fmt.Errorf("storage path not set")
	}
	repoPath := filepath.Dir(storePath)
	if _, err := os.Stat(repoPath); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInitialized
		}
		return nil, err
	}

	a := &App{RepoPath: repoPath}

	store, err := initStore(ctx, repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}
	a.Store = store
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	a.Repo = repository.New(store)

	db, err := meta.NewDB(ctx, dbConfig())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open metadata db: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db)
	a.Meta = meta.NewRepository(db)
	a.Refs = refs.NewManager(a.Meta)

	return a, nil
}

// Close 释放连接 (Redis、gRPC、数据库)
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Resolve 把完整 Hash、唯一前缀或引用名解析为提交
func (a *App) Resolve(ctx context.Context, rev string) (types.CommitHash, error) {
	return a.Refs.Resolve(ctx, a.Store, rev)
}

// OpenCommit 解析 rev 并返回该提交的只读文件系统
func (a *App) OpenCommit(ctx context.Context, rev string) (*commitfs.CommitFS, error) {
	h, err := a.Resolve(ctx, rev)
	if err != nil {
		return nil, err
	}
	return commitfs.New(ctx, a.Repo, h)
}

func dbConfig() meta.Config {
	return meta.Config{
		Driver:   viper.GetString("database.driver"),
		Path:     viper.GetString("database.path"),
		Host:     viper.GetString("database.host"),
		Port:     viper.GetInt("database.port"),
		User:     viper.GetString("database.user"),
		Password: viper.GetString("database.password"),
		DBName:   viper.GetString("database.dbname"),
		SSLMode:  viper.GetString("database.sslmode"),
		Debug:    viper.GetString("log.level") == "debug",
	}
}

// initStore 按 storage.type 选择后端，配置了 Redis 时再套一层缓存
func initStore(ctx context.Context, repoPath string) (storage.Store, error) {
	tag, err := compression.ParseTag(viper.GetString("storage.compression"))
	if err != nil {
		return nil, err
	}

	var store storage.Store
	switch t := viper.GetString("storage.type"); t {
	case "", "disk":
		path := viper.GetString("storage.path")
		if path == "" {
			path = filepath.Join(repoPath, "objects")
		}
		store, err = disk.NewAdapter(path, disk.WithCompression(tag))
	case "s3":
		bucket := viper.GetString("s3.bucket")
		if bucket == "" {
			return nil, fmt.Errorf("s3 bucket is required (s3.bucket)")
		}
		store, err = s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString("s3.endpoint"),
			Region:          viper.GetString("s3.region"),
			Bucket:          bucket,
			AccessKeyID:     viper.GetString("s3.access_key_id"),
			SecretAccessKey: viper.GetString("s3.secret_access_key"),
			Compression:     tag,
		})
	case "remote":
		addr := viper.GetString("remote.addr")
		if addr == "" {
			return nil, fmt.Errorf("remote address is required (remote.addr)")
		}
		store, err = remote.NewAdapter(addr)
	default:
		return nil, fmt.Errorf("unsupported storage type: %q", t)
	}
	if err != nil {
		return nil, err
	}

	if url := viper.GetString("cache.redis_url"); url != "" {
		cached, err := cache.NewCachedStore(store, cache.Config{
			RedisURL: url,
			TTL:      viper.GetDuration("cache.ttl"),
		})
		if err != nil {
			if c, ok := store.(io.Closer); ok {
				c.Close()
			}
			return nil, err
		}
		return cached, nil
	}
	return store, nil
}

// OpenStore 只组装存储栈，不打开元数据库 (cfs-server 使用)
func OpenStore(ctx context.Context) (storage.Store, error) {
	return initStore(ctx, filepath.Dir(viper.GetString("storage.path")))
}

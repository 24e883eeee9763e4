package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// 搜索顺序：当前目录、./.cfs、~/.cfs
		viper.AddConfigPath(".")
		viper.AddConfigPath(".cfs")
		viper.AddConfigPath(filepath.Join(home, ".cfs"))

		viper.SetConfigType("yaml")
		viper.SetConfigName("config") // 找 config.yaml
	}

	// 环境变量：CFS_STORAGE_TYPE、CFS_CACHE_REDIS_URL 等
	viper.SetEnvPrefix("CFS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	readErr := viper.ReadInConfig()
	SetupLogging(viper.GetString("log.level"))

	if readErr != nil {
		// 没找到配置文件不算错，可能全靠环境变量和默认值
		if _, ok := readErr.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("fatal error config file: %w", readErr)
		}
		slog.Debug("no config file found, using defaults/env vars")
	} else {
		slog.Debug("using config file", slog.String("path", viper.ConfigFileUsed()))
	}
	return nil
}

// SetupLogging 把默认 slog 设为写 stderr 的文本 handler
func SetupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func setDefaults() {
	wd, _ := os.Getwd()
	repoPath := filepath.Join(wd, ".cfs")

	// 存储
	viper.SetDefault("storage.type", "disk")
	viper.SetDefault("storage.path", filepath.Join(repoPath, "objects"))
	viper.SetDefault("storage.compression", "zstd")

	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("remote.addr", "localhost:50051")

	// 缓存 (redis_url 为空表示不启用)
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.ttl", 24*time.Hour)

	// 元数据库
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.path", filepath.Join(repoPath, "meta.db"))
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")

	// 服务
	viper.SetDefault("server.addr", ":50051")
	viper.SetDefault("http.addr", ":8080")

	user := os.Getenv("USER")
	if user == "" {
		user = "unknown"
	}
	viper.SetDefault("user.name", user)
	viper.SetDefault("log.level", "info")
}

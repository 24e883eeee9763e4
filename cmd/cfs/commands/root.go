package commands

import (
	"fmt"
	"os"

	"commitfs/pkg/app"
	"commitfs/pkg/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// 全局应用实例，供子命令使用
	CFS *app.App
)

const (
	groupSnapshot = "snapshot"
	groupBrowse   = "browse"
)

var rootCmd = &cobra.Command{
	Use:   "cfs",
	Short: "commitfs: browse content-addressed commits as read-only filesystems",
	Long: `cfs snapshots directories into a content-addressed object store and
exposes any commit as a read-only filesystem: list, cat, export, verify,
mount it through FUSE, or serve it over HTTP.

A <rev> is a full hash, a unique hash prefix (at least 4 characters),
or a ref name such as HEAD.`,
	SilenceUsage: true,
	// PersistentPreRunE 会在所有子命令执行前运行
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init 负责创建环境，跳过依赖检查
		if cmd.Name() == "init" {
			return nil
		}
		// 测试里会预先注入
		if CFS != nil {
			return nil
		}

		var err error
		CFS, err = app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize commitfs: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if CFS == nil {
			return nil
		}
		err := CFS.Close()
		CFS = nil
		return err
	},
}

// Root 返回根命令，由 main 交给 fang 执行
func Root() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddGroup(
		&cobra.Group{ID: groupSnapshot, Title: "Repository Commands"},
		&cobra.Group{ID: groupBrowse, Title: "Browse Commands"},
	)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.cfs/config.yaml or $HOME/.cfs/config.yaml)")

	// 用户既可以在 yaml 里写，也可以用 flag 覆盖
	rootCmd.PersistentFlags().String("storage-path", "", "directory of the local object store")
	rootCmd.PersistentFlags().String("log-level", "", "debug, info, warn or error")
	for key, flag := range map[string]string{
		"storage.path": "storage-path",
		"log.level":    "log-level",
	} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to bind flag:", err)
			os.Exit(1)
		}
	}
}

// initConfig 读取配置文件和环境变量
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, "Config error:", err)
		os.Exit(1)
	}
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Initialize a commitfs repository",
	Long:    `Create an empty commitfs repository (.cfs/objects) or report an existing one.`,
	GroupID: groupSnapshot,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		objectsPath, err := filepath.Abs(viper.GetString("storage.path"))
		if err != nil {
			return err
		}
		repoPath := filepath.Dir(objectsPath)

		if _, err := os.Stat(repoPath); err == nil {
			fmt.Fprintf(out, "⚠️  commitfs repository already exists in %s\n", repoPath)
			return nil
		}

		if err := os.MkdirAll(objectsPath, 0755); err != nil {
			return fmt.Errorf("failed to create repo directory: %w", err)
		}

		fmt.Fprintf(out, "✅ Initialized empty commitfs repository in %s\n", repoPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

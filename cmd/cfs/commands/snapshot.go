package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"commitfs/pkg/core"
	"commitfs/pkg/ignore"
	"commitfs/pkg/ingester"
	"commitfs/pkg/refs"
	"commitfs/pkg/treebuilder"
	"commitfs/pkg/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	snapshotMsg string
	snapshotRef string
)

// snapshotMeta 写入提交索引的附加信息
type snapshotMeta struct {
	Source string `json:"source"`
	Files  int    `json:"files"`
	Bytes  int64  `json:"bytes"`
}

var snapshotCmd = &cobra.Command{
	Use:     "snapshot <dir>",
	Short:   "Record a directory as a new commit",
	Long:    `Chunk every file under <dir> (honouring .cfsignore), build the tree, store a commit whose parent is the current ref, and move the ref.`,
	GroupID: groupSnapshot,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapshotMsg == "" {
			return fmt.Errorf("commit message cannot be empty (use -m)")
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		start := time.Now()

		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		// Phase 1: 切块入库
		matcher, err := ignore.NewMatcher(root)
		if err != nil {
			return fmt.Errorf("failed to load ignore rules: %w", err)
		}
		var total int64
		entries, err := ingester.NewIngester(CFS.Store).IngestDir(ctx, root, matcher, func(rel string, node *core.FileNode) {
			total += node.TotalSize
			fmt.Fprintf(out, "  + %s (%d bytes, %d chunks)\n", rel, node.TotalSize, len(node.Chunks))
		})
		if err != nil {
			return fmt.Errorf("snapshot failed: %w", err)
		}

		// Phase 2: 构建目录树
		fmt.Fprint(out, "🔨 Building Tree... ")
		treeHash, err := treebuilder.NewBuilder(CFS.Store).Build(ctx, entries)
		if err != nil {
			return fmt.Errorf("failed to build tree: %w", err)
		}
		fmt.Fprintf(out, "Done (Root: %s)\n", treeHash.Short())

		// Phase 3: 父提交来自引用的当前值
		parentHash, version, err := CFS.Refs.Get(ctx, snapshotRef)
		var parents []types.Hash
		switch {
		case err == nil:
			parents = []types.Hash{parentHash}
		case errors.Is(err, refs.ErrNoRef):
			fmt.Fprintln(out, "🌱 Initial Commit")
		default:
			return fmt.Errorf("failed to resolve %s: %w", snapshotRef, err)
		}

		author := viper.GetString("user.name")
		commit, err := core.NewCommit(treeHash, parents, author, snapshotMsg)
		if err != nil {
			return fmt.Errorf("failed to create commit object: %w", err)
		}
		if err := CFS.Store.Put(ctx, commit); err != nil {
			return fmt.Errorf("failed to store commit: %w", err)
		}

		// Phase 4: 写索引，再移动引用
		info := snapshotMeta{Source: root, Files: len(entries), Bytes: total}
		if err := CFS.Meta.IndexCommitMeta(ctx, commit, info); err != nil {
			return fmt.Errorf("failed to index commit: %w", err)
		}
		if err := CFS.Refs.Update(ctx, snapshotRef, commit.ID(), version); err != nil {
			return fmt.Errorf("failed to update %s: %w", snapshotRef, err)
		}

		fmt.Fprintf(out, "✅ [%s %s] %s\n", snapshotRef, commit.ID().Short(), snapshotMsg)
		fmt.Fprintf(out, "   %d files, %d bytes | Time: %s | Author: %s\n", len(entries), total, time.Since(start).Round(time.Millisecond), author)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&snapshotMsg, "message", "m", "", "commit message")
	snapshotCmd.Flags().StringVar(&snapshotRef, "ref", refs.Head, "ref to advance")
}

package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"commitfs/pkg/core"
	"commitfs/pkg/refs"
	"commitfs/pkg/types"

	"github.com/spf13/cobra"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:     "log [rev]",
	Short:   "Show commit logs",
	Long:    `Display the first-parent history starting from <rev> (HEAD if omitted).`,
	GroupID: groupSnapshot,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		rev := ""
		if len(args) > 0 {
			rev = args[0]
		}
		current, err := CFS.Resolve(ctx, rev)
		if errors.Is(err, refs.ErrNoHead) {
			fmt.Fprintln(out, "No commits yet.")
			return nil
		}
		if err != nil {
			return fmt.Errorf("invalid revision '%s': %w", rev, err)
		}

		for n := 0; current != "" && (logLimit <= 0 || n < logLimit); n++ {
			commit, err := CFS.Repo.Commit(ctx, current)
			if err != nil {
				return fmt.Errorf("failed to load commit %s: %w", current, err)
			}
			printCommitLog(out, commit)

			// 只跟随第一个父节点，和 git log --first-parent 一致
			current = ""
			if len(commit.Parents) > 0 {
				current = types.CommitHash(commit.Parents[0].Hash)
			}
		}
		return nil
	},
}

func printCommitLog(w io.Writer, c *core.Commit) {
	const (
		colorYellow = "\033[33m"
		colorReset  = "\033[0m"
	)
	fmt.Fprintf(w, "%scommit %s%s\n", colorYellow, c.ID(), colorReset)
	fmt.Fprintf(w, "Author: %s\n", c.Author)
	fmt.Fprintf(w, "Date:   %s\n", c.Time().Format(time.RFC1123))
	fmt.Fprintf(w, "\n    %s\n\n", c.Message)
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntVarP(&logLimit, "max-count", "n", 0, "limit the number of commits shown")
}

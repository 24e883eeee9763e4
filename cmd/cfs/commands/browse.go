package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"commitfs/pkg/commitfs"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:     "ls <rev> [path]",
	Short:   "List a directory of a commit",
	GroupID: groupBrowse,
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfs, err := CFS.OpenCommit(ctx, args[0])
		if err != nil {
			return fmt.Errorf("ls failed: %w", err)
		}
		dir := ""
		if len(args) > 1 {
			// 与路径解析一致：首尾分隔符不影响结果
			dir = strings.TrimRight(args[1], `/\`)
		}

		names, err := cfs.ReadDir(ctx, dir)
		if err != nil {
			return fmt.Errorf("ls failed: %w", err)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for name := range names {
			md, err := cfs.Metadata(ctx, dir+"/"+name)
			switch {
			case errors.Is(err, commitfs.ErrNotFound):
				fmt.Fprintf(tw, "repo\t-\t%s\n", name)
			case err != nil:
				return fmt.Errorf("ls failed: %w", err)
			case md.IsDir():
				fmt.Fprintf(tw, "dir\t-\t%s/\n", name)
			default:
				fmt.Fprintf(tw, "file\t%d\t%s\n", md.Len, name)
			}
		}
		return tw.Flush()
	},
}

var catCmd = &cobra.Command{
	Use:     "cat <rev> <path>",
	Short:   "Print file content from a commit",
	Long:    `Stream the content of <path> in <rev> to stdout. Redirect to save binary files.`,
	GroupID: groupBrowse,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfs, err := CFS.OpenCommit(ctx, args[0])
		if err != nil {
			return fmt.Errorf("cat failed: %w", err)
		}
		f, err := cfs.OpenFile(ctx, args[1])
		if err != nil {
			return fmt.Errorf("cat failed: %w", err)
		}
		defer f.Close()

		if _, err := io.Copy(cmd.OutOrStdout(), f); err != nil {
			return fmt.Errorf("cat failed: %w", err)
		}
		return nil
	},
}

var statCmd = &cobra.Command{
	Use:     "stat <rev> <path>",
	Short:   "Show metadata of a path in a commit",
	GroupID: groupBrowse,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfs, err := CFS.OpenCommit(ctx, args[0])
		if err != nil {
			return fmt.Errorf("stat failed: %w", err)
		}
		md, err := cfs.Metadata(ctx, args[1])
		if err != nil {
			return fmt.Errorf("stat failed: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Path: %s\n", args[1])
		fmt.Fprintf(out, "Type: %s\n", md.Type)
		fmt.Fprintf(out, "Len:  %d\n", md.Len)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd, catCmd, statCmd)
}

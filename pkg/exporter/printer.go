package exporter

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"commitfs/pkg/core"
	"commitfs/pkg/storage"
	"commitfs/pkg/types"
)

// PrintObject 以人类可读的形式打印一个对象 (cfs show)
func PrintObject(ctx context.Context, store storage.Store, hash types.Hash, w io.Writer) error {
	data, err := storage.ReadAll(ctx, store, hash)
	if err != nil {
		return err
	}
	ok, err := PrintStructure(data, w)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(w, "Type: Chunk (Raw Data)\nSize: %d bytes\n\n", len(data))
		fmt.Fprintf(w, "(raw binary data not shown, use 'cfs cat' to read file contents)\n")
	}
	return nil
}

// PrintStructure 解析并打印结构化对象 (Commit/Tree/FileNode)
// 如果是原始数据(Chunk)，返回 false，由调用者决定如何展示
func PrintStructure(data []byte, w io.Writer) (bool, error) {
	switch core.PeekType(data) {
	case core.TypeCommit:
		return true, printCommit(data, w)
	case core.TypeTree:
		return true, printTree(data, w)
	case core.TypeFileNode:
		return true, printFileNode(data, w)
	default:
		return false, nil
	}
}

func printCommit(data []byte, w io.Writer) error {
	c, err := core.DecodeCommit(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Type:    Commit\n")
	fmt.Fprintf(w, "Tree:    %s\n", c.TreeHash())
	for _, p := range c.Parents {
		fmt.Fprintf(w, "Parent:  %s\n", p.Hash)
	}
	fmt.Fprintf(w, "Author:  %s\n", c.Author)
	fmt.Fprintf(w, "Time:    %s\n", c.Time().UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "\n%s\n", c.Message)
	return nil
}

func printTree(data []byte, w io.Writer) error {
	t, err := core.DecodeTree(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Type: Tree\n\n")

	// 像 git ls-tree 一样对齐
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	for _, entry := range t.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%q\t%s\n", entry.Type, entry.Cid.Hash.Short(), entry.Name, fmtSize(entry.Size))
	}
	return tw.Flush()
}

func printFileNode(data []byte, w io.Writer) error {
	f, err := core.DecodeFileNode(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Type:      FileNode\n")
	fmt.Fprintf(w, "TotalSize: %d bytes\n", f.TotalSize)
	fmt.Fprintf(w, "Chunks:    %d\n", len(f.Chunks))
	for i, c := range f.Chunks {
		fmt.Fprintf(w, "  %4d  %s  %d\n", i, c.Cid.Hash.Short(), c.Size)
	}
	return nil
}

func fmtSize(s int64) string {
	if s == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", s)
}

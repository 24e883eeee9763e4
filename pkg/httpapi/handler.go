package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"commitfs/pkg/commitfs"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	cfs *commitfs.CommitFS
}

// CommitResponse 描述当前浏览的提交
type CommitResponse struct {
	Hash    string    `json:"hash"`
	Tree    string    `json:"tree"`
	Parents []string  `json:"parents"`
	Author  string    `json:"author"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// EntryResponse 是目录中的一项。嵌套仓库的 type 为 "repository"，没有长度。
type EntryResponse struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Len  uint64 `json:"len,omitempty"`
}

type TreeResponse struct {
	Path    string          `json:"path"`
	Entries []EntryResponse `json:"entries"`
}

type StatResponse struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Len  uint64 `json:"len"`
}

func (h *Handler) GetCommit(c *gin.Context) {
	commit := h.cfs.Commit()
	parents := make([]string, 0, len(commit.Parents))
	for _, p := range commit.Parents {
		parents = append(parents, p.Hash.String())
	}
	c.JSON(http.StatusOK, CommitResponse{
		Hash:    commit.ID().String(),
		Tree:    commit.TreeHash().String(),
		Parents: parents,
		Author:  commit.Author,
		Message: commit.Message,
		Time:    commit.Time().UTC(),
	})
}

// GetTree 按存储顺序列出目录
func (h *Handler) GetTree(c *gin.Context) {
	ctx := c.Request.Context()
	p := c.Param("path")

	names, err := h.cfs.ReadDir(ctx, p)
	if err != nil {
		writeError(c, err)
		return
	}

	// 与路径解析一致，末尾分隔符不影响结果，拼接子路径前去掉
	dir := strings.TrimRight(p, `/\`)
	entries := []EntryResponse{}
	for name := range names {
		md, err := h.cfs.Metadata(ctx, dir+"/"+name)
		if errors.Is(err, commitfs.ErrNotFound) {
			entries = append(entries, EntryResponse{Name: name, Type: "repository"})
			continue
		}
		if err != nil {
			writeError(c, err)
			return
		}
		entries = append(entries, EntryResponse{Name: name, Type: md.Type.String(), Len: md.Len})
	}
	c.JSON(http.StatusOK, TreeResponse{Path: p, Entries: entries})
}

func (h *Handler) GetStat(c *gin.Context) {
	p := c.Param("path")
	md, err := h.cfs.Metadata(c.Request.Context(), p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatResponse{Path: p, Type: md.Type.String(), Len: md.Len})
}

// GetRaw 流式返回文件内容
func (h *Handler) GetRaw(c *gin.Context) {
	ctx := c.Request.Context()
	p := c.Param("path")

	md, err := h.cfs.Metadata(ctx, p)
	if err != nil {
		writeError(c, err)
		return
	}
	if md.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is a directory"})
		return
	}
	f, err := h.cfs.OpenFile(ctx, p)
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	c.DataFromReader(http.StatusOK, int64(md.Len), "application/octet-stream", f, nil)
}

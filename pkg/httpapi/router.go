// Package httpapi 提供一个只读的 HTTP 接口，用于浏览单个提交
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"commitfs/pkg/commitfs"
	"commitfs/pkg/repository"

	"github.com/gin-gonic/gin"
)

// NewRouter 构建路由。调用方负责 gin.SetMode。
func NewRouter(cfs *commitfs.CommitFS) *gin.Engine {
	h := &Handler{cfs: cfs}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	api := r.Group("/api")
	{
		api.GET("/commit", h.GetCommit)
		api.GET("/tree/*path", h.GetTree)
		api.GET("/stat/*path", h.GetStat)
		api.GET("/raw/*path", h.GetRaw)
	}
	return r
}

// requestLogger 用 slog 记录每个请求
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		} else if status >= http.StatusBadRequest {
			level = slog.LevelWarn
		}
		slog.Log(c.Request.Context(), level, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("dur", time.Since(start)),
		)
	}
}

// statusFor 把门面层与存储层错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, commitfs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrTypeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, commitfs.ErrInvalidData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"commitfs/pkg/fusefs"
	"commitfs/pkg/httpapi"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var mountCmd = &cobra.Command{
	Use:     "mount <rev> <mountpoint>",
	Short:   "Mount a commit as a read-only FUSE filesystem",
	Long:    `Mount <rev> at <mountpoint> until interrupted. Nested repositories are not shown.`,
	GroupID: groupBrowse,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfs, err := CFS.OpenCommit(ctx, args[0])
		if err != nil {
			return fmt.Errorf("mount failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📂 Mounting %s at %s (Ctrl-C to unmount)\n", cfs.Commit().ID().Short(), args[1])
		if err := fusefs.Mount(ctx, cfs, args[1]); err != nil {
			return fmt.Errorf("mount failed: %w", err)
		}
		return nil
	},
}

var serveAddr string

var serveCmd = &cobra.Command{
	Use:     "serve <rev>",
	Short:   "Serve a commit over a read-only HTTP API",
	Long:    `Serve <rev> on /api/commit, /api/tree/*path, /api/stat/*path and /api/raw/*path until interrupted.`,
	GroupID: groupBrowse,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfs, err := CFS.OpenCommit(ctx, args[0])
		if err != nil {
			return fmt.Errorf("serve failed: %w", err)
		}

		addr := serveAddr
		if addr == "" {
			addr = viper.GetString("http.addr")
		}
		gin.SetMode(gin.ReleaseMode)
		srv := &http.Server{
			Addr:              addr,
			Handler:           httpapi.NewRouter(cfs),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("http server listening", slog.String("addr", addr), slog.String("commit", cfs.Commit().ID().String()))
			errCh <- srv.ListenAndServe()
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "🚀 Serving %s on http://%s/api/commit\n", cfs.Commit().ID().Short(), addr)

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(mountCmd, serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from http.addr)")
}

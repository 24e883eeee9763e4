package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"commitfs/cmd/cfs/commands"

	"github.com/charmbracelet/fang"
)

func main() {
	// mount / serve 依赖 ctx 结束来优雅退出
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, commands.Root()); err != nil {
		os.Exit(1)
	}
}

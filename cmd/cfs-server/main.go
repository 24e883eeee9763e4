package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"commitfs/pkg/app"
	"commitfs/pkg/config"
	"commitfs/pkg/server"

	"github.com/spf13/viper"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default is ./.cfs/config.yaml or $HOME/.cfs/config.yaml)")
	addr := flag.String("addr", "", "listen address (default from server.addr)")
	flag.Parse()

	if err := config.Load(*cfgFile); err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}
	if *addr == "" {
		*addr = viper.GetString("server.addr")
	}

	// 服务端只需要存储栈，不打开元数据库
	store, err := app.OpenStore(context.Background())
	if err != nil {
		log.Fatalf("❌ Failed to open store: %v", err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	slog.Info("object store ready", slog.String("type", viper.GetString("storage.type")))

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("❌ Failed to listen on %s: %v", *addr, err)
	}

	grpcServer := server.NewGRPCServer(store)

	go func() {
		fmt.Printf("🚀 gRPC object server listening on %s...\n", *addr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("❌ Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n⚠️  Shutting down server...")
	grpcServer.GracefulStop()
	fmt.Println("👋 Server stopped.")
}

// Standalone mock exchange for exercising the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/xrtc set -c example/config.yaml --portal demo "hello"
//	go run ./cmd/xrtc get -c example/config.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/xrtc-org/xrtc-go/internal/server"
	"github.com/xrtc-org/xrtc-go/internal/store"
)

const port = 9999

func main() {
	fmt.Printf("Mock exchange starting on :%d\n", port)
	fmt.Println("Any non-empty credential pair is accepted")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	srv := server.NewServer(store.NewMemoryStore(), port, logger)
	if err := srv.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
}

package main

import (
	"context"
	"log/slog"

	"github.com/xrtc-org/xrtc-go/internal/server"
	"github.com/xrtc-org/xrtc-go/internal/store"
)

// startMockExchange runs the in-memory mock of the exchange service on
// the given port. It returns once the listener is bound; the server
// shuts down when ctx is cancelled.
func startMockExchange(ctx context.Context, port int, logger *slog.Logger) error {
	srv := server.NewServer(store.NewMemoryStore(), port, logger)
	return srv.Start(ctx)
}

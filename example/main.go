package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/xrtc-org/xrtc-go"
)

const mockPort = 9999

func main() {
	// Ctrl-C ends the demo cleanly
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// in-memory mock exchange (see mock_server.go); the demo talks to it
	// the same way it would talk to the real service
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if err := startMockExchange(ctx, mockPort, logger); err != nil {
		slog.Error("failed to start mock exchange", "error", err)
		os.Exit(1)
	}

	printBanner()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("demo error", "error", err)
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Println()
	fmt.Println("  ╔" + strings.Repeat("═", 55) + "╗")
	for _, line := range []string{
		"",
		"XRTC Demo",
		"",
		fmt.Sprintf("Mock exchange on http://localhost:%d", mockPort),
		"One blocking round trip, then a streamed tick feed",
		"",
		"Press Ctrl+C to stop",
		"",
	} {
		fmt.Printf("  ║   %-52s║\n", line)
	}
	fmt.Println("  ╚" + strings.Repeat("═", 55) + "╝")
	fmt.Println()
}

func run(ctx context.Context) error {
	base := fmt.Sprintf("http://localhost:%d", mockPort)
	opts := []xrtc.Option{
		xrtc.WithCredentials("demo-account", "demo-key"),
		xrtc.WithLoginURL(base + "/v1/auth/login"),
		xrtc.WithSetURL(base + "/v1/item/set"),
		xrtc.WithGetURL(base + "/v1/item/get"),
	}

	// blocking variant: submit one batch and probe it straight back
	err := xrtc.With(ctx, func(sess *xrtc.Session) error {
		batch := []xrtc.Item{
			{PortalID: "demo", Payload: "first"},
			{PortalID: "demo", Payload: "second"},
		}
		if err := sess.SetItems(ctx, batch); err != nil {
			return err
		}
		fmt.Printf("submitted %d items (logged in at %s)\n",
			len(batch), sess.LoginTime().Format(time.TimeOnly))

		portals := []xrtc.Portal{{ID: "demo"}}
		for item, err := range sess.GetItems(ctx, portals, xrtc.WithSchedule(xrtc.ScheduleFIFO)) {
			if err != nil {
				return err
			}
			printItem(item)
		}
		return nil
	}, opts...)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("streaming ticks:")

	// concurrent variant: a producer goroutine feeds the portal while
	// the main goroutine consumes the stream
	return xrtc.WithConcurrent(ctx, func(sess *xrtc.ConcurrentSession) error {
		go produceTicks(ctx, sess)

		items, errs := sess.Stream(ctx, []xrtc.Portal{{ID: "demo"}},
			xrtc.WithMode(xrtc.ModeStream),
			xrtc.WithCutoff(5*time.Second),
		)
		for item := range items {
			printItem(item)
		}
		return <-errs
	}, opts...)
}

// produceTicks submits one item per second until the context ends.
func produceTicks(ctx context.Context, sess *xrtc.ConcurrentSession) {
	for n := 1; ; n++ {
		item := xrtc.Item{PortalID: "demo", Payload: fmt.Sprintf("tick %d", n)}
		if err := sess.SetItems(ctx, []xrtc.Item{item}); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second):
		}
	}
}

func printItem(item xrtc.Item) {
	fmt.Printf("  %-8s age=%dms  %s\n",
		item.PortalID, item.Age(time.Now().UnixMilli()), item.Payload)
}

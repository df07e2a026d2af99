package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xrtc-org/xrtc-go"
	"github.com/xrtc-org/xrtc-go/config"
)

// getCmd polls portals and prints received items.
var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Poll portals for items",
	Long: `Poll one or more portals and print every received item.

The mode decides how long the command runs:
  probe   one round trip, print whatever was buffered (default)
  watch   keep polling until at least one item arrives
  stream  keep polling and printing until interrupted

A cutoff discards items older than the given age, so a watch or stream
only reacts to fresh traffic.

Example:
  xrtc get --portal telemetry
  xrtc get --portal telemetry --mode watch --cutoff 500ms
  xrtc get -c config.yaml --mode stream -n 100`,
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	addClientFlags(getCmd)
	getCmd.Flags().StringSlice("portal", nil, "portal id to poll (repeatable)")
	getCmd.Flags().String("mode", "", "polling mode: probe, watch, or stream")
	getCmd.Flags().Duration("cutoff", 0, "discard items older than this age")
	getCmd.Flags().String("schedule", "", "drain order: LIFO or FIFO")
	getCmd.Flags().IntP("count", "n", 0, "stop after this many items (0 = no limit)")
}

func runGet(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadClientConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequirePortals(); err != nil {
		return err
	}

	count, _ := cmd.Flags().GetInt("count")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := append(config.BuildOptions(cfg), xrtc.WithLogger(logger))

	portalColor := color.New(color.FgCyan)
	ageColor := color.New(color.Faint)
	out := cmd.OutOrStdout()

	received := 0
	err = xrtc.With(ctx, func(sess *xrtc.Session) error {
		seq := sess.GetItems(ctx, config.BuildPortals(cfg), config.BuildGetOptions(cfg)...)
		for item, err := range seq {
			if err != nil {
				return err
			}
			portalColor.Fprintf(out, "%s", item.PortalID)
			ageColor.Fprintf(out, "  age=%dms  ", item.Age(time.Now().UnixMilli()))
			fmt.Fprintln(out, item.Payload)
			received++
			if count > 0 && received >= count {
				break
			}
		}
		return nil
	}, opts...)
	// a signal ending a stream is a normal exit, not a failure
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if received == 0 {
		fmt.Fprintln(out, "No items received")
	}
	return nil
}

package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xrtc-org/xrtc-go"
	"github.com/xrtc-org/xrtc-go/config"
)

// setCmd submits one batch of items to a portal.
var setCmd = &cobra.Command{
	Use:   "set [payload]...",
	Short: "Submit items to a portal",
	Long: `Submit one or more payloads to a portal as a single batch.

The batch is atomic: either every payload is accepted or the command
fails. Payloads are opaque; the service never interprets them.

Example:
  xrtc set --portal telemetry '{"temp":21}' '{"temp":22}'
  xrtc set -c config.yaml --portal alerts "disk full"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)

	addClientFlags(setCmd)
	setCmd.Flags().String("portal", "", "portal id to submit to (required)")
	_ = setCmd.MarkFlagRequired("portal")
}

func runSet(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadClientConfig(cmd)
	if err != nil {
		return err
	}

	portal, _ := cmd.Flags().GetString("portal")
	items := make([]xrtc.Item, len(args))
	for i, payload := range args {
		items[i] = xrtc.Item{PortalID: portal, Payload: payload}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := append(config.BuildOptions(cfg), xrtc.WithLogger(logger))
	return xrtc.With(ctx, func(sess *xrtc.Session) error {
		if err := sess.SetItems(ctx, items); err != nil {
			return err
		}
		color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Submitted %d item(s) to %s\n", len(items), portal)
		return nil
	}, opts...)
}

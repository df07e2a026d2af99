package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xrtc-org/xrtc-go"
	"github.com/xrtc-org/xrtc-go/config"
)

// latencyCmd measures end-to-end item latency through the service.
var latencyCmd = &cobra.Command{
	Use:   "latency",
	Short: "Measure end-to-end item latency",
	Long: `Measure the time from submitting an item to receiving it back.

One concurrent session both submits timestamped items to a portal and
streams the same portal, measuring the wall-clock delay of each item as
it returns. Run it against a portal nothing else consumes from.

Example:
  xrtc latency --portal bench
  xrtc latency -c config.yaml --portal bench --samples 50 --interval 100ms`,
	RunE: runLatency,
}

func init() {
	rootCmd.AddCommand(latencyCmd)

	addClientFlags(latencyCmd)
	latencyCmd.Flags().String("portal", "latency-test", "portal to exchange test items on")
	latencyCmd.Flags().Int("samples", 10, "number of test items to submit")
	latencyCmd.Flags().Duration("interval", 250*time.Millisecond, "delay between submissions")
}

func runLatency(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadClientConfig(cmd)
	if err != nil {
		return err
	}

	portal, _ := cmd.Flags().GetString("portal")
	samples, _ := cmd.Flags().GetInt("samples")
	interval, _ := cmd.Flags().GetDuration("interval")
	if samples < 1 {
		return errors.New("samples must be at least 1")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := append(config.BuildOptions(cfg), xrtc.WithLogger(logger))

	var latencies []time.Duration
	err = xrtc.WithConcurrent(ctx, func(sess *xrtc.ConcurrentSession) error {
		portals := []xrtc.Portal{{ID: portal}}
		items, errs := sess.Stream(ctx, portals,
			xrtc.WithMode(xrtc.ModeStream),
			xrtc.WithCutoff(10*time.Second),
		)

		go func() {
			for i := 0; i < samples; i++ {
				payload := strconv.FormatInt(time.Now().UnixNano(), 10)
				batch := []xrtc.Item{{PortalID: portal, Payload: payload}}
				if err := sess.SetItems(ctx, batch); err != nil {
					logger.Warn("submission failed", "sample", i, "error", err)
					return
				}
				time.Sleep(interval)
			}
		}()

		for len(latencies) < samples {
			select {
			case item, ok := <-items:
				if !ok {
					// errs is closed before items; surface the cause if one was left
					if err, ok := <-errs; ok && err != nil {
						return err
					}
					return errors.New("stream ended before all samples returned")
				}
				sent, err := strconv.ParseInt(item.Payload, 10, 64)
				if err != nil {
					// foreign item on the portal, not one of ours
					continue
				}
				latencies = append(latencies, time.Since(time.Unix(0, sent)))
			case err := <-errs:
				return err
			}
		}
		return nil
	}, opts...)
	if err != nil {
		return err
	}

	printLatencyReport(cmd, latencies)
	return nil
}

// printLatencyReport summarizes measured latencies.
func printLatencyReport(cmd *cobra.Command, latencies []time.Duration) {
	slices.Sort(latencies)

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	out := cmd.OutOrStdout()
	color.New(color.FgGreen, color.Bold).Fprintln(out, "Latency report")
	fmt.Fprintf(out, "  samples: %d\n", len(latencies))
	fmt.Fprintf(out, "  min:     %s\n", latencies[0].Round(time.Microsecond))
	fmt.Fprintf(out, "  median:  %s\n", latencies[len(latencies)/2].Round(time.Microsecond))
	fmt.Fprintf(out, "  avg:     %s\n", (sum / time.Duration(len(latencies))).Round(time.Microsecond))
	fmt.Fprintf(out, "  max:     %s\n", latencies[len(latencies)-1].Round(time.Microsecond))
}

// Package main is the entry point for the xrtc CLI.
//
// The exchange client can be used either as a library (SDK) or through
// this command-line tool for scripting and diagnostics.
//
// Usage:
//
//	xrtc set --portal telemetry '{"t":21}'  # Submit items
//	xrtc get -c config.yaml                 # Poll for items
//	xrtc latency --portal bench             # Measure round-trip latency
//	xrtc validate -c config.yaml            # Validate configuration
//	xrtc version                            # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/xrtc-org/xrtc-go/config"
)

// Version info, injected at release time:
//
//	go build -ldflags "-X main.version=1.2.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the top-level command. Run bare it only prints help; the
// work lives in the subcommands.
var rootCmd = &cobra.Command{
	Use:   "xrtc",
	Short: "A client for the xrtc item exchange",
	Long: `xrtc submits items to and polls items from an item exchange service.

Items are opaque payloads exchanged on named portals. The get command
polls in one of three modes: probe (one round trip), watch (block until
an item arrives), or stream (deliver items until interrupted).

Quick start:
  1. Put ACCOUNT_ID and API_KEY in xrtc.env (or export them)
  2. Run: xrtc set --portal demo "hello"
  3. Run: xrtc get --portal demo

Example config (xrtc.yaml):
  credentials_file: prod.env
  portals: [telemetry]
  mode: watch
  cutoff: 500ms`,
	// no Run: bare invocation falls through to help
}

// Execute runs the CLI, exiting non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd reports the build's version stamp.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this xrtc binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("xrtc %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// newLogger creates a JSON logger for CLI use. Session debug logs stay
// hidden; failures surface at warn level.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// addClientFlags registers the flags shared by every command that opens
// a session.
func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file")
	cmd.Flags().String("account", "", "account id (overrides config)")
	cmd.Flags().String("api-key", "", "API key (overrides config)")
	cmd.Flags().String("credentials-file", "", "KEY=VALUE file to resolve credentials from")
}

// loadClientConfig assembles the effective configuration from the
// optional config file plus command-line overrides.
func loadClientConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	} else {
		parsed, err := config.Parse(nil)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	}

	// flag overrides; flags a command does not define are skipped
	if v, err := cmd.Flags().GetString("account"); err == nil && v != "" {
		cfg.AccountID = v
	}
	if v, err := cmd.Flags().GetString("api-key"); err == nil && v != "" {
		cfg.APIKey = v
	}
	if v, err := cmd.Flags().GetString("credentials-file"); err == nil && v != "" {
		cfg.CredentialsFile = v
	}
	if v, err := cmd.Flags().GetStringSlice("portal"); err == nil && len(v) > 0 {
		cfg.Portals = v
	}
	if v, err := cmd.Flags().GetString("mode"); err == nil && v != "" {
		cfg.Mode = v
	}
	if cmd.Flags().Changed("cutoff") {
		v, err := cmd.Flags().GetDuration("cutoff")
		if err == nil {
			cfg.Cutoff = config.Duration(v)
		}
	}
	if v, err := cmd.Flags().GetString("schedule"); err == nil && v != "" {
		cfg.Schedule = v
	}

	return cfg, nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrtc-org/xrtc-go/config"
)

// validateCmd checks a config file without opening a session.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Check an xrtc configuration file without contacting the service.

The file is parsed, environment variables are expanded, and every field
is validated exactly as the other commands would load it. Nothing goes
over the network, so the check is safe to run in CI before a deploy.

Exits 0 when the config is valid, 1 with details on stderr otherwise.

Example:
  xrtc validate -c config.yaml
  xrtc validate --config /etc/xrtc/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Portals:  %d\n", len(cfg.Portals))
	fmt.Fprintf(out, "  Mode:     %s\n", cfg.Mode)
	if cfg.Cutoff != 0 {
		fmt.Fprintf(out, "  Cutoff:   %s\n", cfg.Cutoff.Duration())
	}
	if cfg.Schedule != "" {
		fmt.Fprintf(out, "  Schedule: %s\n", cfg.Schedule)
	}
	if cfg.CredentialsFile != "" {
		fmt.Fprintf(out, "  Credentials file: %s\n", cfg.CredentialsFile)
	}

	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Validate the configuration without starting the monitor.

This command parses the YAML, expands environment variables, applies flag
and ECOBEE_STATUS_* overrides and validates all fields. It's useful for
CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  ecobeestatus validate -c config.yaml
  ecobeestatus validate --hub-url http://ha.local:8123 --hub-token x`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addConfigFlags(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Status URL:    %s\n", cfg.StatusURL)
	fmt.Fprintf(out, "  Hub URL:       %s\n", cfg.HomeAssistant.URL)
	fmt.Fprintf(out, "  Sensor:        %s\n", cfg.SensorEntity)
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Fprintf(out, "  Browser:       %s (headless: %t)\n", cfg.Browser.Engine, cfg.Browser.HeadlessEnabled())
	if cfg.Server.Port != 0 {
		fmt.Fprintf(out, "  Status API:    :%d\n", cfg.Server.Port)
	} else {
		fmt.Fprintf(out, "  Status API:    disabled\n")
	}

	return nil
}

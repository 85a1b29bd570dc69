// Package main is the entry point for the ecobeestatus CLI.
//
// Usage:
//
//	ecobeestatus run -c config.yaml      # Poll and publish until interrupted
//	ecobeestatus check -c config.yaml    # Check once, exit 0 if operational, 2 if not
//	ecobeestatus validate -c config.yaml # Validate configuration
//	ecobeestatus version                 # Show version info
//
// Every command except version accepts the override flags --hub-url,
// --hub-token, --status-url, --interval, --browser-engine, --log-level,
// --log-format and --port, and the matching ECOBEE_STATUS_* environment
// variables. The config file is optional when the overrides supply the hub
// URL and token.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/ecobeestatus/config"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "ecobeestatus",
	Short: "Relay the Ecobee API status to Home Assistant",
	Long: `ecobeestatus renders the Ecobee status page in a headless browser every
10 minutes and writes "true" or "false" to the Home Assistant sensor
sensor.ecobee_api_status, depending on whether the page reports
"All Systems Operational".

Quick start:
  export ECOBEE_STATUS_HUB_URL=http://homeassistant.local:8123
  export ECOBEE_STATUS_HUB_TOKEN=<long-lived access token>
  ecobeestatus run

Example config:
  poll_interval: 10m
  home_assistant:
    url: http://homeassistant.local:8123
    token: ${HA_TOKEN}
  browser:
    engine: chrome`,
	SilenceErrors: true,
}

// exitError carries a process exit code other than 1 out of a command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this ecobeestatus binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ecobeestatus %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// addConfigFlags registers --config and the override flags on cmd.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file")
	config.RegisterFlags(cmd.Flags())
}

// loadConfig reads the config file named by --config, if any, and applies
// flag and environment overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return config.LoadWithOverrides(path, v)
}

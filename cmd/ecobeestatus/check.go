package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/ecobeestatus"
	"github.com/jpalmerr/ecobeestatus/config"
	"github.com/jpalmerr/ecobeestatus/internal/logger"
)

// exitNotOperational is the exit code of check when the page reports an
// incident.
const exitNotOperational = 2

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the status page once",
	Long: `Render the status page once and print whether every system is
operational. With --publish the result is also sent to Home Assistant.

Exit codes:
  0 - All systems operational
  1 - Configuration or browser failure
  2 - Not operational (including an unreachable page)

Example:
  ecobeestatus check -c config.yaml
  ecobeestatus check --publish --browser-engine http`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addConfigFlags(checkCmd)
	checkCmd.Flags().Bool("publish", false, "also publish the result to Home Assistant")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cmd.SilenceUsage = true

	publish, _ := cmd.Flags().GetBool("publish")
	log := logger.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())

	m, err := ecobeestatus.New(config.BuildOptions(cfg, log)...)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	obs, err := m.CheckOnce(cmd.Context(), publish)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Status page:  %s\n", m.StatusURL())
	fmt.Fprintf(out, "All online:   %t\n", obs.AllOnline)
	if obs.Published {
		if obs.PublishErr != nil {
			fmt.Fprintf(out, "Published:    failed (%v)\n", obs.PublishErr)
		} else {
			fmt.Fprintf(out, "Published:    %d\n", obs.PublishStatusCode)
		}
	}

	if !obs.AllOnline {
		return &exitError{code: exitNotOperational, msg: "status page does not report all systems operational"}
	}
	return nil
}

package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/ecobeestatus"
	"github.com/jpalmerr/ecobeestatus/config"
	"github.com/jpalmerr/ecobeestatus/internal/logger"
)

const shutdownTimeout = 30 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the status page and publish to Home Assistant",
	Long: `Run the monitor until interrupted (Ctrl+C) or SIGTERM.

Each cycle renders the status page, publishes the result to the Home
Assistant sensor, then waits for the poll interval. Failures inside a cycle
are logged and the next cycle runs as usual. The command exits non-zero only
if the configuration is invalid or the browser cannot be started.

Example:
  ecobeestatus run -c config.yaml
  ecobeestatus run --hub-url http://ha.local:8123 --hub-token $HA_TOKEN`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addConfigFlags(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cmd.SilenceUsage = true

	log := logger.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	log.Info("config loaded",
		"status_url", cfg.StatusURL,
		"hub_url", cfg.HomeAssistant.URL,
		"poll_interval", cfg.PollInterval.Duration().String(),
		"browser_engine", cfg.Browser.Engine,
		"headless", cfg.Browser.HeadlessEnabled(),
	)

	m, err := ecobeestatus.New(config.BuildOptions(cfg, log)...)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- m.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Error("monitor failed", "error", err)
			return err
		}
		log.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// a cycle in flight may still be waiting on the browser or the hub
		select {
		case err := <-errChan:
			if err != nil {
				return err
			}
			log.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			log.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

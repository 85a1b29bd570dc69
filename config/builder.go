package config

import (
	"log/slog"

	"github.com/jpalmerr/ecobeestatus"
)

// BuildOptions converts a validated configuration into monitor options.
// logger may be nil.
func BuildOptions(cfg *Config, logger *slog.Logger) []ecobeestatus.Option {
	opts := []ecobeestatus.Option{
		ecobeestatus.WithHubURL(cfg.HomeAssistant.URL),
		ecobeestatus.WithHubToken(cfg.HomeAssistant.Token),
		ecobeestatus.WithStatusURL(cfg.StatusURL),
		ecobeestatus.WithBrowser(ecobeestatus.BrowserOptions{
			Engine:       cfg.Browser.Engine,
			Headless:     cfg.Browser.HeadlessEnabled(),
			ExecPath:     cfg.Browser.ExecPath,
			NoSandbox:    cfg.Browser.NoSandbox,
			WindowWidth:  cfg.Browser.WindowWidth,
			WindowHeight: cfg.Browser.WindowHeight,
		}),
		ecobeestatus.WithPort(cfg.Server.Port),
	}

	if cfg.PollInterval != 0 {
		opts = append(opts, ecobeestatus.WithPollingInterval(cfg.PollInterval.Duration()))
	}
	if cfg.PageTimeout != 0 {
		opts = append(opts, ecobeestatus.WithPageTimeout(cfg.PageTimeout.Duration()))
	}
	if cfg.PublishTimeout != 0 {
		opts = append(opts, ecobeestatus.WithPublishTimeout(cfg.PublishTimeout.Duration()))
	}
	if cfg.SensorEntity != "" {
		opts = append(opts, ecobeestatus.WithSensorEntity(cfg.SensorEntity))
	}
	if cfg.OperationalPhrase != "" {
		opts = append(opts, ecobeestatus.WithOperationalPhrase(cfg.OperationalPhrase))
	}
	if logger != nil {
		opts = append(opts, ecobeestatus.WithLogger(logger))
	}

	return opts
}

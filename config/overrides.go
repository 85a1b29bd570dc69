package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override the file,
// e.g. ECOBEE_STATUS_HUB_TOKEN.
const EnvPrefix = "ECOBEE_STATUS"

// Override keys. Each is both a command-line flag name and, upper-cased
// with dashes replaced by underscores, an environment variable suffix.
const (
	KeyHubURL        = "hub-url"
	KeyHubToken      = "hub-token"
	KeyStatusURL     = "status-url"
	KeyInterval      = "interval"
	KeyBrowserEngine = "browser-engine"
	KeyLogLevel      = "log-level"
	KeyLogFormat     = "log-format"
	KeyPort          = "port"
)

// RegisterFlags adds the override flags to fs. All default to empty so an
// unset flag never masks the file or the environment.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyHubURL, "", "Home Assistant base URL")
	fs.String(KeyHubToken, "", "Home Assistant long-lived access token")
	fs.String(KeyStatusURL, "", "status page URL")
	fs.String(KeyInterval, "", "wait between poll cycles, e.g. 10m")
	fs.String(KeyBrowserEngine, "", "page renderer: chrome or http")
	fs.String(KeyLogLevel, "", "log level: debug, info, warn or error")
	fs.String(KeyLogFormat, "", "log format: json or text")
	fs.String(KeyPort, "", "status API port, 0 disables it")
}

// NewViper returns a viper instance reading ECOBEE_STATUS_* environment
// variables and, when fs is non-nil, the flags registered by [RegisterFlags].
// Flags take precedence over the environment.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}
	return v, nil
}

// ApplyOverrides copies every non-empty override from v onto c.
func (c *Config) ApplyOverrides(v *viper.Viper) error {
	strs := []struct {
		key string
		dst *string
	}{
		{KeyHubURL, &c.HomeAssistant.URL},
		{KeyHubToken, &c.HomeAssistant.Token},
		{KeyStatusURL, &c.StatusURL},
		{KeyBrowserEngine, &c.Browser.Engine},
		{KeyLogLevel, &c.Log.Level},
		{KeyLogFormat, &c.Log.Format},
	}
	for _, s := range strs {
		if val := strings.TrimSpace(v.GetString(s.key)); val != "" {
			*s.dst = val
		}
	}

	if raw := strings.TrimSpace(v.GetString(KeyInterval)); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("%s: invalid duration %q: %w", KeyInterval, raw, err)
		}
		c.PollInterval = Duration(d)
	}

	if raw := strings.TrimSpace(v.GetString(KeyPort)); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", KeyPort, raw)
		}
		c.Server.Port = port
	}

	return nil
}

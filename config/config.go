// Package config provides YAML configuration parsing for the Ecobee status
// monitor.
//
// Example configuration:
//
//	status_url: https://status.ecobee.com
//	poll_interval: 10m
//
//	home_assistant:
//	  url: http://homeassistant.local:8123
//	  token: ${HA_TOKEN}
//
//	browser:
//	  engine: chrome
//	  headless: true
//
// Every key has a default except the Home Assistant URL and token. Values
// from the file can be overridden by command-line flags and ECOBEE_STATUS_*
// environment variables, see [LoadWithOverrides].
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/ecobeestatus"
	"github.com/jpalmerr/ecobeestatus/internal/browser"
	"github.com/jpalmerr/ecobeestatus/internal/hub"
	"github.com/jpalmerr/ecobeestatus/internal/logger"
	"github.com/jpalmerr/ecobeestatus/internal/statuspage"
)

// minPollInterval keeps a misconfigured monitor from hammering the status
// page.
const minPollInterval = 1 * time.Second

func init() {
	// report validation errors with the YAML key names
	validation.ErrorTag = "yaml"
}

// Config is the root configuration structure.
//
// Use [Parse], [Load] or [LoadWithOverrides] to create a Config; they apply
// defaults and validate the result.
type Config struct {
	// StatusURL is the status page to check.
	StatusURL string `yaml:"status_url"`

	// PollInterval is the wait between the end of one cycle and the start
	// of the next. Defaults to 10m.
	PollInterval Duration `yaml:"poll_interval"`

	// PageTimeout is the ceiling for loading and reading the status page.
	// Defaults to 15s.
	PageTimeout Duration `yaml:"page_timeout"`

	// PublishTimeout bounds the request to the hub. Defaults to 30s.
	PublishTimeout Duration `yaml:"publish_timeout"`

	// SensorEntity is the hub entity the observation is written to.
	SensorEntity string `yaml:"sensor_entity"`

	// OperationalPhrase is the text that means every system is up.
	OperationalPhrase string `yaml:"operational_phrase"`

	HomeAssistant HomeAssistantConfig `yaml:"home_assistant"`
	Browser       BrowserConfig       `yaml:"browser"`
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
}

// HomeAssistantConfig locates and authenticates against the hub.
type HomeAssistantConfig struct {
	// URL is the hub base address, e.g. http://homeassistant.local:8123.
	// Supports environment variable substitution.
	URL string `yaml:"url"`

	// Token is a long-lived access token.
	// Supports environment variable substitution.
	Token string `yaml:"token"`
}

// BrowserConfig selects and tunes the page renderer.
type BrowserConfig struct {
	// Engine is "chrome" (default) or "http".
	Engine string `yaml:"engine"`

	// Headless runs Chrome without a window. Defaults to true unless the
	// binary was built with the debug tag.
	Headless *bool `yaml:"headless"`

	// ExecPath overrides the Chrome binary location.
	ExecPath string `yaml:"exec_path"`

	// NoSandbox passes --no-sandbox to Chrome.
	NoSandbox bool `yaml:"no_sandbox"`

	WindowWidth  int `yaml:"window_width"`
	WindowHeight int `yaml:"window_height"`
}

// HeadlessEnabled reports the effective headless setting.
func (b BrowserConfig) HeadlessEnabled() bool {
	if b.Headless == nil {
		return defaultHeadless
	}
	return *b.Headless
}

// ServerConfig controls the optional status API.
type ServerConfig struct {
	// Port is the HTTP port for the status API. 0 disables it.
	Port int `yaml:"port"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (present when a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides reads the file at path, if any, then applies overrides
// from v (see [NewViper]) before validating. An empty path starts from
// defaults only, so the whole configuration can come from flags and
// environment variables.
func LoadWithOverrides(path string, v *viper.Viper) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}
	return finalize(&cfg, v)
}

// Parse parses YAML configuration data, applies defaults, expands
// environment variables and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return finalize(&cfg, nil)
}

func finalize(cfg *Config, v *viper.Viper) (*Config, error) {
	if err := cfg.expandEnv(); err != nil {
		return nil, err
	}
	if v != nil {
		if err := cfg.ApplyOverrides(v); err != nil {
			return nil, err
		}
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StatusURL == "" {
		c.StatusURL = ecobeestatus.DefaultStatusURL
	}
	if c.PollInterval == 0 {
		c.PollInterval = Duration(ecobeestatus.DefaultPollingInterval)
	}
	if c.PageTimeout == 0 {
		c.PageTimeout = Duration(ecobeestatus.DefaultPageTimeout)
	}
	if c.PublishTimeout == 0 {
		c.PublishTimeout = Duration(ecobeestatus.DefaultPublishTimeout)
	}
	if c.SensorEntity == "" {
		c.SensorEntity = hub.DefaultEntityID
	}
	if c.OperationalPhrase == "" {
		c.OperationalPhrase = statuspage.DefaultPhrase
	}
	if c.Browser.Engine == "" {
		c.Browser.Engine = ecobeestatus.EngineChrome
	}
	if c.Browser.WindowWidth == 0 {
		c.Browser.WindowWidth = browser.DefaultWindowWidth
	}
	if c.Browser.WindowHeight == 0 {
		c.Browser.WindowHeight = browser.DefaultWindowHeight
	}
	if c.Log.Level == "" {
		c.Log.Level = logger.LevelInfo
	}
	if c.Log.Format == "" {
		c.Log.Format = logger.FormatJSON
	}
}

// expandEnv substitutes environment variables in the fields that support it.
func (c *Config) expandEnv() error {
	fields := []struct {
		name string
		val  *string
	}{
		{"status_url", &c.StatusURL},
		{"home_assistant.url", &c.HomeAssistant.URL},
		{"home_assistant.token", &c.HomeAssistant.Token},
		{"browser.exec_path", &c.Browser.ExecPath},
	}

	for _, f := range fields {
		expanded, err := expandEnvVars(*f.val)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.val = expanded
	}
	return nil
}

// Validate checks the configuration. Defaults must already be applied.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StatusURL, validation.Required, validation.By(validateHTTPURL)),
		validation.Field(&c.PollInterval,
			validation.Required,
			validation.Min(Duration(minPollInterval)).Error("must be at least 1s"),
		),
		validation.Field(&c.PageTimeout,
			validation.Required,
			validation.Min(Duration(time.Second)).Error("must be at least 1s"),
		),
		validation.Field(&c.PublishTimeout,
			validation.Required,
			validation.Min(Duration(time.Second)).Error("must be at least 1s"),
		),
		validation.Field(&c.SensorEntity,
			validation.Required,
			validation.Match(entityIDPattern).Error("must be a domain.object_id entity id"),
		),
		validation.Field(&c.OperationalPhrase, validation.Required),
		validation.Field(&c.HomeAssistant),
		validation.Field(&c.Browser),
		validation.Field(&c.Server),
		validation.Field(&c.Log),
	)
}

// entityIDPattern matches Home Assistant entity ids such as sensor.ecobee_api_status.
var entityIDPattern = regexp.MustCompile(`^[a-z0-9_]+\.[a-z0-9_]+$`)

// Validate implements validation.Validatable.
func (h HomeAssistantConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.URL, validation.Required, validation.By(validateHTTPURL)),
		validation.Field(&h.Token, validation.Required),
	)
}

// Validate implements validation.Validatable.
func (b BrowserConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Engine, validation.Required, validation.In(ecobeestatus.EngineChrome, ecobeestatus.EngineHTTP)),
		validation.Field(&b.WindowWidth, validation.Min(1)),
		validation.Field(&b.WindowHeight, validation.Min(1)),
	)
}

// Validate implements validation.Validatable.
func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Min(0), validation.Max(65535)),
	)
}

// Validate implements validation.Validatable.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level,
			validation.Required,
			validation.In(logger.LevelDebug, logger.LevelInfo, logger.LevelWarn, logger.LevelError),
		),
		validation.Field(&l.Format, validation.Required, validation.In(logger.FormatJSON, logger.FormatText)),
	)
}

func validateHTTPURL(value interface{}) error {
	raw, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	if raw == "" {
		return nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}
	if parsed.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}
	return nil
}

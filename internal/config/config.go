// Package config provides configuration types and defaults for intake.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/intakehq/intake/internal/log"
)

// Config holds all configuration options for intake.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	UI      UIConfig      `mapstructure:"ui"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// APIConfig points intake at a registration backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	PageSize      int    `mapstructure:"page_size"`      // patients per table page
	HospitalLimit int    `mapstructure:"hospital_limit"` // hospitals loaded into the picker
	Ordering      string `mapstructure:"ordering"`       // default patients ordering, e.g. "-created_at"
}

// LogConfig controls the debug log.
type LogConfig struct {
	Debug bool   `mapstructure:"debug"`
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	Enabled bool `mapstructure:"enabled"`

	// Exporter is one of "none", "file", "stdout", "otlp".
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output path for the file exporter.
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector address for the otlp exporter.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate is the fraction of traces kept, 0.0 to 1.0.
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000/api",
			Timeout: 30 * time.Second,
		},
		UI: UIConfig{
			PageSize:      25,
			HospitalLimit: 100,
		},
		Log: LogConfig{
			Path:  "debug.log",
			Level: "debug",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if err := ValidateAPI(c.API); err != nil {
		return err
	}
	if c.UI.PageSize <= 0 {
		return fmt.Errorf("ui.page_size must be positive, got %d", c.UI.PageSize)
	}
	if c.UI.HospitalLimit <= 0 {
		return fmt.Errorf("ui.hospital_limit must be positive, got %d", c.UI.HospitalLimit)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return ValidateTracing(c.Tracing)
}

// ValidateAPI checks the backend settings.
func ValidateAPI(api APIConfig) error {
	if api.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(api.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", api.BaseURL)
	}
	if api.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	return nil
}

// ValidateTracing checks the tracing settings.
func ValidateTracing(tracing TracingConfig) error {
	switch tracing.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be one of none, file, stdout, otlp, got %q", tracing.Exporter)
	}
	if tracing.SampleRate < 0 || tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}
	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultTracesFilePath returns the trace file location under configDir.
func DefaultTracesFilePath(configDir string) string {
	return filepath.Join(configDir, "traces", "traces.jsonl")
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Intake Configuration

# Registration backend
api:
  base_url: http://localhost:8000/api
  # token: ""          # Bearer token sent with every request
  timeout: 30s         # Per-request timeout

# UI settings
ui:
  page_size: 25        # Patients per table page
  hospital_limit: 100  # Hospitals loaded into the picker
  # ordering: -created_at

# Debug log (also enabled by --debug or INTAKE_DEBUG=1)
log:
  debug: false
  path: debug.log
  level: debug         # debug, info, warn, error

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: ~/.config/intake/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # Collector endpoint for the otlp exporter
#   sample_rate: 1.0               # 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}

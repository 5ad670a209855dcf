// Package config loads the rosterd server configuration.
//
// Configuration is read from an optional YAML file, defaults are filled in for
// unset fields and ROSTERD_* environment variables are applied on top:
//
//	listener:
//	  addr: ":8080"
//	  tls:
//	    cert_file: /etc/rosterd/tls.crt
//	    key_file: /etc/rosterd/tls.key
//	logging:
//	  level: info
//	  format: json
//	roster:
//	  seed_file: /etc/rosterd/activities.yaml
//	  enforce_capacity: false
//	report:
//	  schedule: "0 7 * * 1-5"
//	monitoring:
//	  remote_write_url: http://victoriametrics:8428
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultListenAddr    = ":8080"
	defaultLogLevel      = "info"
	defaultLogFormat     = "json"
	defaultLogOutput     = "stdout"
	defaultMetricsPrefix = "rosterd"
	defaultJobName       = "rosterd"
)

// Config represents the complete server configuration.
type Config struct {
	Listener   ListenerConfig   `yaml:"listener"`
	Logging    LoggingConfig    `yaml:"logging"`
	Roster     RosterConfig     `yaml:"roster"`
	Report     ReportConfig     `yaml:"report"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ListenerConfig holds HTTP listener settings.
type ListenerConfig struct {
	// The listen address, defaults to :8080
	Addr string    `yaml:"addr" env:"ROSTERD_LISTEN_ADDR"`
	TLS  TLSConfig `yaml:"tls"`
}

// TLSConfig enables HTTPS when both files are set.
type TLSConfig struct {
	CertFile string `yaml:"cert_file" env:"ROSTERD_TLS_CERT_FILE"`
	KeyFile  string `yaml:"key_file" env:"ROSTERD_TLS_KEY_FILE"`
}

// Enabled reports whether TLS is configured.
func (c TLSConfig) Enabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

// LoggingConfig defines logging behavior settings
type LoggingConfig struct {
	Level     string `yaml:"level" env:"ROSTERD_LOG_LEVEL"`
	Format    string `yaml:"format" env:"ROSTERD_LOG_FORMAT"`
	Output    string `yaml:"output" env:"ROSTERD_LOG_OUTPUT"`
	AddSource bool   `yaml:"add_source" env:"ROSTERD_LOG_ADD_SOURCE"`
}

// RosterConfig controls how the activity roster is seeded and mutated.
type RosterConfig struct {
	// Path to a YAML file with the initial activities. The built-in
	// activities are used when empty.
	SeedFile string `yaml:"seed_file" env:"ROSTERD_SEED_FILE"`
	// Reject signups once an activity reaches max_participants.
	EnforceCapacity bool `yaml:"enforce_capacity" env:"ROSTERD_ENFORCE_CAPACITY"`
}

// ReportConfig schedules the periodic roster report.
type ReportConfig struct {
	// Standard 5 field cron spec. The report is disabled when empty.
	Schedule string `yaml:"schedule" env:"ROSTERD_REPORT_SCHEDULE"`
}

// MonitoringConfig holds metrics settings.
type MonitoringConfig struct {
	// Prometheus remote write endpoint the report pushes to. Optional.
	RemoteWriteURL string `yaml:"remote_write_url" env:"ROSTERD_REMOTE_WRITE_URL"`
	MetricsPrefix  string `yaml:"metrics_prefix" env:"ROSTERD_METRICS_PREFIX"`
	JobName        string `yaml:"jobname" env:"ROSTERD_JOB_NAME"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults sets reasonable default values for optional fields.
func (c *Config) SetDefaults() {
	if c.Listener.Addr == "" {
		c.Listener.Addr = defaultListenAddr
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = defaultLogOutput
	}
	if c.Monitoring.MetricsPrefix == "" {
		c.Monitoring.MetricsPrefix = defaultMetricsPrefix
	}
	if c.Monitoring.JobName == "" {
		c.Monitoring.JobName = defaultJobName
	}
}

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"json", "text"}
)

// Validate performs basic validation on the configuration. Empty fields are
// accepted; SetDefaults fills them in.
func (c *Config) Validate() error {
	if l := c.Logging.Level; l != "" && !slices.Contains(validLogLevels, strings.ToLower(l)) {
		return fmt.Errorf("logging.level must be one of: %s", strings.Join(validLogLevels, ", "))
	}
	if f := c.Logging.Format; f != "" && !slices.Contains(validLogFormats, f) {
		return fmt.Errorf("logging.format must be one of: %s", strings.Join(validLogFormats, ", "))
	}
	if (c.Listener.TLS.CertFile == "") != (c.Listener.TLS.KeyFile == "") {
		return errors.New("tls cert_file and key_file must be set together")
	}
	if c.Monitoring.RemoteWriteURL != "" {
		u, err := url.Parse(c.Monitoring.RemoteWriteURL)
		if err != nil {
			return fmt.Errorf("invalid remote_write_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("remote_write_url must be http or https, got %q", c.Monitoring.RemoteWriteURL)
		}
	}
	if c.Report.Schedule != "" {
		if _, err := cron.ParseStandard(c.Report.Schedule); err != nil {
			return fmt.Errorf("invalid report.schedule %q: %w", c.Report.Schedule, err)
		}
	}
	return nil
}

// LoadConfig reads the YAML config file at path, applies defaults and
// environment overrides, and validates the result. An empty path skips the
// file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode YAML config: %w", err)
	}
	return nil
}

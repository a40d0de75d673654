package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Upstream    UpstreamConfig  `toml:"upstream"`
	Queue       QueueConfig     `toml:"queue"`
	Storage     StorageConfig   `toml:"storage"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Logging     LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

// UpstreamConfig configures the TikTok backend REST client
type UpstreamConfig struct {
	BaseURL   string `toml:"base_url" validate:"required,url"`
	Token     string `toml:"token"`      // Bearer token for upstream auth
	Timeout   string `toml:"timeout"`    // e.g., "30s" - HTTP client timeout
	RateLimit string `toml:"rate_limit"` // e.g., "100ms" - minimum spacing between upstream calls
}

// QueueConfig configures the asset queue engine
type QueueConfig struct {
	PageSize     int    `toml:"page_size" validate:"gt=0"` // Assets per upstream list page
	PollInterval string `toml:"poll_interval"`             // e.g., "5s" - post-status poll spacing
	PollAttempts int    `toml:"poll_attempts" validate:"gt=0"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

// SchedulerConfig configures cron-driven scheduled posting
type SchedulerConfig struct {
	Enabled bool `toml:"enabled"`
}

// WebSocketConfig configures event broadcasting to UI clients
type WebSocketConfig struct {
	AllowedEvents     []string          `toml:"allowed_events"`     // Whitelist of events to broadcast (empty = allow all)
	ThrottleIntervals map[string]string `toml:"throttle_intervals"` // Per-event-type minimum broadcast spacing
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// NewDefaultConfig returns a Config populated with defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8920,
			Host: "localhost",
		},
		Upstream: UpstreamConfig{
			BaseURL:   "http://localhost:9000",
			Timeout:   "30s",
			RateLimit: "100ms",
		},
		Queue: QueueConfig{
			PageSize:     20,
			PollInterval: "5s",
			PollAttempts: 6,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/chimera",
			},
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
		WebSocket: WebSocketConfig{
			ThrottleIntervals: map[string]string{},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CHIMERA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("CHIMERA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CHIMERA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if baseURL := os.Getenv("CHIMERA_UPSTREAM_URL"); baseURL != "" {
		config.Upstream.BaseURL = baseURL
	}
	if token := os.Getenv("CHIMERA_UPSTREAM_TOKEN"); token != "" {
		config.Upstream.Token = token
	}

	if pageSize := os.Getenv("CHIMERA_QUEUE_PAGE_SIZE"); pageSize != "" {
		if ps, err := strconv.Atoi(pageSize); err == nil {
			config.Queue.PageSize = ps
		}
	}
	if pollInterval := os.Getenv("CHIMERA_QUEUE_POLL_INTERVAL"); pollInterval != "" {
		config.Queue.PollInterval = pollInterval
	}

	if badgerPath := os.Getenv("CHIMERA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("CHIMERA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("CHIMERA_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := time.ParseDuration(c.Upstream.Timeout); err != nil {
		return fmt.Errorf("invalid upstream timeout %q: %w", c.Upstream.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Queue.PollInterval); err != nil {
		return fmt.Errorf("invalid queue poll interval %q: %w", c.Queue.PollInterval, err)
	}

	return nil
}

// PollInterval returns the parsed post-status poll interval
func (c *QueueConfig) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// GetTimeout returns the parsed upstream HTTP timeout
func (c *UpstreamConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// GetRateLimit returns the parsed minimum spacing between upstream calls
func (c *UpstreamConfig) GetRateLimit() time.Duration {
	d, err := time.ParseDuration(c.RateLimit)
	if err != nil || d <= 0 {
		return 100 * time.Millisecond
	}
	return d
}

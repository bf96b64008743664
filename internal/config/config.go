// Package config loads the agentcore runtime configuration from YAML,
// expanding environment variables before parsing so secrets never need to
// live in the file itself.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level runtime configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Tools     ToolsConfig     `yaml:"tools"`
	Bus       BusConfig       `yaml:"bus"`
	Graph     GraphConfig     `yaml:"graph"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig configures the long-running serve command.
type ServerConfig struct {
	MetricsAddr string `yaml:"metrics_addr"`
}

// LLMConfig configures the available model providers and the default chain.
type LLMConfig struct {
	DefaultProvider string                       `yaml:"default_provider"`
	Providers       map[string]LLMProviderConfig `yaml:"providers"`
	FallbackChain   []string                     `yaml:"fallback_chain"`
}

// LLMProviderConfig configures a single named provider.
type LLMProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url"`
}

// ToolsConfig configures the tool registry's execution limits.
type ToolsConfig struct {
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	MaxConcurrent  int           `yaml:"max_concurrent"`
}

// BusConfig configures the message bus.
type BusConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// GraphConfig configures the state-graph engine's checkpoint backend.
type GraphConfig struct {
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	MaxSteps   int              `yaml:"max_steps"`
}

// CheckpointConfig selects and configures one of the checkpoint.Store backends.
type CheckpointConfig struct {
	// Backend is one of "memory", "file", "sqlite", "redis".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`     // file, sqlite
	Addr    string `yaml:"addr"`     // redis
	Prefix  string `yaml:"prefix"`   // redis key prefix
	Timeout time.Duration `yaml:"timeout"`
}

// ScheduleConfig configures the cron-driven workflow scheduler.
type ScheduleConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxConcurrency int           `yaml:"max_concurrency"`
}

// TelemetryConfig configures metrics and tracing.
type TelemetryConfig struct {
	ServiceName    string  `yaml:"service_name"`
	TraceEndpoint  string  `yaml:"trace_endpoint"`
	TraceInsecure  bool    `yaml:"trace_insecure"`
	TraceSampling  float64 `yaml:"trace_sampling"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses a YAML config file at path, expanding ${VAR}/$VAR
// references against the process environment first so credentials can be
// injected without touching the file on disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with conservative defaults for every section,
// suitable as a base that Load overlays file values onto.
func Default() *Config {
	return &Config{
		Server: ServerConfig{MetricsAddr: ":9090"},
		Tools: ToolsConfig{
			DefaultTimeout: 30 * time.Second,
			MaxConcurrent:  10,
		},
		Bus: BusConfig{BufferSize: 256},
		Graph: GraphConfig{
			Checkpoint: CheckpointConfig{Backend: "memory"},
			MaxSteps:   1000,
		},
		Schedule: ScheduleConfig{
			PollInterval:   10 * time.Second,
			MaxConcurrency: 5,
		},
		Telemetry: TelemetryConfig{ServiceName: "agentcore"},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
	}
}

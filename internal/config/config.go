// Package config defines the server configuration, loaded from YAML with
// environment variable expansion. All values are read-only at request
// time.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/HomyeeKing/crates.io/internal/observability"
)

// Default bridge sizing.
const (
	// DefaultMaxContentLength is the maximum accepted declared body size.
	DefaultMaxContentLength int64 = 128 * 1024 * 1024 // 128 MB

	// DefaultQueueSize is the default pending-task queue depth for the
	// blocking pool.
	DefaultQueueSize = 128

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// Config is the root server configuration.
type Config struct {
	Server ServerConfig            `yaml:"server"`
	Bridge BridgeConfig            `yaml:"bridge"`
	Log    observability.LogConfig `yaml:"log"`
	Sentry SentryConfig            `yaml:"sentry"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	ListenAddress   string   `yaml:"listenAddress"`
	ReadTimeout     Duration `yaml:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
}

// BridgeConfig configures the synchronous-handler bridge.
type BridgeConfig struct {
	// Workers is the number of blocking pool workers. Zero selects the
	// default of four per CPU, with a floor of 32.
	Workers int `yaml:"workers"`

	// QueueSize is the pending-task queue depth.
	QueueSize int `yaml:"queueSize"`
}

// SentryConfig configures error reporting. An empty DSN disables it.
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress:   ":8888",
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(DefaultShutdownTimeout),
		},
		Bridge: BridgeConfig{
			Workers:   defaultWorkers(),
			QueueSize: DefaultQueueSize,
		},
		Log:    observability.DefaultLogConfig(),
		Sentry: SentryConfig{},
	}
}

func defaultWorkers() int {
	workers := runtime.GOMAXPROCS(0) * 4
	if workers < 32 {
		workers = 32
	}
	return workers
}

// applyDefaults fills zero values with defaults after unmarshaling.
func (c *Config) applyDefaults() {
	defaults := Default()

	if c.Server.ListenAddress == "" {
		c.Server.ListenAddress = defaults.Server.ListenAddress
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaults.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaults.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	if c.Bridge.Workers == 0 {
		c.Bridge.Workers = defaults.Bridge.Workers
	}
	if c.Bridge.QueueSize == 0 {
		c.Bridge.QueueSize = defaults.Bridge.QueueSize
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
	if c.Log.Output == "" {
		c.Log.Output = defaults.Log.Output
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Bridge.Workers < 1 {
		return fmt.Errorf("bridge.workers must be at least 1, got %d", c.Bridge.Workers)
	}
	if c.Bridge.QueueSize < 0 {
		return fmt.Errorf("bridge.queueSize must not be negative, got %d", c.Bridge.QueueSize)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

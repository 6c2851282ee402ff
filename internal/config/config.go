// Package config provides the configuration structure for the musicgen worker.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Default values used when optional settings are omitted.
const (
	DefaultListenAddress     = ":8188"
	DefaultEngineTimeoutSecs = 600
	DefaultSampleRate        = 48000
	DefaultAudioFormat       = "mp3"
)

// WorkerConfig holds the settings for the platform-facing invocation surface.
type WorkerConfig struct {
	ListenAddress string `toml:"listen_address"`
}

// EngineConfig holds the settings for the standalone inference service the
// worker delegates generation to.
type EngineConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SampleRate     int    `toml:"sample_rate"`
	AudioFormat    string `toml:"audio_format"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Worker WorkerConfig `toml:"worker"`
	Engine EngineConfig `toml:"engine"`
	Paths  PathsConfig  `toml:"paths"`
}

// Load loads the configuration for the musicgen worker and applies defaults
// for omitted optional settings.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Worker.ListenAddress == "" {
		c.Worker.ListenAddress = DefaultListenAddress
	}

	if c.Engine.TimeoutSeconds == 0 {
		c.Engine.TimeoutSeconds = DefaultEngineTimeoutSecs
	}

	if c.Engine.SampleRate == 0 {
		c.Engine.SampleRate = DefaultSampleRate
	}

	if c.Engine.AudioFormat == "" {
		c.Engine.AudioFormat = DefaultAudioFormat
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	defaultQueueSize = 128
)

type Logging struct {
	Level      string `yaml:"level"`       // zerolog level name
	Format     string `yaml:"format"`      // "console" or "json"
	File       string `yaml:"file"`        // Optional rotating log file
	MaxSizeMB  int    `yaml:"max_size_mb"` // Rotation threshold
	MaxBackups int    `yaml:"max_backups"` // Rotated files kept
}

type Sequencer struct {
	QueueSize int `yaml:"queue_size"`
}

type Config struct {
	Logging   Logging   `yaml:"logging"`
	Sequencer Sequencer `yaml:"sequencer"`
}

func Default() *Config {
	return &Config{
		Logging: Logging{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Sequencer: Sequencer{
			QueueSize: defaultQueueSize,
		},
	}
}

// Load reads a YAML file over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Logging.Format)
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB <= 0 {
		return fmt.Errorf("%w: max_size_mb must be positive", ErrInvalidConfig)
	}
	if c.Logging.MaxBackups < 0 {
		return fmt.Errorf("%w: max_backups must not be negative", ErrInvalidConfig)
	}
	if c.Sequencer.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}

func overrideWithEnv(cfg *Config) error {
	if level := os.Getenv("MATCHBOOK_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("MATCHBOOK_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
	if size := os.Getenv("MATCHBOOK_QUEUE_SIZE"); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			return fmt.Errorf("%w: MATCHBOOK_QUEUE_SIZE: %w", ErrInvalidConfig, err)
		}
		cfg.Sequencer.QueueSize = n
	}
	return nil
}

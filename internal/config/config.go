// Package config loads the settings shared by the fast5 commands from
// defaults, an optional YAML file and FAST5_ environment variables.
package config

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-fast5/fast5"
	"github.com/robert-malhotra/go-fast5/internal/logging"
)

// Default values.
const (
	DefaultThreads        = 1
	DefaultBatchSize      = 4000
	DefaultRecursive      = false
	DefaultFollowSymlinks = true
	DefaultCompression    = "vbz"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = logging.FormatText
)

// Config holds the settings of one command invocation. Field tags use
// mapstructure for viper unmarshalling.
type Config struct {
	Threads        int       `mapstructure:"threads"         yaml:"threads"`
	BatchSize      int       `mapstructure:"batch_size"      yaml:"batch_size"`
	Recursive      bool      `mapstructure:"recursive"       yaml:"recursive"`
	FollowSymlinks bool      `mapstructure:"follow_symlinks" yaml:"follow_symlinks"`
	Compression    string    `mapstructure:"compression"     yaml:"compression"`
	MetricsFile    string    `mapstructure:"metrics_file"    yaml:"metrics_file"`
	Log            LogConfig `mapstructure:"log"             yaml:"log"`
}

// LogConfig selects the level and handler of the command logger.
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Sentinel errors for configuration validation.
var (
	ErrInvalidThreads     = errors.New("threads must be positive")
	ErrInvalidBatchSize   = errors.New("batch_size must be positive")
	ErrInvalidCompression = errors.New("unknown compression")
	ErrInvalidLogLevel    = errors.New("unknown log.level")
	ErrInvalidLogFormat   = errors.New("log.format must be text or json")
)

// Validate checks the settings and returns the first error found.
func (c *Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidThreads, c.Threads)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidBatchSize, c.BatchSize)
	}
	if c.Compression != "" {
		if _, err := fast5.LookupCompression(c.Compression); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCompression, err)
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	if c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Log.Format)
	}
	return nil
}

// TargetCompression returns the configured compression, or false when
// none is set.
func (c *Config) TargetCompression() (fast5.Compression, bool) {
	if c.Compression == "" {
		return fast5.Compression{}, false
	}
	comp, err := fast5.LookupCompression(c.Compression)
	if err != nil {
		return fast5.Compression{}, false
	}
	return comp, true
}

// Logging returns the logger options for c.
func (c *Config) Logging() logging.Options {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.Options{Level: level, Format: c.Log.Format}
}

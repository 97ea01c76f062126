package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = ".fast5"
	configType = "yaml"
	envPrefix  = "FAST5"
)

// Load reads the configuration from path, or from .fast5.yaml in the
// working directory or $HOME when path is empty, on top of the defaults.
// FAST5_<KEY> environment variables override file values, with nested
// keys joined by underscores (FAST5_LOG_LEVEL). A missing config file
// found by search is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("threads", DefaultThreads)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("recursive", DefaultRecursive)
	v.SetDefault("follow_symlinks", DefaultFollowSymlinks)
	v.SetDefault("compression", DefaultCompression)
	v.SetDefault("metrics_file", "")
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}

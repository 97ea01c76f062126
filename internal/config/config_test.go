package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-fast5/fast5"
	"github.com/robert-malhotra/go-fast5/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fast5.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, &config.Config{
		Threads:        1,
		BatchSize:      4000,
		FollowSymlinks: true,
		Compression:    "vbz",
		Log:            config.LogConfig{Level: "info", Format: "text"},
	}, cfg)

	comp, ok := cfg.TargetCompression()
	require.True(t, ok)
	assert.Equal(t, fast5.VBZ, comp)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
threads: 8
batch_size: 250
recursive: true
compression: gzip
log:
  level: debug
  format: json
`)
	t.Setenv("FAST5_THREADS", "3")
	t.Setenv("FAST5_LOG_FORMAT", "text")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Threads)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.True(t, cfg.Recursive)
	assert.True(t, cfg.FollowSymlinks)
	assert.Equal(t, "gzip", cfg.Compression)
	assert.Equal(t, config.LogConfig{Level: "debug", Format: "text"}, cfg.Log)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"threads", "threads: 0\n", config.ErrInvalidThreads},
		{"batch size", "batch_size: -2\n", config.ErrInvalidBatchSize},
		{"compression", "compression: bzip2\n", config.ErrInvalidCompression},
		{"log level", "log:\n  level: loud\n", config.ErrInvalidLogLevel},
		{"log format", "log:\n  format: xml\n", config.ErrInvalidLogFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	_, err := config.Load(writeConfig(t, "threads: [\n"))
	require.Error(t, err)
}

func TestValidateEmptyCompression(t *testing.T) {
	t.Parallel()
	cfg := config.Config{Threads: 2, BatchSize: 10, Log: config.LogConfig{Level: "warn", Format: "json"}}
	require.NoError(t, cfg.Validate())
	_, ok := cfg.TargetCompression()
	assert.False(t, ok)
}

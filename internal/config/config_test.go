package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
sequencer:
  queue_size: 16
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 10, cfg.Logging.MaxSizeMB, "unset keys keep their defaults")
	assert.Equal(t, 16, cfg.Sequencer.QueueSize)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MATCHBOOK_LOG_LEVEL", "warn")
	t.Setenv("MATCHBOOK_QUEUE_SIZE", "4")

	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Sequencer.QueueSize)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"format", "logging:\n  format: xml\n"},
		{"queue size", "sequencer:\n  queue_size: 0\n"},
		{"file without size", "logging:\n  file: out.log\n  max_size_mb: 0\n"},
		{"negative backups", "logging:\n  max_backups: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("MATCHBOOK_QUEUE_SIZE", "lots")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "logging: [\n"))
	assert.Error(t, err)
}

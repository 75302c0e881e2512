package logging

import (
	"os"
	"path/filepath"
	"testing"

	"matchbook/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_Level(t *testing.T) {
	logger, closer, err := Setup(config.Logging{Level: "debug", Format: "json"})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestSetup_BadLevel(t *testing.T) {
	_, _, err := Setup(config.Logging{Level: "loud", Format: "json"})
	assert.Error(t, err)
}

func TestSetup_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matchbook.log")
	logger, closer, err := Setup(config.Logging{
		Level:      "info",
		Format:     "json",
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
	})
	require.NoError(t, err)

	logger.Info().Int64("volume", 29).Msg("replay finished")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"volume":29`)
	assert.Contains(t, string(data), `"message":"replay finished"`)
}

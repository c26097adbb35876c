package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_pipeline_poc/internal/config"
)

func TestInitLoggerSetsLevel(t *testing.T) {
	err := InitLogger(config.LogConfig{
		Level:  "debug",
		Format: "json",
		Output: "stderr",
	})
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	assert.NotNil(t, GetLogger())
}

func TestInitLoggerRejectsUnknownLevel(t *testing.T) {
	err := InitLogger(config.LogConfig{
		Level:  "loudest",
		Format: "json",
		Output: "stderr",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

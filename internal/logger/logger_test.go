package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rapport.log")

	require.NoError(t, Setup(LogConfig{Level: "info", Format: "json", Output: path}))
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	l := WithComponent("test")
	l.Info().Str("invoice_number", "RE-20240115-00001").Msg("invoice created")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"test"`)
	assert.Contains(t, string(data), `"invoice_number":"RE-20240115-00001"`)
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Setup(LogConfig{Level: "loud"}))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "stderr", cfg.Output)
	assert.NoError(t, Setup(cfg))
}

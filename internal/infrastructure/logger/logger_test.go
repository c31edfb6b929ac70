package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("json logger at configured level", func(t *testing.T) {
		log, err := New(Config{Level: "warn", Format: "json", Output: "stdout"})
		require.NoError(t, err)

		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		log, err := New(Config{Level: "verbose", Format: "json", Output: "stdout"})
		require.NoError(t, err)

		assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("console format", func(t *testing.T) {
		log, err := New(Config{Level: "debug", Format: "console", Output: "stderr"})
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "payables.log")
		log, err := New(Config{Level: "info", Format: "json", Output: path})
		require.NoError(t, err)

		log.Info("disbursement released")
		require.NoError(t, Sync(log))

		assert.FileExists(t, path)
	})
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "stdout", outputPath(""))
	assert.Equal(t, "stdout", outputPath("STDOUT"))
	assert.Equal(t, "stderr", outputPath("stderr"))
	assert.Equal(t, "/var/log/payables.log", outputPath("/var/log/payables.log"))
}

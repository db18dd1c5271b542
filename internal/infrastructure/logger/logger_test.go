package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, levelFor(tt.in), tt.in)
	}
}

func TestNew(t *testing.T) {
	t.Run("json logger writes to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "service.log")
		log, err := New(&Config{
			Level:      "debug",
			Format:     "json",
			Output:     path,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		require.NoError(t, err)

		log.Info("application submitted")
		require.NoError(t, Sync(log))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"application submitted"`)
		assert.Contains(t, string(data), `"level":"info"`)
	})

	t.Run("level filters lower entries", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "service.log")
		log, err := New(&Config{Level: "warn", Format: "json", Output: path})
		require.NoError(t, err)

		log.Info("dropped")
		log.Warn("kept")
		require.NoError(t, Sync(log))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "dropped")
		assert.Contains(t, string(data), "kept")
	})

	t.Run("console logger builds", func(t *testing.T) {
		log, err := New(DefaultConfig())
		require.NoError(t, err)
		log.Info("boot")
	})
}

func TestConfigs(t *testing.T) {
	dev := DefaultConfig()
	assert.Equal(t, "console", dev.Format)

	prod := ProductionConfig()
	assert.Equal(t, "json", prod.Format)
	assert.Equal(t, "info", prod.Level)
	assert.Equal(t, "stdout", prod.Output)
}

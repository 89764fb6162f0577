package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseSlugs(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    []string
		wantErr bool
	}{
		{name: "none", values: nil, want: nil},
		{name: "single", values: []string{"sola24"}, want: []string{"sola24"}},
		{name: "comma list and repeats", values: []string{"sola24, pfila24", "sola24"}, want: []string{"sola24", "pfila24"}},
		{name: "empty entries ignored", values: []string{",sola24,,"}, want: []string{"sola24"}},
		{name: "invalid characters", values: []string{"sola 24"}, wantErr: true},
		{name: "leading dash", values: []string{"-sola"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSlugs(tt.values...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)

	level, err = ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "export.log")
		logger, err := NewLogger(LoggerConfig{Level: "info", OutputPath: path, Format: "json", Service: "bjr-export"})
		require.NoError(t, err)

		logger.Info("Export finished")
		require.NoError(t, logger.Sync())
		assert.FileExists(t, path)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := NewLogger(LoggerConfig{Level: "loud"})
		assert.Error(t, err)
	})
}

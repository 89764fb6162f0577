package container

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/service"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			Path:         filepath.Join(t.TempDir(), "pretix.db"),
			MaxOpenConns: 2,
			MaxIdleConns: 1,
			Migrate:      true,
		},
		Export: config.ExportConfig{
			Timezone:          "Europe/Berlin",
			ShortDateLayout:   "02.01.2006",
			PositionBatchSize: 100,
			InvoiceBatchSize:  100,
			OutputDir:         t.TempDir(),
			FilePrefix:        "bjr",
			CSVDelimiter:      ";",
		},
		Logger: config.LoggerConfig{Level: "info"},
	}
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(t), nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Database.Driver = "mysql"
	_, err = NewContainer(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	assert.False(t, c.Ready())
	assert.False(t, c.Health(context.Background()).Overall)

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()))

	health := c.Health(context.Background())
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)
	assert.Equal(t, "disabled", health.Components["lark"].Message)

	_, err = c.ExportService().ExportWorkbook(context.Background(), nil, io.Discard)
	assert.ErrorIs(t, err, service.ErrNoEvents)

	_, err = c.ExportService().ExportAndDeliver(context.Background(), nil)
	assert.ErrorIs(t, err, service.ErrDeliveryDisabled)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	health = c.Health(context.Background())
	assert.False(t, health.Overall)
	assert.False(t, health.Components["database"].Healthy)
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(context.Background()))
}

func TestSugaredLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := NewSugaredLogger(zap.New(core))

	logger.Info("HTTP request", "method", "GET", "status", 200, 42, "dropped")
	logger.Error("Export failed", "error", io.ErrUnexpectedEOF)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]interface{}{"method": "GET", "status": int64(200)}, entries[0].ContextMap())
	assert.Equal(t, io.ErrUnexpectedEOF.Error(), entries[1].ContextMap()["error"])
}

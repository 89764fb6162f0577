package config

import (
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/service"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/export"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/infrastructure/persistence/postgres"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/lark"
	"github.com/dpsg-wuerzburg/bjr-exporter/pkg/database"
	"github.com/dpsg-wuerzburg/bjr-exporter/pkg/utils"
)

// The methods below bridge the file-based config loaded by viper and the
// configuration structs of the individual components.

// SQLiteConfig returns the settings for the sqlite backend.
// The database is opened read-only unless migrations are requested.
func (c *Config) SQLiteConfig() database.Config {
	return database.Config{
		Path:            c.Database.Path,
		MaxOpenConns:    c.Database.MaxOpenConns,
		MaxIdleConns:    c.Database.MaxIdleConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
		ReadOnly:        !c.Database.Migrate,
	}
}

// PostgresConfig returns the settings for the postgres backend
func (c *Config) PostgresConfig() postgres.Config {
	return postgres.Config{
		DSN:             c.Database.DSN,
		MaxConns:        int32(c.Database.MaxOpenConns),
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// ServiceExportConfig returns the export service settings.
// Call only on a validated config; the timezone is assumed to load.
func (c *Config) ServiceExportConfig() service.ExportConfig {
	loc, _ := c.Export.Location()
	return service.ExportConfig{
		Exporter: export.Config{
			PositionBatchSize: c.Export.PositionBatchSize,
			InvoiceBatchSize:  c.Export.InvoiceBatchSize,
			Location:          loc,
			ShortDateLayout:   c.Export.ShortDateLayout,
		},
		FilePrefix: c.Export.FilePrefix,
	}
}

// LarkClientConfig returns the Lark client credentials
func (c *Config) LarkClientConfig() lark.Config {
	return lark.Config{
		AppID:     c.Lark.AppID,
		AppSecret: c.Lark.AppSecret,
		BaseURL:   c.Lark.BaseURL,
	}
}

// LoggerSettings returns the logger settings
func (c *Config) LoggerSettings() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}

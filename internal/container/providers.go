// Package container provides dependency injection and lifecycle management
// for the BJR exporter.
package container

import (
	"context"
	"fmt"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/port"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/service"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/config"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/infrastructure/persistence/postgres"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/infrastructure/persistence/repository"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/infrastructure/persistence/sqlite"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/infrastructure/spreadsheet"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/infrastructure/storage"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/lark"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/metrics"
	"github.com/dpsg-wuerzburg/bjr-exporter/pkg/database"
	"go.uber.org/zap"
)

// DatabaseBundle holds the storage adapters of one backend.
type DatabaseBundle struct {
	Events    port.EventRepository
	Positions port.PositionRepository
	Invoices  port.InvoiceRepository
	Snapshots port.SnapshotManager

	ping  func(ctx context.Context) error
	close func() error
}

// ProvideDatabase opens the configured backend and creates its repositories.
// The sqlite backend applies the bundled schema when migrations are enabled.
func ProvideDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Database.Driver {
	case config.DriverSQLite:
		return provideSQLite(cfg, logger)
	case config.DriverPostgres:
		return providePostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func provideSQLite(cfg *config.Config, logger *zap.Logger) (*DatabaseBundle, error) {
	db, err := database.New(cfg.SQLiteConfig(), logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Migrate {
		migrator := database.NewMigrator(db, logger)
		if err := migrator.RunMigrations(database.Migrations); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		Events:    repository.NewEventRepository(db.DB, logger),
		Positions: repository.NewPositionRepository(db.DB, logger),
		Invoices:  repository.NewInvoiceRepository(db.DB, logger),
		Snapshots: sqlite.NewDB(db.DB, logger),
		ping:      db.PingContext,
		close:     db.Close,
	}, nil
}

func providePostgres(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*DatabaseBundle, error) {
	pool, err := postgres.NewPool(ctx, cfg.PostgresConfig(), logger)
	if err != nil {
		return nil, err
	}

	return &DatabaseBundle{
		Events:    postgres.NewEventRepository(pool, logger),
		Positions: postgres.NewPositionRepository(pool, logger),
		Invoices:  postgres.NewInvoiceRepository(pool, logger),
		Snapshots: postgres.NewSnapshots(pool, logger),
		ping:      pool.Ping,
		close: func() error {
			pool.Close()
			return nil
		},
	}, nil
}

// ProvideDeliverer creates the Lark deliverer, or nil when delivery is disabled.
func ProvideDeliverer(cfg *config.Config, logger *zap.Logger) port.ExportDeliverer {
	if !cfg.Lark.Enabled {
		return nil
	}
	client := lark.NewClient(cfg.LarkClientConfig(), logger)
	messages := lark.NewMessageAPI(client, logger)
	return lark.NewDeliverer(messages, cfg.Lark.ReceiveIDType, cfg.Lark.ReceiveID, logger)
}

// ProvideExportService wires the export service onto a database bundle.
func ProvideExportService(
	cfg *config.Config,
	db *DatabaseBundle,
	deliverer port.ExportDeliverer,
	registry *metrics.Registry,
	logger *zap.Logger,
) service.ExportService {
	writers := service.Writers{
		Workbook: spreadsheet.NewXLSXWriterFactory(logger),
		CSV:      spreadsheet.NewCSVWriterFactory(cfg.Export.Delimiter()),
	}
	return service.NewExportService(
		db.Events,
		db.Positions,
		db.Invoices,
		db.Snapshots,
		writers,
		storage.NewLocalFileStorage(cfg.Export.OutputDir, logger),
		deliverer,
		registry,
		cfg.ServiceExportConfig(),
		logger,
	)
}

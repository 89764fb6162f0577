package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/port"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/export"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/metrics"
	"go.uber.org/zap"
)

// Output formats, also used as metric labels
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// DefaultFilePrefix starts every export file name
const DefaultFilePrefix = "bjr"

// ExportResult describes a finished export
type ExportResult struct {
	FileName string
	// Path is set when the export was kept in the export store
	Path string
	// Events lists the slugs of the exported events
	Events []string
	// Rows counts data rows per sheet identifier, headers excluded
	Rows     map[string]int
	Duration time.Duration
}

// ExportConfig controls file naming and the exporter itself
type ExportConfig struct {
	Exporter   export.Config
	FilePrefix string
}

// Writers creates the output serializers per format
type Writers struct {
	Workbook port.WorkbookWriterFactory
	CSV      port.WorkbookWriterFactory
}

// ExportService runs BJR exports for a set of events
type ExportService interface {
	// ExportWorkbook writes all sheets as an xlsx workbook to w
	ExportWorkbook(ctx context.Context, slugs []string, w io.Writer) (*ExportResult, error)
	// ExportSheetCSV writes a single sheet as CSV to w
	ExportSheetCSV(ctx context.Context, slugs []string, sheet string, w io.Writer) (*ExportResult, error)
	// ExportAndDeliver writes the workbook to the export store and delivers it
	ExportAndDeliver(ctx context.Context, slugs []string) (*ExportResult, error)
}

type exportServiceImpl struct {
	events    port.EventRepository
	positions port.PositionRepository
	invoices  port.InvoiceRepository
	snapshots port.SnapshotManager
	writers   Writers
	store     port.ExportStore
	deliverer port.ExportDeliverer
	metrics   *metrics.Registry
	config    ExportConfig
	now       func() time.Time
	logger    *zap.Logger
}

// NewExportService creates a new ExportService.
// deliverer may be nil when delivery is disabled.
func NewExportService(
	events port.EventRepository,
	positions port.PositionRepository,
	invoices port.InvoiceRepository,
	snapshots port.SnapshotManager,
	writers Writers,
	store port.ExportStore,
	deliverer port.ExportDeliverer,
	registry *metrics.Registry,
	config ExportConfig,
	logger *zap.Logger,
) ExportService {
	if config.FilePrefix == "" {
		config.FilePrefix = DefaultFilePrefix
	}
	return &exportServiceImpl{
		events:    events,
		positions: positions,
		invoices:  invoices,
		snapshots: snapshots,
		writers:   writers,
		store:     store,
		deliverer: deliverer,
		metrics:   registry,
		config:    config,
		now:       time.Now,
		logger:    logger,
	}
}

// ExportWorkbook writes all sheets as an xlsx workbook to w
func (s *exportServiceImpl) ExportWorkbook(ctx context.Context, slugs []string, w io.Writer) (*ExportResult, error) {
	return s.export(ctx, slugs, FormatXLSX, export.Sheets(), s.writers.Workbook, w)
}

// ExportSheetCSV writes a single sheet as CSV to w
func (s *exportServiceImpl) ExportSheetCSV(ctx context.Context, slugs []string, sheet string, w io.Writer) (*ExportResult, error) {
	found, ok := export.LookupSheet(sheet)
	if !ok {
		return nil, fmt.Errorf("%w: %s", export.ErrUnknownSheet, sheet)
	}
	return s.export(ctx, slugs, FormatCSV, []export.Sheet{found}, s.writers.CSV, w)
}

// ExportAndDeliver writes the workbook to the export store and delivers it
func (s *exportServiceImpl) ExportAndDeliver(ctx context.Context, slugs []string) (*ExportResult, error) {
	if s.deliverer == nil {
		return nil, ErrDeliveryDisabled
	}

	sheets := export.Sheets()
	result, err := s.observe(slugs, FormatXLSX, func() (*ExportResult, error) {
		events, err := s.resolveEvents(ctx, slugs)
		if err != nil {
			return nil, err
		}
		fileName := s.fileName(eventSlugs(events), sheets, FormatXLSX)

		file, err := s.store.Create(ctx, fileName)
		if err != nil {
			return nil, fmt.Errorf("failed to create export file: %w", err)
		}
		result, err := s.run(ctx, events, fileName, FormatXLSX, sheets, s.writers.Workbook, file)
		if err != nil {
			if discardErr := file.Discard(); discardErr != nil {
				s.logger.Warn("Failed to discard export file", zap.Error(discardErr))
			}
			return nil, err
		}
		if err := file.Commit(); err != nil {
			return nil, fmt.Errorf("failed to store export file: %w", err)
		}
		result.Path = s.store.Path(fileName)
		return result, nil
	})
	if err != nil {
		return nil, err
	}

	err = s.deliver(ctx, result)
	s.metrics.Deliveries.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		s.logger.Error("Failed to deliver export",
			zap.String("file", result.FileName),
			zap.Error(err))
		return result, err
	}

	s.logger.Info("Export delivered",
		zap.String("file", result.FileName),
		zap.String("path", result.Path))
	return result, nil
}

func (s *exportServiceImpl) deliver(ctx context.Context, result *ExportResult) error {
	content, err := s.store.Open(ctx, result.FileName)
	if err != nil {
		return fmt.Errorf("failed to open export file: %w", err)
	}
	defer content.Close()

	if err := s.deliverer.Deliver(ctx, result.FileName, content); err != nil {
		return fmt.Errorf("failed to deliver export: %w", err)
	}
	return nil
}

func (s *exportServiceImpl) export(
	ctx context.Context,
	slugs []string,
	format string,
	sheets []export.Sheet,
	newWriter port.WorkbookWriterFactory,
	w io.Writer,
) (*ExportResult, error) {
	return s.observe(slugs, format, func() (*ExportResult, error) {
		events, err := s.resolveEvents(ctx, slugs)
		if err != nil {
			return nil, err
		}
		fileName := s.fileName(eventSlugs(events), sheets, format)
		return s.run(ctx, events, fileName, format, sheets, newWriter, w)
	})
}

// observe records metrics and logs for one export run
func (s *exportServiceImpl) observe(slugs []string, format string, fn func() (*ExportResult, error)) (*ExportResult, error) {
	start := s.now()
	result, err := fn()
	elapsed := s.now().Sub(start)

	s.metrics.Exports.WithLabelValues(format, metrics.Result(err)).Inc()
	s.metrics.ExportDuration.Observe(elapsed.Seconds())
	if err != nil {
		s.logger.Error("Export failed",
			zap.Strings("events", slugs),
			zap.String("format", format),
			zap.Error(err))
		return nil, err
	}

	result.Duration = elapsed
	for sheet, n := range result.Rows {
		s.metrics.Rows.WithLabelValues(sheet).Add(float64(n))
	}
	s.logger.Info("Export finished",
		zap.String("file", result.FileName),
		zap.Strings("events", result.Events),
		zap.Any("rows", result.Rows),
		zap.Duration("duration", elapsed))
	return result, nil
}

func (s *exportServiceImpl) run(
	ctx context.Context,
	events []*entity.Event,
	fileName string,
	format string,
	sheets []export.Sheet,
	newWriter port.WorkbookWriterFactory,
	w io.Writer,
) (*ExportResult, error) {
	result := &ExportResult{
		FileName: fileName,
		Events:   eventSlugs(events),
		Rows:     make(map[string]int, len(sheets)),
	}

	writer, err := newWriter(w)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s writer: %w", format, err)
	}

	err = s.snapshots.WithSnapshot(ctx, func(ctx context.Context) error {
		exporter := export.NewExporter(s.positions, s.invoices, events, s.config.Exporter, s.logger)
		for _, sheet := range sheets {
			n, err := writeSheet(ctx, exporter, sheet, writer)
			if err != nil {
				return err
			}
			result.Rows[string(sheet.Identifier)] = n
		}
		return nil
	})
	if err != nil {
		if abortErr := writer.Abort(); abortErr != nil {
			s.logger.Warn("Failed to abort writer", zap.Error(abortErr))
		}
		return nil, err
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish %s output: %w", format, err)
	}
	return result, nil
}

// writeSheet copies one sheet into writer and returns the number of data rows
func writeSheet(ctx context.Context, exporter *export.Exporter, sheet export.Sheet, writer port.WorkbookWriter) (int, error) {
	if err := writer.StartSheet(sheet.Title); err != nil {
		return 0, fmt.Errorf("failed to start sheet %s: %w", sheet.Identifier, err)
	}

	rows := -1
	for row, err := range exporter.IterateSheet(ctx, nil, string(sheet.Identifier)) {
		if err != nil {
			return 0, fmt.Errorf("failed to export sheet %s: %w", sheet.Identifier, err)
		}
		if err := writer.WriteRow(row); err != nil {
			return 0, fmt.Errorf("failed to write sheet %s: %w", sheet.Identifier, err)
		}
		rows++
	}
	return max(rows, 0), nil
}

// resolveEvents loads the requested events; no slugs selects every event
func (s *exportServiceImpl) resolveEvents(ctx context.Context, slugs []string) ([]*entity.Event, error) {
	var (
		events []*entity.Event
		err    error
	)
	if len(slugs) == 0 {
		events, err = s.events.ListAll(ctx)
	} else {
		events, err = s.events.ListBySlugs(ctx, slugs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	if len(slugs) > 0 && len(events) < len(slugs) {
		found := make(map[string]bool, len(events))
		for _, ev := range events {
			found[ev.Slug] = true
		}
		for _, slug := range slugs {
			if !found[slug] {
				s.logger.Warn("Event not found", zap.String("slug", slug))
			}
		}
	}

	if len(events) == 0 {
		return nil, ErrNoEvents
	}
	return events, nil
}

func (s *exportServiceImpl) fileName(slugs []string, sheets []export.Sheet, format string) string {
	parts := []string{s.config.FilePrefix}
	if len(slugs) <= 3 {
		parts = append(parts, slugs...)
	} else {
		parts = append(parts, fmt.Sprintf("%d-events", len(slugs)))
	}
	if format == FormatCSV && len(sheets) == 1 {
		parts = append(parts, string(sheets[0].Identifier))
	}
	parts = append(parts, s.now().Format("20060102-150405"))
	return strings.Join(parts, "_") + "." + format
}

func eventSlugs(events []*entity.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Slug
	}
	return out
}

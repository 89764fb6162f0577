package export

import (
	"context"
	"iter"
	"time"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/port"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"
	"go.uber.org/zap"
)

const (
	// Identifier is the exporter's registration key on the host platform
	Identifier = "exporterbjr"
	// VerboseName is the exporter's display name
	VerboseName = "BJR AEJ/JBM Export"
)

// Default batch sizes for the richer per-record fetches
const (
	DefaultPositionBatchSize = 10000
	DefaultInvoiceBatchSize  = 1000
)

// DefaultShortDateLayout renders invoice dates the way the German locale does
const DefaultShortDateLayout = "02.01.2006"

// FormData carries the export form options chosen by the user.
// None of the current sheets read it.
type FormData map[string]any

// Config controls batching and formatting of the export
type Config struct {
	PositionBatchSize int
	InvoiceBatchSize  int
	// Location is the timezone event start dates are evaluated in
	Location *time.Location
	// ShortDateLayout is a time layout for invoice dates
	ShortDateLayout string
}

func (c Config) withDefaults() Config {
	if c.PositionBatchSize == 0 {
		c.PositionBatchSize = DefaultPositionBatchSize
	}
	if c.InvoiceBatchSize == 0 {
		c.InvoiceBatchSize = DefaultInvoiceBatchSize
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.ShortDateLayout == "" {
		c.ShortDateLayout = DefaultShortDateLayout
	}
	return c
}

// Exporter produces the BJR sheets for a set of events
type Exporter struct {
	positions port.PositionRepository
	invoices  port.InvoiceRepository
	events    map[int64]*entity.Event
	eventIDs  []int64
	config    Config
	logger    *zap.Logger
}

// NewExporter creates an exporter scoped to events
func NewExporter(
	positions port.PositionRepository,
	invoices port.InvoiceRepository,
	events []*entity.Event,
	config Config,
	logger *zap.Logger,
) *Exporter {
	byID := make(map[int64]*entity.Event, len(events))
	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		if _, dup := byID[ev.ID]; dup {
			continue
		}
		byID[ev.ID] = ev
		ids = append(ids, ev.ID)
	}

	return &Exporter{
		positions: positions,
		invoices:  invoices,
		events:    byID,
		eventIDs:  ids,
		config:    config.withDefaults(),
		logger:    logger,
	}
}

// Sheets returns the sheets this exporter provides
func (e *Exporter) Sheets() []Sheet {
	return Sheets()
}

// IterateSheet returns the rows of sheet, header first.
// An unknown sheet yields nothing.
func (e *Exporter) IterateSheet(ctx context.Context, _ FormData, sheet string) iter.Seq2[Row, error] {
	kind := SheetKind(sheet)
	switch {
	case kind.IsPositionSheet():
		return e.iteratePositions(ctx, kind)
	case kind == SheetBelege:
		return e.iterateInvoices(ctx)
	default:
		e.logger.Warn("Requested unknown sheet", zap.String("sheet", sheet))
		return func(func(Row, error) bool) {}
	}
}

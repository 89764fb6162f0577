package port

import (
	"context"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"
)

// EventRepository defines read access to events
type EventRepository interface {
	// ListBySlugs returns the events with the given slugs, ordered by slug.
	// Unknown slugs are skipped.
	ListBySlugs(ctx context.Context, slugs []string) ([]*entity.Event, error)

	// ListAll returns every event ordered by slug
	ListAll(ctx context.Context) ([]*entity.Event, error)
}

// PositionRepository defines read access to order positions
type PositionRepository interface {
	// ListOrderedIDs returns the IDs of all positions of the given events,
	// ordered by order datetime, position in order and ID
	ListOrderedIDs(ctx context.Context, eventIDs []int64) ([]int64, error)

	// GetByIDs loads positions with item, attendee name and answers.
	// The result order is unspecified.
	GetByIDs(ctx context.Context, ids []int64) ([]*entity.Position, error)
}

// InvoiceRepository defines read access to invoices
type InvoiceRepository interface {
	// ListOrderedIDs returns the IDs of all invoices of the given events,
	// ordered by full invoice number and ID
	ListOrderedIDs(ctx context.Context, eventIDs []int64) ([]int64, error)

	// GetByIDs loads invoices with their line totals and the number of the
	// invoice they cancel. The result order is unspecified.
	GetByIDs(ctx context.Context, ids []int64) ([]*entity.Invoice, error)
}

// SnapshotManager runs read operations against one consistent view of the data
type SnapshotManager interface {
	WithSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

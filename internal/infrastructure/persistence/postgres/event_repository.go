package postgres

import (
	"context"
	"fmt"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/port"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// EventRepository implements port.EventRepository on PostgreSQL
type EventRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewEventRepository creates a new event repository
func NewEventRepository(pool *pgxpool.Pool, logger *zap.Logger) *EventRepository {
	return &EventRepository{
		pool:   pool,
		logger: logger,
	}
}

// ListBySlugs returns the events with the given slugs ordered by slug
func (r *EventRepository) ListBySlugs(ctx context.Context, slugs []string) ([]*entity.Event, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	const query = `
SELECT id, slug, name, date_from
FROM pretixbase_event
WHERE slug = ANY($1)
ORDER BY slug`
	return r.list(ctx, query, slugs)
}

// ListAll returns every event ordered by slug
func (r *EventRepository) ListAll(ctx context.Context) ([]*entity.Event, error) {
	const query = `
SELECT id, slug, name, date_from
FROM pretixbase_event
ORDER BY slug`
	return r.list(ctx, query)
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Event, error) {
	rows, err := executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list events", zap.Error(err))
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*entity.Event
	for rows.Next() {
		var ev entity.Event
		if err := rows.Scan(&ev.ID, &ev.Slug, &ev.Name, &ev.DateFrom); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev.Name = entity.LocalizedString(ev.Name, entity.DefaultLocales...)
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// Verify interface compliance
var _ port.EventRepository = (*EventRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/port"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// EventRepository implements port.EventRepository on SQLite
type EventRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *sql.DB, logger *zap.Logger) *EventRepository {
	return &EventRepository{
		db:     db,
		logger: logger,
	}
}

// ListBySlugs returns the events with the given slugs ordered by slug
func (r *EventRepository) ListBySlugs(ctx context.Context, slugs []string) ([]*entity.Event, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, slug, name, date_from
		FROM pretixbase_event
		WHERE slug IN (` + placeholders(len(slugs)) + `)
		ORDER BY slug
	`

	args := make([]any, len(slugs))
	for i, s := range slugs {
		args[i] = s
	}

	return r.list(ctx, query, args...)
}

// ListAll returns every event ordered by slug
func (r *EventRepository) ListAll(ctx context.Context) ([]*entity.Event, error) {
	query := `
		SELECT id, slug, name, date_from
		FROM pretixbase_event
		ORDER BY slug
	`
	return r.list(ctx, query)
}

func (r *EventRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Event, error) {
	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, args...)
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

	return events, rows.Err()
}

// Verify interface compliance
var _ port.EventRepository = (*EventRepository)(nil)

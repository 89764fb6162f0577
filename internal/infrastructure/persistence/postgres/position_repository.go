package postgres

import (
	"context"
	"fmt"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/port"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PositionRepository implements port.PositionRepository on PostgreSQL
type PositionRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(pool *pgxpool.Pool, logger *zap.Logger) *PositionRepository {
	return &PositionRepository{
		pool:   pool,
		logger: logger,
	}
}

// ListOrderedIDs returns the position IDs of the given events in export order
func (r *PositionRepository) ListOrderedIDs(ctx context.Context, eventIDs []int64) ([]int64, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	const query = `
SELECT op.id
FROM pretixbase_orderposition op
JOIN pretixbase_order o ON o.id = op.order_id
WHERE o.event_id = ANY($1)
ORDER BY o.datetime, op.positionid, op.id`
	rows, err := executor(ctx, r.pool).Query(ctx, query, eventIDs)
	if err != nil {
		r.logger.Error("Failed to list position IDs", zap.Int64s("event_ids", eventIDs), zap.Error(err))
		return nil, fmt.Errorf("failed to list position IDs: %w", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan position IDs: %w", err)
	}
	return ids, nil
}

// GetByIDs loads positions with item name, order data and answers
func (r *PositionRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entity.Position, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := executor(ctx, r.pool)

	positions, err := r.scanPositions(ctx, q, ids)
	if err != nil {
		r.logger.Error("Failed to get positions", zap.Int("count", len(ids)), zap.Error(err))
		return nil, err
	}

	byID := make(map[int64]*entity.Position, len(positions))
	for _, p := range positions {
		byID[p.ID] = p
	}
	if err := loadAnswers(ctx, q, ids, byID); err != nil {
		r.logger.Error("Failed to get answers", zap.Int("count", len(ids)), zap.Error(err))
		return nil, err
	}
	return positions, nil
}

func (r *PositionRepository) scanPositions(ctx context.Context, q querier, ids []int64) ([]*entity.Position, error) {
	const query = `
SELECT op.id, o.event_id, op.positionid, o.code, o.datetime, i.name, COALESCE(op.attendee_name_parts::text, '')
FROM pretixbase_orderposition op
JOIN pretixbase_order o ON o.id = op.order_id
JOIN pretixbase_item i ON i.id = op.item_id
WHERE op.id = ANY($1)`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	positions := make([]*entity.Position, 0, len(ids))
	for rows.Next() {
		var p entity.Position
		var itemName, nameParts string
		if err := rows.Scan(&p.ID, &p.EventID, &p.PositionID, &p.OrderCode, &p.OrderDatetime, &itemName, &nameParts); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		p.ItemName = entity.LocalizedString(itemName, entity.DefaultLocales...)
		parts, err := entity.ParseNameParts(nameParts)
		if err != nil {
			r.logger.Warn("Invalid attendee name parts", zap.Int64("position_id", p.ID), zap.Error(err))
		}
		p.AttendeeName = parts
		positions = append(positions, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}
	return positions, nil
}

// loadAnswers adds answers to their positions in answer ID order
func loadAnswers(ctx context.Context, q querier, ids []int64, byID map[int64]*entity.Position) error {
	const query = `
SELECT qa.orderposition_id, q.identifier, qa.answer
FROM pretixbase_questionanswer qa
JOIN pretixbase_question q ON q.id = qa.question_id
WHERE qa.orderposition_id = ANY($1)
ORDER BY qa.id`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to get answers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var positionID int64
		var a entity.Answer
		if err := rows.Scan(&positionID, &a.QuestionIdentifier, &a.Value); err != nil {
			return fmt.Errorf("failed to scan answer: %w", err)
		}
		if p, ok := byID[positionID]; ok {
			p.Answers.Add(a)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate answers: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.PositionRepository = (*PositionRepository)(nil)

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

// PositionRepository implements port.PositionRepository on SQLite
type PositionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, logger *zap.Logger) *PositionRepository {
	return &PositionRepository{
		db:     db,
		logger: logger,
	}
}

// ListOrderedIDs returns the position IDs of the given events in export order
func (r *PositionRepository) ListOrderedIDs(ctx context.Context, eventIDs []int64) ([]int64, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT op.id
		FROM pretixbase_orderposition op
		JOIN pretixbase_order o ON o.id = op.order_id
		WHERE o.event_id IN (` + placeholders(len(eventIDs)) + `)
		ORDER BY o.datetime, op.positionid, op.id
	`

	ids, err := scanIDs(ctx, sqlite.Executor(ctx, r.db), query, int64Args(eventIDs)...)
	if err != nil {
		r.logger.Error("Failed to list position IDs", zap.Int64s("event_ids", eventIDs), zap.Error(err))
		return nil, fmt.Errorf("failed to list position IDs: %w", err)
	}
	return ids, nil
}

// GetByIDs loads positions with item name, attendee name and answers
func (r *PositionRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entity.Position, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	q := sqlite.Executor(ctx, r.db)
	in := placeholders(len(ids))
	args := int64Args(ids)

	query := `
		SELECT op.id, o.event_id, op.positionid, o.code, o.datetime, i.name, op.attendee_name_parts
		FROM pretixbase_orderposition op
		JOIN pretixbase_order o ON o.id = op.order_id
		JOIN pretixbase_item i ON i.id = op.item_id
		WHERE op.id IN (` + in + `)
	`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to get positions", zap.Int("count", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	positions := make([]*entity.Position, 0, len(ids))
	byID := make(map[int64]*entity.Position, len(ids))
	for rows.Next() {
		var p entity.Position
		var itemName, nameParts string
		if err := rows.Scan(&p.ID, &p.EventID, &p.PositionID, &p.OrderCode, &p.OrderDatetime, &itemName, &nameParts); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		p.ItemName = entity.LocalizedString(itemName, entity.DefaultLocales...)
		p.AttendeeName = r.parseNameParts(p.ID, nameParts)
		positions = append(positions, &p)
		byID[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}

	answerQuery := `
		SELECT qa.orderposition_id, q.identifier, qa.answer
		FROM pretixbase_questionanswer qa
		JOIN pretixbase_question q ON q.id = qa.question_id
		WHERE qa.orderposition_id IN (` + in + `)
		ORDER BY qa.id
	`

	if err := loadAnswers(ctx, q, answerQuery, args, byID); err != nil {
		r.logger.Error("Failed to get answers", zap.Int("count", len(ids)), zap.Error(err))
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}

	return positions, nil
}

func (r *PositionRepository) parseNameParts(positionID int64, raw string) entity.NameParts {
	parts, err := entity.ParseNameParts(raw)
	if err != nil {
		r.logger.Warn("Invalid attendee name parts",
			zap.Int64("position_id", positionID),
			zap.Error(err))
	}
	return parts
}

// loadAnswers adds answers in query order to the positions in byID
func loadAnswers(ctx context.Context, q sqlite.Queryer, query string, args []any, byID map[int64]*entity.Position) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var positionID int64
		var a entity.Answer
		if err := rows.Scan(&positionID, &a.QuestionIdentifier, &a.Value); err != nil {
			return err
		}
		if p, ok := byID[positionID]; ok {
			p.Answers.Add(a)
		}
	}
	return rows.Err()
}

func scanIDs(ctx context.Context, q sqlite.Queryer, query string, args ...any) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Verify interface compliance
var _ port.PositionRepository = (*PositionRepository)(nil)

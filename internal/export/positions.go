package export

import (
	"context"
	"fmt"
	"iter"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"
	"go.uber.org/zap"
)

func (e *Exporter) iteratePositions(ctx context.Context, kind SheetKind) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		if !yield(PositionHeader(kind), nil) {
			return
		}

		ids, err := e.positions.ListOrderedIDs(ctx, e.eventIDs)
		if err != nil {
			yield(nil, fmt.Errorf("failed to list positions: %w", err))
			return
		}

		e.logger.Debug("Iterating positions",
			zap.String("sheet", string(kind)),
			zap.Int("positions", len(ids)),
			zap.Int("batch_size", e.config.PositionBatchSize))

		batches := OrderedBatches(ctx, ids, e.config.PositionBatchSize, e.positions.GetByIDs,
			func(p *entity.Position) int64 { return p.ID })

		for batch, err := range batches {
			if err != nil {
				yield(nil, fmt.Errorf("failed to load positions: %w", err))
				return
			}
			for _, p := range batch {
				if !yield(positionRow(p, e.positionAge(p), kind), nil) {
					return
				}
			}
		}
	}
}

// positionAge resolves the age of p at the start of its event
func (e *Exporter) positionAge(p *entity.Position) int {
	event, ok := e.events[p.EventID]
	if !ok {
		e.logger.Warn("Position outside of exported events",
			zap.Int64("position_id", p.ID),
			zap.Int64("event_id", p.EventID))
		return AgeUnknown
	}

	age := ResolveAge(p.Answers, event.StartDate(e.config.Location))
	if age == AgeUnknown && hasAgeAnswers(p.Answers) {
		e.logger.Debug("Unusable age answers",
			zap.Int64("position_id", p.ID),
			zap.String("order", p.OrderCode))
	}
	return age
}

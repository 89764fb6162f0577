package export

import (
	"context"
	"fmt"
	"iter"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"
	"go.uber.org/zap"
)

func (e *Exporter) iterateInvoices(ctx context.Context) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		if !yield(InvoiceHeader(), nil) {
			return
		}

		ids, err := e.invoices.ListOrderedIDs(ctx, e.eventIDs)
		if err != nil {
			yield(nil, fmt.Errorf("failed to list invoices: %w", err))
			return
		}

		e.logger.Debug("Iterating invoices",
			zap.Int("invoices", len(ids)),
			zap.Int("batch_size", e.config.InvoiceBatchSize))

		batches := OrderedBatches(ctx, ids, e.config.InvoiceBatchSize, e.invoices.GetByIDs,
			func(i *entity.Invoice) int64 { return i.ID })

		for batch, err := range batches {
			if err != nil {
				yield(nil, fmt.Errorf("failed to load invoices: %w", err))
				return
			}
			for _, inv := range batch {
				if !yield(e.invoiceRow(inv), nil) {
					return
				}
			}
		}
	}
}

func (e *Exporter) invoiceRow(inv *entity.Invoice) Row {
	return Row{
		inv.FullInvoiceNo,
		inv.Date.Format(e.config.ShortDateLayout),
		inv.Payer(),
		"",
		inv.GrossOrZero(),
		inv.CancellationNote(),
	}
}

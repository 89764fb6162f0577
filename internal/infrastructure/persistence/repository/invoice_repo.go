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

// InvoiceRepository implements port.InvoiceRepository on SQLite
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) *InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// ListOrderedIDs returns the invoice IDs of the given events ordered by invoice number
func (r *InvoiceRepository) ListOrderedIDs(ctx context.Context, eventIDs []int64) ([]int64, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id
		FROM pretixbase_invoice
		WHERE event_id IN (` + placeholders(len(eventIDs)) + `)
		ORDER BY full_invoice_no, id
	`

	ids, err := scanIDs(ctx, sqlite.Executor(ctx, r.db), query, int64Args(eventIDs)...)
	if err != nil {
		r.logger.Error("Failed to list invoice IDs", zap.Int64s("event_ids", eventIDs), zap.Error(err))
		return nil, fmt.Errorf("failed to list invoice IDs: %w", err)
	}
	return ids, nil
}

// GetByIDs loads invoices with gross and net totals of their lines.
// The platform stores amounts as decimals; they are read as text and
// parsed to cents so no float rounding occurs.
func (r *InvoiceRepository) GetByIDs(ctx context.Context, ids []int64) ([]*entity.Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := sqlite.Executor(ctx, r.db)

	invoices, err := scanInvoices(ctx, q, ids)
	if err != nil {
		r.logger.Error("Failed to get invoices", zap.Int("count", len(ids)), zap.Error(err))
		return nil, err
	}

	lines, err := loadInvoiceLines(ctx, q, ids)
	if err != nil {
		r.logger.Error("Failed to get invoice lines", zap.Int("count", len(ids)), zap.Error(err))
		return nil, err
	}
	for _, inv := range invoices {
		inv.TotalGross, inv.TotalNet = entity.SumLines(lines[inv.ID])
	}
	return invoices, nil
}

func scanInvoices(ctx context.Context, q sqlite.Queryer, ids []int64) ([]*entity.Invoice, error) {
	query := `
		SELECT inv.id, inv.full_invoice_no, inv.date, COALESCE(inv.invoice_to_company, ''),
			COALESCE(inv.invoice_to_name, ''), inv.is_cancellation, inv.refers_id,
			COALESCE(ref.full_invoice_no, '')
		FROM pretixbase_invoice inv
		LEFT JOIN pretixbase_invoice ref ON ref.id = inv.refers_id
		WHERE inv.id IN (` + placeholders(len(ids)) + `)
	`

	rows, err := q.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]*entity.Invoice, 0, len(ids))
	for rows.Next() {
		var inv entity.Invoice
		var refersID sql.NullInt64
		if err := rows.Scan(
			&inv.ID,
			&inv.FullInvoiceNo,
			&inv.Date,
			&inv.InvoiceToCompany,
			&inv.InvoiceToName,
			&inv.IsCancellation,
			&refersID,
			&inv.RefersFullInvoiceNo,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		if refersID.Valid {
			inv.RefersID = &refersID.Int64
		}
		invoices = append(invoices, &inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return invoices, nil
}

// loadInvoiceLines returns the lines of the given invoices keyed by invoice ID
func loadInvoiceLines(ctx context.Context, q sqlite.Queryer, ids []int64) (map[int64][]entity.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, CAST(gross_value AS TEXT), CAST(tax_value AS TEXT)
		FROM pretixbase_invoiceline
		WHERE invoice_id IN (` + placeholders(len(ids)) + `)
		ORDER BY id
	`

	rows, err := q.QueryContext(ctx, query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[int64][]entity.InvoiceLine)
	for rows.Next() {
		var gross, tax string
		var line entity.InvoiceLine
		if err := rows.Scan(&line.ID, &line.InvoiceID, &gross, &tax); err != nil {
			return nil, fmt.Errorf("failed to scan invoice line: %w", err)
		}
		if line.GrossValue, err = entity.ParseCents(gross); err != nil {
			return nil, fmt.Errorf("failed to parse gross value of invoice line %d: %w", line.ID, err)
		}
		if line.TaxValue, err = entity.ParseCents(tax); err != nil {
			return nil, fmt.Errorf("failed to parse tax value of invoice line %d: %w", line.ID, err)
		}
		lines[line.InvoiceID] = append(lines[line.InvoiceID], line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoice lines: %w", err)
	}
	return lines, nil
}

// Verify interface compliance
var _ port.InvoiceRepository = (*InvoiceRepository)(nil)

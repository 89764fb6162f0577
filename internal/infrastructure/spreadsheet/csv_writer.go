package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/port"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"
)

// ErrSingleSheet is returned when a second sheet is started on a CSV writer
var ErrSingleSheet = errors.New("csv output holds a single sheet")

// CSVWriter writes one sheet as comma- or semicolon-separated values
type CSVWriter struct {
	w       *csv.Writer
	started bool
}

// NewCSVWriter creates a CSV writer using delimiter between fields
func NewCSVWriter(out io.Writer, delimiter rune) *CSVWriter {
	w := csv.NewWriter(out)
	if delimiter != 0 {
		w.Comma = delimiter
	}
	return &CSVWriter{w: w}
}

// NewCSVWriterFactory returns a port.WorkbookWriterFactory producing CSV output
func NewCSVWriterFactory(delimiter rune) port.WorkbookWriterFactory {
	return func(w io.Writer) (port.WorkbookWriter, error) {
		return NewCSVWriter(w, delimiter), nil
	}
}

// StartSheet accepts exactly one sheet; the title is not part of the output
func (c *CSVWriter) StartSheet(string) error {
	if c.started {
		return ErrSingleSheet
	}
	c.started = true
	return nil
}

// WriteRow formats and writes one record
func (c *CSVWriter) WriteRow(row []any) error {
	if !c.started {
		return ErrNoSheet
	}
	record := make([]string, len(row))
	for i, v := range row {
		record[i] = formatCell(v)
	}
	if err := c.w.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close flushes buffered records
func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// Abort stops writing; records already flushed stay in the output
func (c *CSVWriter) Abort() error {
	return nil
}

func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	case entity.Cents:
		return c.String()
	case fmt.Stringer:
		return c.String()
	default:
		return fmt.Sprint(c)
	}
}

// Verify interface compliance
var _ port.WorkbookWriter = (*CSVWriter)(nil)

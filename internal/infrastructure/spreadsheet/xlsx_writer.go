// Package spreadsheet serializes exported sheets into workbook files.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"

	"github.com/dpsg-wuerzburg/bjr-exporter/internal/application/port"
	"github.com/dpsg-wuerzburg/bjr-exporter/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// defaultSheet is the sheet excelize creates with every new file
const defaultSheet = "Sheet1"

// ErrNoSheet is returned when a row is written before any sheet was started
var ErrNoSheet = errors.New("no sheet started")

// XLSXWriter streams sheets into an Office Open XML workbook
type XLSXWriter struct {
	out    io.Writer
	file   *excelize.File
	stream *excelize.StreamWriter
	sheets int
	row    int

	headerStyle int
	moneyStyle  int
	logger      *zap.Logger
}

// NewXLSXWriter creates a workbook writer that serializes into out on Close
func NewXLSXWriter(out io.Writer, logger *zap.Logger) (*XLSXWriter, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	// Built-in number format 2 is "0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create money style: %w", err)
	}

	return &XLSXWriter{
		out:         out,
		file:        f,
		headerStyle: headerStyle,
		moneyStyle:  moneyStyle,
		logger:      logger,
	}, nil
}

// NewXLSXWriterFactory returns a port.WorkbookWriterFactory producing XLSX workbooks
func NewXLSXWriterFactory(logger *zap.Logger) port.WorkbookWriterFactory {
	return func(w io.Writer) (port.WorkbookWriter, error) {
		return NewXLSXWriter(w, logger)
	}
}

// StartSheet finishes the current sheet and begins a new one named title
func (x *XLSXWriter) StartSheet(title string) error {
	if err := x.flush(); err != nil {
		return err
	}

	if x.sheets == 0 {
		if err := x.file.SetSheetName(defaultSheet, title); err != nil {
			return fmt.Errorf("failed to name sheet %q: %w", title, err)
		}
	} else if _, err := x.file.NewSheet(title); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", title, err)
	}

	stream, err := x.file.NewStreamWriter(title)
	if err != nil {
		return fmt.Errorf("failed to open sheet %q: %w", title, err)
	}

	x.stream = stream
	x.sheets++
	x.row = 0
	return nil
}

// WriteRow appends row to the current sheet. The first row of a sheet is
// styled as header; entity.Cents cells become numbers with two decimals.
func (x *XLSXWriter) WriteRow(row []any) error {
	if x.stream == nil {
		return ErrNoSheet
	}
	x.row++

	values := make([]any, len(row))
	for i, v := range row {
		switch {
		case x.row == 1:
			values[i] = excelize.Cell{StyleID: x.headerStyle, Value: v}
		default:
			values[i] = x.cellValue(v)
		}
	}

	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", x.row, err)
	}
	if err := x.stream.SetRow(cell, values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", x.row, err)
	}
	return nil
}

func (x *XLSXWriter) cellValue(v any) any {
	switch c := v.(type) {
	case entity.Cents:
		return excelize.Cell{StyleID: x.moneyStyle, Value: c.Float64()}
	case *entity.Cents:
		if c == nil {
			return nil
		}
		return excelize.Cell{StyleID: x.moneyStyle, Value: c.Float64()}
	default:
		return v
	}
}

// Close finishes the workbook and writes it to the output
func (x *XLSXWriter) Close() error {
	defer func() {
		if err := x.file.Close(); err != nil {
			x.logger.Warn("Failed to release workbook", zap.Error(err))
		}
	}()

	if err := x.flush(); err != nil {
		return err
	}
	if err := x.file.Write(x.out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	x.logger.Debug("Workbook written", zap.Int("sheets", x.sheets))
	return nil
}

// Abort discards the workbook
func (x *XLSXWriter) Abort() error {
	x.stream = nil
	if err := x.file.Close(); err != nil {
		return fmt.Errorf("failed to discard workbook: %w", err)
	}
	return nil
}

func (x *XLSXWriter) flush() error {
	if x.stream == nil {
		return nil
	}
	if err := x.stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	x.stream = nil
	return nil
}

// Verify interface compliance
var _ port.WorkbookWriter = (*XLSXWriter)(nil)

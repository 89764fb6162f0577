package port

import (
	"context"
	"io"
)

// WorkbookWriter receives sheets row by row
type WorkbookWriter interface {
	// StartSheet begins a new sheet; subsequent rows belong to it
	StartSheet(title string) error
	WriteRow(row []any) error
	// Close finishes the workbook and flushes it to the underlying writer
	Close() error
	// Abort releases resources without writing anything
	Abort() error
}

// WorkbookWriterFactory creates a writer that serializes into w
type WorkbookWriterFactory func(w io.Writer) (WorkbookWriter, error)

// ExportDeliverer hands a finished export file to its recipient
type ExportDeliverer interface {
	Deliver(ctx context.Context, fileName string, content io.Reader) error
}

// ExportStore keeps finished export files
type ExportStore interface {
	// Create starts writing name; the file becomes visible on Commit
	Create(ctx context.Context, name string) (PendingFile, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	// Path returns where name is stored
	Path(name string) string
}

// PendingFile is an export file being written
type PendingFile interface {
	io.Writer
	// Commit publishes the file under its final name
	Commit() error
	// Discard removes the partial file
	Discard() error
}

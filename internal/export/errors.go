package export

import "errors"

var (
	// ErrInvalidBatchSize is returned when a batch size is not positive
	ErrInvalidBatchSize = errors.New("batch size must be positive")

	// ErrUnknownSheet is returned for sheet identifiers the exporter does not provide
	ErrUnknownSheet = errors.New("unknown sheet")
)

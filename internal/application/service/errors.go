package service

import "errors"

var (
	// ErrNoEvents is returned when the requested scope resolves to no events
	ErrNoEvents = errors.New("no events to export")

	// ErrDeliveryDisabled is returned by ExportAndDeliver when no deliverer is configured
	ErrDeliveryDisabled = errors.New("export delivery is not configured")
)

package entity

import "time"

// Event represents a ticketed event whose registrations are exported
type Event struct {
	ID       int64     `json:"id"`
	Slug     string    `json:"slug"`
	Name     string    `json:"name"`
	DateFrom time.Time `json:"date_from"`
}

// StartDate returns the calendar date the event starts on in loc.
// A nil loc means UTC.
func (e *Event) StartDate(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	start := e.DateFrom.In(loc)
	return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
}

package model

import (
	"strings"
	"time"
)

const (
	EventOriginLocal    = "local"
	EventOriginExternal = "external"

	// ExternalEventIDPrefix marks ids assigned by the calendar provider.
	ExternalEventIDPrefix = "google:"

	DefaultEventColor = "#3b82f6"
)

// CalendarEvent is either stored locally (origin "local") or fetched live from
// the external provider (origin "external"). External events are never stored.
type CalendarEvent struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"-"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Start       time.Time `db:"start_time" json:"start"`
	End         time.Time `db:"end_time" json:"end"`
	Color       string    `db:"color" json:"color"`
	AllDay      bool      `db:"-" json:"all_day"`
	Origin      string    `db:"-" json:"origin"`
	ReadOnly    bool      `db:"-" json:"read_only"`
	HTMLLink    string    `db:"-" json:"html_link,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"-"`
	UpdatedAt   time.Time `db:"updated_at" json:"-"`
}

// IsExternalEventID reports whether id was assigned by the external provider.
func IsExternalEventID(id string) bool {
	return strings.HasPrefix(id, ExternalEventIDPrefix)
}

// EventSlot identifies an event for duplicate detection across stores: exact
// title plus start and end instants. Zones do not matter, only the moment.
type EventSlot struct {
	Title string
	Start int64
	End   int64
}

func (e *CalendarEvent) Slot() EventSlot {
	return EventSlot{Title: e.Title, Start: e.Start.UnixNano(), End: e.End.UnixNano()}
}

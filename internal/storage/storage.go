package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested event doesn't exist
	ErrNotFound = errors.New("event not found")
	// ErrConflict is returned when a unique constraint (e.g. caldav_uid) is violated
	ErrConflict = errors.New("event conflict")
	// ErrInvalidInput is returned when the input parameters are invalid
	ErrInvalidInput = errors.New("invalid input parameters")
)

// Priority of a calendar event.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// User identifies the owner of calendar events. Authentication is an
// external concern; this is just the resolved caller identity.
type User struct {
	ID       int64
	Username string
}

// Event is a calendar event record. Date carries no time-of-day component;
// all serialization uses the all-day VALUE=DATE form.
type Event struct {
	ID          int64
	UserID      int64
	// NoteID back-references the note this event was promoted from, if any.
	NoteID      *int64
	Title       string
	Description string
	Date        time.Time
	Priority    Priority
	// CalDAVUID is the join key between local storage and the external
	// CalDAV store. Empty means the event has never been assigned one.
	// When set it must be globally unique.
	CalDAVUID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store connects the calendar subsystem with its backing storage.
// Every operation is scoped to a user; there is no cross-user visibility.
// Implementations should return the error values declared in this package.
type Store interface {
	// CreateEvent persists a new event, assigning ID and timestamps.
	CreateEvent(ctx context.Context, event *Event) error
	// GetEvent retrieves an event by its internal id.
	GetEvent(ctx context.Context, userID, id int64) (*Event, error)
	// GetEventByUID retrieves an event by its CalDAV UID.
	GetEventByUID(ctx context.Context, userID int64, uid string) (*Event, error)
	// ListEvents retrieves all events for a user in ascending date order,
	// optionally bounded by from/to (inclusive).
	ListEvents(ctx context.Context, userID int64, from, to *time.Time) ([]*Event, error)
	// UpdateEventUID persists a backfilled CalDAV UID on an existing event.
	UpdateEventUID(ctx context.Context, userID, id int64, uid string) error
	// DeleteEvent removes an event by its internal id.
	DeleteEvent(ctx context.Context, userID, id int64) error
	// DeleteEventByUID removes an event by its CalDAV UID.
	DeleteEventByUID(ctx context.Context, userID int64, uid string) error
}

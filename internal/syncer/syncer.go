// Package syncer coordinates event persistence with best-effort pushes to
// the external CalDAV server. The local store is the source of truth; the
// external mirror only ever degrades observability, not correctness.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/polyhub/calsync/internal/ics"
	"github.com/polyhub/calsync/internal/radicale"
	"github.com/polyhub/calsync/internal/storage"
)

// Pusher is the outbound seam to the external CalDAV server.
type Pusher interface {
	Push(ctx context.Context, username string, event *storage.Event) radicale.Result
	Remove(ctx context.Context, username, uid string) radicale.Result
}

// Syncer owns the decision of when to call the external server. It never
// persists external-only state; every sync is a fresh full PUT.
type Syncer struct {
	store  storage.Store
	remote Pusher
	logger *slog.Logger
}

// New creates a Syncer.
func New(store storage.Store, remote Pusher, logger *slog.Logger) *Syncer {
	return &Syncer{store: store, remote: remote, logger: logger}
}

// CreateRequest carries the caller-provided event fields. Optional fields
// are explicit named options; absent ones keep their defaults.
type CreateRequest struct {
	Title       string
	Date        time.Time
	Description mo.Option[string]
	Priority    mo.Option[storage.Priority]
	NoteID      mo.Option[int64]
}

// Note is the shape of a note handed over by the notes collaborator for
// promotion into a calendar event.
type Note struct {
	ID         int64
	Title      string
	Priority   storage.Priority
	Deadline   *time.Time
	InCalendar bool
}

// Report summarizes a bulk re-sync.
type Report struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

func (s *Syncer) validate(req CreateRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("%w: title is required", storage.ErrInvalidInput)
	}
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", storage.ErrInvalidInput)
	}
	if p, present := req.Priority.Get(); present && !p.Valid() {
		return fmt.Errorf("%w: unknown priority %q", storage.ErrInvalidInput, p)
	}
	return nil
}

// CreateEvent assigns a fresh UID, persists the event, then attempts a
// best-effort push. The push outcome never alters the returned event:
// creation is always locally durable regardless of external sync result.
func (s *Syncer) CreateEvent(ctx context.Context, user storage.User, req CreateRequest) (*storage.Event, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	event := &storage.Event{
		UserID:    user.ID,
		Title:     req.Title,
		Date:      req.Date,
		Priority:  storage.PriorityMedium,
		CalDAVUID: uuid.NewString(),
	}
	if desc, present := req.Description.Get(); present {
		event.Description = desc
	}
	if prio, present := req.Priority.Get(); present {
		event.Priority = prio
	}
	if noteID, present := req.NoteID.Get(); present {
		event.NoteID = &noteID
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if res := s.remote.Push(ctx, user.Username, event); !res.OK() {
		s.logger.Warn("event created locally but external sync failed",
			"event_id", event.ID,
			"uid", event.CalDAVUID,
			"outcome", res.Outcome.String())
	}

	return event, nil
}

// CreateFromNote promotes a note flagged "in calendar" with a deadline into
// a calendar event. Notes without the flag or a deadline are skipped.
func (s *Syncer) CreateFromNote(ctx context.Context, user storage.User, note Note) (*storage.Event, error) {
	if !note.InCalendar || note.Deadline == nil {
		return nil, nil
	}

	req := CreateRequest{
		Title:  note.Title,
		Date:   *note.Deadline,
		NoteID: mo.Some(note.ID),
	}
	if note.Priority != "" {
		req.Priority = mo.Some(note.Priority)
	}

	return s.CreateEvent(ctx, user, req)
}

// DeleteEvent removes the event scoped to the user. If the event carries a
// UID the external resource is removed first, so a failed local delete
// cannot leave an orphaned external resource; the external outcome itself
// never gates the local delete.
func (s *Syncer) DeleteEvent(ctx context.Context, user storage.User, id int64) error {
	event, err := s.store.GetEvent(ctx, user.ID, id)
	if err != nil {
		return err
	}

	if event.CalDAVUID != "" {
		if res := s.remote.Remove(ctx, user.Username, event.CalDAVUID); !res.OK() {
			s.logger.Warn("external delete failed, removing locally anyway",
				"event_id", event.ID,
				"uid", event.CalDAVUID,
				"outcome", res.Outcome.String())
		}
	}

	return s.store.DeleteEvent(ctx, user.ID, id)
}

// ResyncAll pushes every event owned by the user to the external server,
// backfilling and persisting missing UIDs first. Re-running after partial
// failure only re-attempts, never duplicates: a UID is assigned at most
// once per event.
func (s *Syncer) ResyncAll(ctx context.Context, user storage.User) (Report, error) {
	events, err := s.store.ListEvents(ctx, user.ID, nil, nil)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list events: %w", err)
	}

	report := Report{Total: len(events)}
	for _, event := range events {
		if event.CalDAVUID == "" {
			event.CalDAVUID = uuid.NewString()
			if err := s.store.UpdateEventUID(ctx, user.ID, event.ID, event.CalDAVUID); err != nil {
				return report, fmt.Errorf("failed to backfill uid for event %d: %w", event.ID, err)
			}
			s.logger.Info("backfilled caldav uid", "event_id", event.ID, "uid", event.CalDAVUID)
		}

		if res := s.remote.Push(ctx, user.Username, event); res.OK() {
			report.Synced++
		} else {
			report.Failed++
			s.logger.Warn("resync push failed",
				"event_id", event.ID,
				"uid", event.CalDAVUID,
				"outcome", res.Outcome.String())
		}
	}

	return report, nil
}

// ExportAll builds one multi-VEVENT iCalendar document from all of the
// user's events. Pure local read; no external calls.
func (s *Syncer) ExportAll(ctx context.Context, user storage.User) (string, error) {
	events, err := s.store.ListEvents(ctx, user.ID, nil, nil)
	if err != nil {
		return "", fmt.Errorf("failed to list events: %w", err)
	}
	return ics.EncodeAll(events)
}

// ListEvents returns the user's events in ascending date order, optionally
// bounded by from/to.
func (s *Syncer) ListEvents(ctx context.Context, user storage.User, from, to *time.Time) ([]*storage.Event, error) {
	return s.store.ListEvents(ctx, user.ID, from, to)
}

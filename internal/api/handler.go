// Package api exposes the application-facing calendar endpoints consumed
// by the frontend: create/list/delete events, ics export and bulk resync.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/samber/mo"

	"github.com/polyhub/calsync/internal/auth"
	"github.com/polyhub/calsync/internal/storage"
	"github.com/polyhub/calsync/internal/syncer"
)

const dateLayout = "2006-01-02"

// Handler serves the /api/calendar endpoints.
type Handler struct {
	Syncer *syncer.Syncer
	Logger *slog.Logger
}

// NewHandler creates an api Handler.
func NewHandler(s *syncer.Syncer, logger *slog.Logger) *Handler {
	return &Handler{Syncer: s, Logger: logger}
}

// Register mounts the calendar routes on the given mux. The mux must be
// wrapped with auth.Middleware so handlers can resolve the current user.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/calendar", h.createEvent)
	mux.HandleFunc("GET /api/calendar", h.listEvents)
	mux.HandleFunc("DELETE /api/calendar/{id}", h.deleteEvent)
	mux.HandleFunc("GET /api/calendar/export/ics", h.exportICS)
	mux.HandleFunc("POST /api/calendar/sync-all", h.resyncAll)
}

type createEventRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Date        string  `json:"date"`
	Priority    *string `json:"priority"`
	NoteID      *int64  `json:"note_id"`
}

type eventResponse struct {
	ID          int64     `json:"id"`
	NoteID      *int64    `json:"note_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"`
	Priority    string    `json:"priority"`
	CalDAVUID   string    `json:"caldav_uid"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toResponse(e *storage.Event) eventResponse {
	return eventResponse{
		ID:          e.ID,
		NoteID:      e.NoteID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.Format(dateLayout),
		Priority:    string(e.Priority),
		CalDAVUID:   e.CalDAVUID,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("failed to write json response", "error", err)
	}
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (storage.User, bool) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return storage.User{}, false
	}
	return *user, true
}

func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var body createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	date, err := time.Parse(dateLayout, body.Date)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	// Explicit mapping of named optional fields; absent ones keep defaults.
	req := syncer.CreateRequest{Title: body.Title, Date: date}
	if body.Description != nil {
		req.Description = mo.Some(*body.Description)
	}
	if body.Priority != nil {
		req.Priority = mo.Some(storage.Priority(*body.Priority))
	}
	if body.NoteID != nil {
		req.NoteID = mo.Some(*body.NoteID)
	}

	event, err := h.Syncer.CreateEvent(r.Context(), user, req)
	if errors.Is(err, storage.ErrInvalidInput) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	} else if err != nil {
		h.Logger.Error("failed to create event", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, toResponse(event))
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var from, to *time.Time
	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			http.Error(w, "invalid start_date", http.StatusBadRequest)
			return
		}
		from = &t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			http.Error(w, "invalid end_date", http.StatusBadRequest)
			return
		}
		to = &t
	}

	events, err := h.Syncer.ListEvents(r.Context(), user, from, to)
	if err != nil {
		h.Logger.Error("failed to list events", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toResponse(e))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid event id", http.StatusBadRequest)
		return
	}

	err = h.Syncer.DeleteEvent(r.Context(), user, id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	} else if err != nil {
		h.Logger.Error("failed to delete event", "event_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) exportICS(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	body, err := h.Syncer.ExportAll(r.Context(), user)
	if err != nil {
		h.Logger.Error("failed to export events", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/calendar")
	w.Header().Set("Content-Disposition", `attachment; filename=polyhub-calendar.ics`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		h.Logger.Error("failed to write export response", "error", err)
	}
}

func (h *Handler) resyncAll(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	report, err := h.Syncer.ResyncAll(r.Context(), user)
	if err != nil {
		h.Logger.Error("failed to resync events", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

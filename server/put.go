package caldav

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/polyhub/calsync/internal/ics"
	"github.com/polyhub/calsync/internal/storage"
)

const importedEventTitle = "Imported Event"

// handlePut is create-or-ignore: a new local event is created if no event
// with that UID exists yet for the user; an existing same-UID event is left
// untouched. Either way the endpoint reports created. The body is parsed
// best-effort only; unparseable fields fall back to placeholders.
func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request, user *storage.User, relativePath string) {
	uid, ok := parseObjectPath(relativePath)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	_, err := h.Store.GetEventByUID(r.Context(), user.ID, uid)
	if err == nil {
		w.WriteHeader(http.StatusCreated)
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		h.Logger.Error("failed to look up event", "uid", uid, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	event := &storage.Event{
		UserID:    user.ID,
		Title:     importedEventTitle,
		Date:      time.Now().UTC().Truncate(24 * time.Hour),
		Priority:  storage.PriorityMedium,
		CalDAVUID: uid,
	}

	body, err := io.ReadAll(r.Body)
	if err == nil && len(body) > 0 {
		if fields, err := ics.Decode(string(body)); err == nil {
			if fields.Summary != "" {
				event.Title = fields.Summary
			}
			if !fields.Date.IsZero() {
				event.Date = fields.Date
			}
		} else {
			h.Logger.Debug("unparseable put body, using placeholders", "uid", uid, "error", err)
		}
	}

	if err := h.Store.CreateEvent(r.Context(), event); err != nil {
		// Same UID held by another user: the resource is not ours to claim.
		if errors.Is(err, storage.ErrConflict) {
			h.Logger.Warn("uid already claimed", "uid", uid, "user_id", user.ID)
			http.Error(w, "Conflict", http.StatusConflict)
			return
		}
		h.Logger.Error("failed to create event", "uid", uid, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.Logger.Info("event created via caldav put", "uid", uid, "event_id", event.ID)
	w.WriteHeader(http.StatusCreated)
}

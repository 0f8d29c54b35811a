package caldav

import (
	"net/http"

	"github.com/polyhub/calsync/internal/ics"
	"github.com/polyhub/calsync/internal/storage"
)

// handlePropfind lists all of the user's events as a multistatus document,
// one response entry per event resource.
func (h *Handler) handlePropfind(w http.ResponseWriter, r *http.Request, user *storage.User) {
	events, err := h.Store.ListEvents(r.Context(), user.ID, nil, nil)
	if err != nil {
		h.Logger.Error("failed to list events for propfind", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	uids := make([]string, 0, len(events))
	for _, event := range events {
		if event.CalDAVUID == "" {
			// Not yet addressable as a CalDAV resource; a resync will
			// backfill the UID.
			continue
		}
		uids = append(uids, event.CalDAVUID)
	}

	doc := ics.Multistatus(uids)
	w.Header().Set(headerContentType, mimeTypeXML)
	w.WriteHeader(http.StatusMultiStatus)
	if _, err := doc.WriteTo(w); err != nil {
		h.Logger.Error("failed to write multistatus response", "error", err)
	}
}

package caldav

import (
	"errors"
	"net/http"

	"github.com/polyhub/calsync/internal/ics"
	"github.com/polyhub/calsync/internal/storage"
)

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, user *storage.User, relativePath string) {
	uid, ok := parseObjectPath(relativePath)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	event, err := h.Store.GetEventByUID(r.Context(), user.ID, uid)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	} else if err != nil {
		h.Logger.Error("failed to get event", "uid", uid, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	body, err := ics.Encode(event)
	if err != nil {
		h.Logger.Error("failed to encode event", "uid", uid, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set(headerContentType, mimeTypeCalendar)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		h.Logger.Error("failed to write response", "uid", uid, "error", err)
	}
}

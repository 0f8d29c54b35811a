package caldav

import (
	"errors"
	"net/http"

	"github.com/polyhub/calsync/internal/storage"
)

// handleDelete removes the event with the addressed UID if the user owns
// one. It answers no-content whether or not the event existed.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, user *storage.User, relativePath string) {
	uid, ok := parseObjectPath(relativePath)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	err := h.Store.DeleteEventByUID(r.Context(), user.ID, uid)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.Logger.Error("failed to delete event", "uid", uid, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

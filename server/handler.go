// Package caldav serves a minimal CalDAV read/write surface over locally
// stored events. It is independent of the push path to the external
// server: CalDAV-speaking clients pull state directly from here.
package caldav

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/polyhub/calsync/internal/auth"
	"github.com/polyhub/calsync/internal/storage"
)

const (
	headerContentType = "Content-Type"
	headerDAV         = "DAV"
	headerAllow       = "Allow"

	mimeTypeCalendar = "text/calendar; charset=utf-8"
	mimeTypeXML      = "application/xml; charset=utf-8"

	davCapabilities = "1, calendar-access"
	allowedMethods  = "OPTIONS, GET, PUT, DELETE, PROPFIND"
)

// Handler is the HTTP handler for CalDAV requests under a path prefix.
// It expects the authenticated user to already be present in the request
// context (see auth.Middleware).
type Handler struct {
	Prefix string // e.g. "/caldav/"
	Store  storage.Store
	Logger *slog.Logger
}

// NewHandler creates a Handler. The prefix is normalized to start and end
// with a slash.
func NewHandler(prefix string, store storage.Store, logger *slog.Logger) *Handler {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}
	return &Handler{
		Prefix: prefix,
		Store:  store,
		Logger: logger,
	}
}

// ServeHTTP routes CalDAV verbs. OPTIONS and PROPFIND apply to any path;
// GET, PUT and DELETE address a single event at calendar/{uid}.ics.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// OPTIONS is pure capability advertisement and needs no identity.
	if r.Method == "OPTIONS" {
		h.handleOptions(w, r)
		return
	}

	user := auth.UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	relativePath := strings.TrimPrefix(r.URL.Path, h.Prefix)

	h.Logger.Debug("caldav request",
		"method", r.Method,
		"path", relativePath,
		"user", user.Username)

	switch r.Method {
	case "PROPFIND":
		h.handlePropfind(w, r, user)
	case "GET":
		h.handleGet(w, r, user, relativePath)
	case "PUT":
		h.handlePut(w, r, user, relativePath)
	case "DELETE":
		h.handleDelete(w, r, user, relativePath)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleOptions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(headerDAV, davCapabilities)
	w.Header().Set(headerAllow, allowedMethods)
	w.WriteHeader(http.StatusOK)
}

// parseObjectPath extracts the UID from a calendar/{uid}.ics relative path.
func parseObjectPath(relativePath string) (string, bool) {
	relativePath = strings.TrimPrefix(relativePath, "/")
	rest, found := strings.CutPrefix(relativePath, "calendar/")
	if !found {
		return "", false
	}
	uid, found := strings.CutSuffix(rest, ".ics")
	if !found || uid == "" || strings.Contains(uid, "/") {
		return "", false
	}
	return uid, true
}

package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyhub/calsync/internal/auth"
	"github.com/polyhub/calsync/internal/radicale"
	"github.com/polyhub/calsync/internal/storage"
	"github.com/polyhub/calsync/internal/storage/memory"
	"github.com/polyhub/calsync/internal/syncer"
)

// stubPusher always reports the configured result without any I/O.
type stubPusher struct {
	result radicale.Result
}

func (p *stubPusher) Push(context.Context, string, *storage.Event) radicale.Result { return p.result }
func (p *stubPusher) Remove(context.Context, string, string) radicale.Result       { return p.result }

var alice = &storage.User{ID: 1, Username: "alice"}

func newTestMux(result radicale.Result) (*http.ServeMux, *memory.Store) {
	store := memory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := syncer.New(store, &stubPusher{result: result}, logger)

	mux := http.NewServeMux()
	NewHandler(s, logger).Register(mux)
	return mux, store
}

func doRequest(mux *http.ServeMux, user *storage.User, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != nil {
		req = req.WithContext(auth.ContextWithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateEvent(t *testing.T) {
	mux, store := newTestMux(radicale.Result{Outcome: radicale.OutcomeOK, Status: 201})

	rec := doRequest(mux, alice, http.MethodPost, "/api/calendar",
		`{"title":"Demo","date":"2025-01-15","priority":"high","description":"details"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Demo", got["title"])
	assert.Equal(t, "2025-01-15", got["date"])
	assert.Equal(t, "high", got["priority"])
	assert.NotEmpty(t, got["caldav_uid"])

	events, err := store.ListEvents(context.Background(), alice.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestCreateEvent_SucceedsWhenSyncFails(t *testing.T) {
	mux, store := newTestMux(radicale.Result{Outcome: radicale.OutcomeRejected, Status: 500})

	rec := doRequest(mux, alice, http.MethodPost, "/api/calendar",
		`{"title":"Demo","date":"2025-01-15"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	events, err := store.ListEvents(context.Background(), alice.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestCreateEvent_BadInput(t *testing.T) {
	mux, _ := newTestMux(radicale.Result{Outcome: radicale.OutcomeOK})

	rec := doRequest(mux, alice, http.MethodPost, "/api/calendar", `{"title":"x","date":"15/01/2025"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(mux, alice, http.MethodPost, "/api/calendar", `{"title":"","date":"2025-01-15"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(mux, alice, http.MethodPost, "/api/calendar", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEvents(t *testing.T) {
	mux, store := newTestMux(radicale.Result{Outcome: radicale.OutcomeOK})
	ctx := context.Background()

	require.NoError(t, store.CreateEvent(ctx, &storage.Event{
		UserID: 1, Title: "Jan", Date: time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.CreateEvent(ctx, &storage.Event{
		UserID: 1, Title: "Mar", Date: time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
	}))

	rec := doRequest(mux, alice, http.MethodGet, "/api/calendar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Jan", list[0]["title"])

	rec = doRequest(mux, alice, http.MethodGet, "/api/calendar?start_date=2025-02-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Mar", list[0]["title"])

	rec = doRequest(mux, alice, http.MethodGet, "/api/calendar?start_date=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteEvent(t *testing.T) {
	mux, store := newTestMux(radicale.Result{Outcome: radicale.OutcomeOK})

	event := &storage.Event{UserID: 1, Title: "Del", Date: time.Now(), CalDAVUID: "api-del"}
	require.NoError(t, store.CreateEvent(context.Background(), event))

	rec := doRequest(mux, alice, http.MethodDelete, "/api/calendar/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(mux, alice, http.MethodDelete, "/api/calendar/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(mux, alice, http.MethodDelete, "/api/calendar/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportICS(t *testing.T) {
	mux, store := newTestMux(radicale.Result{Outcome: radicale.OutcomeOK})

	require.NoError(t, store.CreateEvent(context.Background(), &storage.Event{
		UserID: 1, Title: "Exported", Date: time.Date(2025, time.May, 5, 0, 0, 0, 0, time.UTC), CalDAVUID: "exp-uid",
	}))

	rec := doRequest(mux, alice, http.MethodGet, "/api/calendar/export/ics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=polyhub-calendar.ics", rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "BEGIN:VEVENT")
	assert.Contains(t, rec.Body.String(), "UID:exp-uid")
}

func TestResyncAll(t *testing.T) {
	mux, store := newTestMux(radicale.Result{Outcome: radicale.OutcomeRejected, Status: 502})
	ctx := context.Background()

	require.NoError(t, store.CreateEvent(ctx, &storage.Event{UserID: 1, Title: "a", Date: time.Now()}))
	require.NoError(t, store.CreateEvent(ctx, &storage.Event{UserID: 1, Title: "b", Date: time.Now(), CalDAVUID: "has-uid"}))

	rec := doRequest(mux, alice, http.MethodPost, "/api/calendar/sync-all", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report syncer.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, syncer.Report{Synced: 0, Failed: 2, Total: 2}, report)
}

func TestUnauthorized(t *testing.T) {
	mux, _ := newTestMux(radicale.Result{Outcome: radicale.OutcomeOK})

	rec := doRequest(mux, nil, http.MethodGet, "/api/calendar", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

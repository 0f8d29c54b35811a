package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyhub/calsync/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	event := &storage.Event{
		UserID:      1,
		Title:       "Demo",
		Description: "line1\nline2",
		Date:        time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		Priority:    storage.PriorityMedium,
		CalDAVUID:   "uid-sql-1",
	}
	require.NoError(t, store.CreateEvent(ctx, event))
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())

	got, err := store.GetEvent(ctx, 1, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Demo", got.Title)
	assert.Equal(t, "uid-sql-1", got.CalDAVUID)

	byUID, err := store.GetEventByUID(ctx, 1, "uid-sql-1")
	require.NoError(t, err)
	assert.Equal(t, event.ID, byUID.ID)

	// Scoping: another user sees nothing
	_, err = store.GetEvent(ctx, 2, event.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_UniqueUID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &storage.Event{UserID: 1, Title: "a", Date: time.Now(), CalDAVUID: "dup-uid"}
	require.NoError(t, store.CreateEvent(ctx, first))

	second := &storage.Event{UserID: 2, Title: "b", Date: time.Now(), CalDAVUID: "dup-uid"}
	err := store.CreateEvent(ctx, second)
	assert.ErrorIs(t, err, storage.ErrConflict)

	// Events without a UID don't collide with each other
	e1 := &storage.Event{UserID: 1, Title: "c", Date: time.Now()}
	e2 := &storage.Event{UserID: 1, Title: "d", Date: time.Now()}
	assert.NoError(t, store.CreateEvent(ctx, e1))
	assert.NoError(t, store.CreateEvent(ctx, e2))
}

func TestStore_ListAndRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 2, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		require.NoError(t, store.CreateEvent(ctx, &storage.Event{UserID: 1, Title: "e", Date: d}))
	}

	events, err := store.ListEvents(ctx, 1, nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.True(t, events[0].Date.Before(events[1].Date))
	assert.True(t, events[1].Date.Before(events[2].Date))

	from := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	ranged, err := store.ListEvents(ctx, 1, &from, nil)
	require.NoError(t, err)
	assert.Len(t, ranged, 2)
}

func TestStore_UpdateUIDAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	event := &storage.Event{UserID: 1, Title: "legacy", Date: time.Now()}
	require.NoError(t, store.CreateEvent(ctx, event))
	assert.Empty(t, event.CalDAVUID)

	require.NoError(t, store.UpdateEventUID(ctx, 1, event.ID, "backfilled"))
	got, err := store.GetEventByUID(ctx, 1, "backfilled")
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	assert.ErrorIs(t, store.UpdateEventUID(ctx, 1, 9999, "x"), storage.ErrNotFound)

	require.NoError(t, store.DeleteEventByUID(ctx, 1, "backfilled"))
	assert.ErrorIs(t, store.DeleteEventByUID(ctx, 1, "backfilled"), storage.ErrNotFound)
	assert.ErrorIs(t, store.DeleteEvent(ctx, 1, event.ID), storage.ErrNotFound)
}

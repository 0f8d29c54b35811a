// memory based implementation for testing purposes
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/polyhub/calsync/internal/storage"
)

// Store implements storage.Store using in-memory maps
type Store struct {
	mu     sync.RWMutex
	nextID int64
	events map[int64]*storage.Event // key: event ID
}

// New creates a new in-memory store
func New() *Store {
	return &Store{
		nextID: 1,
		events: make(map[int64]*storage.Event),
	}
}

func (s *Store) CreateEvent(_ context.Context, event *storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.CalDAVUID != "" {
		for _, e := range s.events {
			if e.CalDAVUID == event.CalDAVUID {
				return storage.ErrConflict
			}
		}
	}

	now := time.Now()
	event.ID = s.nextID
	event.CreatedAt = now
	event.UpdatedAt = now
	s.nextID++
	s.events[event.ID] = event

	return nil
}

func (s *Store) GetEvent(_ context.Context, userID, id int64) (*storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok || event.UserID != userID {
		return nil, storage.ErrNotFound
	}

	return event, nil
}

func (s *Store) GetEventByUID(_ context.Context, userID int64, uid string) (*storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, event := range s.events {
		if event.UserID == userID && event.CalDAVUID != "" && event.CalDAVUID == uid {
			return event, nil
		}
	}

	return nil, storage.ErrNotFound
}

func (s *Store) ListEvents(_ context.Context, userID int64, from, to *time.Time) ([]*storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var events []*storage.Event
	for _, event := range s.events {
		if event.UserID != userID {
			continue
		}
		if from != nil && event.Date.Before(*from) {
			continue
		}
		if to != nil && event.Date.After(*to) {
			continue
		}
		events = append(events, event)
	}

	// Ascending date, insertion (id) order for same-date events
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].ID < events[j].ID
		}
		return events[i].Date.Before(events[j].Date)
	})

	return events, nil
}

func (s *Store) UpdateEventUID(_ context.Context, userID, id int64, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok || event.UserID != userID {
		return storage.ErrNotFound
	}

	for _, e := range s.events {
		if e.ID != id && e.CalDAVUID != "" && e.CalDAVUID == uid {
			return storage.ErrConflict
		}
	}

	event.CalDAVUID = uid
	event.UpdatedAt = time.Now()

	return nil
}

func (s *Store) DeleteEvent(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok || event.UserID != userID {
		return storage.ErrNotFound
	}

	delete(s.events, event.ID)

	return nil
}

func (s *Store) DeleteEventByUID(_ context.Context, userID int64, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, event := range s.events {
		if event.UserID == userID && event.CalDAVUID != "" && event.CalDAVUID == uid {
			delete(s.events, event.ID)
			return nil
		}
	}

	return storage.ErrNotFound
}

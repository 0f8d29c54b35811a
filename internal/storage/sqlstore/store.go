// Package sqlstore persists calendar events in a relational database via gorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/polyhub/calsync/internal/storage"
)

// eventRecord is the gorm mapping of a calendar event. CalDAVUID is a
// pointer so the unique index admits multiple rows without a UID.
type eventRecord struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	UserID      int64     `gorm:"index;not null"`
	NoteID      *int64    `gorm:"index"`
	Title       string    `gorm:"size:255;not null"`
	Description string    `gorm:"type:text"`
	Date        time.Time `gorm:"index;not null"`
	Priority    string    `gorm:"size:20;default:medium"`
	CalDAVUID   *string   `gorm:"column:caldav_uid;size:255;uniqueIndex"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (eventRecord) TableName() string { return "calendar_events" }

func toRecord(e *storage.Event) *eventRecord {
	rec := &eventRecord{
		ID:          e.ID,
		UserID:      e.UserID,
		NoteID:      e.NoteID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		Priority:    string(e.Priority),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.CalDAVUID != "" {
		uid := e.CalDAVUID
		rec.CalDAVUID = &uid
	}
	return rec
}

func toEvent(rec *eventRecord) *storage.Event {
	e := &storage.Event{
		ID:          rec.ID,
		UserID:      rec.UserID,
		NoteID:      rec.NoteID,
		Title:       rec.Title,
		Description: rec.Description,
		Date:        rec.Date,
		Priority:    storage.Priority(rec.Priority),
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if rec.CalDAVUID != nil {
		e.CalDAVUID = *rec.CalDAVUID
	}
	return e
}

// Store implements storage.Store on top of gorm.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) a sqlite-backed store at the given path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm handle and runs migrations.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&eventRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate calendar_events: %w", err)
	}
	return &Store{db: db}, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return storage.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return storage.ErrConflict
	default:
		return err
	}
}

func (s *Store) CreateEvent(ctx context.Context, event *storage.Event) error {
	rec := toRecord(event)
	rec.ID = 0
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return translate(err)
	}
	*event = *toEvent(rec)
	return nil
}

func (s *Store) GetEvent(ctx context.Context, userID, id int64) (*storage.Event, error) {
	var rec eventRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return toEvent(&rec), nil
}

func (s *Store) GetEventByUID(ctx context.Context, userID int64, uid string) (*storage.Event, error) {
	var rec eventRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND caldav_uid = ?", userID, uid).
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return toEvent(&rec), nil
}

func (s *Store) ListEvents(ctx context.Context, userID int64, from, to *time.Time) ([]*storage.Event, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date <= ?", *to)
	}

	var recs []eventRecord
	if err := q.Order("date ASC, id ASC").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}

	events := make([]*storage.Event, 0, len(recs))
	for i := range recs {
		events = append(events, toEvent(&recs[i]))
	}
	return events, nil
}

func (s *Store) UpdateEventUID(ctx context.Context, userID, id int64, uid string) error {
	res := s.db.WithContext(ctx).
		Model(&eventRecord{}).
		Where("user_id = ? AND id = ?", userID, id).
		Update("caldav_uid", uid)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, userID, id int64) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&eventRecord{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteEventByUID(ctx context.Context, userID int64, uid string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND caldav_uid = ?", userID, uid).
		Delete(&eventRecord{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Package kv is the local key-value persistence the entity store is built on:
// string keys holding JSON documents, with no query language.
package kv

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/clementlassalle/guards-schedule-app-adcosc/internal/models"
)

const (
	KeyEmployees = "employees"
	KeyLocations = "locations"
	KeyShifts    = "shifts"
	KeyCheckIns  = "checkIns"
	KeyEvents    = "events"
	KeyUser      = "user"
)

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}

// Batcher is implemented by stores that can apply several writes as one
// unit. fn receives a Store whose writes become visible only if fn returns
// nil; otherwise none of them are applied.
type Batcher interface {
	Batch(ctx context.Context, fn func(Store) error) error
}

// GormStore keeps every key as one row of the kv_records table.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var record models.Record
	err := s.DB.WithContext(ctx).Where(&models.Record{Key: key}).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return record.Value, true, nil
}

func (s *GormStore) Set(ctx context.Context, key string, value string) error {
	record := models.Record{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
}

func (s *GormStore) Remove(ctx context.Context, key string) error {
	return s.DB.WithContext(ctx).Delete(&models.Record{Key: key}).Error
}

// Batch runs fn inside one database transaction.
func (s *GormStore) Batch(ctx context.Context, fn func(Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{DB: tx})
	})
}

// MemoryStore is an in-process Store. GetErr and SetErr, when set, are
// returned by every Get or Set/Remove call.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]string
	GetErr error
	SetErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return "", false, s.GetErr
	}
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	delete(s.data, key)
	return nil
}

// Batch stages fn's writes and applies them together when fn succeeds.
func (s *MemoryStore) Batch(_ context.Context, fn func(Store) error) error {
	b := &memoryBatch{parent: s, writes: map[string]*string{}}
	if err := fn(b); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range b.writes {
		if value == nil {
			delete(s.data, key)
			continue
		}
		s.data[key] = *value
	}
	return nil
}

// memoryBatch records writes; a nil value marks a removal.
type memoryBatch struct {
	parent *MemoryStore
	writes map[string]*string
}

func (b *memoryBatch) Get(ctx context.Context, key string) (string, bool, error) {
	if value, ok := b.writes[key]; ok {
		if value == nil {
			return "", false, nil
		}
		return *value, true, nil
	}
	return b.parent.Get(ctx, key)
}

func (b *memoryBatch) Set(_ context.Context, key string, value string) error {
	if err := b.parent.setErr(); err != nil {
		return err
	}
	b.writes[key] = &value
	return nil
}

func (b *memoryBatch) Remove(_ context.Context, key string) error {
	if err := b.parent.setErr(); err != nil {
		return err
	}
	b.writes[key] = nil
	return nil
}

func (s *MemoryStore) setErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SetErr
}

// Package memory is an in-process Store used for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/store"
)

// Store keeps records in insertion order behind a mutex
type Store struct {
	mu      sync.RWMutex
	records []model.Record
	index   map[string]int
	now     func() time.Time
}

// New creates an empty store
func New() *Store {
	return &Store{
		index: make(map[string]int),
		now:   time.Now,
	}
}

// ListRecords returns copies of matching records in insertion order
func (s *Store) ListRecords(ctx context.Context, f store.Filter) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Record, 0, len(s.records))
	for _, rec := range s.records {
		if f.Matches(rec) {
			out = append(out, clone(rec))
		}
	}
	return out, nil
}

// InsertRecords appends records whose IDs are new
func (s *Store) InsertRecords(ctx context.Context, recs []model.Record) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := make([]model.Record, 0, len(recs))
	for _, rec := range recs {
		rec = store.Prepare(rec, s.now())
		if _, exists := s.index[rec.ID]; exists {
			continue
		}
		s.index[rec.ID] = len(s.records)
		s.records = append(s.records, clone(rec))
		inserted = append(inserted, clone(rec))
	}
	return inserted, nil
}

// DeleteRecord removes a record; unknown IDs are ignored
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return nil
	}
	s.records = append(s.records[:pos], s.records[pos+1:]...)
	delete(s.index, id)
	for i := pos; i < len(s.records); i++ {
		s.index[s.records[i].ID] = i
	}
	return nil
}

// MarkVerified sets the verified flag
func (s *Store) MarkVerified(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return fmt.Errorf("mark verified %s: %w", id, store.ErrNotFound)
	}
	s.records[pos].Verified = true
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// clone copies the pointer fields so callers cannot mutate stored records
func clone(rec model.Record) model.Record {
	if rec.SourceURL != nil {
		rec.SourceURL = model.StringPtr(*rec.SourceURL)
	}
	if rec.PublishedDate != nil {
		rec.PublishedDate = model.TimePtr(*rec.PublishedDate)
	}
	return rec
}

// Package store defines the datastore the engine reads and repairs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/verifier/internal/model"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// Filter narrows ListRecords. Empty fields match everything.
type Filter struct {
	SubjectID  string
	ProducerID string
	Category   string
}

// Matches reports whether rec passes the filter
func (f Filter) Matches(rec model.Record) bool {
	if f.SubjectID != "" && rec.SubjectID != f.SubjectID {
		return false
	}
	if f.ProducerID != "" && rec.ProducerID != f.ProducerID {
		return false
	}
	if f.Category != "" && rec.Category != f.Category {
		return false
	}
	return true
}

// Store persists records. Implementations return records in insertion order
// and keep every mutation single-row and idempotent.
type Store interface {
	// ListRecords returns the records matching f in insertion order
	ListRecords(ctx context.Context, f Filter) ([]model.Record, error)

	// InsertRecords stores new records, assigning ID and CreatedAt when unset.
	// A record whose ID already exists is skipped. The stored records are returned.
	InsertRecords(ctx context.Context, recs []model.Record) ([]model.Record, error)

	// DeleteRecord removes a record; a missing record is not an error
	DeleteRecord(ctx context.Context, id string) error

	// MarkVerified flags a record as having passed every check
	MarkVerified(ctx context.Context, id string) error

	Close() error
}

// NewID returns a time-ordered record ID
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Prepare fills ID and CreatedAt for a record about to be inserted
func Prepare(rec model.Record, now time.Time) model.Record {
	if rec.ID == "" {
		rec.ID = NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now.UTC()
	}
	return rec
}

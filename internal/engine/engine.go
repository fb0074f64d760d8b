// Package engine validates stored records and reconciles defects by
// deleting and recollecting them.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/ppiankov/verifier/internal/collect"
	"github.com/ppiankov/verifier/internal/lock"
	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/store"
)

// DefaultMaxIterations bounds the repair loop when the caller has no preference
const DefaultMaxIterations = 3

// Validator runs the per-record checks. Precheck covers everything that
// needs no other record; Deduplicate marks duplicates among the prechecked
// outcomes of one group in order.
type Validator interface {
	Precheck(ctx context.Context, records []model.Record, now time.Time) ([]model.Outcome, error)
	Deduplicate(outcomes []model.Outcome)
}

// Engine owns the validate and reconcile operations for a datastore
type Engine struct {
	store       store.Store
	validator   Validator
	collector   collect.Collector
	locker      lock.Locker
	now         func() time.Time
	logger      *slog.Logger
	concurrency int
}

// Option configures an Engine
type Option func(*Engine)

// WithLocker sets the group locker (default: in-process keyed mutex)
func WithLocker(l lock.Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithClock sets the source of each pass's reference instant
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithConcurrency bounds parallel collector calls during recollection
func WithConcurrency(n int) Option {
	return func(e *Engine) { e.concurrency = n }
}

// New creates an engine. collector may be nil when only Validate is used.
func New(st store.Store, validator Validator, collector collect.Collector, opts ...Option) *Engine {
	e := &Engine{
		store:       st,
		validator:   validator,
		collector:   collector,
		locker:      lock.NewKeyedMutex(),
		now:         time.Now,
		logger:      slog.Default(),
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.collector == nil {
		e.collector = collect.Nop{}
	}
	if e.concurrency <= 0 {
		e.concurrency = 1
	}
	return e
}

// Validate runs one pass over the subject's records. Duplicates are deleted
// and passing records are marked verified; other defects are only reported.
func (e *Engine) Validate(ctx context.Context, subjectID string, filter store.Filter) (*model.ValidationReport, error) {
	if subjectID == "" {
		return nil, ErrSubjectRequired
	}
	filter.SubjectID = subjectID

	res, err := e.pass(ctx, filter)
	if err != nil {
		return nil, err
	}
	res.report.ProducerFilter = filter.ProducerID
	res.report.CategoryFilter = filter.Category
	return res.report, nil
}

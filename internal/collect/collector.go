package collect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/verifier/internal/model"
)

// ErrUnknownProducer is returned when no collector is routed for a producer
var ErrUnknownProducer = errors.New("no collector for producer")

// Request asks a producer for replacement records in one bucket
type Request struct {
	ProducerID     string
	SubjectID      string
	Category       string
	Classification model.Classification
	Count          int
}

// Key returns the recollection bucket of the request
func (r Request) Key() model.RecollectKey {
	return model.RecollectKey{
		ProducerID:     r.ProducerID,
		Category:       r.Category,
		Classification: r.Classification,
	}
}

// Collector produces replacement candidates on request.
// Implementations may under-deliver; over-delivery is trimmed by Screen.
type Collector interface {
	Collect(ctx context.Context, req Request) ([]model.CandidateRecord, error)
}

// Func adapts a plain function to the Collector interface
type Func func(ctx context.Context, req Request) ([]model.CandidateRecord, error)

// Collect calls f
func (f Func) Collect(ctx context.Context, req Request) ([]model.CandidateRecord, error) {
	return f(ctx, req)
}

// Nop never returns candidates. Reconciliation then only removes defects.
type Nop struct{}

// Collect returns no candidates
func (Nop) Collect(context.Context, Request) ([]model.CandidateRecord, error) {
	return nil, nil
}

// Registry dispatches requests to a collector by producer ID
type Registry struct {
	routes   map[string]Collector
	fallback Collector
}

// NewRegistry creates a registry; fallback may be nil
func NewRegistry(fallback Collector) *Registry {
	return &Registry{
		routes:   make(map[string]Collector),
		fallback: fallback,
	}
}

// Register routes a producer ID to a collector
func (r *Registry) Register(producerID string, c Collector) {
	r.routes[strings.TrimSpace(producerID)] = c
}

// Collect forwards the request to the routed collector
func (r *Registry) Collect(ctx context.Context, req Request) ([]model.CandidateRecord, error) {
	c, ok := r.routes[req.ProducerID]
	if !ok {
		c = r.fallback
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProducer, req.ProducerID)
	}
	return c.Collect(ctx, req)
}

// Rejection is a candidate refused at the collector boundary
type Rejection struct {
	Candidate model.CandidateRecord
	Err       error
}

// ScreenResult splits a collector response into insertable and refused candidates
type ScreenResult struct {
	Accepted []model.CandidateRecord
	Rejected []Rejection
}

// Screen applies boundary validation to a collector response: shape rules
// per producer kind, the requested bucket, and the requested count.
func Screen(req Request, candidates []model.CandidateRecord) ScreenResult {
	var res ScreenResult
	key := req.Key()

	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			res.Rejected = append(res.Rejected, Rejection{Candidate: c, Err: err})
			continue
		}
		if !c.Matches(key) {
			res.Rejected = append(res.Rejected, Rejection{
				Candidate: c,
				Err: fmt.Errorf("%w: answered %s/%s/%s for %s/%s/%s", model.ErrInvalidCandidate,
					c.Producer.ID, c.Category, c.Classification,
					key.ProducerID, key.Category, key.Classification),
			})
			continue
		}
		if len(res.Accepted) >= req.Count {
			res.Rejected = append(res.Rejected, Rejection{
				Candidate: c,
				Err:       fmt.Errorf("%w: more than %d requested", model.ErrInvalidCandidate, req.Count),
			})
			continue
		}
		res.Accepted = append(res.Accepted, c)
	}

	return res
}

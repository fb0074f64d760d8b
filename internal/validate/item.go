package validate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/worker"
)

// URLChecker judges the source URL of a record
type URLChecker interface {
	Check(ctx context.Context, rec model.Record) (model.Verdict, error)
}

// ItemValidator runs the record checks in fixed order: fields, liveness,
// recency, duplicates. The first failure decides the outcome.
type ItemValidator struct {
	liveness   URLChecker
	recency    *RecencyChecker
	duplicates *DuplicateDetector
	workers    int
}

// NewItemValidator creates an item validator
func NewItemValidator(liveness URLChecker, recency *RecencyChecker, duplicates *DuplicateDetector, workers int) *ItemValidator {
	if workers <= 0 {
		workers = 20
	}
	return &ItemValidator{
		liveness:   liveness,
		recency:    recency,
		duplicates: duplicates,
		workers:    workers,
	}
}

// Precheck runs every check that needs no other record, in parallel on the
// worker pool. Outcomes keep the order of records.
func (v *ItemValidator) Precheck(ctx context.Context, records []model.Record, now time.Time) ([]model.Outcome, error) {
	processor := worker.NewBatchProcessor(&precheckRun{v: v, now: now}, v.workers)
	outcomes, err := processor.ProcessRecords(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("precheck: %w", err)
	}
	return outcomes, nil
}

// Deduplicate marks duplicates among prechecked outcomes in order. Only
// outcomes that passed the precheck are compared or accepted, and only
// against records of the same (subject, producer) group.
func (v *ItemValidator) Deduplicate(outcomes []model.Outcome) {
	sets := make(map[model.GroupKey]*DuplicateSet)
	for i := range outcomes {
		o := &outcomes[i]
		if !o.Reason.IsValid() {
			continue
		}
		key := o.Record.Group()
		set, ok := sets[key]
		if !ok {
			set = v.duplicates.NewSet()
			sets[key] = set
		}
		if detail, dup := set.Admit(o.Record); dup {
			o.Reason = model.ReasonDuplicate
			o.Detail = detail
		}
	}
}

func (v *ItemValidator) precheck(ctx context.Context, rec model.Record, now time.Time) (model.Outcome, error) {
	if reason, detail := CheckFields(rec); !reason.IsValid() {
		return model.NewOutcome(rec, reason, detail), nil
	}

	verdict, err := v.liveness.Check(ctx, rec)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("liveness %s: %w", rec.ID, err)
	}
	if !verdict.Reason.IsValid() {
		outcome := model.NewOutcome(rec, verdict.Reason, verdictDetail(verdict))
		outcome.Attempts = verdict.Attempts
		return outcome, nil
	}

	if reason, detail := v.recency.Check(rec, now); !reason.IsValid() {
		outcome := model.NewOutcome(rec, reason, detail)
		outcome.Attempts = verdict.Attempts
		return outcome, nil
	}

	outcome := model.NewOutcome(rec, model.ReasonValid, "")
	outcome.Attempts = verdict.Attempts
	return outcome, nil
}

func verdictDetail(v model.Verdict) string {
	switch {
	case v.Pattern != "":
		return v.Pattern
	case v.StatusCode != 0:
		return "HTTP " + strconv.Itoa(v.StatusCode)
	default:
		return v.Error
	}
}

// precheckRun binds a pass's reference instant to the worker.Checker interface
type precheckRun struct {
	v   *ItemValidator
	now time.Time
}

func (p *precheckRun) Precheck(ctx context.Context, rec model.Record) (model.Outcome, error) {
	return p.v.precheck(ctx, rec, p.now)
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/verifier/internal/metrics"
	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/store"
)

// passResult is the outcome of one validation pass
type passResult struct {
	report     *model.ValidationReport
	outcomes   []model.Outcome
	repairable []model.Outcome
}

// pass validates every record matching filter against a single reference
// instant. Duplicates are deleted under the group lock before the pass
// returns; valid records are marked verified.
//
// Duplicate scope is the (subject, producer) group even when filter narrows
// the category: earlier group records outside the filter are prechecked too
// and, when valid, take part in the duplicate scan. They are never reported,
// deleted or marked.
func (e *Engine) pass(ctx context.Context, filter store.Filter) (*passResult, error) {
	now := e.now()
	start := time.Now()

	scope := filter
	scope.Category = ""
	all, err := e.store.ListRecords(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	records, inFilter := withEarlierGroupRecords(all, filter)

	checked, err := e.validator.Precheck(ctx, records, now)
	if err != nil {
		return nil, err
	}

	if err := e.resolveDuplicates(ctx, checked, inFilter); err != nil {
		return nil, err
	}

	outcomes := make([]model.Outcome, 0, len(checked))
	for i, o := range checked {
		if inFilter[i] {
			outcomes = append(outcomes, o)
		}
	}

	res := &passResult{
		report:   model.NewValidationReport(filter.SubjectID),
		outcomes: outcomes,
	}
	for _, o := range outcomes {
		res.report.Record(o)
		metrics.RecordOutcomes.WithLabelValues(string(o.Reason)).Inc()

		switch {
		case o.Reason.IsValid():
			if o.Record.Verified {
				continue
			}
			if err := e.store.MarkVerified(ctx, o.RecordID); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					// Removed by a concurrent run since the listing
					e.logger.Debug("verified record vanished", "id", o.RecordID)
					continue
				}
				return nil, fmt.Errorf("marking %s verified: %w", o.RecordID, err)
			}
		case o.Reason.IsRepairable():
			res.repairable = append(res.repairable, o)
		}
	}

	e.logger.Info("validation pass complete",
		"subject", filter.SubjectID,
		"total", res.report.Total,
		"valid", res.report.ValidCount,
		"invalid", res.report.InvalidCount(),
		"duplicates", res.report.DuplicatesRemoved,
		"duration", time.Since(start).Round(time.Millisecond))

	return res, nil
}

// withEarlierGroupRecords selects the records of all that match filter plus,
// for each (subject, producer) group, the non-matching records inserted
// before the group's last matching one. Order is kept; inFilter marks
// which selected records match.
func withEarlierGroupRecords(all []model.Record, filter store.Filter) ([]model.Record, []bool) {
	last := make(map[model.GroupKey]int)
	for i, rec := range all {
		if filter.Matches(rec) {
			last[rec.Group()] = i
		}
	}

	var records []model.Record
	var inFilter []bool
	for i, rec := range all {
		matches := filter.Matches(rec)
		if !matches {
			end, ok := last[rec.Group()]
			if !ok || i > end {
				continue
			}
		}
		records = append(records, rec)
		inFilter = append(inFilter, matches)
	}
	return records, inFilter
}

// resolveDuplicates runs the duplicate stage one group at a time under the
// group lock and deletes every in-filter duplicate before the lock is
// released. outcomes is updated in place.
func (e *Engine) resolveDuplicates(ctx context.Context, outcomes []model.Outcome, inFilter []bool) error {
	var order []model.GroupKey
	members := make(map[model.GroupKey][]int)
	for i, o := range outcomes {
		key := o.Record.Group()
		if _, ok := members[key]; !ok {
			order = append(order, key)
		}
		members[key] = append(members[key], i)
	}

	for _, key := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.resolveGroup(ctx, key, members[key], outcomes, inFilter); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) resolveGroup(ctx context.Context, key model.GroupKey, idx []int, outcomes []model.Outcome, inFilter []bool) error {
	unlock, err := e.locker.Lock(ctx, key.String())
	if err != nil {
		return fmt.Errorf("locking group %s: %w", key, err)
	}
	defer unlock()

	group := make([]model.Outcome, len(idx))
	for j, i := range idx {
		group[j] = outcomes[i]
	}
	e.validator.Deduplicate(group)

	for j, i := range idx {
		outcomes[i] = group[j]
		if !inFilter[i] || group[j].Reason != model.ReasonDuplicate {
			continue
		}
		if err := e.store.DeleteRecord(ctx, group[j].RecordID); err != nil {
			return fmt.Errorf("deleting duplicate %s: %w", group[j].RecordID, err)
		}
		e.logger.Debug("duplicate removed", "group", key.String(), "id", group[j].RecordID, "detail", group[j].Detail)
	}
	return nil
}

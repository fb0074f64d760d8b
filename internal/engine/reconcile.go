package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/verifier/internal/collect"
	"github.com/ppiankov/verifier/internal/metrics"
	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/store"
)

// Reconcile validates the subject and repairs defects until a pass finds
// none (Converged) or maxIterations repair cycles have run (Exhausted).
// An exhausted run is not an error; the remaining defects are reported as
// residual and stay in the datastore for follow-up.
func (e *Engine) Reconcile(ctx context.Context, subjectID string, maxIterations int) (*model.ReconciliationReport, error) {
	if subjectID == "" {
		return nil, ErrSubjectRequired
	}
	if maxIterations < 0 {
		return nil, fmt.Errorf("max iterations must be >= 0, got %d", maxIterations)
	}

	report := &model.ReconciliationReport{
		SubjectID:               subjectID,
		MaxIterations:           maxIterations,
		ResidualInvalidByReason: make(map[model.Reason]int),
	}
	sm := newMachine()
	filter := store.Filter{SubjectID: subjectID}

	for !sm.terminal() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("reconcile %s: %w", subjectID, err)
		}

		res, err := e.pass(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("reconcile %s: %w", subjectID, err)
		}
		report.DuplicatesRemoved += res.report.DuplicatesRemoved

		if len(res.repairable) == 0 {
			if err := sm.transition(model.StateConverged); err != nil {
				return nil, err
			}
			continue
		}

		if report.IterationsRun >= maxIterations {
			for _, o := range res.repairable {
				report.ResidualInvalidByReason[o.Reason]++
			}
			report.Residual = res.repairable
			if err := sm.transition(model.StateExhausted); err != nil {
				return nil, err
			}
			continue
		}

		summary, err := e.repair(ctx, subjectID, res)
		if err != nil {
			return nil, fmt.Errorf("reconcile %s: %w", subjectID, err)
		}
		report.IterationsRun++
		summary.Iteration = report.IterationsRun
		report.Deleted += summary.Deleted
		for _, r := range summary.Requests {
			report.Requested += r.Requested
			report.Inserted += r.Inserted
		}
		report.Iterations = append(report.Iterations, summary)

		if err := sm.transition(model.StateIterating); err != nil {
			return nil, err
		}
	}

	report.FinalState = sm.state
	metrics.ReconcileRuns.WithLabelValues(string(report.FinalState)).Inc()
	metrics.ReconcileIterations.Observe(float64(report.IterationsRun))

	e.logger.Info("reconcile finished",
		"subject", subjectID,
		"state", report.FinalState,
		"iterations", report.IterationsRun,
		"deleted", report.Deleted,
		"inserted", report.Inserted,
		"residual", report.ResidualCount())

	return report, nil
}

// repair deletes the repairable records of a pass and asks the collector
// for one replacement per deleted record, grouped by bucket
func (e *Engine) repair(ctx context.Context, subjectID string, res *passResult) (model.IterationSummary, error) {
	summary := model.IterationSummary{
		Validated:         res.report.Total,
		DuplicatesRemoved: res.report.DuplicatesRemoved,
		InvalidByReason:   res.report.InvalidByReason,
	}

	// Deletion happens only after the whole pass has been judged
	var keys []model.RecollectKey
	counts := make(map[model.RecollectKey]int)
	for _, o := range res.repairable {
		if err := e.store.DeleteRecord(ctx, o.RecordID); err != nil {
			return summary, fmt.Errorf("deleting %s: %w", o.RecordID, err)
		}
		summary.Deleted++

		key := o.Record.Recollect()
		if _, ok := counts[key]; !ok {
			keys = append(keys, key)
		}
		counts[key]++
	}

	requests := make([]model.RecollectRequest, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, key := range keys {
		g.Go(func() error {
			req := collect.Request{
				ProducerID:     key.ProducerID,
				SubjectID:      subjectID,
				Category:       key.Category,
				Classification: key.Classification,
				Count:          counts[key],
			}
			rr, err := e.recollect(gctx, req)
			if err != nil {
				return err
			}
			requests[i] = rr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	summary.Requests = requests
	return summary, nil
}

// recollect requests replacements for one bucket and inserts the accepted ones
func (e *Engine) recollect(ctx context.Context, req collect.Request) (model.RecollectRequest, error) {
	rr := model.RecollectRequest{RecollectKey: req.Key(), Requested: req.Count}
	metrics.CollectorCandidates.WithLabelValues(req.ProducerID, "requested").Add(float64(req.Count))

	candidates, err := e.collector.Collect(ctx, req)
	if err != nil {
		return rr, fmt.Errorf("collecting %s/%s/%s: %w", req.ProducerID, req.Category, req.Classification, err)
	}
	rr.Returned = len(candidates)

	screened := collect.Screen(req, candidates)
	rr.Rejected = len(screened.Rejected)
	for _, r := range screened.Rejected {
		e.logger.Warn("candidate rejected", "producer", req.ProducerID, "title", r.Candidate.Title, "error", r.Err)
	}

	if len(screened.Accepted) > 0 {
		recs := make([]model.Record, 0, len(screened.Accepted))
		for _, c := range screened.Accepted {
			recs = append(recs, c.ToRecord(req.SubjectID))
		}
		inserted, err := e.store.InsertRecords(ctx, recs)
		if err != nil {
			return rr, fmt.Errorf("inserting replacements for %s: %w", req.ProducerID, err)
		}
		rr.Inserted = len(inserted)
	}

	metrics.CollectorCandidates.WithLabelValues(req.ProducerID, "returned").Add(float64(rr.Returned))
	metrics.CollectorCandidates.WithLabelValues(req.ProducerID, "rejected").Add(float64(rr.Rejected))
	metrics.CollectorCandidates.WithLabelValues(req.ProducerID, "inserted").Add(float64(rr.Inserted))

	if rr.Inserted < rr.Requested {
		e.logger.Info("collector under-delivered",
			"producer", req.ProducerID, "category", req.Category,
			"requested", rr.Requested, "inserted", rr.Inserted)
	}
	return rr, nil
}

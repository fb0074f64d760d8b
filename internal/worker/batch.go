package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/verifier/internal/model"
)

// Checker runs the checks of a record that need no knowledge of other records
type Checker interface {
	Precheck(ctx context.Context, rec model.Record) (model.Outcome, error)
}

// CheckJob checks one record of a batch
type CheckJob struct {
	Index   int
	Record  model.Record
	Checker Checker
}

// Execute executes the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	outcome, err := j.Checker.Precheck(ctx, j.Record)
	return &CheckResult{
		Index:   j.Index,
		Outcome: outcome,
		Error:   err,
	}
}

// CheckResult is the outcome of a CheckJob
type CheckResult struct {
	Index   int
	Outcome model.Outcome
	Error   error
}

// GetError returns the error from the check
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor checks records concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessRecords checks every record and returns outcomes in input order.
// The first infrastructure error, or cancellation of ctx, aborts the batch.
func (b *BatchProcessor) ProcessRecords(ctx context.Context, records []model.Record) ([]model.Outcome, error) {
	if len(records) == 0 {
		return []model.Outcome{}, nil
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()
	defer pool.Shutdown()

	go func() {
		defer pool.Close()
		for i, rec := range records {
			if !pool.Submit(&CheckJob{Index: i, Record: rec, Checker: b.checker}) {
				return
			}
		}
	}()

	outcomes := make([]model.Outcome, len(records))
	done := 0
	for res := range pool.Results() {
		cr := res.(*CheckResult)
		if cr.Error != nil {
			return nil, fmt.Errorf("check record %s: %w", records[cr.Index].ID, cr.Error)
		}
		outcomes[cr.Index] = cr.Outcome
		done++
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if done != len(records) {
		return nil, fmt.Errorf("batch incomplete: %d of %d records checked", done, len(records))
	}
	return outcomes, nil
}

// ReadURLsFromFile reads URLs from a file (one per line)
func ReadURLsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			urls = append(urls, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return urls, nil
}

package validate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/verifier/internal/model"
)

// fakeURLChecker returns canned verdicts by URL and records calls
type fakeURLChecker struct {
	mu       sync.Mutex
	verdicts map[string]model.Reason
	calls    []string
	err      error
}

func (f *fakeURLChecker) Check(ctx context.Context, rec model.Record) (model.Verdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, rec.ID)
	if f.err != nil {
		return model.Verdict{}, f.err
	}
	if rec.SourceURL == nil {
		return model.Verdict{Reason: model.ReasonValid}, nil
	}
	if reason, ok := f.verdicts[*rec.SourceURL]; ok {
		return model.Verdict{Reason: reason, Attempts: 1, StatusCode: 404}, nil
	}
	return model.Verdict{Reason: model.ReasonValid, Attempts: 1}, nil
}

// validateAll runs the two stages the engine runs in one pass
func validateAll(v *ItemValidator, records []model.Record, now time.Time) ([]model.Outcome, error) {
	outcomes, err := v.Precheck(context.Background(), records, now)
	if err != nil {
		return nil, err
	}
	v.Deduplicate(outcomes)
	return outcomes, nil
}

func newTestItemValidator(checker URLChecker) *ItemValidator {
	cfg := model.DefaultConfig()
	return NewItemValidator(checker, NewRecencyChecker(cfg.Recency), NewDuplicateDetector(cfg.Duplicate.TitleSimilarity), 4)
}

var testNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func rec(id, producer, title, url string) model.Record {
	r := model.Record{
		ID:             id,
		SubjectID:      "subject-1",
		ProducerID:     producer,
		Category:       "policy",
		Classification: model.ClassificationPublic,
		Title:          title,
		Content:        "content for " + id,
	}
	if url != "" {
		r.SourceURL = model.StringPtr(url)
	}
	return r
}

func TestItemValidator_ShortCircuitOrder(t *testing.T) {
	checker := &fakeURLChecker{verdicts: map[string]model.Reason{"https://news.site/dead": model.ReasonNotFound}}
	v := newTestItemValidator(checker)

	missing := rec("r1", "p1", "", "https://news.site/dead")
	dead := rec("r2", "p1", "Dead link story", "https://news.site/dead")
	dead.PublishedDate = model.TimePtr(testNow.AddDate(-10, 0, 0))
	old := rec("r3", "p1", "Old story", "https://news.site/old")
	old.PublishedDate = model.TimePtr(testNow.AddDate(-10, 0, 0))

	outcomes, err := validateAll(v, []model.Record{missing, dead, old}, testNow)
	if err != nil {
		t.Fatal(err)
	}

	want := []model.Reason{model.ReasonMissingField, model.ReasonNotFound, model.ReasonDateOutOfRange}
	for i, o := range outcomes {
		if o.Reason != want[i] {
			t.Errorf("record %s: expected %s, got %s", o.RecordID, want[i], o.Reason)
		}
	}

	for _, id := range checker.calls {
		if id == "r1" {
			t.Error("liveness must not run for a record with missing fields")
		}
	}
	if outcomes[1].Attempts != 1 || outcomes[1].Detail != "HTTP 404" {
		t.Errorf("expected liveness details to be carried, got %+v", outcomes[1])
	}
}

func TestItemValidator_DuplicatesWithinGroupOnly(t *testing.T) {
	v := newTestItemValidator(&fakeURLChecker{})

	// a2 repeats a1's title, b1 repeats a1 under another producer, a3 repeats
	// a1's normalized URL and a4 repeats the title of the rejected a3
	records := []model.Record{
		rec("a1", "p1", "Budget passes council vote", "https://news.site/budget"),
		rec("a2", "p1", "Budget passes council vote", "https://other.site/budget"),
		rec("b1", "p2", "Budget passes council vote", "https://news.site/budget"),
		rec("a3", "p1", "Transit fares frozen", "https://news.site/budget?src=rss"),
		rec("a4", "p1", "Transit fares frozen", ""),
	}

	outcomes, err := validateAll(v, records, testNow)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]model.Reason{
		"a1": model.ReasonValid,
		"a2": model.ReasonDuplicate,
		"b1": model.ReasonValid,
		"a3": model.ReasonDuplicate,
		"a4": model.ReasonValid,
	}
	for _, o := range outcomes {
		if o.Reason != want[o.RecordID] {
			t.Errorf("%s: expected %s, got %s (%s)", o.RecordID, want[o.RecordID], o.Reason, o.Detail)
		}
	}
}

func TestItemValidator_InvalidRecordsAreNotDedupAnchors(t *testing.T) {
	checker := &fakeURLChecker{verdicts: map[string]model.Reason{"https://news.site/gone": model.ReasonNotFound}}
	v := newTestItemValidator(checker)

	records := []model.Record{
		rec("r1", "p1", "Harbor project approved", "https://news.site/gone"),
		rec("r2", "p1", "Harbor project approved", "https://news.site/live"),
	}
	outcomes, err := validateAll(v, records, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if outcomes[0].Reason != model.ReasonNotFound || outcomes[1].Reason != model.ReasonValid {
		t.Errorf("expected [not_found valid], got [%s %s]", outcomes[0].Reason, outcomes[1].Reason)
	}
}

func TestItemValidator_DeduplicateWithinGroupOnly(t *testing.T) {
	v := newTestItemValidator(&fakeURLChecker{})
	outcomes := []model.Outcome{
		model.NewOutcome(rec("r1", "p1", "Same", "https://a.site/1"), model.ReasonValid, ""),
		model.NewOutcome(rec("r2", "p2", "Same", "https://a.site/2"), model.ReasonValid, ""),
		model.NewOutcome(rec("r3", "p1", "Same", "https://a.site/3"), model.ReasonValid, ""),
	}
	v.Deduplicate(outcomes)

	got := []model.Reason{outcomes[0].Reason, outcomes[1].Reason, outcomes[2].Reason}
	want := []model.Reason{model.ReasonValid, model.ReasonValid, model.ReasonDuplicate}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("outcome %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestItemValidator_InfrastructureError(t *testing.T) {
	v := newTestItemValidator(&fakeURLChecker{err: context.Canceled})

	_, err := validateAll(v, []model.Record{rec("r1", "p1", "t", "https://a.site")}, testNow)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected wrapped context.Canceled, got %v", err)
	}
}

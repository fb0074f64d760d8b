package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/verifier/internal/model"
)

// mockChecker implements Checker
type mockChecker struct {
	fail  string
	calls int32
}

func (m *mockChecker) Precheck(ctx context.Context, rec model.Record) (model.Outcome, error) {
	atomic.AddInt32(&m.calls, 1)
	time.Sleep(time.Millisecond)
	if rec.ID == m.fail {
		return model.Outcome{}, errors.New("datastore unavailable")
	}
	if strings.HasPrefix(rec.Title, "bad") {
		return model.NewOutcome(rec, model.ReasonMissingField, "title"), nil
	}
	return model.NewOutcome(rec, model.ReasonValid, ""), nil
}

func records(n int) []model.Record {
	out := make([]model.Record, n)
	for i := range out {
		out[i] = model.Record{ID: string(rune('a' + i)), Title: "ok"}
	}
	return out
}

func TestBatchProcessor_ProcessRecords_Order(t *testing.T) {
	recs := records(20)
	recs[3].Title = "bad title"
	recs[17].Title = "bad again"

	checker := &mockChecker{}
	outcomes, err := NewBatchProcessor(checker, 3).ProcessRecords(context.Background(), recs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outcomes) != len(recs) {
		t.Fatalf("expected %d outcomes, got %d", len(recs), len(outcomes))
	}
	for i, o := range outcomes {
		if o.RecordID != recs[i].ID {
			t.Errorf("outcome %d belongs to %s, want %s", i, o.RecordID, recs[i].ID)
		}
		want := model.ReasonValid
		if i == 3 || i == 17 {
			want = model.ReasonMissingField
		}
		if o.Reason != want {
			t.Errorf("outcome %d: got %s, want %s", i, o.Reason, want)
		}
	}
}

func TestBatchProcessor_ProcessRecords_Error(t *testing.T) {
	recs := records(10)
	checker := &mockChecker{fail: recs[4].ID}

	_, err := NewBatchProcessor(checker, 2).ProcessRecords(context.Background(), recs)
	if err == nil || !strings.Contains(err.Error(), "datastore unavailable") {
		t.Fatalf("expected checker error, got %v", err)
	}
}

func TestBatchProcessor_ProcessRecords_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewBatchProcessor(&mockChecker{}, 2).ProcessRecords(ctx, records(5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	outcomes, err := NewBatchProcessor(&mockChecker{}, 2).ProcessRecords(context.Background(), nil)
	if err != nil || len(outcomes) != 0 {
		t.Errorf("expected empty result, got %v, %v", outcomes, err)
	}
}

func TestReadURLsFromFile(t *testing.T) {
	content := "https://a.site/1\n# comment\n\nhttps://b.site/2\nhttps://a.site/1\n"
	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 2 || urls[0] != "https://a.site/1" || urls[1] != "https://b.site/2" {
		t.Errorf("unexpected urls: %v", urls)
	}

	if _, err := ReadURLsFromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

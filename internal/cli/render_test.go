package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/ppiankov/verifier/internal/model"
)

func TestRenderJSON_Golden(t *testing.T) {
	tests := []struct {
		name   string
		report any
	}{
		{
			name: "reconcile_converged",
			report: &model.ReconciliationReport{
				SubjectID:               "acme",
				MaxIterations:           3,
				IterationsRun:           1,
				FinalState:              model.StateConverged,
				ResidualInvalidByReason: map[model.Reason]int{},
				Deleted:                 2,
				DuplicatesRemoved:       1,
				Requested:               2,
				Inserted:                2,
				Iterations: []model.IterationSummary{{
					Iteration:         1,
					Validated:         5,
					DuplicatesRemoved: 1,
					Deleted:           2,
					InvalidByReason: map[model.Reason]int{
						model.ReasonNotFound:     1,
						model.ReasonMissingField: 1,
					},
					Requests: []model.RecollectRequest{{
						RecollectKey: model.RecollectKey{
							ProducerID:     "agent-a",
							Category:       "governance",
							Classification: model.ClassificationPublic,
						},
						Requested: 2,
						Returned:  2,
						Inserted:  2,
					}},
				}},
			},
		},
		{
			name: "reconcile_exhausted",
			report: &model.ReconciliationReport{
				SubjectID:  "acme",
				FinalState: model.StateExhausted,
				ResidualInvalidByReason: map[model.Reason]int{
					model.ReasonNotFound:       1,
					model.ReasonDateOutOfRange: 1,
				},
				Residual: []model.Outcome{
					{RecordID: "rec-1", Reason: model.ReasonNotFound, Detail: "HTTP 404", Attempts: 1},
					{RecordID: "rec-2", Reason: model.ReasonDateOutOfRange, Detail: "older than 730 days"},
				},
			},
		},
		{
			name: "validate_report",
			report: &model.ValidationReport{
				SubjectID:         "acme",
				ProducerFilter:    "agent-a",
				Total:             4,
				ValidCount:        2,
				InvalidByReason:   map[model.Reason]int{model.ReasonFakeURLPattern: 1},
				DuplicatesRemoved: 1,
			},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := renderJSON(&buf, tt.report); err != nil {
				t.Fatalf("renderJSON: %v", err)
			}
			g.Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestRenderReconcileSummary(t *testing.T) {
	var buf bytes.Buffer
	renderReconcileSummary(&buf, &model.ReconciliationReport{
		SubjectID:               "acme",
		MaxIterations:           3,
		IterationsRun:           3,
		FinalState:              model.StateExhausted,
		ResidualInvalidByReason: map[model.Reason]int{model.ReasonTimeout: 2, model.ReasonNotFound: 1},
	})

	out := buf.String()
	for _, want := range []string{"Reconciliation: acme", "exhausted", "3/3", "timeout", "Residual defects:    3", "Transient (retry):   2"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReconcileSummary_NoTransientLine(t *testing.T) {
	var buf bytes.Buffer
	renderReconcileSummary(&buf, &model.ReconciliationReport{
		SubjectID:               "acme",
		FinalState:              model.StateExhausted,
		ResidualInvalidByReason: map[model.Reason]int{model.ReasonNotFound: 1},
	})
	if strings.Contains(buf.String(), "Transient") {
		t.Errorf("transient line printed without transient defects:\n%s", buf.String())
	}
}

func TestRenderValidationSummary_NoDefects(t *testing.T) {
	var buf bytes.Buffer
	renderValidationSummary(&buf, model.NewValidationReport("acme"))
	if !strings.Contains(buf.String(), "(none)") {
		t.Errorf("expected (none) for an empty histogram:\n%s", buf.String())
	}
}

func TestRenderVerdict(t *testing.T) {
	var buf bytes.Buffer
	renderVerdict(&buf, model.Verdict{
		URL:        "https://news.acme.org/gone",
		Reason:     model.ReasonNotFound,
		StatusCode: 404,
		Attempts:   1,
	})
	out := buf.String()
	if !strings.HasPrefix(out, "✗") || !strings.Contains(out, "(HTTP 404)") || !strings.Contains(out, "attempts=1") {
		t.Errorf("unexpected verdict line: %q", out)
	}
}

package validate

import (
	"testing"
	"time"

	"github.com/ppiankov/verifier/internal/model"
)

func TestRecencyChecker_Check(t *testing.T) {
	checker := NewRecencyChecker(model.DefaultConfig().Recency)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		desc           string
		classification model.Classification
		published      *time.Time
		reason         model.Reason
	}{
		{"no date", model.ClassificationPublic, nil, model.ReasonValid},
		{"public, one year old", model.ClassificationPublic, model.TimePtr(now.Add(-365 * day)), model.ReasonValid},
		{"public, three years old", model.ClassificationPublic, model.TimePtr(now.Add(-3 * 365 * day)), model.ReasonDateOutOfRange},
		{"public, exactly on the boundary", model.ClassificationPublic, model.TimePtr(now.Add(-730 * day)), model.ReasonValid},
		{"official, three years old", model.ClassificationOfficial, model.TimePtr(now.Add(-3 * 365 * day)), model.ReasonValid},
		{"official, six years old", model.ClassificationOfficial, model.TimePtr(now.Add(-6 * 365 * day)), model.ReasonDateOutOfRange},
		{"future within skew", model.ClassificationPublic, model.TimePtr(now.Add(24 * time.Hour)), model.ReasonValid},
		{"future beyond skew", model.ClassificationPublic, model.TimePtr(now.Add(5 * day)), model.ReasonDateOutOfRange},
		{"unknown classification", model.Classification("rumor"), model.TimePtr(now), model.ReasonDateOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			rec := model.Record{Classification: tt.classification, PublishedDate: tt.published}
			reason, detail := checker.Check(rec, now)
			if reason != tt.reason {
				t.Errorf("Expected %s, got %s (%s)", tt.reason, reason, detail)
			}
			if reason != model.ReasonValid && detail == "" {
				t.Error("Expected a detail for an out-of-range date")
			}
		})
	}
}

package validate

import (
	"fmt"
	"time"

	"github.com/ppiankov/verifier/internal/model"
)

// RecencyChecker enforces the per-classification publication window
type RecencyChecker struct {
	windows map[model.Classification]time.Duration
	skew    time.Duration
}

// NewRecencyChecker creates a checker from config
func NewRecencyChecker(cfg model.RecencyConfig) *RecencyChecker {
	return &RecencyChecker{
		windows: map[model.Classification]time.Duration{
			model.ClassificationOfficial: cfg.OfficialWindow,
			model.ClassificationPublic:   cfg.PublicWindow,
		},
		skew: cfg.FutureSkew,
	}
}

// Check judges rec's publication date against now. The lower bound is inclusive.
func (c *RecencyChecker) Check(rec model.Record, now time.Time) (model.Reason, string) {
	if rec.PublishedDate == nil {
		return model.ReasonValid, ""
	}

	window, ok := c.windows[rec.Classification]
	if !ok {
		return model.ReasonDateOutOfRange, fmt.Sprintf("unknown classification %q", rec.Classification)
	}

	published := *rec.PublishedDate
	if published.After(now.Add(c.skew)) {
		return model.ReasonDateOutOfRange, fmt.Sprintf("published %s is in the future", published.Format(time.DateOnly))
	}

	oldest := now.Add(-window)
	if published.Before(oldest) {
		return model.ReasonDateOutOfRange, fmt.Sprintf("published %s is older than %d days", published.Format(time.DateOnly), int(window.Hours()/24))
	}

	return model.ReasonValid, ""
}

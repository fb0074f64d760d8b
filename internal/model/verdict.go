package model

import "time"

// Verdict contains the result of a liveness check on a source URL
type Verdict struct {
	URL         string    `json:"url"`
	Reason      Reason    `json:"reason"`
	StatusCode  int       `json:"status_code,omitempty"`
	Attempts    int       `json:"attempts"`               // Network attempts (0 when no request was made)
	Method      string    `json:"method,omitempty"`       // HEAD or GET on the last attempt
	RedirectURL string    `json:"redirect_url,omitempty"` // If redirected
	Pattern     string    `json:"pattern,omitempty"`      // Matched exempt or fake-URL rule
	Error       string    `json:"error,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Cacheable reports whether the verdict is stable enough to reuse across runs.
// Transient network outcomes are always re-checked.
func (v Verdict) Cacheable() bool {
	return v.Attempts > 0 && (v.Reason == ReasonValid || v.Reason == ReasonNotFound)
}

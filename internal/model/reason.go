package model

// Reason is the per-record outcome of a verification pass.
// Reasons are data, not errors: every non-valid reason is handled by the
// orchestrator and never surfaces as a Go error.
type Reason string

const (
	ReasonValid           Reason = "valid"
	ReasonMissingField    Reason = "missing_field"     // Title or content blank
	ReasonEmptyURL        Reason = "empty_url"         // URL field present but blank
	ReasonFakeURLPattern  Reason = "fake_url_pattern"  // Placeholder or fabricated URL
	ReasonNotFound        Reason = "not_found"         // 404 / 410
	ReasonServerError     Reason = "server_error"      // 5xx (or 429) after all attempts
	ReasonTimeout         Reason = "timeout"           // Timed out on every attempt
	ReasonConnectionError Reason = "connection_error"  // Dial/reset/DNS on every attempt
	ReasonInvalidURL      Reason = "invalid_url"       // Unparseable, wrong scheme, or unresolvable 4xx
	ReasonDateOutOfRange  Reason = "date_out_of_range" // Outside the classification window
	ReasonDuplicate       Reason = "duplicate"         // Near-identical to an earlier record
)

// AllReasons lists every reason in reporting order
var AllReasons = []Reason{
	ReasonValid,
	ReasonMissingField,
	ReasonEmptyURL,
	ReasonFakeURLPattern,
	ReasonNotFound,
	ReasonServerError,
	ReasonTimeout,
	ReasonConnectionError,
	ReasonInvalidURL,
	ReasonDateOutOfRange,
	ReasonDuplicate,
}

// IsValid reports whether the outcome is a pass
func (r Reason) IsValid() bool {
	return r == ReasonValid
}

// IsRepairable reports whether a failed record should be deleted and recollected.
// Duplicates are excess data, so they are deleted without recollection.
func (r Reason) IsRepairable() bool {
	return r != ReasonValid && r != ReasonDuplicate
}

// IsTransient reports whether the reason came out of network flakiness
func (r Reason) IsTransient() bool {
	switch r {
	case ReasonServerError, ReasonTimeout, ReasonConnectionError:
		return true
	}
	return false
}

// Outcome is the verification result for one record
type Outcome struct {
	Record   Record `json:"-"`
	RecordID string `json:"record_id"`
	Reason   Reason `json:"reason"`
	Detail   string `json:"detail,omitempty"`   // Status code, matched pattern, etc.
	Attempts int    `json:"attempts,omitempty"` // Network attempts made by the liveness check
}

// NewOutcome builds an outcome for a record
func NewOutcome(rec Record, reason Reason, detail string) Outcome {
	return Outcome{
		Record:   rec,
		RecordID: rec.ID,
		Reason:   reason,
		Detail:   detail,
	}
}

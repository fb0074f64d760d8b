package model

import "sort"

// State is the orchestrator state
type State string

const (
	StateIterating State = "iterating" // Repair loop still running
	StateConverged State = "converged" // A pass found zero repairable records
	StateExhausted State = "exhausted" // Iteration budget spent with defects left
)

// ValidationReport summarizes one validation pass over a subject
type ValidationReport struct {
	SubjectID         string         `json:"subject_id"`
	ProducerFilter    string         `json:"producer_filter,omitempty"`
	CategoryFilter    string         `json:"category_filter,omitempty"`
	Total             int            `json:"total"`
	ValidCount        int            `json:"valid_count"`
	InvalidByReason   map[Reason]int `json:"invalid_by_reason"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
}

// NewValidationReport creates an empty report
func NewValidationReport(subjectID string) *ValidationReport {
	return &ValidationReport{
		SubjectID:       subjectID,
		InvalidByReason: make(map[Reason]int),
	}
}

// Record tallies one outcome. Duplicates are counted separately from
// repairable defects.
func (r *ValidationReport) Record(o Outcome) {
	r.Total++
	switch {
	case o.Reason.IsValid():
		r.ValidCount++
	case o.Reason == ReasonDuplicate:
		r.DuplicatesRemoved++
	default:
		r.InvalidByReason[o.Reason]++
	}
}

// InvalidCount returns the number of repairable defects
func (r *ValidationReport) InvalidCount() int {
	n := 0
	for _, c := range r.InvalidByReason {
		n += c
	}
	return n
}

// IterationSummary records what one repair iteration did
type IterationSummary struct {
	Iteration         int                `json:"iteration"`
	Validated         int                `json:"validated"`
	DuplicatesRemoved int                `json:"duplicates_removed"`
	Deleted           int                `json:"deleted"`
	InvalidByReason   map[Reason]int     `json:"invalid_by_reason"`
	Requests          []RecollectRequest `json:"requests,omitempty"`
}

// RecollectRequest records one replacement request and its yield
type RecollectRequest struct {
	RecollectKey
	Requested int `json:"requested"`
	Returned  int `json:"returned"`
	Rejected  int `json:"rejected"` // Failed boundary validation or answered the wrong bucket
	Inserted  int `json:"inserted"`
}

// ReconciliationReport summarizes a full reconcile run
type ReconciliationReport struct {
	SubjectID               string             `json:"subject_id"`
	MaxIterations           int                `json:"max_iterations"`
	IterationsRun           int                `json:"iterations_run"`
	FinalState              State              `json:"final_state"`
	ResidualInvalidByReason map[Reason]int     `json:"residual_invalid_by_reason"`
	Residual                []Outcome          `json:"residual,omitempty"`
	Deleted                 int                `json:"deleted"`
	DuplicatesRemoved       int                `json:"duplicates_removed"`
	Requested               int                `json:"requested"`
	Inserted                int                `json:"inserted"`
	Iterations              []IterationSummary `json:"iterations,omitempty"`
}

// ResidualCount returns the number of defects left after the run
func (r *ReconciliationReport) ResidualCount() int {
	n := 0
	for _, c := range r.ResidualInvalidByReason {
		n += c
	}
	return n
}

// TransientResidualCount counts residual defects caused by network
// flakiness; a later run may clear them without recollection
func (r *ReconciliationReport) TransientResidualCount() int {
	n := 0
	for reason, c := range r.ResidualInvalidByReason {
		if reason.IsTransient() {
			n += c
		}
	}
	return n
}

// SortedReasons returns the keys of a reason histogram in reporting order
func SortedReasons(m map[Reason]int) []Reason {
	order := make(map[Reason]int, len(AllReasons))
	for i, r := range AllReasons {
		order[r] = i
	}
	keys := make([]Reason, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, okI := order[keys[i]]
		oj, okJ := order[keys[j]]
		if okI && okJ {
			return oi < oj
		}
		if okI != okJ {
			return okI
		}
		return keys[i] < keys[j]
	})
	return keys
}

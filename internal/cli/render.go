package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ppiankov/verifier/internal/model"
)

const banner = "═══════════════════════════════════════════════════════════"

// renderJSON writes v as indented JSON
func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// writeJSON renders v to path, or to stdout when path is "-"
func writeJSON(path string, v any) (err error) {
	if path == "" {
		return nil
	}
	if path == "-" {
		return renderJSON(os.Stdout, v)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return renderJSON(f, v)
}

func printReasons(w io.Writer, m map[model.Reason]int) {
	if len(m) == 0 {
		fmt.Fprintf(w, "    (none)\n")
		return
	}
	for _, r := range model.SortedReasons(m) {
		fmt.Fprintf(w, "    %-20s %d\n", r, m[r])
	}
}

// renderValidationSummary prints the human summary of a validate run
func renderValidationSummary(w io.Writer, r *model.ValidationReport) {
	fmt.Fprintf(w, "\n%s\n", banner)
	fmt.Fprintf(w, "  Validation: %s\n", r.SubjectID)
	fmt.Fprintf(w, "%s\n\n", banner)
	if r.ProducerFilter != "" {
		fmt.Fprintf(w, "  Producer:            %s\n", r.ProducerFilter)
	}
	if r.CategoryFilter != "" {
		fmt.Fprintf(w, "  Category:            %s\n", r.CategoryFilter)
	}
	fmt.Fprintf(w, "  Records:             %d\n", r.Total)
	fmt.Fprintf(w, "  Valid:               %d\n", r.ValidCount)
	fmt.Fprintf(w, "  Duplicates removed:  %d\n", r.DuplicatesRemoved)
	fmt.Fprintf(w, "  Invalid:             %d\n", r.InvalidCount())
	printReasons(w, r.InvalidByReason)
	fmt.Fprintln(w)
}

// renderReconcileSummary prints the human summary of a reconcile run
func renderReconcileSummary(w io.Writer, r *model.ReconciliationReport) {
	fmt.Fprintf(w, "\n%s\n", banner)
	fmt.Fprintf(w, "  Reconciliation: %s\n", r.SubjectID)
	fmt.Fprintf(w, "%s\n\n", banner)
	fmt.Fprintf(w, "  Final state:         %s\n", r.FinalState)
	fmt.Fprintf(w, "  Iterations:          %d/%d\n", r.IterationsRun, r.MaxIterations)
	fmt.Fprintf(w, "  Deleted (repair):    %d\n", r.Deleted)
	fmt.Fprintf(w, "  Duplicates removed:  %d\n", r.DuplicatesRemoved)
	fmt.Fprintf(w, "  Requested:           %d\n", r.Requested)
	fmt.Fprintf(w, "  Inserted:            %d\n", r.Inserted)
	fmt.Fprintf(w, "  Residual defects:    %d\n", r.ResidualCount())
	if n := r.TransientResidualCount(); n > 0 {
		fmt.Fprintf(w, "  Transient (retry):   %d\n", n)
	}
	printReasons(w, r.ResidualInvalidByReason)

	for _, it := range r.Iterations {
		fmt.Fprintf(w, "\n  Iteration %d: validated %d, deleted %d\n", it.Iteration, it.Validated, it.Deleted)
		for _, req := range it.Requests {
			fmt.Fprintf(w, "    %s/%s/%s: requested %d, returned %d, rejected %d, inserted %d\n",
				req.ProducerID, req.Category, req.Classification,
				req.Requested, req.Returned, req.Rejected, req.Inserted)
		}
	}
	fmt.Fprintln(w)
}

// renderVerdict prints one liveness verdict line
func renderVerdict(w io.Writer, v model.Verdict) {
	mark := "✓"
	if !v.Reason.IsValid() {
		mark = "✗"
	}
	fmt.Fprintf(w, "%s %-18s %s", mark, v.Reason, v.URL)
	if v.StatusCode != 0 {
		fmt.Fprintf(w, " (HTTP %d)", v.StatusCode)
	}
	if v.Pattern != "" {
		fmt.Fprintf(w, " [%s]", v.Pattern)
	}
	fmt.Fprintf(w, " attempts=%d", v.Attempts)
	if v.Cached {
		fmt.Fprintf(w, " cached")
	}
	if v.Error != "" {
		fmt.Fprintf(w, " error=%q", v.Error)
	}
	fmt.Fprintln(w)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	maxIterations    int
	failOnResidual   bool
	reconcileJSON    string
	reconcileTimeout time.Duration
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile <subject>",
	Short: "Validate, delete defects and recollect replacements until clean",
	Long: `Reconcile repeats validate -> delete -> recollect for a subject until a
pass finds no repairable defects (converged) or the iteration budget is
spent (exhausted).

Replacements are requested from the collector routed for each producer,
one request per (producer, category, classification) bucket. An exhausted
run still succeeds; its residual defects stay in the store for follow-up.

Example:
  verifier reconcile acme
  verifier reconcile acme --max-iterations 5 --json reconcile.json
  verifier reconcile acme --max-iterations 0   # report only`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().IntVar(&maxIterations, "max-iterations", -1, "repair cycles before giving up (default from config)")
	reconcileCmd.Flags().BoolVar(&failOnResidual, "fail-on-residual", false, "exit non-zero when the run ends exhausted")
	reconcileCmd.Flags().StringVar(&reconcileJSON, "json", "", "write the JSON report to this path (- for stdout)")
	reconcileCmd.Flags().DurationVar(&reconcileTimeout, "timeout", 2*time.Hour, "overall run timeout")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	subject := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	iterations := cfg.Reconcile.MaxIterations
	if maxIterations >= 0 {
		iterations = maxIterations
	}

	ctx, cancel := runContext(reconcileTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if verbose {
		fmt.Fprintf(os.Stderr, "Reconciling: %s (max iterations: %d, default collector: %s)\n",
			subject, iterations, cfg.Collector.Default)
	}

	report, err := a.engine.Reconcile(ctx, subject, iterations)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}

	renderReconcileSummary(os.Stderr, report)
	if err := writeJSON(reconcileJSON, report); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if failOnResidual && report.ResidualCount() > 0 {
		return fmt.Errorf("%d residual defects after %d iterations", report.ResidualCount(), report.IterationsRun)
	}
	return nil
}

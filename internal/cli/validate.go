package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verifier/internal/store"
)

var (
	producerFilter  string
	categoryFilter  string
	validateJSON    string
	validateTimeout time.Duration
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <subject>",
	Short: "Run one validation pass over a subject's records",
	Long: `Validate checks every stored record of a subject in a fixed order:
required fields, source URL liveness, publication recency, and duplicates
within the same (subject, producer) group.

Duplicates are deleted and passing records are marked verified. Other
defects are only reported; use 'verifier reconcile' to repair them.

Example:
  verifier validate acme
  verifier validate acme --producer agent-a --category governance
  verifier validate acme --json report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&producerFilter, "producer", "", "only validate records of this producer")
	validateCmd.Flags().StringVar(&categoryFilter, "category", "", "only validate records of this category")
	validateCmd.Flags().StringVar(&validateJSON, "json", "", "write the JSON report to this path (- for stdout)")
	validateCmd.Flags().DurationVar(&validateTimeout, "timeout", 30*time.Minute, "overall run timeout")
}

// runContext returns a context cancelled by SIGINT/SIGTERM or the run timeout
func runContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	subject := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	ctx, cancel := runContext(validateTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if verbose {
		fmt.Fprintf(os.Stderr, "Validating: %s (store: %s, workers: %d)\n", subject, cfg.Store.Driver, cfg.Validation.Workers)
	}

	report, err := a.engine.Validate(ctx, subject, store.Filter{
		ProducerID: producerFilter,
		Category:   categoryFilter,
	})
	if err != nil {
		return fmt.Errorf("validate failed: %w", err)
	}

	renderValidationSummary(os.Stderr, report)
	if err := writeJSON(validateJSON, report); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/worker"
)

var (
	urlFile       string
	checkJSON     string
	checkTimeout  time.Duration
	checkWorkers  int
	noCache       bool
	insecureTLS   bool
	respectRobots bool
)

// checkURLCmd represents the check-url command
var checkURLCmd = &cobra.Command{
	Use:   "check-url [url...]",
	Short: "Run the liveness checker on one or more URLs",
	Long: `Check-url runs the source URL liveness check without touching the store:
exempt and fake-pattern rules first, then HEAD (falling back to GET) with
bounded retries on server errors, timeouts and connection failures.

Example:
  verifier check-url https://www.sec.gov/
  verifier check-url --file urls.txt --workers 10
  verifier check-url https://example.org/a --json -`,
	RunE: runCheckURL,
}

func init() {
	rootCmd.AddCommand(checkURLCmd)

	checkURLCmd.Flags().StringVarP(&urlFile, "file", "f", "", "read URLs from file (one per line, # for comments)")
	checkURLCmd.Flags().StringVar(&checkJSON, "json", "", "write verdicts as JSON to this path (- for stdout)")
	checkURLCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Minute, "overall timeout")
	checkURLCmd.Flags().IntVar(&checkWorkers, "workers", 0, "concurrent checks (default: validation.workers)")
	checkURLCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the verdict cache (force fresh checks)")
	checkURLCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	checkURLCmd.Flags().BoolVar(&respectRobots, "respect-robots", false, "honour robots.txt crawl-delay per host")
}

func runCheckURL(cmd *cobra.Command, args []string) error {
	urls := append([]string(nil), args...)
	if urlFile != "" {
		fromFile, err := worker.ReadURLsFromFile(urlFile)
		if err != nil {
			return fmt.Errorf("failed to read URLs: %w", err)
		}
		urls = append(urls, fromFile...)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs given (pass them as arguments or with --file)")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}
	if respectRobots {
		cfg.RateLimiting.RespectRobots = true
	}
	logger := newLogger(cfg.Logging)

	workers := checkWorkers
	if workers <= 0 {
		workers = cfg.Validation.Workers
	}

	ctx, cancel := runContext(checkTimeout)
	defer cancel()

	a, err := newApp(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking %d URLs with %d workers\n", len(urls), workers)
	}

	verdicts := make([]model.Verdict, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, u := range urls {
		g.Go(func() error {
			v, err := a.liveness.CheckURL(gctx, u)
			if err != nil {
				return fmt.Errorf("check %s: %w", u, err)
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := os.Stdout
	if checkJSON == "-" {
		out = os.Stderr
	}
	failed := 0
	for _, v := range verdicts {
		renderVerdict(out, v)
		if !v.Reason.IsValid() {
			failed++
		}
	}
	fmt.Fprintf(os.Stderr, "\n%d/%d URLs live\n", len(verdicts)-failed, len(verdicts))

	if err := writeJSON(checkJSON, verdicts); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}

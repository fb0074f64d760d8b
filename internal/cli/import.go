package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/store"
)

var (
	importProducer string
	importDryRun   bool
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <subject> <file.json>",
	Short: "Import records for a subject from a JSON file",
	Long: `Import reads a JSON array of records and inserts the ones that pass
boundary validation. Each item carries producer_id, category,
classification, title, content and optionally source_url,
published_date (RFC 3339) and kind (manual, llm or feed; default manual).

Example:
  verifier import acme records.json
  verifier import acme records.json --producer analyst-1 --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importProducer, "producer", "", "producer ID for items that carry none")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate the file without inserting")
}

// importItem is one record of an import file
type importItem struct {
	ProducerID     string     `json:"producer_id"`
	Kind           string     `json:"kind"`
	Category       string     `json:"category"`
	Classification string     `json:"classification"`
	Title          string     `json:"title"`
	Content        string     `json:"content"`
	SourceURL      *string    `json:"source_url"`
	PublishedDate  *time.Time `json:"published_date"`
}

// parseImport decodes an import file into candidates. Items that fail
// boundary validation are returned as errors keyed by their position.
func parseImport(r io.Reader, defaultProducer string) ([]model.CandidateRecord, []error, error) {
	var items []importItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, nil, fmt.Errorf("decoding import file: %w", err)
	}

	var (
		accepted []model.CandidateRecord
		rejected []error
	)
	for i, it := range items {
		producer := it.ProducerID
		if producer == "" {
			producer = defaultProducer
		}
		kind := model.ProducerKind(it.Kind)
		if kind == "" {
			kind = model.ProducerManual
		}
		class, _ := model.ParseClassification(it.Classification)

		cand := model.CandidateRecord{
			Producer:       model.ProducerTag{ID: producer, Kind: kind},
			Category:       it.Category,
			Classification: class,
			Title:          it.Title,
			Content:        it.Content,
			SourceURL:      it.SourceURL,
			PublishedDate:  it.PublishedDate,
		}
		if err := cand.Validate(); err != nil {
			rejected = append(rejected, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		accepted = append(accepted, cand)
	}
	return accepted, rejected, nil
}

// importCandidates inserts accepted candidates for subject
func importCandidates(ctx context.Context, st store.Store, subject string, cands []model.CandidateRecord) ([]model.Record, error) {
	recs := make([]model.Record, 0, len(cands))
	for _, c := range cands {
		recs = append(recs, c.ToRecord(subject))
	}
	inserted, err := st.InsertRecords(ctx, recs)
	if err != nil {
		return nil, fmt.Errorf("inserting records: %w", err)
	}
	return inserted, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	subject, path := args[0], args[1]

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	cands, rejected, err := parseImport(f, importProducer)
	if err != nil {
		return err
	}
	for _, r := range rejected {
		fmt.Fprintf(os.Stderr, "✗ %v\n", r)
	}
	fmt.Fprintf(os.Stderr, "%d valid, %d rejected\n", len(cands), len(rejected))

	if importDryRun || len(cands) == 0 {
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Logging)

	ctx, cancel := runContext(5 * time.Minute)
	defer cancel()

	a, err := newApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	inserted, err := importCandidates(ctx, a.store, subject, cands)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Imported %d records for %s\n", len(inserted), subject)
	return nil
}

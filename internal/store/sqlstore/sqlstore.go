// Package sqlstore implements store.Store on SQLite or PostgreSQL via sqlx.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	// database/sql drivers
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/store"
)

// Driver selects the SQL backend
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

const recordColumns = `id, subject_id, producer_id, category, classification, title, content,
	source_url, published_date, verified, created_at`

// Store is a SQL-backed record store
type Store struct {
	db     *sqlx.DB
	driver Driver
	logger *slog.Logger
	now    func() time.Time
}

// Open connects, applies migrations and returns a ready store
func Open(ctx context.Context, cfg model.StoreConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver := Driver(strings.ToLower(cfg.Driver))
	var sqlDriver string
	switch driver {
	case DriverSQLite, "sqlite3":
		driver, sqlDriver = DriverSQLite, "sqlite3"
	case DriverPostgres, "pgx":
		driver, sqlDriver = DriverPostgres, "pgx"
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(sqlDriver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		maxConns := cfg.MaxConns
		if maxConns <= 0 {
			maxConns = 10
		}
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(time.Hour)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if driver == DriverSQLite {
		if err := applyPragmas(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := migrate(ctx, db.DB, driver, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug("store opened", "driver", driver)
	return &Store{db: db, driver: driver, logger: logger, now: time.Now}, nil
}

func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// ListRecords returns matching records ordered by insertion
func (s *Store) ListRecords(ctx context.Context, f store.Filter) ([]model.Record, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.SubjectID != "" {
		where = append(where, "subject_id = ?")
		args = append(args, f.SubjectID)
	}
	if f.ProducerID != "" {
		where = append(where, "producer_id = ?")
		args = append(args, f.ProducerID)
	}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}

	query := "SELECT " + recordColumns + " FROM records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	out := make([]model.Record, len(rows))
	for i, row := range rows {
		out[i] = row.toRecord()
	}
	return out, nil
}

// InsertRecords inserts in one transaction; existing IDs are skipped
func (s *Store) InsertRecords(ctx context.Context, recs []model.Record) ([]model.Record, error) {
	if len(recs) == 0 {
		return []model.Record{}, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `INSERT INTO records (` + recordColumns + `)
		VALUES (:id, :subject_id, :producer_id, :category, :classification, :title, :content,
			:source_url, :published_date, :verified, :created_at)
		ON CONFLICT (id) DO NOTHING`

	inserted := make([]model.Record, 0, len(recs))
	for _, rec := range recs {
		rec = store.Prepare(rec, s.now())
		res, err := tx.NamedExecContext(ctx, insert, newRecordRow(rec))
		if err != nil {
			return nil, fmt.Errorf("insert record %s: %w", rec.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			s.logger.Debug("record already present", "id", rec.ID)
			continue
		}
		inserted = append(inserted, rec)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	return inserted, nil
}

// DeleteRecord removes a record; deleting a missing record succeeds
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM records WHERE id = ?"), id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

// MarkVerified sets the verified flag
func (s *Store) MarkVerified(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE records SET verified = ? WHERE id = ?"), true, id)
	if err != nil {
		return fmt.Errorf("mark verified %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark verified %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("mark verified %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// recordRow is the column mapping of a record; timestamps are stored in UTC
type recordRow struct {
	ID             string     `db:"id"`
	SubjectID      string     `db:"subject_id"`
	ProducerID     string     `db:"producer_id"`
	Category       string     `db:"category"`
	Classification string     `db:"classification"`
	Title          string     `db:"title"`
	Content        string     `db:"content"`
	SourceURL      *string    `db:"source_url"`
	PublishedDate  *time.Time `db:"published_date"`
	Verified       bool       `db:"verified"`
	CreatedAt      time.Time  `db:"created_at"`
}

func newRecordRow(rec model.Record) recordRow {
	row := recordRow{
		ID:             rec.ID,
		SubjectID:      rec.SubjectID,
		ProducerID:     rec.ProducerID,
		Category:       rec.Category,
		Classification: string(rec.Classification),
		Title:          rec.Title,
		Content:        rec.Content,
		SourceURL:      rec.SourceURL,
		Verified:       rec.Verified,
		CreatedAt:      rec.CreatedAt.UTC(),
	}
	if rec.PublishedDate != nil {
		row.PublishedDate = model.TimePtr(rec.PublishedDate.UTC())
	}
	return row
}

func (r recordRow) toRecord() model.Record {
	rec := model.Record{
		ID:             r.ID,
		SubjectID:      r.SubjectID,
		ProducerID:     r.ProducerID,
		Category:       r.Category,
		Classification: model.Classification(r.Classification),
		Title:          r.Title,
		Content:        r.Content,
		SourceURL:      r.SourceURL,
		Verified:       r.Verified,
		CreatedAt:      r.CreatedAt.UTC(),
	}
	if r.PublishedDate != nil {
		rec.PublishedDate = model.TimePtr(r.PublishedDate.UTC())
	}
	return rec
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"weblog-stats/models"
	"weblog-stats/utils"
)

// PostgresWriter stores run summaries in PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{MaxAttempts: 5, BaseDelay: 500 * time.Millisecond, Logger: logger}
	if err := retry.Do("postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	pw, err := newPostgresWriter(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return pw, nil
}

// newPostgresWriter wraps an open connection and migrates the schema.
func newPostgresWriter(ctx context.Context, db *sql.DB) (*PostgresWriter, error) {
	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stats_runs (
			id             UUID         PRIMARY KEY,
			source         TEXT         NOT NULL,
			parse_mode     VARCHAR(16)  NOT NULL,
			rows_read      INTEGER      NOT NULL DEFAULT 0,
			rows_dropped   INTEGER      NOT NULL DEFAULT 0,
			total_requests INTEGER      NOT NULL DEFAULT 0,
			image_requests INTEGER      NOT NULL DEFAULT 0,
			image_percent  NUMERIC(5,1) NOT NULL DEFAULT 0,
			top_browser    VARCHAR(32)  NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS stats_browser_hits (
			run_id  UUID        NOT NULL REFERENCES stats_runs(id) ON DELETE CASCADE,
			browser VARCHAR(32) NOT NULL,
			hits    INTEGER     NOT NULL,
			PRIMARY KEY (run_id, browser)
		);

		CREATE TABLE IF NOT EXISTS stats_hour_hits (
			run_id UUID     NOT NULL REFERENCES stats_runs(id) ON DELETE CASCADE,
			hour   SMALLINT NOT NULL CHECK (hour BETWEEN 0 AND 23),
			hits   INTEGER  NOT NULL,
			PRIMARY KEY (run_id, hour)
		);

		CREATE INDEX IF NOT EXISTS idx_stats_runs_created_at ON stats_runs(created_at);
	`)
	return err
}

// WriteReport stores the run and its tallies in one transaction.
func (pw *PostgresWriter) WriteReport(ctx context.Context, run Run, report *models.StatsReport) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stats_runs
			(id, source, parse_mode, rows_read, rows_dropped, total_requests, image_requests, image_percent, top_browser)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, run.ID.String(), run.Source, string(run.Mode), run.Stats.Rows, run.Stats.Dropped(),
		report.TotalRequests, report.ImageRequests, report.ImagePercent, string(report.MostPopular))
	if err != nil {
		return fmt.Errorf("postgres: insert run: %w", err)
	}

	browserArgs := make([]any, 0, len(report.ByBrowser)*3)
	for _, b := range append(slices.Clone(models.NamedBrowsers), models.BrowserOther) {
		if hits, ok := report.ByBrowser[b]; ok {
			browserArgs = append(browserArgs, run.ID.String(), string(b), hits)
		}
	}
	if err := insertRows(ctx, tx, "stats_browser_hits (run_id, browser, hits)", 3, browserArgs); err != nil {
		return fmt.Errorf("postgres: insert browser hits: %w", err)
	}

	hourArgs := make([]any, 0, len(report.Hours)*3)
	for _, hc := range report.Hours {
		hourArgs = append(hourArgs, run.ID.String(), hc.Hour, hc.Hits)
	}
	if err := insertRows(ctx, tx, "stats_hour_hits (run_id, hour, hits)", 3, hourArgs); err != nil {
		return fmt.Errorf("postgres: insert hour hits: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, target string, cols int, args []any) error {
	if len(args) == 0 {
		return nil
	}
	query := fmt.Sprintf("INSERT INTO %s VALUES %s", target, valuesClause(len(args)/cols, cols))
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// valuesClause builds "($1,$2),($3,$4)" style placeholders.
func valuesClause(rows, cols int) string {
	groups := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		ph := make([]string, cols)
		for c := 0; c < cols; c++ {
			ph[c] = fmt.Sprintf("$%d", r*cols+c+1)
		}
		groups = append(groups, "("+strings.Join(ph, ",")+")")
	}
	return strings.Join(groups, ",")
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

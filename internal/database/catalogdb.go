package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/phetcrawl/internal/model"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the name of the history database inside its directory.
const FileName = "phetcrawl.db"

// CatalogDB stores crawl runs, their catalogs, and their failed downloads.
type CatalogDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CatalogDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ErrNotFound is returned by Open when the database does not exist and
// CreateIfNotExists is false.
var ErrNotFound = errors.New("history database not found")

// Open opens or creates the CatalogDB in dbDir.
func Open(dbDir string, opts Options) (*CatalogDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	var dsn string
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc&_pragma=busy_timeout(5000)"
	} else {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CatalogDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CatalogDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CatalogDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CatalogDB) createTables() error {
	schema := `
	-- One row per crawl run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		languages TEXT NOT NULL,
		simulations INTEGER NOT NULL,
		downloads INTEGER NOT NULL,
		failed_downloads INTEGER NOT NULL,
		failures INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- The catalog of each run
	CREATE TABLE IF NOT EXISTS simulations (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		sim_id TEXT NOT NULL,
		language TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		topics TEXT NOT NULL,
		categories TEXT NOT NULL,
		PRIMARY KEY (run_id, sim_id, language)
	);

	-- Downloads that failed in each run
	CREATE TABLE IF NOT EXISTS download_failures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		url TEXT NOT NULL,
		file_name TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		error TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_failures_run ON download_failures(run_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// CrawlRun is the data recorded for one crawl run.
type CrawlRun struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Languages  []string
	Catalog    []model.Simulation
	Downloads  []model.DownloadResult
	// Failures is the total number of dropped items of any stage.
	Failures int
}

// RunRecord is a stored run without its catalog.
type RunRecord struct {
	ID              int64     `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Languages       []string  `json:"languages"`
	Simulations     int       `json:"simulations"`
	Downloads       int       `json:"downloads"`
	FailedDownloads int       `json:"failed_downloads"`
	Failures        int       `json:"failures"`
}

// SaveCrawlRun stores a run with its catalog and failed downloads in one
// transaction and returns the new run ID.
func (cdb *CatalogDB) SaveCrawlRun(ctx context.Context, run *CrawlRun) (id int64, err error) {
	languagesJSON, err := json.Marshal(run.Languages)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize languages: %w", err)
	}

	failed := make([]model.DownloadResult, 0)
	for _, d := range run.Downloads {
		if !d.OK() {
			failed = append(failed, d)
		}
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (started_at, finished_at, languages, simulations, downloads, failed_downloads, failures)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		string(languagesJSON),
		len(run.Catalog),
		len(run.Downloads),
		len(failed),
		run.Failures,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for _, sim := range run.Catalog {
		topics, err := json.Marshal(nonNil(sim.Topics))
		if err != nil {
			return 0, fmt.Errorf("failed to serialize topics: %w", err)
		}
		categories, err := json.Marshal(nonNil(sim.Categories))
		if err != nil {
			return 0, fmt.Errorf("failed to serialize categories: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO simulations (run_id, sim_id, language, title, description, topics, categories)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, sim.ID, sim.Language, sim.Title, sim.Description, string(topics), string(categories)); err != nil {
			return 0, fmt.Errorf("failed to insert simulation %s: %w", sim.Ref(), err)
		}
	}

	for _, d := range failed {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO download_failures (run_id, kind, url, file_name, status_code, error)
		VALUES (?, ?, ?, ?, ?, ?)
		`, id, string(d.Kind), d.URL, d.FileName, d.StatusCode, d.Error); err != nil {
			return 0, fmt.Errorf("failed to insert download failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

const runColumns = `id, started_at, finished_at, languages, simulations, downloads, failed_downloads, failures`

// ListRuns returns every run, newest first.
func (cdb *CatalogDB) ListRuns(ctx context.Context) ([]RunRecord, error) {
	return cdb.queryRuns(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC`)
}

// LatestRuns returns at most n runs, newest first.
func (cdb *CatalogDB) LatestRuns(ctx context.Context, n int) ([]RunRecord, error) {
	return cdb.queryRuns(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, n)
}

// GetRun returns the run with the given ID, or nil if there is none.
func (cdb *CatalogDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	runs, err := cdb.queryRuns(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

func (cdb *CatalogDB) queryRuns(ctx context.Context, query string, args ...any) ([]RunRecord, error) {
	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0)
	for rows.Next() {
		var (
			r                 RunRecord
			started, finished string
			languagesJSON     string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &languagesJSON,
			&r.Simulations, &r.Downloads, &r.FailedDownloads, &r.Failures); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = parseTimestamp(started)
		r.FinishedAt = parseTimestamp(finished)
		if err := json.Unmarshal([]byte(languagesJSON), &r.Languages); err != nil {
			r.Languages = []string{}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetCatalog returns the catalog of a run, sorted by language then id.
func (cdb *CatalogDB) GetCatalog(ctx context.Context, runID int64) ([]model.Simulation, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT sim_id, language, title, description, topics, categories
	FROM simulations
	WHERE run_id = ?
	ORDER BY language, sim_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	sims := make([]model.Simulation, 0)
	for rows.Next() {
		var (
			sim              model.Simulation
			topics, category string
		)
		if err := rows.Scan(&sim.ID, &sim.Language, &sim.Title, &sim.Description, &topics, &category); err != nil {
			return nil, fmt.Errorf("failed to scan simulation: %w", err)
		}
		if err := json.Unmarshal([]byte(topics), &sim.Topics); err != nil {
			return nil, fmt.Errorf("failed to parse topics of %s: %w", sim.Ref(), err)
		}
		if err := json.Unmarshal([]byte(category), &sim.Categories); err != nil {
			return nil, fmt.Errorf("failed to parse categories of %s: %w", sim.Ref(), err)
		}
		sims = append(sims, sim)
	}
	return sims, rows.Err()
}

// GetDownloadFailures returns the failed downloads of a run.
func (cdb *CatalogDB) GetDownloadFailures(ctx context.Context, runID int64) ([]model.DownloadResult, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT kind, url, file_name, status_code, error
	FROM download_failures
	WHERE run_id = ?
	ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query download failures: %w", err)
	}
	defer rows.Close()

	failures := make([]model.DownloadResult, 0)
	for rows.Next() {
		var (
			d    model.DownloadResult
			kind string
		)
		if err := rows.Scan(&kind, &d.URL, &d.FileName, &d.StatusCode, &d.Error); err != nil {
			return nil, fmt.Errorf("failed to scan download failure: %w", err)
		}
		d.Kind = model.AssetKind(kind)
		failures = append(failures, d)
	}
	return failures, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// formatTimestamp stores times as UTC RFC 3339 text.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a stored timestamp, returning the zero time if no
// format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

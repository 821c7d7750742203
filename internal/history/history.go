package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/portsleuth/portsleuth/internal/model"
)

// DB provides SQLite-based storage for scan reports.
// It manages connection pooling and provides methods for saving and
// querying scan history.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a history database at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, "portsleuth.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single pooled connection
	// avoids SQLITE_BUSY errors under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &DB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *DB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *DB) createTables() error {
	schema := `
	-- Scans store one row per completed run: summary columns for cheap
	-- listing plus the full report as JSON.
	CREATE TABLE IF NOT EXISTS scans (
		scan_id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		resolved_addr TEXT NOT NULL,
		start_port INTEGER NOT NULL,
		end_port INTEGER NOT NULL,
		date_scanned DATETIME NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		open_count INTEGER NOT NULL,
		closed_count INTEGER NOT NULL,
		errored_count INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_target ON scans(target);
	CREATE INDEX IF NOT EXISTS idx_scans_date ON scans(date_scanned);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport persists a completed scan report.
// Re-saving the same scan ID replaces the stored row.
func (hdb *DB) SaveReport(ctx context.Context, report *model.ScanReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO scans (scan_id, target, resolved_addr, start_port, end_port,
		date_scanned, elapsed_ms, open_count, closed_count, errored_count, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(scan_id) DO UPDATE SET
		target = excluded.target,
		resolved_addr = excluded.resolved_addr,
		start_port = excluded.start_port,
		end_port = excluded.end_port,
		date_scanned = excluded.date_scanned,
		elapsed_ms = excluded.elapsed_ms,
		open_count = excluded.open_count,
		closed_count = excluded.closed_count,
		errored_count = excluded.errored_count,
		report_json = excluded.report_json
	`

	_, err = hdb.db.ExecContext(ctx, query,
		report.ScanID,
		report.Target,
		report.ResolvedAddr,
		report.StartPort,
		report.EndPort,
		report.DateScanned.UTC().Format("2006-01-02 15:04:05"),
		report.Elapsed.Milliseconds(),
		report.OpenCount,
		report.ClosedCount,
		report.ErroredCount,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan report: %w", err)
	}

	return nil
}

// GetReport retrieves a scan report by its scan ID.
// Returns nil without error when no report exists.
func (hdb *DB) GetReport(ctx context.Context, scanID string) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scans
	WHERE scan_id = ?
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, scanID).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}

	var report model.ScanReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetLatestReport retrieves the most recent scan report for a target.
// Returns nil without error when the target has never been scanned.
func (hdb *DB) GetLatestReport(ctx context.Context, target string) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scans
	WHERE target = ?
	ORDER BY date_scanned DESC
	LIMIT 1
	`

	var reportJSON string
	err := hdb.db.QueryRowContext(ctx, query, target).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}

	var report model.ScanReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// ListTargets returns every target that has at least one stored scan.
func (hdb *DB) ListTargets(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT target FROM scans
	ORDER BY target
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// ScanMetadata contains summary information about a stored scan.
// This is used for displaying scan history without loading the full report.
type ScanMetadata struct {
	// ScanID is the scan's unique identifier.
	ScanID string

	// Target is the scanned host as given by the user.
	Target string

	// ResolvedAddr is the address the scan probed.
	ResolvedAddr string

	// StartPort and EndPort define the scanned range.
	StartPort int
	EndPort   int

	// DateScanned is when the scan was performed.
	DateScanned time.Time

	// Elapsed is the total scan duration.
	Elapsed time.Duration

	// Summary counts.
	OpenCount    int
	ClosedCount  int
	ErroredCount int
}

// ListScans retrieves scan metadata, most recent first. When target is
// non-empty only that target's scans are returned. This is more
// efficient than loading full reports when only the listing is needed.
func (hdb *DB) ListScans(ctx context.Context, target string) ([]ScanMetadata, error) {
	query := `
	SELECT scan_id, target, resolved_addr, start_port, end_port,
		date_scanned, elapsed_ms, open_count, closed_count, errored_count
	FROM scans
	`
	args := make([]interface{}, 0, 1)

	if target != "" {
		query += " WHERE target = ?"
		args = append(args, target)
	}

	query += " ORDER BY date_scanned DESC"

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	defer rows.Close()

	var results []ScanMetadata
	for rows.Next() {
		var meta ScanMetadata
		var timestamp string
		var elapsedMS int64

		err := rows.Scan(
			&meta.ScanID,
			&meta.Target,
			&meta.ResolvedAddr,
			&meta.StartPort,
			&meta.EndPort,
			&timestamp,
			&elapsedMS,
			&meta.OpenCount,
			&meta.ClosedCount,
			&meta.ErroredCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.DateScanned = parseTimestamp(timestamp)
		meta.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		results = append(results, meta)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite audit store. It creates the database
// file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans a row into a Record.
func scanRecord(s scanner) (*Record, error) {
	rec := &Record{}
	var zscore sql.NullFloat64

	err := s.Scan(
		&rec.ID, &rec.RequestID, &rec.Measurement, &rec.ValueMM,
		&rec.GAWeeks, &rec.GADays, &rec.Percentile, &zscore,
		&rec.TermID, &rec.TermLabel, &rec.Observed, &rec.Extrapolated,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if zscore.Valid {
		rec.ZScore = &zscore.Float64
	}
	return rec, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS evaluations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		measurement TEXT NOT NULL,
		value_mm REAL NOT NULL,
		ga_weeks INTEGER NOT NULL,
		ga_days INTEGER NOT NULL,
		percentile REAL NOT NULL,
		z_score REAL,
		term_id TEXT NOT NULL DEFAULT '',
		term_label TEXT NOT NULL DEFAULT '',
		observed INTEGER NOT NULL DEFAULT 0,
		extrapolated INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_eval_request_id ON evaluations(request_id);
	CREATE INDEX IF NOT EXISTS idx_eval_measurement ON evaluations(measurement);
	CREATE INDEX IF NOT EXISTS idx_eval_created_at ON evaluations(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Record appends one evaluation to the log.
func (s *SQLiteStore) Record(ctx context.Context, rec *Record) error {
	now := time.Now()
	rec.CreatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations (
			request_id, measurement, value_mm,
			ga_weeks, ga_days, percentile, z_score,
			term_id, term_label, observed, extrapolated, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.RequestID,
		rec.Measurement,
		rec.ValueMM,
		rec.GAWeeks,
		rec.GADays,
		rec.Percentile,
		rec.ZScore,
		rec.TermID,
		rec.TermLabel,
		rec.Observed,
		rec.Extrapolated,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get insert ID: %w", err)
	}
	rec.ID = id

	return nil
}

// List returns evaluation records newest-first with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, measurement, value_mm,
			ga_weeks, ga_days, percentile, z_score,
			term_id, term_label, observed, extrapolated, created_at
		FROM evaluations
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// Count returns the total number of evaluation records.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evaluations").Scan(&count)
	return count, err
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

// ExportJSON exports all evaluation records to a JSON writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Records:    all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Package audit persists an append-only log of evaluated measurements for
// retrospective review of what the engine returned for a given input.
package audit

import (
	"context"
	"io"
	"time"
)

// Record is one evaluated measurement as it was answered.
type Record struct {
	ID           int64     `json:"id"`
	RequestID    string    `json:"request_id"`
	Measurement  string    `json:"measurement"`
	ValueMM      float64   `json:"value_mm"`
	GAWeeks      int       `json:"ga_weeks"`
	GADays       int       `json:"ga_days"`
	Percentile   float64   `json:"percentile"`
	ZScore       *float64  `json:"z_score,omitempty"`
	TermID       string    `json:"term_id"`
	TermLabel    string    `json:"term_label"`
	Observed     bool      `json:"observed"`
	Extrapolated bool      `json:"extrapolated"`
	CreatedAt    time.Time `json:"created_at"`
}

// Export is the envelope written by ExportJSON.
type Export struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Records    []*Record `json:"records"`
}

// Store is the persistence interface for evaluation records.
type Store interface {
	// Record appends one evaluation. The record's ID and CreatedAt are
	// populated on return.
	Record(ctx context.Context, rec *Record) error

	// List returns records newest-first with pagination.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)

	// ExportJSON writes all records as an Export document.
	ExportJSON(ctx context.Context, w io.Writer) error

	// Close releases the store's resources.
	Close() error
}

// NopStore discards every record. Used when auditing is disabled.
type NopStore struct{}

func (NopStore) Record(ctx context.Context, rec *Record) error { return nil }
func (NopStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	return nil, nil
}
func (NopStore) Count(ctx context.Context) (int64, error)          { return 0, nil }
func (NopStore) ExportJSON(ctx context.Context, w io.Writer) error { return nil }
func (NopStore) Close() error                                      { return nil }

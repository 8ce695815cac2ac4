// Package history persists polled parameter values to SQLite.
//
// Every validated snapshot the coordinator produces is appended here, so
// temperature and power trends survive bridge restarts and can be queried
// locally without a time-series database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emberlink/ecomax-bridge/internal/infrastructure/database"
)

// ErrNotFound indicates no sample exists for the requested parameter.
var ErrNotFound = errors.New("history: no samples recorded")

// Sample is one recorded parameter value.
type Sample struct {
	EntryID    string
	Slug       string
	Value      float64
	RecordedAt time.Time
}

// Repository stores and queries parameter history.
type Repository struct {
	db *database.DB
}

// NewRepository creates a history repository on an open database.
// The parameter_history table is created by migrations at startup.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Record appends a single sample.
func (r *Repository) Record(ctx context.Context, s Sample) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO parameter_history (entry_id, slug, value, recorded_at)
		 VALUES (?, ?, ?, ?)`,
		s.EntryID, s.Slug, s.Value, s.RecordedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording %s/%s: %w", s.EntryID, s.Slug, err)
	}
	return nil
}

// RecordSnapshot appends one sample per parameter in a single transaction.
// Used after each coordinator refresh so a poll cycle is all-or-nothing.
func (r *Repository) RecordSnapshot(ctx context.Context, entryID string, data map[string]float64, at time.Time) error {
	if len(data) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO parameter_history (entry_id, slug, value, recorded_at)
		 VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // Statement closed with transaction

	recordedAt := at.UTC().Format(time.RFC3339)
	for slug, value := range data {
		if _, err := stmt.ExecContext(ctx, entryID, slug, value, recordedAt); err != nil {
			return fmt.Errorf("inserting %s: %w", slug, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent sample for a parameter.
//
// Returns:
//   - Sample: Most recent recorded sample
//   - error: ErrNotFound if nothing has been recorded yet
func (r *Repository) Latest(ctx context.Context, entryID, slug string) (Sample, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT value, recorded_at FROM parameter_history
		 WHERE entry_id = ? AND slug = ?
		 ORDER BY recorded_at DESC, id DESC LIMIT 1`,
		entryID, slug,
	)

	s := Sample{EntryID: entryID, Slug: slug}
	var recordedAt string
	if err := row.Scan(&s.Value, &recordedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Sample{}, fmt.Errorf("%w: %s/%s", ErrNotFound, entryID, slug)
		}
		return Sample{}, fmt.Errorf("querying latest %s/%s: %w", entryID, slug, err)
	}
	s.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
	return s, nil
}

// Range returns samples for a parameter within [from, to), oldest first.
func (r *Repository) Range(ctx context.Context, entryID, slug string, from, to time.Time) ([]Sample, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT value, recorded_at FROM parameter_history
		 WHERE entry_id = ? AND slug = ? AND recorded_at >= ? AND recorded_at < ?
		 ORDER BY recorded_at ASC, id ASC`,
		entryID, slug,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("querying range %s/%s: %w", entryID, slug, err)
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		s := Sample{EntryID: entryID, Slug: slug}
		var recordedAt string
		if err := rows.Scan(&s.Value, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		s.RecordedAt, _ = time.Parse(time.RFC3339, recordedAt)
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// Prune deletes samples older than the cutoff, returning how many rows
// were removed. Run periodically to keep the database bounded on small
// deployments.
func (r *Repository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM parameter_history WHERE recorded_at < ?",
		olderThan.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning history: %w", err)
	}
	return result.RowsAffected()
}

package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

const transferColumns = `id, kind, url, itag, mode, status, attempts,
	bytes_written, last_error, started_at, finished_at`

// Begin stores a pending transfer
func (s *Store) Begin(t *domain.Transfer) error {
	if t.Status == "" {
		t.Status = domain.TransferStatusPending
	}

	query := `
		INSERT INTO transfers (id, kind, url, itag, mode, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, t.ID, t.Kind, t.URL, t.Itag, t.Mode, t.Status, t.StartedAt)
	if err != nil {
		return fmt.Errorf("insert transfer %s: %w", t.ID, err)
	}
	return nil
}

// Finish stores the outcome of a transfer
func (s *Store) Finish(t *domain.Transfer) error {
	query := `
		UPDATE transfers
		SET status = ?, attempts = ?, bytes_written = ?, last_error = ?, finished_at = ?
		WHERE id = ?
	`

	var lastError sql.NullString
	var finishedAt sql.NullTime
	if t.LastError != "" {
		lastError = sql.NullString{String: t.LastError, Valid: true}
	}
	if t.FinishedAt != nil {
		finishedAt = sql.NullTime{Time: *t.FinishedAt, Valid: true}
	}

	result, err := s.db.Exec(query, t.Status, t.Attempts, t.BytesWritten, lastError, finishedAt, t.ID)
	if err != nil {
		return fmt.Errorf("update transfer %s: %w", t.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get retrieves a transfer by ID
func (s *Store) Get(id string) (*domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = ?`
	return scanTransfer(s.db.QueryRow(query, id))
}

// Recent returns the latest transfers, newest first
func (s *Store) Recent(limit int) ([]*domain.Transfer, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + transferColumns + ` FROM transfers ORDER BY rowid DESC LIMIT ?`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*domain.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

// Stats summarizes all recorded transfers
func (s *Store) Stats() (*domain.TransferStats, error) {
	query := `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(bytes_written), 0)
		FROM transfers
	`

	stats := &domain.TransferStats{}
	err := s.db.QueryRow(query).Scan(
		&stats.Total, &stats.Completed, &stats.Failed, &stats.Cancelled, &stats.Bytes)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransfer(row scanner) (*domain.Transfer, error) {
	t := &domain.Transfer{}
	var lastError sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.Kind, &t.URL, &t.Itag, &t.Mode, &t.Status, &t.Attempts,
		&t.BytesWritten, &lastError, &t.StartedAt, &finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if lastError.Valid {
		t.LastError = lastError.String
	}
	if finishedAt.Valid {
		t.FinishedAt = &finishedAt.Time
	}
	return t, nil
}

// AbandonStale marks transfers still pending after olderThan as failed.
// They belong to processes that exited before recording an outcome.
func (s *Store) AbandonStale(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	query := `
		UPDATE transfers
		SET status = 'failed', last_error = 'abandoned', finished_at = ?
		WHERE status = 'pending' AND started_at < ?
	`
	result, err := s.db.Exec(query, time.Now(), cutoff)
	if err != nil {
		return 0, err
	}

	count, err := result.RowsAffected()
	return int(count), err
}

// PruneFinished deletes finished transfers started before now-olderThan
func (s *Store) PruneFinished(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := s.db.Exec(
		"DELETE FROM transfers WHERE status != 'pending' AND started_at < ?",
		cutoff)
	if err != nil {
		return 0, err
	}

	count, err := result.RowsAffected()
	return int(count), err
}

package port

import (
	"time"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

// TransferJournal records top-level calls
type TransferJournal interface {
	// Begin stores a pending transfer
	Begin(t *domain.Transfer) error

	// Finish stores the outcome of a transfer
	Finish(t *domain.Transfer) error

	// Get returns a transfer by ID or domain.ErrNotFound
	Get(id string) (*domain.Transfer, error)

	// Recent returns the latest transfers, newest first
	Recent(limit int) ([]*domain.Transfer, error)

	// Stats summarizes all recorded transfers
	Stats() (*domain.TransferStats, error)
}

// JournalMaintainer housekeeps the transfer journal
type JournalMaintainer interface {
	// AbandonStale fails pending transfers started before now-olderThan
	AbandonStale(olderThan time.Duration) (int, error)

	// PruneFinished deletes finished transfers older than olderThan
	PruneFinished(olderThan time.Duration) (int, error)
}

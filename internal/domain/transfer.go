package domain

import "time"

// Transfer status constants
const (
	TransferStatusPending   = "pending"
	TransferStatusCompleted = "completed"
	TransferStatusFailed    = "failed"
	TransferStatusCancelled = "cancelled"
)

// Transfer kind constants
const (
	TransferKindWebpage = "webpage"
	TransferKindFile    = "file"
	TransferKindStream  = "stream"
)

// Transfer is the journal record of one top-level call.
type Transfer struct {
	ID   string
	Kind string
	URL  string
	Itag int
	Mode string

	// Outcome
	Status       string
	Attempts     int
	BytesWritten int64
	LastError    string

	// Timestamps
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Finish records the outcome of the call
func (t *Transfer) Finish(attempts int, bytes int64, err error) {
	now := time.Now()
	t.FinishedAt = &now
	t.Attempts = attempts
	t.BytesWritten = bytes

	switch {
	case err == nil:
		t.Status = TransferStatusCompleted
		t.LastError = ""
	case IsCancelled(err):
		t.Status = TransferStatusCancelled
		t.LastError = err.Error()
	default:
		t.Status = TransferStatusFailed
		t.LastError = err.Error()
	}
}

// Duration returns how long the call took, zero while pending
func (t *Transfer) Duration() time.Duration {
	if t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(t.StartedAt)
}

// TransferStats summarizes the journal
type TransferStats struct {
	Total     int
	Completed int
	Failed    int
	Cancelled int
	Bytes     int64
}

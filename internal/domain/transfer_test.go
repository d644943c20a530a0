package domain

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTransfer_Finish(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      string
		wantError string
	}{
		{name: "success", err: nil, want: TransferStatusCompleted},
		{name: "failure", err: Recoverable(errors.New("HTTP 503")), want: TransferStatusFailed, wantError: "HTTP 503"},
		{name: "fatal", err: Fatal(errors.New("bad request")), want: TransferStatusFailed, wantError: "bad request"},
		{name: "cancelled", err: Cancelled(context.Canceled), want: TransferStatusCancelled, wantError: "context canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Transfer{StartedAt: time.Now().Add(-time.Second), Status: TransferStatusPending}
			if tr.Duration() != 0 {
				t.Error("Duration() of a pending transfer should be zero")
			}

			tr.Finish(2, 1024, tt.err)

			if tr.Status != tt.want {
				t.Errorf("Status = %q, want %q", tr.Status, tt.want)
			}
			if tr.LastError != tt.wantError {
				t.Errorf("LastError = %q, want %q", tr.LastError, tt.wantError)
			}
			if tr.Attempts != 2 || tr.BytesWritten != 1024 {
				t.Errorf("Attempts = %d, BytesWritten = %d", tr.Attempts, tr.BytesWritten)
			}
			if tr.Duration() < time.Second {
				t.Errorf("Duration() = %v, want >= 1s", tr.Duration())
			}
		})
	}
}

package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// mockJournal implements port.JournalMaintainer for testing
type mockJournal struct {
	mu            sync.Mutex
	abandonCount  int
	pruneCount    int
	abandonErr    error
	pruneErr      error
	abandonCalled int
	pruneCalled   int
	staleAfter    time.Duration
	retention     time.Duration
}

func (m *mockJournal) AbandonStale(olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abandonCalled++
	m.staleAfter = olderThan
	return m.abandonCount, m.abandonErr
}

func (m *mockJournal) PruneFinished(olderThan time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneCalled++
	m.retention = olderThan
	return m.pruneCount, m.pruneErr
}

func (m *mockJournal) calls() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.abandonCalled, m.pruneCalled
}

func TestService_New(t *testing.T) {
	journal := &mockJournal{}

	s := New(nil, journal, zap.NewNop())
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.config.Interval != time.Hour {
		t.Errorf("Interval = %v, want %v", s.config.Interval, time.Hour)
	}

	s = New(&Config{StaleAfter: time.Minute}, journal, nil)
	if s.config.StaleAfter != time.Minute {
		t.Errorf("StaleAfter = %v, want %v", s.config.StaleAfter, time.Minute)
	}
	if s.config.Retention != 30*24*time.Hour {
		t.Errorf("Retention = %v, want %v", s.config.Retention, 30*24*time.Hour)
	}
}

func TestService_RunOnce(t *testing.T) {
	journal := &mockJournal{abandonCount: 2, pruneCount: 5}
	s := New(&Config{StaleAfter: time.Hour, Retention: 48 * time.Hour}, journal, zap.NewNop())

	report, err := s.RunOnce()
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if report.Abandoned != 2 || report.Pruned != 5 {
		t.Errorf("RunOnce() = %+v, want {Abandoned:2 Pruned:5}", report)
	}
	if journal.staleAfter != time.Hour || journal.retention != 48*time.Hour {
		t.Errorf("thresholds = %v, %v", journal.staleAfter, journal.retention)
	}
}

func TestService_RunOnceErrors(t *testing.T) {
	abandonErr := errors.New("database is locked")
	journal := &mockJournal{abandonErr: abandonErr, pruneCount: 1}
	s := New(nil, journal, zap.NewNop())

	report, err := s.RunOnce()
	if !errors.Is(err, abandonErr) {
		t.Errorf("RunOnce() error = %v, want %v", err, abandonErr)
	}
	if report.Pruned != 1 {
		t.Errorf("Pruned = %d, want 1 after abandon failure", report.Pruned)
	}
	if _, pruned := journal.calls(); pruned != 1 {
		t.Errorf("PruneFinished called %d times, want 1", pruned)
	}
}

func TestService_StartStop(t *testing.T) {
	journal := &mockJournal{}
	s := New(&Config{Interval: 10 * time.Millisecond}, journal, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- s.Start(context.Background())
	}()

	deadline := time.After(time.Second)
	for {
		if abandoned, _ := journal.calls(); abandoned > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("AbandonStale was not called")
		case <-time.After(5 * time.Millisecond):
		}
	}

	s.Stop()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}

func TestService_DoubleStart(t *testing.T) {
	s := New(nil, &mockJournal{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Start(ctx)
	}()

	deadline := time.After(time.Second)
	for {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if running {
			break
		}
		select {
		case <-deadline:
			t.Fatal("service did not start")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := s.Start(ctx); err == nil {
		t.Error("second Start() error = nil, want error")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Start() error = %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Interval != time.Hour {
		t.Errorf("Interval = %v, want %v", cfg.Interval, time.Hour)
	}
	if cfg.StaleAfter != 24*time.Hour {
		t.Errorf("StaleAfter = %v, want %v", cfg.StaleAfter, 24*time.Hour)
	}
	if cfg.Retention != 30*24*time.Hour {
		t.Errorf("Retention = %v, want %v", cfg.Retention, 30*24*time.Hour)
	}
}

package maintenance

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/yt-fetch/internal/port"
)

// Config contains journal maintenance configuration
type Config struct {
	// Interval is how often Start runs a maintenance pass
	Interval time.Duration

	// StaleAfter is when a pending transfer is considered abandoned
	StaleAfter time.Duration

	// Retention is the maximum age of finished transfers
	Retention time.Duration
}

// DefaultConfig returns default maintenance configuration
func DefaultConfig() *Config {
	return &Config{
		Interval:   time.Hour,
		StaleAfter: 24 * time.Hour,
		Retention:  30 * 24 * time.Hour,
	}
}

// Report summarizes one maintenance pass
type Report struct {
	Abandoned int
	Pruned    int
}

// Service keeps the transfer journal tidy
type Service struct {
	config  *Config
	journal port.JournalMaintainer
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new maintenance Service
func New(cfg *Config, journal port.JournalMaintainer, logger *zap.Logger) *Service {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaults.StaleAfter
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaults.Retention
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		config:  cfg,
		journal: journal,
		logger:  logger,
	}
}

// RunOnce abandons stale pending transfers and prunes old finished ones
func (s *Service) RunOnce() (Report, error) {
	var report Report

	abandoned, abandonErr := s.journal.AbandonStale(s.config.StaleAfter)
	if abandonErr != nil {
		s.logger.Error("failed to abandon stale transfers", zap.Error(abandonErr))
	} else if abandoned > 0 {
		s.logger.Info("abandoned stale transfers", zap.Int("count", abandoned))
	}
	report.Abandoned = abandoned

	pruned, pruneErr := s.journal.PruneFinished(s.config.Retention)
	if pruneErr != nil {
		s.logger.Error("failed to prune finished transfers", zap.Error(pruneErr))
	} else if pruned > 0 {
		s.logger.Info("pruned finished transfers", zap.Int("count", pruned))
	}
	report.Pruned = pruned

	return report, errors.Join(abandonErr, pruneErr)
}

// Start runs a maintenance pass every Interval until ctx ends or Stop is called
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("maintenance service already running")
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("maintenance service started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("retention", s.config.Retention))

	s.wg.Add(1)
	go s.loop(ctx)

	<-ctx.Done()
	s.wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.logger.Info("maintenance service stopped")
	return nil
}

// Stop stops the maintenance service
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.RunOnce()
		}
	}
}

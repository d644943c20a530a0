package retry

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

// Orchestrator runs operations in a bounded retry loop.
type Orchestrator struct {
	delay  time.Duration
	logger *zap.Logger
}

// New creates an Orchestrator. delay is the pause between attempts, zero
// retries immediately.
func New(delay time.Duration, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{delay: delay, logger: logger}
}

// Operation describes one top-level call.
type Operation[T any] struct {
	// Name identifies the operation in logs
	Name string

	// MaxRetries is the number of extra attempts after the first one
	MaxRetries int

	// Attempt runs one try from scratch. attempt starts at 1.
	Attempt func(ctx context.Context, attempt int) (T, error)

	// Sink is closed exactly once when the operation ends, may be nil
	Sink io.Closer

	// Callback receives the terminal result, may be nil
	Callback domain.Callback[T]
}

// Execute runs op.Attempt up to op.MaxRetries+1 times. Recoverable
// failures are retried; fatal failures and cancellations end the loop at
// once. The sink is closed before the callback fires, and its close error
// never replaces the outcome.
func Execute[T any](ctx context.Context, o *Orchestrator, op Operation[T]) domain.Outcome[T] {
	maxRetries := op.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	log := o.logger.With(zap.String("operation", op.Name))

	var (
		value    T
		err      error
		attempts int
	)
	for attempts <= maxRetries {
		if attempts > 0 && o.delay > 0 {
			if werr := o.wait(ctx); werr != nil {
				err = werr
				break
			}
		}

		attempts++
		value, err = op.Attempt(ctx, attempts)
		if err == nil {
			break
		}

		kind := domain.KindOf(err)
		if kind != domain.KindRecoverable {
			log.Debug("attempt ended without retry",
				zap.Int("attempt", attempts),
				zap.Stringer("kind", kind),
				zap.Error(err))
			break
		}
		if attempts <= maxRetries {
			log.Warn("attempt failed, retrying",
				zap.Int("attempt", attempts),
				zap.Int("max_retries", maxRetries),
				zap.Error(err))
		}
	}

	if op.Sink != nil {
		if cerr := op.Sink.Close(); cerr != nil {
			log.Warn("failed to close sink", zap.Error(cerr))
		}
	}

	if err != nil {
		var zero T
		log.Error("operation failed",
			zap.Int("attempts", attempts),
			zap.Stringer("kind", domain.KindOf(err)),
			zap.Error(err))
		if op.Callback != nil {
			op.Callback.OnError(err)
		}
		return domain.Outcome[T]{Value: zero, Err: err, Attempts: attempts}
	}

	log.Debug("operation finished", zap.Int("attempts", attempts))
	if op.Callback != nil {
		op.Callback.OnFinished(value)
	}
	return domain.Outcome[T]{Value: value, Attempts: attempts}
}

func (o *Orchestrator) wait(ctx context.Context) error {
	timer := time.NewTimer(o.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return domain.Cancelled(ctx.Err())
	case <-timer.C:
		return nil
	}
}

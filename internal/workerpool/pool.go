// Package workerpool provides the bounded executor shared by asynchronous
// downloads. The pool is owned by whoever constructs it.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vertextoedge/yt-fetch/internal/port"
)

// ErrClosed is returned by futures of tasks submitted after Shutdown
var ErrClosed = errors.New("worker pool is shut down")

// Pool runs at most size tasks at once.
type Pool struct {
	group  *errgroup.Group
	logger *zap.Logger

	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
}

// Ensure Pool implements port.Executor
var _ port.Executor = (*Pool)(nil)

// New creates a Pool with size workers. A non-positive size means one.
func New(size int, logger *zap.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := new(errgroup.Group)
	g.SetLimit(size)

	return &Pool{group: g, logger: logger}
}

// Submit schedules task without blocking the caller. Tasks beyond the
// worker limit wait for a free slot.
func (p *Pool) Submit(task func() error) port.Future {
	f := newFuture()

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		f.complete(ErrClosed)
		return f
	}

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		p.group.Go(func() error {
			f.complete(p.run(task))
			// Task errors belong to their future, not to the group
			return nil
		})
	}()
	return f
}

// Shutdown rejects new tasks and waits for submitted ones to finish or
// for ctx to end.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		p.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Debug("worker pool drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) run(task func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked", zap.Any("panic", r))
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task()
}

type future struct {
	done chan struct{}
	err  error
}

func newFuture() *future {
	return &future{done: make(chan struct{})}
}

func (f *future) complete(err error) {
	f.err = err
	close(f.done)
}

// Done is closed once the task has returned
func (f *future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task has returned and yields its error
func (f *future) Wait() error {
	<-f.done
	return f.err
}

package downloader

import (
	"context"
	"sync"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

// Response is the handle of a download call. Synchronous calls return a
// completed Response; asynchronous calls complete it from a worker.
type Response[T any] struct {
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc

	outcome domain.Outcome[T]
}

func newResponse[T any](cancel context.CancelFunc) *Response[T] {
	if cancel == nil {
		cancel = func() {}
	}
	return &Response[T]{done: make(chan struct{}), cancel: cancel}
}

func completedResponse[T any](out domain.Outcome[T]) *Response[T] {
	r := newResponse[T](nil)
	r.complete(out)
	return r
}

// complete stores the outcome; only the first call has an effect
func (r *Response[T]) complete(out domain.Outcome[T]) {
	r.once.Do(func() {
		r.outcome = out
		close(r.done)
		r.cancel()
	})
}

// Done is closed when the result is available. Select on it with a
// default case to poll.
func (r *Response[T]) Done() <-chan struct{} {
	return r.done
}

// Data blocks until the call ends and returns its result
func (r *Response[T]) Data() (T, error) {
	<-r.done
	return r.outcome.Value, r.outcome.Err
}

// Wait is Data bounded by ctx. It does not cancel the call.
func (r *Response[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-r.done:
		return r.outcome.Value, r.outcome.Err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Ok blocks until the call ends and reports whether it succeeded
func (r *Response[T]) Ok() bool {
	<-r.done
	return r.outcome.Err == nil
}

// Err blocks until the call ends and returns its error
func (r *Response[T]) Err() error {
	<-r.done
	return r.outcome.Err
}

// Attempts blocks until the call ends and returns how many attempts ran
func (r *Response[T]) Attempts() int {
	<-r.done
	return r.outcome.Attempts
}

// Cancel requests cooperative cancellation. The copy loop observes it
// before its next read. Cancelling a finished call has no effect.
func (r *Response[T]) Cancel() {
	r.cancel()
}

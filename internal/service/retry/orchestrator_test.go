package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

type countingCloser struct {
	closed int
	err    error
}

func (c *countingCloser) Close() error {
	c.closed++
	return c.err
}

type recordingCallback struct {
	finished []string
	errs     []error
}

func (c *recordingCallback) OnFinished(v string) { c.finished = append(c.finished, v) }
func (c *recordingCallback) OnError(err error)    { c.errs = append(c.errs, err) }

func TestExecute_SucceedsAfterFailures(t *testing.T) {
	for _, n := range []int{0, 1, 3, 5} {
		t.Run(fmt.Sprintf("max_retries=%d", n), func(t *testing.T) {
			sink := &countingCloser{}
			cb := &recordingCallback{}
			calls := 0

			out := Execute(context.Background(), New(0, zaptest.NewLogger(t)), Operation[string]{
				Name:       "test",
				MaxRetries: n,
				Sink:       sink,
				Callback:   cb,
				Attempt: func(ctx context.Context, attempt int) (string, error) {
					calls++
					if attempt != calls {
						t.Errorf("attempt = %d, want %d", attempt, calls)
					}
					if calls <= n {
						return "", errors.New("connection reset")
					}
					return "done", nil
				},
			})

			if !out.Ok() || out.Value != "done" {
				t.Fatalf("Execute() = %+v, want success", out)
			}
			if calls != n+1 || out.Attempts != n+1 {
				t.Errorf("calls = %d, attempts = %d, want %d", calls, out.Attempts, n+1)
			}
			if sink.closed != 1 {
				t.Errorf("sink closed %d times, want 1", sink.closed)
			}
			if len(cb.finished) != 1 || len(cb.errs) != 0 {
				t.Errorf("callback finished=%v errs=%v, want one success", cb.finished, cb.errs)
			}
		})
	}
}

func TestExecute_ExhaustsBudget(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("max_retries=%d", n), func(t *testing.T) {
			sink := &countingCloser{}
			cb := &recordingCallback{}
			calls := 0
			var last error

			out := Execute(context.Background(), New(0, zaptest.NewLogger(t)), Operation[string]{
				Name:       "test",
				MaxRetries: n,
				Sink:       sink,
				Callback:   cb,
				Attempt: func(ctx context.Context, attempt int) (string, error) {
					calls++
					last = domain.Recoverable(fmt.Errorf("attempt %d failed", attempt))
					return "partial", last
				},
			})

			if out.Ok() {
				t.Fatal("Execute() succeeded, want failure")
			}
			if calls != n+1 || out.Attempts != n+1 {
				t.Errorf("calls = %d, attempts = %d, want %d", calls, out.Attempts, n+1)
			}
			if out.Err != last {
				t.Errorf("Err = %v, want the last error %v", out.Err, last)
			}
			if out.Value != "" {
				t.Errorf("Value = %q, want zero value", out.Value)
			}
			if len(cb.errs) != 1 || cb.errs[0] != last {
				t.Errorf("OnError calls = %v, want exactly [%v]", cb.errs, last)
			}
			if len(cb.finished) != 0 {
				t.Errorf("OnFinished called %d times", len(cb.finished))
			}
			if sink.closed != 1 {
				t.Errorf("sink closed %d times, want 1", sink.closed)
			}
		})
	}
}

func TestExecute_StopsWithoutRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind domain.ErrorKind
	}{
		{name: "fatal", err: domain.Fatal(errors.New("cannot create file")), kind: domain.KindFatal},
		{name: "cancelled", err: domain.Cancelled(context.Canceled), kind: domain.KindCancelled},
		{name: "untagged context cancel", err: fmt.Errorf("read: %w", context.Canceled), kind: domain.KindCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &countingCloser{}
			calls := 0

			out := Execute(context.Background(), New(0, nil), Operation[string]{
				MaxRetries: 5,
				Sink:       sink,
				Attempt: func(ctx context.Context, attempt int) (string, error) {
					calls++
					return "", tt.err
				},
			})

			if calls != 1 {
				t.Errorf("calls = %d, want 1", calls)
			}
			if got := domain.KindOf(out.Err); got != tt.kind {
				t.Errorf("KindOf(Err) = %v, want %v", got, tt.kind)
			}
			if sink.closed != 1 {
				t.Errorf("sink closed %d times, want 1", sink.closed)
			}
		})
	}
}

func TestExecute_CloseErrorIsSuppressed(t *testing.T) {
	sink := &countingCloser{err: errors.New("close failed")}
	primary := errors.New("timeout")

	tests := []struct {
		name    string
		attempt func(context.Context, int) (string, error)
		wantErr error
	}{
		{
			name:    "success",
			attempt: func(context.Context, int) (string, error) { return "ok", nil },
		},
		{
			name:    "failure keeps primary error",
			attempt: func(context.Context, int) (string, error) { return "", primary },
			wantErr: primary,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Execute(context.Background(), New(0, nil), Operation[string]{
				Sink:    sink,
				Attempt: tt.attempt,
			})
			if out.Err != tt.wantErr {
				t.Errorf("Err = %v, want %v", out.Err, tt.wantErr)
			}
		})
	}
}

func TestExecute_DelayHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	done := make(chan domain.Outcome[string], 1)
	go func() {
		done <- Execute(ctx, New(time.Hour, nil), Operation[string]{
			MaxRetries: 3,
			Attempt: func(context.Context, int) (string, error) {
				calls++
				return "", errors.New("unreachable host")
			},
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case out := <-done:
		if !domain.IsCancelled(out.Err) {
			t.Errorf("Err = %v, want cancellation", out.Err)
		}
		if out.Attempts != 1 || calls != 1 {
			t.Errorf("attempts = %d, calls = %d, want 1", out.Attempts, calls)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Execute() did not return after cancellation")
	}
}

func TestExecute_NilSinkAndCallback(t *testing.T) {
	out := Execute(context.Background(), New(0, nil), Operation[int]{
		MaxRetries: -1,
		Attempt:    func(context.Context, int) (int, error) { return 42, nil },
	})
	if v, err := out.Unwrap(); err != nil || v != 42 {
		t.Errorf("Unwrap() = %d, %v, want 42, nil", v, err)
	}
}

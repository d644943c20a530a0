package transfer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

// trackingReader records whether Close was called
type trackingReader struct {
	io.Reader
	closed int
}

func (r *trackingReader) Close() error {
	r.closed++
	return nil
}

func newTrackingReader(data []byte) *trackingReader {
	return &trackingReader{Reader: bytes.NewReader(data)}
}

type recordedProgress struct {
	values []int
	hook   func(int)
}

func (p *recordedProgress) OnDownloading(pct int) {
	p.values = append(p.values, pct)
	if p.hook != nil {
		p.hook(pct)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestCopier_PlainMode(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 10000)

	tests := []struct {
		name     string
		total    int64
		progress *recordedProgress
	}{
		{name: "no callback", total: int64(len(data)), progress: nil},
		{name: "unknown total", total: -1, progress: &recordedProgress{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newTrackingReader(data)
			var out bytes.Buffer

			var progress domain.ProgressCallback
			if tt.progress != nil {
				progress = tt.progress
			}

			n, err := NewCopier(0).Copy(context.Background(), in, &out, 0, tt.total, progress)
			if err != nil {
				t.Fatalf("Copy() error = %v", err)
			}
			if n != int64(len(data)) || out.Len() != len(data) {
				t.Errorf("Copy() = %d, buffered %d, want %d", n, out.Len(), len(data))
			}
			if in.closed != 1 {
				t.Errorf("input closed %d times, want 1", in.closed)
			}
			if tt.progress != nil && len(tt.progress.values) != 0 {
				t.Errorf("progress emitted %v, want nothing", tt.progress.values)
			}
		})
	}
}

func TestCopier_ProgressIsStrictlyIncreasing(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		bufferSize int
		offset     int64
		total      int64
		wantFirst  int
	}{
		{name: "small buffer", size: 10000, bufferSize: 7, total: 10000, wantFirst: 1},
		{name: "large buffer", size: 10000, bufferSize: 4096, total: 10000, wantFirst: 40},
		{name: "with offset", size: 50, bufferSize: 10, offset: 50, total: 100, wantFirst: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := &recordedProgress{}
			in := newTrackingReader(bytes.Repeat([]byte("y"), tt.size))

			_, err := NewCopier(tt.bufferSize).Copy(context.Background(), in, io.Discard, tt.offset, tt.total, progress)
			if err != nil {
				t.Fatalf("Copy() error = %v", err)
			}

			if len(progress.values) == 0 {
				t.Fatal("no progress emitted")
			}
			if progress.values[0] != tt.wantFirst {
				t.Errorf("first progress = %d, want %d", progress.values[0], tt.wantFirst)
			}
			for i, v := range progress.values {
				if v < 0 || v > 100 {
					t.Errorf("progress[%d] = %d, out of range", i, v)
				}
				if i > 0 && v <= progress.values[i-1] {
					t.Errorf("progress[%d] = %d, not greater than %d", i, v, progress.values[i-1])
				}
			}
			if last := progress.values[len(progress.values)-1]; last != 100 {
				t.Errorf("last progress = %d, want 100", last)
			}
		})
	}
}

func TestCopier_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := newTrackingReader([]byte("payload"))
	var out bytes.Buffer

	n, err := NewCopier(0).Copy(ctx, in, &out, 0, 7, nil)
	if !domain.IsCancelled(err) {
		t.Fatalf("Copy() error = %v, want cancellation", err)
	}
	if n != 0 || out.Len() != 0 {
		t.Errorf("copied %d bytes after cancellation", n)
	}
	if in.closed != 1 {
		t.Errorf("input closed %d times, want 1", in.closed)
	}
}

func TestCopier_CancelledMidway(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	progress := &recordedProgress{hook: func(pct int) {
		if pct >= 50 {
			cancel()
		}
	}}
	in := newTrackingReader(bytes.Repeat([]byte("z"), 1000))

	n, err := NewCopier(100).Copy(ctx, in, io.Discard, 0, 1000, progress)
	if !domain.IsCancelled(err) {
		t.Fatalf("Copy() error = %v, want cancellation", err)
	}
	if n != 500 {
		t.Errorf("copied %d bytes, want 500", n)
	}
	if in.closed != 1 {
		t.Errorf("input closed %d times, want 1", in.closed)
	}
}

func TestCopier_WriteError(t *testing.T) {
	in := newTrackingReader([]byte(strings.Repeat("w", 100)))

	_, err := NewCopier(0).Copy(context.Background(), in, failingWriter{}, 0, 100, nil)
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("Copy() error = %v, want disk full", err)
	}
	if !domain.IsRecoverable(err) {
		t.Error("write errors should be recoverable")
	}
	if in.closed != 1 {
		t.Errorf("input closed %d times, want 1", in.closed)
	}
}

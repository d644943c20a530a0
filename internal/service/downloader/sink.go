package downloader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

// rewindable is implemented by sinks that can discard what a failed
// attempt wrote, such as *os.File
type rewindable interface {
	io.Seeker
	Truncate(size int64) error
}

// attemptSink counts the bytes written to a sink and rewinds it before a
// new attempt.
type attemptSink struct {
	w       io.Writer
	written int64
}

func (s *attemptSink) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.written += int64(n)
	return n, err
}

// rewind prepares the sink for an attempt started from scratch
func (s *attemptSink) rewind() error {
	if s.written == 0 {
		return nil
	}
	rw, ok := s.w.(rewindable)
	if !ok {
		return domain.Fatal(fmt.Errorf("%w: %d bytes already written", domain.ErrNotRewindable, s.written))
	}
	if err := rw.Truncate(0); err != nil {
		return domain.Fatal(fmt.Errorf("truncate sink: %w", err))
	}
	if _, err := rw.Seek(0, io.SeekStart); err != nil {
		return domain.Fatal(fmt.Errorf("rewind sink: %w", err))
	}
	s.written = 0
	return nil
}

// fileSink creates its file on first use so that a creation failure is
// reported by the attempt that needed it.
type fileSink struct {
	path string
	file *os.File
}

func (s *fileSink) open() (*os.File, error) {
	if s.file != nil {
		return s.file, nil
	}

	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, domain.Fatal(fmt.Errorf("create output directory: %w", err))
		}
	}
	f, err := os.Create(s.path)
	if err != nil {
		return nil, domain.Fatal(fmt.Errorf("create output file: %w", err))
	}
	s.file = f
	return f, nil
}

// Close closes the file if it was created
func (s *fileSink) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

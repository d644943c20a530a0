package transfer

import (
	"context"
	"io"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

// DefaultBufferSize is the read buffer used by the copy loop
const DefaultBufferSize = 4096

// Copier moves bytes from a response body into a sink.
type Copier struct {
	bufferSize int
}

// NewCopier creates a Copier. A non-positive size selects DefaultBufferSize.
func NewCopier(bufferSize int) *Copier {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Copier{bufferSize: bufferSize}
}

// Copy reads in until EOF and writes every chunk to out, returning the
// number of bytes written. ctx is polled before each read; cancellation is
// reported as a Cancelled error.
//
// Progress is reported only when progress is non-nil and total is known.
// offset is the number of bytes already delivered by earlier parts of the
// same transfer. Percentages are emitted only when they increase.
//
// in is always closed. out is never closed.
func (c *Copier) Copy(ctx context.Context, in io.ReadCloser, out io.Writer, offset, total int64, progress domain.ProgressCallback) (int64, error) {
	defer in.Close()

	track := progress != nil && total > 0
	last := 0
	if track && offset > 0 {
		last = percentage(offset, total)
	}

	buf := make([]byte, c.bufferSize)
	var copied int64
	for {
		if err := ctx.Err(); err != nil {
			return copied, domain.Cancelled(err)
		}

		n, rerr := in.Read(buf)
		if n > 0 {
			written, werr := out.Write(buf[:n])
			copied += int64(written)
			if werr != nil {
				return copied, werr
			}
			if written != n {
				return copied, io.ErrShortWrite
			}

			if track {
				if pct := percentage(offset+copied, total); pct > last {
					last = pct
					progress.OnDownloading(pct)
				}
			}
		}

		if rerr == io.EOF {
			return copied, nil
		}
		if rerr != nil {
			// A read aborted by the request context is a cancellation
			if err := ctx.Err(); err != nil {
				return copied, domain.Cancelled(err)
			}
			return copied, rerr
		}
	}
}

func percentage(done, total int64) int {
	pct := done * 100 / total
	if pct > 100 {
		return 100
	}
	return int(pct)
}

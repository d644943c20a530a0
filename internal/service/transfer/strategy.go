package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/vertextoedge/yt-fetch/internal/domain"
	"github.com/vertextoedge/yt-fetch/internal/port"
)

// DefaultPartSize is the size of one ranged request of a chunked transfer
const DefaultPartSize int64 = 2 * 1024 * 1024

// Config contains transfer configuration
type Config struct {
	// Headers are sent with every request; request headers win on collision
	Headers map[string]string

	// PartSize is the byte count of each chunked request
	PartSize int64

	// BufferSize is the copy loop buffer size
	BufferSize int

	// Compression adds Accept-Encoding: gzip to webpage fetches
	Compression bool
}

// DefaultConfig returns default transfer configuration
func DefaultConfig() *Config {
	return &Config{
		PartSize:    DefaultPartSize,
		BufferSize:  DefaultBufferSize,
		Compression: true,
	}
}

// Transferrer performs single transfer attempts. It never retries.
type Transferrer struct {
	clients     port.ClientProvider
	headers     map[string]string
	partSize    int64
	compression bool
	copier      *Copier
	logger      *zap.Logger
}

// New creates a Transferrer
func New(clients port.ClientProvider, cfg *Config, logger *zap.Logger) *Transferrer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	partSize := cfg.PartSize
	if partSize <= 0 {
		partSize = DefaultPartSize
	}

	return &Transferrer{
		clients:     clients,
		headers:     cfg.Headers,
		partSize:    partSize,
		compression: cfg.Compression,
		copier:      NewCopier(cfg.BufferSize),
		logger:      logger,
	}
}

// Transfer downloads format into sink and returns the bytes written.
// Adaptive formats with a known length are fetched part by part; every
// other format is fetched with one request.
func (t *Transferrer) Transfer(ctx context.Context, format *domain.Format, sink io.Writer, opts *domain.RequestOptions, progress domain.ProgressCallback) (int64, error) {
	if opts == nil {
		opts = &domain.RequestOptions{}
	}

	client, release := t.clients.ClientFor(opts.Proxy)
	defer release()

	if format.Chunkable() {
		return t.chunked(ctx, client, format, sink, opts.Headers, progress)
	}
	return t.single(ctx, client, format, sink, opts.Headers, progress)
}

func (t *Transferrer) single(ctx context.Context, client *http.Client, format *domain.Format, sink io.Writer, headers map[string]string, progress domain.ProgressCallback) (int64, error) {
	resp, err := t.get(ctx, client, format.URL, headers)
	if err != nil {
		return 0, err
	}

	total := resp.ContentLength
	if total < 0 {
		total = format.Length()
	}

	written, err := t.copier.Copy(ctx, resp.Body, sink, 0, total, progress)
	if err != nil {
		return written, err
	}

	t.logger.Debug("single request transfer done",
		zap.Int("itag", format.Itag),
		zap.Int64("bytes", written))
	return written, nil
}

func (t *Transferrer) chunked(ctx context.Context, client *http.Client, format *domain.Format, sink io.Writer, headers map[string]string, progress domain.ProgressCallback) (int64, error) {
	length := *format.ContentLength

	var done int64
	for part := 1; done < length; part++ {
		size := t.partSize
		if done+size > length {
			size = length - done
		}
		first, last := done, done+size-1

		partURL, err := PartURL(format, first, last, part)
		if err != nil {
			return done, err
		}

		resp, err := t.get(ctx, client, partURL, headers)
		if err != nil {
			return done, fmt.Errorf("part %d: %w", part, err)
		}

		n, err := t.copier.Copy(ctx, resp.Body, sink, done, length, progress)
		done += n
		if err != nil {
			return done, err
		}
		if n == 0 {
			return done, domain.Recoverable(fmt.Errorf("%w: part %d returned no bytes", domain.ErrLengthMismatch, part))
		}

		t.logger.Debug("part transferred",
			zap.Int("itag", format.Itag),
			zap.Int("part", part),
			zap.Int64("first", first),
			zap.Int64("last", last),
			zap.Int64("bytes", n))
	}

	if done != length {
		return done, domain.Recoverable(fmt.Errorf("%w: wrote %d of %d bytes", domain.ErrLengthMismatch, done, length))
	}
	return done, nil
}

// PartURL appends the client version, the inclusive byte range and the
// 1-based part number to the format URL.
func PartURL(format *domain.Format, first, last int64, part int) (string, error) {
	u, err := url.Parse(format.URL)
	if err != nil {
		return "", domain.Fatal(fmt.Errorf("parse format url: %w", err))
	}

	extra := url.Values{}
	extra.Set("cver", format.ClientVersion)
	extra.Set("range", strconv.FormatInt(first, 10)+"-"+strconv.FormatInt(last, 10))
	extra.Set("rn", strconv.Itoa(part))

	if u.RawQuery == "" {
		u.RawQuery = extra.Encode()
	} else {
		u.RawQuery += "&" + extra.Encode()
	}
	return u.String(), nil
}

// get issues a GET and checks the response. The caller owns the body.
func (t *Transferrer) get(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, domain.Fatal(fmt.Errorf("build request: %w", err))
	}
	applyHeaders(req.Header, t.headers, headers)

	return do(ctx, client, req)
}

func do(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, domain.Cancelled(cerr)
		}
		return nil, domain.Recoverable(fmt.Errorf("request %s: %w", req.URL.Redacted(), err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		drain(resp.Body)
		return nil, domain.Recoverable(&domain.StatusError{StatusCode: resp.StatusCode, URL: req.URL.Redacted()})
	}
	if resp.Body == nil {
		return nil, domain.Recoverable(domain.ErrEmptyBody)
	}
	return resp, nil
}

// applyHeaders sets every layer in order, later layers overriding earlier ones
func applyHeaders(dst http.Header, layers ...map[string]string) {
	for _, layer := range layers {
		for k, v := range layer {
			dst.Set(k, v)
		}
	}
}

func drain(body io.ReadCloser) {
	if body == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	body.Close()
}

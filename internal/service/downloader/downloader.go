package downloader

import (
	"context"
	"io"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/vertextoedge/yt-fetch/internal/domain"
	"github.com/vertextoedge/yt-fetch/internal/port"
	"github.com/vertextoedge/yt-fetch/internal/service/retry"
)

// Transport performs single transfer attempts
type Transport interface {
	// Transfer downloads format into sink and returns the bytes written
	Transfer(ctx context.Context, format *domain.Format, sink io.Writer, opts *domain.RequestOptions, progress domain.ProgressCallback) (int64, error)

	// FetchPage downloads a text resource
	FetchPage(ctx context.Context, page *domain.WebpageRequest) (string, error)
}

// Config contains downloader configuration
type Config struct {
	// MaxRetries is the retry budget of requests that do not set their own
	MaxRetries int

	// ProgressLogInterval throttles progress log lines
	ProgressLogInterval time.Duration
}

// DefaultConfig returns default downloader configuration
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:          3,
		ProgressLogInterval: time.Second,
	}
}

// Downloader is the entry point for webpage, file and stream downloads.
// Every call runs inline or on the executor depending on its Mode.
type Downloader struct {
	transport Transport
	retrier   *retry.Orchestrator
	executor  port.Executor
	journal   port.TransferJournal
	logger    *zap.Logger

	maxRetries       int
	progressInterval time.Duration
}

// New creates a Downloader. executor is only needed for asynchronous calls
// and journal may be nil.
func New(
	transport Transport,
	retrier *retry.Orchestrator,
	executor port.Executor,
	journal port.TransferJournal,
	cfg *Config,
	logger *zap.Logger,
) *Downloader {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if retrier == nil {
		retrier = retry.New(0, logger)
	}
	progressInterval := cfg.ProgressLogInterval
	if progressInterval <= 0 {
		progressInterval = time.Second
	}

	return &Downloader{
		transport:        transport,
		retrier:          retrier,
		executor:         executor,
		journal:          journal,
		logger:           logger,
		maxRetries:       cfg.MaxRetries,
		progressInterval: progressInterval,
	}
}

// DownloadWebpage fetches a text resource
func (d *Downloader) DownloadWebpage(ctx context.Context, req *domain.WebpageRequest) *Response[string] {
	if err := req.Validate(); err != nil {
		var cb domain.Callback[string]
		if req != nil {
			cb = req.Callback
		}
		return reject(d, cb, nil, err)
	}

	entry := &domain.Transfer{Kind: domain.TransferKindWebpage, URL: req.URL, Mode: req.Mode.String()}
	abort := func(err error) { notifyError(req.Callback, err) }

	return invoke(ctx, d, req.Mode, abort, func(ctx context.Context) domain.Outcome[string] {
		log := d.begin(entry)

		out := retry.Execute(ctx, d.retrier, retry.Operation[string]{
			Name:       "webpage",
			MaxRetries: req.RetriesOr(d.maxRetries),
			Callback:   req.Callback,
			Attempt: func(ctx context.Context, attempt int) (string, error) {
				log.Debug("fetching page", zap.Int("attempt", attempt), zap.String("method", req.HTTPMethod()))
				return d.transport.FetchPage(ctx, req)
			},
		})

		d.finish(entry, log, out.Attempts, int64(len(out.Value)), out.Err)
		return out
	})
}

// DownloadFile downloads a format into req.OutputPath and yields the path.
// The file is truncated before every retry.
func (d *Downloader) DownloadFile(ctx context.Context, req *domain.FileRequest) *Response[string] {
	if err := req.Validate(); err != nil {
		var cb domain.Callback[string]
		if req != nil {
			cb = req.Callback
		}
		return reject(d, cb, nil, err)
	}

	entry := &domain.Transfer{
		Kind: domain.TransferKindFile,
		URL:  req.Format.URL,
		Itag: req.Format.Itag,
		Mode: req.Mode.String(),
	}
	abort := func(err error) { notifyError(req.Callback, err) }

	return invoke(ctx, d, req.Mode, abort, func(ctx context.Context) domain.Outcome[string] {
		log := d.begin(entry).With(zap.String("path", req.OutputPath))
		file := &fileSink{path: req.OutputPath}
		sink := &attemptSink{}
		relay := d.newProgressRelay(req.Callback, log)

		out := retry.Execute(ctx, d.retrier, retry.Operation[string]{
			Name:       "file",
			MaxRetries: req.RetriesOr(d.maxRetries),
			Sink:       file,
			Callback:   req.Callback,
			Attempt: func(ctx context.Context, attempt int) (string, error) {
				f, err := file.open()
				if err != nil {
					return "", err
				}
				if sink.w == nil {
					sink.w = f
				}
				if err := sink.rewind(); err != nil {
					return "", err
				}

				log.Debug("transferring", zap.Int("attempt", attempt))
				if _, err := d.transport.Transfer(ctx, req.Format, sink, &req.RequestOptions, relay); err != nil {
					return "", err
				}
				return req.OutputPath, nil
			},
		})

		d.finish(entry, log, out.Attempts, sink.written, out.Err)
		return out
	})
}

// DownloadStream downloads a format into req.Output, which is closed when
// the call ends on every path.
func (d *Downloader) DownloadStream(ctx context.Context, req *domain.StreamRequest) *Response[struct{}] {
	if err := req.Validate(); err != nil {
		var (
			cb   domain.Callback[struct{}]
			sink io.Closer
		)
		if req != nil {
			cb = req.Callback
			if req.Output != nil {
				sink = req.Output
			}
		}
		return reject(d, cb, sink, err)
	}

	entry := &domain.Transfer{
		Kind: domain.TransferKindStream,
		URL:  req.Format.URL,
		Itag: req.Format.Itag,
		Mode: req.Mode.String(),
	}
	abort := func(err error) {
		closeQuietly(d.logger, req.Output)
		notifyError(req.Callback, err)
	}

	return invoke(ctx, d, req.Mode, abort, func(ctx context.Context) domain.Outcome[struct{}] {
		log := d.begin(entry)
		sink := &attemptSink{w: req.Output}
		relay := d.newProgressRelay(req.Callback, log)

		out := retry.Execute(ctx, d.retrier, retry.Operation[struct{}]{
			Name:       "stream",
			MaxRetries: req.RetriesOr(d.maxRetries),
			Sink:       req.Output,
			Callback:   req.Callback,
			Attempt: func(ctx context.Context, attempt int) (struct{}, error) {
				if err := sink.rewind(); err != nil {
					return struct{}{}, err
				}

				log.Debug("transferring", zap.Int("attempt", attempt))
				_, err := d.transport.Transfer(ctx, req.Format, sink, &req.RequestOptions, relay)
				return struct{}{}, err
			},
		})

		d.finish(entry, log, out.Attempts, sink.written, out.Err)
		return out
	})
}

// begin assigns an ID to entry and records it in the journal
func (d *Downloader) begin(entry *domain.Transfer) *zap.Logger {
	entry.ID = ksuid.New().String()
	entry.StartedAt = time.Now()
	entry.Status = domain.TransferStatusPending

	log := d.logger.With(
		zap.String("transfer_id", entry.ID),
		zap.String("kind", entry.Kind),
		zap.String("mode", entry.Mode))
	if entry.Itag != 0 {
		log = log.With(zap.Int("itag", entry.Itag))
	}

	if d.journal != nil {
		if err := d.journal.Begin(entry); err != nil {
			log.Warn("failed to record transfer", zap.Error(err))
		}
	}
	return log
}

// finish records the outcome of entry
func (d *Downloader) finish(entry *domain.Transfer, log *zap.Logger, attempts int, bytes int64, err error) {
	entry.Finish(attempts, bytes, err)

	if err == nil {
		log.Info("transfer completed",
			zap.Int("attempts", attempts),
			zap.Int64("bytes", bytes),
			zap.Duration("duration", entry.Duration()))
	}

	if d.journal != nil {
		if jerr := d.journal.Finish(entry); jerr != nil {
			log.Warn("failed to record transfer outcome", zap.Error(jerr))
		}
	}
}

func notifyError[T any](cb domain.Callback[T], err error) {
	if cb != nil {
		cb.OnError(err)
	}
}

func closeQuietly(logger *zap.Logger, c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Warn("failed to close sink", zap.Error(err))
	}
}

package downloader

import (
	"go.uber.org/zap"

	"github.com/vertextoedge/yt-fetch/internal/domain"
	"github.com/vertextoedge/yt-fetch/internal/util/ratelimiter"
)

// progressRelay forwards percentages to the caller's callback and writes
// throttled progress log lines.
type progressRelay struct {
	target  domain.ProgressCallback
	limiter *ratelimiter.Limiter
	logger  *zap.Logger
}

func (d *Downloader) newProgressRelay(cb any, logger *zap.Logger) *progressRelay {
	return &progressRelay{
		target:  domain.ProgressOf(cb),
		limiter: ratelimiter.New(d.progressInterval),
		logger:  logger,
	}
}

// OnDownloading implements domain.ProgressCallback
func (p *progressRelay) OnDownloading(pct int) {
	if p.target != nil {
		p.target.OnDownloading(pct)
	}

	if pct >= 100 {
		p.limiter.Force()
	} else if !p.limiter.Allow() {
		return
	}
	p.logger.Info("downloading", zap.Int("percent", pct))
}

// Package visitor looks up the visitor data token that player requests
// carry to identify an anonymous session.
package visitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/vertextoedge/yt-fetch/internal/domain"
	"github.com/vertextoedge/yt-fetch/internal/service/downloader"
)

const (
	// DefaultEndpoint is the innertube player endpoint
	DefaultEndpoint = "https://www.youtube.com/youtubei/v1/player"

	clientName    = "WEB"
	clientVersion = "2.20220918"
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// PageFetcher downloads text resources
type PageFetcher interface {
	DownloadWebpage(ctx context.Context, req *domain.WebpageRequest) *downloader.Response[string]
}

type playerRequest struct {
	VideoID string        `json:"videoId"`
	Context playerContext `json:"context"`
}

type playerContext struct {
	Client playerClient `json:"client"`
}

type playerClient struct {
	HL            string `json:"hl"`
	GL            string `json:"gl"`
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
}

type playerResponse struct {
	ResponseContext struct {
		VisitorData string `json:"visitorData"`
	} `json:"responseContext"`
}

// Resolver fetches visitor data through a player request
type Resolver struct {
	pages    PageFetcher
	endpoint string
	logger   *zap.Logger
}

// New creates a Resolver. An empty endpoint selects DefaultEndpoint.
func New(pages PageFetcher, endpoint string, logger *zap.Logger) *Resolver {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{pages: pages, endpoint: endpoint, logger: logger}
}

// VisitorData returns the visitor data issued for a player request of
// videoID. opts carries the proxy and retry overrides of the lookup.
func (r *Resolver) VisitorData(ctx context.Context, videoID string, opts domain.RequestOptions) (string, error) {
	body, err := json.Marshal(playerRequest{
		VideoID: videoID,
		Context: playerContext{Client: playerClient{
			HL:            "en",
			GL:            "US",
			ClientName:    clientName,
			ClientVersion: clientVersion,
		}},
	})
	if err != nil {
		return "", fmt.Errorf("encode player request: %w", err)
	}

	headers := map[string]string{"User-Agent": userAgent}
	for k, v := range opts.Headers {
		headers[k] = v
	}
	opts.Headers = headers
	opts.Mode = domain.ModeSync

	text, err := r.pages.DownloadWebpage(ctx, &domain.WebpageRequest{
		RequestOptions: opts,
		URL:            r.endpoint,
		Method:         http.MethodPost,
		Body:           string(body),
	}).Data()
	if err != nil {
		return "", fmt.Errorf("player request for %s: %w", videoID, err)
	}

	var resp playerResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return "", fmt.Errorf("decode player response: %w", err)
	}
	if resp.ResponseContext.VisitorData == "" {
		return "", fmt.Errorf("visitor data: %w", domain.ErrNotFound)
	}

	r.logger.Debug("visitor data resolved", zap.String("video_id", videoID))
	return resp.ResponseContext.VisitorData, nil
}

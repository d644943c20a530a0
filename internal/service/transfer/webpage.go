package transfer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

const jsonContentType = "application/json; charset=utf-8"

var gzipHeader = map[string]string{"Accept-Encoding": "gzip"}

// FetchPage performs one webpage fetch attempt and returns the body as
// text. Every line is terminated with "\n".
func (t *Transferrer) FetchPage(ctx context.Context, page *domain.WebpageRequest) (string, error) {
	client, release := t.clients.ClientFor(page.Proxy)
	defer release()

	method := page.HTTPMethod()
	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(page.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, page.URL, body)
	if err != nil {
		return "", domain.Fatal(fmt.Errorf("build request: %w", err))
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", jsonContentType)
	}

	var compression map[string]string
	if t.compression {
		compression = gzipHeader
	}
	applyHeaders(req.Header, t.headers, compression, page.Headers)

	resp, err := do(ctx, client, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.ContentLength == 0 {
		return "", domain.Recoverable(domain.ErrEmptyBody)
	}

	var in io.Reader = resp.Body
	if t.compression && strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", domain.Recoverable(fmt.Errorf("open gzip body: %w", err))
		}
		defer zr.Close()
		in = zr
	}

	text, err := readLines(ctx, in)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", domain.Recoverable(domain.ErrEmptyBody)
	}

	t.logger.Debug("page fetched",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Int("length", len(text)))
	return text, nil
}

// readLines normalizes line endings to "\n", terminating the last line too.
func readLines(ctx context.Context, in io.Reader) (string, error) {
	br := bufio.NewReader(in)
	var sb strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return "", domain.Cancelled(err)
		}

		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return "", domain.Cancelled(cerr)
			}
			return "", fmt.Errorf("read body: %w", err)
		}
	}
}

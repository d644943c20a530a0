package downloader

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/vertextoedge/yt-fetch/internal/adapter/httpclient"
	"github.com/vertextoedge/yt-fetch/internal/adapter/sqlite"
	"github.com/vertextoedge/yt-fetch/internal/domain"
	"github.com/vertextoedge/yt-fetch/internal/service/retry"
	"github.com/vertextoedge/yt-fetch/internal/service/transfer"
)

func TestDownloadFile_ChunkedEndToEnd(t *testing.T) {
	const length = 5000000
	var requests atomic.Int32
	var failed atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		// The second part fails once, forcing a full restart
		if r.URL.Query().Get("rn") == "2" && failed.CompareAndSwap(false, true) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		bounds := strings.SplitN(r.URL.Query().Get("range"), "-", 2)
		first, _ := strconv.Atoi(bounds[0])
		last, _ := strconv.Atoi(bounds[1])
		w.Write(bytes.Repeat([]byte{'m'}, last-first+1))
	}))
	defer server.Close()

	logger := zaptest.NewLogger(t)
	journal, err := sqlite.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	defer journal.Close()

	clients := httpclient.NewFactory(nil, logger)
	transport := transfer.New(clients, transfer.DefaultConfig(), logger)
	d := New(transport, retry.New(0, logger), nil, journal, DefaultConfig(), logger)

	path := filepath.Join(t.TempDir(), "audio.webm")
	cb := &recorder[string]{}
	resp := d.DownloadFile(context.Background(), &domain.FileRequest{
		Format: &domain.Format{
			URL:           server.URL + "/videoplayback?id=abc",
			ContentLength: domain.Int64(length),
			Adaptive:      true,
			ClientVersion: "2.20220918",
			Itag:          251,
		},
		OutputPath: path,
		Callback:   cb,
	})

	if _, err := resp.Data(); err != nil {
		t.Fatalf("Data() error = %v", err)
	}
	if resp.Attempts() != 2 {
		t.Errorf("Attempts() = %d, want 2", resp.Attempts())
	}
	// 2 requests in the failed attempt, 3 in the successful one
	if got := requests.Load(); got != 5 {
		t.Errorf("requests = %d, want 5", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != length {
		t.Errorf("file size = %d, want %d", info.Size(), length)
	}

	if last := cb.progress[len(cb.progress)-1]; last != 100 {
		t.Errorf("last progress = %d, want 100", last)
	}

	recent, err := journal.Recent(1)
	if err != nil || len(recent) != 1 {
		t.Fatalf("Recent() = %v, %v", recent, err)
	}
	if rec := recent[0]; rec.Status != domain.TransferStatusCompleted || rec.BytesWritten != length || rec.Attempts != 2 {
		t.Errorf("journal record = %+v", rec)
	}
}

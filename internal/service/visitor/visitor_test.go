package visitor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/vertextoedge/yt-fetch/internal/adapter/httpclient"
	"github.com/vertextoedge/yt-fetch/internal/domain"
	"github.com/vertextoedge/yt-fetch/internal/service/downloader"
	"github.com/vertextoedge/yt-fetch/internal/service/transfer"
)

func newResolver(t *testing.T, handler http.HandlerFunc) *Resolver {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := zaptest.NewLogger(t)
	factory := httpclient.NewFactory(nil, logger)
	tr := transfer.New(factory.MetadataProvider(), transfer.DefaultConfig(), logger)
	cfg := downloader.DefaultConfig()
	cfg.MaxRetries = 0
	d := downloader.New(tr, nil, nil, nil, cfg, logger)

	return New(d, server.URL+"/youtubei/v1/player", logger)
}

func TestResolver_VisitorData(t *testing.T) {
	type seen struct {
		body        playerRequest
		contentType string
		userAgent   string
	}
	requests := make(chan seen, 1)

	r := newResolver(t, func(w http.ResponseWriter, req *http.Request) {
		s := seen{contentType: req.Header.Get("Content-Type"), userAgent: req.Header.Get("User-Agent")}
		body, _ := io.ReadAll(req.Body)
		json.Unmarshal(body, &s.body)
		requests <- s
		io.WriteString(w, `{"responseContext":{"visitorData":"CgtWaXNpdG9y"}}`)
	})

	data, err := r.VisitorData(context.Background(), "GDlkCkcIqTs", domain.RequestOptions{})
	if err != nil {
		t.Fatalf("VisitorData() error = %v", err)
	}
	if data != "CgtWaXNpdG9y" {
		t.Errorf("VisitorData() = %q, want %q", data, "CgtWaXNpdG9y")
	}

	req := <-requests
	got := req.body
	if got.VideoID != "GDlkCkcIqTs" || got.Context.Client.ClientName != "WEB" || got.Context.Client.ClientVersion != "2.20220918" {
		t.Errorf("player request = %+v", got)
	}
	if req.contentType != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", req.contentType)
	}
	if req.userAgent != userAgent {
		t.Errorf("User-Agent = %q", req.userAgent)
	}
}

func TestResolver_Failures(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		notFound bool
	}{
		{
			name: "missing visitor data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `{"responseContext":{}}`)
			},
			notFound: true,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, `<html>`)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newResolver(t, tt.handler)

			_, err := r.VisitorData(context.Background(), "abc", domain.RequestOptions{})
			if err == nil {
				t.Fatal("VisitorData() error = nil")
			}
			if got := errors.Is(err, domain.ErrNotFound); got != tt.notFound {
				t.Errorf("errors.Is(err, ErrNotFound) = %v, want %v", got, tt.notFound)
			}
		})
	}
}

package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/yt-fetch/internal/adapter/httpclient"
	"github.com/vertextoedge/yt-fetch/internal/adapter/sqlite"
	"github.com/vertextoedge/yt-fetch/internal/config"
	"github.com/vertextoedge/yt-fetch/internal/domain"
	"github.com/vertextoedge/yt-fetch/internal/logger"
	"github.com/vertextoedge/yt-fetch/internal/port"
	"github.com/vertextoedge/yt-fetch/internal/service/downloader"
	"github.com/vertextoedge/yt-fetch/internal/service/retry"
	"github.com/vertextoedge/yt-fetch/internal/service/transfer"
	"github.com/vertextoedge/yt-fetch/internal/service/visitor"
	"github.com/vertextoedge/yt-fetch/internal/workerpool"
)

// app holds the services shared by every command
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	clients    *httpclient.Factory
	store      *sqlite.Store
	pool       *workerpool.Pool
	downloader *downloader.Downloader
	visitor    *visitor.Resolver
}

func (a *app) init(configPath, logLevel string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	a.cfg = cfg

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger.GetZapLogger()

	a.clients = httpclient.NewFactory(&httpclient.Config{
		ConnectTimeout:  cfg.HTTP.GetConnectTimeout(),
		ReadTimeout:     cfg.HTTP.GetReadTimeout(),
		MetadataTimeout: cfg.HTTP.GetMetadataTimeout(),
		Proxy:           cfg.Proxy.ToDomain(),
	}, a.logger)

	var journal port.TransferJournal
	if cfg.Journal.Path != "" {
		a.store, err = sqlite.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		journal = a.store
	}

	a.pool = workerpool.New(cfg.Workers.PoolSize, a.logger)

	transferCfg := &transfer.Config{
		Headers:     cfg.Downloader.Headers,
		PartSize:    cfg.Downloader.PartSize,
		BufferSize:  cfg.Downloader.BufferSize,
		Compression: cfg.Downloader.Compression,
	}
	downloaderCfg := &downloader.Config{
		MaxRetries:          cfg.Downloader.MaxRetries,
		ProgressLogInterval: cfg.Downloader.GetProgressLogInterval(),
	}
	retrier := retry.New(cfg.Downloader.GetRetryDelay(), a.logger)

	a.downloader = downloader.New(
		transfer.New(a.clients, transferCfg, a.logger),
		retrier, a.pool, journal, downloaderCfg, a.logger)

	metadata := downloader.New(
		transfer.New(a.clients.MetadataProvider(), transferCfg, a.logger),
		retrier, nil, journal, downloaderCfg, a.logger)
	a.visitor = visitor.New(metadata, "", a.logger)

	a.logger.Debug("yt-fetch initialized",
		zap.String("version", version),
		zap.String("config", configPath),
		zap.String("proxy", cfg.Proxy.ToDomain().String()),
		zap.Bool("journal", a.store != nil))
	return nil
}

// close releases whatever init managed to set up
func (a *app) close() {
	if a.pool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.pool.Shutdown(ctx); err != nil {
			a.logger.Warn("worker pool did not drain", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close journal", zap.Error(err))
		}
	}
	_ = logger.Sync()
}

// requestOptions builds the shared request options from command flags
func requestOptions(headers map[string]string, proxy string, retries int) (domain.RequestOptions, error) {
	opts := domain.RequestOptions{Headers: headers}
	if retries >= 0 {
		opts.MaxRetries = domain.Int(retries)
	}
	if proxy != "" {
		p, err := parseProxy(proxy)
		if err != nil {
			return opts, err
		}
		opts.Proxy = p
	}
	return opts, nil
}

// parseProxy accepts host:port
func parseProxy(s string) (*domain.ProxyConfig, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy port %q: %w", portStr, err)
	}
	return &domain.ProxyConfig{Scheme: "http", Host: host, Port: port}, nil
}

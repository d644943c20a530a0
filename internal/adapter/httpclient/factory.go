package httpclient

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"github.com/vertextoedge/yt-fetch/internal/domain"
	"github.com/vertextoedge/yt-fetch/internal/port"
)

// Config contains client factory configuration
type Config struct {
	// ConnectTimeout bounds establishing a connection
	ConnectTimeout time.Duration

	// ReadTimeout bounds every single read from a connection
	ReadTimeout time.Duration

	// MetadataTimeout replaces both timeouts for light metadata calls
	MetadataTimeout time.Duration

	// Proxy is the default proxy, nil for direct connections
	Proxy *domain.ProxyConfig
}

// DefaultConfig returns default factory configuration
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout:  30 * time.Second,
		ReadTimeout:     30 * time.Second,
		MetadataTimeout: 15 * time.Second,
	}
}

// Factory builds and caches HTTP clients.
type Factory struct {
	config *Config
	logger *zap.Logger

	defaultClient *http.Client

	metadataOnce   sync.Once
	metadataClient *http.Client
}

// Ensure Factory implements port.ClientProvider
var _ port.ClientProvider = (*Factory)(nil)

// NewFactory creates a Factory and its shared default client
func NewFactory(cfg *Config, logger *zap.Logger) *Factory {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Factory{
		config: cfg,
		logger: logger,
	}
	f.defaultClient = f.Build(cfg.Proxy, cfg.ConnectTimeout, cfg.ReadTimeout)
	return f
}

// Default returns the shared client for the default proxy
func (f *Factory) Default() *http.Client {
	return f.defaultClient
}

// MetadataClient returns the shared client with the shorter metadata budget
func (f *Factory) MetadataClient() *http.Client {
	f.metadataOnce.Do(func() {
		timeout := f.metadataTimeout()
		f.metadataClient = f.Build(f.config.Proxy, timeout, timeout)
	})
	return f.metadataClient
}

// MetadataProvider hands out metadata clients through the ClientProvider
// port, so light lookups can reuse the transfer services.
func (f *Factory) MetadataProvider() port.ClientProvider {
	return metadataProvider{f: f}
}

func (f *Factory) metadataTimeout() time.Duration {
	if f.config.MetadataTimeout <= 0 {
		return 15 * time.Second
	}
	return f.config.MetadataTimeout
}

type metadataProvider struct {
	f *Factory
}

func (m metadataProvider) ClientFor(override *domain.ProxyConfig) (*http.Client, func()) {
	if override == nil || override.Equal(m.f.config.Proxy) {
		return m.f.MetadataClient(), func() {}
	}
	timeout := m.f.metadataTimeout()
	client := m.f.Build(override, timeout, timeout)
	return client, client.CloseIdleConnections
}

// ClientFor returns the default client unless override names another proxy
func (f *Factory) ClientFor(override *domain.ProxyConfig) (*http.Client, func()) {
	if override == nil || override.Equal(f.config.Proxy) {
		return f.defaultClient, func() {}
	}

	f.logger.Debug("building isolated client for proxy override",
		zap.String("proxy", override.String()))

	client := f.Build(override, f.config.ConnectTimeout, f.config.ReadTimeout)
	return client, client.CloseIdleConnections
}

// Build creates an independent client. Nothing is validated here: a
// malformed proxy surfaces when a request is attempted.
func (f *Factory) Build(proxy *domain.ProxyConfig, connectTimeout, readTimeout time.Duration) *http.Client {
	transport := cleanhttp.DefaultPooledTransport()

	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport.DialContext = dialWithReadTimeout(dialer, readTimeout)
	transport.ResponseHeaderTimeout = readTimeout

	// Compression is negotiated per request; media bytes must arrive raw
	transport.DisableCompression = true

	transport.Proxy = nil
	if proxy.Enabled() {
		transport.Proxy = http.ProxyURL(proxy.URL())
	}

	var rt http.RoundTripper = transport
	if proxy.HasCredentials() {
		rt = NewChallengeTransport(transport, &BasicAuthenticator{
			Username: proxy.Username,
			Password: proxy.Password,
		})
	}

	return &http.Client{Transport: rt}
}

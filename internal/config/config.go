package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. YTFETCH_PROXY_HOST
const EnvPrefix = "YTFETCH"

// Config represents the entire application configuration
type Config struct {
	Downloader DownloaderConfig `mapstructure:"downloader"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Proxy      ProxyConfig      `mapstructure:"proxy"`
	Workers    WorkersConfig    `mapstructure:"workers"`
	Journal    JournalConfig    `mapstructure:"journal"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// DownloaderConfig contains transfer settings
type DownloaderConfig struct {
	MaxRetries          int               `mapstructure:"max_retries"`
	RetryDelay          string            `mapstructure:"retry_delay"`
	PartSize            int64             `mapstructure:"part_size"`
	BufferSize          int               `mapstructure:"buffer_size"`
	Compression         bool              `mapstructure:"compression"`
	ProgressLogInterval string            `mapstructure:"progress_log_interval"`
	Headers             map[string]string `mapstructure:"headers"`
}

// HTTPConfig contains HTTP client timeouts
type HTTPConfig struct {
	ConnectTimeout  string `mapstructure:"connect_timeout"`
	ReadTimeout     string `mapstructure:"read_timeout"`
	MetadataTimeout string `mapstructure:"metadata_timeout"`
}

// ProxyConfig contains the default proxy. An empty host means direct.
type ProxyConfig struct {
	Scheme   string `mapstructure:"scheme"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// WorkersConfig contains the asynchronous executor settings
type WorkersConfig struct {
	PoolSize int `mapstructure:"pool_size"`
}

// JournalConfig contains transfer journal settings
type JournalConfig struct {
	// Path of the SQLite database, empty disables the journal
	Path string `mapstructure:"path"`

	// StaleAfter is when a pending record is considered abandoned
	StaleAfter string `mapstructure:"stale_after"`

	// Retention is how long finished records are kept
	Retention string `mapstructure:"retention"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from the specified file path. An empty path or
// a missing file yields the defaults; environment variables override both.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("downloader.max_retries", 3)
	v.SetDefault("downloader.retry_delay", "0s")
	v.SetDefault("downloader.part_size", 2*1024*1024)
	v.SetDefault("downloader.buffer_size", 4096)
	v.SetDefault("downloader.compression", true)
	v.SetDefault("downloader.progress_log_interval", "1s")
	v.SetDefault("downloader.headers", map[string]string{})
	v.SetDefault("http.connect_timeout", "30s")
	v.SetDefault("http.read_timeout", "30s")
	v.SetDefault("http.metadata_timeout", "15s")
	v.SetDefault("proxy.scheme", "http")
	v.SetDefault("proxy.host", "")
	v.SetDefault("proxy.port", 0)
	v.SetDefault("proxy.username", "")
	v.SetDefault("proxy.password", "")
	v.SetDefault("workers.pool_size", 4)
	v.SetDefault("journal.path", "")
	v.SetDefault("journal.stale_after", "24h")
	v.SetDefault("journal.retention", "720h")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate downloader config
	if c.Downloader.MaxRetries < 0 {
		return fmt.Errorf("downloader.max_retries must not be negative")
	}
	if c.Downloader.PartSize <= 0 {
		return fmt.Errorf("downloader.part_size must be positive")
	}
	if c.Downloader.BufferSize <= 0 {
		return fmt.Errorf("downloader.buffer_size must be positive")
	}

	durations := map[string]string{
		"downloader.retry_delay":           c.Downloader.RetryDelay,
		"downloader.progress_log_interval": c.Downloader.ProgressLogInterval,
		"http.connect_timeout":             c.HTTP.ConnectTimeout,
		"http.read_timeout":                c.HTTP.ReadTimeout,
		"http.metadata_timeout":            c.HTTP.MetadataTimeout,
		"journal.stale_after":              c.Journal.StaleAfter,
		"journal.retention":                c.Journal.Retention,
	}
	for key, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}

	// Proxy settings are otherwise checked when a request goes through them
	if c.Proxy.Port < 0 || c.Proxy.Port > 65535 {
		return fmt.Errorf("proxy.port must be between 0 and 65535")
	}

	if c.Workers.PoolSize < 1 || c.Workers.PoolSize > 64 {
		return fmt.Errorf("workers.pool_size must be between 1 and 64")
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// GetRetryDelay returns the pause between attempts
func (c *DownloaderConfig) GetRetryDelay() time.Duration {
	d, _ := time.ParseDuration(c.RetryDelay)
	return d
}

// GetProgressLogInterval returns the progress log throttle interval
func (c *DownloaderConfig) GetProgressLogInterval() time.Duration {
	d, _ := time.ParseDuration(c.ProgressLogInterval)
	if d == 0 {
		return time.Second
	}
	return d
}

// GetConnectTimeout returns the connect timeout as time.Duration
func (c *HTTPConfig) GetConnectTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ConnectTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetReadTimeout returns the read timeout as time.Duration
func (c *HTTPConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetMetadataTimeout returns the metadata call timeout as time.Duration
func (c *HTTPConfig) GetMetadataTimeout() time.Duration {
	d, _ := time.ParseDuration(c.MetadataTimeout)
	if d == 0 {
		return 15 * time.Second
	}
	return d
}

// GetStaleAfter returns the age after which pending records are abandoned
func (c *JournalConfig) GetStaleAfter() time.Duration {
	d, _ := time.ParseDuration(c.StaleAfter)
	if d == 0 {
		return 24 * time.Hour
	}
	return d
}

// GetRetention returns how long finished records are kept
func (c *JournalConfig) GetRetention() time.Duration {
	d, _ := time.ParseDuration(c.Retention)
	if d == 0 {
		return 30 * 24 * time.Hour
	}
	return d
}

// ToDomain returns the default proxy, or nil for direct connections
func (c *ProxyConfig) ToDomain() *domain.ProxyConfig {
	if c.Host == "" {
		return nil
	}
	return &domain.ProxyConfig{
		Scheme:   c.Scheme,
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
	}
}

package domain

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Mode selects inline or background execution.
type Mode int

const (
	// ModeSync runs the operation on the calling goroutine
	ModeSync Mode = iota
	// ModeAsync submits the operation to the executor
	ModeAsync
)

// String returns the mode name
func (m Mode) String() string {
	if m == ModeAsync {
		return "async"
	}
	return "sync"
}

// RequestOptions holds the settings shared by every request kind.
type RequestOptions struct {
	// Headers override the configured default headers on key collision
	Headers map[string]string

	// Proxy overrides the default proxy for this call only
	Proxy *ProxyConfig

	// MaxRetries overrides the configured retry budget when set
	MaxRetries *int

	// Mode selects synchronous or asynchronous execution
	Mode Mode
}

// RetriesOr returns the per-request retry budget or def.
func (o *RequestOptions) RetriesOr(def int) int {
	if o.MaxRetries != nil && *o.MaxRetries >= 0 {
		return *o.MaxRetries
	}
	return def
}

// WebpageRequest fetches a text resource.
type WebpageRequest struct {
	RequestOptions

	URL string

	// Method is GET or POST, GET when empty
	Method string

	// Body is sent as JSON on POST and is required there
	Body string

	Callback Callback[string]
}

// HTTPMethod returns the normalized method
func (r *WebpageRequest) HTTPMethod() string {
	if strings.EqualFold(r.Method, http.MethodPost) {
		return http.MethodPost
	}
	return http.MethodGet
}

// Validate checks required fields
func (r *WebpageRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil webpage request", ErrInvalidRequest)
	}
	if r.URL == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	switch strings.ToUpper(r.Method) {
	case "", http.MethodGet:
	case http.MethodPost:
		if r.Body == "" {
			return fmt.Errorf("%w: POST requires a body", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unsupported method %s", ErrInvalidRequest, r.Method)
	}
	return nil
}

// FileRequest downloads a format into a file. The result is the file path.
type FileRequest struct {
	RequestOptions

	Format     *Format
	OutputPath string
	Callback   Callback[string]
}

// Validate checks required fields
func (r *FileRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil file request", ErrInvalidRequest)
	}
	if err := validateFormat(r.Format); err != nil {
		return err
	}
	if r.OutputPath == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidRequest)
	}
	return nil
}

// StreamRequest downloads a format into a caller supplied sink. The sink
// is closed when the call ends.
type StreamRequest struct {
	RequestOptions

	Format   *Format
	Output   io.WriteCloser
	Callback Callback[struct{}]
}

// Validate checks required fields
func (r *StreamRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil stream request", ErrInvalidRequest)
	}
	if err := validateFormat(r.Format); err != nil {
		return err
	}
	if r.Output == nil {
		return fmt.Errorf("%w: output stream is required", ErrInvalidRequest)
	}
	return nil
}

func validateFormat(f *Format) error {
	if f == nil {
		return fmt.Errorf("%w: format is required", ErrInvalidRequest)
	}
	if f.URL == "" {
		return fmt.Errorf("%w: format url is required", ErrInvalidRequest)
	}
	if f.ContentLength != nil && *f.ContentLength < 0 {
		return fmt.Errorf("%w: negative content length", ErrInvalidRequest)
	}
	return nil
}

package domain

import (
	"net"
	"net/url"
	"strconv"
)

// ProxyConfig describes an HTTP proxy and its optional credentials.
type ProxyConfig struct {
	Scheme   string
	Host     string
	Port     int
	Username string
	Password string
}

// Enabled returns true if a proxy host is configured
func (p *ProxyConfig) Enabled() bool {
	return p != nil && p.Host != ""
}

// HasCredentials returns true if both username and password are set
func (p *ProxyConfig) HasCredentials() bool {
	return p != nil && p.Username != "" && p.Password != ""
}

// URL returns the proxy URL without credentials. Credentials are only
// supplied in answer to a proxy challenge.
func (p *ProxyConfig) URL() *url.URL {
	if !p.Enabled() {
		return nil
	}
	return &url.URL{
		Scheme: p.scheme(),
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
	}
}

// Equal compares two proxy configurations, nil and disabled being equal
func (p *ProxyConfig) Equal(other *ProxyConfig) bool {
	if !p.Enabled() || !other.Enabled() {
		return p.Enabled() == other.Enabled()
	}
	a, b := *p, *other
	a.Scheme, b.Scheme = p.scheme(), other.scheme()
	return a == b
}

func (p *ProxyConfig) scheme() string {
	if p.Scheme == "" {
		return "http"
	}
	return p.Scheme
}

// String returns host:port for logging
func (p *ProxyConfig) String() string {
	if !p.Enabled() {
		return "direct"
	}
	return p.URL().String()
}

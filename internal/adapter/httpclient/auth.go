package httpclient

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

var errNotRewindable = errors.New("request body cannot be replayed")

// Authenticator answers a proxy authentication challenge.
type Authenticator interface {
	// Authenticate returns the header to attach to the retried request.
	// challenge is the 407 response, or nil when the proxy refused to open
	// a CONNECT tunnel. ok=false gives up and surfaces the challenge.
	Authenticate(challenge *http.Response) (key, value string, ok bool)
}

// BasicAuthenticator answers with HTTP Basic credentials
type BasicAuthenticator struct {
	Username string
	Password string
}

// Authenticate implements Authenticator
func (a *BasicAuthenticator) Authenticate(_ *http.Response) (string, string, bool) {
	if a.Username == "" {
		return "", "", false
	}
	return "Proxy-Authorization", BasicCredential(a.Username, a.Password), true
}

// BasicCredential encodes a Basic authorization value
func BasicCredential(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// ChallengeTransport retries a request once with credentials after the
// proxy challenged it. The first request is always sent unauthenticated.
type ChallengeTransport struct {
	base *http.Transport
	auth Authenticator

	tunnelMu sync.Mutex
	tunnel   *http.Transport
}

// NewChallengeTransport wraps base with the authenticator hook
func NewChallengeTransport(base *http.Transport, auth Authenticator) *ChallengeTransport {
	return &ChallengeTransport{base: base, auth: auth}
}

// RoundTrip implements http.RoundTripper
func (t *ChallengeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		if !isTunnelAuthError(err) {
			return nil, err
		}
		key, value, ok := t.auth.Authenticate(nil)
		if !ok {
			return nil, err
		}
		retry, rerr := rewind(req)
		if rerr != nil {
			return nil, err
		}
		return t.tunnelTransport(key, value).RoundTrip(retry)
	}

	if resp.StatusCode != http.StatusProxyAuthRequired {
		return resp, nil
	}

	key, value, ok := t.auth.Authenticate(resp)
	if !ok {
		return resp, nil
	}
	retry, rerr := rewind(req)
	if rerr != nil {
		return resp, nil
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	retry.Header.Set(key, value)
	return t.base.RoundTrip(retry)
}

// CloseIdleConnections closes idle connections of both transports
func (t *ChallengeTransport) CloseIdleConnections() {
	t.base.CloseIdleConnections()
	t.tunnelMu.Lock()
	defer t.tunnelMu.Unlock()
	if t.tunnel != nil {
		t.tunnel.CloseIdleConnections()
	}
}

func (t *ChallengeTransport) tunnelTransport(key, value string) *http.Transport {
	t.tunnelMu.Lock()
	defer t.tunnelMu.Unlock()
	if t.tunnel == nil {
		t.tunnel = t.base.Clone()
		t.tunnel.ProxyConnectHeader = http.Header{}
		t.tunnel.ProxyConnectHeader.Set(key, value)
	}
	return t.tunnel
}

// rewind clones req with a fresh body so it can be sent again
func rewind(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return retry, nil
	}
	if req.GetBody == nil {
		return nil, errNotRewindable
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	retry.Body = body
	return retry, nil
}

// isTunnelAuthError matches the error net/http returns when a CONNECT is
// answered with 407. Transport.dialConn has no typed error for a refused
// tunnel: it returns errors.New with the reason phrase of the proxy's status
// line, wrapped in *url.Error when the call went through http.Client.
func isTunnelAuthError(err error) bool {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	return err != nil && strings.Contains(err.Error(), http.StatusText(http.StatusProxyAuthRequired))
}

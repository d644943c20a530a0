package port

import (
	"net/http"

	"github.com/vertextoedge/yt-fetch/internal/domain"
)

// ClientProvider hands out HTTP clients for transfer attempts
type ClientProvider interface {
	// ClientFor returns the shared default client, or an isolated client
	// when override names a proxy other than the default one. The caller
	// must invoke release once the client is no longer needed.
	ClientFor(override *domain.ProxyConfig) (client *http.Client, release func())
}

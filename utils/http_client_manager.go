package utils

import (
	"net/http"
	"time"
)

// HTTPClients holds one client per outbound concern so timeouts stay independent.
type HTTPClients struct {
	Fetch      *http.Client
	Generation *http.Client
	Sink       *http.Client
}

// NewHTTPClients builds pooled clients. The generation client has no client-level
// timeout; the generation driver bounds each call with a context deadline instead.
func NewHTTPClients(fetchTimeout, sinkTimeout time.Duration) *HTTPClients {
	return &HTTPClients{
		Fetch:      newPooledClient(fetchTimeout),
		Generation: newPooledClient(0),
		Sink:       newPooledClient(sinkTimeout),
	}
}

func newPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
		},
	}
}

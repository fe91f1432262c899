package driver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
)

const maxRobotsBytes = 512 << 10

// RobotsCache fetches robots.txt once per host and answers allow/deny checks.
type RobotsCache struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger

	mu    sync.Mutex
	hosts map[string]*robotstxt.RobotsData
}

func NewRobotsCache(client *http.Client, userAgent string, logger *slog.Logger) *RobotsCache {
	return &RobotsCache{
		client:    client,
		userAgent: userAgent,
		logger:    logger,
		hosts:     make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether the configured user agent may fetch rawURL.
// An unreachable robots.txt allows everything.
func (r *RobotsCache) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return false, fmt.Errorf("missing host in url %q", rawURL)
	}

	data := r.lookup(ctx, u)
	if data == nil {
		return true, nil
	}
	return data.TestAgent(u.RequestURI(), r.userAgent), nil
}

func (r *RobotsCache) lookup(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	host := strings.ToLower(u.Host)

	r.mu.Lock()
	data, ok := r.hosts[host]
	r.mu.Unlock()
	if ok {
		return data
	}

	data = r.fetch(ctx, u.Scheme+"://"+u.Host+"/robots.txt")

	r.mu.Lock()
	r.hosts[host] = data
	r.mu.Unlock()
	return data
}

func (r *RobotsCache) fetch(ctx context.Context, robotsURL string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.DebugContext(ctx, "robots.txt unavailable", "robots_url", robotsURL, "error", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	// Server errors are treated as "no rules" rather than a blanket disallow.
	if resp.StatusCode >= 500 {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		r.logger.DebugContext(ctx, "robots.txt unparseable", "robots_url", robotsURL, "error", err)
		return nil
	}
	return data
}

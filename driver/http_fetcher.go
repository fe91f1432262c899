package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"feed-enricher/domain"
	"feed-enricher/metrics"
	"feed-enricher/ratelimit"
	apperrors "feed-enricher/utils/errors"

	"golang.org/x/net/html/charset"
)

// FetchedDocument is a raw HTTP response body plus the metadata needed to decode it.
type FetchedDocument struct {
	URL         string
	ContentType string
	Body        []byte
}

type FetcherConfig struct {
	UserAgent     string
	MaxBodyBytes  int64
	RespectRobots bool
}

// HTTPFetcher performs polite GETs: per-host spacing, optional robots.txt
// checks and a response size cap.
type HTTPFetcher struct {
	client  *http.Client
	config  FetcherConfig
	limiter *ratelimit.HostLimiter
	robots  *RobotsCache
	logger  *slog.Logger
}

func NewHTTPFetcher(client *http.Client, config FetcherConfig, limiter *ratelimit.HostLimiter, logger *slog.Logger) *HTTPFetcher {
	f := &HTTPFetcher{
		client:  client,
		config:  config,
		limiter: limiter,
		logger:  logger,
	}
	if config.RespectRobots {
		f.robots = NewRobotsCache(client, config.UserAgent, logger)
	}
	return f
}

// Fetch downloads rawURL. kind labels the fetch in metrics ("feed" or "page").
func (f *HTTPFetcher) Fetch(ctx context.Context, kind, rawURL string) (*FetchedDocument, error) {
	start := time.Now()
	doc, err := f.fetch(ctx, rawURL)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordFetch(kind, status, time.Since(start))
	return doc, err
}

func (f *HTTPFetcher) fetch(ctx context.Context, rawURL string) (*FetchedDocument, error) {
	if f.robots != nil {
		allowed, err := f.robots.Allowed(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %w: %s", domain.ErrFetchFailure, domain.ErrRobotsDisallowed, rawURL)
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("%w: rate limit wait: %v", domain.ErrFetchFailure, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	req.Header.Set("Accept", "application/feed+json, application/json, application/rss+xml, application/atom+xml, text/html;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailure, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.DebugContext(ctx, "failed to close response body", "error", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailure, &apperrors.HTTPStatusError{StatusCode: resp.StatusCode, URL: rawURL})
	}

	limit := f.config.MaxBodyBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrFetchFailure, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: response from %s exceeds %d bytes", domain.ErrFetchFailure, rawURL, limit)
	}

	return &FetchedDocument{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// DecodeHTML converts an HTML document to UTF-8 using the Content-Type header
// and any <meta charset> declaration.
func DecodeHTML(doc *FetchedDocument) (string, error) {
	reader, err := charset.NewReader(bytes.NewReader(doc.Body), doc.ContentType)
	if err != nil {
		return "", fmt.Errorf("detect charset: %w", err)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return string(decoded), nil
}

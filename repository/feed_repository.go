package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"feed-enricher/domain"
	"feed-enricher/driver"

	"github.com/mmcdole/gofeed"
)

// DocumentFetcher is the HTTP side of feed and page retrieval.
type DocumentFetcher interface {
	Fetch(ctx context.Context, kind, rawURL string) (*driver.FetchedDocument, error)
}

type feedRepository struct {
	fetcher DocumentFetcher
	logger  *slog.Logger
}

// NewFeedRepository parses JSON Feed, RSS and Atom sources.
func NewFeedRepository(fetcher DocumentFetcher, logger *slog.Logger) FeedRepository {
	return &feedRepository{fetcher: fetcher, logger: logger}
}

func (r *feedRepository) FetchItems(ctx context.Context, source domain.Source) ([]domain.FeedItem, error) {
	doc, err := r.fetcher.Fetch(ctx, "feed", source.URL)
	if err != nil {
		return nil, err
	}

	if isJSONDocument(doc) {
		if err := checkItemsArray(doc.Body); err != nil {
			return nil, err
		}
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed %s: %w", domain.ErrFetchFailure, source.URL, err)
	}

	items := make([]domain.FeedItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		mapped, ok := mapFeedItem(item)
		if !ok {
			r.logger.DebugContext(ctx, "dropping feed item without url", "source_id", source.ID, "guid", item.GUID)
			continue
		}
		items = append(items, mapped)
	}

	r.logger.InfoContext(ctx, "feed fetched",
		"source_id", source.ID,
		"feed_type", feed.FeedType,
		"items", len(items))

	return items, nil
}

func isJSONDocument(doc *driver.FetchedDocument) bool {
	if strings.Contains(doc.ContentType, "json") {
		return true
	}
	trimmed := bytes.TrimSpace(doc.Body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// checkItemsArray rejects JSON payloads whose "items" member is missing or not an array.
func checkItemsArray(body []byte) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidFeed, err)
	}
	raw, ok := envelope["items"]
	if !ok {
		return domain.ErrInvalidFeed
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return domain.ErrInvalidFeed
	}
	return nil
}

func mapFeedItem(item *gofeed.Item) (domain.FeedItem, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" && isHTTPURL(item.GUID) {
		link = item.GUID
	}
	if link == "" {
		return domain.FeedItem{}, false
	}

	mapped := domain.FeedItem{
		ID:       item.GUID,
		URL:      link,
		Title:    strings.TrimSpace(item.Title),
		RawBody:  item.Content,
		ImageURL: extractImageURL(item),
	}
	if mapped.ID == "" {
		mapped.ID = link
	}
	if mapped.RawBody == "" {
		mapped.RawBody = item.Description
	} else {
		mapped.Summary = item.Description
	}

	switch {
	case item.PublishedParsed != nil:
		mapped.PublishedAt = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		mapped.PublishedAt = *item.UpdatedParsed
	}

	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			mapped.Authors = append(mapped.Authors, author.Name)
		}
	}

	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		size, _ := strconv.ParseInt(enc.Length, 10, 64)
		mapped.Attachments = append(mapped.Attachments, domain.Attachment{
			URL:       enc.URL,
			MimeType:  enc.Type,
			SizeBytes: size,
		})
	}

	return mapped, true
}

// extractImageURL picks the item image: Item.Image, then media:thumbnail,
// then media:content with medium=image, then an image enclosure.
func extractImageURL(item *gofeed.Item) string {
	if item.Image != nil && isHTTPURL(item.Image.URL) {
		return item.Image.URL
	}

	if mediaExt, ok := item.Extensions["media"]; ok {
		for _, thumb := range mediaExt["thumbnail"] {
			if u := thumb.Attrs["url"]; isHTTPURL(u) {
				return u
			}
		}
		for _, content := range mediaExt["content"] {
			if content.Attrs["medium"] == "image" {
				if u := content.Attrs["url"]; isHTTPURL(u) {
					return u
				}
			}
		}
	}

	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && isHTTPURL(enc.URL) {
			return enc.URL
		}
	}

	return ""
}

func isHTTPURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

package domain

import (
	"time"
)

// Source is a configured feed endpoint.
type Source struct {
	ID      string `yaml:"id" json:"id"`
	URL     string `yaml:"url" json:"url"`
	Section string `yaml:"section" json:"section"`
}

// Attachment is a file attached to a feed item (enclosure).
type Attachment struct {
	URL       string `json:"url"`
	MimeType  string `json:"mime_type"`
	Title     string `json:"title,omitempty"`
	SizeBytes int64  `json:"size_in_bytes,omitempty"`
}

// FeedItem is one unit of content offered by a source.
type FeedItem struct {
	PublishedAt time.Time    `json:"published_at"`
	ID          string       `json:"id"`
	URL         string       `json:"url"`
	Title       string       `json:"title"`
	RawBody     string       `json:"raw_body"`
	Summary     string       `json:"summary,omitempty"`
	ImageURL    string       `json:"image,omitempty"`
	Authors     []string     `json:"authors,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Key returns the dedup key of the item: its canonical URL, or the id when no URL is present.
func (i FeedItem) Key() string {
	if i.URL != "" {
		return i.URL
	}
	return i.ID
}

package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"feed-enricher/domain"
	apperrors "feed-enricher/utils/errors"

	"golang.org/x/time/rate"
)

// maxRecordsPerRequest mirrors the batch cap of common record APIs.
const maxRecordsPerRequest = 10

type recordFields struct {
	SourceURL    string         `json:"sourceUrl"`
	Title        string         `json:"title"`
	Overline     string         `json:"overline"`
	Excerpt      string         `json:"excerpt"`
	Body         string         `json:"body"`
	Tags         string         `json:"tags"`
	SectionLabel string         `json:"section"`
	SocialText   string         `json:"socialText,omitempty"`
	Status       string         `json:"status"`
	Images       []domain.Image `json:"images,omitempty"`
	CreatedAt    string         `json:"createdAt"`
}

type recordEnvelope struct {
	Fields recordFields `json:"fields"`
}

type recordBatch struct {
	Records []recordEnvelope `json:"records"`
}

type recordAPISink struct {
	client  *http.Client
	baseURL string
	token   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRecordAPISink posts records to {baseURL}/{sectionID} in batches of ten.
func NewRecordAPISink(client *http.Client, baseURL, token string, limiter *rate.Limiter, logger *slog.Logger) PublishSink {
	return &recordAPISink{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		limiter: limiter,
		logger:  logger,
	}
}

func (s *recordAPISink) Name() string { return "api" }

func (s *recordAPISink) Publish(ctx context.Context, sectionID string, records []*domain.EnrichedRecord) error {
	for start := 0; start < len(records); start += maxRecordsPerRequest {
		end := min(start+maxRecordsPerRequest, len(records))
		if err := s.post(ctx, sectionID, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *recordAPISink) post(ctx context.Context, sectionID string, records []*domain.EnrichedRecord) error {
	batch := recordBatch{Records: make([]recordEnvelope, 0, len(records))}
	for _, r := range records {
		batch.Records = append(batch.Records, recordEnvelope{Fields: recordFields{
			SourceURL:    r.SourceURL,
			Title:        r.Title,
			Overline:     r.Overline,
			Excerpt:      r.Excerpt,
			Body:         r.Body,
			Tags:         r.Tags,
			SectionLabel: r.SectionLabel,
			SocialText:   r.SocialText,
			Status:       r.Status,
			Images:       r.Images,
			CreatedAt:    r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}})
	}

	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("%w: encode records: %w", domain.ErrPublishFailure, err)
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limit wait: %w", domain.ErrPublishFailure, err)
		}
	}

	endpoint := s.baseURL + "/" + url.PathEscape(sectionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %w", domain.ErrPublishFailure, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPublishFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %w", domain.ErrPublishFailure, &apperrors.HTTPStatusError{
			StatusCode: resp.StatusCode,
			URL:        endpoint,
			Body:       strings.TrimSpace(string(snippet)),
		})
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	s.logger.InfoContext(ctx, "records published",
		"sink", s.Name(),
		"section_id", sectionID,
		"records", len(records))
	return nil
}

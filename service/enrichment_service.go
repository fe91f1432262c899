// ABOUTME: Per-item enrichment: extraction, body rewrite, metadata, tags and social text
// ABOUTME: Every AI stage is validated and replaced by its deterministic fallback on failure
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"feed-enricher/domain"
	"feed-enricher/fallback"
	"feed-enricher/metrics"
	"feed-enricher/repository"
	appotel "feed-enricher/utils/otel"
	"feed-enricher/validator"

	"go.opentelemetry.io/otel/attribute"
)

// SkipReason explains why Enrich produced no record.
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipFetchFailed  SkipReason = "fetch_failed"
	SkipInsufficient SkipReason = "insufficient_content"
)

// ExtractFunc turns raw markup into text and images.
type ExtractFunc func(raw, pageURL string) domain.ExtractionResult

// SectionLabeler maps a section identifier to its destination label.
type SectionLabeler interface {
	SectionLabel(sectionID string) string
}

type EnrichmentConfig struct {
	MinContentLength int
	SocialEnabled    bool
	Options          domain.GenerationOptions
}

// EnrichmentService turns one feed item into an EnrichedRecord.
type EnrichmentService struct {
	generator repository.Generator
	pages     repository.PageRepository
	fallback  *fallback.Generator
	extract   ExtractFunc
	sections  SectionLabeler
	config    EnrichmentConfig
	now       func() time.Time
	logger    *slog.Logger
}

func NewEnrichmentService(
	generator repository.Generator,
	pages repository.PageRepository,
	fallbackGen *fallback.Generator,
	extract ExtractFunc,
	sections SectionLabeler,
	config EnrichmentConfig,
	logger *slog.Logger,
) *EnrichmentService {
	if config.MinContentLength <= 0 {
		config.MinContentLength = 50
	}
	return &EnrichmentService{
		generator: generator,
		pages:     pages,
		fallback:  fallbackGen,
		extract:   extract,
		sections:  sections,
		config:    config,
		now:       time.Now,
		logger:    logger,
	}
}

// Enrich never fails. It returns either a record or a nil record plus the reason it was skipped.
func (s *EnrichmentService) Enrich(ctx context.Context, source domain.Source, item domain.FeedItem) (*domain.EnrichedRecord, SkipReason) {
	ctx, span := appotel.Tracer().Start(ctx, "enrichment.enrich")
	defer span.End()
	span.SetAttributes(
		attribute.String("source.id", source.ID),
		attribute.String("item.url", item.Key()),
	)

	s.logger.DebugContext(ctx, "item fetched", "stage", domain.StageFetched, "item_url", item.Key())

	extraction, ok := s.extractItem(ctx, item)
	if !ok {
		s.logger.WarnContext(ctx, "item skipped", "stage", domain.StageSkipped, "reason", SkipFetchFailed, "item_url", item.Key())
		return nil, SkipFetchFailed
	}

	text := strings.TrimSpace(extraction.PlainText)
	if utf8.RuneCountInString(text) < s.config.MinContentLength {
		s.logger.InfoContext(ctx, "item skipped",
			"stage", domain.StageSkipped,
			"reason", SkipInsufficient,
			"chars", utf8.RuneCountInString(text),
			"item_url", item.Key())
		return nil, SkipInsufficient
	}
	s.logger.DebugContext(ctx, "content extracted",
		"stage", domain.StageExtracted,
		"chars", utf8.RuneCountInString(text),
		"images", len(extraction.Images))

	title := strings.TrimSpace(item.Title)

	body, bodyBranch := runStage(ctx, s, domain.StageBodyRewritten, bodyPrompt(title, text),
		func(out string) (string, error) {
			if err := validator.Body(out); err != nil {
				return "", err
			}
			return fallback.InterleaveImages(out, extraction.Images), nil
		},
		func() string { return s.fallback.Body(text, extraction.Images) })

	meta, _ := runStage(ctx, s, domain.StageMetadataGenerated, metadataPrompt(title, text),
		validator.Metadata,
		func() domain.GeneratedMetadata { return s.fallback.Metadata(text) })

	tags, _ := runStage(ctx, s, domain.StageTagsGenerated, tagsPrompt(meta, body),
		validator.Tags,
		func() string { return s.fallback.Tags(meta.Title, meta.Summary, text) })

	var social string
	if s.config.SocialEnabled {
		social, _ = runStage(ctx, s, domain.StageSocialGenerated, socialPrompt(meta, tags),
			func(out string) (string, error) {
				out = strings.TrimSpace(out)
				return out, validator.Social(out)
			},
			func() string { return s.fallback.Social(meta, tags) })
	}

	record := &domain.EnrichedRecord{
		CreatedAt:    s.now().UTC(),
		SourceURL:    item.Key(),
		SourceID:     source.ID,
		Title:        meta.Title,
		Overline:     meta.Category,
		Excerpt:      meta.Summary,
		Body:         body,
		Tags:         tags,
		SectionLabel: s.sectionLabel(source.Section),
		SocialText:   social,
		Status:       domain.RecordStatusDraft,
		Images:       extraction.Images,
	}

	s.logger.InfoContext(ctx, "record assembled",
		"stage", domain.StageAssembled,
		"item_url", record.SourceURL,
		"body_branch", bodyBranch,
		"title", record.Title)

	return record, SkipNone
}

// extractItem extracts the feed body and falls back to the item page when the
// body is too short. It reports false only when the page was needed and could not be fetched.
func (s *EnrichmentService) extractItem(ctx context.Context, item domain.FeedItem) (domain.ExtractionResult, bool) {
	result := s.extract(item.RawBody, item.URL)
	if s.sufficient(result) || s.pages == nil || item.URL == "" {
		return result, true
	}

	page, err := s.pages.FetchPage(ctx, item.URL)
	if err != nil {
		s.logger.WarnContext(ctx, "item page fetch failed", "item_url", item.URL, "error", err)
		return domain.ExtractionResult{}, false
	}

	fromPage := s.extract(page, item.URL)
	if utf8.RuneCountInString(fromPage.PlainText) < utf8.RuneCountInString(result.PlainText) {
		return result, true
	}
	return fromPage, true
}

func (s *EnrichmentService) sufficient(result domain.ExtractionResult) bool {
	return utf8.RuneCountInString(strings.TrimSpace(result.PlainText)) >= s.config.MinContentLength
}

func (s *EnrichmentService) sectionLabel(sectionID string) string {
	if s.sections == nil {
		return sectionID
	}
	return s.sections.SectionLabel(sectionID)
}

// runStage applies the validate-then-fallback protocol to one stage: generate,
// parse and validate the output, and use the fallback when either step fails.
func runStage[T any](
	ctx context.Context,
	s *EnrichmentService,
	stage domain.Stage,
	prompt string,
	accept func(string) (T, error),
	fallbackFn func() T,
) (T, domain.Branch) {
	out, err := s.generator.Generate(ctx, prompt, s.config.Options)
	if err == nil {
		value, verr := accept(out)
		if verr == nil {
			s.logStage(ctx, stage, domain.BranchAI, nil)
			return value, domain.BranchAI
		}
		err = verr
	}

	s.logStage(ctx, stage, domain.BranchFallback, err)
	return fallbackFn(), domain.BranchFallback
}

func (s *EnrichmentService) logStage(ctx context.Context, stage domain.Stage, branch domain.Branch, reason error) {
	metrics.RecordStage(string(stage), string(branch))
	if reason != nil {
		s.logger.InfoContext(ctx, "stage completed",
			"stage", stage,
			"branch", branch,
			"reason", reason.Error())
		return
	}
	s.logger.InfoContext(ctx, "stage completed", "stage", stage, "branch", branch)
}

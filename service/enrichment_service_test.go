package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"feed-enricher/domain"
	"feed-enricher/fallback"
	"feed-enricher/repository"
	"feed-enricher/test/mocks"
	"feed-enricher/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

const articleText = `The city council approved a new budget for public hospitals on Tuesday night.

The budget adds funding for three hospital wings and hires forty doctors. Patients will see shorter waiting lists within a year.

Opposition members questioned the financing of the hospital plan. The vote passed eleven to four.`

func repeatWords(n int) string {
	return strings.TrimSpace(strings.Repeat("budget ", n))
}

// plainExtract treats the raw body as already-extracted text.
func plainExtract(raw, _ string) domain.ExtractionResult {
	return domain.ExtractionResult{PlainText: raw}
}

type staticSections map[string]string

func (s staticSections) SectionLabel(id string) string {
	if label, ok := s[id]; ok {
		return label
	}
	return id
}

// routedGenerator answers each stage prompt with a canned output keyed by a prompt fragment.
type routedGenerator struct {
	mu      sync.Mutex
	routes  map[string]string
	failAll bool
	calls   int
}

func (g *routedGenerator) Generate(_ context.Context, prompt string, _ domain.GenerationOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.failAll {
		return "", domain.ErrGenerationDisabled
	}
	for fragment, out := range g.routes {
		if strings.Contains(prompt, fragment) {
			return out, nil
		}
	}
	return "", errors.New("no route")
}

const (
	routeBody     = "rewriting a news article"
	routeMetadata = "exactly three lines"
	routeTags     = "comma-separated line"
	routeSocial   = "social media post"
)

func validAIBody() string {
	return "## Hospitals get more money\n\n" + repeatWords(150) + "\n\n- **Three wings** open\n- **Forty doctors** hired\n\n## What comes next\n\n**Waiting lists** shrink. " + repeatWords(120)
}

func validAIMetadata() string {
	return "TITLE: Council funds hospitals\nSUMMARY: " + repeatWords(45) + "\nCATEGORY: Health"
}

func testFallback() *fallback.Generator {
	return fallback.New(fallback.WithDetector(fallback.FixedLanguage(fallback.English)))
}

func newTestService(gen *routedGenerator, pages *mocks.MockPageRepository, social bool) *EnrichmentService {
	var pageRepo repository.PageRepository
	if pages != nil {
		pageRepo = pages
	}
	svc := NewEnrichmentService(
		gen,
		pageRepo,
		testFallback(),
		plainExtract,
		staticSections{"local": "Local News"},
		EnrichmentConfig{MinContentLength: 50, SocialEnabled: social},
		testLogger(),
	)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc
}

var testSource = domain.Source{ID: "city", URL: "https://feeds.example.com/city.xml", Section: "local"}

func TestEnrich_AllStagesFromAI(t *testing.T) {
	gen := &routedGenerator{routes: map[string]string{
		routeBody:     validAIBody(),
		routeMetadata: validAIMetadata(),
		routeTags:     "Hospitals, Budget, City Council",
		routeSocial:   strings.Repeat("Council backs hospital plan. ", 10),
	}}
	svc := newTestService(gen, nil, true)

	record, reason := svc.Enrich(context.Background(), testSource, domain.FeedItem{
		URL:     "https://example.com/budget",
		Title:   "Budget vote",
		RawBody: articleText,
	})

	require.NotNil(t, record)
	assert.Equal(t, SkipNone, reason)
	assert.Equal(t, 4, gen.calls)
	assert.Equal(t, "Council funds hospitals", record.Title)
	assert.Equal(t, "Health", record.Overline)
	assert.Equal(t, "Hospitals, Budget, City Council", record.Tags)
	assert.Equal(t, "Local News", record.SectionLabel)
	assert.Equal(t, domain.RecordStatusDraft, record.Status)
	assert.Equal(t, "https://example.com/budget", record.SourceURL)
	assert.Equal(t, "city", record.SourceID)
	assert.NoError(t, validator.Social(record.SocialText))
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), record.CreatedAt)
}

func TestEnrich_InvalidBodyFallsBack(t *testing.T) {
	tests := map[string]struct {
		aiBody string
	}{
		"no heading": {
			aiBody: repeatWords(300) + "\n\n- a list item",
		},
		"single heading without emphasis": {
			aiBody: "## Only heading\n\n" + repeatWords(300) + "\n\n- one item",
		},
		"too short": {
			aiBody: "## One\n\n**a** **b** **c**\n\n- item\n\n## Two",
		},
	}

	want := testFallback().Body(articleText, nil)

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			gen := &routedGenerator{routes: map[string]string{
				routeBody:     tc.aiBody,
				routeMetadata: validAIMetadata(),
				routeTags:     "Hospitals, Budget, City Council",
			}}
			svc := newTestService(gen, nil, false)

			record, reason := svc.Enrich(context.Background(), testSource, domain.FeedItem{URL: "https://example.com/a", RawBody: articleText})

			require.NotNil(t, record)
			assert.Equal(t, SkipNone, reason)
			assert.Equal(t, want, record.Body)
			assert.Equal(t, "Council funds hospitals", record.Title, "metadata stage is independent of the body stage")
			assert.Empty(t, record.SocialText)
		})
	}
}

func TestEnrich_GenerationDisabledUsesFallbacks(t *testing.T) {
	gen := &routedGenerator{failAll: true}
	svc := newTestService(gen, nil, true)

	record, reason := svc.Enrich(context.Background(), testSource, domain.FeedItem{URL: "https://example.com/a", RawBody: articleText})

	require.NotNil(t, record)
	assert.Equal(t, SkipNone, reason)
	assert.Equal(t, 4, gen.calls)

	fb := testFallback()
	meta := fb.Metadata(articleText)
	tags := fb.Tags(meta.Title, meta.Summary, articleText)
	assert.Equal(t, meta.Title, record.Title)
	assert.Equal(t, meta.Summary, record.Excerpt)
	assert.Equal(t, meta.Category, record.Overline)
	assert.Equal(t, "Health", record.Overline)
	assert.Equal(t, tags, record.Tags)
	assert.Equal(t, fb.Social(meta, tags), record.SocialText)
	assert.Equal(t, fb.Body(articleText, nil), record.Body)
}

func TestEnrich_InsufficientContentSkipsWithoutGeneration(t *testing.T) {
	ctrl := gomock.NewController(t)
	gen := mocks.NewMockGenerator(ctrl)

	svc := NewEnrichmentService(gen, nil, testFallback(), plainExtract, nil,
		EnrichmentConfig{MinContentLength: 50}, testLogger())

	record, reason := svc.Enrich(context.Background(), testSource, domain.FeedItem{ID: "x", RawBody: "ten chars!"})

	assert.Nil(t, record)
	assert.Equal(t, SkipInsufficient, reason)
}

func TestEnrich_ShortBodyFetchesPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	pages := mocks.NewMockPageRepository(ctrl)
	pages.EXPECT().
		FetchPage(gomock.Any(), "https://example.com/full").
		Return(articleText, nil)

	svc := newTestService(&routedGenerator{failAll: true}, pages, false)

	record, reason := svc.Enrich(context.Background(), testSource, domain.FeedItem{
		URL:     "https://example.com/full",
		RawBody: "Teaser only.",
	})

	require.NotNil(t, record)
	assert.Equal(t, SkipNone, reason)
	assert.Contains(t, record.Body, "hospital")
}

func TestEnrich_PageFetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	pages := mocks.NewMockPageRepository(ctrl)
	pages.EXPECT().
		FetchPage(gomock.Any(), gomock.Any()).
		Return("", domain.ErrFetchFailure)

	gen := &routedGenerator{failAll: true}
	svc := newTestService(gen, pages, false)

	record, reason := svc.Enrich(context.Background(), testSource, domain.FeedItem{
		URL:     "https://example.com/gone",
		RawBody: "Teaser only.",
	})

	assert.Nil(t, record)
	assert.Equal(t, SkipFetchFailed, reason)
	assert.Zero(t, gen.calls)
}

func TestEnrich_SufficientBodySkipsPageFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	pages := mocks.NewMockPageRepository(ctrl)
	pages.EXPECT().FetchPage(gomock.Any(), gomock.Any()).Times(0)

	svc := newTestService(&routedGenerator{failAll: true}, pages, false)

	record, reason := svc.Enrich(context.Background(), testSource, domain.FeedItem{URL: "https://example.com/a", RawBody: articleText})

	require.NotNil(t, record)
	assert.Equal(t, SkipNone, reason)
}

func TestEnrich_AIBodyGetsImageAnnotations(t *testing.T) {
	gen := &routedGenerator{routes: map[string]string{routeBody: validAIBody()}}
	svc := NewEnrichmentService(gen, nil,
		testFallback(),
		func(raw, _ string) domain.ExtractionResult {
			return domain.ExtractionResult{
				PlainText: raw,
				Images:    []domain.Image{{URL: "https://example.com/wing.jpg", Caption: "New wing"}},
			}
		},
		nil, EnrichmentConfig{}, testLogger())

	record, _ := svc.Enrich(context.Background(), testSource, domain.FeedItem{URL: "https://example.com/a", RawBody: articleText})

	require.NotNil(t, record)
	assert.Contains(t, record.Body, fallback.ImageAnnotation(domain.Image{URL: "https://example.com/wing.jpg", Caption: "New wing"}))
	assert.Equal(t, "local", record.SectionLabel)
}

package domain

import (
	"time"
)

// RecordStatusDraft is the only status the pipeline assigns to records.
const RecordStatusDraft = "draft"

// Image is an extracted image with its caption, in document order.
type Image struct {
	URL     string `json:"url"`
	AltText string `json:"alt_text,omitempty"`
	Caption string `json:"caption,omitempty"`
}

// ExtractionResult is the output of the content extractor.
type ExtractionResult struct {
	PlainText string  `json:"plain_text"`
	Images    []Image `json:"images"`
}

// GeneratedMetadata holds the title, summary and category of an item.
type GeneratedMetadata struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// EnrichedRecord is the assembled output for one feed item.
type EnrichedRecord struct {
	CreatedAt    time.Time `json:"created_at"`
	SourceURL    string    `json:"source_url"`
	SourceID     string    `json:"source_id"`
	Title        string    `json:"title"`
	Overline     string    `json:"overline"`
	Excerpt      string    `json:"excerpt"`
	Body         string    `json:"body"`
	Tags         string    `json:"tags"`
	SectionLabel string    `json:"section_label"`
	SocialText   string    `json:"social_text,omitempty"`
	Status       string    `json:"status"`
	Images       []Image   `json:"images"`
}

// GenerationOptions controls a single call to the generation capability.
type GenerationOptions struct {
	MaxRetries  int     `json:"max_retries"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Stage names a step of the per-item enrichment state machine.
type Stage string

const (
	StageFetched           Stage = "fetched"
	StageExtracted         Stage = "extracted"
	StageBodyRewritten     Stage = "body_rewritten"
	StageMetadataGenerated Stage = "metadata_generated"
	StageTagsGenerated     Stage = "tags_generated"
	StageSocialGenerated   Stage = "social_generated"
	StageAssembled         Stage = "assembled"
	StagePublished         Stage = "published"
	StageSkipped           Stage = "skipped"
)

// Branch records whether a stage output came from the AI or from a fallback.
type Branch string

const (
	BranchAI       Branch = "ai"
	BranchFallback Branch = "fallback"
)

package html_parser

import (
	stdhtml "html"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"feed-enricher/domain"
)

const minReadableLength = 200

// Extract returns the readable text and the captioned images of raw item markup.
// pageURL resolves relative image sources and may be empty.
func Extract(raw, pageURL string) domain.ExtractionResult {
	return domain.ExtractionResult{
		PlainText: ExtractArticleText(raw),
		Images:    ExtractImages(raw, pageURL),
	}
}

// ExtractArticleText converts raw article HTML into plain text paragraphs separated by blank lines.
// Parse failures and empty documents yield an empty string.
func ExtractArticleText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if !strings.Contains(trimmed, "<") {
		return normalizeParagraphs(trimmed)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return ""
	}
	preClean(doc)

	cleaned, err := doc.Html()
	if err != nil || strings.TrimSpace(cleaned) == "" {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(cleaned), nil)
	if err == nil {
		var textBuf strings.Builder
		if err := article.RenderText(&textBuf); err == nil && len(strings.TrimSpace(textBuf.String())) >= minReadableLength {
			var htmlBuf strings.Builder
			if err := article.RenderHTML(&htmlBuf); err == nil {
				if text := extractParagraphs(htmlBuf.String()); text != "" {
					return text
				}
			}
			return normalizeParagraphs(textBuf.String())
		}
	}

	// Readability keeps only a title or nothing on short pages; read the blocks directly.
	return extractParagraphs(cleaned)
}

// preClean drops elements that never carry article prose.
func preClean(doc *goquery.Document) {
	doc.Find("head, script, style, noscript, template, aside, nav, header, footer, form").Remove()
	doc.Find("iframe, embed, object, video, audio, canvas, svg").Remove()
	doc.Find("figcaption, [class*='caption']").Remove()
	doc.Find("[class*='social'], [class*='share'], [id*='social'], [id*='share']").Remove()
	doc.Find("[class*='comment'], [id*='comment'], [class*='related'], [class*='newsletter']").Remove()
	doc.Find("[class*='advert'], [id*='advert'], [class*='banner'], [class*='promo']").Remove()
}

// extractParagraphs walks block elements in document order.
func extractParagraphs(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return StripTags(html)
	}

	var paragraphs []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, blockquote, pre").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("p, li, blockquote, pre").Length() > 0 {
			return
		}
		if text := normalizeWhitespace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) == 0 {
		return StripTags(html)
	}
	return strings.Join(paragraphs, "\n\n")
}

// StripTags removes HTML tags from a string and returns plain text.
func StripTags(raw string) string {
	return normalizeWhitespace(stdhtml.UnescapeString(bluemonday.StrictPolicy().Sanitize(raw)))
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeParagraphs collapses whitespace inside paragraphs and keeps blank-line breaks.
func normalizeParagraphs(s string) string {
	blocks := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n\n")
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if text := normalizeWhitespace(b); text != "" {
			out = append(out, text)
		}
	}
	return strings.Join(out, "\n\n")
}

// ExtractTitle returns the <title>, og:title or first <h1> text, in that order.
func ExtractTitle(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}

	if title := normalizeWhitespace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find("meta[property='og:title']").First().Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	return normalizeWhitespace(doc.Find("h1").First().Text())
}

func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

package fallback

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"feed-enricher/domain"
)

const (
	// TitleLimit caps fallback titles.
	TitleLimit = 80
	// SummaryLimit caps fallback summaries.
	SummaryLimit = 250
	// SocialLimit caps the social text.
	SocialLimit = 500

	minTitleSentence = 20
	defaultTagCount  = 6
	maxListItems     = 4
	listItemWords    = 14
	leadWords        = 6
)

// Generator produces deterministic substitutes for every AI-backed stage.
type Generator struct {
	detector LanguageDetector
	tagCount int
}

// Option configures a Generator.
type Option func(*Generator)

// WithDetector replaces the language detector.
func WithDetector(d LanguageDetector) Option {
	return func(g *Generator) { g.detector = d }
}

// WithTagCount sets how many tags Tags returns.
func WithTagCount(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.tagCount = n
		}
	}
}

// New returns a Generator that detects English or Spanish with lingua.
func New(opts ...Option) *Generator {
	g := &Generator{
		detector: NewLinguaDetector(English),
		tagCount: defaultTagCount,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Metadata derives title, summary and category from extracted text.
func (g *Generator) Metadata(text string) domain.GeneratedMetadata {
	lang := g.detector.Detect(text)
	paragraphs := SplitParagraphs(text)

	return domain.GeneratedMetadata{
		Title:    fallbackTitle(text),
		Summary:  fallbackSummary(paragraphs, lang),
		Category: Category(text),
	}
}

func fallbackTitle(text string) string {
	sentences := SplitSentences(text)
	for _, s := range sentences {
		if utf8.RuneCountInString(s) >= minTitleSentence {
			return Truncate(strings.TrimRight(s, "."), TitleLimit)
		}
	}
	return Truncate(collapse(text), TitleLimit)
}

func fallbackSummary(paragraphs []string, lang Language) string {
	if len(paragraphs) == 0 {
		return ""
	}

	candidates := paragraphs
	if len(paragraphs) > 1 {
		candidates = paragraphs[1:]
	}

	chosen := candidates[0]
	for _, p := range candidates {
		if !startsWithReportingVerb(p, lang) {
			chosen = p
			break
		}
	}
	return TruncateWithEllipsis(chosen, SummaryLimit)
}

func startsWithReportingVerb(paragraph string, lang Language) bool {
	words := Words(strings.ToLower(paragraph))
	if len(words) == 0 {
		return false
	}
	return reportingVerbs[lang][words[0]]
}

// Tags ranks non-stop words of title, summary and body by frequency and returns the top ones
// capitalized and comma-joined. Ties keep first-occurrence order.
func (g *Generator) Tags(title, summary, body string) string {
	combined := strings.Join([]string{title, summary, body}, "\n")
	return strings.Join(topKeywords(combined, g.detector.Detect(combined), g.tagCount), ", ")
}

type keywordCount struct {
	word  string
	count int
	first int
}

func topKeywords(text string, lang Language, n int) []string {
	counts := make(map[string]*keywordCount)
	for i, raw := range Words(strings.ToLower(text)) {
		w := strings.Trim(raw, "'’")
		if utf8.RuneCountInString(w) < 4 || isNumeric(w) || isStopWord(lang, w) {
			continue
		}
		if kc, ok := counts[w]; ok {
			kc.count++
			continue
		}
		counts[w] = &keywordCount{word: w, count: 1, first: i}
	}

	ranked := make([]*keywordCount, 0, len(counts))
	for _, kc := range counts {
		ranked = append(ranked, kc)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	out := make([]string, 0, n)
	for _, kc := range ranked {
		if len(out) == n {
			break
		}
		out = append(out, capitalize(kc.word))
	}
	return out
}

func isNumeric(w string) bool {
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Social builds a short text from a topic emoji, the truncated summary and hashtags from tags.
// The result never exceeds SocialLimit runes.
func (g *Generator) Social(meta domain.GeneratedMetadata, tags string) string {
	summary := meta.Summary
	if summary == "" {
		summary = meta.Title
	}
	head := EmojiFor(meta.Category) + " " + TruncateWithEllipsis(summary, 280)

	hashtags := Hashtags(tags)
	for len(hashtags) > 0 {
		text := head + "\n\n" + strings.Join(hashtags, " ")
		if utf8.RuneCountInString(text) <= SocialLimit {
			return text
		}
		hashtags = hashtags[:len(hashtags)-1]
	}
	return TruncateWithEllipsis(head, SocialLimit)
}

// Hashtags converts a comma-joined tag list into CamelCase hashtags.
func Hashtags(tags string) []string {
	var out []string
	for _, tag := range strings.Split(tags, ",") {
		var b strings.Builder
		for _, w := range Words(tag) {
			b.WriteString(capitalize(strings.ToLower(w)))
		}
		if b.Len() > 0 {
			out = append(out, "#"+b.String())
		}
	}
	return out
}

// Body renders text as markdown with two synthetic section headings, one bulleted list built from
// sentence fragments, emphasized lead phrases and the image annotations spread across paragraphs.
func (g *Generator) Body(text string, images []domain.Image) string {
	paragraphs := SplitParagraphs(text)
	if len(paragraphs) == 0 {
		paragraphs = []string{collapse(text)}
	}
	lang := g.detector.Detect(text)
	lbl := labelsFor(lang)
	keywords := topKeywords(text, lang, 3)

	n := len(paragraphs)
	first := max(1, (n+1)/3)
	second := max(first+1, (2*n+1)/3)

	placements := imagePlacements(n, len(images))

	var blocks []string
	emitFirst := func() {
		blocks = append(blocks, "## "+heading(lbl.keyFacts, lbl.keyFactsOnly, keywords, 0))
		blocks = append(blocks, bulletList(text))
	}
	emitSecond := func() {
		blocks = append(blocks, "## "+heading(lbl.context, lbl.contextOnly, keywords, 1))
	}

	for i, p := range paragraphs {
		if i == first {
			emitFirst()
		}
		if i == second {
			emitSecond()
		}
		if i == 0 {
			p = emphasizeLead(p)
		}
		blocks = append(blocks, p)
		for _, idx := range placements[i] {
			blocks = append(blocks, ImageAnnotation(images[idx]))
		}
	}
	if first >= n {
		emitFirst()
	}
	if second >= n {
		emitSecond()
	}

	blocks = append(blocks, fmt.Sprintf("**%s** %s", lbl.inBrief, Truncate(firstSentence(text), 160)))

	return strings.Join(blocks, "\n\n")
}

// ImageAnnotation renders an image as an inline markdown image followed by its italic caption.
func ImageAnnotation(img domain.Image) string {
	alt := img.AltText
	if alt == "" {
		alt = img.Caption
	}
	return fmt.Sprintf("![%s](%s)\n*%s*", alt, img.URL, img.Caption)
}

// imagePlacements spreads k images evenly after n paragraphs.
func imagePlacements(n, k int) map[int][]int {
	placements := make(map[int][]int, k)
	for j := 0; j < k; j++ {
		after := (j+1)*n/(k+1) - 1
		after = min(max(after, 0), n-1)
		placements[after] = append(placements[after], j)
	}
	return placements
}

func heading(withKeyword, plain string, keywords []string, idx int) string {
	if idx < len(keywords) {
		return fmt.Sprintf(withKeyword, keywords[idx])
	}
	return plain
}

func emphasizeLead(p string) string {
	head, rest := firstWords(p, leadWords)
	if head == "" {
		return p
	}
	if rest == "" {
		return "**" + head + "**"
	}
	return "**" + head + "** " + rest
}

// bulletList builds up to maxListItems bullets from sentence fragments, each with an emphasized lead.
func bulletList(text string) string {
	fragments := listFragments(text)
	items := make([]string, 0, len(fragments))
	for _, f := range fragments {
		head, rest := firstWords(f, 3)
		item := "- **" + head + "**"
		if rest != "" {
			item += " " + rest
		}
		items = append(items, item)
	}
	return strings.Join(items, "\n")
}

func listFragments(text string) []string {
	sentences := SplitSentences(text)
	if len(sentences) > 1 {
		sentences = sentences[1:]
	}

	var fragments []string
	for _, s := range sentences {
		for _, clause := range strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ':' }) {
			head, _ := firstWords(strings.Trim(clause, " ,.;:"), listItemWords)
			if WordCount(head) >= 3 {
				fragments = append(fragments, head)
			}
			if len(fragments) == maxListItems {
				return fragments
			}
		}
	}

	if len(fragments) == 0 {
		head, _ := firstWords(collapse(text), listItemWords)
		fragments = append(fragments, head)
	}
	return fragments
}

func firstSentence(text string) string {
	if sentences := SplitSentences(text); len(sentences) > 0 {
		return sentences[0]
	}
	return collapse(text)
}

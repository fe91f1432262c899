package fallback

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-enricher/domain"
)

var (
	headingLine  = regexp.MustCompile(`(?m)^#{1,6} \S`)
	listLine     = regexp.MustCompile(`(?m)^- \S`)
	emphasisSpan = regexp.MustCompile(`\*\*[^*]+\*\*`)
)

func newTestGenerator() *Generator {
	return New(WithDetector(FixedLanguage(English)))
}

const article = `The city council approved a new budget for public hospitals on Tuesday night.

Said the mayor in a statement that the plan would take effect next month.

The budget adds funding for three hospital wings and hires forty doctors. Patients will see shorter waiting lists; the health ministry expects a measurable change within a year.

Opposition members questioned the financing of the hospital plan. The vote passed eleven to four.`

func TestMetadata(t *testing.T) {
	meta := newTestGenerator().Metadata(article)

	assert.Equal(t, "The city council approved a new budget for public hospitals on Tuesday night", meta.Title)
	assert.True(t, strings.HasPrefix(meta.Summary, "The budget adds funding"), "summary should skip the reporting-verb paragraph: %q", meta.Summary)
	assert.LessOrEqual(t, utf8.RuneCountInString(meta.Summary), SummaryLimit)
	assert.Equal(t, "Health", meta.Category)
}

func TestMetadata_TitleTruncation(t *testing.T) {
	long := strings.Repeat("Extraordinarily ", 12) + "long opening sentence. Second."
	meta := newTestGenerator().Metadata(long)

	assert.LessOrEqual(t, utf8.RuneCountInString(meta.Title), TitleLimit)
	assert.NotEmpty(t, meta.Title)
}

func TestMetadata_ShortFirstSentenceSkipped(t *testing.T) {
	meta := newTestGenerator().Metadata("Breaking. The provincial government confirmed the new rail line will open in March.")
	assert.Equal(t, "The provincial government confirmed the new rail line will open in March", meta.Title)
}

func TestCategory(t *testing.T) {
	tests := map[string]struct {
		text     string
		expected string
	}{
		"sport":      {text: "The coach praised the player after the match and the goal in the league final", expected: "Sport"},
		"economy es": {text: "La inflación y el dólar marcaron el mercado; los precios subieron", expected: "Economy"},
		"agriculture": {text: "Farmers expect a record wheat harvest while soybean and corn crop prices hold", expected: "Agriculture"},
		"no match":   {text: "A quiet afternoon in the neighbourhood", expected: DefaultCategory},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Category(tc.text))
		})
	}
}

func TestTags(t *testing.T) {
	tags := newTestGenerator().Tags("Hospital budget approved", "Council funds hospital wings", article)

	parts := strings.Split(tags, ", ")
	require.NotEmpty(t, parts)
	assert.LessOrEqual(t, len(parts), defaultTagCount)
	assert.Equal(t, "Hospital", parts[0])
	for _, p := range parts {
		assert.Equal(t, strings.ToUpper(p[:1]), p[:1])
		assert.NotContains(t, []string{"The", "That", "With"}, p)
	}
}

func TestTags_TieKeepsFirstOccurrence(t *testing.T) {
	g := New(WithDetector(FixedLanguage(English)), WithTagCount(2))
	assert.Equal(t, "Alpha, Bravo", g.Tags("alpha bravo charlie", "", ""))
}

func TestSocial(t *testing.T) {
	g := newTestGenerator()

	t.Run("combines emoji summary and hashtags", func(t *testing.T) {
		text := g.Social(domain.GeneratedMetadata{Title: "T", Summary: "Short summary.", Category: "Sport"}, "World Cup, Final")
		assert.Equal(t, "⚽ Short summary.\n\n#WorldCup #Final", text)
	})

	t.Run("hard cap", func(t *testing.T) {
		tags := strings.Repeat("Verylongtagname, ", 60)
		text := g.Social(domain.GeneratedMetadata{Summary: strings.Repeat("word ", 200), Category: "Unknown"}, tags)
		assert.LessOrEqual(t, utf8.RuneCountInString(text), SocialLimit)
		assert.True(t, strings.HasPrefix(text, "📰 "))
	})
}

func TestBody_FormatGuarantees(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	vocabulary := strings.Fields("council budget hospital river bridge market school festival harvest tourism transport police court water energy")
	g := newTestGenerator()

	for trial := 0; trial < 200; trial++ {
		paragraphs := make([]string, 1+rng.Intn(12))
		for i := range paragraphs {
			sentences := make([]string, 1+rng.Intn(5))
			for s := range sentences {
				words := make([]string, 3+rng.Intn(15))
				for w := range words {
					words[w] = vocabulary[rng.Intn(len(vocabulary))]
				}
				sentences[s] = capitalize(strings.Join(words, " ")) + "."
			}
			paragraphs[i] = strings.Join(sentences, " ")
		}
		text := strings.Join(paragraphs, "\n\n")
		if len(text) < 50 {
			continue
		}

		body := g.Body(text, nil)

		assert.GreaterOrEqual(t, len(headingLine.FindAllString(body, -1)), 2, "trial %d", trial)
		assert.GreaterOrEqual(t, len(listLine.FindAllString(body, -1)), 1, "trial %d", trial)
		assert.GreaterOrEqual(t, len(emphasisSpan.FindAllString(body, -1)), 3, "trial %d", trial)
	}
}

func TestBody_SingleLongWord(t *testing.T) {
	body := newTestGenerator().Body(strings.Repeat("x", 60), nil)

	assert.Len(t, headingLine.FindAllString(body, -1), 2)
	assert.Len(t, listLine.FindAllString(body, -1), 1)
	assert.GreaterOrEqual(t, len(emphasisSpan.FindAllString(body, -1)), 3)
}

func TestBody_InterleavesImagesInOrder(t *testing.T) {
	images := []domain.Image{
		{URL: "https://cdn.example.com/a.jpg", Caption: "Caption A"},
		{URL: "https://cdn.example.com/b.jpg", AltText: "B alt", Caption: "Caption B"},
	}

	body := newTestGenerator().Body(article, images)

	a := strings.Index(body, "![Caption A](https://cdn.example.com/a.jpg)\n*Caption A*")
	b := strings.Index(body, "![B alt](https://cdn.example.com/b.jpg)\n*Caption B*")
	require.NotEqual(t, -1, a)
	require.NotEqual(t, -1, b)
	assert.Less(t, a, b)
}

func TestImagePlacements(t *testing.T) {
	assert.Equal(t, map[int][]int{1: {0}, 3: {1}}, imagePlacements(6, 2))
	assert.Equal(t, map[int][]int{0: {0, 1, 2}}, imagePlacements(1, 3))
	assert.Empty(t, imagePlacements(4, 0))
}

func TestLinguaDetector(t *testing.T) {
	d := NewLinguaDetector(English)
	assert.Equal(t, Spanish, d.Detect("El gobierno provincial anunció hoy que las obras de la nueva ruta comenzarán en marzo"))
	assert.Equal(t, English, d.Detect("The provincial government announced today that work on the new road will begin in March"))
}

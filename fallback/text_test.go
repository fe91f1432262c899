package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSentences(t *testing.T) {
	tests := map[string]struct {
		text     string
		expected []string
	}{
		"basic":        {text: "One. Two! Three?", expected: []string{"One.", "Two!", "Three?"}},
		"quotes":       {text: `He said "yes." Then left.`, expected: []string{`He said "yes."`, "Then left."}},
		"no terminal":  {text: "no punctuation here", expected: []string{"no punctuation here"}},
		"empty":        {text: "  ", expected: nil},
		"newlines":     {text: "First line.\nSecond line.", expected: []string{"First line.", "Second line."}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SplitSentences(tc.text))
		})
	}
}

func TestSplitParagraphs(t *testing.T) {
	assert.Equal(t, []string{"A b.", "C d."}, SplitParagraphs("A  b.\n\n\n  C d.  "))
	assert.Equal(t, []string{"S1. S2. S3.", "S4. S5."}, SplitParagraphs("S1. S2. S3. S4. S5."))
	assert.Empty(t, SplitParagraphs(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "hello big", Truncate("hello big world", 12))
	assert.Equal(t, "añoñañoña", Truncate("añoñañoñañoña", 9))
	assert.Equal(t, "", Truncate("x", 0))
	assert.Equal(t, "hello big…", TruncateWithEllipsis("hello big world", 12))
}

func TestTruncate_WordBoundaryCountsRunes(t *testing.T) {
	tests := map[string]struct {
		text     string
		limit    int
		expected string
	}{
		"early space in accented text is kept": {text: "ñññ ññññññññ", limit: 10, expected: "ñññ ññññññ"},
		"early space after emoji is kept":      {text: "🎉🎉 abcdefgh", limit: 8, expected: "🎉🎉 abcde"},
		"late space in accented text cuts":     {text: "ñññññññ ñññññ", limit: 10, expected: "ñññññññ"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Truncate(tc.text, tc.limit))
		})
	}
}

func TestHashtags(t *testing.T) {
	assert.Equal(t, []string{"#WorldCup", "#Final"}, Hashtags("world cup, Final,  "))
	assert.Empty(t, Hashtags(""))
}

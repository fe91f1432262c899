package fallback

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const sentencesPerParagraph = 3

var (
	sentenceEnd = regexp.MustCompile(`([.!?…]+["'”»)]*)\s+`)
	blankLines  = regexp.MustCompile(`\n\s*\n`)
)

// SplitParagraphs splits text on blank lines. A single long block is regrouped into paragraphs of
// a few sentences so that headings and images have somewhere to go.
func SplitParagraphs(text string) []string {
	var paragraphs []string
	for _, block := range blankLines.Split(strings.TrimSpace(text), -1) {
		if p := collapse(block); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	if len(paragraphs) != 1 {
		return paragraphs
	}

	sentences := SplitSentences(paragraphs[0])
	if len(sentences) <= sentencesPerParagraph {
		return paragraphs
	}
	regrouped := make([]string, 0, len(sentences)/sentencesPerParagraph+1)
	for i := 0; i < len(sentences); i += sentencesPerParagraph {
		end := min(i+sentencesPerParagraph, len(sentences))
		regrouped = append(regrouped, strings.Join(sentences[i:end], " "))
	}
	return regrouped
}

// SplitSentences splits text after terminal punctuation followed by whitespace.
func SplitSentences(text string) []string {
	text = collapse(text)
	if text == "" {
		return nil
	}
	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// Truncate shortens s to at most limit runes, cutting at a word boundary when one is available.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)[:limit]
	for i := len(runes) - 1; i > limit/2; i-- {
		if unicode.IsSpace(runes[i]) {
			runes = runes[:i]
			break
		}
	}
	return strings.TrimRightFunc(string(runes), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}

// TruncateWithEllipsis is Truncate plus a trailing ellipsis when text was removed, within limit runes.
func TruncateWithEllipsis(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return Truncate(s, limit-1) + "…"
}

// Words splits text into letter/digit tokens.
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '’'
	})
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}

func firstWords(s string, n int) (head, rest string) {
	fields := strings.Fields(s)
	if len(fields) <= n {
		return strings.Join(fields, " "), ""
	}
	return strings.Join(fields[:n], " "), strings.Join(fields[n:], " ")
}

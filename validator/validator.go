// ABOUTME: Format validators that gate AI output before it may reach a record
// ABOUTME: A failed check means the caller discards the output and uses the fallback
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"feed-enricher/domain"
)

const (
	BodyMinWords     = 250
	BodyMaxWords     = 600
	BodyMinHeadings  = 2
	BodyMinEmphasis  = 3
	TitleMaxChars    = 80
	SummaryMinWords  = 40
	SummaryMaxWords  = 50
	CategoryMaxWords = 4
	SocialMinChars   = 250
	SocialMaxChars   = 500
	MinTags          = 3
	MaxTags          = 10
	TagMaxWords      = 4
)

var (
	ErrMissingHeading  = errors.New("too few heading markers")
	ErrMissingList     = errors.New("no list marker")
	ErrMissingEmphasis = errors.New("too few emphasized phrases")
	ErrWordCount       = errors.New("word count out of range")
	ErrMissingField    = errors.New("missing field")
	ErrFieldLength     = errors.New("field length out of range")
	ErrNotProse        = errors.New("not prose")
	ErrTagCount        = errors.New("tag count out of range")
)

var (
	headingMarker = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s+\S`)
	listMarker    = regexp.MustCompile(`(?m)^\s{0,3}(?:[-*+]|\d+[.)])\s+\S`)
	emphasisSpan  = regexp.MustCompile(`\*\*[^*\n]+\*\*`)
	fieldLine     = regexp.MustCompile(`(?im)^\s*\**\s*(title|summary|category)\s*\**\s*:\s*\**\s*(.+?)\s*$`)
	codeFence     = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// Body holds a rewritten body to the same format as the fallback body: at least BodyMinHeadings
// headings, a list, at least BodyMinEmphasis emphasized phrases and a word count inside
// [BodyMinWords, BodyMaxWords].
func Body(text string) error {
	if n := len(headingMarker.FindAllString(text, -1)); n < BodyMinHeadings {
		return fmt.Errorf("%w: %d, want at least %d", ErrMissingHeading, n, BodyMinHeadings)
	}
	if !listMarker.MatchString(text) {
		return ErrMissingList
	}
	if n := len(emphasisSpan.FindAllString(text, -1)); n < BodyMinEmphasis {
		return fmt.Errorf("%w: %d, want at least %d", ErrMissingEmphasis, n, BodyMinEmphasis)
	}
	if n := len(strings.Fields(text)); n < BodyMinWords || n > BodyMaxWords {
		return fmt.Errorf("%w: %d words, want %d-%d", ErrWordCount, n, BodyMinWords, BodyMaxWords)
	}
	return nil
}

type metadataJSON struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// Metadata parses title, summary and category from either labelled lines or a JSON object,
// then checks each field against its length contract.
func Metadata(text string) (domain.GeneratedMetadata, error) {
	meta := parseMetadata(text)

	switch {
	case meta.Title == "":
		return meta, fmt.Errorf("%w: title", ErrMissingField)
	case meta.Summary == "":
		return meta, fmt.Errorf("%w: summary", ErrMissingField)
	case meta.Category == "":
		return meta, fmt.Errorf("%w: category", ErrMissingField)
	}

	if n := utf8.RuneCountInString(meta.Title); n > TitleMaxChars {
		return meta, fmt.Errorf("%w: title has %d chars, max %d", ErrFieldLength, n, TitleMaxChars)
	}
	if n := len(strings.Fields(meta.Summary)); n < SummaryMinWords || n > SummaryMaxWords {
		return meta, fmt.Errorf("%w: summary has %d words, want %d-%d", ErrFieldLength, n, SummaryMinWords, SummaryMaxWords)
	}
	if n := len(strings.Fields(meta.Category)); n > CategoryMaxWords {
		return meta, fmt.Errorf("%w: category has %d words, max %d", ErrFieldLength, n, CategoryMaxWords)
	}
	return meta, nil
}

func parseMetadata(text string) domain.GeneratedMetadata {
	text = stripFence(strings.TrimSpace(text))

	if strings.HasPrefix(text, "{") {
		var m metadataJSON
		if err := json.Unmarshal([]byte(text), &m); err == nil {
			return domain.GeneratedMetadata{
				Title:    cleanField(m.Title),
				Summary:  cleanField(m.Summary),
				Category: cleanField(m.Category),
			}
		}
	}

	var meta domain.GeneratedMetadata
	for _, match := range fieldLine.FindAllStringSubmatch(text, -1) {
		value := cleanField(match[2])
		switch strings.ToLower(match[1]) {
		case "title":
			if meta.Title == "" {
				meta.Title = value
			}
		case "summary":
			if meta.Summary == "" {
				meta.Summary = value
			}
		case "category":
			if meta.Category == "" {
				meta.Category = value
			}
		}
	}
	return meta
}

// Tags parses a comma-separated tag list and returns it normalized as "A, B, C".
func Tags(text string) (string, error) {
	text = stripFence(strings.TrimSpace(text))
	if i := strings.LastIndex(text, ":"); i >= 0 && i < 20 {
		text = text[i+1:]
	}

	var tags []string
	seen := make(map[string]bool)
	for _, raw := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' }) {
		tag := cleanField(strings.TrimLeft(strings.TrimSpace(raw), "-*#0123456789. "))
		if tag == "" || seen[strings.ToLower(tag)] {
			continue
		}
		if len(strings.Fields(tag)) > TagMaxWords {
			return "", fmt.Errorf("%w: tag %q has more than %d words", ErrFieldLength, tag, TagMaxWords)
		}
		seen[strings.ToLower(tag)] = true
		tags = append(tags, tag)
	}

	if len(tags) < MinTags || len(tags) > MaxTags {
		return "", fmt.Errorf("%w: %d tags, want %d-%d", ErrTagCount, len(tags), MinTags, MaxTags)
	}
	return strings.Join(tags, ", "), nil
}

// Social checks that a social text is prose of at least SocialMinChars and at most SocialMaxChars.
func Social(text string) error {
	text = strings.TrimSpace(text)
	if headingMarker.MatchString(text) || listMarker.MatchString(text) {
		return ErrNotProse
	}
	if n := utf8.RuneCountInString(text); n < SocialMinChars || n > SocialMaxChars {
		return fmt.Errorf("%w: social text has %d chars, want %d-%d", ErrFieldLength, n, SocialMinChars, SocialMaxChars)
	}
	return nil
}

func stripFence(text string) string {
	if m := codeFence.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `*"'“”`)
	return strings.Join(strings.Fields(s), " ")
}

package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer removes HTML that a language model sometimes emits around markdown.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// StripMarkup drops every HTML tag and keeps the text and markdown untouched.
func (s *Sanitizer) StripMarkup(text string) string {
	if !strings.Contains(text, "<") {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}

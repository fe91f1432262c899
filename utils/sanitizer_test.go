package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizer_StripMarkup(t *testing.T) {
	s := NewSanitizer()

	tests := map[string]struct {
		input string
		want  string
	}{
		"plain markdown untouched": {
			input: "## Heading\n\n- **item** & more",
			want:  "## Heading\n\n- **item** & more",
		},
		"tags removed": {
			input: "<p>Hello <b>world</b></p>",
			want:  "Hello world",
		},
		"entities restored": {
			input: "<span>AT&T \"quoted\"</span>",
			want:  "AT&T \"quoted\"",
		},
		"script dropped": {
			input: "text<script>alert(1)</script>",
			want:  "text",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.StripMarkup(tc.input))
		})
	}
}

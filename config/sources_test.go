package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-enricher/domain"
)

const sampleSources = `
sources:
  - id: local
    url: https://example.com/local/feed.json
    section: local-news
  - id: sport
    url: https://example.com/sport/feed.json
    section: sport
sections:
  local-news: "Local"
  sport: "Sports"
`

func writeSources(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSources(t *testing.T) {
	catalog, err := LoadSources(writeSources(t, sampleSources))
	require.NoError(t, err)

	sources := catalog.Sources()
	require.Len(t, sources, 2)
	assert.Equal(t, "local", sources[0].ID)
	assert.Equal(t, "sport", sources[1].ID)

	src, err := catalog.Find("sport")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/sport/feed.json", src.URL)

	assert.Equal(t, "Local", catalog.SectionLabel("local-news"))
	assert.Equal(t, "unmapped", catalog.SectionLabel("unmapped"))
}

func TestLoadSources_Errors(t *testing.T) {
	tests := map[string]struct {
		content  string
		errorMsg string
	}{
		"missing id": {
			content:  "sources:\n  - url: https://example.com/feed.json\n",
			errorMsg: "has no id",
		},
		"missing url": {
			content:  "sources:\n  - id: a\n",
			errorMsg: "has no url",
		},
		"id with slash": {
			content:  "sources:\n  - id: news/world\n    url: https://x\n",
			errorMsg: "may only contain",
		},
		"id with space": {
			content:  "sources:\n  - id: city news\n    url: https://x\n",
			errorMsg: "may only contain",
		},
		"duplicate id": {
			content:  "sources:\n  - id: a\n    url: https://x\n  - id: a\n    url: https://y\n",
			errorMsg: "duplicate source id",
		},
		"malformed yaml": {
			content:  "sources: [",
			errorMsg: "parse sources file",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSources(writeSources(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errorMsg)
		})
	}
}

func TestSourceCatalog_FindUnknown(t *testing.T) {
	catalog, err := NewSourceCatalog(nil, nil)
	require.NoError(t, err)

	_, err = catalog.Find("missing")
	assert.True(t, errors.Is(err, domain.ErrUnknownSource))
}

// ABOUTME: Loads the feed source list and the section label lookup table from YAML
// ABOUTME: Section labels are configuration, so they live outside the code
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"feed-enricher/domain"
)

// validSourceID keeps ids usable as file names, redis keys and URL path segments.
var validSourceID = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

type sourcesDocument struct {
	Sources  []domain.Source   `yaml:"sources"`
	Sections map[string]string `yaml:"sections"`
}

// SourceCatalog holds the configured sources and maps section ids to destination labels.
type SourceCatalog struct {
	sources  []domain.Source
	sections map[string]string
}

// NewSourceCatalog builds a catalog from in-memory values.
func NewSourceCatalog(sources []domain.Source, sections map[string]string) (*SourceCatalog, error) {
	seen := make(map[string]bool, len(sources))
	for i, s := range sources {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("source at index %d has no id", i)
		}
		if !validSourceID.MatchString(s.ID) {
			return nil, fmt.Errorf("source id %q may only contain letters, digits, '.', '_' and '-'", s.ID)
		}
		if strings.TrimSpace(s.URL) == "" {
			return nil, fmt.Errorf("source %q has no url", s.ID)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate source id %q", s.ID)
		}
		seen[s.ID] = true
	}
	if sections == nil {
		sections = map[string]string{}
	}
	return &SourceCatalog{sources: sources, sections: sections}, nil
}

// LoadSources reads the sources file at path.
func LoadSources(path string) (*SourceCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var doc sourcesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse sources file %s: %w", path, err)
	}

	return NewSourceCatalog(doc.Sources, doc.Sections)
}

// Sources returns all configured sources in file order.
func (c *SourceCatalog) Sources() []domain.Source {
	out := make([]domain.Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// Find returns the source with the given id.
func (c *SourceCatalog) Find(id string) (domain.Source, error) {
	for _, s := range c.sources {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Source{}, fmt.Errorf("%w: %s", domain.ErrUnknownSource, id)
}

// SectionLabel maps a section id to its destination label, falling back to the id itself.
func (c *SourceCatalog) SectionLabel(sectionID string) string {
	if label, ok := c.sections[sectionID]; ok && label != "" {
		return label
	}
	return sectionID
}

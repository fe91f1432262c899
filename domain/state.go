package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// ProcessingState is the dedup state of one source.
// It is owned by a single scheduler run and never shared between goroutines.
type ProcessingState struct {
	LastRun       time.Time
	ProcessedKeys map[string]struct{}
}

// NewProcessingState returns an empty state.
func NewProcessingState() *ProcessingState {
	return &ProcessingState{ProcessedKeys: make(map[string]struct{})}
}

// Has reports whether key was already processed.
func (s *ProcessingState) Has(key string) bool {
	_, ok := s.ProcessedKeys[key]
	return ok
}

// Mark records key as processed.
func (s *ProcessingState) Mark(key string) {
	if s.ProcessedKeys == nil {
		s.ProcessedKeys = make(map[string]struct{})
	}
	s.ProcessedKeys[key] = struct{}{}
}

// Len returns the number of processed keys.
func (s *ProcessingState) Len() int {
	return len(s.ProcessedKeys)
}

// Keys returns the processed keys sorted.
func (s *ProcessingState) Keys() []string {
	keys := make([]string, 0, len(s.ProcessedKeys))
	for k := range s.ProcessedKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (s *ProcessingState) Clone() *ProcessingState {
	c := &ProcessingState{LastRun: s.LastRun, ProcessedKeys: make(map[string]struct{}, len(s.ProcessedKeys))}
	for k := range s.ProcessedKeys {
		c.ProcessedKeys[k] = struct{}{}
	}
	return c
}

type persistedState struct {
	ProcessedURLs []string `json:"processedUrls"`
	LastRun       string   `json:"lastRun"`
}

// MarshalJSON writes the persisted layout {processedUrls: [...], lastRun: ISO-8601}.
func (s *ProcessingState) MarshalJSON() ([]byte, error) {
	p := persistedState{ProcessedURLs: s.Keys()}
	if !s.LastRun.IsZero() {
		p.LastRun = s.LastRun.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(p)
}

// UnmarshalJSON reads the persisted layout.
func (s *ProcessingState) UnmarshalJSON(data []byte) error {
	var p persistedState
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	s.ProcessedKeys = make(map[string]struct{}, len(p.ProcessedURLs))
	for _, k := range p.ProcessedURLs {
		s.ProcessedKeys[k] = struct{}{}
	}
	s.LastRun = time.Time{}
	if p.LastRun != "" {
		t, err := time.Parse(time.RFC3339Nano, p.LastRun)
		if err != nil {
			return fmt.Errorf("parse lastRun: %w", err)
		}
		s.LastRun = t
	}
	return nil
}

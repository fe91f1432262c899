package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"feed-enricher/domain"

	"github.com/gofrs/flock"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

type fileStateStore struct {
	dir    string
	logger *slog.Logger
}

// NewFileStateStore keeps one JSON document per source in dir. Writes go to a
// temp file that is renamed over the previous state, under an advisory lock.
func NewFileStateStore(dir string, logger *slog.Logger) (StateStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create state dir: %w", domain.ErrStateIO, err)
	}
	return &fileStateStore{dir: dir, logger: logger}, nil
}

// path maps a source id to its state file. Ids with characters outside the safe set get a
// hash suffix so that distinct ids such as "a/b" and "a_b" never share a file.
func (s *fileStateStore) path(sourceID string) string {
	name := sourceID
	if unsafeFileChars.MatchString(sourceID) {
		sum := sha256.Sum256([]byte(sourceID))
		name = unsafeFileChars.ReplaceAllString(sourceID, "_") + "-" + hex.EncodeToString(sum[:6])
	}
	return filepath.Join(s.dir, name+".json")
}

func (s *fileStateStore) Load(ctx context.Context, sourceID string) (*domain.ProcessingState, error) {
	data, err := os.ReadFile(s.path(sourceID))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewProcessingState(), nil
	}
	if err != nil {
		return domain.NewProcessingState(), fmt.Errorf("%w: read state %s: %w", domain.ErrStateIO, sourceID, err)
	}

	state := domain.NewProcessingState()
	if err := json.Unmarshal(data, state); err != nil {
		return domain.NewProcessingState(), fmt.Errorf("%w: decode state %s: %w", domain.ErrStateIO, sourceID, err)
	}

	s.logger.DebugContext(ctx, "state loaded", "source_id", sourceID, "processed", state.Len())
	return state, nil
}

func (s *fileStateStore) Save(ctx context.Context, sourceID string, state *domain.ProcessingState) error {
	target := s.path(sourceID)

	lock := flock.New(target + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("%w: lock state %s: %w", domain.ErrStateIO, sourceID, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.WarnContext(ctx, "failed to release state lock", "source_id", sourceID, "error", err)
		}
	}()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode state %s: %w", domain.ErrStateIO, sourceID, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", domain.ErrStateIO, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: write state %s: %w", domain.ErrStateIO, sourceID, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("%w: sync state %s: %w", domain.ErrStateIO, sourceID, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: close state %s: %w", domain.ErrStateIO, sourceID, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return fmt.Errorf("%w: replace state %s: %w", domain.ErrStateIO, sourceID, err)
	}

	return nil
}

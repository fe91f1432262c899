// ABOUTME: File-based journal for records whose publish failed
// ABOUTME: One JSON file per record, written via temp file and rename, grouped by day
package dlq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"feed-enricher/domain"
	apperrors "feed-enricher/utils/errors"

	"github.com/google/uuid"
)

const journalDir = "failed-publishes"

// FailedPublish is one journal entry.
type FailedPublish struct {
	ID        string                 `json:"id"`
	SectionID string                 `json:"section_id"`
	Domain    string                 `json:"domain"`
	LastError ErrorDetails           `json:"last_error"`
	Timestamp time.Time              `json:"timestamp"`
	Record    *domain.EnrichedRecord `json:"record"`
}

type ErrorDetails struct {
	Message     string `json:"message"`
	StatusCode  int    `json:"status_code,omitempty"`
	IsRetryable bool   `json:"is_retryable"`
}

type FileDLQConfig struct {
	BasePath  string
	Retention time.Duration
}

// FileDLQManager writes and inspects the failed-publish journal.
type FileDLQManager struct {
	config FileDLQConfig
	now    func() time.Time
	logger *slog.Logger
}

func NewFileDLQManager(config FileDLQConfig, logger *slog.Logger) *FileDLQManager {
	return &FileDLQManager{
		config: config,
		now:    time.Now,
		logger: logger,
	}
}

// RecordPublishFailure journals a record that could not be published.
func (dlq *FileDLQManager) RecordPublishFailure(ctx context.Context, sectionID string, record *domain.EnrichedRecord, cause error) error {
	if record == nil {
		return errors.New("nil record")
	}

	message := FailedPublish{
		ID:        uuid.NewString(),
		SectionID: sectionID,
		Domain:    extractDomain(record.SourceURL),
		LastError: analyzeError(cause),
		Timestamp: dlq.now().UTC(),
		Record:    record,
	}

	path, err := dlq.writeMessageToFile(message)
	if err != nil {
		dlq.logger.ErrorContext(ctx, "failed to journal publish failure",
			"item_url", record.SourceURL,
			"error", err)
		return err
	}

	dlq.logger.InfoContext(ctx, "publish failure journaled",
		"message_id", message.ID,
		"item_url", record.SourceURL,
		"file_path", path,
		"is_retryable", message.LastError.IsRetryable)
	return nil
}

func analyzeError(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Message: "unknown"}
	}
	details := ErrorDetails{
		Message:     err.Error(),
		IsRetryable: apperrors.IsRetryable(err),
	}
	var statusErr *apperrors.HTTPStatusError
	if errors.As(err, &statusErr) {
		details.StatusCode = statusErr.StatusCode
	}
	return details
}

func (dlq *FileDLQManager) writeMessageToFile(message FailedPublish) (string, error) {
	dir := filepath.Join(dlq.config.BasePath, journalDir, message.Timestamp.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create directory failed: %w", err)
	}

	targetPath := filepath.Join(dir, message.ID+".json")
	tempFile := targetPath + ".tmp"

	data, err := json.MarshalIndent(message, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return "", fmt.Errorf("write temp file failed: %w", err)
	}

	if err := os.Rename(tempFile, targetPath); err != nil {
		if cleanupErr := os.Remove(tempFile); cleanupErr != nil {
			dlq.logger.Error("failed to cleanup temp file", "temp_file", tempFile, "error", cleanupErr)
		}
		return "", fmt.Errorf("rename file failed: %w", err)
	}

	return targetPath, nil
}

// List returns all journal entries, oldest first.
func (dlq *FileDLQManager) List() ([]FailedPublish, error) {
	var entries []FailedPublish
	err := dlq.walk(func(path string, _ fs.FileInfo) error {
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from walking the journal dir
		if err != nil {
			return err
		}
		var entry FailedPublish
		if err := json.Unmarshal(data, &entry); err != nil {
			dlq.logger.Warn("skipping unreadable journal entry", "file", path, "error", err)
			return nil
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

// DLQStats summarizes the journal.
type DLQStats struct {
	TotalFailedItems int       `json:"total_failed_items"`
	OldestFailure    time.Time `json:"oldest_failure"`
	DiskUsage        int64     `json:"disk_usage_bytes"`
}

func (dlq *FileDLQManager) GetStats() (DLQStats, error) {
	stats := DLQStats{}
	err := dlq.walk(func(_ string, info fs.FileInfo) error {
		stats.TotalFailedItems++
		stats.DiskUsage += info.Size()
		if stats.OldestFailure.IsZero() || info.ModTime().Before(stats.OldestFailure) {
			stats.OldestFailure = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to calculate stats: %w", err)
	}
	return stats, nil
}

// StartCleanup removes expired entries once a day until ctx is done.
func (dlq *FileDLQManager) StartCleanup(ctx context.Context) {
	if dlq.config.Retention <= 0 {
		return
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := dlq.Cleanup(); err != nil {
				dlq.logger.Error("journal cleanup failed", "error", err)
			}
		}
	}
}

// Cleanup removes entries older than the retention period and returns how many were removed.
func (dlq *FileDLQManager) Cleanup() (int, error) {
	cutoff := dlq.now().Add(-dlq.config.Retention)
	removed := 0

	err := dlq.walk(func(path string, info fs.FileInfo) error {
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			dlq.logger.Warn("failed to remove old journal entry", "file", path, "error", err)
			return nil
		}
		removed++
		return nil
	})

	if removed > 0 {
		dlq.logger.Info("journal cleanup completed", "removed_files", removed, "cutoff", cutoff)
	}
	return removed, err
}

// walk visits every journal entry file. A missing journal directory is empty.
func (dlq *FileDLQManager) walk(visit func(path string, info fs.FileInfo) error) error {
	root := filepath.Join(dlq.config.BasePath, journalDir)
	err := filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		return visit(path, info)
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func extractDomain(urlStr string) string {
	if parsed, err := url.Parse(urlStr); err == nil && parsed.Hostname() != "" {
		return parsed.Hostname()
	}
	return "unknown"
}

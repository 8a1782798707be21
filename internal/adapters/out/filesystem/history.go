// Package filesystem implements the filesystem-backed output adapters.
package filesystem

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/zerowrap"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// HistoryStore implements out.HistoryStore with one line file per application.
type HistoryStore struct {
	log zerowrap.Logger
	now func() time.Time
}

// NewHistoryStore creates a new history store.
func NewHistoryStore(log zerowrap.Logger) *HistoryStore {
	return &HistoryStore{log: log, now: time.Now}
}

func historyPath(appDir string) string {
	return filepath.Join(appDir, domain.HistoryFileName)
}

// Append records imageName/imageID unless the ID is unknown or equals the
// last recorded pair, then keeps only the newest domain.HistoryLimit lines.
func (s *HistoryStore) Append(appDir, imageName, imageID string) error {
	imageID = strings.TrimSpace(imageID)
	if imageID == "" {
		return nil
	}

	path := historyPath(appDir)
	lines, err := readLines(path)
	if err != nil {
		return fmt.Errorf("failed to read history %s: %w", path, err)
	}

	if n := len(lines); n > 0 {
		if last, ok := parseHistoryLine(lines[n-1]); ok && last.ImageName == imageName && last.ImageID == imageID {
			return nil
		}
	}

	lines = append(lines, formatHistoryLine(domain.HistoryEntry{
		Timestamp: s.now(),
		ImageName: imageName,
		ImageID:   imageID,
	}))
	if len(lines) > domain.HistoryLimit {
		lines = lines[len(lines)-domain.HistoryLimit:]
	}

	if err := writeLines(path, lines); err != nil {
		return fmt.Errorf("failed to write history %s: %w", path, err)
	}

	s.log.Debug().
		Str(zerowrap.FieldLayer, "adapter").
		Str(zerowrap.FieldAdapter, "history").
		Str("image", imageName).
		Str("image_id", imageID).
		Int("entries", len(lines)).
		Msg("history entry appended")

	return nil
}

// ReadRecent returns the recorded entries, newest first. Malformed lines are skipped.
func (s *HistoryStore) ReadRecent(appDir string) ([]domain.HistoryEntry, error) {
	lines, err := readLines(historyPath(appDir))
	if err != nil {
		return nil, err
	}

	entries := make([]domain.HistoryEntry, 0, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		if entry, ok := parseHistoryLine(lines[i]); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func formatHistoryLine(e domain.HistoryEntry) string {
	return strings.Join([]string{e.Timestamp.Format(domain.HistoryTimeLayout), e.ImageName, e.ImageID}, "|")
}

func parseHistoryLine(line string) (domain.HistoryEntry, bool) {
	parts := strings.SplitN(strings.TrimSpace(line), "|", 3)
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return domain.HistoryEntry{}, false
	}
	ts, err := time.ParseInLocation(domain.HistoryTimeLayout, parts[0], time.Local)
	if err != nil {
		return domain.HistoryEntry{}, false
	}
	return domain.HistoryEntry{Timestamp: ts, ImageName: parts[1], ImageID: parts[2]}, true
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

// writeLines replaces path atomically through a temp file in the same directory.
func writeLines(path string, lines []string) error {
	tmpPath := path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp history file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize history file: %w", err)
	}
	return nil
}

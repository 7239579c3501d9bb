// Package history persists the rolling usage sample record.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/j-veylop/claude-watch/internal/fsutil"
	"github.com/j-veylop/claude-watch/internal/logger"
	"github.com/j-veylop/claude-watch/internal/models"
)

// DefaultRetentionDays is how long samples are kept (6 months).
const DefaultRetentionDays = 180

// Store reads and writes the usage history JSON file. Entries are
// append-only; pruning happens on every save. Writes replace the whole file
// atomically so concurrent readers never observe a partial document.
type Store struct {
	path          string
	retentionDays int
}

// New creates a store for the given file path. retentionDays <= 0 selects
// the default.
func New(path string, retentionDays int) *Store {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Store{path: path, retentionDays: retentionDays}
}

// Path returns the history file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads all persisted entries. A missing or corrupt file yields an
// empty history: local state is regenerable, so availability wins over
// strict validation.
func (s *Store) Load() []models.HistoryEntry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var entries []models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("history file unreadable, starting fresh", "path", s.path, "error", err)
		return nil
	}
	return entries
}

// Save persists entries, dropping any older than the retention window.
func (s *Store) Save(entries []models.HistoryEntry) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	kept := make([]models.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}

	data, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return fsutil.WriteFileAtomic(s.path, data, 0o600)
}

// Record appends a sample built from the snapshot and saves.
func (s *Store) Record(snapshot *models.UsageSnapshot) error {
	entries := s.Load()
	entries = append(entries, models.EntryFromSnapshot(snapshot, time.Now()))
	return s.Save(entries)
}

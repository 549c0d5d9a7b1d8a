// Package checkpoint persists pipeline progress so interrupted runs resume
// where they left off instead of starting over.
//
// One checkpoint file per collection, written atomically every N processed
// items and at completion. A checkpoint is advisory: losing one costs at most
// N items of re-embedding, never correctness, because record writes are
// idempotent.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint captures how far a pipeline run got through its source set.
type Checkpoint struct {
	RunID           string    `json:"run_id"`
	Collection      string    `json:"collection"`
	ProcessedCount  int       `json:"processed_count"`
	TotalCount      int       `json:"total_count"`
	LastProcessedID string    `json:"last_processed_id"`
	Complete        bool      `json:"complete"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Tracker loads and saves the checkpoint for one collection.
type Tracker struct {
	dir        string
	collection string
	logger     *slog.Logger
}

// NewTracker creates a tracker storing checkpoints under dir, one file per
// collection. The directory is created lazily on first save.
func NewTracker(dir, collection string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{dir: dir, collection: collection, logger: logger}
}

// Load reads the current checkpoint. Returns (nil, nil) when none exists,
// which callers treat as "start fresh".
func (t *Tracker) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(t.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		// A mangled checkpoint is not worth failing a run over; the
		// pipeline just starts fresh.
		t.logger.Warn("discarding unreadable checkpoint", "collection", t.collection, "error", err)
		return nil, nil
	}
	return &cp, nil
}

// Save atomically persists the checkpoint, stamping UpdatedAt.
func (t *Tracker) Save(cp Checkpoint) error {
	if err := os.MkdirAll(t.dir, 0o750); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}

	cp.Collection = t.collection
	cp.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	path := t.path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming checkpoint into place: %w", err)
	}
	return nil
}

// Reset removes the checkpoint file. Missing is a no-op.
func (t *Tracker) Reset() error {
	if err := os.Remove(t.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing checkpoint: %w", err)
	}
	return nil
}

func (t *Tracker) path() string {
	return filepath.Join(t.dir, t.collection+".json")
}

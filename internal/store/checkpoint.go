package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint is the durable progress marker for a batch run. Its index refers
// to a position in the ordered record store that wrote it; a missing file
// means "start from the beginning".
type Checkpoint struct {
	LastCompletedIndex int       `json:"last_completed_row"`
	RunID              string    `json:"run_id,omitempty"`
	StartTime          time.Time `json:"start_time"`
	LastUpdate         time.Time `json:"last_update"`
}

// CheckpointFile manages one checkpoint on disk with atomic replace
// semantics, so a crash between writes never leaves a torn file behind.
type CheckpointFile struct {
	path string
}

// NewCheckpointFile returns a manager for the checkpoint at path.
func NewCheckpointFile(path string) *CheckpointFile {
	return &CheckpointFile{path: path}
}

// Load reads the checkpoint. The second return value reports whether a
// checkpoint exists.
func (c *CheckpointFile) Load() (Checkpoint, bool, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Checkpoint{LastCompletedIndex: -1}, false, nil
		}
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint %s: %w", c.path, err)
	}
	return cp, true, nil
}

// Save persists the checkpoint durably: write to a temp file in the same
// directory, fsync, then rename over the target.
func (c *CheckpointFile) Save(cp Checkpoint) error {
	cp.LastUpdate = time.Now()
	payload, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // best-effort cleanup on failure

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return fmt.Errorf("sync temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp checkpoint: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Clear removes the checkpoint after a fully successful run. A missing file
// is not an error.
func (c *CheckpointFile) Clear() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove checkpoint: %w", err)
	}
	return nil
}

// Package store persists extracted descriptions, the dataset record store,
// and the durable run checkpoint.
package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Descriptions writes full job description text files under a root directory,
// laid out as <root>/<year>/<week-date>/<NN>-<title-slug>.txt.
type Descriptions struct {
	root string
}

// NewDescriptions returns a store rooted at dir, creating it if needed.
func NewDescriptions(dir string) (*Descriptions, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create descriptions dir %s: %w", dir, err)
	}
	return &Descriptions{root: dir}, nil
}

// Path returns the deterministic file path for a record without writing it.
// Sequence numbers are 1-based within a week and zero-padded to two digits.
func (d *Descriptions) Path(year int, weekDate string, seq int, title string) string {
	name := fmt.Sprintf("%02d-%s.txt", seq, Slugify(title))
	return filepath.Join(d.root, fmt.Sprintf("%d", year), weekDate, name)
}

// Save writes text as UTF-8 to the deterministic path for the record,
// creating parent directories as needed, and returns the path.
func (d *Descriptions) Save(text string, year int, weekDate string, seq int, title string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("refusing to save empty description")
	}
	target := d.Path(year, weekDate, seq, title)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("create description dir for %s: %w", target, err)
	}
	if err := os.WriteFile(target, []byte(text), 0o600); err != nil {
		return "", fmt.Errorf("write description %s: %w", target, err)
	}
	return target, nil
}

// Reset removes every stored description, recreating the empty root.
func (d *Descriptions) Reset() error {
	if err := os.RemoveAll(d.root); err != nil {
		return fmt.Errorf("remove descriptions dir: %w", err)
	}
	if err := os.MkdirAll(d.root, 0o750); err != nil {
		return fmt.Errorf("recreate descriptions dir: %w", err)
	}
	return nil
}

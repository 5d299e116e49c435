package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Elections Specialist":             "elections-specialist",
		"  Deputy Director, Elections!  ":  "deputy-director-elections",
		"REGISTRAR (Temp/Part-Time)":       "registrar-temp-part-time",
		"":                                 "untitled",
		"!!!???":                           "untitled",
		"élections":                        "lections",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestSlugifyIdempotentAndBounded(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Elections Specialist II - King County",
		"A very long title that keeps going and going and going and going and going well past sixty characters",
		"--already--hyphenated--",
	}
	for _, in := range inputs {
		slug := Slugify(in)
		assert.Equal(t, slug, Slugify(slug))
		assert.NotEmpty(t, slug)
		assert.LessOrEqual(t, len(slug), maxSlugLen)
		assert.NotContains(t, slug, "--")
	}
}

func TestDescriptionsSaveRoundTrip(t *testing.T) {
	t.Parallel()

	d, err := NewDescriptions(t.TempDir())
	require.NoError(t, err)

	text := "=== JOB DETAILS ===\nTitle: Elections Specialist\n\nBody text with unicode: naïve café ✓"
	path, err := d.Save(text, 2024, "01-05", 3, "Elections Specialist")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("2024", "01-05", "03-elections-specialist.txt"), mustRel(t, d.root, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, text, string(data))
}

func TestDescriptionsRejectEmpty(t *testing.T) {
	t.Parallel()

	d, err := NewDescriptions(t.TempDir())
	require.NoError(t, err)
	_, err = d.Save("", 2024, "01-05", 1, "x")
	assert.Error(t, err)
}

func TestCheckpointRoundTripAndClear(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "backfill_checkpoint.json")
	cf := NewCheckpointFile(path)

	_, exists, err := cf.Load()
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, cf.Save(Checkpoint{LastCompletedIndex: 42, RunID: "run-1"}))

	cp, exists, err := cf.Load()
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 42, cp.LastCompletedIndex)
	assert.Equal(t, "run-1", cp.RunID)
	assert.False(t, cp.LastUpdate.IsZero())

	require.NoError(t, cf.Clear())
	_, exists, err = cf.Load()
	require.NoError(t, err)
	assert.False(t, exists)

	// Clearing twice is fine.
	require.NoError(t, cf.Clear())
}

func TestCheckpointCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cp.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, _, err := NewCheckpointFile(path).Load()
	assert.Error(t, err)
}

func TestRecordStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dataset.csv")
	s, err := OpenRecordStore(path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())

	s.Append(
		Record{Year: 2024, Date: "01-05", Description: "County clerk, Ohio", Link: "https://example.com/a"},
		Record{Year: 2024, Date: "01-05", Description: "Elections tech, Texas", Link: "https://example.com/b"},
	)
	s.At(1).FullTextPreview = "preview text"
	s.At(1).FullTextLength = 1234
	s.At(1).FullTextFile = "job-descriptions/2024/01-05/01-elections-tech.txt"
	require.NoError(t, s.Flush())

	reloaded, err := OpenRecordStore(path)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.Len())
	assert.Equal(t, "County clerk, Ohio", reloaded.At(0).Description)
	assert.False(t, reloaded.At(0).Scraped())
	assert.True(t, reloaded.At(1).Scraped())
	assert.Equal(t, 1234, reloaded.At(1).FullTextLength)
}

func TestRecordStoreClearFullText(t *testing.T) {
	t.Parallel()

	s := &RecordStore{}
	s.Append(Record{FullTextPreview: "p", FullTextLength: 9, FullTextFile: "f"})
	s.ClearFullText()
	assert.False(t, s.At(0).Scraped())
	assert.Empty(t, s.At(0).FullTextFile)
}

func mustRel(t *testing.T, base, target string) string {
	t.Helper()
	rel, err := filepath.Rel(base, target)
	require.NoError(t, err)
	return rel
}

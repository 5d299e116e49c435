package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Record is one job listing row in the dataset. Fields mirror the columns of
// dataset.csv; pointer-free string fields use "" for absent values and the
// salary fields use NaN-free sentinels via HasSalary.
type Record struct {
	Year           int
	Date           string // week date, MM-DD
	Description    string // snippet from the weekly listing
	Link           string
	JobTitle       string
	Employer       string
	State          string
	SalaryLow      float64
	SalaryHigh     float64
	SalaryMean     float64
	PayBasis       string
	Classification string

	FullTextPreview     string
	FullTextLength      int
	FullTextScrapedDate string
	FullTextFile        string
	IsDuplicate         bool
}

// Scraped reports whether this record already has a stored full description.
func (r *Record) Scraped() bool {
	return r.FullTextPreview != ""
}

// header is the canonical column order.
var header = []string{
	"year", "date", "description", "link",
	"job_title", "employer", "state",
	"salary_low_end", "salary_high_end", "salary_mean", "pay_basis",
	"classification_experimental",
	"full_text_preview", "full_text_length", "full_text_scraped_date", "full_text_file",
	"is_duplicate_job",
}

// RecordStore holds the ordered dataset in memory and flushes it to a CSV
// file. Ordering is load order and never changes during a run; the checkpoint
// index refers to positions in this ordering.
type RecordStore struct {
	path    string
	records []Record
}

// OpenRecordStore loads the dataset from path. A missing file yields an
// empty, writable store.
func OpenRecordStore(path string) (*RecordStore, error) {
	s := &RecordStore{path: path}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("open record store: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read record store %s: %w", path, err)
	}
	if len(rows) == 0 {
		return s, nil
	}

	cols := indexColumns(rows[0])
	for _, row := range rows[1:] {
		s.records = append(s.records, parseRow(row, cols))
	}
	return s, nil
}

// Len returns the number of records.
func (s *RecordStore) Len() int {
	return len(s.records)
}

// At returns a mutable pointer to the record at index i.
func (s *RecordStore) At(i int) *Record {
	return &s.records[i]
}

// Append adds new records at the end of the ordering.
func (s *RecordStore) Append(recs ...Record) {
	s.records = append(s.records, recs...)
}

// Flush writes the full dataset atomically (temp file plus rename), bounding
// data loss on crash to the records changed since the previous flush.
func (s *RecordStore) Flush() error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".dataset-*")
	if err != nil {
		return fmt.Errorf("create temp dataset: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // best-effort cleanup on failure

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return fmt.Errorf("write dataset header: %w", err)
	}
	for i := range s.records {
		if err := w.Write(formatRow(&s.records[i])); err != nil {
			tmp.Close() //nolint:errcheck,gosec
			return fmt.Errorf("write dataset row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return fmt.Errorf("flush dataset: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck,gosec
		return fmt.Errorf("sync dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp dataset: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace dataset: %w", err)
	}
	return nil
}

// ClearFullText wipes the scraped-description columns from every record,
// used by the reset command before a fresh backfill.
func (s *RecordStore) ClearFullText() {
	for i := range s.records {
		r := &s.records[i]
		r.FullTextPreview = ""
		r.FullTextLength = 0
		r.FullTextScrapedDate = ""
		r.FullTextFile = ""
	}
}

func indexColumns(head []string) map[string]int {
	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func parseRow(row []string, cols map[string]int) Record {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	return Record{
		Year:                atoi(get("year")),
		Date:                get("date"),
		Description:         get("description"),
		Link:                get("link"),
		JobTitle:            get("job_title"),
		Employer:            get("employer"),
		State:               get("state"),
		SalaryLow:           atof(get("salary_low_end")),
		SalaryHigh:          atof(get("salary_high_end")),
		SalaryMean:          atof(get("salary_mean")),
		PayBasis:            get("pay_basis"),
		Classification:      get("classification_experimental"),
		FullTextPreview:     get("full_text_preview"),
		FullTextLength:      atoi(get("full_text_length")),
		FullTextScrapedDate: get("full_text_scraped_date"),
		FullTextFile:        get("full_text_file"),
		IsDuplicate:         get("is_duplicate_job") == "true" || get("is_duplicate_job") == "True",
	}
}

func formatRow(r *Record) []string {
	return []string{
		strconv.Itoa(r.Year),
		r.Date,
		r.Description,
		r.Link,
		r.JobTitle,
		r.Employer,
		r.State,
		ftoa(r.SalaryLow),
		ftoa(r.SalaryHigh),
		ftoa(r.SalaryMean),
		r.PayBasis,
		r.Classification,
		r.FullTextPreview,
		itoaOrEmpty(r.FullTextLength),
		r.FullTextScrapedDate,
		r.FullTextFile,
		strconv.FormatBool(r.IsDuplicate),
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func atof(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func ftoa(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func itoaOrEmpty(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// Package extract converts raw HTML into normalized plain-text documents,
// with a specialized path for governmentjobs.com postings.
package extract

import (
	"errors"
	"strings"
)

// Section labels used when assembling the combined text.
const (
	detailsLabel     = "=== JOB DETAILS ==="
	descriptionLabel = "=== JOB DESCRIPTION ==="
)

// minCombinedLen is the floor below which a specialized extraction is
// considered a failure rather than a usable document.
const minCombinedLen = 200

// ErrEmptyExtraction indicates no usable text came out of the page.
var ErrEmptyExtraction = errors.New("no text extracted")

// Field is one metadata header entry.
type Field struct {
	Name  string
	Value string
}

// Document is the output of extraction: an ordered metadata header plus a
// description body. Either part may be empty, but not both.
type Document struct {
	Header []Field
	Body   string

	// extras holds preformatted header lines such as the benefits section.
	extras []string
	// seen tracks header names case-insensitively to prevent duplicates.
	seen map[string]struct{}
}

// AddField appends a header field unless a field with the same
// case-insensitive name is already present. It reports whether the field
// was added.
func (d *Document) AddField(name, value string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || strings.TrimSpace(value) == "" {
		return false
	}
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	if _, dup := d.seen[key]; dup {
		return false
	}
	d.seen[key] = struct{}{}
	d.Header = append(d.Header, Field{Name: name, Value: value})
	return true
}

// HasField reports whether a header field with this name exists.
func (d *Document) HasField(name string) bool {
	_, ok := d.seen[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func (d *Document) addExtra(block string) {
	if strings.TrimSpace(block) != "" {
		d.extras = append(d.extras, block)
	}
}

// Combined renders the document as a single text: the labeled metadata
// header, then the labeled body. A header without a body is not a document;
// metadata alone cannot stand in for the posting text.
func (d *Document) Combined() string {
	if d.Body == "" {
		return ""
	}
	var parts []string

	if len(d.Header) > 0 || len(d.extras) > 0 {
		lines := []string{detailsLabel, ""}
		for _, f := range d.Header {
			lines = append(lines, f.Name+": "+f.Value)
		}
		lines = append(lines, d.extras...)
		parts = append(parts, strings.Join(lines, "\n"))
	}

	if d.Body != "" {
		if len(parts) > 0 {
			parts = append(parts, "\n"+descriptionLabel+"\n")
		}
		parts = append(parts, d.Body)
	}

	return strings.Join(parts, "\n")
}

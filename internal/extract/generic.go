package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Generic strips comments and boilerplate from a page using a text-density
// readability pass and returns a body-only document. It is the default path
// for domains without a specialized extractor.
func Generic(pageURL string, html []byte) (*Document, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(html), parsed)
	if err != nil {
		return nil, fmt.Errorf("readability extraction: %w", err)
	}

	body := normalizeText(article.TextContent)
	if body == "" {
		return nil, ErrEmptyExtraction
	}
	return &Document{Body: body}, nil
}

// normalizeText collapses runs of blank lines and per-line whitespace while
// preserving paragraph breaks.
func normalizeText(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, strings.Join(strings.Fields(line), " "))
		blank = false
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

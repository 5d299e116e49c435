// Package listings parses electionline weekly pages into job listings and
// deduplicates them across weeks.
package listings

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Listing is one job paragraph from a weekly page.
type Listing struct {
	Year        int
	WeekDate    string
	Description string
	Link        string
}

const minParagraphLen = 10

// ParseWeek extracts the job-postings section from one weekly page. Weeks
// without a job section yield an empty slice, not an error.
func ParseWeek(html []byte, year int, weekDate string) ([]Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse weekly page: %w", err)
	}

	var found []Listing
	doc.Find("div.article-wrapper").Each(func(_ int, wrapper *goquery.Selection) {
		heading := strings.TrimSpace(wrapper.Find("h2").First().Text())
		if !strings.HasPrefix(strings.ToLower(heading), "job") {
			return
		}
		wrapper.Find("p").Each(func(i int, p *goquery.Selection) {
			// The opening paragraph is section preamble.
			if i == 0 {
				return
			}
			text := normalizeSpace(p.Text())
			if len(text) <= minParagraphLen {
				return
			}
			if strings.HasPrefix(text, "electionlineWeekly") {
				return
			}
			link, _ := p.Find("a[href]").First().Attr("href")
			if link == "" {
				return
			}
			found = append(found, Listing{
				Year:        year,
				WeekDate:    weekDate,
				Description: text,
				Link:        strings.TrimSpace(link),
			})
		})
	})
	return found, nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

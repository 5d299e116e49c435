package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// GovernmentJobsHost tags the domain family handled by the specialized
// extractor below.
const GovernmentJobsHost = "governmentjobs.com"

// benefitsKeywords identify a bullet list as a benefits section. At least
// two distinct matches are required, which keeps unrelated bullet lists
// (duties, qualifications) from being mislabeled.
var benefitsKeywords = []string{"medical", "dental", "vision", "retirement", "healthcare"}

const minBenefitsMatches = 2

// skipTerms are term-block labels that duplicate body content or carry
// contact noise rather than posting metadata.
var skipTerms = map[string]struct{}{
	"summary":                    {},
	"job duties":                 {},
	"experience, qualifications": {},
	"supplemental information":   {},
	"employer":                   {},
	"address":                    {},
	"phone":                      {},
	"website":                    {},
}

// nonDescriptionMarkers exclude blocks that are address fragments, bare
// URLs, or application trick questions rather than posting text.
var nonDescriptionMarkers = []string{
	"king street center",
	"http://",
	"which of the following",
}

const (
	maxTermValueLen  = 200
	minBodyBlockLen  = 100
	benefitsBlockLen = 500
)

// GovernmentJobs extracts a posting from a governmentjobs.com page:
// structured JSON-LD fields and term-block pairs become the metadata header,
// an accepted benefits list becomes a trailing BENEFITS section, and the
// remaining substantial blocks become the body. The structured data is
// materially higher fidelity than boilerplate-stripping, which is why this
// path bypasses Generic entirely.
func GovernmentJobs(html []byte) (*Document, error) {
	dom, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse governmentjobs page: %w", err)
	}

	doc := &Document{}
	extractJSONLD(dom, doc)
	extractTermBlocks(dom, doc)
	benefitsNode := extractBenefits(dom, doc)
	doc.Body = assembleBody(dom, benefitsNode)

	combined := doc.Combined()
	if len(combined) <= minCombinedLen {
		return nil, ErrEmptyExtraction
	}
	return doc, nil
}

// extractJSONLD maps the embedded JobPosting schema block into header fields.
func extractJSONLD(dom *goquery.Document, doc *Document) {
	raw := dom.Find(`script[type="application/ld+json"]`).First().Text()
	if raw == "" {
		return
	}
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return
	}

	posting := findJobPosting(payload)
	if posting == nil {
		return
	}

	doc.AddField("Title", getString(posting, "title"))

	if salary := formatSalary(getMap(posting, "baseSalary")); salary != "" {
		doc.AddField("Salary", salary)
	}
	if location := formatLocation(posting["jobLocation"]); location != "" {
		doc.AddField("Location", location)
	}
	if org := getMap(posting, "hiringOrganization"); org != nil {
		doc.AddField("Employer", getString(org, "name"))
	}
	if employment := formatEmploymentType(posting["employmentType"]); employment != "" {
		doc.AddField("Employment Type", employment)
	}
	doc.AddField("Date Posted", getString(posting, "datePosted"))
	doc.AddField("Closing Date", getString(posting, "validThrough"))
}

// findJobPosting locates a JobPosting object in a JSON-LD payload, which may
// be a single object or an array of objects.
func findJobPosting(payload any) map[string]any {
	switch v := payload.(type) {
	case map[string]any:
		if getString(v, "@type") == "JobPosting" {
			return v
		}
	case []any:
		for _, entry := range v {
			if posting := findJobPosting(entry); posting != nil {
				return posting
			}
		}
	}
	return nil
}

func formatSalary(base map[string]any) string {
	value := getMap(base, "value")
	if value == nil {
		return ""
	}
	minVal, okMin := getFloat(value, "minValue")
	maxVal, okMax := getFloat(value, "maxValue")
	if !okMin || !okMax {
		return ""
	}
	unit := getString(value, "unitText")
	if unit == "" {
		unit = "Annually"
	}
	return fmt.Sprintf("$%s - $%s %s", formatMoney(minVal), formatMoney(maxVal), unit)
}

func formatLocation(raw any) string {
	location, ok := raw.(map[string]any)
	if !ok {
		// jobLocation is sometimes an array; use the first entry.
		if list, isList := raw.([]any); isList && len(list) > 0 {
			location, ok = list[0].(map[string]any)
		}
		if !ok {
			return ""
		}
	}
	address := getMap(location, "address")
	if address == nil {
		return ""
	}
	var parts []string
	for _, key := range []string{"addressLocality", "addressRegion", "postalCode"} {
		if v := getString(address, key); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ", ")
}

func formatEmploymentType(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []any:
		var parts []string
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// extractTermBlocks scans the label/value term blocks for metadata not
// already captured from the structured data.
func extractTermBlocks(dom *goquery.Document, doc *Document) {
	dom.Find("div.term-block").Each(func(_ int, block *goquery.Selection) {
		name := strings.TrimSpace(block.Find("div.term-description").First().Text())
		value := strings.TrimSpace(block.Find("div.span8").First().Text())
		if name == "" || value == "" {
			return
		}
		if _, skip := skipTerms[strings.ToLower(name)]; skip {
			return
		}
		if len(value) > maxTermValueLen {
			value = value[:maxTermValueLen] + "..."
		}
		doc.AddField(name, value)
	})
}

// extractBenefits looks for a bullet list that is plausibly a benefits
// summary. On acceptance it appends a BENEFITS section (list items plus any
// trailing sibling text) and returns the containing dd so body assembly can
// skip it.
func extractBenefits(dom *goquery.Document, doc *Document) *goquery.Selection {
	var benefitsDD *goquery.Selection

	dom.Find("dd").EachWithBreak(func(_ int, dd *goquery.Selection) bool {
		ul := dd.Find("ul").First()
		if ul.Length() == 0 {
			return true
		}
		if countKeywords(strings.ToLower(ul.Text()), benefitsKeywords) < minBenefitsMatches {
			return true
		}

		lines := []string{"", "BENEFITS:"}
		ul.Find("li").Each(func(_ int, li *goquery.Selection) {
			if item := strings.TrimSpace(li.Text()); item != "" {
				lines = append(lines, "  • "+item)
			}
		})
		doc.addExtra(strings.Join(lines, "\n"))

		if after := textAfterNode(ul); len(after) > 20 {
			doc.addExtra("\n" + after)
		}

		benefitsDD = dd
		return false
	})

	return benefitsDD
}

// assembleBody collects the substantial dd blocks that make up the posting
// text, stopping at the benefits block and skipping known non-description
// patterns.
func assembleBody(dom *goquery.Document, benefitsDD *goquery.Selection) string {
	var parts []string

	dom.Find("dd").EachWithBreak(func(_ int, dd *goquery.Selection) bool {
		text := strings.TrimSpace(dd.Text())

		if benefitsDD != nil && len(dd.Nodes) > 0 && dd.Nodes[0] == benefitsDD.Nodes[0] {
			// Description paragraphs precede the benefits section.
			return false
		}
		if len(text) > benefitsBlockLen {
			ulText := strings.ToLower(dd.Find("ul").First().Text())
			if strings.Contains(ulText, "medical") && strings.Contains(ulText, "dental") {
				return false
			}
		}
		if len(text) <= minBodyBlockLen {
			return true
		}
		lower := strings.ToLower(text)
		for _, marker := range nonDescriptionMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
		parts = append(parts, normalizeText(text))
		return true
	})

	return strings.Join(parts, "\n\n")
}

// textAfterNode gathers the clean text of everything following the given
// element among its siblings.
func textAfterNode(sel *goquery.Selection) string {
	if len(sel.Nodes) == 0 {
		return ""
	}
	marker := sel.Nodes[0]
	contents := sel.Parent().Contents()

	var parts []string
	passed := false
	for i := 0; i < contents.Length(); i++ {
		if contents.Get(i) == marker {
			passed = true
			continue
		}
		if !passed {
			continue
		}
		if text := strings.TrimSpace(contents.Eq(i).Text()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

func countKeywords(haystack string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			n++
		}
	}
	return n
}

// formatMoney renders a dollar amount with thousands separators and two
// decimal places, e.g. 50000 -> "50,000.00".
func formatMoney(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]

	neg := strings.HasPrefix(whole, "-")
	if neg {
		whole = whole[1:]
	}

	var b strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

func getMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

func getString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return strings.TrimSpace(v)
}

func getFloat(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%f", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const govJobsFixture = `<!DOCTYPE html>
<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "JobPosting",
  "title": "Elections Specialist",
  "datePosted": "2024-01-02",
  "validThrough": "2024-02-01",
  "hiringOrganization": {"@type": "Organization", "name": "King County"},
  "employmentType": ["FULL_TIME"],
  "baseSalary": {
    "@type": "MonetaryAmount",
    "currency": "USD",
    "value": {"@type": "QuantitativeValue", "minValue": 50000, "maxValue": 60000, "unitText": "Annually"}
  },
  "jobLocation": {
    "@type": "Place",
    "address": {"addressLocality": "Seattle", "addressRegion": "WA", "postalCode": "98104"}
  }
}
</script>
</head><body>
<div class="term-block">
  <div class="term-description">Department</div>
  <div class="span8">Department of Elections</div>
</div>
<div class="term-block">
  <div class="term-description">Summary</div>
  <div class="span8">Long summary text that must not enter the header.</div>
</div>
<div class="term-block">
  <div class="term-description">Title</div>
  <div class="span8">Duplicate Title From Term Block</div>
</div>
<dl>
<dd>The Elections Specialist performs technical duties in support of countywide
elections, including processing voter registrations, preparing ballots for
tabulation, and assisting voters at service centers throughout the election
cycle under general supervision of the operations manager.</dd>
<dd>Minimum qualifications include two years of clerical experience, strong
attention to detail, and the ability to work extended hours during election
periods. Bilingual applicants are strongly encouraged to apply for this role.</dd>
<dd><ul><li>Comprehensive medical coverage</li><li>Full dental plan</li></ul>
Additional retirement and healthcare benefits are described in the union agreement
for this classification.</dd>
<dd>201 S Jackson St, King Street Center, Seattle, WA 98104. This block only
exists to carry the address of the building and has over one hundred characters.</dd>
</dl>
</body></html>`

func TestGovernmentJobsExtraction(t *testing.T) {
	t.Parallel()

	doc, err := GovernmentJobs([]byte(govJobsFixture))
	require.NoError(t, err)

	combined := doc.Combined()

	assert.Contains(t, combined, "=== JOB DETAILS ===")
	assert.Contains(t, combined, "Title: Elections Specialist")
	assert.Contains(t, combined, "Salary: $50,000.00 - $60,000.00 Annually")
	assert.Contains(t, combined, "Location: Seattle, WA, 98104")
	assert.Contains(t, combined, "Employer: King County")
	assert.Contains(t, combined, "Employment Type: FULL_TIME")
	assert.Contains(t, combined, "Department: Department of Elections")

	// Benefits list items appear exactly once each.
	assert.Contains(t, combined, "BENEFITS:")
	assert.Equal(t, 1, strings.Count(combined, "Comprehensive medical coverage"))
	assert.Equal(t, 1, strings.Count(combined, "Full dental plan"))
	// Trailing sibling text after the list comes along too.
	assert.Contains(t, combined, "union agreement")

	// Header fields are unique case-insensitively: the term-block Title loses.
	assert.NotContains(t, combined, "Duplicate Title From Term Block")
	// Denylisted terms stay out of the header.
	assert.NotContains(t, combined, "Summary: ")

	// Body holds the substantial description blocks but not the address block.
	assert.Contains(t, combined, "=== JOB DESCRIPTION ===")
	assert.Contains(t, combined, "processing voter registrations")
	assert.Contains(t, combined, "Minimum qualifications")
	assert.NotContains(t, combined, "King Street Center")
}

func TestGovernmentJobsRejectsThinPages(t *testing.T) {
	t.Parallel()

	_, err := GovernmentJobs([]byte(`<html><body><dd>too short</dd></body></html>`))
	assert.ErrorIs(t, err, ErrEmptyExtraction)
}

func TestGovernmentJobsBenefitsRequireTwoKeywords(t *testing.T) {
	t.Parallel()

	page := `<html><body><dl>
<dd>` + strings.Repeat("A plausible description paragraph about election work. ", 10) + `</dd>
<dd><ul><li>One medical mention only</li><li>Unrelated bullet</li></ul></dd>
</dl></body></html>`

	doc, err := GovernmentJobs([]byte(page))
	require.NoError(t, err)
	assert.NotContains(t, doc.Combined(), "BENEFITS:")
}

func TestDocumentFieldDeduplication(t *testing.T) {
	t.Parallel()

	doc := &Document{}
	assert.True(t, doc.AddField("Salary", "$1"))
	assert.False(t, doc.AddField("salary", "$2"))
	assert.False(t, doc.AddField("SALARY ", "$3"))
	assert.False(t, doc.AddField("Empty", "  "))
	require.Len(t, doc.Header, 1)
	assert.Equal(t, "$1", doc.Header[0].Value)
}

func TestDocumentCombinedRequiresBody(t *testing.T) {
	t.Parallel()

	doc := &Document{}
	doc.AddField("Title", "Clerk")
	assert.Empty(t, doc.Combined())

	doc.Body = "An actual posting body."
	combined := doc.Combined()
	assert.Contains(t, combined, "=== JOB DETAILS ===")
	assert.Contains(t, combined, "=== JOB DESCRIPTION ===")
	assert.Contains(t, combined, "An actual posting body.")
}

func TestGenericExtraction(t *testing.T) {
	t.Parallel()

	page := `<html><head><title>Posting</title></head><body>
<!-- navigation comment -->
<nav><a href="/">Home</a><a href="/jobs">Jobs</a></nav>
<article>
<h1>County Election Director</h1>
<p>` + strings.Repeat("The director oversees all county election operations and staff. ", 12) + `</p>
<p>` + strings.Repeat("Qualified applicants hold five years of administrative experience. ", 12) + `</p>
</article>
<footer>Copyright</footer>
</body></html>`

	doc, err := Generic("https://example.com/jobs/1", []byte(page))
	require.NoError(t, err)
	assert.Empty(t, doc.Header)
	assert.Contains(t, doc.Body, "county election operations")
	// No metadata header means no section labels.
	assert.NotContains(t, doc.Combined(), "=== JOB DETAILS ===")
}

func TestFormatMoney(t *testing.T) {
	t.Parallel()

	cases := map[float64]string{
		50000:      "50,000.00",
		1234567.5:  "1,234,567.50",
		999:        "999.00",
		60000.4567: "60,000.46",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(in))
	}
}

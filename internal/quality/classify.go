// Package quality scores extracted text as genuine job content or boilerplate.
package quality

import "strings"

// Verdict is the classifier's decision for one document.
type Verdict struct {
	Generic bool
	Reason  string
}

// Thresholds for the lexical heuristics.
const (
	minLength      = 100
	shortLength    = 500
	headWindow     = 1000
	minJobSignals  = 3
	minBoilerplate = 2
)

// boilerplatePhrases mark legal notices, consent walls, and error pages.
var boilerplatePhrases = []string{
	"privacy policy",
	"cookie policy",
	"terms of service",
	"terms of use",
	"terms and conditions",
	"gdpr",
	"404",
	"page not found",
	"access denied",
	"all rights reserved",
	"enable javascript",
	"browser is not supported",
}

// jobSignals are words that rarely appear together outside a job posting.
var jobSignals = []string{
	"responsibilities",
	"qualifications",
	"salary",
	"duties",
	"apply",
	"applicant",
	"experience",
	"benefits",
	"employment",
	"position",
	"deadline",
	"supervision",
}

// Classify is a pure function of the input text. Short fragments are
// rejected outright. Three or more distinct job-signal keywords accept the
// text no matter how much page chrome surrounds it; real postings routinely
// carry a cookie banner and a privacy-policy footer. Only below that bar do
// the boilerplate-phrase rules reject.
func Classify(text string) Verdict {
	if len(text) < minLength {
		return Verdict{Generic: true, Reason: "text too short"}
	}

	lower := strings.ToLower(text)

	if countDistinct(lower, jobSignals) >= minJobSignals {
		return Verdict{Generic: false, Reason: "job signal keywords present"}
	}

	head := lower
	if len(head) > headWindow {
		head = head[:headWindow]
	}
	phrases := countDistinct(head, boilerplatePhrases)

	switch {
	case phrases >= minBoilerplate:
		return Verdict{Generic: true, Reason: "multiple boilerplate phrases"}
	case len(text) < shortLength && phrases >= 1:
		return Verdict{Generic: true, Reason: "short text with boilerplate phrase"}
	case phrases >= 1:
		return Verdict{Generic: true, Reason: "boilerplate phrase without job signals"}
	default:
		return Verdict{Generic: false, Reason: "no boilerplate signal"}
	}
}

func countDistinct(haystack string, needles []string) int {
	n := 0
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			n++
		}
	}
	return n
}

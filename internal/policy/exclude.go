package policy

import (
	"net/url"
	"strings"
)

// excludedDomains lists employers whose postings are never processed:
// vendors and nonprofits rather than public election offices.
var excludedDomains = map[string]struct{}{
	"dominionvoting.com":                   {},
	"clearballot.com":                      {},
	"electioninnovation.org":               {},
	"runbeck.net":                          {},
	"rockthevote.com":                      {},
	"hartintercivic.com":                   {},
	"fordfoundation.org":                   {},
	"techandciviclife.org":                 {},
	"bipartisanpolicy.org":                 {},
	"cdt.org":                              {},
	"ericstates.org":                       {},
	"centerfortechandciviclife.recruitee.com": {},
	"democracy.works":                      {},
	"electionreformers.org":                {},
	"verifiedvoting.org":                   {},
}

// IsExcludedDomain reports whether the URL's host (www-stripped) is on the
// private-employer exclusion list.
func IsExcludedDomain(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	_, excluded := excludedDomains[host]
	return excluded
}

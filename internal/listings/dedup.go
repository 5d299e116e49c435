package listings

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Bipartisan-Policy-Center/election-official-job-descriptions/internal/store"
)

const fingerprintDescLen = 500

// Fingerprint reduces a listing's identifying fields to lowercase letters
// only, which survives punctuation and whitespace drift between reposts of
// the same position.
func Fingerprint(title, employer, state, description string) string {
	if len(description) > fingerprintDescLen {
		// Cut on a rune boundary so a split multi-byte letter cannot make
		// two reposts of the same listing fingerprint differently.
		cut := fingerprintDescLen
		for cut > 0 && !utf8.RuneStart(description[cut]) {
			cut--
		}
		description = description[:cut]
	}
	joined := title + "|" + employer + "|" + state + "|" + description
	var b strings.Builder
	b.Grow(len(joined))
	for _, r := range strings.ToLower(joined) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RecordSource is the read-side of the dataset used for fingerprint seeding.
type RecordSource interface {
	Len() int
	At(i int) *store.Record
}

// CollectFingerprints gathers fingerprints of every record already in the
// dataset, so newly parsed listings can be checked against prior weeks.
func CollectFingerprints(src RecordSource) map[string]bool {
	seen := make(map[string]bool, src.Len())
	for i := 0; i < src.Len(); i++ {
		r := src.At(i)
		if fp := Fingerprint(r.JobTitle, r.Employer, r.State, r.Description); fp != "" {
			seen[fp] = true
		}
	}
	return seen
}

// MarkDuplicates walks records in order, keeps the first occurrence of each
// fingerprint, and flags the rest. It returns the number flagged.
func MarkDuplicates(records []store.Record) int {
	return MarkAgainst(make(map[string]bool, len(records)), records)
}

// MarkAgainst flags records whose fingerprint is already in seen, adding new
// fingerprints as it goes.
func MarkAgainst(seen map[string]bool, records []store.Record) int {
	flagged := 0
	for i := range records {
		fp := Fingerprint(records[i].JobTitle, records[i].Employer, records[i].State, records[i].Description)
		if fp == "" {
			continue
		}
		if seen[fp] {
			records[i].IsDuplicate = true
			flagged++
			continue
		}
		seen[fp] = true
	}
	return flagged
}

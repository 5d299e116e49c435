package llm

import "strings"

// Annualization multipliers per pay basis. Hourly assumes a 2080-hour work
// year.
const (
	hoursPerYear       = 2080
	monthsPerYear      = 12
	biweeklyPerYear    = 26
	semiMonthlyPerYear = 24
)

// CanonicalPayBasis maps the many ways postings phrase a pay period onto a
// small closed set. Unknown phrasings come back empty.
func CanonicalPayBasis(basis string) string {
	b := strings.ToLower(strings.TrimSpace(basis))
	switch {
	case b == "":
		return ""
	case strings.Contains(b, "hour"):
		return "hourly"
	case strings.Contains(b, "semi-month"), strings.Contains(b, "semimonth"), strings.Contains(b, "twice a month"):
		return "semi-monthly"
	case strings.Contains(b, "bi-week"), strings.Contains(b, "biweek"), strings.Contains(b, "every two weeks"):
		return "biweekly"
	case strings.Contains(b, "month"):
		return "monthly"
	case strings.Contains(b, "year"), strings.Contains(b, "annual"), strings.Contains(b, "salary"):
		return "annual"
	default:
		return ""
	}
}

// Annualize converts a pay figure to a yearly amount. An unknown basis is
// passed through unchanged.
func Annualize(amount float64, basis string) float64 {
	switch CanonicalPayBasis(basis) {
	case "hourly":
		return amount * hoursPerYear
	case "monthly":
		return amount * monthsPerYear
	case "biweekly":
		return amount * biweeklyPerYear
	case "semi-monthly":
		return amount * semiMonthlyPerYear
	default:
		return amount
	}
}

// AnnualRange annualizes both ends of a pay range and returns the midpoint.
// A missing bound mirrors the other one so single-figure and "up to" postings
// still yield a mean. A nominally yearly figure whose midpoint lands between
// $2,000 and $10,000 is almost always a misstated monthly rate, so it gets
// reinterpreted as one.
func AnnualRange(low, high float64, basis string) (annualLow, annualHigh, mean float64) {
	annualLow = Annualize(low, basis)
	annualHigh = Annualize(high, basis)
	if annualHigh == 0 {
		annualHigh = annualLow
	}
	if annualLow == 0 {
		annualLow = annualHigh
	}
	if annualLow == 0 && annualHigh == 0 {
		return 0, 0, 0
	}
	mean = (annualLow + annualHigh) / 2
	if b := CanonicalPayBasis(basis); (b == "annual" || b == "") && mean > 2000 && mean < 10000 {
		annualLow *= monthsPerYear
		annualHigh *= monthsPerYear
		mean *= monthsPerYear
	}
	return annualLow, annualHigh, mean
}

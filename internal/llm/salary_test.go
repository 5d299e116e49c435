package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalPayBasis(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                "",
		"Annually":        "annual",
		"per year":        "annual",
		"YEARLY":          "annual",
		"Hourly":          "hourly",
		"per hour":        "hourly",
		"Monthly":         "monthly",
		"per month":       "monthly",
		"Bi-Weekly":       "biweekly",
		"biweekly":        "biweekly",
		"every two weeks": "biweekly",
		"Semi-Monthly":    "semi-monthly",
		"semimonthly":     "semi-monthly",
		"twice a month":   "semi-monthly",
		"Salary":          "annual",
		"commission":      "",
	}
	for input, want := range cases {
		assert.Equal(t, want, CanonicalPayBasis(input), "input %q", input)
	}
}

func TestAnnualize(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 62400.0, Annualize(30, "hourly"), 0.01)
	assert.InDelta(t, 60000.0, Annualize(5000, "monthly"), 0.01)
	assert.InDelta(t, 52000.0, Annualize(2000, "biweekly"), 0.01)
	assert.InDelta(t, 48000.0, Annualize(2000, "semi-monthly"), 0.01)
	assert.InDelta(t, 75000.0, Annualize(75000, "annual"), 0.01)
	assert.InDelta(t, 75000.0, Annualize(75000, ""), 0.01)
}

func TestAnnualRange(t *testing.T) {
	t.Parallel()

	low, high, mean := AnnualRange(50000, 60000, "annual")
	assert.Equal(t, 50000.0, low)
	assert.Equal(t, 60000.0, high)
	assert.Equal(t, 55000.0, mean)
}

func TestAnnualRangeSingleFigure(t *testing.T) {
	t.Parallel()

	low, high, mean := AnnualRange(25, 0, "hourly")
	assert.InDelta(t, 52000.0, low, 0.01)
	assert.InDelta(t, 52000.0, high, 0.01)
	assert.InDelta(t, 52000.0, mean, 0.01)
}

func TestAnnualRangeHighOnly(t *testing.T) {
	t.Parallel()

	// An "up to $80,000" posting mirrors the high bound into the low one.
	low, high, mean := AnnualRange(0, 80000, "annual")
	assert.InDelta(t, 80000.0, low, 0.01)
	assert.InDelta(t, 80000.0, high, 0.01)
	assert.InDelta(t, 80000.0, mean, 0.01)
}

func TestAnnualRangeImplausibleYearlyIsMonthly(t *testing.T) {
	t.Parallel()

	low, high, mean := AnnualRange(4000, 5000, "annual")
	assert.InDelta(t, 48000.0, low, 0.01)
	assert.InDelta(t, 60000.0, high, 0.01)
	assert.InDelta(t, 54000.0, mean, 0.01)

	// A genuinely hourly figure in that band is left alone.
	_, _, hourlyMean := AnnualRange(2, 3, "hourly")
	assert.InDelta(t, 5200.0, hourlyMean, 0.01)
}

func TestAnnualRangeEmpty(t *testing.T) {
	t.Parallel()

	low, high, mean := AnnualRange(0, 0, "annual")
	assert.Zero(t, low)
	assert.Zero(t, high)
	assert.Zero(t, mean)
}

package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyShortTextIsGeneric(t *testing.T) {
	t.Parallel()

	cases := []string{
		"",
		"404",
		"Responsibilities duties salary apply",
		strings.Repeat("a", 99),
	}
	for _, text := range cases {
		v := Classify(text)
		assert.True(t, v.Generic, "text %q should be generic", text)
	}
}

func TestClassifyJobSignalsOverrideBoilerplate(t *testing.T) {
	t.Parallel()

	// Three distinct job signals accept the text no matter how many
	// boilerplate phrases surround them.
	multiPhrase := "Privacy policy. Cookie policy. Terms of service apply here. " +
		"The position includes responsibilities such as ballot preparation, " +
		"minimum qualifications include two years of experience, and the salary " +
		"range is competitive."
	v := Classify(multiPhrase)
	assert.False(t, v.Generic)
	assert.Equal(t, "job signal keywords present", v.Reason)

	// Same override on a short text with a single phrase.
	short := "See our privacy policy. The position requires election experience; " +
		"salary commensurate with qualifications."
	if len(short) >= 500 {
		t.Fatalf("fixture too long: %d", len(short))
	}
	v = Classify(short)
	assert.False(t, v.Generic)
}

func TestClassifyLongTextSinglePhraseWeakSignals(t *testing.T) {
	t.Parallel()

	// Without job signals to back it up, even one phrase rejects long text.
	text := "See our privacy policy for details. " +
		strings.Repeat("neutral words about nothing in particular here. ", 15)
	if len(text) < 500 {
		t.Fatalf("fixture too short: %d", len(text))
	}
	v := Classify(text)
	assert.True(t, v.Generic)
	assert.Equal(t, "boilerplate phrase without job signals", v.Reason)
}

func TestClassifyBoilerplatePage(t *testing.T) {
	t.Parallel()

	text := "This site uses cookies. See our privacy policy and cookie policy " +
		"for details. All rights reserved. " + strings.Repeat("filler text ", 20)
	v := Classify(text)
	assert.True(t, v.Generic)
	assert.Equal(t, "multiple boilerplate phrases", v.Reason)
}

func TestClassifyShortTextWithSinglePhrase(t *testing.T) {
	t.Parallel()

	// Under 500 chars with one boilerplate phrase and weak job signal.
	text := "Page not found. The page you requested does not exist. " +
		strings.Repeat("lorem ipsum ", 10)
	v := Classify(text)
	assert.True(t, v.Generic)
}

func TestClassifyLongCleanTextAccepted(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("The county elections office oversees voter registration. ", 20)
	v := Classify(text)
	assert.False(t, v.Generic)
}

func TestClassifyBoilerplateOnlyCountedInHead(t *testing.T) {
	t.Parallel()

	// Phrases past the first 1000 characters do not count toward rejection.
	text := strings.Repeat("neutral words about nothing in particular here. ", 25) +
		"privacy policy cookie policy terms of service"
	if len(text) <= 1000 {
		t.Fatalf("fixture too short: %d", len(text))
	}
	v := Classify(text)
	assert.False(t, v.Generic)
}

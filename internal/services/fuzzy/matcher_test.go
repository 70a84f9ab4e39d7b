package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestMatcher() *Matcher {
	return NewMatcher(5, 0.5)
}

func TestNormalizeStripsBankNoise(t *testing.T) {
	m := newTestMatcher()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"boilerplate date id and state", "VISA PURCHASE 01/15 WALMART #1234567890 TX", "WALMART"},
		{"domain and bill", "NETFLIX.COM BILL", "NETFLIX"},
		{"labelled date", "DATE 03/22/2026 KROGER FUEL", "KROGER FUEL"},
		{"reference number", "REF #883271 SHELL OIL", "SHELL OIL"},
		{"phone number", "COMCAST 800-934-6489", "COMCAST"},
		{"card mask", "AMAZON XXXX-1234 MARKETPLACE", "AMAZON MARKETPLACE"},
		{"www prefix", "WWW.SPOTIFY.COM PREMIUM", "SPOTIFY PREMIUM"},
		{"mixed case boilerplate", "debit card purchase Starbucks", "STARBUCKS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Normalize(tt.in))
		})
	}
}

func TestNormalizeKeepsMerchantDigits(t *testing.T) {
	m := newTestMatcher()
	// Short store numbers are not reference ids.
	assert.Equal(t, "TARGET 0433", m.Normalize("TARGET 0433"))
}

func TestAddBoilerplateExtendsVocabulary(t *testing.T) {
	m := newTestMatcher()
	assert.Equal(t, "ZELLE JANE DOE", m.Normalize("ZELLE JANE DOE"))

	m.AddBoilerplate("ZELLE")
	assert.Equal(t, "JANE DOE", m.Normalize("ZELLE JANE DOE"))
}

func TestTokensDropShortTokens(t *testing.T) {
	assert.Equal(t, []string{"ACME", "POWER"}, Tokens("ACME CO POWER"))
	assert.Nil(t, Tokens("A BC"))
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard([]string{"A", "B", "C"}, []string{"A", "B", "C"}))
	assert.Equal(t, 1.0, Jaccard(nil, nil))
	assert.Equal(t, 0.0, Jaccard([]string{"A"}, nil))
	assert.Equal(t, 0.0, Jaccard(nil, []string{"A"}))
	assert.InDelta(t, 0.5, Jaccard([]string{"NETFLIX"}, []string{"NETFLIX", "SUBSCRIPTION"}), 1e-9)
	assert.InDelta(t, 1.0/3.0, Jaccard([]string{"A", "B"}, []string{"B", "C"}), 1e-9)
}

func TestCompareEitherSignalSuffices(t *testing.T) {
	m := newTestMatcher()

	// Token overlap passes while the raw edit distance does not.
	jaccardOnly := m.Compare("ACME POWER COMPANY", "ACME POWER")
	assert.False(t, jaccardOnly.EditHit)
	assert.True(t, jaccardOnly.JaccardHit)
	assert.True(t, jaccardOnly.Matched())

	// A typo passes edit distance while sharing no exact tokens.
	editOnly := m.Compare("WALMRT", "WALMART")
	assert.True(t, editOnly.EditHit)
	assert.False(t, editOnly.JaccardHit)
	assert.True(t, editOnly.Matched())

	neither := m.Compare("HOME DEPOT STORE", "NETFLIX SUBSCRIPTION")
	assert.False(t, neither.Matched())
}

func TestCompareSurvivesBankMangling(t *testing.T) {
	m := newTestMatcher()
	signal := m.Compare("VISA PURCHASE 01/15 NETFLIX.COM #9938471102 CA", "Netflix Subscription")
	assert.True(t, signal.Matched())
}

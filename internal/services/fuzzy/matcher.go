// Package fuzzy recognizes that two differently-formatted bank descriptions
// refer to the same merchant or event despite bank-injected noise. It strips
// the noise classes banks embed into statement lines, then compares the
// remainders with two independent signals: Levenshtein edit distance and
// token-set Jaccard similarity.
package fuzzy

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// defaultBoilerplate is the starting noise vocabulary. Entries are matched as
// whole phrases, case-insensitively. The table is extendable at runtime via
// AddBoilerplate so bank-specific vocabulary ships as data, not code.
var defaultBoilerplate = []string{
	"DEBIT CARD",
	"CREDIT CARD",
	"CHECK CARD",
	"RECURRING PAYMENT",
	"ELECTRONIC PAYMENT",
	"ONLINE PAYMENT",
	"PURCHASE",
	"PAYMENT",
	"AUTOPAY",
	"BILLPAY",
	"WITHDRAWAL",
	"DEPOSIT",
	"DEBIT",
	"CREDIT",
	"VISA",
	"MASTERCARD",
	"ACH",
	"POS",
	"WEB",
	"ATM",
	"PMT",
	"BILL",
	"EPAY",
	"TST",
	"SQ",
}

var stateCodes = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {},
	"DE": {}, "FL": {}, "GA": {}, "HI": {}, "ID": {}, "IL": {}, "IN": {},
	"IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {}, "MD": {}, "MA": {},
	"MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {}, "NV": {},
	"NH": {}, "NJ": {}, "NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {},
	"OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {}, "SD": {}, "TN": {},
	"TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {}, "WI": {},
	"WY": {}, "DC": {},
}

// Ordered pipeline: each step strips one noise class before the next runs.
var (
	datePattern      = regexp.MustCompile(`(?i)\b(?:DATE\s*:?\s*)?\d{1,2}/\d{1,2}(?:/\d{2,4})?\b`)
	refLabelPattern  = regexp.MustCompile(`(?i)\b(?:CONF(?:IRMATION)?|REF(?:ERENCE)?|TRACER|CARD|CHECK|CHK|AUTH|ID)\s*#?\s*:?\s*\w*\d\w*\b`)
	longIDPattern    = regexp.MustCompile(`#?\d{10,}`)
	checkNumPattern  = regexp.MustCompile(`#\d+`)
	phonePattern     = regexp.MustCompile(`(?:\(\d{3}\)\s*|\b\d{3}[-. ])\d{3}[-.]\d{4}\b`)
	cardMaskPattern  = regexp.MustCompile(`(?i)\b[X*]{2,}[-\dX*]*\b`)
	wwwPattern       = regexp.MustCompile(`(?i)\bWWW\.`)
	domainPattern    = regexp.MustCompile(`(?i)\.(?:COM|NET|ORG|CO|IO|US|BIZ|INFO)\b`)
	nonAlphaNumeric  = regexp.MustCompile(`[^A-Z0-9 ]+`)
	multiSpace       = regexp.MustCompile(`\s{2,}`)
	tokenSeparators  = regexp.MustCompile(`[\s/\-_.,*#&]+`)
)

// Matcher holds the configured thresholds and the live noise vocabulary.
type Matcher struct {
	maxEditDistance int
	minJaccard      float64
	boilerplate     *regexp.Regexp
	vocabulary      []string
}

func NewMatcher(maxEditDistance int, minJaccard float64) *Matcher {
	m := &Matcher{
		maxEditDistance: maxEditDistance,
		minJaccard:      minJaccard,
		vocabulary:      append([]string(nil), defaultBoilerplate...),
	}
	m.rebuildBoilerplate()
	return m
}

// AddBoilerplate extends the noise vocabulary without recompilation.
func (m *Matcher) AddBoilerplate(phrases ...string) {
	for _, p := range phrases {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			m.vocabulary = append(m.vocabulary, p)
		}
	}
	m.rebuildBoilerplate()
}

func (m *Matcher) rebuildBoilerplate() {
	// Longest phrases first so "DEBIT CARD" wins over "DEBIT".
	sorted := append([]string(nil), m.vocabulary...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	for i, p := range sorted {
		sorted[i] = regexp.QuoteMeta(p)
	}
	m.boilerplate = regexp.MustCompile(`(?i)\b(?:` + strings.Join(sorted, "|") + `)\b`)
}

// Normalize runs the full noise-stripping pipeline. The step order matters:
// dates before reference ids (a date is not a reference), ids before the
// character whitelist (the "#" prefix is still present), state codes last
// among the strips so merchant words are already isolated.
func (m *Matcher) Normalize(s string) string {
	s = datePattern.ReplaceAllString(s, " ")
	s = refLabelPattern.ReplaceAllString(s, " ")
	s = longIDPattern.ReplaceAllString(s, " ")
	s = checkNumPattern.ReplaceAllString(s, " ")
	s = m.boilerplate.ReplaceAllString(s, " ")
	s = phonePattern.ReplaceAllString(s, " ")
	s = cardMaskPattern.ReplaceAllString(s, " ")
	s = wwwPattern.ReplaceAllString(s, " ")
	s = domainPattern.ReplaceAllString(s, " ")

	s = strings.ToUpper(s)
	s = nonAlphaNumeric.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if _, isState := stateCodes[w]; isState && len(w) == 2 {
			continue
		}
		kept = append(kept, w)
	}
	s = strings.Join(kept, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokens splits normalized text on separator characters and drops tokens
// shorter than three characters.
func Tokens(normalized string) []string {
	var out []string
	for _, t := range tokenSeparators.Split(normalized, -1) {
		if len(t) >= 3 {
			out = append(out, strings.ToUpper(t))
		}
	}
	return out
}

// Jaccard computes |A∩B| / |A∪B| over two token sets. Two empty sets are
// identical (1.0); one empty set shares nothing with a non-empty one (0.0).
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}
	intersection := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// Signal carries both similarity measures for one comparison.
type Signal struct {
	EditDistance int
	EditHit      bool
	Jaccard      float64
	JaccardHit   bool
}

// Matched reports whether either measure passed on its own. The disjunction
// is deliberate: candidates are allowed to over-match here because the
// scorer gates on date and amount before a match becomes authoritative.
func (s Signal) Matched() bool { return s.EditHit || s.JaccardHit }

// Compare normalizes both descriptions and evaluates both measures.
func (m *Matcher) Compare(a, b string) Signal {
	na, nb := m.Normalize(a), m.Normalize(b)
	dist := levenshtein.ComputeDistance(na, nb)
	jac := Jaccard(Tokens(na), Tokens(nb))
	return Signal{
		EditDistance: dist,
		EditHit:      dist <= m.maxEditDistance,
		Jaccard:      jac,
		JaccardHit:   jac >= m.minJaccard,
	}
}

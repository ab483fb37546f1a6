package reconcile

import (
	"math"
	"regexp"
	"strings"

	"github.com/cityfire/quotation-engine/internal/storage"
)

// MatcherConfig carries the tunable knobs of the fuzzy matcher. The brand
// and specification-unit lists are domain vocabulary, injected rather than
// hardcoded so the matcher can serve other hardware catalogs.
type MatcherConfig struct {
	ScoreThreshold float64
	BrandBonus     float64
	Brands         []string
	SpecUnits      []string
}

// MatchResult describes the outcome of matching one search string against
// the catalog. Found is false when no candidate cleared the threshold; that
// is a normal outcome, not an error.
type MatchResult struct {
	Product *storage.Product
	Score   float64
	Found   bool
}

// Matcher scores free-text item names against catalog product names using
// token-set overlap with specification-aware rejection.
type Matcher struct {
	threshold float64
	bonus     float64
	brands    map[string]bool
	specRe    *regexp.Regexp
}

// NewMatcher builds a matcher from config. Specification units compile into
// a single pattern matching "<digits><unit>" with optional whitespace in
// between, e.g. "80 mm" and "80mm" both yield the token "80mm".
func NewMatcher(cfg MatcherConfig) *Matcher {
	brands := make(map[string]bool, len(cfg.Brands))
	for _, b := range cfg.Brands {
		brands[strings.ToLower(b)] = true
	}
	// With no units configured the alternation would be empty and every
	// digit run would count as a specification; disable extraction instead.
	var specRe *regexp.Regexp
	if len(cfg.SpecUnits) > 0 {
		units := make([]string, len(cfg.SpecUnits))
		for i, u := range cfg.SpecUnits {
			units[i] = regexp.QuoteMeta(strings.ToLower(u))
		}
		specRe = regexp.MustCompile(`(\d+)\s*(` + strings.Join(units, "|") + `)\b`)
	}
	return &Matcher{
		threshold: cfg.ScoreThreshold,
		bonus:     cfg.BrandBonus,
		brands:    brands,
		specRe:    specRe,
	}
}

// Match returns the best-scoring catalog product for the search string.
// Candidates whose specification tokens conflict with the search string's
// are rejected outright, which keeps "Agni Pipe 25mm" from matching the
// 80mm entry on brand and noun overlap alone. Ties keep the first-seen
// highest score, so catalog iteration order is the tie-break.
func (m *Matcher) Match(search string, catalog []*storage.Product) MatchResult {
	searchTokens := m.tokenize(search)
	searchSpecs := m.specTokens(search)

	best := MatchResult{}
	for _, product := range catalog {
		candidateSpecs := m.specTokens(product.Name)
		if len(searchSpecs) > 0 && len(candidateSpecs) > 0 && !sharesAny(searchSpecs, candidateSpecs) {
			continue
		}

		candidateTokens := m.tokenize(product.Name)
		score := overlapScore(searchTokens, candidateTokens)
		if score > 0 && m.sharesBrand(searchTokens, candidateTokens) {
			score += m.bonus
		}
		if score > best.Score {
			best = MatchResult{Product: product, Score: score}
		}
	}

	best.Found = best.Product != nil && best.Score > m.threshold
	if !best.Found {
		best.Product = nil
	}
	return best
}

// tokenize lowercases, strips everything outside [a-z0-9 ] and drops tokens
// of length two or less. Short tokens ("of", "gi", "2") carry no signal.
func (m *Matcher) tokenize(s string) map[string]bool {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '\t':
			sb.WriteRune(r)
		}
	}
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(sb.String()) {
		if len(tok) > 2 {
			tokens[tok] = true
		}
	}
	return tokens
}

// specTokens extracts normalized specification tokens like "80mm" or
// "2280lpm" from a raw string.
func (m *Matcher) specTokens(s string) map[string]bool {
	specs := make(map[string]bool)
	if m.specRe == nil {
		return specs
	}
	for _, match := range m.specRe.FindAllStringSubmatch(strings.ToLower(s), -1) {
		specs[match[1]+match[2]] = true
	}
	return specs
}

func (m *Matcher) sharesBrand(a, b map[string]bool) bool {
	for tok := range a {
		if m.brands[tok] && b[tok] {
			return true
		}
	}
	return false
}

func sharesAny(a, b map[string]bool) bool {
	for tok := range a {
		if b[tok] {
			return true
		}
	}
	return false
}

// overlapScore is |intersection| / sqrt(|a| * |b|), a cosine-like measure
// over unweighted token sets.
func overlapScore(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	common := 0
	for tok := range a {
		if b[tok] {
			common++
		}
	}
	return float64(common) / math.Sqrt(float64(len(a))*float64(len(b)))
}

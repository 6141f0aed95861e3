package services

import (
	"sort"
	"strings"
)

// cityToken is a recognized city name that may be embedded in a free-text
// query, e.g. "grocery store austin".
type cityToken struct {
	City  string
	State string
}

// defaultCityTokens covers the metro areas the directory serves. The list is
// matched longest-name-first so "san antonio" wins over "antonio".
var defaultCityTokens = []cityToken{
	{"new york", "NY"},
	{"los angeles", "CA"},
	{"san antonio", "TX"},
	{"san francisco", "CA"},
	{"philadelphia", "PA"},
	{"san diego", "CA"},
	{"chicago", "IL"},
	{"houston", "TX"},
	{"phoenix", "AZ"},
	{"dallas", "TX"},
	{"austin", "TX"},
	{"seattle", "WA"},
	{"denver", "CO"},
	{"boston", "MA"},
	{"detroit", "MI"},
	{"memphis", "TN"},
	{"portland", "OR"},
	{"atlanta", "GA"},
	{"miami", "FL"},
}

// cityTokenMatcher extracts a recognized city token from free text
type cityTokenMatcher struct {
	tokens []cityToken
}

func newCityTokenMatcher(tokens []cityToken) *cityTokenMatcher {
	if tokens == nil {
		tokens = defaultCityTokens
	}
	sorted := append([]cityToken(nil), tokens...)
	sort.Slice(sorted, func(i, j int) bool {
		return len(sorted[i].City) > len(sorted[j].City)
	})
	return &cityTokenMatcher{tokens: sorted}
}

// Extract finds the first recognized city token in query. It returns the
// matched token and the query with the token stripped, or ok=false when no
// token is present.
func (m *cityTokenMatcher) Extract(query string) (token cityToken, remainder string, ok bool) {
	lowered := " " + strings.ToLower(strings.TrimSpace(query)) + " "

	for _, t := range m.tokens {
		needle := " " + t.City + " "
		idx := strings.Index(lowered, needle)
		if idx < 0 {
			continue
		}
		stripped := lowered[:idx] + " " + lowered[idx+len(needle):]
		return t, strings.Join(strings.Fields(stripped), " "), true
	}

	return cityToken{}, query, false
}

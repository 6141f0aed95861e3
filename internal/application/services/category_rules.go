package services

import (
	"strings"

	"github.com/snapmap/storefinder/backend/internal/domain/entities"
)

// CategoryRule maps a browse category to the store-type tokens passed to the
// proximity RPC plus the include/exclude predicates applied after rows are
// normalized. Filtering never runs on raw RPC rows; predicates see canonical
// field names only.
type CategoryRule struct {
	// StoreTypes are the tokens handed to get_nearby_stores. Nil means no
	// type filter at the RPC.
	StoreTypes []string

	// ExcludeTypes drops stores whose canonical type matches
	ExcludeTypes []string

	// RequireTokens keeps only stores whose name or type contains at least
	// one of these tokens
	RequireTokens []string
}

// Allows reports whether the store passes this rule's predicates
func (r CategoryRule) Allows(s *entities.Store) bool {
	storeType := strings.ToLower(s.StoreType)

	for _, excluded := range r.ExcludeTypes {
		if storeType == excluded {
			return false
		}
	}

	if len(r.RequireTokens) > 0 {
		name := strings.ToLower(s.Name)
		for _, token := range r.RequireTokens {
			if strings.Contains(name, token) || strings.Contains(storeType, token) {
				return true
			}
		}
		return false
	}

	return true
}

// CategoryTrending orders results by recent click activity instead of a type
// filter
const CategoryTrending = "trending"

var categoryRules = map[string]CategoryRule{
	"grocery": {
		StoreTypes:   []string{"grocery", "supermarket", "super_store"},
		ExcludeTypes: []string{"convenience", "gas_station", "pharmacy"},
	},
	"farmers_market": {
		StoreTypes:    []string{"farmers_market"},
		RequireTokens: []string{"market", "farm"},
	},
	"convenience": {
		StoreTypes: []string{"convenience", "gas_station"},
	},
	"restaurant": {
		StoreTypes: []string{"restaurant", "fast_food"},
	},
	CategoryTrending: {},
}

// RuleForCategory returns the rule for a category id; the zero rule (no
// filter) when the category is unknown or empty
func RuleForCategory(category string) CategoryRule {
	if rule, ok := categoryRules[strings.ToLower(strings.TrimSpace(category))]; ok {
		return rule
	}
	return CategoryRule{}
}

// ApplyCategoryFilter filters normalized stores through the category rule
func ApplyCategoryFilter(stores []*entities.Store, category string) []*entities.Store {
	rule := RuleForCategory(category)
	filtered := make([]*entities.Store, 0, len(stores))
	for _, s := range stores {
		if rule.Allows(s) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

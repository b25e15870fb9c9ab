// Package rules holds the built-in lint rules.
package rules

import (
	"smartcook/internal/lint"
	"sort"
)

// All returns every built-in rule, sorted by ID.
func All() []lint.Rule {
	all := []lint.Rule{
		RequireBodySchema{},
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Meta().ID < all[j].Meta().ID })
	return all
}

// ByID looks up a built-in rule.
func ByID(id string) (lint.Rule, bool) {
	for _, r := range All() {
		if r.Meta().ID == id {
			return r, true
		}
	}
	return nil, false
}

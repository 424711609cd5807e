package retrieval

import "strings"

// maxBoostQueries caps the auxiliary searches added to any single sub-query.
const maxBoostQueries = 2

// boostRule maps trigger terms in a sub-query to auxiliary searches that pull
// in documentation pages the embedding alone tends to miss.
type boostRule struct {
	triggers []string
	queries  []string
}

// Rules are evaluated in order and only the first match fires.
var boostRules = []boostRule{
	{
		triggers: []string{"approval", "allowance", "approve"},
		queries:  []string{"token allowance approval vault relayer"},
	},
	{
		triggers: []string{"slippage", "buyamount", "sellamount", "create order", "place order"},
		queries: []string{
			"quote order parameters slippage",
			"create and sign order code example",
		},
	},
	{
		triggers: []string{"error", "failed", "reverted", "rejected"},
		queries:  []string{"order validation error codes"},
	},
	{
		triggers: []string{"sdk", "typescript", "javascript"},
		queries:  []string{"sdk getting started code example"},
	},
	{
		triggers: []string{"widget", "iframe", "embed"},
		queries:  []string{"widget integration configuration"},
	},
}

// boostQueriesFor returns the auxiliary search strings triggered by text, or
// nil when no rule matches. Matching is case-insensitive substring
// containment, so the same input always yields the same boosts.
func boostQueriesFor(text string) []string {
	lowered := strings.ToLower(text)
	for _, rule := range boostRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lowered, trigger) {
				queries := rule.queries
				if len(queries) > maxBoostQueries {
					queries = queries[:maxBoostQueries]
				}
				return queries
			}
		}
	}
	return nil
}

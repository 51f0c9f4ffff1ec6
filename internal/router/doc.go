// Package router resolves request paths against a fixed route table.
//
// This package implements exact path lookup with a typo-tolerant
// fallback: when no route matches exactly, the closest known path by
// Levenshtein distance is offered as a suggestion if it lies within
// SuggestionThreshold edits.
//
// # Features
//
//   - Path normalization (leading slash, no trailing slash except root)
//   - Immutable route table, safe for concurrent reads without locking
//   - Exact matches never compute an edit distance
//   - Deterministic suggestions: minimal distance, first entry wins ties
//
// # Usage
//
// Build a table once at startup and share the resolver:
//
//	table, err := router.NewTable(entries)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resolver := router.NewResolver(table)
//
//	switch result := resolver.Resolve(path); result.Kind {
//	case router.MatchExact:
//	    // result.Handler serves the request
//	case router.MatchSuggestion:
//	    // result.Suggestion is the closest known path
//	case router.MatchNone:
//	    // plain not found
//	}
package router

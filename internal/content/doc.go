// Package content builds route handlers from configuration and renders
// the fixed pages the listener sends when no handler applies.
//
// Four handler kinds exist: static (inline body), file (read from disk on
// every request), redirect (Location header) and json (serialized data).
// Request methods are not distinguished; every handler answers any method.
package content

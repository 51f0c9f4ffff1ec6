package router

import "strings"

// RoutePath is a normalized request path: it always starts with '/' and
// never ends with '/' unless it is the root.
type RoutePath string

// NormalizePath normalizes a raw path the same way for table entries and
// incoming requests. No case folding or percent-decoding is applied.
func NormalizePath(p string) RoutePath {
	if p == "" {
		return "/"
	}

	if p[0] != '/' {
		p = "/" + p
	}

	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}

	return RoutePath(trimmed)
}

// String returns the path as a plain string.
func (p RoutePath) String() string {
	return string(p)
}

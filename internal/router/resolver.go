package router

// SuggestionThreshold is the largest edit distance at which a known path
// is still offered as a suggestion. Very short table entries such as "/"
// fall within it for most short request paths.
const SuggestionThreshold = 3

// MatchKind describes the outcome of resolving a path.
type MatchKind int

const (
	// MatchNone means no route matched and nothing was close enough.
	MatchNone MatchKind = iota
	// MatchExact means the path is in the table.
	MatchExact
	// MatchSuggestion means the path missed but a nearby route exists.
	MatchSuggestion
)

// String returns the kind name used in logs and metric labels.
func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchSuggestion:
		return "suggestion"
	default:
		return "none"
	}
}

// MatchResult is produced fresh for every request.
type MatchResult struct {
	Kind MatchKind
	// Path is the normalized request path.
	Path RoutePath
	// Handler is set for MatchExact.
	Handler Handler
	// Suggestion and Distance are set for MatchSuggestion.
	Suggestion RoutePath
	Distance   int
}

// Resolver maps request paths to handlers or suggestions.
type Resolver struct {
	table    *Table
	distance func(a, b string) int
}

// ResolverOption is a functional option for configuring a resolver.
type ResolverOption func(*Resolver)

// WithDistanceFunc replaces the edit-distance function.
func WithDistanceFunc(fn func(a, b string) int) ResolverOption {
	return func(r *Resolver) {
		r.distance = fn
	}
}

// NewResolver creates a resolver over table.
func NewResolver(table *Table, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		table:    table,
		distance: Distance,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Table returns the resolver's route table.
func (r *Resolver) Table() *Table {
	return r.table
}

// Resolve returns an exact match without computing any distance, or the
// closest route within SuggestionThreshold, or MatchNone.
func (r *Resolver) Resolve(requestPath string) MatchResult {
	path := NormalizePath(requestPath)

	if h, ok := r.table.Lookup(path); ok {
		recordResolution(MatchExact)
		return MatchResult{Kind: MatchExact, Path: path, Handler: h}
	}

	best := -1
	bestDistance := 0
	for i, candidate := range r.table.paths {
		d := r.distance(string(path), string(candidate))
		// Strictly smaller keeps the first entry on ties.
		if best < 0 || d < bestDistance {
			best = i
			bestDistance = d
		}
	}
	recordDistanceComputations(r.table.Len())

	if best >= 0 && bestDistance <= SuggestionThreshold {
		recordResolution(MatchSuggestion)
		return MatchResult{
			Kind:       MatchSuggestion,
			Path:       path,
			Suggestion: r.table.paths[best],
			Distance:   bestDistance,
		}
	}

	recordResolution(MatchNone)
	return MatchResult{Kind: MatchNone, Path: path}
}

package router

// Distance returns the Levenshtein distance between a and b: the
// minimum number of single-character insertions, deletions or
// substitutions turning a into b. Characters are runes.
//
// Only two rows of the dynamic-programming table are kept, sized by the
// shorter string.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	// Keep the shorter string along the row.
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	if len(ra) == 0 {
		return len(rb)
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(
				prev[i]+1,      // deletion
				curr[i-1]+1,    // insertion
				prev[i-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(ra)]
}

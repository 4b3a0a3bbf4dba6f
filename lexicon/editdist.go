package lexicon

// EditDistance computes the Levenshtein edit distance between two label sequences.
func EditDistance(a, b []int) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// Two rolling rows.
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

// ErrorRate returns EditDistance(hyp, ref) / len(ref). An empty reference
// yields 0 for an empty hypothesis and 1 otherwise.
func ErrorRate(hyp, ref []int) float64 {
	if len(ref) == 0 {
		if len(hyp) == 0 {
			return 0
		}
		return 1
	}
	return float64(EditDistance(hyp, ref)) / float64(len(ref))
}

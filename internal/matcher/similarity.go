package matcher

import (
	"math"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Similarity scores are expressed on a 0-100 scale so they compare directly
// against the configured thresholds and survive into reports unchanged.

// levenshteinRatio returns the normalized Levenshtein similarity of two
// strings scaled to 0-100.
func levenshteinRatio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = true

	return int(math.Round(strutil.Similarity(a, b, lev) * 100))
}

// indelRatio returns the insert/delete similarity of two strings scaled to
// 0-100. Substitutions count as a delete plus an insert, so the score is
// (lenA+lenB-distance)/(lenA+lenB), the ratio the partial thresholds were
// tuned against.
func indelRatio(a, b string) int {
	if a == b {
		return 100
	}

	lenA, lenB := len([]rune(a)), len([]rune(b))
	if lenA == 0 || lenB == 0 {
		return 0
	}

	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = true
	lev.ReplaceCost = 2

	distance := lev.Distance(a, b)
	return int(math.Round(100 * float64(lenA+lenB-distance) / float64(lenA+lenB)))
}

// TokenSortRatio scores two strings after sorting their whitespace tokens,
// making the comparison insensitive to word order. Inputs are expected to
// be normalized keys; no case folding is applied here.
func TokenSortRatio(a, b string) int {
	return levenshteinRatio(sortTokens(a), sortTokens(b))
}

// PartialRatio scores the best alignment of the shorter string against any
// equal-length window of the longer string. A perfect substring scores 100
// regardless of the length difference.
func PartialRatio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}

	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	if strings.Contains(string(longer), string(shorter)) {
		return 100
	}

	best := 0
	window := len(shorter)
	for i := 0; i+window <= len(longer); i++ {
		score := indelRatio(string(shorter), string(longer[i:i+window]))
		if score > best {
			best = score
		}
	}

	return best
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// scoredCandidate pairs a canonical vendor name with its similarity score
// during best-match selection.
type scoredCandidate struct {
	name  string
	score int
}

// bestCandidate selects the winning candidate deterministically: the
// highest score wins, and equal scores break toward the lexicographically
// smallest canonical name. Candidates below minScore are discarded.
// Returns ok=false when no candidate clears the threshold.
func bestCandidate(candidates []scoredCandidate, minScore int) (scoredCandidate, bool) {
	var best scoredCandidate
	found := false

	for _, c := range candidates {
		if c.score < minScore {
			continue
		}
		if !found || c.score > best.score || (c.score == best.score && c.name < best.name) {
			best = c
			found = true
		}
	}

	return best, found
}

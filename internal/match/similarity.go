package match

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

// tokenSet splits normalized text into its unique tokens
func tokenSet(normText string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normText) {
		set[tok] = struct{}{}
	}
	return set
}

// jaccard is the token-overlap similarity of two token sets
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// editSimilarity converts Levenshtein distance into a 0..1 similarity
func editSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 0
	}
	la := len([]rune(a))
	lb := len([]rune(b))
	max := la
	if lb > max {
		max = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(max)
}

// fuzzySimilarity blends token overlap and edit distance equally: token
// overlap is robust to reordering, edit distance to small in-token edits
func fuzzySimilarity(aNorm string, aTokens map[string]struct{}, bNorm string, bTokens map[string]struct{}) float64 {
	return 0.5*jaccard(aTokens, bTokens) + 0.5*editSimilarity(aNorm, bNorm)
}

// cosine is the cosine similarity of two embedding vectors, 0 when either
// is empty or dimensions disagree
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

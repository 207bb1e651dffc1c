package matcher

import "strings"

// Similarity computes the Sørensen–Dice coefficient over character bigrams
// of the two strings, lowercased and with whitespace removed. Returns a
// value in [0, 1]; identical strings score 1.
func Similarity(a, b string) float64 {
	a = normalizeForSimilarity(a)
	b = normalizeForSimilarity(b)

	if a == b {
		if a == "" {
			return 0
		}
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	bigrams := make(map[string]int)
	for i := 0; i < len(a)-1; i++ {
		bigrams[a[i:i+2]]++
	}

	var intersection int
	for i := 0; i < len(b)-1; i++ {
		gram := b[i : i+2]
		if bigrams[gram] > 0 {
			bigrams[gram]--
			intersection++
		}
	}

	return 2 * float64(intersection) / float64(len(a)+len(b)-2)
}

func normalizeForSimilarity(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

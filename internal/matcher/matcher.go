// Package matcher scans text for athlete name occurrences. It runs an exact
// whole-word pass over every indexed name and, when enabled, a secondary
// fuzzy pass comparing sliding token windows against the index, then keeps
// the single highest-confidence occurrence per athlete.
package matcher

import (
	"strings"

	"github.com/patrickjmorris/therunclub-sub001/internal/domain"
	"github.com/patrickjmorris/therunclub-sub001/internal/index"
)

const (
	// contextRadius bounds how much surrounding text is kept per match.
	contextRadius = 50

	// fuzzyWindowSize is the number of consecutive tokens joined into a
	// candidate phrase for the fuzzy pass.
	fuzzyWindowSize = 3

	// fuzzyThreshold is the minimum similarity accepted by the fuzzy pass.
	fuzzyThreshold = 0.80
)

// Options tunes a detection pass. The zero value runs exact matching only.
type Options struct {
	Fuzzy bool
}

// Detect returns at most one DetectedAthlete per athlete found in text.
// Exact matches score 1.0 and are collected before fuzzy candidates, so an
// athlete found by both passes keeps the exact score. Empty text or an
// empty index yields an empty result.
func Detect(text string, idx *index.Index, opts Options) []domain.DetectedAthlete {
	if text == "" || idx.Len() == 0 {
		return nil
	}

	candidates := exactPass(text, idx)
	if opts.Fuzzy {
		candidates = append(candidates, fuzzyPass(text, idx)...)
	}

	return dedupe(candidates)
}

func exactPass(text string, idx *index.Index) []domain.DetectedAthlete {
	var found []domain.DetectedAthlete
	for _, entry := range idx.Entries() {
		for _, loc := range entry.Pattern.FindAllStringIndex(text, -1) {
			found = append(found, domain.DetectedAthlete{
				AthleteID:  entry.ID,
				Confidence: domain.Exact,
				Context:    contextWindow(text, loc[0], loc[1]-loc[0]),
			})
		}
	}
	return found
}

func fuzzyPass(text string, idx *index.Index) []domain.DetectedAthlete {
	tokens := strings.Fields(text)
	if len(tokens) < fuzzyWindowSize {
		return nil
	}

	lowerText := strings.ToLower(text)

	var found []domain.DetectedAthlete
	for i := 0; i+fuzzyWindowSize <= len(tokens); i++ {
		phrase := strings.Join(tokens[i:i+fuzzyWindowSize], " ")
		for _, entry := range idx.Entries() {
			score := Similarity(phrase, entry.Name)
			if score < fuzzyThreshold {
				continue
			}

			pos := strings.Index(lowerText, strings.ToLower(phrase))
			if pos < 0 {
				// Whitespace was collapsed during tokenization; anchor
				// the context at the start of the text instead.
				pos = 0
			}
			found = append(found, domain.DetectedAthlete{
				AthleteID:  entry.ID,
				Confidence: domain.Confidence(score),
				Context:    contextWindow(text, pos, len(phrase)),
			})
		}
	}
	return found
}

// dedupe keeps the highest-confidence occurrence per athlete, first seen
// winning ties, and preserves first-seen athlete order.
func dedupe(candidates []domain.DetectedAthlete) []domain.DetectedAthlete {
	if len(candidates) == 0 {
		return nil
	}

	best := make(map[string]int, len(candidates))
	var order []string
	for i, candidate := range candidates {
		prev, seen := best[candidate.AthleteID]
		if !seen {
			best[candidate.AthleteID] = i
			order = append(order, candidate.AthleteID)
			continue
		}
		if candidate.Confidence > candidates[prev].Confidence {
			best[candidate.AthleteID] = i
		}
	}

	result := make([]domain.DetectedAthlete, 0, len(order))
	for _, id := range order {
		result = append(result, candidates[best[id]])
	}
	return result
}

func contextWindow(text string, start, matchLen int) string {
	lo := start - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := start + matchLen + contextRadius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

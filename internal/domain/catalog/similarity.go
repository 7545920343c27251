package catalog

import (
	"sort"
	"strings"
)

const (
	// DefaultSimilarityThreshold is the minimum score for a candidate match
	DefaultSimilarityThreshold = 0.3
	// substringBoostScore is the floor applied when the candidate name is a
	// substring of the text or shares a whole word with it
	substringBoostScore = 0.5
)

// ProductMatch is a scored candidate from fuzzy product resolution
type ProductMatch struct {
	Product Product
	Score   float64
}

// FindSimilarProducts scores every product name against the given text and
// returns candidates at or above the threshold, best first.
// The score is normalized Levenshtein similarity (1 - distance/maxLen) on
// lower-cased input, boosted to at least 0.5 when the product name appears
// inside the text or shares a whole word with it.
//
// Pure function of its inputs: no state, no I/O.
func FindSimilarProducts(text string, products []Product, threshold float64) []ProductMatch {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return nil
	}

	matches := make([]ProductMatch, 0)
	for _, product := range products {
		name := strings.ToLower(product.Name)
		score := Similarity(normalized, name)

		if strings.Contains(normalized, name) || sharesWholeWord(normalized, name) {
			if score < substringBoostScore {
				score = substringBoostScore
			}
		}

		if score >= threshold {
			matches = append(matches, ProductMatch{Product: product, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// FilterByLiteralMention narrows candidates to products whose name contains
// the literal user phrase (case-insensitive). When the filter leaves fewer
// than two candidates the unfiltered list is returned, so ambiguity is always
// judged against a list that kept every plausible candidate.
func FilterByLiteralMention(mention string, matches []ProductMatch) []ProductMatch {
	phrase := strings.ToLower(strings.TrimSpace(mention))
	if phrase == "" {
		return matches
	}

	filtered := make([]ProductMatch, 0, len(matches))
	for _, m := range matches {
		if strings.Contains(strings.ToLower(m.Product.Name), phrase) {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) < 2 {
		return matches
	}
	return filtered
}

// Similarity returns the normalized Levenshtein similarity between two
// strings: 1 - editDistance/maxLen. Equal strings score 1, fully distinct
// strings approach 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein computes the edit distance between two rune slices using a
// single-row dynamic programming table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			current := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = min3(row[j]+1, row[j-1]+1, prev+cost)
			prev = current
		}
	}
	return row[len(b)]
}

// sharesWholeWord reports whether text and name have at least one whole
// word in common.
func sharesWholeWord(text, name string) bool {
	nameWords := strings.Fields(name)
	if len(nameWords) == 0 {
		return false
	}
	textWords := make(map[string]struct{})
	for _, w := range strings.Fields(text) {
		textWords[w] = struct{}{}
	}
	for _, w := range nameWords {
		if _, ok := textWords[w]; ok {
			return true
		}
	}
	return false
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

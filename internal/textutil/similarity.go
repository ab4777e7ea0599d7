package textutil

import (
	"math"
	"regexp"
	"strings"
)

var ngramStripRE = regexp.MustCompile(`[-\s]+`)

// Jaccard computes |A∩B| / |A∪B| over two token sets.
func Jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := toSet(a)
	setB := toSet(b)
	inter := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// OverlapCount returns the size of the token-set intersection.
func OverlapCount(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := toSet(a)
	setB := toSet(b)
	count := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			count++
		}
	}
	return count
}

// NgramSet builds the rune n-gram set of a value with whitespace and
// hyphens removed.
func NgramSet(value string, n int) map[string]struct{} {
	out := make(map[string]struct{})
	normalized := ngramStripRE.ReplaceAllString(strings.ToLower(value), "")
	runes := []rune(normalized)
	if n <= 0 || len(runes) < n {
		return out
	}
	for i := 0; i+n <= len(runes); i++ {
		out[string(runes[i:i+n])] = struct{}{}
	}
	return out
}

// NgramJaccard computes set Jaccard over two n-gram sets.
func NgramJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for g := range a {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Cosine computes cosine similarity of two embedding vectors. Mismatched
// or zero-length vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

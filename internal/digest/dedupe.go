package digest

import (
	"sort"
	"strings"

	"dailydigest/internal/textutil"
)

// normalizeTokens lowercases, drops stopwords, pure numbers and very
// short tokens (hangul needs two runes, latin three).
func normalizeTokens(value string) []string {
	var out []string
	for _, token := range textutil.TokenizeForDedupe(value) {
		token = strings.TrimSpace(token)
		minLen := 3
		if textutil.HasHangul(token) {
			minLen = 2
		}
		if len([]rune(token)) < minLen {
			continue
		}
		if stopwords[token] {
			continue
		}
		if textutil.IsNumericToken(token) {
			continue
		}
		out = append(out, token)
	}
	return out
}

// BuildDedupeKey derives a stable key from the first eight distinct
// normalized tokens of title and summary, sorted.
func BuildDedupeKey(title, summary string) string {
	seen := make(map[string]bool)
	var merged []string
	for _, token := range append(normalizeTokens(title), normalizeTokens(summary)...) {
		if seen[token] {
			continue
		}
		seen[token] = true
		merged = append(merged, token)
		if len(merged) >= 8 {
			break
		}
	}
	if len(merged) == 0 {
		return "news"
	}
	sort.Strings(merged)
	return strings.Join(merged, "-")
}

// BuildClusterKey labels a story with relation/domain/entity parts used
// for cross-day carry-over detection.
func BuildClusterKey(dedupeKey, title, summary string) string {
	tokens := normalizeTokens(dedupeKey + " " + title + " " + summary)
	if len(tokens) == 0 {
		return ""
	}
	tokenSet := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		tokenSet[token] = true
	}

	relation := detectRelation(tokenSet)
	domain := detectDomain(tokenSet)
	entity := tokens[0]
	for _, token := range tokens {
		if !dedupeEventTokens[token] {
			entity = token
			break
		}
	}

	var parts []string
	for _, part := range []string{relation, domain, entity} {
		if part != "" {
			parts = append(parts, part)
		}
		if len(parts) >= 3 {
			break
		}
	}
	return strings.Join(parts, "/")
}

func detectDomain(tokenSet map[string]bool) string {
	for _, domain := range dedupeClusterDomains {
		for _, keyword := range domain.Keywords {
			if tokenSet[strings.ToLower(keyword)] {
				return domain.Label
			}
		}
	}
	return ""
}

func detectRelation(tokenSet map[string]bool) string {
	for _, relation := range dedupeClusterRelations {
		matched := true
		for _, token := range relation.Required {
			if !tokenSet[strings.ToLower(token)] {
				matched = false
				break
			}
		}
		if matched {
			return relation.Label
		}
	}
	return ""
}

// IsTitleDuplicate reports whether the title is near a previously seen
// one by token Jaccard.
func IsTitleDuplicate(currentTitle string, seenTitles []string) bool {
	current := normalizeTokens(currentTitle)
	if len(current) == 0 {
		return false
	}
	for _, seen := range seenTitles {
		tokens := normalizeTokens(seen)
		if len(tokens) == 0 {
			continue
		}
		if textutil.Jaccard(current, tokens) >= TitleDedupeJaccard {
			return true
		}
	}
	return false
}

// IsNearDuplicateByKey compares dedupe keys by character-bigram overlap.
func IsNearDuplicateByKey(currentKey string, existingKeys []string) bool {
	current := textutil.NgramSet(currentKey, 2)
	if len(current) == 0 {
		return false
	}
	for _, key := range existingKeys {
		if textutil.NgramJaccard(current, textutil.NgramSet(key, 2)) >= DedupeNgramSim {
			return true
		}
	}
	return false
}

// PickTopWithDiversity selects the highest scored items while capping
// how many a single outlet can contribute; the cap relaxes to backfill
// a short list.
func PickTopWithDiversity(allItems []*Candidate, limit int) []*Candidate {
	sorted := make([]*Candidate, len(allItems))
	copy(sorted, allItems)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	var picked []*Candidate
	pickedSet := make(map[*Candidate]bool)
	sourceCounts := make(map[string]int)

	for _, item := range sorted {
		if len(picked) >= limit {
			break
		}
		maxPerSource := SourceMaxPerOutlet
		if item.SourceName == "" {
			maxPerSource = 3
		}
		if sourceCounts[item.SourceName] >= maxPerSource {
			continue
		}
		picked = append(picked, item)
		pickedSet[item] = true
		sourceCounts[item.SourceName]++
	}

	if len(picked) < limit {
		for _, item := range sorted {
			if len(picked) >= limit {
				break
			}
			if pickedSet[item] {
				continue
			}
			picked = append(picked, item)
			pickedSet[item] = true
		}
	}
	return picked
}

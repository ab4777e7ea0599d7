package digest

import (
	"math"
	"strings"

	"dailydigest/internal/textutil"
)

var (
	tierANorm = normalizedSourceSet(sourceTierA)
	tierBNorm = normalizedSourceSet(sourceTierB)
	tierASet  = stringSet(sourceTierA)
	tierBSet  = stringSet(sourceTierB)
)

func normalizedSourceSet(sources []string) map[string]bool {
	out := make(map[string]bool, len(sources))
	for _, s := range sources {
		out[strings.ToLower(textutil.NormalizeSourceName(s))] = true
	}
	return out
}

func stringSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// IsBreakingNews checks title and summary for breaking markers.
func IsBreakingNews(title, summary string) bool {
	merged := strings.ToLower(title) + " " + strings.ToLower(summary)
	return containsAny(merged, breakingTerms)
}

// GetImpactSignals detects up to two impact signal labels in priority
// order.
func GetImpactSignals(text string) []string {
	normalized := strings.ToLower(text)
	var labels []string
	for _, label := range impactSignalPriority {
		if containsAny(normalized, impactSignalsMap[label]) {
			labels = append(labels, label)
		}
		if len(labels) >= 2 {
			break
		}
	}
	return labels
}

// MapTopicToCategory maps a feed topic (or free text) to a display
// category.
func MapTopicToCategory(topic string) string {
	t := strings.ToLower(topic)
	if t == "" {
		return "국제"
	}
	switch {
	case strings.Contains(t, "정책") || strings.Contains(t, "규제") ||
		strings.Contains(t, "입법") || strings.Contains(t, "국회") ||
		strings.Contains(t, "관세") || strings.Contains(t, "무역") ||
		strings.Contains(t, "협상") || strings.Contains(t, "제재"):
		return "정책"
	case strings.Contains(t, "빅테크") || strings.HasPrefix(t, "it") ||
		strings.Contains(t, "tech") || strings.Contains(t, "ai"):
		return "기술"
	case strings.Contains(t, "에너지") || strings.Contains(t, "전력") ||
		strings.Contains(t, "원전") || strings.Contains(t, "lng"):
		return "에너지"
	case strings.Contains(t, "금융") || strings.Contains(t, "금리") ||
		strings.Contains(t, "환율") || strings.Contains(t, "ipo") ||
		strings.Contains(t, "m&a") || strings.Contains(t, "투자") ||
		strings.Contains(t, "실적"):
		return "금융"
	case strings.Contains(t, "경제") || strings.Contains(t, "물가") ||
		strings.Contains(t, "고용"):
		return "경제"
	case strings.Contains(t, "반도체") || strings.Contains(t, "공급망") ||
		strings.Contains(t, "산업"):
		return "산업"
	}
	return "국제"
}

// IsFreshEnough applies the freshness window, extended for items
// carrying a long-impact signal.
func IsFreshEnough(ageHours *float64, impactSignals []string) bool {
	if ageHours == nil {
		return true
	}
	if *ageHours <= TopFreshMaxHours {
		return true
	}
	for _, label := range impactSignals {
		if topFreshExceptSignals[label] || longImpactSignals[label] {
			return *ageHours <= TopFreshExceptMaxHours
		}
	}
	return false
}

// GetSkipReason returns the first pre-filter rule the candidate trips,
// or empty if it survives.
func GetSkipReason(title, summary, link string, ageHours *float64, impactSignals []string) string {
	text := strings.ToLower(title + " " + summary)
	loweredLink := strings.ToLower(link)

	hardKeywordHit := containsAny(text, hardExcludeKeywords)
	hardURLHit := containsAny(loweredLink, hardExcludeURLHints)
	if (hardKeywordHit || hardURLHit) &&
		shouldHardExclude(title, summary, link, ageHours, impactSignals) {
		if hardKeywordHit {
			return "hard_excluded_keyword"
		}
		return "hard_excluded_url"
	}
	if containsAny(text, excludeKeywords) {
		return "excluded_keyword"
	}
	if ageHours == nil {
		return "missing_published_at"
	}
	if !IsFreshEnough(ageHours, impactSignals) {
		return "outdated"
	}
	return ""
}

// shouldHardExclude distinguishes strict hard-exclude hits from the
// contextual ones (동향/리포트/report) which are excused for breaking or
// fresh impact/macro news.
func shouldHardExclude(title, summary, link string, ageHours *float64, impactSignals []string) bool {
	text := strings.ToLower(title + " " + summary)
	loweredLink := strings.ToLower(link)

	for _, keyword := range hardExcludeKeywords {
		normalized := strings.ToLower(keyword)
		if !contextualHardExcludeKeywords[normalized] && strings.Contains(text, normalized) {
			return true
		}
	}
	for _, hint := range hardExcludeURLHints {
		if !contextualHardExcludeURLHints[hint] && strings.Contains(loweredLink, hint) {
			return true
		}
	}

	contextualHit := false
	for _, keyword := range hardExcludeKeywords {
		normalized := strings.ToLower(keyword)
		if contextualHardExcludeKeywords[normalized] && strings.Contains(text, normalized) {
			contextualHit = true
			break
		}
	}
	if !contextualHit {
		for _, hint := range hardExcludeURLHints {
			if contextualHardExcludeURLHints[hint] && strings.Contains(loweredLink, hint) {
				contextualHit = true
				break
			}
		}
	}
	if !contextualHit {
		return false
	}

	if IsBreakingNews(title, summary) {
		return false
	}
	if ageHours != nil && *ageHours > ContextualHardExcludeMaxHrs {
		return true
	}
	for _, label := range impactSignals {
		if contextualBypassSignals[label] {
			return false
		}
	}
	if containsAny(text, macroEventKeywords) {
		return false
	}
	return true
}

// ScoreItem computes the rule-based ranking score.
func ScoreItem(impactSignals []string, readTimeSec int, sourceName string, ageHours *float64, isBreaking bool) float64 {
	signalScore := 0.0
	for _, label := range impactSignals {
		level, ok := impactSignalBaseLevels[label]
		if !ok {
			level = 1
		}
		signalScore += float64(level)
	}

	freshnessBoost := 0.2
	if ageHours != nil {
		freshnessBoost = math.Max(0, (72-math.Min(*ageHours, 72))/72)
	}
	readabilityBoost := 0.1
	if readTimeSec <= 70 {
		readabilityBoost = 0.3
	}
	breakingBoost := 0.0
	if isBreaking {
		breakingBoost = BreakingScoreBoost
	}

	total := signalScore + sourceWeight(sourceName) + freshnessBoost + readabilityBoost + breakingBoost
	return round4(total)
}

// InferImportanceRaw derives a 0..100 importance from rule signals when
// no model score is available.
func InferImportanceRaw(c *Candidate) int {
	signalLevel := 1
	for _, label := range c.ImpactSignals {
		level, ok := impactSignalBaseLevels[label]
		if !ok {
			level = 1
		}
		if level > signalLevel {
			signalLevel = level
		}
	}
	signalRaw := float64(signalLevel-1) / 3 * 45

	multiSignalBonus := 0.0
	if len(c.ImpactSignals) >= 2 {
		multiSignalBonus = 5
	}

	weight := sourceWeight(c.SourceName)
	sourceRaw := 8.0
	switch {
	case weight >= 1.5:
		sourceRaw = 22
	case weight >= 0.8:
		sourceRaw = 14
	}

	freshnessWindow := math.Max(24, math.Min(120, TopFreshMaxHours))
	freshnessRaw := 12.0
	if c.AgeHours != nil {
		freshnessRaw = math.Max(0, (1-math.Min(*c.AgeHours, freshnessWindow)/freshnessWindow)*18)
	}
	breakingRaw := 0.0
	if c.IsBreaking {
		breakingRaw = 10
	}
	readabilityRaw := 2.0
	if c.ReadTimeSec <= 70 {
		readabilityRaw = 5
	}

	total := signalRaw + multiSignalBonus + sourceRaw + freshnessRaw + breakingRaw + readabilityRaw
	return clampInt(int(math.Round(total)), 0, 100)
}

// RawToDisplayImportance converts a 0..100 raw score to the 1..5
// half-step display scale.
func RawToDisplayImportance(raw int) float64 {
	clamped := float64(clampInt(raw, 0, 100))
	scaled := 1 + clamped/100*4
	return NormalizeDisplayImportance(scaled)
}

// DisplayToRawImportance is the inverse mapping.
func DisplayToRawImportance(display float64) int {
	normalized := NormalizeDisplayImportance(display)
	return clampInt(int(math.Round((normalized-1)/4*100)), 0, 100)
}

// NormalizeDisplayImportance clamps to [1,5] rounded to the nearest 0.5.
func NormalizeDisplayImportance(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 1
	}
	clamped := math.Max(1, math.Min(5, value))
	return math.Round(clamped*2) / 2
}

func sourceWeight(sourceName string) float64 {
	normalized := strings.ToLower(textutil.NormalizeSourceName(sourceName))
	if tierASet[sourceName] || tierANorm[normalized] {
		return 1.6
	}
	if tierBSet[sourceName] || tierBNorm[normalized] {
		return 0.8
	}
	return 0.2
}

// sourceTierRank orders sources for duplicate resolution: A=2, B=1.
func sourceTierRank(sourceName string) int {
	normalized := strings.ToLower(textutil.NormalizeSourceName(sourceName))
	if normalized == "" {
		return 0
	}
	if tierANorm[normalized] {
		return 2
	}
	if tierBNorm[normalized] {
		return 1
	}
	return 0
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

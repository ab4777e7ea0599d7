package digest

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"dailydigest/internal/textutil"
)

// Low-quality items are either dropped outright or kept with capped
// importance and a rewritten rationale.
const (
	LowQualityPolicyDrop      = "drop"
	LowQualityPolicyDowngrade = "downgrade"
)

// Validation error strings. Hard errors abort the run; soft ones fall
// back to the previous digest.
const (
	ErrInvalidDigest              = "INVALID_DIGEST"
	ErrMissingField               = "VALIDATION_ERROR: MISSING_FIELD"
	ErrImpactSignalsRequired      = "ERROR: IMPACT_SIGNALS_REQUIRED"
	ErrDuplicateImpactLabel       = "ERROR: DUPLICATE_IMPACT_SIGNAL_LABEL"
	ErrInvalidPolicyLabel         = "ERROR: INVALID_POLICY_LABEL"
	ErrInvalidSanctionsLabel      = "ERROR: INVALID_SANCTIONS_LABEL"
	ErrInvalidMarketDemandLabel   = "ERROR: INVALID_MARKET_DEMAND_LABEL"
	ErrInvalidEarningsLabel       = "ERROR: INVALID_EARNINGS_LABEL"
	ErrInvalidCapexLabel          = "ERROR: INVALID_CAPEX_LABEL"
	ErrInvalidInfraLabel          = "ERROR: INVALID_INFRA_LABEL"
	ErrInvalidSecurityLabel       = "ERROR: INVALID_SECURITY_LABEL"
	ErrInvalidImpactLabel         = "ERROR: INVALID_IMPACT_LABEL"
	ErrImpactEvidenceRequired     = "ERROR: IMPACT_EVIDENCE_REQUIRED"
	ErrImpactEvidenceTooShort     = "ERROR: IMPACT_EVIDENCE_TOO_SHORT"
	ErrInvalidImpactSignalFormat  = "ERROR: INVALID_IMPACT_SIGNAL_FORMAT"
	ErrDuplicateImpactEvidence    = "ERROR: DUPLICATE_IMPACT_SIGNAL_EVIDENCE"
	ErrLowQualityMismatch         = "ERROR: LOW_QUALITY_MISMATCH"
	ErrDuplicateDedupeKey         = "ERROR: DUPLICATE_DEDUPE_KEY"
	ErrOutdatedItem               = "ERROR: OUTDATED_ITEM"
	ErrStaleIncidentItem          = "ERROR: STALE_INCIDENT_ITEM"
)

var hardValidationErrors = map[string]bool{
	ErrMissingField:              true,
	ErrImpactSignalsRequired:     true,
	ErrDuplicateImpactLabel:      true,
	ErrInvalidPolicyLabel:        true,
	ErrInvalidSanctionsLabel:     true,
	ErrInvalidMarketDemandLabel:  true,
	ErrInvalidEarningsLabel:      true,
	ErrInvalidCapexLabel:         true,
	ErrInvalidInfraLabel:         true,
	ErrInvalidSecurityLabel:      true,
	ErrInvalidImpactLabel:        true,
	ErrImpactEvidenceRequired:    true,
	ErrImpactEvidenceTooShort:    true,
	ErrInvalidImpactSignalFormat: true,
	ErrDuplicateImpactEvidence:   true,
	ErrLowQualityMismatch:        true,
	ErrDuplicateDedupeKey:        true,
	ErrOutdatedItem:              true,
	ErrStaleIncidentItem:         true,
}

// IsHardValidationError reports whether an error string must abort the
// run instead of falling back to the previous digest.
func IsHardValidationError(err string) bool {
	return hardValidationErrors[err]
}

var (
	koreanDatePattern  = regexp.MustCompile(`((?:19|20)\d{2})\s*년\s*(1[0-2]|0?[1-9])\s*월\s*(3[01]|[12]?\d)\s*일?`)
	numericDatePattern = regexp.MustCompile(`((?:19|20)\d{2})\s*[./-]\s*(1[0-2]|0?[1-9])\s*[./-]\s*(3[01]|[12]?\d)`)

	evidenceKeyStripRE = regexp.MustCompile(`[^a-z0-9가-힣]+`)
	particleSuffixRE   = regexp.MustCompile(`(은|는|이|가|을|를|에|의|도|와|과)$`)
	directionSuffixRE  = regexp.MustCompile(`(으로|에서)$`)
	urlSchemeRE        = regexp.MustCompile(`(?i)^https?://`)
	wwwPrefixRE        = regexp.MustCompile(`(?i)^www\.`)
)

var kstZone = time.FixedZone("KST", 9*60*60)

// NormalizationStats reports what validation normalization removed.
type NormalizationStats struct {
	BeforeCount       int
	AfterCount        int
	Dropped           int
	DropReasons       map[string]int
	DuplicateResolved int
}

// NormalizeDigest cleans every item, drops or downgrades invalid ones
// per the low-quality policy, resolves duplicate and near-duplicate
// items, and resequences IDs.
func NormalizeDigest(digest Digest, lowQualityPolicy string) (Digest, NormalizationStats) {
	date := textutil.CleanText(digest.Date)
	beforeCount := len(digest.Items)
	dropReasons := make(map[string]int)
	countDrop := func(reason string) {
		key := textutil.CleanText(reason)
		if key == "" {
			key = "dropped"
		}
		dropReasons[key]++
	}

	var filtered []Item
	for _, item := range digest.Items {
		normalized := normalizeItem(item, lowQualityPolicy)

		if normalized.Status == StatusDropped {
			reason := normalized.DropReason
			if reason == "" {
				reason = "dropped"
			}
			countDrop(reason)
			continue
		}

		if normalized.Importance >= 3 && len(normalized.ImpactSignals) == 0 {
			normalized.Importance = 2
			if !strings.Contains(normalized.QualityReason, "근거부족") {
				if normalized.QualityReason == "정보성 기사" {
					normalized.QualityReason = "근거부족"
				} else {
					normalized.QualityReason += " / 근거부족"
				}
			}
		}

		filtered = append(filtered, normalized)
	}

	deduped, duplicateResolved := resolveDuplicateDedupeItems(filtered)
	if duplicateResolved > 0 {
		dropReasons["duplicate"] += duplicateResolved
	}
	nearDeduped, nearDuplicateResolved := resolveNearDuplicateItems(deduped)
	if nearDuplicateResolved > 0 {
		dropReasons["duplicate_similarity"] += nearDuplicateResolved
	}

	for i := range nearDeduped {
		nearDeduped[i].ID = fmt.Sprintf("%s_%d", date, i+1)
	}

	stats := NormalizationStats{
		BeforeCount:       beforeCount,
		AfterCount:        len(nearDeduped),
		Dropped:           maxInt(0, beforeCount-len(nearDeduped)),
		DropReasons:       dropReasons,
		DuplicateResolved: duplicateResolved + nearDuplicateResolved,
	}

	out := digest
	out.Items = nearDeduped
	return out, stats
}

func normalizeItem(item Item, lowQualityPolicy string) Item {
	n := item
	n.Title = textutil.CleanText(item.Title)
	n.Category = textutil.CleanText(item.Category)
	n.DedupeKey = textutil.CleanText(item.DedupeKey)
	n.ClusterKey = textutil.CleanText(item.ClusterKey)
	n.SourceName = textutil.CleanText(item.SourceName)
	n.SourceURL = textutil.CleanText(item.SourceURL)
	n.PublishedAt = textutil.CleanText(item.PublishedAt)
	n.WhyImportant = textutil.CleanText(item.WhyImportant)
	n.ImportanceRationale = textutil.CleanText(item.ImportanceRationale)
	n.QualityReason = textutil.CleanText(item.QualityReason)
	if n.QualityReason == "" {
		n.QualityReason = "정보성 기사"
	}

	var summary []string
	for _, line := range item.Summary {
		cleaned := textutil.CleanText(line)
		if cleaned != "" {
			summary = append(summary, cleaned)
		}
		if len(summary) >= 3 {
			break
		}
	}
	if len(summary) == 0 && n.Title != "" {
		summary = []string{n.Title}
	}
	n.Summary = summary

	n.ImpactSignals = sanitizeImpactSignals(item.ImpactSignals)

	importance := n.Importance
	if importance == 0 {
		importance = 1
	}
	n.Importance = NormalizeDisplayImportance(importance)
	if n.ImportanceRaw != 0 {
		n.ImportanceRaw = clampInt(n.ImportanceRaw, 0, 100)
	} else {
		n.ImportanceRaw = DisplayToRawImportance(n.Importance)
	}

	if isOutdatedItem(&n) && !n.IsCarriedOver {
		n.Status = StatusDropped
		if n.DropReason == "" {
			n.DropReason = "outdated"
		}
	}

	incidentText := n.Title + " " + strings.Join(n.Summary, " ")
	if detectStaleIncident(n.Date, incidentText) && !n.IsCarriedOver {
		n.Status = StatusDropped
		if n.DropReason == "" {
			n.DropReason = "stale_incident"
		}
	}

	if n.QualityLabel == "low_quality" && n.Status != StatusDropped {
		if lowQualityPolicy == LowQualityPolicyDowngrade {
			capped := math.Min(n.Importance, math.Max(0, LowQualityDowngradeMaxImport))
			n.Importance = NormalizeDisplayImportance(capped)
			if raw := DisplayToRawImportance(n.Importance); n.ImportanceRaw > raw {
				n.ImportanceRaw = raw
			}
			n.ImportanceRationale = "근거: " + lowQualityDowngradeRationale
		} else {
			n.Status = StatusDropped
			if n.DropReason == "" {
				n.DropReason = "ai_low_quality:" + n.QualityReason
			}
		}
	}

	if n.Status == StatusDropped {
		n.QualityLabel = "low_quality"
	}
	return n
}

func sanitizeImpactSignals(signals []ImpactSignal) []ImpactSignal {
	var out []ImpactSignal
	seenLabel := make(map[string]bool)
	seenEvidence := make(map[string]bool)

	for _, entry := range signals {
		label := strings.ToLower(textutil.CleanText(entry.Label))
		evidence := textutil.CleanText(entry.Evidence)

		if !allowedImpactLabels[label] {
			continue
		}
		if evidence == "" || isEvidenceTooShort(evidence) {
			continue
		}
		if !labelEvidenceValid(label, evidence) {
			continue
		}
		if seenLabel[label] {
			continue
		}
		evidenceKey := normalizeEvidenceKey(evidence)
		if evidenceKey == "" || seenEvidence[evidenceKey] {
			continue
		}

		out = append(out, ImpactSignal{Label: label, Evidence: evidence})
		seenLabel[label] = true
		seenEvidence[evidenceKey] = true
		if len(out) >= 2 {
			break
		}
	}
	return out
}

// ValidateDigest is a pure check on the finished document. It returns
// the first violation found, or empty.
func ValidateDigest(digest *Digest, topLimit int) string {
	if digest == nil {
		return ErrInvalidDigest
	}
	items := digest.Items
	if len(items) < MinTopItems || len(items) > topLimit {
		return ErrInvalidDigest
	}
	if hasDuplicateDedupeKey(items) {
		return ErrDuplicateDedupeKey
	}

	for i := range items {
		item := &items[i]

		if isOutdatedItem(item) && item.Status != StatusDropped && !item.IsCarriedOver {
			return ErrOutdatedItem
		}

		summaryText := strings.Join(item.Summary, " ")
		if detectStaleIncident(item.Date, item.Title+" "+summaryText) &&
			item.Status != StatusDropped && !item.IsCarriedOver {
			return ErrStaleIncidentItem
		}

		if item.QualityLabel == "low_quality" && item.Status != StatusDropped &&
			!lowQualityExceptionOk(item) {
			return ErrLowQualityMismatch
		}

		if hasDuplicateImpactLabels(item.ImpactSignals) {
			return ErrDuplicateImpactLabel
		}
		if hasDuplicateImpactEvidence(item.ImpactSignals) {
			return ErrDuplicateImpactEvidence
		}

		for _, signal := range item.ImpactSignals {
			label := strings.ToLower(textutil.CleanText(signal.Label))
			evidence := textutil.CleanText(signal.Evidence)
			if label == "" {
				continue
			}
			if !allowedImpactLabels[label] {
				return ErrInvalidImpactLabel
			}
			if evidence == "" {
				return ErrImpactEvidenceRequired
			}
			if isEvidenceTooShort(evidence) {
				return ErrImpactEvidenceTooShort
			}
			if err := taxonomyError(label, evidence); err != "" {
				return err
			}
		}

		if item.Importance >= 3 && len(item.ImpactSignals) == 0 {
			return ErrImpactSignalsRequired
		}

		if item.Title == "" || item.SourceURL == "" {
			return ErrInvalidDigest
		}
		if len(item.Summary) == 0 {
			return ErrInvalidDigest
		}
		if item.DedupeKey == "" || item.SourceName == "" ||
			item.WhyImportant == "" || item.ImportanceRationale == "" ||
			item.QualityLabel == "" || item.QualityReason == "" ||
			item.Status == "" || item.Date == "" || item.Category == "" ||
			item.ID == "" {
			return ErrMissingField
		}
	}
	return ""
}

func taxonomyError(label, evidence string) string {
	switch label {
	case LabelPolicy:
		if !policyEvidenceValid(evidence) {
			return ErrInvalidPolicyLabel
		}
	case LabelSanctions:
		if !keywordEvidenceValid(evidence, sanctionsEvidenceKeywords) {
			return ErrInvalidSanctionsLabel
		}
	case LabelMarketDemand:
		if !keywordEvidenceValid(evidence, marketDemandEvidenceKeywords) {
			return ErrInvalidMarketDemandLabel
		}
	case LabelEarnings:
		if !earningsEvidenceValid(evidence) {
			return ErrInvalidEarningsLabel
		}
	case LabelCapex:
		if !capexEvidenceValid(evidence) {
			return ErrInvalidCapexLabel
		}
	case LabelInfra:
		if !keywordEvidenceValid(evidence, infraKeywords) {
			return ErrInvalidInfraLabel
		}
	case LabelSecurity:
		if !keywordEvidenceValid(evidence, securityEvidenceKeywords) {
			return ErrInvalidSecurityLabel
		}
	}
	return ""
}

func labelEvidenceValid(label, evidence string) bool {
	return taxonomyError(label, evidence) == ""
}

// policyEvidenceValid accepts only evidence that names a concrete policy
// instrument. Government plus negotiation language, or trade talk alone,
// is not enough.
func policyEvidenceValid(evidence string) bool {
	t := strings.ToLower(textutil.CleanText(evidence))
	if t == "" {
		return false
	}
	hasPolicyKeyword := strings.Contains(t, "policy") ||
		containsAny(t, policyStrongKeywords) ||
		strings.Contains(t, "법안") || strings.Contains(t, "규제") ||
		strings.Contains(t, "관세")
	if !hasPolicyKeyword {
		return false
	}
	return containsAny(t, policyStrongKeywords)
}

func keywordEvidenceValid(evidence string, keywords []string) bool {
	return containsAny(strings.ToLower(textutil.CleanText(evidence)), keywords)
}

func earningsEvidenceValid(evidence string) bool {
	t := strings.ToLower(textutil.CleanText(evidence))
	return containsAny(t, earningsMetricKeywords) && hasNumberToken(t)
}

func capexEvidenceValid(evidence string) bool {
	t := strings.ToLower(textutil.CleanText(evidence))
	if !containsAny(t, capexActionKeywords) {
		return false
	}
	return containsAny(t, capexPlanKeywords) || hasNumberToken(t)
}

func hasNumberToken(text string) bool {
	t := textutil.CleanText(text)
	if t == "" {
		return false
	}
	for _, r := range t {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return containsAny(strings.ToLower(t), numberUnitTokens)
}

func isEvidenceTooShort(text string) bool {
	t := textutil.CleanText(text)
	if t == "" {
		return true
	}
	if len([]rune(t)) < 20 {
		return true
	}
	return len(strings.Fields(t)) < 6
}

func normalizeEvidenceKey(text string) string {
	t := strings.ToLower(textutil.CleanText(text))
	if t == "" {
		return ""
	}
	return strings.TrimSpace(strings.Join(strings.Fields(evidenceKeyStripRE.ReplaceAllString(t, " ")), " "))
}

func lowQualityExceptionOk(item *Item) bool {
	why := textutil.CleanText(item.WhyImportant)
	rationale := textutil.CleanText(item.ImportanceRationale)
	if why == "판단 근거 부족" && rationale == "근거 부족으로 영향 판단 불가" && item.Importance == 1 {
		return true
	}
	return item.QualityReason != "" && item.Importance <= 2
}

func hasDuplicateDedupeKey(items []Item) bool {
	seen := make(map[string]bool)
	for i := range items {
		item := &items[i]
		if item.Status != StatusKept && item.Status != "published" {
			continue
		}
		key := textutil.CleanText(item.DedupeKey)
		if key == "" {
			continue
		}
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	return false
}

func hasDuplicateImpactLabels(signals []ImpactSignal) bool {
	seen := make(map[string]bool)
	for _, signal := range signals {
		label := strings.ToLower(textutil.CleanText(signal.Label))
		if label == "" {
			continue
		}
		if seen[label] {
			return true
		}
		seen[label] = true
	}
	return false
}

func hasDuplicateImpactEvidence(signals []ImpactSignal) bool {
	seen := make(map[string]bool)
	for _, signal := range signals {
		evidence := textutil.CleanText(signal.Evidence)
		if evidence == "" {
			continue
		}
		key := normalizeEvidenceKey(evidence)
		if key == "" {
			continue
		}
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	return false
}

// resolveDuplicateDedupeItems keeps the best ranked item per dedupe key.
func resolveDuplicateDedupeItems(items []Item) ([]Item, int) {
	byKey := make(map[string][]Item)
	var keyOrder []string
	var noKeyItems []Item
	for _, item := range items {
		key := textutil.CleanText(item.DedupeKey)
		if key == "" {
			noKeyItems = append(noKeyItems, item)
			continue
		}
		if _, ok := byKey[key]; !ok {
			keyOrder = append(keyOrder, key)
		}
		byKey[key] = append(byKey[key], item)
	}

	var kept []Item
	duplicateResolved := 0
	for _, key := range keyOrder {
		group := byKey[key]
		if len(group) == 1 {
			kept = append(kept, group[0])
			continue
		}
		winner := group[0]
		for _, item := range group[1:] {
			if itemRank(&item) > itemRank(&winner) {
				winner = item
			}
		}
		kept = append(kept, winner)
		duplicateResolved += len(group) - 1
	}

	kept = append(kept, noKeyItems...)
	var out []Item
	for _, item := range kept {
		if item.Status != StatusDropped {
			out = append(out, item)
		}
	}
	return out, duplicateResolved
}

// resolveNearDuplicateItems de-duplicates pairwise against the kept
// list, preferring the higher ranked item of each duplicate pair.
func resolveNearDuplicateItems(items []Item) ([]Item, int) {
	var kept []Item
	nearDuplicateResolved := 0

	for _, item := range items {
		duplicateIndex := -1
		for i := range kept {
			if isLikelyNearDuplicate(&item, &kept[i]) {
				duplicateIndex = i
				break
			}
		}
		if duplicateIndex < 0 {
			kept = append(kept, item)
			continue
		}
		nearDuplicateResolved++
		if itemRank(&item) > itemRank(&kept[duplicateIndex]) {
			kept[duplicateIndex] = item
		}
	}

	var out []Item
	for _, item := range kept {
		if item.Status != StatusDropped {
			out = append(out, item)
		}
	}
	return out, nearDuplicateResolved
}

func isLikelyNearDuplicate(a, b *Item) bool {
	keyA := textutil.CleanText(a.DedupeKey)
	keyB := textutil.CleanText(b.DedupeKey)
	if keyA != "" && keyA == keyB {
		return true
	}

	urlA := canonicalURL(a.SourceURL)
	urlB := canonicalURL(b.SourceURL)
	if urlA != "" && urlA == urlB {
		return true
	}

	titleA := strings.ToLower(textutil.CleanText(a.Title))
	titleB := strings.ToLower(textutil.CleanText(b.Title))
	if titleA != "" && titleB != "" && isTitleInclusionDuplicate(titleA, titleB) {
		return true
	}

	titleTokensA := similarityTokens(titleA)
	titleTokensB := similarityTokens(titleB)
	titleOverlap := textutil.OverlapCount(titleTokensA, titleTokensB)
	titleSimilarity := textutil.Jaccard(titleTokensA, titleTokensB)
	titleOverlapRatio := overlapRatio(titleTokensA, titleTokensB, titleOverlap)

	contentA := titleA + " " + strings.Join(a.Summary, " ")
	contentB := titleB + " " + strings.Join(b.Summary, " ")
	contentTokensA := similarityTokens(contentA)
	contentTokensB := similarityTokens(contentB)
	contentOverlap := textutil.OverlapCount(contentTokensA, contentTokensB)
	contentSimilarity := textutil.Jaccard(contentTokensA, contentTokensB)
	contentOverlapRatio := overlapRatio(contentTokensA, contentTokensB, contentOverlap)

	keySimilarity := 0.0
	if keyA != "" && keyB != "" {
		keySimilarity = textutil.NgramJaccard(textutil.NgramSet(keyA, 2), textutil.NgramSet(keyB, 2))
	}

	if titleSimilarity >= NearDupTitleJaccard && titleOverlap >= 4 {
		return true
	}
	if contentSimilarity >= NearDupContentJaccard && contentOverlap >= 5 && titleSimilarity >= 0.55 {
		return true
	}
	if keySimilarity >= NearDupKeyNgram && contentSimilarity >= 0.62 && contentOverlap >= 5 {
		return true
	}
	if titleOverlap >= 4 && titleOverlapRatio >= 0.5 &&
		contentOverlap >= 5 && contentOverlapRatio >= 0.5 {
		return true
	}
	return false
}

func isTitleInclusionDuplicate(a, b string) bool {
	if len([]rune(a)) < 28 || len([]rune(b)) < 28 {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// similarityTokens normalizes country/direction aliases and strips
// Korean particles before tokenizing, so 대중 규제 and 중국 통제 compare
// as the same story.
func similarityTokens(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, token := range textutil.TokenizeForDedupe(normalizeAliasText(text)) {
		token = canonicalizeToken(strings.ToLower(strings.TrimSpace(token)))
		if token == "" {
			continue
		}
		minLen := 3
		if textutil.HasHangul(token) {
			minLen = 2
		}
		if len([]rune(token)) < minLen {
			continue
		}
		if stopwords[token] || textutil.IsNumericToken(token) {
			continue
		}
		if seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out
}

var hanjaCountryReplacer = strings.NewReplacer(
	"美", "미국",
	"中", "중국",
	"日", "일본",
	"韓", "한국",
)

func normalizeAliasText(text string) string {
	return hanjaCountryReplacer.Replace(textutil.CleanText(text))
}

var tokenAliasMap = map[string]string{
	"통제": "규제", "통제를": "규제", "통제가": "규제", "통제는": "규제",
	"대중": "중국", "중국향": "중국",
	"대미": "미국", "미국향": "미국",
}

func canonicalizeToken(token string) string {
	if token == "" {
		return ""
	}
	out, ok := tokenAliasMap[token]
	if !ok {
		out = token
	}
	out = particleSuffixRE.ReplaceAllString(out, "")
	out = directionSuffixRE.ReplaceAllString(out, "")
	return out
}

func overlapRatio(a, b []string, intersection int) float64 {
	if intersection <= 0 || len(a) == 0 || len(b) == 0 {
		return 0
	}
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return float64(intersection) / float64(smaller)
}

// canonicalURL reduces a URL to host (minus www) plus path with the
// trailing slash stripped.
func canonicalURL(rawURL string) string {
	cleaned := strings.TrimSpace(textutil.CleanText(rawURL))
	if cleaned == "" {
		return ""
	}
	parsed, err := url.Parse(cleaned)
	if err == nil && parsed.Host != "" {
		host := strings.ToLower(wwwPrefixRE.ReplaceAllString(parsed.Hostname(), ""))
		path := strings.TrimRight(parsed.Path, "/")
		return host + path
	}
	fallback := urlSchemeRE.ReplaceAllString(cleaned, "")
	fallback = wwwPrefixRE.ReplaceAllString(fallback, "")
	if idx := strings.IndexAny(fallback, "?#"); idx >= 0 {
		fallback = fallback[:idx]
	}
	return strings.ToLower(strings.TrimRight(fallback, "/"))
}

// itemRank orders duplicates: quality first, then source tier,
// importance and recency.
func itemRank(item *Item) float64 {
	qualityOk := 0.0
	if item.QualityLabel == "ok" {
		qualityOk = 1
	}
	tier := float64(sourceTierRank(item.SourceName))
	publishedTs := 0.0
	if t := parseDateTime(item.PublishedAt); t != nil {
		publishedTs = float64(t.UnixMilli())
	}
	return qualityOk*1e9 + tier*1e6 + item.Importance*1e3 + publishedTs
}

func isOutdatedItem(item *Item) bool {
	published := parseDateTime(item.PublishedAt)
	base := parseDateBase(item.Date)
	if published == nil || base == nil {
		return false
	}
	diffHours := math.Abs(published.Sub(*base).Hours())

	hasExceptionSignal := false
	for _, signal := range item.ImpactSignals {
		label := strings.ToLower(textutil.CleanText(signal.Label))
		if topFreshExceptSignals[label] {
			hasExceptionSignal = true
			break
		}
	}
	limit := float64(TopFreshMaxHours)
	if hasExceptionSignal {
		limit = TopFreshExceptMaxHours
	}
	return diffHours > limit
}

func parseDateTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, time.RFC1123Z, time.RFC1123, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

func parseDateBase(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, kstZone)
	if err != nil {
		return nil
	}
	return &t
}

// detectStaleIncident looks for explicit event dates near incident
// wording and flags stories about incidents older than the stale
// window. Dates in earnings context do not count.
func detectStaleIncident(date, text string) bool {
	base := parseDateBase(date)
	if base == nil {
		return false
	}
	lowered := strings.ToLower(textutil.CleanText(text))
	if lowered == "" {
		return false
	}
	if !containsAny(lowered, staleIncidentTopicalKeywords) {
		return false
	}

	type dateCandidate struct {
		date  time.Time
		score int
	}
	var candidates []dateCandidate

	loweredRunes := []rune(lowered)
	for _, pattern := range []*regexp.Regexp{koreanDatePattern, numericDatePattern} {
		for _, match := range pattern.FindAllStringSubmatchIndex(lowered, -1) {
			sub := pattern.FindStringSubmatch(lowered[match[0]:match[1]])
			if len(sub) < 4 {
				continue
			}
			year := atoiSafe(sub[1])
			month := atoiSafe(sub[2])
			day := atoiSafe(sub[3])
			if year == 0 || month == 0 || day == 0 {
				continue
			}
			eventDate := time.Date(year, time.Month(month), day, 0, 0, 0, 0, kstZone)

			startByte := match[0]
			endByte := match[1]
			startRune := len([]rune(lowered[:startByte]))
			endRune := len([]rune(lowered[:endByte]))
			ctxStart := maxInt(0, startRune-50)
			ctxEnd := minInt(len(loweredRunes), endRune+60)
			context := string(loweredRunes[ctxStart:ctxEnd])

			score := 0
			if containsAny(context, incidentContextKeywords) {
				score += 2
			}
			if containsAny(context, nonEventDateContextKeywords) {
				score -= 2
			}
			if score > 0 {
				candidates = append(candidates, dateCandidate{date: eventDate, score: score})
			}
		}
	}

	if len(candidates) == 0 {
		return false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score || (c.score == best.score && c.date.Before(best.date)) {
			best = c
		}
	}
	ageDays := base.Sub(best.date).Hours() / 24
	return ageDays > StaleEventMaxDays
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

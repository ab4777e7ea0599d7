package digest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"dailydigest/internal/gemini"
	"dailydigest/internal/logger"
	"dailydigest/internal/metrics"
	"dailydigest/internal/scraper"
	"dailydigest/internal/textutil"
)

const enrichSystemPrompt = `You are a meticulous news editor for a daily digest.

Use ONLY the provided title and article text.
Do not add any facts or context beyond the provided text.
If the article is in English, write outputs in Korean.
Respond ONLY in valid JSON.

Output schema:
{
  "title_ko": string,
  "summary_lines": [string],
  "why_important": string,
  "importance_rationale": string,
  "dedupe_key": string,
  "importance_score": number,
  "impact_signals": [{"label": string, "evidence": string}],
  "category_label": string,
  "quality_label": string,
  "quality_reason": string,
  "quality_tags": [string]
}

Rules:
- summary_lines: 1-3 lines, concise factual Korean sentences.
- importance_score: 1.0-5.0 (0.5 step allowed).
- impact_signals labels allowed: policy, sanctions, capex, infra, security, earnings, market-demand.
- quality_label must be either ok or low_quality.
- importance_rationale must start with "근거:".
- Return JSON only.`

const progressInterval = 5

var categoryAliasKeyRE = regexp.MustCompile(`[\s_/]+`)

var fallbackWhyMap = map[string]string{
	LabelPolicy:       "정책/규제 변화는 산업 의사결정에 직접적인 영향을 줍니다.",
	LabelSanctions:    "제재 이슈는 공급망과 거래 리스크를 바꿀 수 있습니다.",
	LabelCapex:        "설비투자는 중장기 수급과 경쟁구도 변화에 연결됩니다.",
	LabelInfra:        "인프라 변화는 운영 안정성과 비용에 즉시 영향을 줍니다.",
	LabelSecurity:     "보안 이슈는 운영 리스크와 대응 비용을 크게 높일 수 있습니다.",
	LabelEarnings:     "실적 변화는 업황과 투자심리의 선행 신호가 될 수 있습니다.",
	LabelMarketDemand: "수요 변화는 시장 방향성을 판단하는 핵심 단서입니다.",
}

// Enricher runs the model-backed stages of the pipeline: importance
// scoring, semantic dedupe and final item enrichment. A nil client
// disables every stage, so the pipeline degrades to rule-only output.
type Enricher struct {
	llm     *gemini.Client
	fetcher *scraper.Scraper
	metrics *metrics.Metrics
}

func NewEnricher(llm *gemini.Client, fetcher *scraper.Scraper, m *metrics.Metrics) *Enricher {
	return &Enricher{llm: llm, fetcher: fetcher, metrics: m}
}

func (e *Enricher) enabled() bool {
	return e != nil && e.llm != nil
}

// ApplyAIImportance re-scores the strongest candidates with the model
// and folds the result into their pipeline score.
func (e *Enricher) ApplyAIImportance(ctx context.Context, items []*Candidate) {
	if !e.enabled() || len(items) == 0 {
		return
	}

	target := topCandidatesByScore(items, AIImportanceMaxItems)
	startedAt := time.Now()
	logger.Info("ai importance start", "target", len(target))

	e.prefetchFullText(ctx, target)

	enriched := 0
	for i, item := range target {
		ai := e.EnrichItem(ctx, item)
		if ai != nil {
			applyEnrichment(item, ai)
			weighted := (float64(ai.ImportanceRawScore) / 20) * AIImportanceWeight
			item.Score = round4(item.Score + weighted)
			enriched++
		}
		if shouldLogProgress(i+1, len(target)) {
			logger.Info("ai importance progress", "done", i+1, "total", len(target), "enriched", enriched)
		}
	}
	logger.Info("ai importance done",
		"target", len(target), "enriched", enriched, "elapsedMs", time.Since(startedAt).Milliseconds())
}

// ApplySemanticDedupe embeds the strongest candidates and merges pairs
// whose embeddings are close enough to be the same story. It returns
// the surviving candidates.
func (e *Enricher) ApplySemanticDedupe(ctx context.Context, items []*Candidate) []*Candidate {
	if !e.enabled() || len(items) == 0 {
		return items
	}

	target := topCandidatesByScore(items, AISemanticDedupeMaxItems)
	startedAt := time.Now()
	logger.Info("semantic dedupe start", "target", len(target))

	type keptEntry struct {
		item      *Candidate
		embedding []float32
	}
	var kept []keptEntry
	merged := 0

	for i, item := range target {
		text := embeddingText(item)
		if text != "" {
			embedding, err := e.llm.Embed(ctx, text)
			if err != nil {
				logger.WarnOnce("embedding_unavailable", "embedding failed", "title", item.Title, "error", err)
			} else if len(embedding) > 0 {
				var duplicateOf *Candidate
				for _, prev := range kept {
					if textutil.Cosine(embedding, prev.embedding) >= AISemanticDedupeThreshold {
						duplicateOf = prev.item
						break
					}
				}
				if duplicateOf != nil {
					item.Status = StatusMerged
					item.MergeReason = "semantic_duplicate"
					if duplicateOf.DedupeKey != "" {
						item.MatchedTo = duplicateOf.DedupeKey
					} else {
						item.MatchedTo = duplicateOf.Title
					}
					merged++
				} else {
					kept = append(kept, keptEntry{item: item, embedding: embedding})
				}
			}
		}
		if shouldLogProgress(i+1, len(target)) {
			logger.Info("semantic dedupe progress", "done", i+1, "total", len(target), "merged", merged)
		}
	}

	var filtered []*Candidate
	for _, item := range items {
		if item.Status != StatusMerged && item.Status != StatusDropped {
			filtered = append(filtered, item)
		}
	}
	logger.Info("semantic dedupe done",
		"target", len(target), "merged", merged, "elapsedMs", time.Since(startedAt).Milliseconds())
	return filtered
}

// EnrichSelectedItems fills in enrichment for selected candidates that
// the importance pass did not reach.
func (e *Enricher) EnrichSelectedItems(ctx context.Context, items []*Candidate) {
	if !e.enabled() || len(items) == 0 {
		return
	}
	startedAt := time.Now()
	logger.Info("ai enrich selected start", "target", len(items))

	e.prefetchFullText(ctx, items)

	enriched := 0
	for i, item := range items {
		if item.AI == nil {
			if ai := e.EnrichItem(ctx, item); ai != nil {
				applyEnrichment(item, ai)
				enriched++
			}
		}
		if shouldLogProgress(i+1, len(items)) {
			logger.Info("ai enrich selected progress", "done", i+1, "total", len(items), "enriched", enriched)
		}
	}
	logger.Info("ai enrich selected done",
		"target", len(items), "enriched", enriched, "elapsedMs", time.Since(startedAt).Milliseconds())
}

func (e *Enricher) prefetchFullText(ctx context.Context, items []*Candidate) {
	if e.fetcher == nil || len(items) == 0 {
		return
	}

	limit := minInt(len(items), ArticleFetchMaxItems)
	target := items[:limit]
	startedAt := time.Now()
	logger.Info("fulltext prefetch start", "target", len(target), "timeoutSec", ArticleFetchTimeoutSec)

	fetched := 0
	for i, item := range target {
		if len([]rune(item.FullText)) < ArticleFetchMinChars {
			fetchCtx, cancel := context.WithTimeout(ctx, ArticleFetchTimeoutSec*time.Second)
			text, err := e.fetcher.FetchArticleText(fetchCtx, item.Link)
			cancel()
			if err != nil {
				logger.WarnOnce("fulltext_unavailable", "fulltext fetch failed", "url", item.Link, "error", err)
			} else if len([]rune(text)) >= ArticleFetchMinChars {
				item.FullText = text
				fetched++
				e.metrics.IncArticlesFetched()
			}
		}
		if shouldLogProgress(i+1, len(target)) {
			logger.Info("fulltext prefetch progress", "done", i+1, "total", len(target), "fetched", fetched)
		}
	}
	logger.Info("fulltext prefetch done",
		"target", len(target), "fetched", fetched, "elapsedMs", time.Since(startedAt).Milliseconds())
}

// EnrichItem asks the model for the full editorial payload of one
// candidate. Returns nil when the model gives nothing usable.
func (e *Enricher) EnrichItem(ctx context.Context, c *Candidate) *Enrichment {
	if !e.enabled() {
		return nil
	}

	title := textutil.CleanText(c.Title)
	summary := textutil.CleanText(c.Summary)
	fullText := truncateRunes(textutil.CleanText(c.FullText), 6000)

	inputText := fullText
	if inputText == "" {
		inputText = summary
	}
	if inputText == "" {
		return nil
	}

	signalDetectText := strings.ToLower(title + " " + summary + " " + fullText)
	signalCandidates := ruleBasedImpactSignalCandidates(signalDetectText)

	userPrompt := strings.Join([]string{
		"Title: " + title,
		"ImpactSignalsHint: " + strings.Join(c.ImpactSignals, ", "),
		"ImpactSignalCandidates: " + strings.Join(signalCandidates, ", "),
		"Text: " + truncateRunes(inputText, AIInputMaxChars),
		"Return only JSON.",
	}, "\n")

	e.metrics.IncAICalls()
	payload, err := e.llm.GenerateJSON(ctx, enrichSystemPrompt, userPrompt)
	if err != nil {
		e.metrics.IncAIErrors()
		logger.WarnOnce("enrich_unavailable", "enrich failed", "title", title, "error", err)
		return nil
	}
	if payload == nil {
		return nil
	}

	titleKo := textutil.CleanText(asString(payload["title_ko"]))
	if titleKo == "" {
		titleKo = title
	}
	summaryLines := normalizeSummaryLines(payload["summary_lines"], titleKo, summary)

	whyImportant := textutil.CleanText(asString(payload["why_important"]))
	if whyImportant == "" {
		whyImportant = fallbackWhyImportant(c.ImpactSignals)
	}

	importanceRationale := textutil.CleanText(asString(payload["importance_rationale"]))
	if importanceRationale != "" && !strings.HasPrefix(importanceRationale, "근거:") {
		importanceRationale = "근거: " + importanceRationale
	}
	if importanceRationale == "" {
		importanceRationale = "근거: 본문 근거가 제한적이어서 보수적으로 중요도를 산정했습니다."
	}

	dedupeKey := textutil.CleanText(asString(payload["dedupe_key"]))
	if dedupeKey == "" {
		dedupeKey = textutil.CleanText(c.DedupeKey)
	}

	importanceValue, importanceOk := asNumber(payload["importance_score"])
	if !importanceOk {
		importanceValue, importanceOk = asNumber(payload["importance"])
	}
	importanceScore, importanceRawScore := normalizeModelImportance(importanceValue, importanceOk, c)

	impactSignals := normalizeModelImpactSignals(payload["impact_signals"], inputText)

	qualityLabel := "ok"
	if strings.ToLower(textutil.CleanText(asString(payload["quality_label"]))) == "low_quality" {
		qualityLabel = "low_quality"
	}
	qualityReason := textutil.CleanText(asString(payload["quality_reason"]))
	if qualityReason == "" {
		qualityReason = "정보성 기사"
	}
	qualityTags := normalizeStringArray(payload["quality_tags"], 6)

	categoryRaw := textutil.CleanText(asString(payload["category_label"]))
	categoryLabel := resolveCategoryLabel(categoryRaw, c, title, summary)

	if qualityLabel == "low_quality" {
		importanceScore = NormalizeDisplayImportance(minFloat(2, importanceScore))
		importanceRawScore = DisplayToRawImportance(importanceScore)
	}

	return &Enrichment{
		TitleKo:             titleKo,
		SummaryLines:        summaryLines,
		WhyImportant:        whyImportant,
		ImportanceRationale: importanceRationale,
		DedupeKey:           dedupeKey,
		ImportanceScore:     importanceScore,
		ImportanceRawScore:  importanceRawScore,
		ImpactSignals:       impactSignals,
		CategoryLabel:       categoryLabel,
		QualityLabel:        qualityLabel,
		QualityReason:       qualityReason,
		QualityTags:         qualityTags,
	}
}

func applyEnrichment(item *Candidate, ai *Enrichment) {
	item.AI = ai
	importance := ai.ImportanceScore
	importanceRaw := ai.ImportanceRawScore
	item.AIImportance = &importance
	item.AIImportanceRaw = &importanceRaw
	item.AICategory = ai.CategoryLabel
	item.AIQuality = ai.QualityLabel

	if len(ai.ImpactSignals) > 0 {
		labels := make([]string, 0, len(ai.ImpactSignals))
		for _, signal := range ai.ImpactSignals {
			labels = append(labels, signal.Label)
		}
		item.ImpactSignals = labels
	}
	if ai.DedupeKey != "" {
		item.DedupeKey = ai.DedupeKey
	}
}

func topCandidatesByScore(items []*Candidate, limit int) []*Candidate {
	var target []*Candidate
	for _, item := range items {
		if item.Status != StatusDropped && item.Status != StatusMerged {
			target = append(target, item)
		}
	}
	sort.SliceStable(target, func(i, j int) bool {
		return target[i].Score > target[j].Score
	})
	if len(target) > limit {
		target = target[:limit]
	}
	return target
}

func embeddingText(item *Candidate) string {
	aiSummary := ""
	if item.AI != nil {
		aiSummary = strings.Join(item.AI.SummaryLines, " ")
	}
	text := textutil.CleanText(item.Title + " " + item.Summary + " " + aiSummary + " " + item.FullText)
	return truncateRunes(text, 1600)
}

func normalizeModelImpactSignals(raw interface{}, evidenceText string) []ImpactSignal {
	var out []ImpactSignal
	used := make(map[string]bool)

	if list, ok := raw.([]interface{}); ok {
		for _, entry := range list {
			record, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			label := strings.ToLower(textutil.CleanText(asString(record["label"])))
			if !allowedImpactLabels[label] || used[label] {
				continue
			}
			evidence := truncateRunes(textutil.CleanText(asString(record["evidence"])), 280)
			if evidence == "" {
				continue
			}
			out = append(out, ImpactSignal{Label: label, Evidence: evidence})
			used[label] = true
			if len(out) >= 2 {
				break
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	// fallback: rule-detected keywords with a sentence excerpt
	lowered := strings.ToLower(evidenceText)
	for _, label := range impactSignalPriority {
		hit := ""
		for _, keyword := range impactSignalsMap[label] {
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				hit = keyword
				break
			}
		}
		if hit == "" {
			continue
		}
		evidence := findEvidenceExcerpt(evidenceText, hit)
		if evidence == "" {
			evidence = fmt.Sprintf("본문에서 %s 관련 근거가 확인되었습니다.", hit)
		}
		out = append(out, ImpactSignal{Label: label, Evidence: evidence})
		if len(out) >= 2 {
			break
		}
	}
	return out
}

func findEvidenceExcerpt(text, keyword string) string {
	source := textutil.CleanText(text)
	if source == "" {
		return ""
	}
	target := strings.ToLower(keyword)
	for _, sentence := range textutil.SplitSentences(source) {
		if strings.Contains(strings.ToLower(sentence), target) {
			return truncateRunes(sentence, 280)
		}
	}
	return truncateRunes(source, 280)
}

func normalizeSummaryLines(raw interface{}, title, fallbackSummary string) []string {
	var lines []string
	for _, line := range normalizeStringArray(raw, 3) {
		if line != title {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 {
		return lines
	}
	fallback := textutil.SplitSummaryLines(fallbackSummary)
	if len(fallback) > 3 {
		fallback = fallback[:3]
	}
	return fallback
}

func normalizeModelImportance(value float64, ok bool, c *Candidate) (float64, int) {
	if !ok {
		raw := InferImportanceRaw(c)
		return RawToDisplayImportance(raw), raw
	}
	if value > 5 {
		raw := clampInt(int(value+0.5), 0, 100)
		return RawToDisplayImportance(raw), raw
	}
	display := NormalizeDisplayImportance(value)
	return display, DisplayToRawImportance(display)
}

func fallbackWhyImportant(impactSignals []string) string {
	if len(impactSignals) == 0 {
		return "구조적 영향 가능성이 있어 모니터링이 필요한 이슈입니다."
	}
	if why, ok := fallbackWhyMap[impactSignals[0]]; ok {
		return why
	}
	return "구조적 영향 가능성이 있어 모니터링이 필요한 이슈입니다."
}

func ruleBasedImpactSignalCandidates(text string) []string {
	var out []string
	for _, label := range impactSignalPriority {
		for _, keyword := range impactSignalsMap[label] {
			if strings.Contains(text, strings.ToLower(keyword)) {
				out = append(out, label)
				break
			}
		}
		if len(out) >= 5 {
			break
		}
	}
	return out
}

func resolveCategoryLabel(categoryRaw string, c *Candidate, title, summary string) string {
	if categoryLabels[categoryRaw] {
		return categoryRaw
	}
	aliasKey := categoryAliasKeyRE.ReplaceAllString(strings.ToLower(categoryRaw), "")
	if alias, ok := categoryAliases[aliasKey]; ok && categoryLabels[alias] {
		return alias
	}
	mapped := MapTopicToCategory(c.Topic + " " + title + " " + summary)
	if categoryLabels[mapped] {
		return mapped
	}
	return "국제"
}

func normalizeStringArray(raw interface{}, limit int) []string {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, value := range list {
		s, ok := value.(string)
		if !ok {
			continue
		}
		cleaned := textutil.CleanText(s)
		if cleaned == "" || containsString(out, cleaned) {
			continue
		}
		out = append(out, cleaned)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func asString(value interface{}) string {
	s, _ := value.(string)
	return s
}

func asNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func shouldLogProgress(done, total int) bool {
	return done == total || done%progressInterval == 0
}

package digest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"dailydigest/internal/logger"
	"dailydigest/internal/metrics"
	"dailydigest/internal/rss"
	"dailydigest/internal/storage"
	"dailydigest/internal/textutil"
)

// Generator runs the full pipeline: fetch, filter, dedupe, select,
// enrich, validate and persist. Concurrent calls with the same
// parameters share one run.
type Generator struct {
	fetcher          *rss.Fetcher
	enricher         *Enricher
	store            *storage.Store
	archive          *storage.PostgresArchive
	metrics          *metrics.Metrics
	topLimit         int
	rebalanceEnabled bool
	lowQualityPolicy string

	group singleflight.Group
}

func NewGenerator(fetcher *rss.Fetcher, enricher *Enricher, store *storage.Store,
	archive *storage.PostgresArchive, m *metrics.Metrics, topLimit int,
	rebalanceEnabled bool, lowQualityPolicy string) *Generator {
	return &Generator{
		fetcher:          fetcher,
		enricher:         enricher,
		store:            store,
		archive:          archive,
		metrics:          m,
		topLimit:         topLimit,
		rebalanceEnabled: rebalanceEnabled,
		lowQualityPolicy: lowQualityPolicy,
	}
}

// ResolveTopLimit clamps a requested item count to the configured
// ceiling. Non-positive values fall back to the default.
func (g *Generator) ResolveTopLimit(raw int) int {
	limit := g.topLimit
	if limit <= 0 || limit > DefaultTopLimit {
		limit = DefaultTopLimit
	}
	if raw <= 0 {
		return limit
	}
	if raw < limit {
		return raw
	}
	return limit
}

// Generate produces today's digest, reusing the stored one when it is
// already current and force is false.
func (g *Generator) Generate(ctx context.Context, topLimit int, force bool) (*Digest, error) {
	nowKst := time.Now().In(kstZone)
	dateStr := nowKst.Format("2006-01-02")
	limit := g.ResolveTopLimit(topLimit)

	forceFlag := "0"
	if force {
		forceFlag = "1"
	}
	key := fmt.Sprintf("%s:%d:%s", dateStr, limit, forceFlag)

	result, err, _ := g.group.Do(key, func() (interface{}, error) {
		return g.generateCore(ctx, nowKst, dateStr, limit, force)
	})
	if err != nil {
		g.metrics.IncDigestFailures()
		return nil, err
	}
	return result.(*Digest), nil
}

func (g *Generator) generateCore(ctx context.Context, nowKst time.Time, dateStr string, topLimit int, force bool) (*Digest, error) {
	startedAt := time.Now()
	logger.Info("generate start", "date", dateStr, "topLimit", topLimit, "force", force)

	if !force {
		var existing Digest
		if g.store.ReadJSON(storage.DigestFile, &existing) &&
			existing.Date == dateStr && len(existing.Items) > 0 {
			g.metrics.IncDigestsReused()
			return clampDigestItems(&existing, topLimit), nil
		}
	}

	historyMap := g.store.LoadRecentClusterMap(dateStr, DedupeRecentDays)

	entries, err := g.fetcher.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("rss fetch: %w", err)
	}
	logger.Info("stage rss_fetch done",
		"entries", len(entries), "elapsedMs", time.Since(startedAt).Milliseconds())

	var seenTitles []string
	var seenDedupeKeys []string
	var candidates []*Candidate

	skipReasons := make(map[string]int)
	sourceDropReasons := make(map[string]map[string]int)
	topicInCounts := make(map[string]int)
	totalIn := 0

	for _, entry := range entries {
		totalIn++
		incrementCounter(topicInCounts, topicOrUnknown(entry.Topic), 1)

		title := textutil.CleanText(entry.Title)
		summary := textutil.CleanText(entry.Summary)
		sourceRaw := textutil.CleanText(entry.SourceName)
		sourceNormalized := textutil.NormalizeSourceName(sourceRaw)
		if sourceNormalized == "" {
			sourceNormalized = sourceRaw
		}
		sourceName := sourceRaw
		if sourceName == "" {
			sourceName = sourceNormalized
		}
		dropSource := sourceName
		if dropSource == "" {
			dropSource = topicOrUnknown(entry.Topic)
		}

		ageHours := computeAgeHours(entry.PublishedAt, nowKst)
		impactSignals := GetImpactSignals(strings.TrimSpace(title + " " + summary))

		if skipReason := GetSkipReason(title, summary, entry.Link, ageHours, impactSignals); skipReason != "" {
			incrementCounter(skipReasons, skipReason, 1)
			incrementNestedCounter(sourceDropReasons, dropSource, skipReason, 1)
			continue
		}

		dedupeKey := BuildDedupeKey(title, summary)
		clusterKey := BuildClusterKey(dedupeKey, title, summary)

		if clusterKey != "" {
			if _, ok := historyMap[clusterKey]; ok {
				incrementCounter(skipReasons, "carry_over_duplicate", 1)
				incrementNestedCounter(sourceDropReasons, dropSource, "carry_over_duplicate", 1)
				continue
			}
		}
		if IsTitleDuplicate(title, seenTitles) {
			incrementCounter(skipReasons, "duplicate_title", 1)
			incrementNestedCounter(sourceDropReasons, dropSource, "duplicate_title", 1)
			continue
		}
		if IsNearDuplicateByKey(dedupeKey, seenDedupeKeys) {
			incrementCounter(skipReasons, "duplicate_dedupe_key", 1)
			incrementNestedCounter(sourceDropReasons, dropSource, "duplicate_dedupe_key", 1)
			continue
		}

		readText := summary
		if readText == "" {
			readText = title
		}
		readTimeSec := textutil.EstimateReadTimeSec(readText)
		isBreaking := IsBreakingNews(title, summary)
		score := ScoreItem(impactSignals, readTimeSec, sourceNormalized, ageHours, isBreaking)

		candidates = append(candidates, &Candidate{
			Title:            title,
			Link:             entry.Link,
			Summary:          summary,
			Topic:            entry.Topic,
			SourceName:       sourceName,
			SourceRaw:        sourceRaw,
			SourceNormalized: sourceNormalized,
			PublishedAt:      entry.PublishedAt,
			AgeHours:         ageHours,
			ImpactSignals:    impactSignals,
			Score:            score,
			DedupeKey:        dedupeKey,
			ClusterKey:       clusterKey,
			ReadTimeSec:      readTimeSec,
			IsBreaking:       isBreaking,
		})
		seenTitles = append(seenTitles, title)
		seenDedupeKeys = append(seenDedupeKeys, dedupeKey)
	}
	logger.Info("stage candidate_filter done",
		"totalIn", totalIn, "candidates", len(candidates),
		"dropped", maxInt(0, totalIn-len(candidates)))

	aiStartedAt := time.Now()
	logger.Info("stage ai_importance start", "candidates", len(candidates))
	g.enricher.ApplyAIImportance(ctx, candidates)
	logger.Info("stage ai_importance done", "elapsedMs", time.Since(aiStartedAt).Milliseconds())

	dedupeStartedAt := time.Now()
	logger.Info("stage semantic_dedupe start", "candidates", len(candidates))
	dedupedCandidates := g.enricher.ApplySemanticDedupe(ctx, candidates)
	logger.Info("stage semantic_dedupe done",
		"in", len(candidates), "out", len(dedupedCandidates),
		"elapsedMs", time.Since(dedupeStartedAt).Milliseconds())

	for _, c := range candidates {
		if c.Status != StatusMerged && c.Status != StatusDropped {
			continue
		}
		reason := c.MergeReason
		if reason == "" {
			reason = c.DropReason
		}
		if reason == "" {
			reason = c.Status
		}
		incrementCounter(skipReasons, reason, 1)
		incrementNestedCounter(sourceDropReasons, candidateDropSource(c), reason, 1)
	}

	selected := SelectTopWithBreakingSlots(dedupedCandidates, topLimit, g.rebalanceEnabled)
	logger.Info("stage select done",
		"selected", len(selected), "topLimit", topLimit, "from", len(dedupedCandidates))

	selectedSet := make(map[*Candidate]bool, len(selected))
	for _, c := range selected {
		selectedSet[c] = true
	}
	for _, c := range dedupedCandidates {
		if selectedSet[c] {
			continue
		}
		incrementCounter(skipReasons, "not_selected", 1)
		incrementNestedCounter(sourceDropReasons, candidateDropSource(c), "not_selected", 1)
	}

	enrichStartedAt := time.Now()
	logger.Info("stage ai_enrich_selected start", "selected", len(selected))
	g.enricher.EnrichSelectedItems(ctx, selected)
	logger.Info("stage ai_enrich_selected done", "elapsedMs", time.Since(enrichStartedAt).Milliseconds())

	draft := buildDigestFromCandidates(dateStr, nowKst, selected)
	digest, validationStats := NormalizeDigest(draft, g.lowQualityPolicy)

	validationDroppedBySource := countValidationDroppedBySource(selected, digest.Items)
	validationDroppedTotal := 0
	for source, dropped := range validationDroppedBySource {
		if dropped <= 0 {
			continue
		}
		incrementNestedCounter(sourceDropReasons, source, "validation_dropped", dropped)
		validationDroppedTotal += dropped
	}
	if validationDroppedTotal > 0 {
		incrementCounter(skipReasons, "validation_dropped", validationDroppedTotal)
	}

	topicStats := buildTopicStats(topicInCounts, selected, digest.Items)
	breakingSelection := buildBreakingSelectionStats(dedupedCandidates, digest.Items)
	logger.Info("validation normalization",
		"before", validationStats.BeforeCount, "after", validationStats.AfterCount,
		"dropped", validationStats.Dropped, "duplicateResolved", validationStats.DuplicateResolved)

	if validationErr := ValidateDigest(&digest, DefaultTopLimit); validationErr != "" {
		if validationErr == ErrInvalidDigest && len(digest.Items) > 0 && len(digest.Items) < MinTopItems {
			logger.Warn("minimum item count not met, saving partial digest",
				"min", MinTopItems, "items", len(digest.Items))
		} else if IsHardValidationError(validationErr) {
			return nil, fmt.Errorf("digest validation: %s", validationErr)
		} else {
			var existing Digest
			if g.store.ReadJSON(storage.DigestFile, &existing) {
				if ValidateDigest(&existing, DefaultTopLimit) == "" {
					logger.Warn("digest invalid, keeping previous digest",
						"error", validationErr, "previousDate", existing.Date)
					return &existing, nil
				}
			}
			return nil, fmt.Errorf("digest generation failed: invalid %d~%d items and no valid existing file",
				MinTopItems, DefaultTopLimit)
		}
	}

	summary := buildMetricsSummary(&digest, totalIn, skipReasons, validationStats.DropReasons,
		topicStats, sourceDropReasons, breakingSelection)

	if err := g.store.WriteJSON(storage.DigestFile, digest); err != nil {
		return nil, fmt.Errorf("save digest: %w", err)
	}
	if err := g.store.WriteJSON(storage.MetricsFile, summary); err != nil {
		logger.Error("save metrics failed", "error", err)
	}
	clusterKeys := make([]string, 0, len(digest.Items))
	for i := range digest.Items {
		if key := digest.Items[i].ClusterKey; key != "" {
			clusterKeys = append(clusterKeys, key)
		}
	}
	if err := g.store.UpdateHistory(digest.Date, clusterKeys, DedupeRecentDays); err != nil {
		logger.Error("update history failed", "error", err)
	}
	if g.archive != nil {
		if err := g.archive.ArchiveDigest(digest.Date, digest); err != nil {
			logger.Error("archive digest failed", "date", digest.Date, "error", err)
		}
	}

	g.metrics.IncDigestsGenerated()
	logger.Info("generate done",
		"date", digest.Date, "items", len(digest.Items), "totalIn", totalIn,
		"elapsedMs", time.Since(startedAt).Milliseconds())
	return &digest, nil
}

// LoadDigest returns the stored digest, if any.
func (g *Generator) LoadDigest() (*Digest, bool) {
	var digest Digest
	if !g.store.ReadJSON(storage.DigestFile, &digest) {
		return nil, false
	}
	return &digest, true
}

// LoadMetricsSummary returns the stored pipeline report, if any.
func (g *Generator) LoadMetricsSummary() (*MetricsSummary, bool) {
	var summary MetricsSummary
	if !g.store.ReadJSON(storage.MetricsFile, &summary) {
		return nil, false
	}
	return &summary, true
}

func buildDigestFromCandidates(dateStr string, nowKst time.Time, selected []*Candidate) Digest {
	items := make([]Item, 0, len(selected))
	for i, c := range selected {
		ai := c.AI

		title := c.Title
		if ai != nil && ai.TitleKo != "" {
			title = ai.TitleKo
		}

		var summaryLines []string
		if ai != nil && len(ai.SummaryLines) > 0 {
			summaryLines = ai.SummaryLines
		} else {
			summaryLines = textutil.SplitSummaryLines(c.Summary)
		}

		var impactSignals []ImpactSignal
		if ai != nil && len(ai.ImpactSignals) > 0 {
			impactSignals = ai.ImpactSignals
		} else {
			impactSignals = buildFallbackImpactSignals(c, summaryLines)
		}

		importanceRaw := resolveImportanceRaw(c)
		importance := resolveImportance(c, importanceRaw)
		category := inferCandidateCategory(c)

		qualityLabel := ""
		if ai != nil {
			qualityLabel = ai.QualityLabel
		}
		if qualityLabel == "" {
			qualityLabel = c.AIQuality
		}
		if qualityLabel == "" {
			if len(summaryLines) >= 1 {
				qualityLabel = "ok"
			} else {
				qualityLabel = "low_quality"
			}
		}

		qualityReason := ""
		if ai != nil {
			qualityReason = ai.QualityReason
		}
		if qualityReason == "" {
			if qualityLabel == "ok" {
				qualityReason = "정보성 기사"
			} else {
				qualityReason = "요약 근거 부족"
			}
		}

		whyImportant := ""
		if ai != nil {
			whyImportant = ai.WhyImportant
		}
		if whyImportant == "" {
			whyImportant = buildWhyImportant(c, category)
		}

		importanceRationale := ""
		if ai != nil {
			importanceRationale = ai.ImportanceRationale
		}
		if importanceRationale == "" {
			importanceRationale = buildImportanceRationale(c, importance)
		}

		dedupeKey := c.DedupeKey
		if ai != nil && ai.DedupeKey != "" {
			dedupeKey = ai.DedupeKey
		}

		if len(summaryLines) == 0 {
			fallback := c.Summary
			if fallback == "" {
				fallback = c.Title
			}
			summaryLines = []string{fallback}
		}

		items = append(items, Item{
			ID:                  fmt.Sprintf("%s_%d", dateStr, i+1),
			Date:                dateStr,
			Category:            category,
			Title:               title,
			Summary:             summaryLines,
			WhyImportant:        whyImportant,
			ImportanceRationale: importanceRationale,
			ImpactSignals:       impactSignals,
			DedupeKey:           dedupeKey,
			ClusterKey:          c.ClusterKey,
			MatchedTo:           c.MatchedTo,
			SourceName:          c.SourceName,
			SourceURL:           c.Link,
			PublishedAt:         formatPublishedAt(c.PublishedAt),
			ReadTimeSec:         c.ReadTimeSec,
			Status:              StatusKept,
			Importance:          importance,
			ImportanceRaw:       importanceRaw,
			QualityLabel:        qualityLabel,
			QualityReason:       qualityReason,
			IsBriefing:          false,
			IsBreaking:          c.IsBreaking,
		})
	}

	return Digest{
		Date:              dateStr,
		SelectionCriteria: SelectionCriteria,
		EditorNote:        EditorNote,
		Question:          QuestionOfTheDay,
		LastUpdatedAt:     formatKstIso(nowKst),
		Items:             items,
	}
}

func resolveImportanceRaw(c *Candidate) int {
	if c.AI != nil {
		return c.AI.ImportanceRawScore
	}
	if c.AIImportanceRaw != nil {
		return *c.AIImportanceRaw
	}
	if c.AIImportance != nil {
		return DisplayToRawImportance(*c.AIImportance)
	}
	return InferImportanceRaw(c)
}

func resolveImportance(c *Candidate, importanceRaw int) float64 {
	if c.AI != nil {
		return NormalizeDisplayImportance(c.AI.ImportanceScore)
	}
	if c.AIImportance != nil {
		return NormalizeDisplayImportance(*c.AIImportance)
	}
	return RawToDisplayImportance(importanceRaw)
}

func buildFallbackImpactSignals(c *Candidate, summaryLines []string) []ImpactSignal {
	evidenceSource := ""
	if len(summaryLines) > 0 {
		evidenceSource = summaryLines[0]
	}
	if evidenceSource == "" {
		evidenceSource = c.Summary
	}
	if evidenceSource == "" {
		evidenceSource = c.Title
	}
	evidence := truncateRunes(textutil.CleanText(evidenceSource), 280)

	signals := make([]ImpactSignal, 0, len(c.ImpactSignals))
	for _, label := range c.ImpactSignals {
		signals = append(signals, ImpactSignal{Label: label, Evidence: evidence})
	}
	return signals
}

var candidateWhyMap = map[string]string{
	LabelPolicy:       "정책/규제 변화는 산업 의사결정에 직접적인 영향을 줍니다.",
	LabelSanctions:    "제재 이슈는 공급망과 거래 리스크를 크게 바꿀 수 있습니다.",
	LabelCapex:        "대규모 설비투자는 중장기 수급과 경쟁구도를 바꿀 가능성이 큽니다.",
	LabelInfra:        "인프라 이슈는 서비스 안정성과 비용에 즉시 영향을 줍니다.",
	LabelSecurity:     "보안 이슈는 운영 리스크와 규제 대응 부담을 키울 수 있습니다.",
	LabelEarnings:     "실적/가이던스 변화는 업황과 투자심리의 선행 신호가 될 수 있습니다.",
	LabelMarketDemand: "수요/가격 변화는 시장 방향성을 판단하는 핵심 지표입니다.",
}

func buildWhyImportant(c *Candidate, category string) string {
	if len(c.ImpactSignals) == 0 {
		return fmt.Sprintf("%s 카테고리에서 구조적 영향 가능성이 있어 추적이 필요한 이슈입니다.", category)
	}
	if why, ok := candidateWhyMap[c.ImpactSignals[0]]; ok {
		return why
	}
	return fmt.Sprintf("%s 카테고리에서 구조적 영향 가능성이 있어 추적이 필요한 이슈입니다.", category)
}

func buildImportanceRationale(c *Candidate, importance float64) string {
	labels := strings.Join(c.ImpactSignals, ", ")
	ageLabel := "발행시점 정보 없음"
	if c.AgeHours != nil {
		ageLabel = fmt.Sprintf("발행 후 약 %d시간", int(math.Round(*c.AgeHours)))
	}
	importanceText := formatImportance(importance)
	if labels == "" {
		return fmt.Sprintf("근거: %s, 출처 신뢰도와 주제 적합도를 반영해 중요도 %s로 산정.", ageLabel, importanceText)
	}
	return fmt.Sprintf("근거: 영향 신호(%s), %s, 출처 신뢰도를 종합해 중요도 %s로 산정.", labels, ageLabel, importanceText)
}

func buildMetricsSummary(digest *Digest, totalIn int, skipReasons, validationDropReasons map[string]int,
	topicStats map[string]TopicStat, sourceDropReasons map[string]map[string]int,
	breakingSelection *BreakingSelection) MetricsSummary {

	impactLabels := make(map[string]int)
	sources := make(map[string]int)
	categories := make(map[string]int)
	importanceDistribution := make(map[string]int)

	for i := range digest.Items {
		item := &digest.Items[i]
		sources[item.SourceName]++
		categories[item.Category]++
		importanceDistribution[formatImportance(item.Importance)]++
		for _, signal := range item.ImpactSignals {
			impactLabels[signal.Label]++
		}
	}

	maxPerSource := 0
	for _, count := range sources {
		if count > maxPerSource {
			maxPerSource = count
		}
	}

	return MetricsSummary{
		Type:                   "metrics_summary",
		Date:                   digest.Date,
		TotalIn:                totalIn,
		TotalOut:               len(digest.Items),
		Dropped:                totalIn - len(digest.Items),
		DropReasons:            mergeDropReasons(skipReasons, validationDropReasons),
		ImpactLabels:           impactLabels,
		Sources:                sources,
		TopicStats:             topicStats,
		SourceDropReasons:      compressSourceDropReasons(sourceDropReasons, SourceDropNotSelectedTopN),
		BreakingSelectionStats: breakingSelection,
		Categories:             categories,
		ImportanceDistribution: importanceDistribution,
		TopDiversity: TopDiversity{
			UniqueSources:    len(sources),
			UniqueCategories: len(categories),
			MaxPerSource:     maxPerSource,
		},
	}
}

func mergeDropReasons(preFilter, validation map[string]int) map[string]int {
	merged := make(map[string]int)
	for key, value := range preFilter {
		merged[key] += value
	}
	for key, value := range validation {
		merged[key] += value
	}
	return merged
}

// compressSourceDropReasons keeps per-source not_selected counts only
// for the busiest sources and folds the rest into __others__.
func compressSourceDropReasons(sourceDropReasons map[string]map[string]int, notSelectedTopN int) map[string]map[string]int {
	if sourceDropReasons == nil {
		return nil
	}
	if notSelectedTopN < 0 {
		notSelectedTopN = 0
	}

	type ranked struct {
		source string
		count  int
	}
	var ranking []ranked
	for source, reasons := range sourceDropReasons {
		if count := reasons["not_selected"]; count > 0 {
			ranking = append(ranking, ranked{source: source, count: count})
		}
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].count != ranking[j].count {
			return ranking[i].count > ranking[j].count
		}
		return ranking[i].source < ranking[j].source
	})
	keep := make(map[string]bool)
	for i, entry := range ranking {
		if i >= notSelectedTopN {
			break
		}
		keep[entry.source] = true
	}

	compressed := make(map[string]map[string]int)
	otherNotSelected := 0
	for source, reasons := range sourceDropReasons {
		next := make(map[string]int)
		for reason, count := range reasons {
			if count <= 0 {
				continue
			}
			if reason == "not_selected" && !keep[source] {
				otherNotSelected += count
				continue
			}
			next[reason] = count
		}
		if len(next) > 0 {
			compressed[source] = next
		}
	}
	if otherNotSelected > 0 {
		others := compressed["__others__"]
		if others == nil {
			others = make(map[string]int)
			compressed["__others__"] = others
		}
		others["not_selected"] += otherNotSelected
	}
	return compressed
}

func buildTopicStats(topicInCounts map[string]int, selected []*Candidate, finalItems []Item) map[string]TopicStat {
	topicOutCounts := make(map[string]int)
	topicBySourceURL := make(map[string][]string)

	for _, c := range selected {
		key := sourceURLKey(c.SourceName, c.Link)
		topicBySourceURL[key] = append(topicBySourceURL[key], topicOrUnknown(c.Topic))
	}
	for i := range finalItems {
		key := sourceURLKey(finalItems[i].SourceName, finalItems[i].SourceURL)
		topic := "unknown"
		if bucket := topicBySourceURL[key]; len(bucket) > 0 {
			topic = bucket[0]
			topicBySourceURL[key] = bucket[1:]
		}
		topicOutCounts[topic]++
	}

	stats := make(map[string]TopicStat)
	for topic, inCount := range topicInCounts {
		outCount := topicOutCounts[topic]
		stats[topic] = TopicStat{In: inCount, Out: outCount, Dropped: maxInt(0, inCount-outCount)}
	}
	for topic, outCount := range topicOutCounts {
		if _, ok := stats[topic]; !ok {
			stats[topic] = TopicStat{In: 0, Out: outCount, Dropped: 0}
		}
	}
	return stats
}

func buildBreakingSelectionStats(candidatePool []*Candidate, finalItems []Item) *BreakingSelection {
	breakingCandidates := 0
	for _, c := range candidatePool {
		if c.IsBreaking {
			breakingCandidates++
		}
	}
	selectedBreaking := 0
	for i := range finalItems {
		if finalItems[i].IsBreaking {
			selectedBreaking++
		}
	}

	stats := &BreakingSelection{
		Candidates: breakingCandidates,
		Selected:   selectedBreaking,
	}
	if breakingCandidates > 0 {
		stats.SelectionRate = round4(float64(selectedBreaking) / float64(breakingCandidates))
	}
	if len(finalItems) > 0 {
		stats.SelectedShare = round4(float64(selectedBreaking) / float64(len(finalItems)))
	}
	return stats
}

// countValidationDroppedBySource matches final items back to the
// selected candidates by source and URL, and attributes the missing
// ones to their source.
func countValidationDroppedBySource(selected []*Candidate, finalItems []Item) map[string]int {
	keptBySourceURL := make(map[string]int)
	for i := range finalItems {
		keptBySourceURL[sourceURLKey(finalItems[i].SourceName, finalItems[i].SourceURL)]++
	}

	droppedBySource := make(map[string]int)
	for _, c := range selected {
		key := sourceURLKey(c.SourceName, c.Link)
		if keptBySourceURL[key] > 0 {
			keptBySourceURL[key]--
			continue
		}
		droppedBySource[candidateDropSource(c)]++
	}
	return droppedBySource
}

func sourceURLKey(sourceName, url string) string {
	return strings.ToLower(textutil.CleanText(sourceName)) + "|" + textutil.CleanText(url)
}

func candidateDropSource(c *Candidate) string {
	if c.SourceName != "" {
		return c.SourceName
	}
	return topicOrUnknown(c.Topic)
}

func topicOrUnknown(topic string) string {
	topic = textutil.CleanText(topic)
	if topic == "" {
		return "unknown"
	}
	return topic
}

func incrementCounter(target map[string]int, key string, amount int) {
	safeKey := textutil.CleanText(key)
	if safeKey == "" {
		safeKey = "unknown"
	}
	if amount < 0 {
		amount = 0
	}
	target[safeKey] += amount
}

func incrementNestedCounter(target map[string]map[string]int, outerKey, innerKey string, amount int) {
	outer := textutil.CleanText(outerKey)
	if outer == "" {
		outer = "unknown"
	}
	inner := textutil.CleanText(innerKey)
	if inner == "" {
		inner = "unknown"
	}
	if amount < 0 {
		amount = 0
	}
	if target[outer] == nil {
		target[outer] = make(map[string]int)
	}
	target[outer][inner] += amount
}

func clampDigestItems(digest *Digest, topLimit int) *Digest {
	if len(digest.Items) <= topLimit {
		return digest
	}
	clamped := *digest
	clamped.Items = digest.Items[:topLimit]
	return &clamped
}

func computeAgeHours(publishedAt *time.Time, now time.Time) *float64 {
	if publishedAt == nil {
		return nil
	}
	hours := now.Sub(*publishedAt).Hours()
	return &hours
}

func formatPublishedAt(publishedAt *time.Time) string {
	if publishedAt == nil {
		return ""
	}
	return publishedAt.In(kstZone).Format(time.RFC3339)
}

func formatKstIso(t time.Time) string {
	return t.In(kstZone).Format("2006-01-02T15:04:05.000+09:00")
}

func formatImportance(importance float64) string {
	return strconv.FormatFloat(importance, 'f', -1, 64)
}

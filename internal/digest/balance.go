package digest

import (
	"sort"
	"strings"

	"dailydigest/internal/textutil"
)

var coreBuckets = []string{"정책", "경제", "국제", "기술"}
var balanceFillOrder = []string{"국제", "경제", "정책", "기술"}

// SelectTopWithBreakingSlots picks the top items, forces the breaking
// slot minimum when breaking candidates exist, then rebalances
// categories.
func SelectTopWithBreakingSlots(allItems []*Candidate, limit int, rebalanceEnabled bool) []*Candidate {
	if limit <= 0 || len(allItems) == 0 {
		return nil
	}

	baseSelected := PickTopWithDiversity(allItems, limit)
	requiredBreaking := BreakingMinSlots
	if limit < requiredBreaking {
		requiredBreaking = limit
	}
	if requiredBreaking <= 0 {
		return rebalanceSelectedByCategory(allItems, baseSelected, limit, rebalanceEnabled)
	}

	var breakingPool []*Candidate
	for _, item := range allItems {
		if item.IsBreaking {
			breakingPool = append(breakingPool, item)
		}
	}
	if len(breakingPool) == 0 {
		return rebalanceSelectedByCategory(allItems, baseSelected, limit, rebalanceEnabled)
	}

	currentBreaking := 0
	for _, item := range baseSelected {
		if item.IsBreaking {
			currentBreaking++
		}
	}
	if currentBreaking >= requiredBreaking {
		return rebalanceSelectedByCategory(allItems, baseSelected, limit, rebalanceEnabled)
	}

	forcedCount := requiredBreaking
	if len(breakingPool) < forcedCount {
		forcedCount = len(breakingPool)
	}
	forcedBreaking := PickTopWithDiversity(breakingPool, forcedCount)
	forcedSet := make(map[*Candidate]bool, len(forcedBreaking))
	for _, item := range forcedBreaking {
		forcedSet[item] = true
	}

	var remainderPool []*Candidate
	for _, item := range allItems {
		if !forcedSet[item] {
			remainderPool = append(remainderPool, item)
		}
	}
	remainderLimit := limit - len(forcedBreaking)
	if remainderLimit < 0 {
		remainderLimit = 0
	}
	remainder := PickTopWithDiversity(remainderPool, remainderLimit)

	withBreaking := append(append([]*Candidate{}, forcedBreaking...), remainder...)
	sort.SliceStable(withBreaking, func(i, j int) bool {
		return withBreaking[i].Score > withBreaking[j].Score
	})
	if len(withBreaking) > limit {
		withBreaking = withBreaking[:limit]
	}
	return rebalanceSelectedByCategory(allItems, withBreaking, limit, rebalanceEnabled)
}

// inferCandidateCategory resolves the display category: model label when
// present, topic mapping otherwise, with an international override for
// geopolitics-flavored policy/economy items.
func inferCandidateCategory(c *Candidate) string {
	inferred := ""
	if c.AI != nil {
		inferred = textutil.CleanText(c.AI.CategoryLabel)
	}
	if inferred == "" {
		inferred = textutil.CleanText(c.AICategory)
	}
	if inferred == "" {
		inferred = MapTopicToCategory(c.Topic)
	}
	if inferred == "" {
		return "국제"
	}

	context := strings.ToLower(textutil.CleanText(c.Topic + " " + c.Title + " " + c.Summary))
	hasInternational := containsAny(context, internationalCategoryHints)
	hasDomesticPolicy := containsAny(context, domesticPolicyHints)

	if hasInternational && !hasDomesticPolicy &&
		(inferred == "정책" || inferred == "경제" || inferred == "금융") {
		return "국제"
	}
	if inferred == "금융" {
		return "경제"
	}
	return inferred
}

func inferBalanceBucket(c *Candidate) string {
	category := inferCandidateCategory(c)
	switch category {
	case "에너지":
		return "기술"
	case "금융":
		return "경제"
	}
	return category
}

func rebalanceSelectedByCategory(allItems, selected []*Candidate, limit int, enabled bool) []*Candidate {
	if !enabled || len(selected) == 0 || limit < 8 {
		return selected
	}

	selectedSet := make(map[*Candidate]bool, len(selected))
	bucketCounts := make(map[string]int)
	sourceCounts := make(map[string]int)
	for _, item := range selected {
		selectedSet[item] = true
		bucketCounts[inferBalanceBucket(item)]++
		sourceCounts[strings.ToLower(textutil.CleanText(item.SourceName))]++
	}

	availableByBucket := make(map[string][]*Candidate)
	for _, item := range allItems {
		bucket := inferBalanceBucket(item)
		if !containsString(coreBuckets, bucket) {
			continue
		}
		availableByBucket[bucket] = append(availableByBucket[bucket], item)
	}
	for _, group := range availableByBucket {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Score > group[j].Score
		})
	}

	var activeBuckets []string
	for _, bucket := range coreBuckets {
		if len(availableByBucket[bucket]) > 0 {
			activeBuckets = append(activeBuckets, bucket)
		}
	}
	if len(activeBuckets) <= 1 {
		return selected
	}

	targets := buildBalanceTargets(limit, activeBuckets, availableByBucket)
	maxTarget := 0
	for _, bucket := range activeBuckets {
		if targets[bucket] > maxTarget {
			maxTarget = targets[bucket]
		}
	}
	maxPerBucket := maxTarget + 1
	if share := int(float64(limit) * TopCategoryMaxShare); share > maxPerBucket {
		maxPerBucket = share
	}

	maxAttempts := len(allItems) * 2
	if maxAttempts < 16 {
		maxAttempts = 16
	}

	for _, bucket := range activeBuckets {
		targetMin := targets[bucket]
		if avail := len(availableByBucket[bucket]); avail < targetMin {
			targetMin = avail
		}
		attempts := 0
		for bucketCounts[bucket] < targetMin && attempts < maxAttempts {
			attempts++
			replacement := findBestReplacement(availableByBucket[bucket], selectedSet, sourceCounts, nil)
			if replacement == nil {
				break
			}
			removed := findRemovable(selected, bucketCounts, targets, bucket)
			if removed == nil {
				break
			}
			swapSelected(selected, removed, replacement, selectedSet, bucketCounts, sourceCounts)
		}
	}

	for attempts := 0; attempts < maxAttempts; attempts++ {
		overBucket := ""
		overCount := 0
		for bucket, count := range bucketCounts {
			if count > maxPerBucket && count > overCount {
				overBucket = bucket
				overCount = count
			}
		}
		if overBucket == "" {
			break
		}
		removed := findLowestFromBucket(selected, overBucket)
		if removed == nil {
			break
		}
		replacement := findBestReplacement(allItems, selectedSet, sourceCounts, func(c *Candidate) bool {
			bucket := inferBalanceBucket(c)
			if !containsString(activeBuckets, bucket) {
				return false
			}
			return bucketCounts[bucket] < maxPerBucket
		})
		if replacement == nil {
			break
		}
		swapSelected(selected, removed, replacement, selectedSet, bucketCounts, sourceCounts)
	}

	out := append([]*Candidate{}, selected...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func buildBalanceTargets(limit int, activeBuckets []string, availableByBucket map[string][]*Candidate) map[string]int {
	targets := make(map[string]int)
	if len(activeBuckets) == 0 || limit <= 0 {
		return targets
	}

	var fillOrder []string
	for _, bucket := range balanceFillOrder {
		if containsString(activeBuckets, bucket) {
			fillOrder = append(fillOrder, bucket)
		}
	}
	hasAllCore := len(activeBuckets) == len(coreBuckets)

	if hasAllCore {
		othersBase := (limit - 1) / 4
		if othersBase < 1 {
			othersBase = 1
		}
		targets["정책"] = othersBase
		targets["경제"] = othersBase
		targets["국제"] = othersBase
		targets["기술"] = othersBase + 1
	} else {
		base := limit / len(activeBuckets)
		if base < 1 {
			base = 1
		}
		for _, bucket := range activeBuckets {
			targets[bucket] = base
		}
	}

	assigned := 0
	for _, target := range targets {
		assigned += target
	}
	remaining := limit - assigned
	for attempts := 0; remaining > 0 && attempts < 64; attempts++ {
		receiver := pickSpreadReceiver(fillOrder, targets, availableByBucket)
		if receiver == "" {
			break
		}
		targets[receiver]++
		remaining--
	}

	overflow := 0
	for _, bucket := range activeBuckets {
		if avail := len(availableByBucket[bucket]); targets[bucket] > avail {
			overflow += targets[bucket] - avail
			targets[bucket] = avail
		}
	}
	for attempts := 0; overflow > 0 && attempts < 64; attempts++ {
		receiver := pickSpreadReceiver(fillOrder, targets, availableByBucket)
		if receiver == "" {
			break
		}
		targets[receiver]++
		overflow--
	}

	assigned = 0
	for _, target := range targets {
		assigned += target
	}
	for toReduce := assigned - limit; toReduce > 0; toReduce-- {
		donor := ""
		donorTarget := 0
		for _, bucket := range fillOrder {
			if targets[bucket] > donorTarget {
				donor = bucket
				donorTarget = targets[bucket]
			}
		}
		if donor == "" {
			break
		}
		targets[donor]--
	}

	return targets
}

// pickSpreadReceiver chooses the bucket with the lowest target that
// still has spare candidates, in fill order.
func pickSpreadReceiver(fillOrder []string, targets map[string]int, availableByBucket map[string][]*Candidate) string {
	receiver := ""
	receiverTarget := 0
	for _, bucket := range fillOrder {
		if targets[bucket] >= len(availableByBucket[bucket]) {
			continue
		}
		if receiver == "" || targets[bucket] < receiverTarget {
			receiver = bucket
			receiverTarget = targets[bucket]
		}
	}
	return receiver
}

func findBestReplacement(candidates []*Candidate, selectedSet map[*Candidate]bool, sourceCounts map[string]int, predicate func(*Candidate) bool) *Candidate {
	for _, candidate := range candidates {
		if selectedSet[candidate] {
			continue
		}
		if predicate != nil && !predicate(candidate) {
			continue
		}
		source := strings.ToLower(textutil.CleanText(candidate.SourceName))
		if sourceCounts[source] >= SourceMaxPerOutlet {
			continue
		}
		return candidate
	}
	return nil
}

// findRemovable picks the lowest scored non-breaking item from a bucket
// that sits above its target, never touching the protected bucket.
func findRemovable(selected []*Candidate, bucketCounts, targets map[string]int, protectedBucket string) *Candidate {
	sorted := append([]*Candidate{}, selected...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score < sorted[j].Score
	})
	for _, candidate := range sorted {
		if candidate.IsBreaking {
			continue
		}
		bucket := inferBalanceBucket(candidate)
		if protectedBucket != "" && bucket == protectedBucket {
			continue
		}
		if bucketCounts[bucket] > targets[bucket] {
			return candidate
		}
	}
	if protectedBucket != "" {
		for _, candidate := range sorted {
			if candidate.IsBreaking {
				continue
			}
			if inferBalanceBucket(candidate) != protectedBucket {
				return candidate
			}
		}
	}
	for _, candidate := range sorted {
		if !candidate.IsBreaking {
			return candidate
		}
	}
	return nil
}

func findLowestFromBucket(selected []*Candidate, bucket string) *Candidate {
	var inBucket []*Candidate
	for _, item := range selected {
		if inferBalanceBucket(item) == bucket {
			inBucket = append(inBucket, item)
		}
	}
	sort.SliceStable(inBucket, func(i, j int) bool {
		return inBucket[i].Score < inBucket[j].Score
	})
	for _, item := range inBucket {
		if !item.IsBreaking {
			return item
		}
	}
	if len(inBucket) > 0 {
		return inBucket[0]
	}
	return nil
}

func swapSelected(selected []*Candidate, removed, added *Candidate, selectedSet map[*Candidate]bool, bucketCounts, sourceCounts map[string]int) {
	idx := -1
	for i, item := range selected {
		if item == removed {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	selected[idx] = added
	delete(selectedSet, removed)
	selectedSet[added] = true

	removedBucket := inferBalanceBucket(removed)
	addedBucket := inferBalanceBucket(added)
	if bucketCounts[removedBucket] > 0 {
		bucketCounts[removedBucket]--
	}
	bucketCounts[addedBucket]++

	removedSource := strings.ToLower(textutil.CleanText(removed.SourceName))
	addedSource := strings.ToLower(textutil.CleanText(added.SourceName))
	if sourceCounts[removedSource] > 0 {
		sourceCounts[removedSource]--
	}
	sourceCounts[addedSource]++
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package digest

import (
	"testing"
	"time"
)

func TestResolveTopLimit(t *testing.T) {
	g := &Generator{topLimit: 10}
	cases := []struct {
		raw  int
		want int
	}{
		{0, 10},
		{-3, 10},
		{5, 5},
		{10, 10},
		{50, 10},
	}
	for _, c := range cases {
		if got := g.ResolveTopLimit(c.raw); got != c.want {
			t.Errorf("ResolveTopLimit(%d) = %d, want %d", c.raw, got, c.want)
		}
	}

	unset := &Generator{}
	if got := unset.ResolveTopLimit(0); got != DefaultTopLimit {
		t.Errorf("unset limit: got %d, want %d", got, DefaultTopLimit)
	}
	oversized := &Generator{topLimit: 99}
	if got := oversized.ResolveTopLimit(0); got != DefaultTopLimit {
		t.Errorf("oversized limit: got %d, want %d", got, DefaultTopLimit)
	}
}

func TestCompressSourceDropReasons(t *testing.T) {
	input := map[string]map[string]int{
		"연합뉴스":  {"not_selected": 9, "hard_excluded_keyword": 2},
		"한국경제":  {"not_selected": 5},
		"매일경제":  {"not_selected": 3},
		"어느블로그": {"not_selected": 1},
	}
	out := compressSourceDropReasons(input, 2)

	if out["연합뉴스"]["not_selected"] != 9 {
		t.Errorf("top source not kept: %v", out["연합뉴스"])
	}
	if out["연합뉴스"]["hard_excluded_keyword"] != 2 {
		t.Errorf("non not_selected reason lost: %v", out["연합뉴스"])
	}
	if out["한국경제"]["not_selected"] != 5 {
		t.Errorf("second source not kept: %v", out["한국경제"])
	}
	if _, ok := out["매일경제"]; ok {
		t.Errorf("folded source still present: %v", out["매일경제"])
	}
	if out["__others__"]["not_selected"] != 4 {
		t.Errorf("__others__ = %v, want not_selected 4", out["__others__"])
	}
}

func TestCompressSourceDropReasonsNoFolding(t *testing.T) {
	input := map[string]map[string]int{
		"연합뉴스": {"not_selected": 2},
	}
	out := compressSourceDropReasons(input, 30)
	if _, ok := out["__others__"]; ok {
		t.Errorf("unexpected __others__ bucket: %v", out)
	}
	if out["연합뉴스"]["not_selected"] != 2 {
		t.Errorf("source lost: %v", out)
	}
}

func TestMergeDropReasons(t *testing.T) {
	merged := mergeDropReasons(
		map[string]int{"not_selected": 3, "outdated": 1},
		map[string]int{"outdated": 2, "duplicate": 1},
	)
	if merged["not_selected"] != 3 || merged["outdated"] != 3 || merged["duplicate"] != 1 {
		t.Errorf("merged = %v", merged)
	}
}

func TestBuildTopicStats(t *testing.T) {
	selected := []*Candidate{
		{SourceName: "연합뉴스", Link: "https://example.com/a", Topic: "IT"},
		{SourceName: "연합뉴스", Link: "https://example.com/b", Topic: "경제"},
		{SourceName: "한국경제", Link: "https://example.com/c", Topic: "IT"},
	}
	finalItems := []Item{
		{SourceName: "연합뉴스", SourceURL: "https://example.com/a"},
		{SourceName: "한국경제", SourceURL: "https://example.com/c"},
	}
	stats := buildTopicStats(map[string]int{"IT": 10, "경제": 4, "보안": 2}, selected, finalItems)

	if got := stats["IT"]; got.In != 10 || got.Out != 2 || got.Dropped != 8 {
		t.Errorf("IT = %+v", got)
	}
	if got := stats["경제"]; got.In != 4 || got.Out != 0 || got.Dropped != 4 {
		t.Errorf("경제 = %+v", got)
	}
	if got := stats["보안"]; got.In != 2 || got.Out != 0 {
		t.Errorf("보안 = %+v", got)
	}
}

func TestBuildTopicStatsSharedURL(t *testing.T) {
	// Two candidates with the same source and URL consume the queue in order.
	selected := []*Candidate{
		{SourceName: "연합뉴스", Link: "https://example.com/a", Topic: "IT"},
		{SourceName: "연합뉴스", Link: "https://example.com/a", Topic: "경제"},
	}
	finalItems := []Item{
		{SourceName: "연합뉴스", SourceURL: "https://example.com/a"},
	}
	stats := buildTopicStats(map[string]int{"IT": 1, "경제": 1}, selected, finalItems)
	if stats["IT"].Out != 1 {
		t.Errorf("first queued topic should win: %+v", stats["IT"])
	}
	if stats["경제"].Out != 0 {
		t.Errorf("경제 = %+v", stats["경제"])
	}
}

func TestCountValidationDroppedBySource(t *testing.T) {
	selected := []*Candidate{
		{SourceName: "연합뉴스", Link: "https://example.com/a"},
		{SourceName: "한국경제", Link: "https://example.com/b"},
		{SourceName: "", Topic: "IT", Link: "https://example.com/c"},
	}
	finalItems := []Item{
		{SourceName: "연합뉴스", SourceURL: "https://example.com/a"},
	}
	dropped := countValidationDroppedBySource(selected, finalItems)
	if dropped["한국경제"] != 1 {
		t.Errorf("dropped = %v", dropped)
	}
	if dropped["IT"] != 1 {
		t.Errorf("source-less candidate should fall back to topic: %v", dropped)
	}
	if _, ok := dropped["연합뉴스"]; ok {
		t.Errorf("kept candidate counted as dropped: %v", dropped)
	}
}

func TestBuildBreakingSelectionStats(t *testing.T) {
	pool := []*Candidate{
		{IsBreaking: true},
		{IsBreaking: true},
		{IsBreaking: true},
		{IsBreaking: false},
	}
	finalItems := []Item{
		{IsBreaking: true},
		{IsBreaking: false},
	}
	stats := buildBreakingSelectionStats(pool, finalItems)
	if stats.Candidates != 3 || stats.Selected != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.SelectionRate != 0.3333 {
		t.Errorf("selectionRate = %v, want 0.3333", stats.SelectionRate)
	}
	if stats.SelectedShare != 0.5 {
		t.Errorf("selectedShare = %v, want 0.5", stats.SelectedShare)
	}
}

func TestBuildImportanceRationale(t *testing.T) {
	age := 3.4
	withSignals := &Candidate{ImpactSignals: []string{LabelPolicy, LabelCapex}, AgeHours: &age}
	got := buildImportanceRationale(withSignals, 3.5)
	want := "근거: 영향 신호(policy, capex), 발행 후 약 3시간, 출처 신뢰도를 종합해 중요도 3.5로 산정."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	noSignals := &Candidate{}
	got = buildImportanceRationale(noSignals, 2)
	want = "근거: 발행시점 정보 없음, 출처 신뢰도와 주제 적합도를 반영해 중요도 2로 산정."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatImportance(t *testing.T) {
	if got := formatImportance(3); got != "3" {
		t.Errorf("got %q, want 3", got)
	}
	if got := formatImportance(3.5); got != "3.5" {
		t.Errorf("got %q, want 3.5", got)
	}
}

func TestComputeAgeHours(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	published := now.Add(-90 * time.Minute)
	age := computeAgeHours(&published, now)
	if age == nil || *age != 1.5 {
		t.Errorf("age = %v, want 1.5", age)
	}
	if computeAgeHours(nil, now) != nil {
		t.Errorf("nil publishedAt should yield nil age")
	}
	future := now.Add(2 * time.Hour)
	age = computeAgeHours(&future, now)
	if age == nil || *age != -2 {
		t.Errorf("future publish should keep the negative delta, got %v", age)
	}
}

func TestResolveImportancePrecedence(t *testing.T) {
	enriched := &Candidate{AI: &Enrichment{ImportanceRawScore: 80, ImportanceScore: 4.5}}
	if got := resolveImportanceRaw(enriched); got != 80 {
		t.Errorf("raw = %d, want 80", got)
	}
	if got := resolveImportance(enriched, 80); got != 4.5 {
		t.Errorf("importance = %v, want 4.5", got)
	}

	display := 3.5
	displayOnly := &Candidate{AIImportance: &display}
	if got := resolveImportanceRaw(displayOnly); got != DisplayToRawImportance(3.5) {
		t.Errorf("raw = %d, want %d", got, DisplayToRawImportance(3.5))
	}
	if got := resolveImportance(displayOnly, 63); got != 3.5 {
		t.Errorf("importance = %v, want 3.5", got)
	}

	plain := &Candidate{Title: "일반 기사"}
	raw := resolveImportanceRaw(plain)
	if raw < 0 || raw > 100 {
		t.Errorf("raw out of range: %d", raw)
	}
	if got := resolveImportance(plain, raw); got != RawToDisplayImportance(raw) {
		t.Errorf("importance = %v, want %v", got, RawToDisplayImportance(raw))
	}
}

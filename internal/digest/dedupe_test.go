package digest

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuildDedupeKeyStable(t *testing.T) {
	key := BuildDedupeKey("삼성전자 반도체 공장 증설 발표", "평택 신규 라인 투자")
	if key == "" || key == "news" {
		t.Fatalf("expected real key, got %q", key)
	}
	again := BuildDedupeKey("삼성전자 반도체 공장 증설 발표", "평택 신규 라인 투자")
	if key != again {
		t.Errorf("key not stable: %q vs %q", key, again)
	}

	parts := strings.Split(key, "-")
	if len(parts) > 8 {
		t.Errorf("key has %d parts, want <= 8", len(parts))
	}
	for i := 1; i < len(parts); i++ {
		if parts[i-1] > parts[i] {
			t.Errorf("key parts not sorted: %q", key)
			break
		}
	}
}

func TestBuildDedupeKeyEmptyFallback(t *testing.T) {
	if key := BuildDedupeKey("", ""); key != "news" {
		t.Errorf("empty input key = %q, want news", key)
	}
}

func TestBuildClusterKeyRelationAndDomain(t *testing.T) {
	key := BuildClusterKey("", "미국 중국 반도체 수출 규제 확대", "파운드리 공급망 영향")
	if !strings.HasPrefix(key, "미중/") {
		t.Errorf("key %q should start with 미중/", key)
	}
	if !strings.Contains(key, "반도체") {
		t.Errorf("key %q should contain the 반도체 domain", key)
	}
}

func TestBuildClusterKeyEmpty(t *testing.T) {
	if key := BuildClusterKey("", "", ""); key != "" {
		t.Errorf("got %q, want empty", key)
	}
}

func TestIsTitleDuplicate(t *testing.T) {
	seen := []string{"삼성전자 평택 반도체 공장 증설 발표"}
	if !IsTitleDuplicate("삼성전자 평택 반도체 공장 증설 공식 발표", seen) {
		t.Errorf("near-identical title should be duplicate")
	}
	if IsTitleDuplicate("한국은행 기준금리 동결 결정", seen) {
		t.Errorf("unrelated title should not be duplicate")
	}
}

func TestIsNearDuplicateByKey(t *testing.T) {
	existing := []string{"공장-반도체-발표-삼성전자-증설-투자-평택"}
	if !IsNearDuplicateByKey("공장-반도체-발표-삼성전자-증설-평택", existing) {
		t.Errorf("overlapping keys should be near duplicates")
	}
	if IsNearDuplicateByKey("동결-금리-은행-한국", existing) {
		t.Errorf("disjoint keys should not be near duplicates")
	}
}

func TestPickTopWithDiversityCapsPerSource(t *testing.T) {
	var items []*Candidate
	for i := 0; i < 5; i++ {
		items = append(items, &Candidate{
			Title:      fmt.Sprintf("한경 기사 %d", i),
			SourceName: "한국경제",
			Score:      10 - float64(i),
		})
	}
	for i := 0; i < 3; i++ {
		items = append(items, &Candidate{
			Title:      fmt.Sprintf("연합 기사 %d", i),
			SourceName: "연합뉴스",
			Score:      5 - float64(i),
		})
	}

	picked := PickTopWithDiversity(items, 4)
	if len(picked) != 4 {
		t.Fatalf("picked %d, want 4", len(picked))
	}
	counts := make(map[string]int)
	for _, item := range picked {
		counts[item.SourceName]++
	}
	if counts["한국경제"] != SourceMaxPerOutlet {
		t.Errorf("한국경제 count = %d, want %d", counts["한국경제"], SourceMaxPerOutlet)
	}
	if counts["연합뉴스"] != 2 {
		t.Errorf("연합뉴스 count = %d, want 2", counts["연합뉴스"])
	}
}

func TestPickTopWithDiversityBackfill(t *testing.T) {
	var items []*Candidate
	for i := 0; i < 6; i++ {
		items = append(items, &Candidate{
			Title:      fmt.Sprintf("기사 %d", i),
			SourceName: "단일출처",
			Score:      10 - float64(i),
		})
	}
	picked := PickTopWithDiversity(items, 5)
	if len(picked) != 5 {
		t.Errorf("backfill should ignore the cap, got %d items", len(picked))
	}
}

func TestPickTopWithDiversityShortInput(t *testing.T) {
	items := []*Candidate{{Title: "하나", Score: 1}}
	picked := PickTopWithDiversity(items, 10)
	if len(picked) != 1 {
		t.Errorf("got %d, want 1", len(picked))
	}
}

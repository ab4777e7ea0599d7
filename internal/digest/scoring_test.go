package digest

import "testing"

func TestRawToDisplayImportance(t *testing.T) {
	cases := []struct {
		raw  int
		want float64
	}{
		{0, 1.0},
		{63, 3.5},
		{100, 5.0},
	}
	for _, c := range cases {
		if got := RawToDisplayImportance(c.raw); got != c.want {
			t.Errorf("RawToDisplayImportance(%d) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestImportanceRoundTripIdempotent(t *testing.T) {
	for _, display := range []float64{1.0, 1.5, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0} {
		raw := DisplayToRawImportance(display)
		back := RawToDisplayImportance(raw)
		if back != display {
			t.Errorf("round trip %v -> %d -> %v", display, raw, back)
		}
	}
}

func TestNormalizeDisplayImportance(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{3.4, 3.5},
		{3.24, 3.0},
		{0.2, 1.0},
		{9.0, 5.0},
	}
	for _, c := range cases {
		if got := NormalizeDisplayImportance(c.in); got != c.want {
			t.Errorf("NormalizeDisplayImportance(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestGetSkipReasonHardExcludedKeyword(t *testing.T) {
	age := 3.0
	reason := GetSkipReason("AI 정책 웨비나 개최", "무료 신청 접수를 시작합니다", "https://example.com/a", &age, nil)
	if reason != "hard_excluded_keyword" {
		t.Errorf("got %q, want hard_excluded_keyword", reason)
	}
}

func TestGetSkipReasonMacroOverride(t *testing.T) {
	age := 3.0
	title := "미국 고용 리포트 발표, 금리 경로 재평가"
	signals := GetImpactSignals(title)
	reason := GetSkipReason(title, "", "https://example.com/report/123", &age, signals)
	if reason != "" {
		t.Errorf("macro keyword with fresh age should survive, got %q", reason)
	}
}

func TestGetSkipReasonMissingPublishedAt(t *testing.T) {
	reason := GetSkipReason("삼성전자 반도체 증설 발표", "내용", "https://example.com/b", nil, nil)
	if reason != "missing_published_at" {
		t.Errorf("got %q, want missing_published_at", reason)
	}
}

func TestGetSkipReasonOutdated(t *testing.T) {
	age := 100.0
	reason := GetSkipReason("삼성전자 신제품 공개", "내용", "https://example.com/c", &age, nil)
	if reason != "outdated" {
		t.Errorf("got %q, want outdated", reason)
	}
}

func TestGetImpactSignalsPriorityAndCap(t *testing.T) {
	text := "정부 규제 법안과 수출통제 제재, 증설 투자, 보안 취약점"
	signals := GetImpactSignals(text)
	if len(signals) != 2 {
		t.Fatalf("got %d signals, want 2", len(signals))
	}
	if signals[0] != LabelPolicy {
		t.Errorf("first signal = %q, want policy", signals[0])
	}
	if signals[1] != LabelSanctions {
		t.Errorf("second signal = %q, want sanctions", signals[1])
	}
}

func TestScoreItemSourceTier(t *testing.T) {
	age := 2.0
	tierA := ScoreItem([]string{LabelPolicy}, 60, "연합뉴스", &age, false)
	tierB := ScoreItem([]string{LabelPolicy}, 60, "조선일보", &age, false)
	unknown := ScoreItem([]string{LabelPolicy}, 60, "어느블로그", &age, false)
	if tierA <= tierB || tierB <= unknown {
		t.Errorf("tier ordering broken: A=%v B=%v unknown=%v", tierA, tierB, unknown)
	}
}

func TestScoreItemBreakingBoost(t *testing.T) {
	age := 2.0
	base := ScoreItem([]string{LabelPolicy}, 60, "조선", &age, false)
	boosted := ScoreItem([]string{LabelPolicy}, 60, "조선", &age, true)
	if diff := boosted - base; diff < 0.59 || diff > 0.61 {
		t.Errorf("breaking boost = %v, want 0.6", diff)
	}
}

func TestInferImportanceRawBounds(t *testing.T) {
	age := 1.0
	c := &Candidate{
		ImpactSignals: []string{LabelPolicy, LabelSanctions},
		SourceName:    "조선",
		AgeHours:      &age,
		ReadTimeSec:   60,
		IsBreaking:    true,
	}
	raw := InferImportanceRaw(c)
	if raw < 0 || raw > 100 {
		t.Fatalf("raw importance %d out of range", raw)
	}
	empty := &Candidate{}
	if raw := InferImportanceRaw(empty); raw < 0 || raw > 100 {
		t.Fatalf("raw importance %d out of range for empty candidate", raw)
	}
}

func TestIsBreakingNews(t *testing.T) {
	if !IsBreakingNews("[속보] 한국은행 기준금리 동결", "") {
		t.Errorf("속보 prefix should be breaking")
	}
	if IsBreakingNews("한국은행 기준금리 동결", "정례 보도자료") {
		t.Errorf("plain title should not be breaking")
	}
}

func TestMapTopicToCategory(t *testing.T) {
	cases := []struct {
		topic string
		want  string
	}{
		{"글로벌_정세", "국제"},
		{"국내_금융_통화정책", "정책"},
		{"투자_MA_IPO", "금융"},
		{"IT", "기술"},
		{"전력_인프라", "에너지"},
		{"알수없는주제", "국제"},
	}
	for _, c := range cases {
		if got := MapTopicToCategory(c.topic); got != c.want {
			t.Errorf("MapTopicToCategory(%q) = %q, want %q", c.topic, got, c.want)
		}
	}
}

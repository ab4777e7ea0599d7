package textutil

import (
	"strings"
	"testing"
)

func TestCleanTextStripsMarkupAndEntities(t *testing.T) {
	in := "<![CDATA[<b>삼성전자</b> &amp; SK하이닉스&nbsp;투자   확대]]>"
	got := CleanText(in)
	want := "삼성전자 & SK하이닉스 투자 확대"
	if got != want {
		t.Errorf("CleanText = %q, want %q", got, want)
	}
}

func TestCleanTextEmpty(t *testing.T) {
	if got := CleanText("   "); got != "" {
		t.Errorf("CleanText(whitespace) = %q, want empty", got)
	}
}

func TestTrimTitleNoiseBreakingPrefix(t *testing.T) {
	got := TrimTitleNoise("[속보] 반도체 수출 통제 발표 - 연합뉴스", "연합뉴스")
	if !strings.HasPrefix(got, "속보 ") {
		t.Errorf("breaking marker lost: %q", got)
	}
	if strings.Contains(got, "연합뉴스") {
		t.Errorf("outlet suffix kept: %q", got)
	}
}

func TestTrimTitleNoiseLabelPrefix(t *testing.T) {
	got := TrimTitleNoise("[단독] 정부, 데이터센터 전력 요금 개편 추진", "")
	if strings.Contains(got, "단독") {
		t.Errorf("label prefix kept: %q", got)
	}
}

func TestSplitSummaryLinesMaxThreeUnique(t *testing.T) {
	summary := "첫 문장입니다. 둘째 문장입니다. 첫 문장입니다. 셋째 문장입니다. 넷째 문장입니다."
	lines := SplitSummaryLines(summary)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %v", len(lines), lines)
	}
	seen := map[string]bool{}
	for _, line := range lines {
		if seen[line] {
			t.Errorf("duplicate line %q", line)
		}
		seen[line] = true
	}
}

func TestSplitSummaryLinesFallback(t *testing.T) {
	lines := SplitSummaryLines("짧은요약")
	if len(lines) != 1 || lines[0] != "짧은요약" {
		t.Errorf("fallback = %v", lines)
	}
}

func TestTokenizeForDedupe(t *testing.T) {
	tokens := TokenizeForDedupe("AI 반도체, 수출-규제 (2024)")
	want := []string{"ai", "반도체", "수출", "규제", "2024"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestNormalizeSourceName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"조선일보", "조선"},
		{"한국경제 신문", "한국경제"},
		{"Bloomberg", "Bloomberg"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeSourceName(c.in); got != c.want {
			t.Errorf("NormalizeSourceName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEstimateReadTimeSecClamps(t *testing.T) {
	if got := EstimateReadTimeSec(""); got != 10 {
		t.Errorf("empty = %d, want 10", got)
	}
	long := strings.Repeat("word ", 2000)
	if got := EstimateReadTimeSec(long); got != 120 {
		t.Errorf("long = %d, want 120", got)
	}
	if got := EstimateReadTimeSec("one two"); got != 10 {
		t.Errorf("short = %d, want 10", got)
	}
}

func TestEstimateReadTimeSecRoundsUp(t *testing.T) {
	// 220 words/min means partial seconds count as a full second.
	cases := []struct {
		words int
		want  int
	}{
		{220, 60},
		{221, 61},
		{257, 71},
		{110, 30},
	}
	for _, c := range cases {
		text := strings.TrimSpace(strings.Repeat("word ", c.words))
		if got := EstimateReadTimeSec(text); got != c.want {
			t.Errorf("%d words = %d sec, want %d", c.words, got, c.want)
		}
	}
}

func TestJaccard(t *testing.T) {
	a := []string{"ai", "반도체", "수출"}
	b := []string{"ai", "반도체", "규제"}
	got := Jaccard(a, b)
	if got < 0.49 || got > 0.51 {
		t.Errorf("Jaccard = %f, want 0.5", got)
	}
	if Jaccard(nil, b) != 0 {
		t.Errorf("Jaccard(nil, b) != 0")
	}
}

func TestNgramJaccardIdentical(t *testing.T) {
	a := NgramSet("수출 규제 강화", 2)
	b := NgramSet("수출-규제 강화", 2)
	if got := NgramJaccard(a, b); got != 1 {
		t.Errorf("NgramJaccard = %f, want 1", got)
	}
}

func TestCosine(t *testing.T) {
	if got := Cosine([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Errorf("identical vectors = %f", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Errorf("orthogonal = %f", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{1}); got != 0 {
		t.Errorf("mismatched dims = %f, want 0", got)
	}
}

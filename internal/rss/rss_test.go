package rss

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dailydigest/internal/metrics"
)

func TestSplitGoogleNewsTitle(t *testing.T) {
	cases := []struct {
		in         string
		wantTitle  string
		wantOutlet string
	}{
		{"반도체 수출 증가 - 연합뉴스", "반도체 수출 증가", "연합뉴스"},
		{"제목에 구분자가 없는 경우", "제목에 구분자가 없는 경우", ""},
		{"앞부분 - 중간 - 한국경제", "앞부분 - 중간", "한국경제"},
		{" - 한국경제", "- 한국경제", ""},
	}
	for _, c := range cases {
		title, outlet := splitGoogleNewsTitle(c.in)
		if title != c.wantTitle || outlet != c.wantOutlet {
			t.Errorf("splitGoogleNewsTitle(%q) = %q, %q; want %q, %q",
				c.in, title, outlet, c.wantTitle, c.wantOutlet)
		}
	}
}

func TestWithGoogleFreshnessHint(t *testing.T) {
	searchURL := "https://news.google.com/rss/search?q=%EB%B0%98%EB%8F%84%EC%B2%B4&hl=ko"
	cases := []struct {
		name   string
		url    string
		window string
		want   string
	}{
		{
			name:   "appends window",
			url:    searchURL,
			window: "1d",
			want:   "https://news.google.com/rss/search?hl=ko&q=%EB%B0%98%EB%8F%84%EC%B2%B4+when%3A1d",
		},
		{
			name:   "accepts when prefix",
			url:    searchURL,
			window: "when:12h",
			want:   "https://news.google.com/rss/search?hl=ko&q=%EB%B0%98%EB%8F%84%EC%B2%B4+when%3A12h",
		},
		{
			name:   "empty window unchanged",
			url:    searchURL,
			window: "",
			want:   searchURL,
		},
		{
			name:   "off disables",
			url:    searchURL,
			window: "off",
			want:   searchURL,
		},
		{
			name:   "query already hinted",
			url:    "https://news.google.com/rss/search?q=ai+when%3A7d",
			window: "1d",
			want:   "https://news.google.com/rss/search?q=ai+when%3A7d",
		},
		{
			name:   "non google host unchanged",
			url:    "https://example.com/rss/search?q=ai",
			window: "1d",
			want:   "https://example.com/rss/search?q=ai",
		},
		{
			name:   "non search path unchanged",
			url:    "https://news.google.com/rss?hl=ko",
			window: "1d",
			want:   "https://news.google.com/rss?hl=ko",
		},
	}
	for _, c := range cases {
		if got := withGoogleFreshnessHint(c.url, c.window); got != c.want {
			t.Errorf("%s: got %q, want %q", c.name, got, c.want)
		}
	}
}

func TestNewFetcherParsesConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feeds.yaml")
	content := `feeds:
  - name: "테스트 피드"
    url: "https://news.google.com/rss/search?q=test"
    topic: "IT"
    limit: 5
    freshness: "1d"
  - name: "두 번째 피드"
    url: "https://news.google.com/rss/search?q=other"
    topic: "경제"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	f, err := NewFetcher(path, metrics.New(), 4, 10*time.Second, "")
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	if len(f.feeds) != 2 {
		t.Fatalf("got %d feeds, want 2", len(f.feeds))
	}
	if f.feeds[0].Name != "테스트 피드" || f.feeds[0].Topic != "IT" || f.feeds[0].Limit != 5 {
		t.Errorf("first feed = %+v", f.feeds[0])
	}
	if f.feeds[0].Freshness != "1d" {
		t.Errorf("freshness = %q, want 1d", f.feeds[0].Freshness)
	}
	if f.feeds[1].Limit != 0 {
		t.Errorf("missing limit should be zero, got %d", f.feeds[1].Limit)
	}
}

func TestNewFetcherRejectsEmptyConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feeds.yaml")
	if err := os.WriteFile(path, []byte("feeds: []\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := NewFetcher(path, metrics.New(), 4, 10*time.Second, ""); err == nil {
		t.Errorf("empty feed list should fail")
	}
}

func TestNewFetcherMissingFile(t *testing.T) {
	if _, err := NewFetcher(filepath.Join(t.TempDir(), "missing.yaml"), metrics.New(), 4, time.Second, ""); err == nil {
		t.Errorf("missing config file should fail")
	}
}

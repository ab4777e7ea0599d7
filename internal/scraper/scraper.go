// Package scraper pulls article body text for AI enrichment. Short or
// boilerplate-only pages are discarded so the model is not fed chrome.
package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"dailydigest/internal/textutil"
)

const minArticleChars = 300

type Scraper struct {
	client *http.Client
}

func New(timeout time.Duration) *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: timeout},
	}
}

// FetchArticleText downloads a page and extracts readable body text.
// Returns empty string (no error) when the page yields less than the
// minimum useful length.
func (s *Scraper) FetchArticleText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; dailydigest/1.0)")
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}
	body := extractText(doc)
	if len([]rune(body)) < minArticleChars {
		return "", nil
	}
	return body, nil
}

func extractText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside, form, iframe").Remove()

	selectors := []string{
		"article",
		"#articleBody", "#article-body", "#newsct_article",
		".article_body", ".article-body", ".news_body", ".article_txt",
		"main",
	}
	for _, sel := range selectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if text := collectParagraphs(node); len([]rune(text)) >= minArticleChars {
				return text
			}
		}
	}
	return collectParagraphs(doc.Find("body"))
}

func collectParagraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := textutil.CleanText(p.Text())
		if len([]rune(text)) >= 20 {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		return textutil.CleanText(sel.Text())
	}
	return strings.Join(parts, "\n")
}

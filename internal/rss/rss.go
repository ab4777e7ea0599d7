// Package rss fetches candidate articles from configured news feeds.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"dailydigest/internal/logger"
	"dailydigest/internal/metrics"
)

type FeedConfig struct {
	Name  string `yaml:"name"`
	URL   string `yaml:"url"`
	Topic string `yaml:"topic"`
	Limit int    `yaml:"limit"`

	// Freshness overrides the fetcher-wide Google News window for this
	// feed, e.g. "1d" or "when:12h". "off" disables the hint.
	Freshness string `yaml:"freshness"`
}

type feedsFile struct {
	Feeds []FeedConfig `yaml:"feeds"`
}

// Item is one raw article pulled from a feed, before any scoring.
type Item struct {
	Title       string
	Link        string
	Summary     string
	SourceName  string
	Topic       string
	PublishedAt *time.Time
}

type Fetcher struct {
	feeds     []FeedConfig
	parser    *gofeed.Parser
	metrics   *metrics.Metrics
	parallel  int
	timeout   time.Duration
	freshness string
}

func NewFetcher(configPath string, m *metrics.Metrics, parallel int, timeout time.Duration, freshness string) (*Fetcher, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read feeds config: %w", err)
	}
	var file feedsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse feeds config: %w", err)
	}
	if len(file.Feeds) == 0 {
		return nil, fmt.Errorf("feeds config %s lists no feeds", configPath)
	}

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = "dailydigest/1.0"

	return &Fetcher{
		feeds:     file.Feeds,
		parser:    parser,
		metrics:   m,
		parallel:  parallel,
		timeout:   timeout,
		freshness: freshness,
	}, nil
}

// FetchAll pulls every configured feed concurrently and returns the
// combined item list. A failing feed is logged and skipped.
func (f *Fetcher) FetchAll(ctx context.Context) ([]Item, error) {
	results := make([][]Item, len(f.feeds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.parallel)
	for i, feed := range f.feeds {
		i, feed := i, feed
		g.Go(func() error {
			items, err := f.fetchFeed(gctx, feed)
			if err != nil {
				f.metrics.IncFeedErrors()
				logger.WarnOnce("feed:"+feed.Name, "feed fetch failed", "feed", feed.Name, "error", err)
				return nil
			}
			f.metrics.IncFeedsFetched()
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Item
	for _, items := range results {
		all = append(all, items...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("all feeds failed or returned no items")
	}
	return all, nil
}

func (f *Fetcher) fetchFeed(ctx context.Context, cfg FeedConfig) ([]Item, error) {
	window := cfg.Freshness
	if window == "" {
		window = f.freshness
	}
	requestURL := withGoogleFreshnessHint(cfg.URL, window)

	parsed, err := f.parser.ParseURLWithContext(requestURL, ctx)
	if requestURL != cfg.URL && (err != nil || len(parsed.Items) == 0) {
		// A hinted query can over-filter; retry without the hint.
		logger.Debug("freshness hint fallback", "feed", cfg.Name, "url", cfg.URL)
		parsed, err = f.parser.ParseURLWithContext(cfg.URL, ctx)
	}
	if err != nil {
		return nil, err
	}

	limit := cfg.Limit
	if limit <= 0 || limit > len(parsed.Items) {
		limit = len(parsed.Items)
	}

	items := make([]Item, 0, limit)
	for _, entry := range parsed.Items[:limit] {
		title, source := splitGoogleNewsTitle(entry.Title)
		if source == "" {
			source = cfg.Name
		}
		items = append(items, Item{
			Title:       title,
			Link:        entry.Link,
			Summary:     entry.Description,
			SourceName:  source,
			Topic:       cfg.Topic,
			PublishedAt: entry.PublishedParsed,
		})
	}
	logger.Debug("fetched feed", "feed", cfg.Name, "items", len(items))
	return items, nil
}

var whenTermRE = regexp.MustCompile(`(?i)\bwhen:\d+[hdwmy]\b`)

// withGoogleFreshnessHint appends a "when:<window>" term to a Google
// News search query. Non-search URLs, empty windows, "off" and queries
// that already carry a when: term come back unchanged.
func withGoogleFreshnessHint(rawURL, window string) string {
	window = strings.TrimSpace(window)
	if window == "" || strings.EqualFold(window, "off") {
		return rawURL
	}
	if !strings.HasPrefix(strings.ToLower(window), "when:") {
		window = "when:" + window
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() != "news.google.com" ||
		!strings.Contains(parsed.Path, "/rss/search") {
		return rawURL
	}
	values := parsed.Query()
	q := values.Get("q")
	if q == "" || whenTermRE.MatchString(q) {
		return rawURL
	}
	values.Set("q", q+" "+window)
	parsed.RawQuery = values.Encode()
	return parsed.String()
}

// splitGoogleNewsTitle separates "Headline - Outlet" titles as emitted
// by Google News search feeds. Titles without the suffix come back with
// an empty outlet.
func splitGoogleNewsTitle(title string) (string, string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 || idx+3 >= len(title) {
		return strings.TrimSpace(title), ""
	}
	outlet := strings.TrimSpace(title[idx+3:])
	// Outlets are short; a long tail is part of the headline.
	if len([]rune(outlet)) > 40 {
		return strings.TrimSpace(title), ""
	}
	return strings.TrimSpace(title[:idx]), outlet
}

// Package metrics tracks runtime counters exposed on the monitoring
// endpoint. Pipeline-level metrics summaries live with each digest.
package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	startTime time.Time

	DigestsGenerated int64
	DigestsReused    int64
	DigestFailures   int64
	FeedsFetched     int64
	FeedErrors       int64
	ArticlesFetched  int64
	AICalls          int64
	AIErrors         int64
	HTTPRequests     int64
}

func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) IncDigestsGenerated() { m.inc(&m.DigestsGenerated) }
func (m *Metrics) IncDigestsReused()    { m.inc(&m.DigestsReused) }
func (m *Metrics) IncDigestFailures()   { m.inc(&m.DigestFailures) }
func (m *Metrics) IncFeedsFetched()     { m.inc(&m.FeedsFetched) }
func (m *Metrics) IncFeedErrors()       { m.inc(&m.FeedErrors) }
func (m *Metrics) IncArticlesFetched()  { m.inc(&m.ArticlesFetched) }
func (m *Metrics) IncAICalls()          { m.inc(&m.AICalls) }
func (m *Metrics) IncAIErrors()         { m.inc(&m.AIErrors) }
func (m *Metrics) IncHTTPRequests()     { m.inc(&m.HTTPRequests) }

func (m *Metrics) inc(field *int64) {
	m.mu.Lock()
	*field++
	m.mu.Unlock()
}

// GetStats returns a snapshot for the monitoring endpoint.
func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]interface{}{
		"uptime_seconds":    int64(time.Since(m.startTime).Seconds()),
		"digests_generated": m.DigestsGenerated,
		"digests_reused":    m.DigestsReused,
		"digest_failures":   m.DigestFailures,
		"feeds_fetched":     m.FeedsFetched,
		"feed_errors":       m.FeedErrors,
		"articles_fetched":  m.ArticlesFetched,
		"ai_calls":          m.AICalls,
		"ai_errors":         m.AIErrors,
		"http_requests":     m.HTTPRequests,
	}
}

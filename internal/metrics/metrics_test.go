package metrics

import (
	"sync"
	"testing"
)

func TestCountersAndStats(t *testing.T) {
	m := New()
	m.IncDigestsGenerated()
	m.IncDigestsGenerated()
	m.IncFeedErrors()
	m.IncAICalls()

	stats := m.GetStats()
	if stats["digests_generated"] != int64(2) {
		t.Errorf("digests_generated = %v, want 2", stats["digests_generated"])
	}
	if stats["feed_errors"] != int64(1) {
		t.Errorf("feed_errors = %v, want 1", stats["feed_errors"])
	}
	if stats["ai_calls"] != int64(1) {
		t.Errorf("ai_calls = %v, want 1", stats["ai_calls"])
	}
	if stats["digest_failures"] != int64(0) {
		t.Errorf("digest_failures = %v, want 0", stats["digest_failures"])
	}
	if _, ok := stats["uptime_seconds"]; !ok {
		t.Errorf("uptime_seconds missing from stats")
	}
}

func TestConcurrentIncrements(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncHTTPRequests()
		}()
	}
	wg.Wait()
	if got := m.GetStats()["http_requests"]; got != int64(50) {
		t.Errorf("http_requests = %v, want 50", got)
	}
}

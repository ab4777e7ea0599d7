package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dailydigest/internal/digest"
	"dailydigest/internal/metrics"
	"dailydigest/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.Store) {
	t.Helper()
	store := storage.New(t.TempDir())
	m := metrics.New()
	generator := digest.NewGenerator(nil, nil, store, nil, m, 10, true, "drop")
	return New(0, generator, m), store
}

func TestParseTopLimit(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"5", 5, false},
		{"7.9", 7, false},
		{" 10 ", 10, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, c := range cases {
		got, err := parseTopLimit(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("parseTopLimit(%q) err = %v, wantErr %v", c.in, err, c.wantErr)
			continue
		}
		if err == nil && got != c.want {
			t.Errorf("parseTopLimit(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseBoolean(t *testing.T) {
	truthy := []string{"true", "1", "yes", "Y", " TRUE "}
	for _, in := range truthy {
		got, err := parseBoolean(in)
		if err != nil || !got {
			t.Errorf("parseBoolean(%q) = %v, %v, want true", in, got, err)
		}
	}
	falsy := []string{"", "false", "0", "no", "n"}
	for _, in := range falsy {
		got, err := parseBoolean(in)
		if err != nil || got {
			t.Errorf("parseBoolean(%q) = %v, %v, want false", in, got, err)
		}
	}
	if _, err := parseBoolean("maybe"); err == nil {
		t.Errorf("parseBoolean(maybe) should fail")
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["service"] != serviceName {
		t.Errorf("body = %v", body)
	}
}

func TestStatsEndpointCountsRequests(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	rec = httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	var stats map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	count, ok := stats["http_requests"].(float64)
	if !ok || count < 2 {
		t.Errorf("http_requests = %v, want at least 2", stats["http_requests"])
	}
}

func TestDigestMetricsFallback(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/digest/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "metrics not found yet" {
		t.Errorf("body = %v", body)
	}
}

func TestDigestMetricsStoredSummary(t *testing.T) {
	s, store := newTestServer(t)
	summary := digest.MetricsSummary{Type: "metrics_summary", Date: "2026-08-30", TotalIn: 42, TotalOut: 10}
	if err := store.WriteJSON(storage.MetricsFile, summary); err != nil {
		t.Fatalf("write summary: %v", err)
	}

	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/digest/metrics", nil))

	var body digest.MetricsSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalIn != 42 || body.TotalOut != 10 || body.Date != "2026-08-30" {
		t.Errorf("body = %+v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/digest", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /digest: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/digest/generate", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /digest/generate: status = %d", rec.Code)
	}
}

func TestGetDigestRejectsBadQuery(t *testing.T) {
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/digest?topLimit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad topLimit: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/digest?force=maybe", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad force: status = %d", rec.Code)
	}
}

// Package server exposes the digest pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dailydigest/internal/digest"
	"dailydigest/internal/logger"
	"dailydigest/internal/metrics"
)

const serviceName = "daily-digest"

type Server struct {
	generator *digest.Generator
	metrics   *metrics.Metrics
	http      *http.Server
}

func New(port int, generator *digest.Generator, m *metrics.Metrics) *Server {
	s := &Server{generator: generator, metrics: m}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/digest", s.handleGetDigest)
	mux.HandleFunc("/digest/generate", s.handleGenerateDigest)
	mux.HandleFunc("/digest/metrics", s.handleDigestMetrics)
	mux.HandleFunc("/daily_digest.json", s.handleDigestFile)
	mux.HandleFunc("/stats", s.handleStats)

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.withRequestCount(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	logger.Info("http server listening", "addr", s.http.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) withRequestCount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncHTTPRequests()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

func (s *Server) handleGetDigest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	topLimit, err := parseTopLimit(r.URL.Query().Get("topLimit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	force, err := parseBoolean(r.URL.Query().Get("force"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.generate(w, r, topLimit, force)
}

func (s *Server) handleGenerateDigest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		TopLimit        *float64 `json:"topLimit"`
		ForceRegenerate bool     `json:"forceRegenerate"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	topLimit := 0
	if body.TopLimit != nil {
		if *body.TopLimit <= 0 {
			writeError(w, http.StatusBadRequest, "topLimit must be a positive number")
			return
		}
		topLimit = int(*body.TopLimit)
	}

	s.generate(w, r, topLimit, body.ForceRegenerate)
}

func (s *Server) handleDigestFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.generate(w, r, 0, false)
}

func (s *Server) handleDigestMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	summary, ok := s.generator.LoadMetricsSummary()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{
			"type":    "metrics_summary",
			"message": "metrics not found yet",
		})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.GetStats())
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request, topLimit int, force bool) {
	result, err := s.generator.Generate(r.Context(), topLimit, force)
	if err != nil {
		logger.Error("digest generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "digest generation failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// parseTopLimit returns 0 for an absent value, meaning the configured
// default.
func parseTopLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("topLimit must be a positive number")
	}
	return int(value), nil
}

func parseBoolean(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return false, nil
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %q", raw)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

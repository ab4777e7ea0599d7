// Package storage persists digest output, metrics summaries and the
// cross-day cluster history as JSON files under the data directory.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"dailydigest/internal/logger"
)

const (
	DigestFile  = "daily_digest.json"
	MetricsFile = "digest_metrics.json"
	HistoryFile = "dedupe_history.json"

	historyExtraDays = 5
)

var kst = time.FixedZone("KST", 9*60*60)

type Store struct {
	dataDir string
}

func New(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// ReadJSON decodes the named file into v. Missing or corrupt files are
// treated as absent, never as errors.
func (s *Store) ReadJSON(name string, v interface{}) bool {
	data, err := os.ReadFile(filepath.Join(s.dataDir, name))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("discarding corrupt JSON file", "file", name, "error", err)
		return false
	}
	return true
}

// WriteJSON writes v atomically: encode to a temp file in the same
// directory, then rename over the target.
func (s *Store) WriteJSON(name string, v interface{}) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	target := filepath.Join(s.dataDir, name)
	tmp := filepath.Join(s.dataDir, fmt.Sprintf(".%s.%d.%d.tmp", name, os.Getpid(), time.Now().UnixMilli()))

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// History records which cluster keys appeared on which digest date.
type History struct {
	ByDate map[string][]string `json:"byDate"`
}

// LoadRecentClusterMap returns clusterKey -> date for the `days` days
// leading up to (and excluding) targetDate.
func (s *Store) LoadRecentClusterMap(targetDate string, days int) map[string]string {
	history := History{ByDate: map[string][]string{}}
	s.ReadJSON(HistoryFile, &history)

	clusterMap := make(map[string]string)
	for _, date := range recentDates(targetDate, days) {
		if date == targetDate {
			continue
		}
		for _, key := range history.ByDate[date] {
			clusterMap[key] = date
		}
	}
	return clusterMap
}

// UpdateHistory stores the cluster keys for one date and prunes entries
// older than the retention window.
func (s *Store) UpdateHistory(date string, clusterKeys []string, days int) error {
	history := History{ByDate: map[string][]string{}}
	s.ReadJSON(HistoryFile, &history)
	if history.ByDate == nil {
		history.ByDate = map[string][]string{}
	}

	kept := make([]string, 0, len(clusterKeys))
	for _, key := range clusterKeys {
		if key != "" {
			kept = append(kept, key)
		}
	}
	history.ByDate[date] = kept

	dates := make([]string, 0, len(history.ByDate))
	for d := range history.ByDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	if excess := len(dates) - (days + historyExtraDays); excess > 0 {
		for _, d := range dates[:excess] {
			delete(history.ByDate, d)
		}
	}

	return s.WriteJSON(HistoryFile, history)
}

// recentDates lists targetDate and the preceding days-1 dates in KST.
func recentDates(date string, days int) []string {
	start, err := time.ParseInLocation("2006-01-02", date, kst)
	if err != nil {
		return nil
	}
	dates := make([]string, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, start.AddDate(0, 0, -i).Format("2006-01-02"))
	}
	return dates
}

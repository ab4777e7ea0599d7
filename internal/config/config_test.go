package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.TopLimit != 20 {
		t.Errorf("TopLimit = %d, want 20", cfg.TopLimit)
	}
	if cfg.FeedsConfig != "configs/feeds.yaml" {
		t.Errorf("FeedsConfig = %q", cfg.FeedsConfig)
	}
	if !cfg.RebalanceEnabled {
		t.Errorf("RebalanceEnabled should default to true")
	}
	if cfg.LowQualityPolicy != "drop" {
		t.Errorf("LowQualityPolicy = %q, want drop", cfg.LowQualityPolicy)
	}
}

func TestLowQualityPolicyNormalized(t *testing.T) {
	t.Setenv("LOW_QUALITY_POLICY", " Downgrade ")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LowQualityPolicy != "downgrade" {
		t.Errorf("LowQualityPolicy = %q, want downgrade", cfg.LowQualityPolicy)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DIGEST_TOP_LIMIT", "12")
	t.Setenv("DIGEST_REBALANCE_ENABLED", "false")
	t.Setenv("FETCH_TIMEOUT_SEC", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.TopLimit != 12 || cfg.FetchTimeoutSec != 30 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.RebalanceEnabled {
		t.Errorf("RebalanceEnabled should be false")
	}
}

func TestAIDisabledWithoutKey(t *testing.T) {
	t.Setenv("AI_ENABLED", "true")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AIEnabled {
		t.Errorf("AIEnabled should degrade to false without an API key")
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "99999")
	if _, err := Load(); err == nil {
		t.Errorf("expected error for out-of-range port")
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("DIGEST_TOP_LIMIT", "abc")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopLimit != 20 {
		t.Errorf("unparseable int should keep the default, got %d", cfg.TopLimit)
	}
}

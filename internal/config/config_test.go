package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.SearchCacheTTL != 2*time.Minute || cfg.SearchTimeout != 15*time.Second {
		t.Errorf("search knobs = %v / %v", cfg.SearchCacheTTL, cfg.SearchTimeout)
	}
	if cfg.TakeoutEstimateMinutes != 8 {
		t.Errorf("TakeoutEstimateMinutes = %v", cfg.TakeoutEstimateMinutes)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SEARCH_CACHE_TTL", "30s")
	t.Setenv("TAKEOUT_ESTIMATE_MINUTES", "4.5")

	cfg := Load()
	if cfg.Port != "9999" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.SearchCacheTTL != 30*time.Second {
		t.Errorf("SearchCacheTTL = %v", cfg.SearchCacheTTL)
	}
	if cfg.TakeoutEstimateMinutes != 4.5 {
		t.Errorf("TakeoutEstimateMinutes = %v", cfg.TakeoutEstimateMinutes)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SEARCH_TIMEOUT", "not-a-duration")
	t.Setenv("TAKEOUT_ESTIMATE_MINUTES", "-3")

	cfg := Load()
	if cfg.SearchTimeout != 15*time.Second {
		t.Errorf("SearchTimeout = %v, want fallback", cfg.SearchTimeout)
	}
	if cfg.TakeoutEstimateMinutes != 8 {
		t.Errorf("TakeoutEstimateMinutes = %v, want fallback", cfg.TakeoutEstimateMinutes)
	}
}

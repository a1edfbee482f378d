package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points HOME and XDG_CONFIG_HOME at temp dirs so the user's real
// config never leaks into a test.
func isolate(t *testing.T) (home, xdg string) {
	t.Helper()
	home = t.TempDir()
	xdg = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", xdg)
	for _, key := range []string{"FEED_URL", "DB", "GRANULARITY", "FILTER", "MAX_POINTS", "WATCH_INTERVAL"} {
		t.Setenv("MCPSTATS_"+key, "")
		os.Unsetenv("MCPSTATS_" + key)
	}
	return home, xdg
}

func TestDir(t *testing.T) {
	t.Run("xdg", func(t *testing.T) {
		_, xdg := isolate(t)
		dir, err := Dir()
		if err != nil {
			t.Fatalf("Dir() error: %v", err)
		}
		if want := filepath.Join(xdg, "mcpstats"); dir != want {
			t.Errorf("Dir() = %q, want %q", dir, want)
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		home, _ := isolate(t)
		t.Setenv("XDG_CONFIG_HOME", "")
		dir, err := Dir()
		if err != nil {
			t.Fatalf("Dir() error: %v", err)
		}
		if want := filepath.Join(home, ".config", "mcpstats"); dir != want {
			t.Errorf("Dir() = %q, want %q", dir, want)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	home, _ := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if want := filepath.Join(home, ".mcpstats", "mcpstats.db"); cfg.DB != want {
		t.Errorf("DB = %q, want %q", cfg.DB, want)
	}
	if !strings.HasPrefix(cfg.FeedURL, "file://") || !strings.HasSuffix(cfg.FeedURL, FeedFile) {
		t.Errorf("FeedURL = %q, want a file:// URL ending in %s", cfg.FeedURL, FeedFile)
	}
	if cfg.Granularity != "daily" || cfg.Filter != "all" {
		t.Errorf("Granularity/Filter = %q/%q, want daily/all", cfg.Granularity, cfg.Filter)
	}
	if cfg.MaxPoints != 1000 {
		t.Errorf("MaxPoints = %d, want 1000", cfg.MaxPoints)
	}
	if cfg.WatchInterval != 5*time.Minute {
		t.Errorf("WatchInterval = %v, want 5m", cfg.WatchInterval)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	_, xdg := isolate(t)

	dir := filepath.Join(xdg, "mcpstats")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	content := `feed_url: https://example.test/analytics.json
granularity: weekly
filter: show-all
watch_interval: 30s
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.FeedURL != "https://example.test/analytics.json" {
		t.Errorf("FeedURL = %q", cfg.FeedURL)
	}
	if cfg.Granularity != "weekly" || cfg.Filter != "show-all" {
		t.Errorf("Granularity/Filter = %q/%q", cfg.Granularity, cfg.Filter)
	}
	if cfg.WatchInterval != 30*time.Second {
		t.Errorf("WatchInterval = %v, want 30s", cfg.WatchInterval)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("granularity: weekly\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("MCPSTATS_GRANULARITY", "monthly")
	t.Setenv("MCPSTATS_MAX_POINTS", "250")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Granularity != "monthly" {
		t.Errorf("Granularity = %q, want monthly from env", cfg.Granularity)
	}
	if cfg.MaxPoints != 250 {
		t.Errorf("MaxPoints = %d, want 250 from env", cfg.MaxPoints)
	}
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	isolate(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail when an explicit config file is missing")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad granularity", "granularity: yearly\n"},
		{"bad filter", "filter: both\n"},
		{"negative max points", "max_points: -1\n"},
		{"zero interval", "watch_interval: 0s\n"},
		{"empty feed", "feed_url: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load() should reject %s", tt.name)
			}
		})
	}
}

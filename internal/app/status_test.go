package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/mcpstats/internal/cache"
	"github.com/blackwell-systems/mcpstats/internal/store"
)

func TestStatus_NoDatabase(t *testing.T) {
	env := setupEnv(t)

	stdout, _, err := execute(t, nil, env.args("status")...)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(stdout, "empty") {
		t.Errorf("expected an empty cache report, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, env.dbPath) {
		t.Errorf("expected database path in output, got:\n%s", stdout)
	}
}

func TestStatus_AfterShow(t *testing.T) {
	env := setupEnv(t)
	env.writeFeed(t, threeDays())

	if _, _, err := execute(t, nil, env.args("show")...); err != nil {
		t.Fatalf("show failed: %v", err)
	}

	stdout, _, err := execute(t, nil, env.args("status")...)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	for _, want := range []string{"fresh", "3 snapshots", "2025-11-07 12:00", "Theme:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("status output missing %q:\n%s", want, stdout)
		}
	}
}

func TestStatus_StaleCache(t *testing.T) {
	env := setupEnv(t)

	if err := os.MkdirAll(filepath.Dir(env.dbPath), 0755); err != nil {
		t.Fatalf("failed to create database dir: %v", err)
	}
	st, err := store.New(env.dbPath)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	if err := st.CreateSchema(); err != nil {
		t.Fatalf("CreateSchema: %v", err)
	}
	if err := st.SetAll(map[string]string{
		cache.DataKey:      "[]",
		cache.TimestampKey: "1700000000000",
	}); err != nil {
		t.Fatalf("SetAll: %v", err)
	}
	st.Close()

	stdout, _, err := execute(t, nil, env.args("status")...)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(stdout, "stale") || !strings.Contains(stdout, "0 snapshots") {
		t.Errorf("expected a stale empty cache, got:\n%s", stdout)
	}
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "42")
	t.Setenv("DB_PATH", "")

	cfg, err := NewConfigManager("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" || cfg.Telegram.OwnerID != 42 {
		t.Fatalf("env not applied: %+v", cfg.Telegram)
	}
	if cfg.Storage.Path != "data/subscribers.db" {
		t.Fatalf("default storage path = %q", cfg.Storage.Path)
	}
	if cfg.Telegram.RatePerSec != 25 {
		t.Fatalf("default rate = %d", cfg.Telegram.RatePerSec)
	}
}

func TestLoadRequiresTokenAndOwner(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("OWNER_ID", "")

	if _, err := NewConfigManager("").Load(); err == nil || !strings.Contains(err.Error(), "BOT_TOKEN") {
		t.Fatalf("missing token, err = %v", err)
	}

	t.Setenv("BOT_TOKEN", "123:abc")
	if _, err := NewConfigManager("").Load(); err == nil || !strings.Contains(err.Error(), "OWNER_ID") {
		t.Fatalf("missing owner, err = %v", err)
	}
}

func TestLoadBadOwnerID(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "not-a-number")

	if _, err := NewConfigManager("").Load(); err == nil {
		t.Fatal("expected error for non-numeric OWNER_ID")
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "42")
	t.Setenv("DB_PATH", "")

	path := writeFile(t, "config.yaml", `
telegram:
  poll_timeout: 30s
  rate_per_sec: 10
logging:
  level: debug
  console: true
scheduler:
  timezone: Europe/Berlin
`)
	cfg, err := NewConfigManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.PollTimeout != "30s" || cfg.Telegram.RatePerSec != 10 {
		t.Fatalf("telegram overlay: %+v", cfg.Telegram)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging overlay: %+v", cfg.Logging)
	}
	if cfg.Scheduler.Timezone != "Europe/Berlin" {
		t.Fatalf("scheduler overlay: %+v", cfg.Scheduler)
	}
	// File keeps defaults for sections it doesn't mention.
	if cfg.Storage.Path != "data/subscribers.db" {
		t.Fatalf("storage path = %q", cfg.Storage.Path)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "42")

	path := writeFile(t, "config.yaml", `
telegram:
  poll_timeout: 30s
  webhook_url: https://example.com
`)
	if _, err := NewConfigManager(path).Load(); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestDBPathOverride(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OWNER_ID", "42")
	t.Setenv("DB_PATH", "/var/lib/castbot/subs.db")

	cfg, err := NewConfigManager("").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Path != "/var/lib/castbot/subs.db" {
		t.Fatalf("DB_PATH not applied: %q", cfg.Storage.Path)
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"  ", 0, false},
		{"10s", 10 * time.Second, false},
		{"2m", 2 * time.Minute, false},
		{"-1s", 0, true},
		{"soon", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseDurationField("test.field", tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseDurationField(%q): expected error", tc.raw)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseDurationField(%q) = %v, %v; want %v", tc.raw, got, err, tc.want)
		}
	}

	if d, err := ParseDurationOrDefault("test.field", "", 5*time.Second); err != nil || d != 5*time.Second {
		t.Fatalf("ParseDurationOrDefault empty = %v, %v", d, err)
	}
	if d, err := ParseDurationOrDefault("test.field", "1s", 5*time.Second); err != nil || d != time.Second {
		t.Fatalf("ParseDurationOrDefault set = %v, %v", d, err)
	}
	if _, err := ParseDurationOrDefault("test.field", "bogus", 5*time.Second); err == nil {
		t.Fatal("ParseDurationOrDefault: expected error for bad input")
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()

	oldCfg := Default()
	newCfg := Default()
	newCfg.Logging.Level = "debug"
	newCfg.Scheduler.Timezone = "UTC"

	changed, _ := SummarizeConfigChange(oldCfg, newCfg)
	got := strings.Join(changed, ",")
	if got != "logging,scheduler" {
		t.Fatalf("changed sections = %q", got)
	}

	changed, _ = SummarizeConfigChange(oldCfg, oldCfg)
	if len(changed) != 0 {
		t.Fatalf("no-op diff reported %v", changed)
	}
}

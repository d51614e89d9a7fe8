package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talkbridge.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileWithDefaults(t *testing.T) {
	path := writeConfig(t, `
source:
  db_path: /data/chat.db
bridge:
  poll_interval: 250ms
actions:
  max_image_bytes: 2MB
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.DBPath != "/data/chat.db" {
		t.Fatalf("db_path: %q", cfg.Source.DBPath)
	}
	if cfg.Bridge.PollInterval.Duration() != 250*time.Millisecond {
		t.Fatalf("poll_interval: %v", cfg.Bridge.PollInterval.Duration())
	}
	if cfg.Actions.MaxImageBytes.Int64() != 2*1000*1000 {
		t.Fatalf("max_image_bytes: %d", cfg.Actions.MaxImageBytes.Int64())
	}
	// Unset fields take defaults.
	if cfg.Bridge.DrainInterval.Duration() != DefaultDrainInterval {
		t.Fatalf("drain_interval default: %v", cfg.Bridge.DrainInterval.Duration())
	}
	if cfg.Actions.QueueCapacity != DefaultQueueCapacity {
		t.Fatalf("queue_capacity default: %d", cfg.Actions.QueueCapacity)
	}
	if cfg.Addr() != "127.0.0.1:3000" {
		t.Fatalf("Addr: %q", cfg.Addr())
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	t.Setenv("TALKBRIDGE_DB", "/env/chat.db")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.DBPath != "/env/chat.db" {
		t.Fatalf("db_path from env: %q", cfg.Source.DBPath)
	}
}

func TestLoadMalformedFileIsAnError(t *testing.T) {
	path := writeConfig(t, "source: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadRequiresDBPath(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected missing db_path error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
source:
  db_path: /file/chat.db
security:
  api_keys: ["filekey"]
`)
	t.Setenv("TALKBRIDGE_DB", "/env/chat.db")
	t.Setenv("TALKBRIDGE_API_KEYS", "k1, k2")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.DBPath != "/env/chat.db" {
		t.Fatalf("env should win: %q", cfg.Source.DBPath)
	}
	if len(cfg.Security.APIKeys) != 3 {
		t.Fatalf("api keys: %v", cfg.Security.APIKeys)
	}
}

func TestDurationNumericSeconds(t *testing.T) {
	path := writeConfig(t, `
source:
  db_path: /data/chat.db
bridge:
  poll_interval: 2
  drain_interval: 1.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bridge.PollInterval.Duration() != 2*time.Second {
		t.Fatalf("numeric seconds: %v", cfg.Bridge.PollInterval.Duration())
	}
	if cfg.Bridge.DrainInterval.Duration() != 1500*time.Millisecond {
		t.Fatalf("fractional seconds: %v", cfg.Bridge.DrainInterval.Duration())
	}
}

func TestRuntimeRejectsBadValues(t *testing.T) {
	rt := NewRuntime(&Config{
		Bridge: BridgeConfig{PollInterval: Duration(time.Second)},
	})
	if err := rt.SetPollInterval(0); err == nil {
		t.Fatal("zero interval must be rejected")
	}
	if err := rt.SetPollInterval(-time.Second); err == nil {
		t.Fatal("negative interval must be rejected")
	}
	if rt.PollInterval() != time.Second {
		t.Fatalf("rejected update must keep the prior value, got %v", rt.PollInterval())
	}
	if err := rt.SetWebhookURL("::not a url"); err == nil {
		t.Fatal("invalid URL must be rejected")
	}
	if err := rt.SetWebhookURL("http://127.0.0.1:9/hook"); err != nil {
		t.Fatalf("SetWebhookURL: %v", err)
	}
	if err := rt.SetWebhookURL(""); err != nil {
		t.Fatalf("clearing the URL must be allowed: %v", err)
	}
}

func TestRuntimeNotifiesObservers(t *testing.T) {
	rt := NewRuntime(&Config{})
	var got []Change
	rt.OnChange(func(c Change) { got = append(got, c) })

	if err := rt.SetDrainInterval(3 * time.Second); err != nil {
		t.Fatalf("SetDrainInterval: %v", err)
	}
	if err := rt.SetPollInterval(0); err == nil {
		t.Fatal("expected rejection")
	}
	if len(got) != 1 {
		t.Fatalf("observers notified %d times, want 1 (rejections are silent)", len(got))
	}
	if got[0].Key != KeyDrainInterval || got[0].Interval != 3*time.Second {
		t.Fatalf("change payload: %+v", got[0])
	}
	if rt.DrainInterval() != 3*time.Second {
		t.Fatalf("drain interval: %v", rt.DrainInterval())
	}
}

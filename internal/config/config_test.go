package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
telegram:
  token: "123:abc"
  auction_token: "456:def"
  admin_chat_id: 751393268
http:
  addr: "127.0.0.1:9090"
dispatch:
  workers: 8
  send_timeout: "15s"
`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" || cfg.Telegram.AdminChatID != 751393268 {
		t.Fatalf("telegram section = %+v", cfg.Telegram)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9090" {
		t.Fatalf("http.addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Dispatch.Workers != 8 {
		t.Fatalf("dispatch.workers = %d", cfg.Dispatch.Workers)
	}
	d, err := ParseDurationOrDefault("dispatch.send_timeout", cfg.Dispatch.SendTimeout, 12*time.Second)
	if err != nil || d != 15*time.Second {
		t.Fatalf("send_timeout = %v (%v)", d, err)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "config.yaml", `
telegram:
  token: "123:abc"
  admin_chat_id: 1
bogus_section:
  x: 1
`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("unknown keys should be rejected")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
telegram:
  token: "file-token"
  admin_chat_id: 1
`)
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("TG_BOT_TOKEN_AUCTION", "env-auction")
	t.Setenv("ADMIN_ID", "42")

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Telegram.AuctionToken != "env-auction" || cfg.Telegram.AdminChatID != 42 {
		t.Fatalf("telegram section = %+v", cfg.Telegram)
	}
}

func TestEnvOnlyWithoutFile(t *testing.T) {
	t.Setenv("TG_BOT_TOKEN_MAIN", "main-token")
	t.Setenv("ADMIN_ID", "7")

	cfg, err := NewManager(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if cfg.Telegram.Token != "main-token" || cfg.Telegram.AdminChatID != 7 {
		t.Fatalf("telegram section = %+v", cfg.Telegram)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("default http.addr = %q", cfg.HTTP.Addr)
	}
}

func TestValidateMissingToken(t *testing.T) {
	cfg := Default()
	cfg.Telegram.AdminChatID = 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing token should fail validation")
	}
}

func TestValidateBadDuration(t *testing.T) {
	cfg := Default()
	cfg.Telegram.Token = "t"
	cfg.Telegram.AdminChatID = 1
	cfg.Dispatch.SendTimeout = "soon"
	if err := cfg.Validate(); err == nil {
		t.Fatal("bad duration should fail validation")
	}
}

func TestBadAdminIDEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "t")
	t.Setenv("ADMIN_ID", "not-a-number")
	if _, err := NewManager(filepath.Join(t.TempDir(), "missing.yaml")).Load(); err == nil {
		t.Fatal("non-numeric ADMIN_ID should fail")
	}
}

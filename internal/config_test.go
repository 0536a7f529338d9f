package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKDECK_SERVER_URL", "")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.ServerURL != "http://localhost:8000" {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
	if cfg.RequestTimeoutDuration() != DefaultRequestTimeout {
		t.Errorf("RequestTimeoutDuration() = %v, want %v", cfg.RequestTimeoutDuration(), DefaultRequestTimeout)
	}
	if cfg.ChatTimeoutDuration() != DefaultChatTimeout {
		t.Errorf("ChatTimeoutDuration() = %v, want %v", cfg.ChatTimeoutDuration(), DefaultChatTimeout)
	}
	if cfg.Dir != dir {
		t.Errorf("Dir = %q, want %q", cfg.Dir, dir)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TASKDECK_SERVER_URL", "")

	content := "server_url: https://api.example.com\nrequest_timeout_seconds: 5\nchat_timeout_seconds: 120\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.ServerURL != "https://api.example.com" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.RequestTimeoutDuration() != 5*time.Second {
		t.Errorf("RequestTimeoutDuration() = %v, want 5s", cfg.RequestTimeoutDuration())
	}
	if cfg.ChatTimeoutDuration() != 120*time.Second {
		t.Errorf("ChatTimeoutDuration() = %v, want 120s", cfg.ChatTimeoutDuration())
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "server_url: https://from-file.example.com\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TASKDECK_SERVER_URL", "https://from-env.example.com")

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.ServerURL != "https://from-env.example.com" {
		t.Errorf("ServerURL = %q, want env value", cfg.ServerURL)
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte("server_url: [broken"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(dir); err == nil {
		t.Error("LoadConfig() with malformed yaml = nil, want error")
	}
}

func TestDefaultConfigDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	if got := DefaultConfigDir(); got != filepath.Join("/tmp/xdg-test", AppName) {
		t.Errorf("DefaultConfigDir() = %q", got)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if got := cfg.Server.Addr(); got != "localhost:8090" {
		t.Errorf("addr = %q", got)
	}
	if got := cfg.Server.GetRateLimit(); got != 10 {
		t.Errorf("rate limit = %d", got)
	}
	if got := cfg.Store.GetTimeout(); got != 15*time.Second {
		t.Errorf("timeout = %v", got)
	}
	if cfg.Templates.ShouldWatch() {
		t.Error("no template dir should mean no watcher")
	}
	if got := cfg.List.GetCacheTTL(); got != 30*time.Second {
		t.Errorf("cache ttl = %v", got)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.GetPort() != 8090 {
		t.Errorf("port = %d", cfg.Server.GetPort())
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_STORE_URL", "https://store.example.com/api")
	path := filepath.Join(t.TempDir(), "mopage.yaml")
	content := `
server:
  port: 9000
  rate_limit: 5
store:
  endpoint: "${TEST_STORE_URL}"
  timeout: 30s
templates:
  dir: ./templates
share:
  viewer_base_url: https://pages.example.com
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.GetPort() != 9000 {
		t.Errorf("port = %d", cfg.Server.GetPort())
	}
	if cfg.Store.Endpoint != "https://store.example.com/api" {
		t.Errorf("endpoint = %q, env not expanded", cfg.Store.Endpoint)
	}
	if cfg.Store.GetTimeout() != 30*time.Second {
		t.Errorf("timeout = %v", cfg.Store.GetTimeout())
	}
	if !cfg.Templates.ShouldWatch() {
		t.Error("configured dir should default to watching")
	}
	if got := cfg.Share.GetViewerBaseURL("localhost:9000"); got != "https://pages.example.com" {
		t.Errorf("viewer base = %q", got)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestViewerBaseFallback(t *testing.T) {
	var c ShareConfig
	if got := c.GetViewerBaseURL("localhost:8090"); got != "http://localhost:8090" {
		t.Errorf("fallback = %q", got)
	}
}

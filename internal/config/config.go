// Package config loads the mopage configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the mopage configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Templates TemplatesConfig `yaml:"templates"`
	Share     ShareConfig     `yaml:"share"`
	List      ListConfig      `yaml:"list"`
}

// ServerConfig configures the editor/viewer HTTP server
type ServerConfig struct {
	Host      string `yaml:"host,omitempty"`       // Bind address. Default: localhost
	Port      int    `yaml:"port,omitempty"`       // Default: 8090
	RateLimit int    `yaml:"rate_limit,omitempty"` // Requests/sec per IP on the API. Default: 10
	RateBurst int    `yaml:"rate_burst,omitempty"` // Burst allowance. Default: 20
}

// StoreConfig points at the remote page store
type StoreConfig struct {
	Endpoint string `yaml:"endpoint"`          // Store URL (env vars expanded, e.g. "${MOPAGE_STORE_URL}")
	Timeout  string `yaml:"timeout,omitempty"` // Request timeout (e.g., "30s"). Default: 15s
}

// TemplatesConfig configures the page template directory
type TemplatesConfig struct {
	Dir   string `yaml:"dir,omitempty"`   // Directory of template YAML files. Empty: builtins only
	Watch *bool  `yaml:"watch,omitempty"` // Hot-reload on file changes. Default: true when Dir is set
}

// ShareConfig configures published-page links
type ShareConfig struct {
	ViewerBaseURL string `yaml:"viewer_base_url,omitempty"` // Public base URL for /view links. Default: the server address
}

// ListConfig configures the project list view
type ListConfig struct {
	CacheTTL string `yaml:"cache_ttl,omitempty"` // Summary cache TTL (e.g., "30s"). Default: 30s
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{}
}

// Load reads a YAML config file, expanding environment variables in the
// raw text before parsing. A missing file returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// GetHost returns the bind address (default: localhost)
func (c ServerConfig) GetHost() string {
	if c.Host == "" {
		return "localhost"
	}
	return c.Host
}

// GetPort returns the listen port (default: 8090)
func (c ServerConfig) GetPort() int {
	if c.Port <= 0 {
		return 8090
	}
	return c.Port
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.GetPort())
}

// GetRateLimit returns requests/sec per IP (default: 10)
func (c ServerConfig) GetRateLimit() int {
	if c.RateLimit <= 0 {
		return 10
	}
	return c.RateLimit
}

// GetRateBurst returns the burst allowance (default: 20)
func (c ServerConfig) GetRateBurst() int {
	if c.RateBurst <= 0 {
		return 20
	}
	return c.RateBurst
}

// GetTimeout returns the parsed store timeout (default: 15s)
func (c StoreConfig) GetTimeout() time.Duration {
	if c.Timeout == "" {
		return 15 * time.Second
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// ShouldWatch reports whether the template directory should be watched
// (default: true when a directory is configured)
func (c TemplatesConfig) ShouldWatch() bool {
	if c.Dir == "" {
		return false
	}
	if c.Watch == nil {
		return true
	}
	return *c.Watch
}

// GetViewerBaseURL returns the public viewer base, falling back to the
// local server address.
func (c ShareConfig) GetViewerBaseURL(serverAddr string) string {
	if c.ViewerBaseURL != "" {
		return c.ViewerBaseURL
	}
	return "http://" + serverAddr
}

// GetCacheTTL returns the parsed list cache TTL (default: 30s)
func (c ListConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

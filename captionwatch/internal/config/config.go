// Package config handles captionbridge configuration. Every field has a
// default matching the bridge's built-in constants, so a file is optional.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level captionbridge configuration.
type Config struct {
	Browser  BrowserConfig  `yaml:"browser"`
	Page     PageConfig     `yaml:"page"`
	Caption  CaptionConfig  `yaml:"caption"`
	Endpoint EndpointConfig `yaml:"endpoint"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
	// LockFile guards against two bridges forwarding the same session.
	// Empty disables locking.
	LockFile string `yaml:"lock_file"`
}

// BrowserConfig controls how Chrome is reached.
type BrowserConfig struct {
	// Remote is a DevTools WebSocket URL or http://host:port of a running
	// Chrome. Empty launches a local one.
	Remote   string `yaml:"remote"`
	Headless bool   `yaml:"headless"`
	// Bin overrides the Chrome binary for local launches.
	Bin string `yaml:"bin"`
	// UserDataDir keeps a logged-in profile between runs.
	UserDataDir string `yaml:"user_data_dir"`
	// XvfbDisplay starts a virtual display for a headful local Chrome on a
	// machine without one, e.g. ":99". Empty uses the existing DISPLAY.
	XvfbDisplay string `yaml:"xvfb_display"`
	// ResourceBlocking lists resource types to block in tabs the bridge
	// opens itself (images, fonts, stylesheets). Media is never blocked.
	ResourceBlocking []string `yaml:"resource_blocking"`
}

// PageConfig selects the page to attach to.
type PageConfig struct {
	// Match is a URL pattern with * wildcards.
	Match string `yaml:"match"`
	// URL, when set, is opened in a new tab instead of searching for an
	// existing page.
	URL string `yaml:"url"`
	// WaitTimeout bounds the search for a matching page.
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

// CaptionConfig holds the structural signatures of the caption surface.
type CaptionConfig struct {
	Container string `yaml:"container"`
	Segment   string `yaml:"segment"`
}

// EndpointConfig is where captions are delivered.
type EndpointConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	// Stdout echoes every forwarded caption to standard output.
	Stdout bool `yaml:"stdout"`
}

// WatchdogConfig controls the attachment watchdog.
type WatchdogConfig struct {
	Interval  time.Duration `yaml:"interval"`
	OpTimeout time.Duration `yaml:"op_timeout"`

	// MutationOnly disables the caption read at bind time.
	MutationOnly bool `yaml:"mutation_only"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Page.Match == "" {
		c.Page.Match = "https://www.youtube.com/*"
	}
	if c.Page.WaitTimeout <= 0 {
		c.Page.WaitTimeout = 2 * time.Minute
	}
	if c.Caption.Container == "" {
		c.Caption.Container = ".ytp-caption-window-container"
	}
	if c.Caption.Segment == "" {
		c.Caption.Segment = ".ytp-caption-segment"
	}
	if c.Endpoint.URL == "" {
		c.Endpoint.URL = "http://127.0.0.1:8765/caption"
	}
	if c.Endpoint.Timeout <= 0 {
		c.Endpoint.Timeout = 10 * time.Second
	}
	if c.Watchdog.Interval <= 0 {
		c.Watchdog.Interval = time.Second
	}
	if c.Watchdog.OpTimeout <= 0 {
		c.Watchdog.OpTimeout = 5 * time.Second
	}
}

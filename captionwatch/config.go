package captionwatch

import (
	"github.com/hazyhaar/captionbridge/captionwatch/internal/config"
)

// Config is the top-level captionwatch configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls how Chrome is reached.
type BrowserConfig = config.BrowserConfig

// PageConfig selects the page to attach to.
type PageConfig = config.PageConfig

// CaptionConfig holds the caption surface signatures.
type CaptionConfig = config.CaptionConfig

// EndpointConfig is where captions are delivered.
type EndpointConfig = config.EndpointConfig

// WatchdogConfig controls the attachment watchdog.
type WatchdogConfig = config.WatchdogConfig

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config { return config.Default() }

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

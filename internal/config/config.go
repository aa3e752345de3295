// Package config handles configuration loading for the colorbar server.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Registry RegistryConfig `yaml:"registry"`
	Cache    CacheConfig    `yaml:"cache"`
	Render   RenderConfig   `yaml:"render"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	Title       string   `yaml:"title"`
}

// RegistryConfig says where colormaps and colorbars are loaded from.
type RegistryConfig struct {
	ColormapDirs []string `yaml:"colormap_dirs"`
	ColorbarDirs []string `yaml:"colorbar_dirs"`
	// ValidateOnLoad rejects colorbar files that fail validation. It
	// defaults to true.
	ValidateOnLoad *bool `yaml:"validate_on_load"`
	// StorePath is the SQLite file holding dictionaries added through the
	// API. Empty disables persistence.
	StorePath string `yaml:"store_path"`
}

// Validate reports whether colorbar files are validated on load.
func (r RegistryConfig) Validate() bool {
	return r.ValidateOnLoad == nil || *r.ValidateOnLoad
}

// CacheConfig contains caching settings.
type CacheConfig struct {
	PreviewSizeMB     int `yaml:"preview_size_mb"`
	PreviewTTLMinutes int `yaml:"preview_ttl_minutes"`
	QueryCacheSize    int `yaml:"query_cache_size"`
}

// RenderConfig contains preview rendering settings.
type RenderConfig struct {
	PreviewWidth  int `yaml:"preview_width"`
	PreviewHeight int `yaml:"preview_height"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Return default config if file doesn't exist
		return DefaultConfig(), nil
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			Title:       "Colorbar registry",
		},
		Registry: RegistryConfig{
			ColormapDirs: []string{"./data/colormaps"},
			ColorbarDirs: []string{"./data/colorbars"},
			StorePath:    "./data/registry.db",
		},
		Cache: CacheConfig{
			PreviewSizeMB:     64,
			PreviewTTLMinutes: 10,
			QueryCacheSize:    1024,
		},
		Render: RenderConfig{
			PreviewWidth:  256,
			PreviewHeight: 32,
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = defaults.Server.CORSOrigins
	}
	if cfg.Server.Title == "" {
		cfg.Server.Title = defaults.Server.Title
	}
	if cfg.Cache.PreviewSizeMB == 0 {
		cfg.Cache.PreviewSizeMB = defaults.Cache.PreviewSizeMB
	}
	if cfg.Cache.PreviewTTLMinutes == 0 {
		cfg.Cache.PreviewTTLMinutes = defaults.Cache.PreviewTTLMinutes
	}
	if cfg.Cache.QueryCacheSize == 0 {
		cfg.Cache.QueryCacheSize = defaults.Cache.QueryCacheSize
	}
	if cfg.Render.PreviewWidth == 0 {
		cfg.Render.PreviewWidth = defaults.Render.PreviewWidth
	}
	if cfg.Render.PreviewHeight == 0 {
		cfg.Render.PreviewHeight = defaults.Render.PreviewHeight
	}
}

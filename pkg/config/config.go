// Package config loads axonote settings from a TOML file.
//
// A missing file is not an error: [Load] then returns [Default]. Keys present
// in the file override the defaults one by one, so a file only needs the
// settings it changes:
//
//	[server]
//	addr = ":9090"
//	session_ttl = "30m"
//
//	[layout]
//	direction = "DOWN"
//	layer_spacing = 120
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
// Durations are written as Go duration strings.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/axonote/pkg/errors"
	"github.com/matzehuels/axonote/pkg/graph"
	"github.com/matzehuels/axonote/pkg/layout"
)

const appName = "axonote"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the root of the configuration file.
type Config struct {
	Server ServerConfig `toml:"server"`
	Layout LayoutConfig `toml:"layout"`
	Cache  CacheConfig  `toml:"cache"`
}

// ServerConfig configures "axonote serve".
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	SessionTTL      time.Duration `toml:"session_ttl"`
	CleanupInterval time.Duration `toml:"cleanup_interval"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// LayoutConfig holds the layered layout parameters.
type LayoutConfig struct {
	Direction     string        `toml:"direction"`
	LayerSpacing  float64       `toml:"layer_spacing"`
	NodeSpacing   float64       `toml:"node_spacing"`
	DefaultWidth  float64       `toml:"default_width"`
	DefaultHeight float64       `toml:"default_height"`
	FitViewDelay  time.Duration `toml:"fit_view_delay"`
}

// CacheConfig selects the layout cache backend.
type CacheConfig struct {
	Backend   string        `toml:"backend"`
	Dir       string        `toml:"dir"`
	RedisAddr string        `toml:"redis_addr"`
	TTL       time.Duration `toml:"ttl"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			SessionTTL:      2 * time.Hour,
			CleanupInterval: 5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Layout: LayoutConfig{
			Direction:     string(layout.DirectionRight),
			LayerSpacing:  layout.DefaultLayerSpacing,
			NodeSpacing:   layout.DefaultNodeSpacing,
			DefaultWidth:  layout.DefaultWidth,
			DefaultHeight: layout.DefaultHeight,
			FitViewDelay:  100 * time.Millisecond,
		},
		Cache: CacheConfig{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
			TTL:       7 * 24 * time.Hour,
		},
	}
}

// Load reads the file at path on top of Default. An empty path or a file
// that does not exist yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, cfg)
}

// Parse decodes TOML data on top of base and validates the result.
// Unknown keys are rejected.
func Parse(data []byte, base Config) (Config, error) {
	md, err := toml.Decode(string(data), &base)
	if err != nil {
		return base, errs.Wrap(errs.ErrCodeInvalidConfig, err, "invalid config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return base, errs.New(errs.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := base.Validate(); err != nil {
		return base, err
	}
	return base, nil
}

// Encode renders cfg as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "server.addr must not be empty")
	}
	if c.Server.SessionTTL <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "server.session_ttl must be positive")
	}
	if c.Server.CleanupInterval <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "server.cleanup_interval must be positive")
	}
	if _, err := c.LayoutOptions(); err != nil {
		return err
	}
	if c.Layout.FitViewDelay < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "layout.fit_view_delay must not be negative")
	}
	if !slices.Contains([]string{BackendFile, BackendRedis, BackendNone}, c.Cache.Backend) {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisAddr == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	if c.Cache.TTL < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	return nil
}

// LayoutOptions converts the [layout] section.
func (c Config) LayoutOptions() (layout.Options, error) {
	dir, err := layout.ParseDirection(c.Layout.Direction)
	if err != nil {
		return layout.Options{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "layout.direction")
	}
	opts := layout.Options{
		Direction:    dir,
		LayerSpacing: c.Layout.LayerSpacing,
		NodeSpacing:  c.Layout.NodeSpacing,
		DefaultSize:  graph.Size{Width: c.Layout.DefaultWidth, Height: c.Layout.DefaultHeight},
	}
	if err := opts.Validate(); err != nil {
		return layout.Options{}, errs.Wrap(errs.ErrCodeInvalidConfig, err, "layout")
	}
	return opts, nil
}

// CacheDir returns the file cache directory: cache.dir when set, otherwise
// $XDG_CACHE_HOME/axonote or ~/.cache/axonote.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// DefaultPath returns $XDG_CONFIG_HOME/axonote/config.toml, falling back to
// ~/.config.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

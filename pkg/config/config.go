// Package config loads procgraph settings from a TOML file.
//
// Every field has a default, so a missing file or an empty file yields a
// working configuration. The CLI overlays its flags on the loaded values.
//
//	[tiling]
//	x_spacing = 1600
//	y_spacing = 900
//	padding   = 400
//
//	[cache]
//	backend = "redis"
//
//	[cache.redis]
//	addr = "localhost:6379"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/procgraph/pkg/assembly"
	"github.com/matzehuels/procgraph/pkg/cache"
	perrors "github.com/matzehuels/procgraph/pkg/errors"
	"github.com/matzehuels/procgraph/pkg/geom"
	"github.com/matzehuels/procgraph/pkg/graph"
)

// AppName names the per-user config and cache directories.
const AppName = "procgraph"

// Backend names.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the complete configuration.
type Config struct {
	Log      LogConfig              `toml:"log"`
	Layout   LayoutConfig           `toml:"layout"`
	Assembly AssemblyConfig         `toml:"assembly"`
	Tiling   assembly.TilingOptions `toml:"tiling"`
	Hull     HullConfig             `toml:"hull"`
	Cache    CacheConfig            `toml:"cache"`
	Store    StoreConfig            `toml:"store"`
	Server   ServerConfig           `toml:"server"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// LayoutConfig selects the Graphviz layout algorithm.
type LayoutConfig struct {
	Algorithm string `toml:"algorithm"`
}

type AssemblyConfig struct {
	// Concurrency bounds the number of graphs laid out at once. Zero means
	// unbounded.
	Concurrency int `toml:"concurrency"`
}

type HullConfig struct {
	geom.HullOptions
	Radius         float64 `toml:"radius"`
	ServicePadding float64 `toml:"service_padding"`
}

// GroupOptions returns the hull settings as model group options.
func (h HullConfig) GroupOptions() graph.GroupOptions {
	return graph.GroupOptions{Hull: h.HullOptions, Radius: h.Radius, ServicePadding: h.ServicePadding}
}

type CacheConfig struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`

	// Prefix namespaces every cache key, so several deployments can share
	// one Redis.
	Prefix string      `toml:"prefix"`
	Redis  RedisConfig `toml:"redis"`
}

// Keyer returns the cache keyer for the configured prefix.
func (c CacheConfig) Keyer() cache.Keyer {
	if c.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Prefix)
}

type RedisConfig struct {
	Addr     string        `toml:"addr"`
	Password string        `toml:"password"`
	DB       int           `toml:"db"`
	Attempts int           `toml:"attempts"`
	Backoff  time.Duration `toml:"backoff"`
}

type StoreConfig struct {
	Backend string      `toml:"backend"`
	Dir     string      `toml:"dir"`
	Mongo   MongoConfig `toml:"mongo"`
}

type MongoConfig struct {
	URI        string        `toml:"uri"`
	Database   string        `toml:"database"`
	Collection string        `toml:"collection"`
	Timeout    time.Duration `toml:"timeout"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	MaxBodyBytes    int64         `toml:"max_body_bytes"`
	Metrics         bool          `toml:"metrics"`
}

// Default returns the built-in configuration. Directories are left empty
// and resolved by [Config.CacheDir] and [Config.StoreDir].
func Default() Config {
	return Config{
		Log:    LogConfig{Level: "info"},
		Layout: LayoutConfig{Algorithm: "dot"},
		Tiling: assembly.TilingOptions{
			XSpacing: assembly.DefaultXSpacing,
			YSpacing: assembly.DefaultYSpacing,
			Padding:  assembly.DefaultPadding,
		},
		Hull: HullConfig{
			HullOptions:    geom.DefaultHullOptions(),
			Radius:         graph.DefaultHullRadius,
			ServicePadding: graph.DefaultServicePadding,
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			Redis:   RedisConfig{Addr: "localhost:6379", Attempts: 3, Backoff: 100 * time.Millisecond},
		},
		Store: StoreConfig{
			Backend: BackendFile,
			Mongo:   MongoConfig{URI: "mongodb://localhost:27017", Database: "procgraph", Collection: "models", Timeout: 10 * time.Second},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    64 << 20,
			Metrics:         true,
		},
	}
}

// Load reads path over the defaults. An empty path tries [DefaultPath]
// and silently falls back to the defaults when that file is missing; an
// explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "read config")
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg, leaving fields absent from data
// untouched, and validates the result.
func Parse(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidFormat, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return perrors.New(perrors.ErrCodeInvalidFormat, "unknown config key %q", undecoded[0].String())
	}
	return cfg.Validate()
}

// Validate checks backend names and numeric ranges.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidInput, err, "log level")
	}
	switch c.Cache.Backend {
	case BackendNone, BackendFile, BackendRedis:
	default:
		return perrors.New(perrors.ErrCodeInvalidInput, "unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Store.Backend {
	case BackendNone, BackendFile, BackendMongo:
	default:
		return perrors.New(perrors.ErrCodeInvalidInput, "unknown store backend %q", c.Store.Backend)
	}
	if c.Tiling.XSpacing < 0 || c.Tiling.YSpacing < 0 || c.Tiling.Padding < 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "tiling spacing and padding must not be negative")
	}
	if c.Hull.Radius < 0 || c.Hull.ServicePadding < 0 || c.Hull.MinEdgePadding < 0 || c.Hull.CollinearThreshold < 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "hull parameters must not be negative")
	}
	if c.Assembly.Concurrency < 0 {
		return perrors.New(perrors.ErrCodeInvalidInput, "assembly concurrency must not be negative")
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/procgraph/config.toml, falling back
// to the user config directory.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

// CacheDir returns the configured cache directory or the XDG default
// (~/.cache/procgraph).
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// StoreDir returns the configured model store directory or the XDG
// default (~/.local/share/procgraph/models).
func (c *Config) StoreDir() (string, error) {
	if c.Store.Dir != "" {
		return c.Store.Dir, nil
	}
	dir, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "models"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}

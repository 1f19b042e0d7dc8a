// Package config loads kinboard's TOML configuration.
//
// The file lives at $XDG_CONFIG_HOME/kinboard/config.toml (falling back to
// ~/.config). A missing file is not an error: every field has a default, and
// command-line flags override whatever the file sets.
//
//	[canvas]
//	card_width = 260
//	card_height = 100
//	locale = "en"
//	locked = true
//
//	[store]
//	backend = "file"
//	async = false
//	path = "~/.local/share/kinboard/tree.json"
//
//	[server]
//	addr = ":8080"
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/geometry"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Backends lists the accepted store.backend values.
var Backends = []string{BackendMemory, BackendFile, BackendBadger, BackendRedis, BackendMongo}

// Locales.
const (
	LocaleEN = "en"
	LocaleZH = "zh"
)

// Config holds kinboard configuration.
type Config struct {
	Canvas CanvasConfig `toml:"canvas"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// CanvasConfig controls the canvas.
type CanvasConfig struct {
	CardWidth  float64 `toml:"card_width"`
	CardHeight float64 `toml:"card_height"`
	Locale     string  `toml:"locale"` // "en" or "zh"
	Locked     bool    `toml:"locked"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string      `toml:"backend"`
	Async   bool        `toml:"async"`
	Path    string      `toml:"path"`
	Redis   RedisConfig `toml:"redis"`
	Mongo   MongoConfig `toml:"mongo"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// MongoConfig configures the mongo backend.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// ServerConfig controls "kinboard serve".
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{CardWidth: 260, CardHeight: 100, Locale: LocaleEN, Locked: true},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    filepath.Join(DataDir(), "tree.json"),
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "kinboard"},
			Mongo:   MongoConfig{URI: "mongodb://localhost:27017", Database: "kinboard"},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// CardSize returns the configured card size.
func (c *Config) CardSize() geometry.Size {
	return geometry.Size{W: c.Canvas.CardWidth, H: c.Canvas.CardHeight}
}

// Localized reports whether the alternate locale is selected.
func (c *Config) Localized() bool {
	return c.Canvas.Locale == LocaleZH
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Canvas.CardWidth <= 0 || c.Canvas.CardHeight <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "card size must be positive, got %vx%v", c.Canvas.CardWidth, c.Canvas.CardHeight)
	}
	if c.Canvas.Locale != LocaleEN && c.Canvas.Locale != LocaleZH {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown locale %q (want en or zh)", c.Canvas.Locale)
	}
	if !slices.Contains(Backends, c.Store.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q (want one of %s)", c.Store.Backend, strings.Join(Backends, ", "))
	}
	if (c.Store.Backend == BackendFile || c.Store.Backend == BackendBadger) && c.Store.Path == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "store.path is required for the %s backend", c.Store.Backend)
	}
	return nil
}

// Dir returns the kinboard config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "kinboard")
}

// DataDir returns the directory for file-backed stores.
func DataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "kinboard")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	cfg.Store.Path = expandHome(cfg.Store.Path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := Encode(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Encode renders cfg as TOML.
func Encode(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func expandHome(p string) string {
	if rest, ok := strings.CutPrefix(p, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return p
}

// Package config loads fsmflow settings.
//
// Settings come from, in increasing priority: built-in defaults, a TOML
// file, a .env file in the working directory, FSMFLOW_* environment
// variables and finally command-line flags (applied by the CLI).
//
// Config file locations (priority order):
//  1. $FSMFLOW_CONFIG
//  2. ./fsmflow.toml
//  3. $XDG_CONFIG_HOME/fsmflow/config.toml
//  4. ~/.config/fsmflow/config.toml
//
// Example file:
//
//	[layout]
//	engine = "dot"
//	default_direction = "TB"
//
//	[machines.auth]
//	direction = "LR"
//
//	[server]
//	addr = ":5050"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/fsmflow/pkg/cache"
	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/layout"
	"github.com/matzehuels/fsmflow/pkg/pipeline"
)

// Environment variables.
const (
	EnvConfigPath = "FSMFLOW_CONFIG"
	EnvAddr       = "FSMFLOW_ADDR"
	EnvBackend    = "FSMFLOW_BACKEND"
	EnvRedisURL   = "FSMFLOW_REDIS_URL"
	EnvMongoURI   = "FSMFLOW_MONGO_URI"
	EnvEngine     = "FSMFLOW_ENGINE"
)

const (
	ConfigFileName = "fsmflow.toml"
	ConfigDirName  = "fsmflow"
	DefaultAddr    = ":5050"
	DefaultBackend = "http://localhost:5050"
)

// Config is the complete settings tree.
type Config struct {
	Layout   LayoutConfig             `toml:"layout"`
	Machines map[string]MachineConfig `toml:"machines"`
	Server   ServerConfig             `toml:"server"`
	Cache    CacheConfig              `toml:"cache"`
	Storage  StorageConfig            `toml:"storage"`
}

// LayoutConfig holds layout defaults.
type LayoutConfig struct {
	Engine           string  `toml:"engine"`
	NodeWidth        float64 `toml:"node_width"`
	NodeHeight       float64 `toml:"node_height"`
	NodeSep          float64 `toml:"nodesep"`
	RankSep          float64 `toml:"ranksep"`
	DefaultDirection string  `toml:"default_direction"`
	Initial          string  `toml:"initial"` // Machine selected first by the view
}

// MachineConfig holds per-machine settings.
type MachineConfig struct {
	Direction string `toml:"direction"`
}

// ServerConfig holds server and backend settings.
type ServerConfig struct {
	Addr     string `toml:"addr"`
	Backend  string `toml:"backend"`  // Backend URL used by client commands
	Machines string `toml:"machines"` // Definition file or directory; demo machines when empty
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Disabled bool     `toml:"disabled"`
	TTL      Duration `toml:"ttl"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
}

// StorageConfig holds MongoDB settings.
type StorageConfig struct {
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

// Duration is a time.Duration written as "10m" or "168h" in files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings: traffic lays out top to bottom,
// auth, device and cicd left to right.
func Default() *Config {
	dirs := layout.DefaultDirections()
	machines := make(map[string]MachineConfig, len(dirs.ByMachine))
	for m, d := range dirs.ByMachine {
		machines[m] = MachineConfig{Direction: d.String()}
	}
	return &Config{
		Layout: LayoutConfig{
			Engine:           pipeline.DefaultEngine,
			NodeWidth:        layout.DefaultSize.Width,
			NodeHeight:       layout.DefaultSize.Height,
			NodeSep:          layout.DefaultSpacing.NodeSep,
			RankSep:          layout.DefaultSpacing.RankSep,
			DefaultDirection: dirs.Default.String(),
		},
		Machines: machines,
		Server:   ServerConfig{Addr: DefaultAddr, Backend: DefaultBackend},
		Cache:    CacheConfig{TTL: Duration{cache.TTLLayout}},
		Storage:  StorageConfig{Database: "fsmflow"},
	}
}

// Load reads .env, finds and loads the config file (defaults when none is
// found) and applies environment overrides. It returns the file path used.
func Load() (*Config, string, error) {
	_ = godotenv.Load()

	path := FindConfigPath()
	if path == "" {
		cfg := Default()
		cfg.ApplyEnv()
		return cfg, "", cfg.Validate()
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		return nil, path, err
	}
	cfg.ApplyEnv()
	return cfg, path, cfg.Validate()
}

// LoadFromPath decodes the file at path over the defaults. Unknown keys
// are rejected.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ApplyEnv overrides settings from FSMFLOW_* variables.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Server.Addr, EnvAddr)
	set(&c.Server.Backend, EnvBackend)
	set(&c.Cache.RedisURL, EnvRedisURL)
	set(&c.Storage.MongoURI, EnvMongoURI)
	set(&c.Layout.Engine, EnvEngine)
}

// Validate checks engine and direction names.
func (c *Config) Validate() error {
	if err := pipeline.ValidateEngine(c.Layout.Engine); err != nil {
		return err
	}
	_, err := c.Directions()
	return err
}

// Directions returns the per-machine direction table.
func (c *Config) Directions() (layout.Directions, error) {
	def := layout.DefaultDirection
	if c.Layout.DefaultDirection != "" {
		d, err := layout.ParseDirection(c.Layout.DefaultDirection)
		if err != nil {
			return layout.Directions{}, fmt.Errorf("default_direction: %w", err)
		}
		def = d
	}
	dirs := layout.Directions{Default: def, ByMachine: make(map[string]layout.Direction, len(c.Machines))}
	for name, m := range c.Machines {
		if m.Direction == "" {
			continue
		}
		d, err := layout.ParseDirection(m.Direction)
		if err != nil {
			return layout.Directions{}, fmt.Errorf("machines.%s.direction: %w", name, err)
		}
		dirs.ByMachine[name] = d
	}
	return dirs, nil
}

// Size returns the node box size.
func (c *Config) Size() layout.Size {
	return layout.Size{Width: c.Layout.NodeWidth, Height: c.Layout.NodeHeight}
}

// Spacing returns the gaps between boxes.
func (c *Config) Spacing() layout.Spacing {
	return layout.Spacing{NodeSep: c.Layout.NodeSep, RankSep: c.Layout.RankSep}
}

// Save writes c as TOML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

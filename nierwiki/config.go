package nierwiki

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/automata/internal/extract"
	"github.com/hazyhaar/automata/internal/fetchcache"
)

// Config holds all nierwiki configuration.
type Config struct {
	DBPath     string `yaml:"db_path" env:"NIERWIKI_DB_PATH"`
	CachePath  string `yaml:"cache_path" env:"NIERWIKI_CACHE_PATH"`
	CacheFlush string `yaml:"cache_flush" env:"NIERWIKI_CACHE_FLUSH"`
	AssetDir   string `yaml:"asset_dir" env:"NIERWIKI_ASSET_DIR"`
	// BaseURL overrides Source.BaseURL.
	BaseURL    string `yaml:"base_url" env:"NIERWIKI_BASE_URL"`
	StrictRefs bool   `yaml:"strict_refs" env:"NIERWIKI_STRICT_REFS"`

	Source  extract.Source  `yaml:"source"`
	Store   StoreConfig     `yaml:"store"`
	Fetch   FetchConfig     `yaml:"fetch"`
	HTTP    HTTPConfig      `yaml:"http"`
	Aliases extract.Aliases `yaml:"aliases"`
}

// StoreConfig tunes the SQLite connection.
type StoreConfig struct {
	BusyTimeoutMS int `yaml:"busy_timeout_ms" env:"NIERWIKI_STORE_BUSY_TIMEOUT_MS"`
	// Synchronous is OFF, NORMAL, FULL or EXTRA.
	Synchronous string `yaml:"synchronous" env:"NIERWIKI_STORE_SYNCHRONOUS"`
}

// FetchConfig controls page and asset retrieval.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout" env:"NIERWIKI_FETCH_TIMEOUT"`
	MaxBytes  int64         `yaml:"max_bytes" env:"NIERWIKI_FETCH_MAX_BYTES"`
	UserAgent string        `yaml:"user_agent" env:"NIERWIKI_FETCH_USER_AGENT"`
	// Mode is "http" (default) or "browser". Assets always use HTTP.
	Mode string `yaml:"mode" env:"NIERWIKI_FETCH_MODE"`
	// BrowserURL is the DevTools URL of a running Chrome; empty launches one.
	BrowserURL string `yaml:"browser_url" env:"NIERWIKI_FETCH_BROWSER_URL"`
	// AllowPrivate lets the fetcher reach loopback and private hosts, for a
	// local mirror of the wiki.
	AllowPrivate bool `yaml:"allow_private" env:"NIERWIKI_FETCH_ALLOW_PRIVATE"`
}

// HTTPConfig controls the read-only query API.
type HTTPConfig struct {
	Addr string `yaml:"addr" env:"NIERWIKI_HTTP_ADDR"`
}

// Fetch modes.
const (
	FetchHTTP    = "http"
	FetchBrowser = "browser"
)

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "NieR.sqlite"
	}
	if c.CachePath == "" {
		c.CachePath = "cache.json"
	}
	if c.CacheFlush == "" {
		c.CacheFlush = string(fetchcache.FlushAtEnd)
	}
	if c.AssetDir == "" {
		c.AssetDir = "img_cache"
	}

	def := extract.DefaultSource()
	if c.BaseURL != "" {
		c.Source.BaseURL = c.BaseURL
	}
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = def.BaseURL
	}
	if c.Source.Characters == "" {
		c.Source.Characters = def.Characters
	}
	if c.Source.Locations == "" {
		c.Source.Locations = def.Locations
	}
	if c.Source.MainQuests == "" {
		c.Source.MainQuests = def.MainQuests
	}
	if c.Source.SideQuests == "" {
		c.Source.SideQuests = def.SideQuests
	}
	if c.Source.Catchables == "" {
		c.Source.Catchables = def.Catchables
	}

	if c.Store.BusyTimeoutMS == 0 {
		c.Store.BusyTimeoutMS = 10_000
	}
	if c.Store.Synchronous == "" {
		c.Store.Synchronous = "NORMAL"
	}
	c.Store.Synchronous = strings.ToUpper(c.Store.Synchronous)

	if c.Fetch.Mode == "" {
		c.Fetch.Mode = FetchHTTP
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = "127.0.0.1:8087"
	}
}

func (c *Config) validate() error {
	if _, err := fetchcache.ParseFlushPolicy(c.CacheFlush); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Store.BusyTimeoutMS < 0 {
		return fmt.Errorf("%w: store.busy_timeout_ms %d is negative", ErrInvalidConfig, c.Store.BusyTimeoutMS)
	}
	switch c.Store.Synchronous {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("%w: store.synchronous %q (want OFF, NORMAL, FULL or EXTRA)", ErrInvalidConfig, c.Store.Synchronous)
	}
	switch c.Fetch.Mode {
	case FetchHTTP, FetchBrowser:
	default:
		return fmt.Errorf("%w: fetch.mode %q (want http or browser)", ErrInvalidConfig, c.Fetch.Mode)
	}
	return nil
}

// aliases returns the built-in alias tables with the configured ones merged on top.
func (c *Config) aliases() extract.Aliases {
	return extract.DefaultAliases().Merge(c.Aliases)
}

// LoadConfigFile reads a YAML config file. An empty path yields an empty
// config. Environment variables are applied on top of the file.
func LoadConfigFile(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with the NIERWIKI_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("%w: parse env: %v", ErrInvalidConfig, err)
	}
	return nil
}

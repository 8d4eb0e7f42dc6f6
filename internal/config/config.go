package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/stdland/pkg/types"
)

// Environment variables consulted by Load
const (
	EnvConfigPath = "STDLAND_CONFIG"
	EnvAddr       = "STDLAND_ADDR"
	EnvDBPath     = "STDLAND_DB_PATH"
)

// Dataset sources
const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
)

// Search modes accepted in configuration
const (
	ModeFuzzy   = "fuzzy"
	ModeKeyword = "keyword"
	ModeHybrid  = "hybrid"
)

// DefaultDBPath is the default location of the SQLite database
const DefaultDBPath = "~/.stdland/stdland.db"

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root configuration structure. It mirrors config.yaml.
type Config struct {
	Server   ServerConfig             `yaml:"server"`
	Search   SearchConfig             `yaml:"search"`
	Datasets map[string]DatasetConfig `yaml:"datasets"`
	Storage  StorageConfig            `yaml:"storage"`
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	RateLimit       float64       `yaml:"rate_limit"` // API requests per second per client
	RateBurst       int           `yaml:"rate_burst"`
	GitHostPrefix   string        `yaml:"git_host_prefix"` // Hosts starting with this serve the git dataset
	SiteURL         string        `yaml:"site_url"`
	RepositoryURL   string        `yaml:"repository_url"`
}

// SearchConfig configures ranking and the redirect heuristic
type SearchConfig struct {
	Mode             string        `yaml:"mode"`
	Threshold        float64       `yaml:"threshold"`    // Worst fuzzy score still reported as a match
	PageResults      int           `yaml:"page_results"` // Results rendered on the lookup page
	LiveResults      int           `yaml:"live_results"` // Results returned to the search box
	CacheSize        int           `yaml:"cache_size"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	RRFConstant      float64       `yaml:"rrf_constant"`
	RedirectMaxScore float64       `yaml:"redirect_max_score"`
	RedirectMinGap   float64       `yaml:"redirect_min_gap"`
}

// DatasetConfig describes where a dataset is loaded from
type DatasetConfig struct {
	Source  string `yaml:"source"`
	Path    string `yaml:"path"` // JSON file for the file source
	BaseURL string `yaml:"base_url"`
}

// StorageConfig configures the SQLite database
type StorageConfig struct {
	Path string `yaml:"path"`
}

// DefaultBaseURLs maps well-known datasets to the site their items link to
var DefaultBaseURLs = map[string]string{
	types.DatasetStable: "https://deno.land/std/",
	types.DatasetGit:    "https://github.com/denoland/deno_std/blob/main/",
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the YAML file at path, substitutes environment variables and
// returns a validated configuration. An empty path yields the defaults.
// Environment overrides are applied after the file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at: %s", path)
		}

		rawBytes, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// ${VAR} and $VAR are replaced with values from the environment
		contentWithEnv := os.ExpandEnv(string(rawBytes))

		if err := yaml.Unmarshal([]byte(contentWithEnv), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills every unset field
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 20
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = 40
	}
	if c.Server.GitHostPrefix == "" {
		c.Server.GitHostPrefix = "git."
	}
	if c.Server.SiteURL == "" {
		c.Server.SiteURL = "https://std.land/"
	}
	if c.Server.RepositoryURL == "" {
		c.Server.RepositoryURL = "https://github.com/zebp/std-land"
	}

	if c.Search.Mode == "" {
		c.Search.Mode = ModeFuzzy
	}
	if c.Search.Threshold == 0 {
		c.Search.Threshold = 0.6
	}
	if c.Search.PageResults == 0 {
		c.Search.PageResults = 4
	}
	if c.Search.LiveResults == 0 {
		c.Search.LiveResults = 6
	}
	if c.Search.CacheSize == 0 {
		c.Search.CacheSize = 1000
	}
	if c.Search.CacheTTL == 0 {
		c.Search.CacheTTL = time.Hour
	}
	if c.Search.RRFConstant == 0 {
		c.Search.RRFConstant = 60
	}
	if c.Search.RedirectMaxScore == 0 {
		c.Search.RedirectMaxScore = 0.0003
	}
	if c.Search.RedirectMinGap == 0 {
		c.Search.RedirectMinGap = 0.0002
	}

	if c.Datasets == nil {
		c.Datasets = make(map[string]DatasetConfig)
	}
	for name := range DefaultBaseURLs {
		if _, ok := c.Datasets[name]; !ok {
			c.Datasets[name] = DatasetConfig{}
		}
	}
	for name, ds := range c.Datasets {
		if ds.Source == "" {
			ds.Source = SourceEmbedded
			if ds.Path != "" {
				ds.Source = SourceFile
			}
		}
		// sqlite datasets carry the base URL they were stored with
		if ds.BaseURL == "" && ds.Source != SourceSQLite {
			ds.BaseURL = DefaultBaseURLs[name]
		}
		c.Datasets[name] = ds
	}

	if c.Storage.Path == "" {
		c.Storage.Path = DefaultDBPath
	}
}

// applyEnv applies environment overrides
func (c *Config) applyEnv() {
	if addr := os.Getenv(EnvAddr); addr != "" {
		c.Server.Addr = addr
	}
	if dbPath := os.Getenv(EnvDBPath); dbPath != "" {
		c.Storage.Path = dbPath
	}
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	switch c.Search.Mode {
	case ModeFuzzy, ModeKeyword, ModeHybrid:
	default:
		return fmt.Errorf("%w: unknown search mode %q", ErrInvalidConfig, c.Search.Mode)
	}

	if c.Search.Threshold <= 0 || c.Search.Threshold > 1 {
		return fmt.Errorf("%w: search.threshold must be in (0, 1]", ErrInvalidConfig)
	}
	if c.Search.PageResults < 0 || c.Search.LiveResults < 0 {
		return fmt.Errorf("%w: result counts must not be negative", ErrInvalidConfig)
	}
	if c.Search.RedirectMaxScore < 0 || c.Search.RedirectMaxScore > 1 {
		return fmt.Errorf("%w: search.redirect_max_score must be in [0, 1]", ErrInvalidConfig)
	}
	if c.Search.RedirectMinGap < 0 || c.Search.RedirectMinGap > 1 {
		return fmt.Errorf("%w: search.redirect_min_gap must be in [0, 1]", ErrInvalidConfig)
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidConfig)
	}

	if _, ok := c.Datasets[types.DatasetStable]; !ok {
		return fmt.Errorf("%w: dataset %q is required", ErrInvalidConfig, types.DatasetStable)
	}

	for name, ds := range c.Datasets {
		switch ds.Source {
		case SourceEmbedded, SourceSQLite:
		case SourceFile:
			if ds.Path == "" {
				return fmt.Errorf("%w: dataset %q: file source requires a path", ErrInvalidConfig, name)
			}
		default:
			return fmt.Errorf("%w: dataset %q: unknown source %q", ErrInvalidConfig, name, ds.Source)
		}
		if ds.BaseURL == "" && ds.Source != SourceSQLite {
			return fmt.Errorf("%w: dataset %q: base_url is required", ErrInvalidConfig, name)
		}
	}

	return nil
}

// UsesStorage reports whether any dataset is read from SQLite
func (c *Config) UsesStorage() bool {
	for _, ds := range c.Datasets {
		if ds.Source == SourceSQLite {
			return true
		}
	}
	return false
}

// ExpandPath resolves a leading "~/" against the user's home directory
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

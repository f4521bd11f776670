package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/raysh454/brandscout/internal/browser"
	"github.com/raysh454/brandscout/internal/extract"
	"github.com/raysh454/brandscout/internal/logging"
	"github.com/raysh454/brandscout/internal/scraper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BRANDSCOUT_"

// Config is the runtime configuration shared by the server and the CLI.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Browser BrowserConfig `yaml:"browser"`
	Scrape  ScrapeConfig  `yaml:"scrape"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`

	// JobRetentionTime is how long finished jobs stay listable.
	JobRetentionTime time.Duration `yaml:"job_retention"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

type BrowserConfig struct {
	Backend              string            `yaml:"backend"`
	Headless             bool              `yaml:"headless"`
	ExecPath             string            `yaml:"exec_path"`
	ViewportWidth        int               `yaml:"viewport_width"`
	ViewportHeight       int               `yaml:"viewport_height"`
	NavigationTimeout    time.Duration     `yaml:"navigation_timeout"`
	BlockedResourceTypes []string          `yaml:"blocked_resource_types"`
	UserAgent            string            `yaml:"user_agent"`
	MaskAutomation       bool              `yaml:"mask_automation"`
	ExtraHeaders         map[string]string `yaml:"extra_headers"`
}

type ScrapeConfig struct {
	ReadyTimeout   time.Duration `yaml:"ready_timeout"`
	SettleDelay    time.Duration `yaml:"settle_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout"` // 0 disables
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	bo := browser.DefaultOptions()
	so := scraper.DefaultConfig()
	return &Config{
		Server: ServerConfig{ListenAddr: ":8080"},
		Browser: BrowserConfig{
			Backend:              browser.DefaultBackend,
			Headless:             bo.Headless,
			ViewportWidth:        bo.ViewportWidth,
			ViewportHeight:       bo.ViewportHeight,
			NavigationTimeout:    bo.NavigationTimeout,
			BlockedResourceTypes: bo.BlockedResourceTypes,
			UserAgent:            bo.UserAgent,
			MaskAutomation:       bo.MaskAutomation,
			ExtraHeaders:         bo.ExtraHeaders,
		},
		Scrape: ScrapeConfig{
			ReadyTimeout:   so.Extract.ReadyTimeout,
			SettleDelay:    so.Extract.SettleDelay,
			RequestTimeout: so.RequestTimeout,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "~/.config/brandscout/history.db",
		},
		Logging:          LoggingConfig{Level: "info"},
		JobRetentionTime: 30 * time.Minute,
	}
}

// BrowserOptions converts the browser section for browser.NewFetcher.
func (c *Config) BrowserOptions() browser.Options {
	return browser.Options{
		Headless:             c.Browser.Headless,
		ViewportWidth:        c.Browser.ViewportWidth,
		ViewportHeight:       c.Browser.ViewportHeight,
		NavigationTimeout:    c.Browser.NavigationTimeout,
		BlockedResourceTypes: c.Browser.BlockedResourceTypes,
		UserAgent:            c.Browser.UserAgent,
		MaskAutomation:       c.Browser.MaskAutomation,
		ExtraHeaders:         c.Browser.ExtraHeaders,
		ExecPath:             c.Browser.ExecPath,
	}
}

// ScraperConfig converts the scrape section for scraper.New.
func (c *Config) ScraperConfig() scraper.Config {
	return scraper.Config{
		Extract: extract.Config{
			ReadyTimeout: c.Scrape.ReadyTimeout,
			SettleDelay:  c.Scrape.SettleDelay,
		},
		RequestTimeout: c.Scrape.RequestTimeout,
	}
}

func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Logging.Level)
}

// Validate rejects configurations that cannot run.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		errs = append(errs, errors.New("browser viewport must be positive"))
	}
	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("browser.navigation_timeout must be positive"))
	}
	if c.Scrape.ReadyTimeout < 0 || c.Scrape.SettleDelay < 0 || c.Scrape.RequestTimeout < 0 {
		errs = append(errs, errors.New("scrape timeouts must not be negative"))
	}
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, errors.New("history.path is required when history is enabled"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, an optional YAML file and
// BRANDSCOUT_* environment variables, in that order of precedence (last
// wins). envFile is loaded into the process environment first without
// overriding variables that are already set; an empty envFile means ".env"
// if present.
func LoadConfig(path, envFile string) (*Config, error) {
	if envFile == "" {
		if _, err := os.Stat(".env"); err == nil {
			envFile = ".env"
		}
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	return loadConfig(path, os.LookupEnv)
}

func loadConfig(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str("LISTEN_ADDR", &cfg.Server.ListenAddr)
	str("BROWSER_BACKEND", &cfg.Browser.Backend)
	boolean("HEADLESS", &cfg.Browser.Headless)
	str("CHROME_PATH", &cfg.Browser.ExecPath)
	integer("VIEWPORT_WIDTH", &cfg.Browser.ViewportWidth)
	integer("VIEWPORT_HEIGHT", &cfg.Browser.ViewportHeight)
	duration("NAVIGATION_TIMEOUT", &cfg.Browser.NavigationTimeout)
	str("USER_AGENT", &cfg.Browser.UserAgent)
	boolean("MASK_AUTOMATION", &cfg.Browser.MaskAutomation)
	if v, ok := lookup(EnvPrefix + "BLOCKED_RESOURCE_TYPES"); ok {
		cfg.Browser.BlockedResourceTypes = splitList(v)
	}
	duration("READY_TIMEOUT", &cfg.Scrape.ReadyTimeout)
	duration("SETTLE_DELAY", &cfg.Scrape.SettleDelay)
	duration("REQUEST_TIMEOUT", &cfg.Scrape.RequestTimeout)
	boolean("HISTORY_ENABLED", &cfg.History.Enabled)
	str("HISTORY_PATH", &cfg.History.Path)
	str("LOG_LEVEL", &cfg.Logging.Level)
	duration("JOB_RETENTION", &cfg.JobRetentionTime)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	out := []string{}
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the full configuration required to run the scraper.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Browser BrowserConfig `yaml:"browser"`
	Scrape  ScrapeConfig  `yaml:"scrape"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the HTTP trigger server.
type ServerConfig struct {
	Addr          string   `yaml:"addr"`
	ShutdownGrace Duration `yaml:"shutdown_grace"`
}

// StoreConfig describes the Firestore document store holding scraped
// domains and batch manifests.
type StoreConfig struct {
	ProjectID        string `yaml:"project_id"`
	CredentialsFile  string `yaml:"credentials_file"`
	DomainCollection string `yaml:"domain_collection"`
	BatchCollection  string `yaml:"batch_collection"`
}

// BrowserConfig controls the headless browser session used to render
// listing pages.
type BrowserConfig struct {
	Headless     bool     `yaml:"headless"`
	UserAgent    string   `yaml:"user_agent"`
	NavTimeout   Duration `yaml:"nav_timeout"`
	ReadyTimeout Duration `yaml:"ready_timeout"`
	SettleDelay  Duration `yaml:"settle_delay"`
	NoSandbox    bool     `yaml:"no_sandbox"`
}

// ScrapeConfig controls pagination pacing and the source catalog.
type ScrapeConfig struct {
	PageDelay      Duration `yaml:"page_delay"`
	SourcesFile    string   `yaml:"sources_file"`
	RequestTimeout Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64    `yaml:"max_body_bytes"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Structured bool   `yaml:"structured"`
}

// Default returns a Config populated with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:          ":5001",
			ShutdownGrace: DurationFrom(15 * time.Second),
		},
		Store: StoreConfig{
			DomainCollection: "domains",
			BatchCollection:  "batches",
		},
		Browser: BrowserConfig{
			Headless:     true,
			NavTimeout:   DurationFrom(30 * time.Second),
			ReadyTimeout: DurationFrom(10 * time.Second),
			SettleDelay:  DurationFrom(2 * time.Second),
			NoSandbox:    true,
		},
		Scrape: ScrapeConfig{
			PageDelay:      DurationFrom(2 * time.Second),
			RequestTimeout: DurationFrom(10 * time.Second),
			MaxBodyBytes:   6 * 1024 * 1024,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Structured: true,
		},
	}
}

// Load reads, merges, and validates configuration from a YAML file.
func Load(path string) (*Config, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decodeYAML(r, &cfg); err != nil {
		return nil, err
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Validate enforces required invariants for the scraper configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}
	if strings.TrimSpace(c.Store.DomainCollection) == "" {
		return errors.New("store.domain_collection must be set")
	}
	if strings.TrimSpace(c.Store.BatchCollection) == "" {
		return errors.New("store.batch_collection must be set")
	}
	if c.Browser.NavTimeout.Duration <= 0 {
		return fmt.Errorf("browser.nav_timeout must be > 0 (got %s)", c.Browser.NavTimeout)
	}
	if c.Browser.ReadyTimeout.Duration <= 0 {
		return fmt.Errorf("browser.ready_timeout must be > 0 (got %s)", c.Browser.ReadyTimeout)
	}
	if c.Browser.SettleDelay.Duration < 0 {
		return fmt.Errorf("browser.settle_delay must be >= 0 (got %s)", c.Browser.SettleDelay)
	}
	if c.Scrape.PageDelay.Duration < 0 {
		return fmt.Errorf("scrape.page_delay must be >= 0 (got %s)", c.Scrape.PageDelay)
	}
	if c.Scrape.MaxBodyBytes <= 0 {
		return fmt.Errorf("scrape.max_body_bytes must be > 0 (got %d)", c.Scrape.MaxBodyBytes)
	}
	return nil
}

func (c *Config) normalise() {
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.Store.ProjectID = strings.TrimSpace(c.Store.ProjectID)
	c.Store.CredentialsFile = strings.TrimSpace(c.Store.CredentialsFile)
	c.Store.DomainCollection = strings.TrimSpace(c.Store.DomainCollection)
	c.Store.BatchCollection = strings.TrimSpace(c.Store.BatchCollection)
	c.Browser.UserAgent = strings.TrimSpace(c.Browser.UserAgent)
	c.Scrape.SourcesFile = strings.TrimSpace(c.Scrape.SourcesFile)
}

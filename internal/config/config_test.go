package config

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Server.Addr != ":5001" {
		t.Fatalf("unexpected default addr %q", cfg.Server.Addr)
	}
	if cfg.Store.DomainCollection != "domains" || cfg.Store.BatchCollection != "batches" {
		t.Fatalf("unexpected default collections: %+v", cfg.Store)
	}
	if cfg.Browser.NavTimeout.Duration != 30*time.Second {
		t.Fatalf("unexpected nav timeout %s", cfg.Browser.NavTimeout)
	}
	if cfg.Scrape.PageDelay.Duration != 2*time.Second {
		t.Fatalf("unexpected page delay %s", cfg.Scrape.PageDelay)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	doc := `
server:
  addr: ":8080"
browser:
  nav_timeout: 45s
  headless: false
scrape:
  page_delay: 500ms
logging:
  level: debug
`
	cfg, err := LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr override lost: %q", cfg.Server.Addr)
	}
	if cfg.Browser.NavTimeout.Duration != 45*time.Second {
		t.Fatalf("nav timeout override lost: %s", cfg.Browser.NavTimeout)
	}
	if cfg.Browser.Headless {
		t.Fatal("headless override lost")
	}
	if cfg.Scrape.PageDelay.Duration != 500*time.Millisecond {
		t.Fatalf("page delay override lost: %s", cfg.Scrape.PageDelay)
	}
	// Untouched sections keep their defaults.
	if cfg.Browser.ReadyTimeout.Duration != 10*time.Second {
		t.Fatalf("untouched default mutated: %s", cfg.Browser.ReadyTimeout)
	}
	if cfg.Store.DomainCollection != "domains" {
		t.Fatalf("untouched default mutated: %q", cfg.Store.DomainCollection)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("serverr:\n  addr: ':1'\n"))
	if err == nil {
		t.Fatal("unknown top-level keys must be rejected")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "  " }},
		{"empty domain collection", func(c *Config) { c.Store.DomainCollection = "" }},
		{"empty batch collection", func(c *Config) { c.Store.BatchCollection = "" }},
		{"zero nav timeout", func(c *Config) { c.Browser.NavTimeout = Duration{} }},
		{"zero ready timeout", func(c *Config) { c.Browser.ReadyTimeout = Duration{} }},
		{"negative settle", func(c *Config) { c.Browser.SettleDelay = DurationFrom(-time.Second) }},
		{"negative page delay", func(c *Config) { c.Scrape.PageDelay = DurationFrom(-time.Second) }},
		{"zero body limit", func(c *Config) { c.Scrape.MaxBodyBytes = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestDurationYAML(t *testing.T) {
	var cfg struct {
		Grace Duration `yaml:"grace"`
	}
	if err := yaml.Unmarshal([]byte("grace: 1m30s\n"), &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cfg.Grace.Duration != 90*time.Second {
		t.Fatalf("expected 1m30s, got %s", cfg.Grace)
	}
	if err := yaml.Unmarshal([]byte("grace: 90\n"), &cfg); err != nil {
		t.Fatalf("numeric seconds should decode: %v", err)
	}
	if cfg.Grace.Duration != 90*time.Second {
		t.Fatalf("expected 90s, got %s", cfg.Grace)
	}
	if err := yaml.Unmarshal([]byte("grace: not-a-duration\n"), &cfg); err == nil {
		t.Fatal("invalid durations must be rejected")
	}
}

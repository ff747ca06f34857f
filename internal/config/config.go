// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig            `mapstructure:"server"`
	Auth    AuthConfig              `mapstructure:"auth"`
	HTTP    HTTPConfig              `mapstructure:"http"`
	Scrape  ScrapeConfig            `mapstructure:"scrape"`
	Extract ExtractConfig           `mapstructure:"extract"`
	Sources map[string]SourceConfig `mapstructure:"sources"`
	DB      DBConfig                `mapstructure:"db"`
	PubSub  PubSubConfig            `mapstructure:"pubsub"`
	Archive ArchiveConfig           `mapstructure:"archive"`
	Logging LoggingConfig           `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// HTTPConfig configures outbound fetch behavior.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxAttempts    int `mapstructure:"max_attempts"`
	BackoffBaseMs  int `mapstructure:"backoff_base_ms"`
	JitterMaxMs    int `mapstructure:"jitter_max_ms"`
}

// ScrapeConfig governs per-request pipeline behavior.
type ScrapeConfig struct {
	BudgetSeconds int `mapstructure:"budget_seconds"`
}

// ExtractConfig holds the selector lists driving the extraction cascade.
// These are configuration, not invariants: target sites drift and the lists
// are expected to be tuned without code changes.
type ExtractConfig struct {
	ContainerSelectors []string `mapstructure:"container_selectors"`
	NameSelectors      []string `mapstructure:"name_selectors"`
	PhoneSelectors     []string `mapstructure:"phone_selectors"`
	MaxElements        int      `mapstructure:"max_elements"`
}

// SourceConfig describes one directory source. URL templates contain a
// {query} placeholder substituted with each location form in order.
type SourceConfig struct {
	URLTemplates []string `mapstructure:"url_templates"`
}

// DBConfig controls access to the business store. Empty DSN disables
// persistence.
type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// PubSubConfig holds metadata for completion notifications. Empty project
// disables publishing.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ArchiveConfig sets raw HTML archival behavior.
type ArchiveConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Provider    string `mapstructure:"provider"`
	GCSBucket   string `mapstructure:"gcs_bucket"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LEADSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.max_attempts", 3)
	v.SetDefault("http.backoff_base_ms", 1000)
	v.SetDefault("http.jitter_max_ms", 2000)
	v.SetDefault("scrape.budget_seconds", 35)
	v.SetDefault("extract.max_elements", 10)
	v.SetDefault("extract.container_selectors", []string{
		".result",
		".business-listing",
		".company-card",
		".search-results .listing",
		"div[class*=organic] .result",
		"article",
	})
	v.SetDefault("extract.name_selectors", []string{
		".business-name",
		".name",
		"h2 a",
		"h2",
		"h3",
		"a[class*=name]",
	})
	v.SetDefault("extract.phone_selectors", []string{
		".phones",
		".phone",
		"[class*=phone]",
		"a[href^='tel:']",
	})
	v.SetDefault("sources.yellowpages.url_templates", []string{
		"https://www.yellowpages.com/search?search_terms=small+business&geo_location_terms={query}",
		"https://www.yellowpages.ca/search/si/1/business/{query}",
	})
	v.SetDefault("sources.localstack.url_templates", []string{
		"https://www.localstack.com/browse-businesses/{query}",
		"https://www.localstack.com/search?location={query}",
		"https://www.localstack.com/united-states/{query}",
	})
	v.SetDefault("pubsub.topic_name", "scrape-events")
	v.SetDefault("archive.provider", "memory")
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("archive.content_type", "text/html; charset=utf-8")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxAttempts <= 0 {
		return fmt.Errorf("http.max_attempts must be > 0")
	}
	if c.Scrape.BudgetSeconds <= 0 {
		return fmt.Errorf("scrape.budget_seconds must be > 0")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	for name, src := range c.Sources {
		if len(src.URLTemplates) == 0 {
			return fmt.Errorf("sources.%s.url_templates must not be empty", name)
		}
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Archive.Enabled && c.Archive.Provider == "gcs" && c.Archive.GCSBucket == "" {
		return fmt.Errorf("archive.gcs_bucket must be set for the gcs provider")
	}
	return nil
}

// AttemptTimeout returns the per-fetch timeout as a duration.
func (c Config) AttemptTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Budget returns the soft global budget for one scrape request.
func (c Config) Budget() time.Duration {
	return time.Duration(c.Scrape.BudgetSeconds) * time.Second
}

package scrapeless

import (
	"fmt"
	"time"

	"scrapeless-go/lib/env"
	"scrapeless-go/lib/restyutil"
)

const (
	DefaultBaseApiUrl    = "https://api.scrapeless.com"
	DefaultActorApiUrl   = "https://actor.scrapeless.com"
	DefaultStorageApiUrl = "https://storage.scrapeless.com"
	DefaultBrowserApiUrl = "https://browser.scrapeless.com"
	DefaultCrawlApiUrl   = "https://api.scrapeless.com"
	DefaultTimeout       = 30 * time.Second
)

// Config is read from scrapeless.json5 by the cli, timeouts are given in
// milliseconds there.
//
// Crawl and scrape job requests only use CrawlTimeoutMs, TimeoutMs does not
// apply to them. Job polls can run for a long time, so they have no timeout
// unless crawl_timeout is set.
type Config struct {
	ApiKey        string `json:"api_key"`
	BaseApiUrl    string `json:"base_api_url"`
	ActorApiUrl   string `json:"actor_api_url"`
	StorageApiUrl string `json:"storage_api_url"`
	BrowserApiUrl string `json:"browser_api_url"`
	CrawlApiUrl   string `json:"crawl_api_url"`
	// TimeoutMs of 0 means DefaultTimeout.
	TimeoutMs int `json:"timeout"`
	// CrawlTimeoutMs of 0 means crawl requests never time out.
	CrawlTimeoutMs    int     `json:"crawl_timeout"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	// MaxRetries of 0 disables retries of failed requests. Only idempotent
	// requests outside of crawl and scrape jobs are retried.
	MaxRetries int `json:"max_retries"`
	// RetryDelayMs of 0 means retry.DefaultDelay.
	RetryDelayMs int `json:"retry_delay"`

	Output restyutil.InstrumentOutput `json:"-"`
}

type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration (%s): %s", e.Field, e.Message)
}

func (c Config) Timeout() time.Duration {
	if c.TimeoutMs <= 0 {
		return DefaultTimeout
	}
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

func (c Config) CrawlTimeout() time.Duration {
	if c.CrawlTimeoutMs <= 0 {
		return 0
	}
	return time.Duration(c.CrawlTimeoutMs) * time.Millisecond
}

func resolve(value string, name env.Name, defaultValue string) string {
	if value != "" {
		return value
	}
	return env.GetWithDefault(name, defaultValue)
}

// ResolveConfig fills every empty field from its environment variable and
// then from its default. The api key has no default.
func ResolveConfig(cfg Config) (Config, error) {
	cfg.ApiKey = resolve(cfg.ApiKey, env.ApiKey, "")
	cfg.BaseApiUrl = resolve(cfg.BaseApiUrl, env.BaseApiUrl, DefaultBaseApiUrl)
	cfg.ActorApiUrl = resolve(cfg.ActorApiUrl, env.ActorApiUrl, DefaultActorApiUrl)
	cfg.StorageApiUrl = resolve(cfg.StorageApiUrl, env.StorageApiUrl, DefaultStorageApiUrl)
	cfg.BrowserApiUrl = resolve(cfg.BrowserApiUrl, env.BrowserApiUrl, DefaultBrowserApiUrl)
	cfg.CrawlApiUrl = resolve(cfg.CrawlApiUrl, env.CrawlApiUrl, DefaultCrawlApiUrl)

	if cfg.ApiKey == "" {
		return cfg, &ConfigurationError{
			Field:   "api_key",
			Message: fmt.Sprintf("pass an api key or set %s", env.ApiKey),
		}
	}
	if cfg.MaxRetries < 0 {
		return cfg, &ConfigurationError{Field: "max_retries", Message: "must not be negative"}
	}
	return cfg, nil
}

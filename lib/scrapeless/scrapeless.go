// Package scrapeless assembles every resource client of the Scrapeless
// platform from one configuration.
package scrapeless

import (
	"log/slog"
	"time"

	"scrapeless-go/lib/actor"
	"scrapeless-go/lib/browser"
	"scrapeless-go/lib/crawl"
	"scrapeless-go/lib/jobs"
	"scrapeless-go/lib/proxy"
	"scrapeless-go/lib/retry"
	"scrapeless-go/lib/scraping"
	"scrapeless-go/lib/storage"
	"scrapeless-go/lib/transport"
	"scrapeless-go/lib/universal"
)

type Client struct {
	Config Config

	Actor      *actor.Service
	Browser    *browser.Service
	Extensions *browser.ExtensionService
	Profiles   *browser.ProfileService
	Storage    storage.Client
	Scraping   *scraping.Service
	DeepSerp   scraping.DeepSerpService
	Universal  *universal.Service
	Proxies    *proxy.Service
	Captcha    *scraping.CaptchaService
	Crawl      crawl.Client
}

type Option func(o *options)

type options struct {
	jobs     []jobs.Option
	scraping []scraping.Option
}

// WithJobOptions configures the crawl and scrape job pollers.
func WithJobOptions(opts ...jobs.Option) Option {
	return func(o *options) {
		o.jobs = append(o.jobs, opts...)
	}
}

// WithScrapingOptions configures the scraper, SERP and captcha services.
func WithScrapingOptions(opts ...scraping.Option) Option {
	return func(o *options) {
		o.scraping = append(o.scraping, opts...)
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	cfg, err := ResolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	newClient := func(baseUrl string, timeout time.Duration) *transport.Client {
		return transport.NewClient(transport.Options{
			ApiKey:            cfg.ApiKey,
			BaseUrl:           baseUrl,
			Timeout:           timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Output:            cfg.Output,
		})
	}
	sender := func(baseUrl string) transport.Sender {
		var s transport.Sender = newClient(baseUrl, cfg.Timeout())
		if cfg.MaxRetries > 0 {
			s = retry.WrapSender(s, retry.Options{
				MaxAttempts: cfg.MaxRetries + 1,
				Delay:       cfg.RetryDelay(),
			})
		}
		return s
	}

	base := sender(cfg.BaseApiUrl)
	scraper := scraping.NewService(base, o.scraping...)

	slog.Debug(
		"created scrapeless client",
		"base_api_url", cfg.BaseApiUrl,
		"actor_api_url", cfg.ActorApiUrl,
		"storage_api_url", cfg.StorageApiUrl,
		"browser_api_url", cfg.BrowserApiUrl,
		"crawl_api_url", cfg.CrawlApiUrl,
	)

	return &Client{
		Config:     cfg,
		Actor:      actor.NewService(sender(cfg.ActorApiUrl)),
		Browser:    browser.NewService(cfg.ApiKey, cfg.BrowserApiUrl),
		Extensions: browser.NewExtensionService(base),
		Profiles:   browser.NewProfileService(base),
		Storage:    storage.NewClient(sender(cfg.StorageApiUrl)),
		Scraping:   scraper,
		DeepSerp:   scraping.NewDeepSerpService(scraper),
		Universal:  universal.NewService(base),
		Proxies:    proxy.NewService(cfg.ApiKey),
		Captcha:    scraping.NewCaptchaService(base, o.scraping...),
		// job polling surfaces request errors as they happen, it is never
		// wrapped with retries
		Crawl: crawl.NewClient(newClient(cfg.CrawlApiUrl, cfg.CrawlTimeout()), o.jobs...),
	}, nil
}

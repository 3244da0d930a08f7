// Package crawl wraps the crawler api: single page scrapes, batch scrapes
// and multi page crawls, all driven to completion by a jobs.Poller.
package crawl

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"scrapeless-go/lib/jobs"
	"scrapeless-go/lib/telemetry"
	"scrapeless-go/lib/transport"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("scrapeless.lib.crawl")

const crawlPath = "/api/v1/crawler/crawl"

type CrawlService struct {
	sender transport.Sender
	poller *jobs.Poller
}

func NewCrawlService(sender transport.Sender, opts ...jobs.Option) *CrawlService {
	return &CrawlService{
		sender: sender,
		poller: jobs.NewPoller(sender, crawlPath, opts...),
	}
}

// CrawlUrl starts a crawl at `url` and waits until every page is crawled.
func (s *CrawlService) CrawlUrl(ctx context.Context, url string, params *CrawlParams, interval time.Duration) (CrawlStatus, error) {
	ctx, span := tracer.Start(ctx, "CrawlUrl")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	result, err := s.poller.Run(ctx, crawlRequest{Url: url, CrawlParams: params}, interval)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "crawl failed")
		return CrawlStatus{}, err
	}
	return toCrawlStatus(result)
}

func (s *CrawlService) AsyncCrawlUrl(ctx context.Context, url string, params *CrawlParams) (JobResponse, error) {
	ctx, span := tracer.Start(ctx, "AsyncCrawlUrl")
	defer span.End()

	var res JobResponse
	err := submit(ctx, s.poller, crawlRequest{Url: url, CrawlParams: params}, &res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit crawl")
	}
	return res, err
}

// CheckCrawlStatus checks a crawl once, following result pages if it has
// completed. A failed crawl returns its status along with a *jobs.FailedError.
func (s *CrawlService) CheckCrawlStatus(ctx context.Context, id string) (CrawlStatus, error) {
	if id == "" {
		return CrawlStatus{}, errNoId
	}
	result, err := s.poller.Check(ctx, id)
	if err != nil {
		status, _ := toCrawlStatus(result)
		return status, err
	}
	return toCrawlStatus(result)
}

// MonitorJobStatus waits for an already submitted crawl.
func (s *CrawlService) MonitorJobStatus(ctx context.Context, id string, interval time.Duration) (CrawlStatus, error) {
	result, err := s.poller.Wait(ctx, id, interval)
	if err != nil {
		return CrawlStatus{}, err
	}
	return toCrawlStatus(result)
}

func (s *CrawlService) CheckCrawlErrors(ctx context.Context, id string) (CrawlErrors, error) {
	ctx, span := tracer.Start(ctx, "CheckCrawlErrors")
	defer span.End()

	if id == "" {
		return CrawlErrors{}, errNoId
	}
	env, err := s.sender.Send(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/%s/errors", crawlPath, id),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get crawl errors")
		return CrawlErrors{}, err
	}
	var out CrawlErrors
	err = env.DecodeBody(&out)
	return out, err
}

func (s *CrawlService) CancelCrawl(ctx context.Context, id string) (JobResponse, error) {
	ctx, span := tracer.Start(ctx, "CancelCrawl")
	defer span.End()

	env, err := s.poller.Cancel(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to cancel crawl")
		return JobResponse{}, err
	}
	var out JobResponse
	err = env.DecodeBody(&out)
	return out, err
}

// Client groups the crawler services under one api.
type Client struct {
	Scrape *ScrapeService
	Crawl  *CrawlService
}

func NewClient(sender transport.Sender, opts ...jobs.Option) Client {
	return Client{
		Scrape: NewScrapeService(sender, opts...),
		Crawl:  NewCrawlService(sender, opts...),
	}
}

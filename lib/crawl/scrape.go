package crawl

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"scrapeless-go/lib/jobs"
	"scrapeless-go/lib/transport"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	scrapePath      = "/api/v1/crawler/scrape"
	batchScrapePath = "/api/v1/crawler/scrape/batch"
)

var errNoId = errors.New("no job id provided")

type ScrapeService struct {
	scrape *jobs.Poller
	batch  *jobs.Poller
}

func NewScrapeService(sender transport.Sender, opts ...jobs.Option) *ScrapeService {
	return &ScrapeService{
		scrape: jobs.NewPoller(sender, scrapePath, opts...),
		batch:  jobs.NewPoller(sender, batchScrapePath, opts...),
	}
}

// ScrapeUrl scrapes a single url and waits for the result.
func (s *ScrapeService) ScrapeUrl(ctx context.Context, url string, params *ScrapeParams, interval time.Duration) (ScrapeStatus, error) {
	ctx, span := tracer.Start(ctx, "ScrapeUrl")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	result, err := s.scrape.Run(ctx, scrapeRequest{Url: url, ScrapeParams: params}, interval)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scrape failed")
		return ScrapeStatus{}, err
	}
	return toScrapeStatus(result)
}

func (s *ScrapeService) AsyncScrapeUrl(ctx context.Context, url string, params *ScrapeParams) (JobResponse, error) {
	ctx, span := tracer.Start(ctx, "AsyncScrapeUrl")
	defer span.End()

	var res JobResponse
	err := submit(ctx, s.scrape, scrapeRequest{Url: url, ScrapeParams: params}, &res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit scrape")
	}
	return res, err
}

// CheckScrapeStatus checks a scrape job once without waiting.
func (s *ScrapeService) CheckScrapeStatus(ctx context.Context, id string) (ScrapeStatus, error) {
	if id == "" {
		return ScrapeStatus{}, errNoId
	}
	result, err := s.scrape.Check(ctx, id)
	if err != nil {
		return ScrapeStatus{}, err
	}
	return toScrapeStatus(result)
}

func (s *ScrapeService) BatchScrapeUrls(ctx context.Context, urls []string, params *ScrapeParams, interval time.Duration, ignoreInvalidURLs bool) (CrawlStatus, error) {
	ctx, span := tracer.Start(ctx, "BatchScrapeUrls")
	defer span.End()
	span.SetAttributes(attribute.Int("urls", len(urls)))

	result, err := s.batch.Run(ctx, batchScrapeRequest{
		Urls:              urls,
		IgnoreInvalidURLs: ignoreInvalidURLs,
		ScrapeParams:      params,
	}, interval)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch scrape failed")
		return CrawlStatus{}, err
	}
	return toCrawlStatus(result)
}

func (s *ScrapeService) AsyncBatchScrapeUrls(ctx context.Context, urls []string, params *ScrapeParams, ignoreInvalidURLs bool) (BatchJobResponse, error) {
	ctx, span := tracer.Start(ctx, "AsyncBatchScrapeUrls")
	defer span.End()

	var res BatchJobResponse
	err := submit(ctx, s.batch, batchScrapeRequest{
		Urls:              urls,
		IgnoreInvalidURLs: ignoreInvalidURLs,
		ScrapeParams:      params,
	}, &res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit batch scrape")
	}
	return res, err
}

func (s *ScrapeService) CheckBatchScrapeStatus(ctx context.Context, id string) (CrawlStatus, error) {
	if id == "" {
		return CrawlStatus{}, errNoId
	}
	result, err := s.batch.Check(ctx, id)
	if err != nil {
		return CrawlStatus{}, err
	}
	return toCrawlStatus(result)
}

// submit posts a job and decodes the full acknowledgement into `out`, the
// acknowledgement is decoded even when it carries no id.
func submit(ctx context.Context, poller *jobs.Poller, body any, out any) error {
	submission, err := poller.Submit(ctx, body)
	if len(submission.Body) > 0 {
		decodeErr := json.Unmarshal(submission.Body, out)
		if err == nil {
			err = decodeErr
		}
	}
	return err
}

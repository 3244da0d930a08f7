// Package jobs drives asynchronous crawl and scrape jobs to completion:
// submit, poll the status endpoint and follow result pages.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"scrapeless-go/lib/telemetry"
	"scrapeless-go/lib/transport"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

var tracer = telemetry.Tracer("scrapeless.lib.jobs")
var meter = telemetry.Meter("scrapeless.lib.jobs")

var pollCounter, _ = meter.Int64Counter(
	"jobs.polls",
	metric.WithDescription("status checks issued for asynchronous jobs"),
)
var pageCounter, _ = meter.Int64Counter(
	"jobs.pages",
	metric.WithDescription("result pages fetched by following next links"),
)

// Poller submits and tracks jobs under one endpoint, the job with id X lives
// at <path>/X. A Poller holds no per-job state.
type Poller struct {
	sender  transport.Sender
	path    string
	sleeper Sleeper
}

type Option func(p *Poller)

// WithSleeper replaces the timer used to wait between status checks.
func WithSleeper(s Sleeper) Option {
	return func(p *Poller) {
		p.sleeper = s
	}
}

func NewPoller(sender transport.Sender, path string, opts ...Option) *Poller {
	p := &Poller{
		sender:  sender,
		path:    strings.TrimSuffix(path, "/"),
		sleeper: timerSleeper{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Poller) jobPath(id string) string {
	return fmt.Sprintf("%s/%s", p.path, id)
}

// Submit posts a job description and returns the server's acknowledgement.
// A response without an id fails with *SubmissionError.
func (p *Poller) Submit(ctx context.Context, body any) (Submission, error) {
	ctx, span := tracer.Start(ctx, "Submit")
	defer span.End()
	span.SetAttributes(attribute.String("path", p.path))

	env, err := p.sender.Send(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   p.path,
		Body:   body,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit job")
		return Submission{}, err
	}

	var submission Submission
	err = env.DecodeBody(&submission)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode submission")
		return Submission{}, err
	}
	submission.Body = env.Body

	if submission.Id == "" {
		err := &SubmissionError{Path: p.path, Message: submission.Error}
		span.RecordError(err)
		span.SetStatus(codes.Error, "no job id returned")
		return submission, err
	}
	span.SetAttributes(attribute.String("job_id", submission.Id))
	return submission, nil
}

// Check issues exactly one status request for job `id` and, if the job
// completed, follows its result pages. An in-progress job is returned with a
// nil error. A failed job is returned together with a *FailedError.
func (p *Poller) Check(ctx context.Context, id string) (Result, error) {
	ctx, span := tracer.Start(ctx, "Check")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", id))

	result, err := p.check(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "job check failed")
	}
	return result, err
}

func (p *Poller) check(ctx context.Context, id string) (Result, error) {
	if id == "" {
		return Result{}, fmt.Errorf("no job id provided")
	}

	pollCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("path", p.path)))
	env, err := p.sender.Send(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   p.jobPath(id),
	})
	if err != nil {
		return Result{}, err
	}
	var status StatusResponse
	err = env.DecodeBody(&status)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Id:        id,
		Status:    status.Status,
		Success:   status.Success,
		Total:     status.Total,
		Completed: status.Completed,
		Error:     status.Error,
		Data:      status.Data,
	}

	switch {
	case status.Status.InProgress():
		return result, nil
	case status.Status.Completed():
		if !status.hasData() {
			return result, &DataMissingError{Id: id}
		}
		data, pages, err := p.collect(ctx, status)
		if err != nil {
			return Result{}, err
		}
		result.Data = data
		result.Pages = pages
		return result, nil
	default:
		return result, &FailedError{Id: id, Status: status.Status, Message: status.Error}
	}
}

// collect concatenates the data of every page reachable through `next`
// links. Pagination only applies to array data.
func (p *Poller) collect(ctx context.Context, first StatusResponse) (json.RawMessage, int, error) {
	var items []json.RawMessage
	err := json.Unmarshal(first.Data, &items)
	if err != nil || first.nextUrl() == "" {
		return first.Data, 1, nil
	}

	pages := 1
	visited := map[string]struct{}{}
	current := first
	for current.nextUrl() != "" && len(items) > 0 {
		next := current.nextUrl()
		if _, seen := visited[next]; seen {
			slog.WarnContext(ctx, "next link was already visited, stopping", "next", next)
			break
		}
		visited[next] = struct{}{}

		env, err := p.sender.Send(ctx, transport.Request{
			Method: http.MethodGet,
			Path:   next,
		})
		if err != nil {
			return nil, pages, err
		}
		var page StatusResponse
		err = env.DecodeBody(&page)
		if err != nil {
			return nil, pages, err
		}
		pageCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("path", p.path)))

		var pageItems []json.RawMessage
		if page.hasData() {
			err = json.Unmarshal(page.Data, &pageItems)
			if err != nil {
				return nil, pages, fmt.Errorf("result page %s is not an array: %w", next, err)
			}
		}
		if len(pageItems) == 0 {
			break
		}
		items = append(items, pageItems...)
		pages++
		current = page
	}

	data, err := json.Marshal(items)
	if err != nil {
		return nil, pages, err
	}
	return data, pages, nil
}

// Wait checks job `id` until it leaves the in-progress states, sleeping
// max(interval, MinPollInterval) between checks. Request errors are not
// retried.
func (p *Poller) Wait(ctx context.Context, id string, interval time.Duration) (Result, error) {
	ctx, span := tracer.Start(ctx, "Wait")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", id))

	if interval < MinPollInterval {
		interval = MinPollInterval
	}

	for {
		result, err := p.check(ctx, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "job did not complete")
			return result, err
		}
		if !result.Status.InProgress() {
			return result, nil
		}

		slog.DebugContext(ctx, "job in progress", "id", id, "status", result.Status, "wait", interval)
		err = p.sleeper.Sleep(ctx, interval)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "wait interrupted")
			return Result{}, err
		}
	}
}

// Run submits a job and waits for it to finish.
func (p *Poller) Run(ctx context.Context, body any, interval time.Duration) (Result, error) {
	submission, err := p.Submit(ctx, body)
	if err != nil {
		return Result{}, err
	}
	return p.Wait(ctx, submission.Id, interval)
}

// Cancel asks the server to stop job `id`. Running Wait loops observe the
// terminal status on their next check.
func (p *Poller) Cancel(ctx context.Context, id string) (transport.Envelope, error) {
	ctx, span := tracer.Start(ctx, "Cancel")
	defer span.End()
	span.SetAttributes(attribute.String("job_id", id))

	if id == "" {
		return transport.Envelope{}, fmt.Errorf("no job id provided")
	}
	env, err := p.sender.Send(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   p.jobPath(id),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to cancel job")
	}
	return env, err
}

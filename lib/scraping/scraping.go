// Package scraping runs scraper, SERP and captcha tasks. A task that does
// not finish within the first request is polled once a second.
package scraping

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"scrapeless-go/lib/jobs"
	"scrapeless-go/lib/telemetry"
	"scrapeless-go/lib/transport"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("scrapeless.lib.scraping")

const (
	scraperPath = "/api/v1/scraper"
	// PollInterval is the wait between two task result checks.
	PollInterval = time.Second
)

type TaskRequest struct {
	Actor string         `json:"actor"`
	Input map[string]any `json:"input"`
	Proxy map[string]any `json:"proxy,omitempty"`
}

type taskBody struct {
	TaskRequest
	Async bool `json:"async"`
}

type TaskResponse struct {
	// Status is the http status of the response, 200 means the result is
	// already in Body.
	Status  int             `json:"-"`
	TaskId  string          `json:"taskId"`
	Message string          `json:"message"`
	Body    json.RawMessage `json:"-"`
}

type Option func(s *Service)

// WithSleeper replaces the timer used between result checks.
func WithSleeper(sleeper jobs.Sleeper) Option {
	return func(s *Service) {
		s.sleeper = sleeper
	}
}

type Service struct {
	sender  transport.Sender
	sleeper jobs.Sleeper
}

func NewService(sender transport.Sender, opts ...Option) *Service {
	s := &Service{sender: sender, sleeper: jobs.NewTimerSleeper()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func toTaskResponse(env transport.Envelope) (TaskResponse, error) {
	res := TaskResponse{Status: env.Status, Body: env.Body}
	if !env.IsJSON {
		res.Body, _ = json.Marshal(env.Text)
		return res, nil
	}
	err := env.DecodeBody(&res)
	if err != nil {
		// finished results do not have to be objects
		if env.Status == http.StatusOK {
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// CreateTask submits a task, it is always submitted asynchronously.
func (s *Service) CreateTask(ctx context.Context, req TaskRequest) (TaskResponse, error) {
	ctx, span := tracer.Start(ctx, "CreateTask")
	defer span.End()
	span.SetAttributes(attribute.String("actor", req.Actor))

	env, err := s.sender.Send(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   scraperPath + "/request",
		Body:   taskBody{TaskRequest: req, Async: true},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create task")
		return TaskResponse{}, err
	}
	return toTaskResponse(env)
}

func (s *Service) GetTaskResult(ctx context.Context, taskId string) (TaskResponse, error) {
	ctx, span := tracer.Start(ctx, "GetTaskResult")
	defer span.End()
	span.SetAttributes(attribute.String("task_id", taskId))

	env, err := s.sender.Send(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/result/%s", scraperPath, taskId),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get task result")
		return TaskResponse{}, err
	}
	return toTaskResponse(env)
}

// Scrape creates a task and returns its result, polling until the result
// endpoint answers with 200.
func (s *Service) Scrape(ctx context.Context, req TaskRequest) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()

	task, err := s.CreateTask(ctx, req)
	if err != nil {
		return nil, err
	}
	if task.Status == http.StatusOK {
		return task.Body, nil
	}
	if task.TaskId == "" {
		err := fmt.Errorf("scraper task was accepted without a task id (status %d)", task.Status)
		span.RecordError(err)
		return nil, err
	}

	for {
		err = s.sleeper.Sleep(ctx, PollInterval)
		if err != nil {
			return nil, err
		}
		result, err := s.GetTaskResult(ctx, task.TaskId)
		if err != nil {
			return nil, err
		}
		if result.Status == http.StatusOK {
			return result.Body, nil
		}
		slog.DebugContext(ctx, "scraper task pending", "task_id", task.TaskId, "status", result.Status)
	}
}

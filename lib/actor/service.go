// Package actor manages actor runs and builds, and gives code running inside
// an actor access to the storages the platform provisioned for it.
package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"scrapeless-go/lib/telemetry"
	"scrapeless-go/lib/transport"

	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("scrapeless.lib.actor")

const actorPath = "/api/v1/actors"

type RunOptions struct {
	CPU     int `json:"CPU,omitempty"`
	Memory  int `json:"memory,omitempty"`
	Timeout int `json:"timeout,omitempty"`
}

type RunRequest struct {
	Input      any         `json:"input"`
	RunOptions *RunOptions `json:"runOptions,omitempty"`
}

type Run struct {
	RunId      string          `json:"runId"`
	ActorId    string          `json:"actorId"`
	TeamId     string          `json:"teamId"`
	UserId     string          `json:"userId"`
	Status     string          `json:"status"`
	Input      json.RawMessage `json:"input"`
	RunOptions RunOptions      `json:"runOptions"`
	Stats      map[string]any  `json:"stats"`
	StartedAt  string          `json:"startedAt"`
	FinishedAt string          `json:"finishedAt"`
}

type Build struct {
	BuildId    string   `json:"buildId"`
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	Logs       []string `json:"logs"`
	StartedAt  string   `json:"startedAt"`
	FinishedAt string   `json:"finishedAt"`
}

type RunListParams struct {
	Page     int
	PageSize int
	Desc     *bool
}

type RunList struct {
	Total     int   `json:"total"`
	TotalPage int   `json:"totalPage"`
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Items     []Run `json:"items"`
}

type Service struct {
	sender transport.Sender
}

func NewService(sender transport.Sender) *Service {
	return &Service{sender: sender}
}

func do[T any](ctx context.Context, sender transport.Sender, name string, req transport.Request) (T, error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	out, err := transport.Do[T](ctx, sender, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "actor request failed")
	}
	return out, err
}

// Run starts a run of `actorId` and returns its run id.
func (s *Service) Run(ctx context.Context, actorId string, req RunRequest) (string, error) {
	return do[string](ctx, s.sender, "Run", transport.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/%s/runs", actorPath, actorId),
		Body:   req,
	})
}

func (s *Service) GetRunInfo(ctx context.Context, runId string) (Run, error) {
	return do[Run](ctx, s.sender, "GetRunInfo", transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/runs/%s", actorPath, runId),
	})
}

func (s *Service) AbortRun(ctx context.Context, actorId, runId string) (bool, error) {
	return do[bool](ctx, s.sender, "AbortRun", transport.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s/%s/runs/%s", actorPath, actorId, runId),
	})
}

// Build starts a build of `actorId` and returns its build id.
func (s *Service) Build(ctx context.Context, actorId string) (string, error) {
	return do[string](ctx, s.sender, "Build", transport.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/%s/builds", actorPath, actorId),
	})
}

func (s *Service) GetBuildStatus(ctx context.Context, actorId, buildId string) (Build, error) {
	return do[Build](ctx, s.sender, "GetBuildStatus", transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/%s/builds/%s", actorPath, actorId, buildId),
	})
}

func (s *Service) AbortBuild(ctx context.Context, actorId, buildId string) (bool, error) {
	return do[bool](ctx, s.sender, "AbortBuild", transport.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s/%s/builds/%s", actorPath, actorId, buildId),
	})
}

func (s *Service) GetRunList(ctx context.Context, params RunListParams) (RunList, error) {
	page := params.Page
	if page <= 0 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))
	if params.Desc != nil {
		desc := "0"
		if *params.Desc {
			desc = "1"
		}
		query.Set("desc", desc)
	}
	return do[RunList](ctx, s.sender, "GetRunList", transport.Request{
		Method: http.MethodGet,
		Path:   actorPath + "/runs",
		Query:  query,
	})
}

package scraping

import (
	"context"
	"fmt"
	"net/http"

	"scrapeless-go/lib/jobs"
	"scrapeless-go/lib/transport"

	"go.opentelemetry.io/otel/codes"
)

const captchaPath = "/api/v1"

type CaptchaRequest struct {
	Actor string         `json:"actor"`
	Input map[string]any `json:"input"`
	Proxy string         `json:"proxy,omitempty"`
}

type CaptchaTask struct {
	State   string `json:"state"`
	Success bool   `json:"success"`
	TaskId  string `json:"taskId"`
}

type CaptchaResult struct {
	Actor      string         `json:"actor"`
	CreateTime int64          `json:"createTime"`
	Elapsed    int64          `json:"elapsed"`
	State      string         `json:"state"`
	Solution   map[string]any `json:"solution"`
	Success    bool           `json:"success"`
	TaskId     string         `json:"taskId"`
}

type CaptchaService struct {
	sender  transport.Sender
	sleeper jobs.Sleeper
}

func NewCaptchaService(sender transport.Sender, opts ...Option) *CaptchaService {
	// options are shared with Service
	s := NewService(sender, opts...)
	return &CaptchaService{sender: sender, sleeper: s.sleeper}
}

func (s *CaptchaService) CreateTask(ctx context.Context, req CaptchaRequest) (CaptchaTask, error) {
	ctx, span := tracer.Start(ctx, "CreateCaptchaTask")
	defer span.End()

	env, err := s.sender.Send(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   captchaPath + "/createTask",
		Body:   req,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create captcha task")
		return CaptchaTask{}, err
	}
	var task CaptchaTask
	err = env.DecodeBody(&task)
	return task, err
}

func (s *CaptchaService) GetTaskResult(ctx context.Context, taskId string) (CaptchaResult, error) {
	ctx, span := tracer.Start(ctx, "GetCaptchaTaskResult")
	defer span.End()

	env, err := s.sender.Send(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/getTaskResult/%s", captchaPath, taskId),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get captcha result")
		return CaptchaResult{}, err
	}
	var result CaptchaResult
	err = env.DecodeBody(&result)
	return result, err
}

// Solve creates a captcha task and polls its result until it succeeds.
func (s *CaptchaService) Solve(ctx context.Context, req CaptchaRequest) (CaptchaResult, error) {
	task, err := s.CreateTask(ctx, req)
	if err != nil {
		return CaptchaResult{}, err
	}
	if task.TaskId == "" {
		return CaptchaResult{}, fmt.Errorf("captcha task was accepted without a task id")
	}

	for {
		result, err := s.GetTaskResult(ctx, task.TaskId)
		if err != nil {
			return CaptchaResult{}, err
		}
		if result.Success {
			return result, nil
		}
		err = s.sleeper.Sleep(ctx, PollInterval)
		if err != nil {
			return CaptchaResult{}, err
		}
	}
}

package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"scrapeless-go/lib/transport"
)

const queuePath = "/api/v1/queue"

type Queue struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	TeamId      string `json:"teamId"`
	ActorId     string `json:"actorId"`
	RunId       string `json:"runId"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	Stats       Stats  `json:"stats"`
}

type Message struct {
	Id        string `json:"id"`
	QueueId   string `json:"queueId"`
	Name      string `json:"name"`
	Payload   string `json:"payload"`
	Retry     int    `json:"retry"`
	Timeout   int    `json:"timeout"`
	Deadline  any    `json:"deadline"`
	Status    string `json:"status"`
	CreatedAt string `json:"createdAt"`
}

type CreateQueueParams struct {
	Name        string `json:"name"`
	ActorId     string `json:"actor_id"`
	RunId       string `json:"run_id"`
	Description string `json:"description,omitempty"`
}

type UpdateQueueParams struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type PushParams struct {
	Name     string    `json:"name"`
	Payload  string    `json:"payload"`
	Retry    int       `json:"retry"`
	Timeout  int       `json:"timeout"`
	Deadline time.Time `json:"deadline"`
}

type PushResponse struct {
	MsgId string `json:"msgId"`
}

type QueueStorage struct {
	sender transport.Sender
}

func (s *QueueStorage) ListQueues(ctx context.Context, params PaginationParams) (Pagination[Queue], error) {
	return call[Pagination[Queue]](ctx, s.sender, "ListQueues", transport.Request{
		Method: http.MethodGet,
		Path:   queuePath + "/queues",
		Query:  params.query(),
	})
}

func (s *QueueStorage) CreateQueue(ctx context.Context, params CreateQueueParams) (Queue, error) {
	return call[Queue](ctx, s.sender, "CreateQueue", transport.Request{
		Method: http.MethodPost,
		Path:   queuePath,
		Body:   params,
	})
}

// GetQueue looks a queue up by name, `queueId` is optional.
func (s *QueueStorage) GetQueue(ctx context.Context, name, queueId string) (Queue, error) {
	query := url.Values{}
	query.Set("name", name)
	if queueId != "" {
		query.Set("id", queueId)
	}
	return call[Queue](ctx, s.sender, "GetQueue", transport.Request{
		Method: http.MethodGet,
		Path:   queuePath,
		Query:  query,
	})
}

func (s *QueueStorage) UpdateQueue(ctx context.Context, queueId string, params UpdateQueueParams) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "UpdateQueue", transport.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("%s/%s", queuePath, queueId),
		Body:   params,
	})
}

func (s *QueueStorage) DeleteQueue(ctx context.Context, queueId string) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "DeleteQueue", transport.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s/%s", queuePath, queueId),
	})
}

func (s *QueueStorage) Push(ctx context.Context, queueId string, params PushParams) (PushResponse, error) {
	return call[PushResponse](ctx, s.sender, "Push", transport.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/%s/push", queuePath, queueId),
		Body:   params,
	})
}

// Pull takes up to `limit` messages off a queue, a limit of 0 leaves the
// batch size to the server.
func (s *QueueStorage) Pull(ctx context.Context, queueId string, limit int) ([]Message, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": []string{strconv.Itoa(limit)}}
	}
	return call[[]Message](ctx, s.sender, "Pull", transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/%s/pull", queuePath, queueId),
		Query:  query,
	})
}

func (s *QueueStorage) Ack(ctx context.Context, queueId, msgId string) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "Ack", transport.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/%s/ack/%s", queuePath, queueId, msgId),
	})
}

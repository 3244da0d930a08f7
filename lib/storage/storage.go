// Package storage wraps the dataset, key-value, object and queue storage
// apis that actors use to persist their results.
package storage

import (
	"context"
	"net/url"
	"strconv"

	"scrapeless-go/lib/telemetry"
	"scrapeless-go/lib/transport"

	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("scrapeless.lib.storage")

const (
	defaultPage     = 1
	defaultPageSize = 10
)

type Client struct {
	Dataset *DatasetStorage
	KV      *KVStorage
	Object  *ObjectStorage
	Queue   *QueueStorage
}

func NewClient(sender transport.Sender) Client {
	return Client{
		Dataset: &DatasetStorage{sender: sender},
		KV:      &KVStorage{sender: sender},
		Object:  &ObjectStorage{sender: sender},
		Queue:   &QueueStorage{sender: sender},
	}
}

type PaginationParams struct {
	// defaults to 1
	Page int
	// defaults to 10
	PageSize int
	Desc     *bool
}

func (p PaginationParams) query() url.Values {
	page := p.Page
	if page <= 0 {
		page = defaultPage
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))
	if p.Desc != nil {
		query.Set("desc", strconv.FormatBool(*p.Desc))
	}
	return query
}

type Pagination[T any] struct {
	Total     int `json:"total"`
	TotalPage int `json:"totalPage"`
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	Items     []T `json:"items"`
}

type CommonResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type Stats map[string]any

func call[T any](ctx context.Context, sender transport.Sender, name string, req transport.Request) (T, error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	out, err := transport.Do[T](ctx, sender, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage request failed")
	}
	return out, err
}

package storage

import (
	"context"
	"fmt"
	"net/http"

	"scrapeless-go/lib/transport"
)

const datasetPath = "/api/v1/dataset"

type Dataset struct {
	Id        string   `json:"id"`
	Name      string   `json:"name"`
	ActorId   string   `json:"actorId"`
	RunId     string   `json:"runId"`
	Fields    []string `json:"fields"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
	Stats     Stats    `json:"stats"`
}

type DatasetListParams struct {
	PaginationParams
	ActorId string
	RunId   string
}

type DatasetStorage struct {
	sender transport.Sender
}

func (s *DatasetStorage) ListDatasets(ctx context.Context, params DatasetListParams) (Pagination[Dataset], error) {
	query := params.query()
	if params.ActorId != "" {
		query.Set("actorId", params.ActorId)
	}
	if params.RunId != "" {
		query.Set("runId", params.RunId)
	}
	return call[Pagination[Dataset]](ctx, s.sender, "ListDatasets", transport.Request{
		Method: http.MethodGet,
		Path:   datasetPath,
		Query:  query,
	})
}

func (s *DatasetStorage) CreateDataset(ctx context.Context, name string) (Dataset, error) {
	return call[Dataset](ctx, s.sender, "CreateDataset", transport.Request{
		Method: http.MethodPost,
		Path:   datasetPath,
		Body:   map[string]string{"name": name},
	})
}

func (s *DatasetStorage) UpdateDataset(ctx context.Context, datasetId, name string) (Dataset, error) {
	return call[Dataset](ctx, s.sender, "UpdateDataset", transport.Request{
		Method: http.MethodPut,
		Path:   fmt.Sprintf("%s/%s", datasetPath, datasetId),
		Body:   map[string]string{"name": name},
	})
}

func (s *DatasetStorage) DeleteDataset(ctx context.Context, datasetId string) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "DeleteDataset", transport.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s/%s", datasetPath, datasetId),
	})
}

// AddItems appends items to a dataset, each item must encode to a JSON
// object.
func (s *DatasetStorage) AddItems(ctx context.Context, datasetId string, items []any) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "AddItems", transport.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/%s/items", datasetPath, datasetId),
		Body:   map[string]any{"items": items},
	})
}

func (s *DatasetStorage) GetItems(ctx context.Context, datasetId string, params PaginationParams) (Pagination[map[string]any], error) {
	return call[Pagination[map[string]any]](ctx, s.sender, "GetItems", transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/%s/items", datasetPath, datasetId),
		Query:  params.query(),
	})
}

func (s *DatasetStorage) GetDataset(ctx context.Context, datasetId string) (Dataset, error) {
	return call[Dataset](ctx, s.sender, "GetDataset", transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/%s", datasetPath, datasetId),
	})
}

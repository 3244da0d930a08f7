package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"scrapeless-go/lib/transport"
)

const kvPath = "/api/v1/kv"

type Namespace struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	ActorId   string `json:"actorId"`
	RunId     string `json:"runId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Stats     Stats  `json:"stats"`
}

type KeyInfo struct {
	Key  string `json:"key"`
	Size int    `json:"size"`
}

type Value struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	// Expiration is in seconds, 0 means the value never expires.
	Expiration int `json:"expiration,omitempty"`
}

type KVStorage struct {
	sender transport.Sender
}

func (s *KVStorage) path(parts ...string) string {
	path := kvPath
	for _, p := range parts {
		path += "/" + url.PathEscape(p)
	}
	return path
}

func (s *KVStorage) ListNamespaces(ctx context.Context, params PaginationParams) (Pagination[Namespace], error) {
	return call[Pagination[Namespace]](ctx, s.sender, "ListNamespaces", transport.Request{
		Method: http.MethodGet,
		Path:   kvPath + "/namespaces",
		Query:  params.query(),
	})
}

func (s *KVStorage) CreateNamespace(ctx context.Context, name string) (Namespace, error) {
	return call[Namespace](ctx, s.sender, "CreateNamespace", transport.Request{
		Method: http.MethodPost,
		Path:   kvPath + "/namespaces",
		Body:   map[string]string{"name": name},
	})
}

func (s *KVStorage) GetNamespace(ctx context.Context, namespaceId string) (Namespace, error) {
	return call[Namespace](ctx, s.sender, "GetNamespace", transport.Request{
		Method: http.MethodGet,
		Path:   s.path(namespaceId),
	})
}

func (s *KVStorage) DeleteNamespace(ctx context.Context, namespaceId string) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "DeleteNamespace", transport.Request{
		Method: http.MethodDelete,
		Path:   s.path(namespaceId),
	})
}

func (s *KVStorage) RenameNamespace(ctx context.Context, namespaceId, name string) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "RenameNamespace", transport.Request{
		Method: http.MethodPut,
		Path:   s.path(namespaceId) + "/rename",
		Body:   map[string]string{"name": name},
	})
}

func (s *KVStorage) ListKeys(ctx context.Context, namespaceId string, params PaginationParams) (Pagination[KeyInfo], error) {
	query := params.query()
	query.Del("desc")
	return call[Pagination[KeyInfo]](ctx, s.sender, "ListKeys", transport.Request{
		Method: http.MethodGet,
		Path:   s.path(namespaceId) + "/keys",
		Query:  query,
	})
}

func (s *KVStorage) DeleteValue(ctx context.Context, namespaceId, key string) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "DeleteValue", transport.Request{
		Method: http.MethodDelete,
		Path:   s.path(namespaceId, key),
	})
}

func (s *KVStorage) BulkSetValue(ctx context.Context, namespaceId string, values []Value) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "BulkSetValue", transport.Request{
		Method: http.MethodPost,
		Path:   s.path(namespaceId) + "/bulk",
		Body:   map[string]any{"Items": values},
	})
}

// BulkDeleteValue deletes several keys at once, the api takes this as a POST
// to the same endpoint as BulkSetValue.
func (s *KVStorage) BulkDeleteValue(ctx context.Context, namespaceId string, keys []string) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "BulkDeleteValue", transport.Request{
		Method: http.MethodPost,
		Path:   s.path(namespaceId) + "/bulk",
		Body:   map[string]any{"keys": keys},
	})
}

func (s *KVStorage) SetValue(ctx context.Context, namespaceId string, value Value) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "SetValue", transport.Request{
		Method: http.MethodPut,
		Path:   s.path(namespaceId) + "/key",
		Body:   value,
	})
}

// GetValue returns the stored value. Values stored as JSON strings are
// unquoted, anything else is returned as raw JSON.
func (s *KVStorage) GetValue(ctx context.Context, namespaceId, key string) (string, error) {
	raw, err := call[json.RawMessage](ctx, s.sender, "GetValue", transport.Request{
		Method: http.MethodGet,
		Path:   s.path(namespaceId, key),
	})
	if err != nil {
		return "", err
	}
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text, nil
	}
	if string(raw) == "null" {
		return "", fmt.Errorf("key %q not found in namespace %s", key, namespaceId)
	}
	return string(raw), nil
}

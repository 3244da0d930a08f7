package actor

import (
	"context"
	"encoding/json"
	"fmt"

	"scrapeless-go/lib/env"
	"scrapeless-go/lib/storage"
)

const inputKey = "INPUT"

type MissingEnvError struct {
	Name env.Name
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("actor runtime: environment variable %s is not defined", e.Name)
}

// Runtime is the view an actor has of its own run: the dataset, key-value
// namespace, bucket and queue the platform created for it.
type Runtime struct {
	Storage storage.Client

	DatasetId   string
	NamespaceId string
	BucketId    string
	QueueId     string
}

// NewRuntime reads the storage ids injected by the platform, every one of
// them must be defined.
func NewRuntime(client storage.Client) (*Runtime, error) {
	r := &Runtime{Storage: client}
	ids := []struct {
		name env.Name
		dst  *string
	}{
		{env.DatasetId, &r.DatasetId},
		{env.KvNamespaceId, &r.NamespaceId},
		{env.BucketId, &r.BucketId},
		{env.QueueId, &r.QueueId},
	}
	for _, id := range ids {
		value, ok := env.Lookup(id.name)
		if !ok {
			return nil, &MissingEnvError{Name: id.name}
		}
		*id.dst = value
	}
	return r, nil
}

// Input decodes the run input stored under the INPUT key into `out`.
func (r *Runtime) Input(ctx context.Context, out any) error {
	raw, err := r.Storage.KV.GetValue(ctx, r.NamespaceId, inputKey)
	if err != nil {
		return err
	}
	err = json.Unmarshal([]byte(raw), out)
	if err != nil {
		return fmt.Errorf("decode actor input: %w", err)
	}
	return nil
}

func (r *Runtime) AddItems(ctx context.Context, items []any) (storage.CommonResponse, error) {
	return r.Storage.Dataset.AddItems(ctx, r.DatasetId, items)
}

func (r *Runtime) GetItems(ctx context.Context, params storage.PaginationParams) (storage.Pagination[map[string]any], error) {
	return r.Storage.Dataset.GetItems(ctx, r.DatasetId, params)
}

func (r *Runtime) GetDataset(ctx context.Context) (storage.Dataset, error) {
	return r.Storage.Dataset.GetDataset(ctx, r.DatasetId)
}

func (r *Runtime) UpdateDataset(ctx context.Context, name string) (storage.Dataset, error) {
	return r.Storage.Dataset.UpdateDataset(ctx, r.DatasetId, name)
}

func (r *Runtime) GetValue(ctx context.Context, key string) (string, error) {
	return r.Storage.KV.GetValue(ctx, r.NamespaceId, key)
}

func (r *Runtime) SetValue(ctx context.Context, value storage.Value) (storage.CommonResponse, error) {
	return r.Storage.KV.SetValue(ctx, r.NamespaceId, value)
}

func (r *Runtime) DeleteValue(ctx context.Context, key string) (storage.CommonResponse, error) {
	return r.Storage.KV.DeleteValue(ctx, r.NamespaceId, key)
}

func (r *Runtime) ListKeys(ctx context.Context, params storage.PaginationParams) (storage.Pagination[storage.KeyInfo], error) {
	return r.Storage.KV.ListKeys(ctx, r.NamespaceId, params)
}

func (r *Runtime) ListObjects(ctx context.Context, params storage.ObjectListParams) (storage.Pagination[storage.Object], error) {
	return r.Storage.Object.ListObjects(ctx, r.BucketId, params)
}

func (r *Runtime) GetObject(ctx context.Context, objectId string) ([]byte, error) {
	return r.Storage.Object.GetObject(ctx, r.BucketId, objectId)
}

func (r *Runtime) PutObject(ctx context.Context, upload storage.ObjectUpload) (storage.Object, error) {
	return r.Storage.Object.PutObject(ctx, r.BucketId, upload)
}

func (r *Runtime) DeleteObject(ctx context.Context, objectId string) (storage.CommonResponse, error) {
	return r.Storage.Object.DeleteObject(ctx, r.BucketId, objectId)
}

func (r *Runtime) PushMessage(ctx context.Context, params storage.PushParams) (storage.PushResponse, error) {
	return r.Storage.Queue.Push(ctx, r.QueueId, params)
}

func (r *Runtime) PullMessages(ctx context.Context, limit int) ([]storage.Message, error) {
	return r.Storage.Queue.Pull(ctx, r.QueueId, limit)
}

func (r *Runtime) AckMessage(ctx context.Context, msgId string) (storage.CommonResponse, error) {
	return r.Storage.Queue.Ack(ctx, r.QueueId, msgId)
}

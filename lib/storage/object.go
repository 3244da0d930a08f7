package storage

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"scrapeless-go/lib/transport"
)

const objectPath = "/api/v1/object"

type Bucket struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ActorId     string `json:"actorId"`
	RunId       string `json:"runId"`
	Size        int64  `json:"size"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type Object struct {
	Id        string `json:"id"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	FileType  string `json:"fileType"`
	ActorId   string `json:"actorId"`
	RunId     string `json:"runId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type BucketListParams struct {
	PaginationParams
	Actor string
	RunId string
}

type ObjectListParams struct {
	PaginationParams
	Search string
}

type CreateBucketParams struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ObjectUpload struct {
	// File is the path of the file to upload.
	File    string
	ActorId string
	RunId   string
}

type ObjectStorage struct {
	sender transport.Sender
}

func (s *ObjectStorage) ListBuckets(ctx context.Context, params BucketListParams) (Pagination[Bucket], error) {
	query := params.query()
	// this endpoint expects desc as 1/0
	if params.Desc != nil {
		desc := "0"
		if *params.Desc {
			desc = "1"
		}
		query.Set("desc", desc)
	}
	if params.Actor != "" {
		query.Set("actor", params.Actor)
	}
	if params.RunId != "" {
		query.Set("runId", params.RunId)
	}
	return call[Pagination[Bucket]](ctx, s.sender, "ListBuckets", transport.Request{
		Method: http.MethodGet,
		Path:   objectPath + "/buckets",
		Query:  query,
	})
}

func (s *ObjectStorage) CreateBucket(ctx context.Context, params CreateBucketParams) (Bucket, error) {
	return call[Bucket](ctx, s.sender, "CreateBucket", transport.Request{
		Method: http.MethodPost,
		Path:   objectPath + "/buckets",
		Body:   params,
	})
}

func (s *ObjectStorage) DeleteBucket(ctx context.Context, bucketId string) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "DeleteBucket", transport.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s/buckets/%s", objectPath, bucketId),
	})
}

func (s *ObjectStorage) GetBucket(ctx context.Context, bucketId string) (Bucket, error) {
	return call[Bucket](ctx, s.sender, "GetBucket", transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/buckets/%s", objectPath, bucketId),
	})
}

func (s *ObjectStorage) ListObjects(ctx context.Context, bucketId string, params ObjectListParams) (Pagination[Object], error) {
	query := params.query()
	query.Del("desc")
	if params.Search != "" {
		query.Set("search", params.Search)
	}
	return call[Pagination[Object]](ctx, s.sender, "ListObjects", transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/buckets/%s/objects", objectPath, bucketId),
		Query:  query,
	})
}

// GetObject returns the object's contents.
func (s *ObjectStorage) GetObject(ctx context.Context, bucketId, objectId string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "GetObject")
	defer span.End()

	env, err := s.sender.Send(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/buckets/%s/%s", objectPath, bucketId, objectId),
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !env.IsJSON {
		return []byte(env.Text), nil
	}
	var text string
	if env.Decode(&text) == nil {
		return []byte(text), nil
	}
	return env.Data, nil
}

// PutObject uploads a file from disk into a bucket.
func (s *ObjectStorage) PutObject(ctx context.Context, bucketId string, upload ObjectUpload) (Object, error) {
	file, err := os.Open(upload.File)
	if err != nil {
		return Object{}, err
	}
	defer file.Close()

	fields := map[string]string{}
	if upload.ActorId != "" {
		fields["actorId"] = upload.ActorId
	}
	if upload.RunId != "" {
		fields["runId"] = upload.RunId
	}

	name := filepath.Base(upload.File)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return call[Object](ctx, s.sender, "PutObject", transport.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/buckets/%s/object", objectPath, bucketId),
		Multipart: &transport.Multipart{
			Files:  []transport.File{{Param: "file", FileName: name, ContentType: contentType, Reader: file}},
			Fields: fields,
		},
	})
}

func (s *ObjectStorage) DeleteObject(ctx context.Context, bucketId, objectId string) (CommonResponse, error) {
	return call[CommonResponse](ctx, s.sender, "DeleteObject", transport.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s/buckets/%s/%s", objectPath, bucketId, objectId),
	})
}

package browser

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"scrapeless-go/lib/transport"

	"go.opentelemetry.io/otel/codes"
)

const extensionPath = "/browser/extensions"

type InvalidExtensionError struct {
	Path string
}

func (e *InvalidExtensionError) Error() string {
	return fmt.Sprintf("invalid extension file %q: only .zip files are supported", e.Path)
}

type Extension struct {
	ExtensionId string `json:"extensionId"`
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type ExtensionDetail struct {
	Extension
	TeamId       string `json:"teamId"`
	ManifestName string `json:"manifestName"`
}

// ExtensionService lives on the base api, not the browser api.
type ExtensionService struct {
	sender transport.Sender
}

func NewExtensionService(sender transport.Sender) *ExtensionService {
	return &ExtensionService{sender: sender}
}

func extensionFileName(path string) (string, error) {
	if strings.ToLower(filepath.Ext(path)) != ".zip" {
		return "", &InvalidExtensionError{Path: path}
	}
	return filepath.Base(path), nil
}

func (s *ExtensionService) send(ctx context.Context, name, method, path, file string, fields map[string]string) (transport.Envelope, error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	fileName, err := extensionFileName(file)
	if err != nil {
		return transport.Envelope{}, err
	}
	stream, err := os.Open(file)
	if err != nil {
		return transport.Envelope{}, err
	}
	defer stream.Close()

	env, err := s.sender.Send(ctx, transport.Request{
		Method: method,
		Path:   path,
		Multipart: &transport.Multipart{
			Files: []transport.File{{
				Param:       "file",
				FileName:    fileName,
				ContentType: "application/zip",
				Reader:      stream,
			}},
			Fields: fields,
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extension upload failed")
	}
	return env, err
}

// Upload uploads a zipped extension under `name`.
func (s *ExtensionService) Upload(ctx context.Context, file, name string) (Extension, error) {
	env, err := s.send(ctx, "UploadExtension", http.MethodPost, extensionPath+"/upload", file, map[string]string{"name": name})
	if err != nil {
		return Extension{}, err
	}
	var out Extension
	err = env.Decode(&out)
	return out, err
}

// Update replaces an extension's archive, `name` is only changed when set.
func (s *ExtensionService) Update(ctx context.Context, extensionId, file, name string) (map[string]any, error) {
	fields := map[string]string{}
	if name != "" {
		fields["name"] = name
	}
	env, err := s.send(ctx, "UpdateExtension", http.MethodPut, fmt.Sprintf("%s/%s", extensionPath, extensionId), file, fields)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	err = env.Decode(&out)
	return out, err
}

func (s *ExtensionService) Get(ctx context.Context, extensionId string) (ExtensionDetail, error) {
	ctx, span := tracer.Start(ctx, "GetExtension")
	defer span.End()
	return transport.Do[ExtensionDetail](ctx, s.sender, transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/%s", extensionPath, extensionId),
	})
}

func (s *ExtensionService) List(ctx context.Context) ([]Extension, error) {
	ctx, span := tracer.Start(ctx, "ListExtensions")
	defer span.End()
	return transport.Do[[]Extension](ctx, s.sender, transport.Request{
		Method: http.MethodGet,
		Path:   extensionPath + "/list",
	})
}

func (s *ExtensionService) Delete(ctx context.Context, extensionId string) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "DeleteExtension")
	defer span.End()
	return transport.Do[map[string]any](ctx, s.sender, transport.Request{
		Method: http.MethodDelete,
		Path:   fmt.Sprintf("%s/%s", extensionPath, extensionId),
	})
}

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"scrapeless-go/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, routes ...testutil.Route) (*Client, *testutil.FakeApi) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:   "transport",
		Routes: routes,
	})
	t.Cleanup(cleanup)
	return NewClient(Options{ApiKey: "test-key", BaseUrl: res.Api.URL}), res.Api
}

func TestErrorMessageComposition(t *testing.T) {
	client, _ := setup(t,
		testutil.Route{
			Method:    http.MethodPost,
			Path:      "/traced",
			Responses: []testutil.Response{testutil.JSON(400, `{"error": "bad input", "traceId": "abc123"}`)},
		},
		testutil.Route{
			Method:    http.MethodGet,
			Path:      "/msg",
			Responses: []testutil.Response{testutil.JSON(403, `{"msg": "forbidden"}`)},
		},
		testutil.Route{
			Method:    http.MethodGet,
			Path:      "/trace-only",
			Responses: []testutil.Response{testutil.JSON(500, `{"traceId": "t-1"}`)},
		},
		testutil.Route{
			Method:    http.MethodGet,
			Path:      "/text",
			Responses: []testutil.Response{testutil.Text(502, "bad gateway")},
		},
	)

	testCases := []struct {
		method  string
		path    string
		status  int
		traceId string
		message string
	}{
		{http.MethodPost, "/traced", 400, "abc123", "bad input (TraceID: abc123)"},
		{http.MethodGet, "/msg", 403, "", "forbidden"},
		{http.MethodGet, "/trace-only", 500, "t-1", "failed with status 500 (TraceID: t-1)"},
		{http.MethodGet, "/text", 502, "", "failed with status 502"},
	}

	for _, test := range testCases {
		_, err := client.Send(context.Background(), Request{
			Method: test.method,
			Path:   test.path,
			Body:   map[string]any{"a": 1},
		})
		var reqErr *RequestError
		require.True(t, errors.As(err, &reqErr), test.path)
		require.Equal(t, test.status, reqErr.Status)
		require.Equal(t, test.traceId, reqErr.TraceId)
		require.Equal(t, test.message, reqErr.Message)
		require.True(t, strings.HasPrefix(err.Error(), "Request "+test.method+" "))
		require.Contains(t, err.Error(), client.BaseUrl()+test.path)
	}
}

func TestSuccessUnwrapping(t *testing.T) {
	client, _ := setup(t,
		testutil.Route{
			Method:    http.MethodGet,
			Path:      "/wrapped",
			Responses: []testutil.Response{testutil.JSON(200, `{"status": "ok", "data": {"id": "x"}}`)},
		},
		testutil.Route{
			Method:    http.MethodGet,
			Path:      "/bare",
			Responses: []testutil.Response{testutil.JSON(200, `[1, 2, 3]`)},
		},
		testutil.Route{
			Method:    http.MethodGet,
			Path:      "/plain",
			Responses: []testutil.Response{testutil.Text(200, "<html></html>")},
		},
	)
	ctx := context.Background()

	env, err := client.Send(ctx, Request{Method: http.MethodGet, Path: "/wrapped"})
	require.NoError(t, err)
	require.True(t, env.IsJSON)
	require.JSONEq(t, `{"id": "x"}`, string(env.Data))

	var raw struct {
		Status string `json:"status"`
		Data   struct {
			Id string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, env.DecodeBody(&raw))
	require.Equal(t, "ok", raw.Status)
	require.Equal(t, "x", raw.Data.Id)

	numbers, err := Do[[]int](ctx, client, Request{Method: http.MethodGet, Path: "/bare"})
	require.NoError(t, err)
	if diff := cmp.Diff([]int{1, 2, 3}, numbers); diff != "" {
		t.Fatal(diff)
	}

	env, err = client.Send(ctx, Request{Method: http.MethodGet, Path: "/plain"})
	require.NoError(t, err)
	require.False(t, env.IsJSON)
	require.Equal(t, "<html></html>", env.Text)

	var text string
	require.NoError(t, env.Decode(&text))
	require.Equal(t, "<html></html>", text)
	require.ErrorIs(t, env.Decode(&raw), ErrNotJSON)
}

func TestRequestEncoding(t *testing.T) {
	client, api := setup(t,
		testutil.Route{
			Method:    http.MethodGet,
			Path:      "/list",
			Responses: []testutil.Response{testutil.JSON(200, `{"data": []}`)},
		},
		testutil.Route{
			Method:    http.MethodPost,
			Path:      "/create",
			Responses: []testutil.Response{testutil.JSON(200, `{"data": {}}`)},
		},
	)
	ctx := context.Background()

	_, err := client.Send(ctx, Request{
		Method: http.MethodGet,
		Path:   "list",
		Body: map[string]any{
			"page":     1,
			"pageSize": 20,
			"desc":     true,
			"name":     "books",
			"skipped":  nil,
		},
	})
	require.NoError(t, err)

	req, ok := api.Last(http.MethodGet, "/list")
	require.True(t, ok)
	require.Equal(t, "test-key", req.Header.Get(ApiKeyHeader))
	require.Equal(t, "application/json", req.Header.Get("Content-Type"))
	require.Equal(t, "1", req.Query.Get("page"))
	require.Equal(t, "20", req.Query.Get("pageSize"))
	require.Equal(t, "true", req.Query.Get("desc"))
	require.Equal(t, "books", req.Query.Get("name"))
	require.False(t, req.Query.Has("skipped"))
	require.Empty(t, req.Body)

	_, err = client.Send(ctx, Request{
		Method:  http.MethodPost,
		Path:    api.URL + "/create",
		Body:    map[string]string{"name": "books"},
		Headers: map[string]string{"X-Extra": "1"},
	})
	require.NoError(t, err)

	req, ok = api.Last(http.MethodPost, "/create")
	require.True(t, ok)
	require.Equal(t, "1", req.Header.Get("X-Extra"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(req.Body, &body))
	require.Equal(t, map[string]string{"name": "books"}, body)
	require.Equal(t, "application/json", req.Header.Get("Content-Type"))

	_, err = client.Send(ctx, Request{
		Method:  http.MethodPost,
		Path:    "create",
		Body:    "plain body",
		Headers: map[string]string{"Content-Type": "text/plain"},
	})
	require.NoError(t, err)

	req, ok = api.Last(http.MethodPost, "/create")
	require.True(t, ok)
	require.Equal(t, "text/plain", req.Header.Get("Content-Type"))
	require.Equal(t, "test-key", req.Header.Get(ApiKeyHeader))
	require.Equal(t, "plain body", string(req.Body))
}

func TestMultipart(t *testing.T) {
	var fileContents, name, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		file, _, err := r.FormFile("file")
		if err == nil {
			contents, _ := io.ReadAll(file)
			fileContents = string(contents)
		}
		name = r.FormValue("name")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"extensionId": "ext-1"}}`))
	}))
	defer srv.Close()

	client := NewClient(Options{ApiKey: "k", BaseUrl: srv.URL})
	env, err := client.Send(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/upload",
		Multipart: &Multipart{
			Files:  []File{{Param: "file", FileName: "ext.zip", ContentType: "application/zip", Reader: strings.NewReader("zipbytes")}},
			Fields: map[string]string{"name": "my-extension"},
		},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"extensionId": "ext-1"}`, string(env.Data))
	require.True(t, strings.HasPrefix(contentType, "multipart/form-data"))
	require.Equal(t, "zipbytes", fileContents)
	require.Equal(t, "my-extension", name)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(Options{ApiKey: "k", BaseUrl: url})
	_, err := client.Send(context.Background(), Request{Method: http.MethodGet, Path: "/anything"})

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	require.Equal(t, 0, reqErr.Status)
	require.NotNil(t, reqErr.Unwrap())
	require.Equal(t, url+"/anything", reqErr.Url)
}

func TestInvalidJSON(t *testing.T) {
	client, _ := setup(t, testutil.Route{
		Method:    http.MethodGet,
		Path:      "/broken",
		Responses: []testutil.Response{testutil.JSON(200, `{"data": `)},
	})
	_, err := client.Send(context.Background(), Request{Method: http.MethodGet, Path: "/broken"})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	require.Equal(t, 200, reqErr.Status)
}

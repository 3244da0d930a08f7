// Package transport sends a single request to the platform API and turns the
// response into either an Envelope or a *RequestError.
package transport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scrapeless-go/lib/restyutil"
	"scrapeless-go/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = telemetry.Tracer("scrapeless.lib.transport")

const (
	ApiKeyHeader    = "X-API-Key"
	jsonContentType = "application/json"
)

type Sender interface {
	Send(ctx context.Context, req Request) (Envelope, error)
}

type File struct {
	Param       string
	FileName    string
	ContentType string
	Reader      io.Reader
}

type Multipart struct {
	Files  []File
	Fields map[string]string
}

type Request struct {
	Method string
	// Path is appended to the base url unless it is already an absolute
	// http(s) url.
	Path    string
	Body    any
	Query   url.Values
	Headers map[string]string
	// Multipart replaces the JSON body with a multipart form.
	Multipart *Multipart
}

type Options struct {
	ApiKey  string
	BaseUrl string
	// Timeout of 0 means no timeout.
	Timeout time.Duration
	// RequestsPerSecond of 0 means no client side rate limit.
	RequestsPerSecond float64
	Output            restyutil.InstrumentOutput
}

type Client struct {
	http    *resty.Client
	apiKey  string
	baseUrl string
}

func NewClient(opts Options) *Client {
	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	restyutil.InstrumentClient(client, telemetry.Tracer("scrapeless.lib.transport/http"), opts.Output)

	return &Client{
		http:    client,
		apiKey:  opts.ApiKey,
		baseUrl: strings.TrimSuffix(opts.BaseUrl, "/"),
	}
}

func (c *Client) BaseUrl() string {
	return c.baseUrl
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseUrl + path
}

func (c *Client) Send(ctx context.Context, req Request) (Envelope, error) {
	ctx, span := tracer.Start(ctx, "Send")
	defer span.End()

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	target := c.resolve(req.Path)
	span.SetAttributes(
		attribute.String("method", method),
		attribute.String("url", target),
	)

	fail := func(err *RequestError) (Envelope, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		slog.ErrorContext(ctx, "request failed", "method", method, "url", target, "status", err.Status, "err", err.Message)
		return Envelope{}, err
	}

	r := c.http.R().
		SetContext(ctx).
		SetHeader(ApiKeyHeader, c.apiKey)
	if req.Multipart == nil {
		r.SetHeader("Content-Type", jsonContentType)
	}
	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}

	query := mergeQuery(nil, req.Query)
	if req.Body != nil {
		if method == http.MethodGet {
			values, err := queryFromBody(req.Body)
			if err != nil {
				return fail(&RequestError{Method: method, Url: target, Message: err.Error(), Err: err})
			}
			query = mergeQuery(query, values)
		} else {
			r.SetBody(req.Body)
		}
	}
	if len(query) > 0 {
		r.SetQueryParamsFromValues(query)
	}

	if req.Multipart != nil {
		for _, f := range req.Multipart.Files {
			r.SetMultipartField(f.Param, f.FileName, f.ContentType, f.Reader)
		}
		if len(req.Multipart.Fields) > 0 {
			r.SetMultipartFormData(req.Multipart.Fields)
		}
	}

	res, err := r.Execute(method, target)
	if err != nil {
		return fail(&RequestError{Method: method, Url: target, Message: err.Error(), Err: err})
	}

	env, reqErr := classify(method, target, res.StatusCode(), res.Header().Get("Content-Type"), res.Body())
	if reqErr != nil {
		return fail(reqErr)
	}
	return env, nil
}

func classify(method, target string, status int, contentType string, body []byte) (Envelope, *RequestError) {
	isJSON := strings.Contains(strings.ToLower(contentType), jsonContentType)
	success := status >= 200 && status < 300

	fields, isObject := parseFields(body)
	traceId := ""
	if isJSON && isObject {
		traceId = fields.text("traceId")
	}

	if !success {
		message := composeMessage(status, "", "", traceId)
		if isJSON && isObject {
			message = composeMessage(status, fields.text("error"), fields.text("msg"), traceId)
		}
		return Envelope{}, &RequestError{
			Method:  method,
			Url:     target,
			Status:  status,
			TraceId: traceId,
			Message: message,
		}
	}

	if !isJSON {
		return Envelope{Status: status, Text: string(body)}, nil
	}

	raw := json.RawMessage(body)
	if len(strings.TrimSpace(string(body))) == 0 {
		raw = json.RawMessage("null")
	} else if !json.Valid(body) {
		return Envelope{}, &RequestError{
			Method:  method,
			Url:     target,
			Status:  status,
			Message: "invalid JSON in response body",
		}
	}

	data := raw
	if isObject {
		wrapped, ok := fields["data"]
		if ok {
			data = wrapped
		}
	}

	return Envelope{
		Status:  status,
		TraceId: traceId,
		Body:    raw,
		Data:    data,
		IsJSON:  true,
	}, nil
}

// Do sends `req` and decodes the unwrapped payload into T.
func Do[T any](ctx context.Context, sender Sender, req Request) (T, error) {
	var out T
	env, err := sender.Send(ctx, req)
	if err != nil {
		return out, err
	}
	err = env.Decode(&out)
	return out, err
}

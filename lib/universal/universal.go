// Package universal talks to the universal scraping (unlocker) API.
package universal

import (
	"context"
	"encoding/json"
	"net/http"

	"scrapeless-go/lib/telemetry"
	"scrapeless-go/lib/transport"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("scrapeless.lib.universal")

const unlockerPath = "/api/v1/unlocker"

const (
	ActorJsRender        = "unlocker.webunlocker"
	ActorWebUnlocker     = "unlocker.webunlocker"
	ActorAkamaiWebCookie = "unlocker.akamaiweb"
	ActorAkamaiWebSensor = "unlocker.akamaiweb"
)

type Proxy struct {
	Country string `json:"country"`
}

type Request[T any] struct {
	Actor string `json:"actor"`
	Input T      `json:"input"`
	Proxy *Proxy `json:"proxy,omitempty"`
}

type JsInstruction struct {
	Click    []any    `json:"click,omitempty"`
	Evaluate string   `json:"evaluate,omitempty"`
	Fill     []string `json:"fill,omitempty"`
	Keyboard []any    `json:"keyboard,omitempty"`
	Wait     int      `json:"wait,omitempty"`
	WaitFor  []any    `json:"wait_for,omitempty"`
}

type JsRenderInput struct {
	Url            string              `json:"url"`
	Headless       *bool               `json:"headless,omitempty"`
	JsRender       *bool               `json:"js_render,omitempty"`
	JsInstructions []JsInstruction     `json:"js_instructions,omitempty"`
	Block          map[string][]string `json:"block,omitempty"`
}

type WebUnlockerInput struct {
	Url       string            `json:"url"`
	Type      string            `json:"type"`
	Redirect  bool              `json:"redirect"`
	Method    string            `json:"method"`
	RequestId string            `json:"request_id,omitempty"`
	Extractor string            `json:"extractor,omitempty"`
	Header    map[string]string `json:"header,omitempty"`
}

type AkamaiWebCookieInput struct {
	Type      string `json:"type"`
	Url       string `json:"url"`
	UserAgent string `json:"user_agent"`
}

type AkamaiWebSensorInput struct {
	Abck      string `json:"abck"`
	Bmsz      string `json:"bmsz"`
	Url       string `json:"url"`
	UserAgent string `json:"userAgent"`
}

// Result is the unwrapped response payload. Text is set when the payload is
// a string, for example rendered html.
type Result struct {
	Data json.RawMessage
	Text string
}

func toResult(env transport.Envelope) Result {
	if !env.IsJSON {
		raw, _ := json.Marshal(env.Text)
		return Result{Data: raw, Text: env.Text}
	}
	res := Result{Data: env.Data}
	var text string
	if json.Unmarshal(env.Data, &text) == nil {
		res.Text = text
	}
	return res
}

type Service struct {
	sender transport.Sender
}

func NewService(sender transport.Sender) *Service {
	return &Service{sender: sender}
}

// Scrape sends any unlocker request.
func Scrape[T any](ctx context.Context, s *Service, req Request[T]) (Result, error) {
	ctx, span := tracer.Start(ctx, "Scrape")
	defer span.End()
	span.SetAttributes(attribute.String("actor", req.Actor))

	env, err := s.sender.Send(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   unlockerPath + "/request",
		Body:   req,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unlocker request failed")
		return Result{}, err
	}
	return toResult(env), nil
}

func (s *Service) JsRender(ctx context.Context, input JsRenderInput, proxy *Proxy) (Result, error) {
	return Scrape(ctx, s, Request[JsRenderInput]{Actor: ActorJsRender, Input: input, Proxy: proxy})
}

func (s *Service) WebUnlocker(ctx context.Context, input WebUnlockerInput, proxy *Proxy) (Result, error) {
	return Scrape(ctx, s, Request[WebUnlockerInput]{Actor: ActorWebUnlocker, Input: input, Proxy: proxy})
}

func (s *Service) AkamaiWebCookie(ctx context.Context, input AkamaiWebCookieInput, proxy *Proxy) (Result, error) {
	return Scrape(ctx, s, Request[AkamaiWebCookieInput]{Actor: ActorAkamaiWebCookie, Input: input, Proxy: proxy})
}

func (s *Service) AkamaiWebSensor(ctx context.Context, input AkamaiWebSensorInput, proxy *Proxy) (Result, error) {
	return Scrape(ctx, s, Request[AkamaiWebSensorInput]{Actor: ActorAkamaiWebSensor, Input: input, Proxy: proxy})
}

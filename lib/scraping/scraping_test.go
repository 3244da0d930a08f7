package scraping

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"scrapeless-go/lib/testutil"
	"scrapeless-go/lib/transport"

	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

type sleeperFunc func(ctx context.Context, d time.Duration) error

func (f sleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

func setup(t *testing.T, routes ...testutil.Route) (transport.Sender, *testutil.FakeApi) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:   "scraping",
		Routes: routes,
	})
	t.Cleanup(cleanup)
	return transport.NewClient(transport.Options{ApiKey: "test-key", BaseUrl: res.Api.URL}), res.Api
}

func TestScrapeImmediateResult(t *testing.T) {
	sender, api := setup(t, testutil.Route{
		Method:    http.MethodPost,
		Path:      scraperPath + "/request",
		Responses: []testutil.Response{testutil.JSON(200, `{"html": "<p>done</p>"}`)},
	})
	sleeper := &recordingSleeper{}
	service := NewService(sender, WithSleeper(sleeper))

	raw, err := service.Scrape(context.Background(), TaskRequest{
		Actor: "scraper.shopee",
		Input: map[string]any{"url": "https://example.com"},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"html": "<p>done</p>"}`, string(raw))
	require.Empty(t, sleeper.waits)

	req, ok := api.Last(http.MethodPost, scraperPath+"/request")
	require.True(t, ok)
	var body map[string]any
	err = json.Unmarshal(req.Body, &body)
	require.NoError(t, err)
	require.Equal(t, true, body["async"])
	require.Equal(t, "scraper.shopee", body["actor"])
	require.Zero(t, api.Count(http.MethodGet, scraperPath+"/result/t-1"))
}

func TestScrapePollsUntilDone(t *testing.T) {
	sender, api := setup(t,
		testutil.Route{
			Method:    http.MethodPost,
			Path:      scraperPath + "/request",
			Responses: []testutil.Response{testutil.JSON(201, `{"taskId": "t-1"}`)},
		},
		testutil.Route{
			Method: http.MethodGet,
			Path:   scraperPath + "/result/t-1",
			Responses: []testutil.Response{
				testutil.JSON(201, `{"message": "pending"}`),
				testutil.JSON(201, `{"message": "pending"}`),
				testutil.JSON(200, `{"items": [1, 2]}`),
			},
		},
	)
	sleeper := &recordingSleeper{}
	service := NewService(sender, WithSleeper(sleeper))

	raw, err := service.Scrape(context.Background(), TaskRequest{Actor: "scraper.shopee"})
	require.NoError(t, err)
	require.JSONEq(t, `{"items": [1, 2]}`, string(raw))
	require.Equal(t, 3, api.Count(http.MethodGet, scraperPath+"/result/t-1"))
	require.Equal(t, []time.Duration{PollInterval, PollInterval, PollInterval}, sleeper.waits)
}

func TestScrapeHonorsCancellation(t *testing.T) {
	sender, api := setup(t,
		testutil.Route{
			Method:    http.MethodPost,
			Path:      scraperPath + "/request",
			Responses: []testutil.Response{testutil.JSON(202, `{"taskId": "t-2"}`)},
		},
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cancelling := sleeperFunc(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	})

	_, err := NewService(sender, WithSleeper(cancelling)).Scrape(ctx, TaskRequest{Actor: "a"})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, api.Count(http.MethodGet, scraperPath+"/result/t-2"))
}

func TestScrapeError(t *testing.T) {
	sender, _ := setup(t, testutil.Route{
		Method:    http.MethodPost,
		Path:      scraperPath + "/request",
		Responses: []testutil.Response{testutil.JSON(400, `{"msg": "bad actor", "traceId": "tr-1"}`)},
	})

	_, err := NewService(sender).Scrape(context.Background(), TaskRequest{Actor: "nope"})
	var reqErr *transport.RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, 400, reqErr.Status)
	require.Contains(t, err.Error(), "bad actor (TraceID: tr-1)")
}

func TestDeepSerpSearch(t *testing.T) {
	sender, api := setup(t, testutil.Route{
		Method: http.MethodPost,
		Path:   scraperPath + "/request",
		Responses: []testutil.Response{testutil.JSON(200, `{
			"status": "success",
			"query": "golang",
			"engine": "google",
			"organic": [{"position": 1, "title": "Go", "url": "https://go.dev"}],
			"relatedSearches": ["go tutorial"]
		}`)},
	})
	service := NewDeepSerpService(NewService(sender))

	result, err := service.Search(context.Background(), "scraper.google.search", SerpRequest{
		Query:   "golang",
		Country: "us",
		Params:  map[string]string{"safe": "active"},
	})
	require.NoError(t, err)
	require.Equal(t, "golang", result.Query)
	require.Len(t, result.Organic, 1)
	require.Equal(t, "https://go.dev", result.Organic[0].Url)
	require.Equal(t, []string{"go tutorial"}, result.RelatedSearches)

	var body struct {
		Actor string         `json:"actor"`
		Input map[string]any `json:"input"`
	}
	req, ok := api.Last(http.MethodPost, scraperPath+"/request")
	require.True(t, ok)
	err = json.Unmarshal(req.Body, &body)
	require.NoError(t, err)
	require.Equal(t, "scraper.google.search", body.Actor)
	require.Equal(t, map[string]any{"q": "golang", "gl": "us", "safe": "active"}, body.Input)
}

func TestCaptchaSolve(t *testing.T) {
	sender, api := setup(t,
		testutil.Route{
			Method:    http.MethodPost,
			Path:      captchaPath + "/createTask",
			Responses: []testutil.Response{testutil.JSON(200, `{"taskId": "cap-1", "state": "pending"}`)},
		},
		testutil.Route{
			Method: http.MethodGet,
			Path:   captchaPath + "/getTaskResult/cap-1",
			Responses: []testutil.Response{
				testutil.JSON(200, `{"success": false, "state": "pending"}`),
				testutil.JSON(200, `{"success": true, "state": "done", "taskId": "cap-1", "solution": {"token": "abc"}}`),
			},
		},
	)
	sleeper := &recordingSleeper{}
	service := NewCaptchaService(sender, WithSleeper(sleeper))

	result, err := service.Solve(context.Background(), CaptchaRequest{
		Actor: "captcha.recaptcha",
		Input: map[string]any{"version": "v2"},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "abc", result.Solution["token"])
	require.Equal(t, 2, api.Count(http.MethodGet, captchaPath+"/getTaskResult/cap-1"))
	require.Equal(t, []time.Duration{PollInterval}, sleeper.waits)
}

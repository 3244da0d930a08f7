package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"scrapeless-go/lib/testutil"
	"scrapeless-go/lib/transport"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const crawlPath = "/api/v1/crawler/crawl"

type recordingSleeper struct {
	waits []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

type fixture struct {
	api     *testutil.FakeApi
	poller  *Poller
	sleeper *recordingSleeper
}

func setup(t *testing.T, routes ...testutil.Route) fixture {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:   "jobs",
		Routes: routes,
	})
	t.Cleanup(cleanup)

	sleeper := &recordingSleeper{}
	client := transport.NewClient(transport.Options{ApiKey: "test-key", BaseUrl: res.Api.URL})
	return fixture{
		api:     res.Api,
		poller:  NewPoller(client, crawlPath, WithSleeper(sleeper)),
		sleeper: sleeper,
	}
}

func submitRoute(body string) testutil.Route {
	return testutil.Route{
		Method:    http.MethodPost,
		Path:      crawlPath,
		Responses: []testutil.Response{testutil.JSON(200, body)},
	}
}

func statusRoute(id string, bodies ...string) testutil.Route {
	responses := make([]testutil.Response, len(bodies))
	for i, body := range bodies {
		responses[i] = testutil.JSON(200, body)
	}
	return testutil.Route{
		Method:    http.MethodGet,
		Path:      crawlPath + "/" + id,
		Responses: responses,
	}
}

func pageRoute(path, body string) testutil.Route {
	return testutil.Route{
		Method:    http.MethodGet,
		Path:      path,
		Responses: []testutil.Response{testutil.JSON(200, body)},
	}
}

func TestRunScrapingThenCompleted(t *testing.T) {
	f := setup(t,
		submitRoute(`{"id": "job-1", "success": true}`),
		statusRoute("job-1",
			`{"status": "scraping"}`,
			`{"status": "completed", "data": [{"x": 1}]}`,
		),
	)

	result, err := f.poller.Run(context.Background(), map[string]string{"url": "https://example.com"}, time.Second)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	require.Equal(t, "job-1", result.Id)
	require.JSONEq(t, `[{"x": 1}]`, string(result.Data))
	require.Equal(t, 1, result.Pages)
	require.Equal(t, []time.Duration{2 * time.Second}, f.sleeper.waits)
	require.Equal(t, 2, f.api.Count(http.MethodGet, crawlPath+"/job-1"))
}

func TestSubmissionWithoutId(t *testing.T) {
	f := setup(t, submitRoute(`{"success": true}`))

	_, err := f.poller.Run(context.Background(), map[string]string{"url": "https://example.com"}, time.Second)
	var submissionErr *SubmissionError
	require.True(t, errors.As(err, &submissionErr))

	for _, req := range f.api.Requests() {
		require.NotEqual(t, http.MethodGet, req.Method)
	}
}

func TestSubmissionErrorCarriesServerMessage(t *testing.T) {
	f := setup(t, submitRoute(`{"success": false, "error": "invalid url"}`))

	_, err := f.poller.Submit(context.Background(), map[string]string{"url": "nope"})
	var submissionErr *SubmissionError
	require.True(t, errors.As(err, &submissionErr))
	require.Equal(t, "invalid url", submissionErr.Message)
}

func TestFailedStatusStopsLoop(t *testing.T) {
	f := setup(t,
		submitRoute(`{"id": "job-1", "success": true}`),
		statusRoute("job-1", `{"status": "failed", "error": "blocked"}`, `{"status": "completed", "data": []}`),
	)

	_, err := f.poller.Run(context.Background(), nil, time.Second)
	var failedErr *FailedError
	require.True(t, errors.As(err, &failedErr))
	require.Equal(t, Status("failed"), failedErr.Status)
	require.Equal(t, "blocked", failedErr.Message)
	require.Equal(t, 1, f.api.Count(http.MethodGet, crawlPath+"/job-1"))
	require.Empty(t, f.sleeper.waits)
}

func TestFollowsNextLinks(t *testing.T) {
	f := setup(t,
		statusRoute("job-1", `{"status": "completed", "data": [1, 2], "next": "/page2"}`),
		pageRoute("/page2", `{"data": [3]}`),
	)

	result, err := f.poller.Check(context.Background(), "job-1")
	require.NoError(t, err)
	require.JSONEq(t, `[1, 2, 3]`, string(result.Data))
	require.Equal(t, 2, result.Pages)
}

func TestPaginationCompleteness(t *testing.T) {
	testCases := []struct {
		name     string
		first    string
		pages    map[string]string
		expected []int
		fetched  int
	}{
		{
			name:     "no next",
			first:    `{"status": "completed", "data": [1]}`,
			expected: []int{1},
		},
		{
			name:     "empty next",
			first:    `{"status": "completed", "data": [1], "next": ""}`,
			expected: []int{1},
		},
		{
			name:  "chain",
			first: `{"status": "completed", "data": [1, 2], "next": "/p/2"}`,
			pages: map[string]string{
				"/p/2": `{"data": [3, 4], "next": "/p/3"}`,
				"/p/3": `{"data": [5], "next": "/p/4"}`,
				"/p/4": `{"data": [6]}`,
			},
			expected: []int{1, 2, 3, 4, 5, 6},
			fetched:  3,
		},
		{
			name:  "stops at empty page",
			first: `{"status": "completed", "data": [1], "next": "/p/2"}`,
			pages: map[string]string{
				"/p/2": `{"data": [], "next": "/p/3"}`,
				"/p/3": `{"data": [99]}`,
			},
			expected: []int{1},
			fetched:  1,
		},
		{
			name:  "cycle",
			first: `{"status": "completed", "data": [1], "next": "/p/2"}`,
			pages: map[string]string{
				"/p/2": `{"data": [2], "next": "/p/2"}`,
			},
			expected: []int{1, 2},
			fetched:  1,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			routes := []testutil.Route{statusRoute("job-1", test.first)}
			for path, body := range test.pages {
				routes = append(routes, pageRoute(path, body))
			}
			f := setup(t, routes...)

			result, err := f.poller.Check(context.Background(), "job-1")
			require.NoError(t, err)

			var data []int
			require.NoError(t, result.Decode(&data))
			if diff := cmp.Diff(test.expected, data); diff != "" {
				t.Fatal(diff)
			}

			fetched := 0
			for path := range test.pages {
				fetched += f.api.Count(http.MethodGet, path)
			}
			require.Equal(t, test.fetched, fetched)
		})
	}
}

func TestTerminalDetection(t *testing.T) {
	for _, status := range []Status{StatusQueued, StatusPending, StatusWaiting, StatusActive, StatusPaused, StatusScraping} {
		t.Run(string(status), func(t *testing.T) {
			f := setup(t, statusRoute("job-1",
				fmt.Sprintf(`{"status": %q}`, status),
				`{"status": "completed", "data": {"markdown": "# hi"}}`,
			))

			result, err := f.poller.Wait(context.Background(), "job-1", 0)
			require.NoError(t, err)
			require.Equal(t, StatusCompleted, result.Status)
			require.JSONEq(t, `{"markdown": "# hi"}`, string(result.Data))
			require.Len(t, f.sleeper.waits, 1)
		})
	}

	for _, status := range []string{"failed", "cancelled", "unknown_future_status", ""} {
		t.Run("failure "+status, func(t *testing.T) {
			f := setup(t, statusRoute("job-1", fmt.Sprintf(`{"status": %q}`, status)))

			_, err := f.poller.Wait(context.Background(), "job-1", 0)
			var failedErr *FailedError
			require.True(t, errors.As(err, &failedErr))
			require.Equal(t, Status(status), failedErr.Status)
			require.Empty(t, f.sleeper.waits)
		})
	}
}

func TestPollIntervalFloor(t *testing.T) {
	testCases := []struct {
		interval time.Duration
		expected time.Duration
	}{
		{0, 2 * time.Second},
		{500 * time.Millisecond, 2 * time.Second},
		{time.Second, 2 * time.Second},
		{2 * time.Second, 2 * time.Second},
		{5 * time.Second, 5 * time.Second},
	}

	for _, test := range testCases {
		f := setup(t, statusRoute("job-1",
			`{"status": "queued"}`,
			`{"status": "active"}`,
			`{"status": "completed", "data": []}`,
		))

		_, err := f.poller.Wait(context.Background(), "job-1", test.interval)
		require.NoError(t, err)
		require.Equal(t, []time.Duration{test.expected, test.expected}, f.sleeper.waits)
	}
}

func TestCheckIsIdempotentAfterCompletion(t *testing.T) {
	f := setup(t,
		statusRoute("job-1", `{"status": "completed", "total": 2, "completed": 2, "data": [{"a": 1}], "next": "/more"}`),
		pageRoute("/more", `{"data": [{"a": 2}]}`),
	)

	first, err := f.poller.Check(context.Background(), "job-1")
	require.NoError(t, err)
	second, err := f.poller.Check(context.Background(), "job-1")
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, 2, *first.Total)
	require.Equal(t, 2, *first.Completed)
}

func TestCompletedWithoutData(t *testing.T) {
	for _, body := range []string{`{"status": "completed"}`, `{"status": "completed", "data": null}`} {
		f := setup(t, statusRoute("job-1", body))

		_, err := f.poller.Check(context.Background(), "job-1")
		var missingErr *DataMissingError
		require.True(t, errors.As(err, &missingErr))
		require.Equal(t, "job-1", missingErr.Id)
	}
}

func TestInProgressCheckReturnsWithoutWaiting(t *testing.T) {
	f := setup(t, statusRoute("job-1", `{"status": "active", "total": 10, "completed": 3}`))

	result, err := f.poller.Check(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, StatusActive, result.Status)
	require.Equal(t, 3, *result.Completed)
	require.Empty(t, f.sleeper.waits)
}

func TestRequestErrorsAreNotRetried(t *testing.T) {
	f := setup(t, testutil.Route{
		Method:    http.MethodGet,
		Path:      crawlPath + "/job-1",
		Responses: []testutil.Response{testutil.JSON(500, `{"error": "boom"}`)},
	})

	_, err := f.poller.Wait(context.Background(), "job-1", 0)
	var reqErr *transport.RequestError
	require.True(t, errors.As(err, &reqErr))
	require.Equal(t, 500, reqErr.Status)
	require.Equal(t, 1, f.api.Count(http.MethodGet, crawlPath+"/job-1"))
}

func TestWaitHonorsCancellation(t *testing.T) {
	f := setup(t, statusRoute("job-1", `{"status": "active"}`))

	ctx, cancel := context.WithCancel(context.Background())
	f.poller.sleeper = sleeperFunc(func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	})

	_, err := f.poller.Wait(ctx, "job-1", 0)
	require.ErrorIs(t, err, context.Canceled)
}

type sleeperFunc func(ctx context.Context, d time.Duration) error

func (f sleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

func TestCancel(t *testing.T) {
	f := setup(t, testutil.Route{
		Method:    http.MethodDelete,
		Path:      crawlPath + "/job-1",
		Responses: []testutil.Response{testutil.JSON(200, `{"success": true}`)},
	})

	_, err := f.poller.Cancel(context.Background(), "job-1")
	require.NoError(t, err)
	require.Equal(t, 1, f.api.Count(http.MethodDelete, crawlPath+"/job-1"))
}

func TestTimerSleeper(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, timerSleeper{}.Sleep(ctx, time.Hour), context.Canceled)
	require.NoError(t, timerSleeper{}.Sleep(context.Background(), time.Millisecond))
}

package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"scrapeless-go/lib/jobs"
	"scrapeless-go/lib/transport"

	"github.com/stretchr/testify/require"
)

func requestError(status int) error {
	return &transport.RequestError{Method: http.MethodGet, Url: "https://example.test", Status: status, Message: "boom"}
}

func TestRetryUntilSuccess(t *testing.T) {
	var waits []time.Duration
	calls := 0
	value, err := DoValue(context.Background(), Options{
		MaxAttempts: 3,
		Delay:       time.Millisecond,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			waits = append(waits, wait)
		},
	}, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", requestError(502)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", value)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, waits)
}

func TestRetryConstantDelay(t *testing.T) {
	var waits []time.Duration
	err := Do(context.Background(), Options{
		MaxAttempts: 4,
		Delay:       time.Millisecond,
		Constant:    true,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			waits = append(waits, wait)
		},
	}, func(ctx context.Context) error {
		return requestError(500)
	})
	require.Error(t, err)
	require.Equal(t, []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}, waits)
}

func TestRetryGivesUp(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{MaxAttempts: 2, Delay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return requestError(503)
	})
	var reqErr *transport.RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, 503, reqErr.Status)
	require.Equal(t, 2, calls)
}

func TestPermanentErrors(t *testing.T) {
	testCases := []error{
		&jobs.FailedError{Id: "job-1", Status: "failed"},
		&jobs.DataMissingError{Id: "job-1"},
		errors.New("not a request error"),
	}

	for _, permanent := range testCases {
		calls := 0
		err := Do(context.Background(), Options{Delay: time.Millisecond}, func(ctx context.Context) error {
			calls++
			return permanent
		})
		require.ErrorIs(t, err, permanent)
		require.Equal(t, 1, calls)
	}
}

func TestRetryableWrapped(t *testing.T) {
	require.True(t, Retryable(requestError(500)))
	require.True(t, Retryable(errors.Join(errors.New("context"), requestError(500))))
	require.False(t, Retryable(context.Canceled))
}

func TestRetryableStatus(t *testing.T) {
	testCases := []struct {
		status    int
		retryable bool
	}{
		{status: 0, retryable: true},
		{status: 400, retryable: false},
		{status: 401, retryable: false},
		{status: 404, retryable: false},
		{status: 429, retryable: true},
		{status: 500, retryable: true},
		{status: 503, retryable: true},
	}

	for _, test := range testCases {
		require.Equal(t, test.retryable, Retryable(requestError(test.status)), test.status)
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Options{MaxAttempts: 3, Delay: time.Millisecond}, func(ctx context.Context) error {
		calls++
		return requestError(400)
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

type flakySender struct {
	failures int
	calls    int
}

func (s *flakySender) Send(ctx context.Context, req transport.Request) (transport.Envelope, error) {
	s.calls++
	if s.calls <= s.failures {
		return transport.Envelope{}, requestError(502)
	}
	return transport.Envelope{Status: 200, Text: "ok"}, nil
}

func TestWrapSender(t *testing.T) {
	next := &flakySender{failures: 1}
	sender := WrapSender(next, Options{MaxAttempts: 3, Delay: time.Millisecond})

	env, err := sender.Send(context.Background(), transport.Request{Method: http.MethodGet, Path: "/x"})
	require.NoError(t, err)
	require.Equal(t, "ok", env.Text)
	require.Equal(t, 2, next.calls)

	testCases := []transport.Request{
		{Method: http.MethodPut, Path: "/upload", Multipart: &transport.Multipart{}},
		{Method: http.MethodPost, Path: "/jobs", Body: map[string]string{"url": "https://example.com"}},
	}
	for _, req := range testCases {
		next = &flakySender{failures: 1}
		sender = WrapSender(next, Options{MaxAttempts: 3, Delay: time.Millisecond})
		_, err = sender.Send(context.Background(), req)
		require.Error(t, err)
		require.Equal(t, 1, next.calls, req.Path)
	}

	next = &flakySender{failures: 1}
	sender = WrapSender(next, Options{MaxAttempts: 3, Delay: time.Millisecond})
	_, err = sender.Send(context.Background(), transport.Request{Method: http.MethodDelete, Path: "/jobs/1"})
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

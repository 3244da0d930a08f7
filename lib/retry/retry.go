// Package retry re-runs calls that failed with a request error.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"scrapeless-go/lib/transport"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = time.Second
)

type Options struct {
	// MaxAttempts counts the first call, values below 1 mean DefaultMaxAttempts.
	MaxAttempts int
	// Delay is the wait before the second attempt, 0 means DefaultDelay.
	Delay time.Duration
	// Constant disables exponential backoff, every wait is Delay.
	Constant bool
	// OnRetry is called before waiting for the next attempt.
	OnRetry func(attempt int, err error, wait time.Duration)
}

func (o Options) backOff(ctx context.Context) backoff.BackOff {
	attempts := o.MaxAttempts
	if attempts < 1 {
		attempts = DefaultMaxAttempts
	}
	delay := o.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}

	var b backoff.BackOff
	if o.Constant {
		b = backoff.NewConstantBackOff(delay)
	} else {
		exp := backoff.NewExponentialBackOff()
		exp.InitialInterval = delay
		exp.Multiplier = 2
		exp.RandomizationFactor = 0
		exp.MaxInterval = delay << 10
		exp.MaxElapsedTime = 0
		b = exp
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Retryable reports whether err is worth another attempt. Only request
// errors are, and client errors other than 429 are not since repeating the
// same request can not fix them.
func Retryable(err error) bool {
	var reqErr *transport.RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	if reqErr.Status == http.StatusTooManyRequests {
		return true
	}
	return reqErr.Status < 400 || reqErr.Status >= 500
}

func idempotent(method string) bool {
	switch strings.ToUpper(method) {
	case "", http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// DoValue calls fn until it succeeds, it fails with an error that is not
// Retryable or the attempts run out. The last error is returned.
func DoValue[T any](ctx context.Context, opts Options, fn func(ctx context.Context) (T, error)) (T, error) {
	attempt := 0
	op := func() (T, error) {
		attempt++
		value, err := fn(ctx)
		if err != nil && !Retryable(err) {
			return value, backoff.Permanent(err)
		}
		return value, err
	}
	notify := func(err error, wait time.Duration) {
		slog.DebugContext(ctx, "retrying request", "attempt", attempt, "wait", wait, "err", err)
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err, wait)
		}
	}
	return backoff.RetryNotifyWithData(op, opts.backOff(ctx), notify)
}

func Do(ctx context.Context, opts Options, fn func(ctx context.Context) error) error {
	_, err := DoValue(ctx, opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

type retryingSender struct {
	next transport.Sender
	opts Options
}

// WrapSender retries the idempotent requests sent through it. POST requests
// are sent once since they may create a resource on the server, multipart
// requests are sent once since their readers can not be rewound.
func WrapSender(sender transport.Sender, opts Options) transport.Sender {
	return retryingSender{next: sender, opts: opts}
}

func (s retryingSender) Send(ctx context.Context, req transport.Request) (transport.Envelope, error) {
	if req.Multipart != nil || !idempotent(req.Method) {
		return s.next.Send(ctx, req)
	}
	return DoValue(ctx, s.opts, func(ctx context.Context) (transport.Envelope, error) {
		return s.next.Send(ctx, req)
	})
}

package transport

import (
	"fmt"
)

// RequestError is returned for non-2xx responses and for requests that never
// produced a response (Status is 0 in that case).
type RequestError struct {
	Method  string
	Url     string
	Status  int
	TraceId string
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("Request %s %s %s", e.Method, e.Url, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// composeMessage picks the server's `error` field, then `msg`, then a
// generic status message. A trace id is appended when the server sent one.
func composeMessage(status int, errorText, msgText, traceId string) string {
	message := errorText
	if message == "" {
		message = msgText
	}
	if message == "" {
		message = fmt.Sprintf("failed with status %d", status)
	}
	if traceId != "" {
		message = fmt.Sprintf("%s (TraceID: %s)", message, traceId)
	}
	return message
}

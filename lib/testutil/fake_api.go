package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

type Response struct {
	Status int
	// defaults to application/json
	ContentType string
	Body        string
}

// JSON is a response with a JSON body.
func JSON(status int, body string) Response {
	return Response{Status: status, Body: body}
}

// Text is a response with a plain text body.
func Text(status int, body string) Response {
	return Response{Status: status, ContentType: "text/plain", Body: body}
}

// Route serves its responses in order, the last one is repeated once the
// rest are used up.
type Route struct {
	Method    string
	Path      string
	Responses []Response
}

type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type routeState struct {
	responses []Response
	served    int
}

// FakeApi is an httptest server that answers with scripted responses and
// records every request it receives.
type FakeApi struct {
	URL string

	server   *httptest.Server
	mutex    sync.Mutex
	routes   map[string]*routeState
	requests []RecordedRequest
}

func NewFakeApi() *FakeApi {
	api := &FakeApi{routes: map[string]*routeState{}}
	api.server = httptest.NewServer(http.HandlerFunc(api.serve))
	api.URL = api.server.URL
	return api
}

func routeKey(method, path string) string {
	return method + " " + path
}

func (a *FakeApi) Handle(method, path string, responses ...Response) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.routes[routeKey(method, path)] = &routeState{responses: responses}
}

func (a *FakeApi) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	a.mutex.Lock()
	a.requests = append(a.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	route, ok := a.routes[routeKey(r.Method, r.URL.Path)]
	var res Response
	if ok && len(route.responses) > 0 {
		index := route.served
		if index >= len(route.responses) {
			index = len(route.responses) - 1
		}
		res = route.responses[index]
		route.served++
	} else {
		res = JSON(http.StatusNotFound, fmt.Sprintf(`{"error": "no route for %s %s"}`, r.Method, r.URL.Path))
	}
	a.mutex.Unlock()

	contentType := res.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(res.Body))
}

// Requests returns every request received so far, in order.
func (a *FakeApi) Requests() []RecordedRequest {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	out := make([]RecordedRequest, len(a.requests))
	copy(out, a.requests)
	return out
}

// Count returns how many requests were made to a route.
func (a *FakeApi) Count(method, path string) int {
	count := 0
	for _, req := range a.Requests() {
		if req.Method == method && req.Path == path {
			count++
		}
	}
	return count
}

// Last returns the most recent request made to a route.
func (a *FakeApi) Last(method, path string) (RecordedRequest, bool) {
	requests := a.Requests()
	for i := len(requests) - 1; i >= 0; i-- {
		if requests[i].Method == method && requests[i].Path == path {
			return requests[i], true
		}
	}
	return RecordedRequest{}, false
}

func (a *FakeApi) Close() {
	a.server.Close()
}

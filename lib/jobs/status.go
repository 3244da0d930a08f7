package jobs

import (
	"encoding/json"
	"time"
)

// MinPollInterval is the shortest wait between two status checks.
const MinPollInterval = 2 * time.Second

type Status string

const (
	StatusQueued    Status = "queued"
	StatusPending   Status = "pending"
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusScraping  Status = "scraping"
	StatusCompleted Status = "completed"
)

// InProgress reports whether the job may still change status.
func (s Status) InProgress() bool {
	switch s {
	case StatusQueued, StatusPending, StatusWaiting, StatusActive, StatusPaused, StatusScraping:
		return true
	}
	return false
}

func (s Status) Completed() bool {
	return s == StatusCompleted
}

// Failed reports whether the status is terminal but not completed. Every
// status the client does not recognize counts as failed, this includes an
// empty status.
func (s Status) Failed() bool {
	return !s.InProgress() && !s.Completed()
}

// StatusResponse is a job status as returned by the api, nil fields were
// absent from the response.
type StatusResponse struct {
	Status    Status          `json:"status"`
	Success   *bool           `json:"success"`
	Data      json.RawMessage `json:"data"`
	Next      *string         `json:"next"`
	Total     *int            `json:"total"`
	Completed *int            `json:"completed"`
	Error     string          `json:"error"`
}

func (r StatusResponse) hasData() bool {
	return len(r.Data) > 0 && string(r.Data) != "null"
}

func (r StatusResponse) nextUrl() string {
	if r.Next == nil {
		return ""
	}
	return *r.Next
}

// Submission is the response to submitting a job.
type Submission struct {
	Id      string          `json:"id"`
	Success *bool           `json:"success"`
	Error   string          `json:"error"`
	Body    json.RawMessage `json:"-"`
}

// Result is a job status with the data of every result page concatenated.
type Result struct {
	Id        string
	Status    Status
	Success   *bool
	Total     *int
	Completed *int
	Error     string
	Data      json.RawMessage
	// Pages is the number of result pages that were fetched.
	Pages int
}

// Decode decodes the assembled data into `out`.
func (r Result) Decode(out any) error {
	if len(r.Data) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, out)
}

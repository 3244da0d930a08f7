package jobs

import (
	"fmt"
)

// SubmissionError is returned when the api accepted a submission but did
// not return a job id.
type SubmissionError struct {
	Path    string
	Message string
}

func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("failed to start job at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("failed to start job at %s", e.Path)
}

// FailedError is returned when a job reaches a terminal status other than
// completed.
type FailedError struct {
	Id      string
	Status  Status
	Message string
}

func (e *FailedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("job %s failed or was stopped, status: %q: %s", e.Id, e.Status, e.Message)
	}
	return fmt.Sprintf("job %s failed or was stopped, status: %q", e.Id, e.Status)
}

// DataMissingError is returned when a job completed without a data field.
type DataMissingError struct {
	Id string
}

func (e *DataMissingError) Error() string {
	return fmt.Sprintf("job %s completed but no data was returned", e.Id)
}

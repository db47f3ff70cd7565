package models

import (
	"time"
)

// RunReport represents the results of an archive run
type RunReport struct {
	// Run details
	RunID      string
	SourceRoot string
	OutputRoot string
	DryRun     bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats Statistics

	// Errors encountered
	Errors []RunError

	// Overall status
	Status RunStatus
}

// Statistics holds run metrics
type Statistics struct {
	// Discovery
	VideosDiscovered int
	RecordsFound     int
	TrashFiles       int

	// Planning
	TranscodesPlanned int
	RemovalsPlanned   int

	// Execution
	Transcoded      int
	TranscodeFailed int
	Removed         int
	RemovalFailed   int
	Pending         int // Transcodes not attempted after cancellation

	// Sweep
	OrphansRemoved int
	DirsRemoved    int

	// Bytes written to the output tree
	BytesArchived int64
}

// RunStatus represents the overall result
type RunStatus string

const (
	// StatusSuccess indicates every action completed
	StatusSuccess RunStatus = "success"
	// StatusPartial indicates some actions failed and were left for the next run
	StatusPartial RunStatus = "partial"
	// StatusCancelled indicates the run stopped early on request
	StatusCancelled RunStatus = "cancelled"
	// StatusFailed indicates the run could not start or aborted
	StatusFailed RunStatus = "failed"
)

// RunError represents an error during a run
type RunError struct {
	FilePath  string
	Operation string
	Error     string
	Timestamp time.Time
}

// ExitCode returns the process exit code for the status.
// Failed actions leave their sources in place for the next run, so a
// partial run still exits cleanly.
func (s RunStatus) ExitCode() int {
	switch s {
	case StatusSuccess, StatusPartial, StatusCancelled:
		return 0
	default:
		return 1
	}
}

// NewRunReport creates a report for a run starting now
func NewRunReport(runID string, policy *Policy) *RunReport {
	return &RunReport{
		RunID:      runID,
		SourceRoot: policy.SourceRoot,
		OutputRoot: policy.OutputRoot,
		DryRun:     policy.DryRun,
		StartTime:  time.Now(),
		Errors:     make([]RunError, 0),
		Status:     StatusSuccess,
	}
}

// AddError records a failed action
func (r *RunReport) AddError(path, operation string, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	r.Errors = append(r.Errors, RunError{
		FilePath:  path,
		Operation: operation,
		Error:     msg,
		Timestamp: time.Now(),
	})
}

// Finish stamps the end time and derives the final status
func (r *RunReport) Finish(cancelled bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)

	switch {
	case r.Status == StatusFailed:
	case cancelled:
		r.Status = StatusCancelled
	case len(r.Errors) > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusSuccess
	}
}

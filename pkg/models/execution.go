package models

import (
	"time"
)

// ExecutionResult summarises what the executor did with a plan
type ExecutionResult struct {
	Transcoded      int
	TranscodeFailed int
	Removed         int
	RemovalFailed   int

	// Pending counts actions never attempted because of a cancellation
	Pending int

	// BytesArchived is the total size of archives written
	BytesArchived int64

	Cancelled bool
	Errors    []RunError
}

// NewExecutionResult creates an empty result
func NewExecutionResult() *ExecutionResult {
	return &ExecutionResult{Errors: make([]RunError, 0)}
}

// AddError records a failed action
func (e *ExecutionResult) AddError(path, operation, msg string) {
	e.Errors = append(e.Errors, RunError{
		FilePath:  path,
		Operation: operation,
		Error:     msg,
		Timestamp: time.Now(),
	})
}

// Apply folds the execution counters into the run report
func (e *ExecutionResult) Apply(r *RunReport) {
	r.Stats.Transcoded += e.Transcoded
	r.Stats.TranscodeFailed += e.TranscodeFailed
	r.Stats.Removed += e.Removed
	r.Stats.RemovalFailed += e.RemovalFailed
	r.Stats.Pending += e.Pending
	r.Stats.BytesArchived += e.BytesArchived
	r.Errors = append(r.Errors, e.Errors...)
}

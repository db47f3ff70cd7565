package models

import (
	"time"
)

// DefaultMinArchiveSize is the smallest archive treated as a finished encode
const DefaultMinArchiveSize int64 = 1024 * 1024

// Policy controls what a run plans and how removals are carried out
type Policy struct {
	SourceRoot string
	OutputRoot string

	// TrashRoot receives removed files. Ignored when PermanentDelete is set.
	TrashRoot       string
	PermanentDelete bool

	// AgeDays is the minimum capture age before a file is touched
	AgeDays int

	CleanupOnly    bool
	CleanOutput    bool
	SkipIfArchived bool
	DryRun         bool

	// MinArchiveSize guards against zero-byte or truncated archives left
	// by an interrupted run
	MinArchiveSize int64

	// ArchiveQuota caps the total size of archived videos, 0 = unlimited
	ArchiveQuota int64

	// ArchiveExt is the container extension of archived files
	ArchiveExt string
}

// AgeCutoff returns the age threshold as a duration
func (p *Policy) AgeCutoff() time.Duration {
	return time.Duration(p.AgeDays) * 24 * time.Hour
}

// Validate checks if the policy is usable
func (p *Policy) Validate() error {
	if p.SourceRoot == "" {
		return &ValidationError{Field: "SourceRoot", Message: "source path is required"}
	}
	if p.OutputRoot == "" {
		return &ValidationError{Field: "OutputRoot", Message: "output path is required"}
	}
	if !p.PermanentDelete && p.TrashRoot == "" {
		return &ValidationError{Field: "TrashRoot", Message: "trash root is required unless permanent delete is enabled"}
	}
	if p.AgeDays < 0 {
		return &ValidationError{Field: "AgeDays", Message: "age must not be negative"}
	}
	if p.MinArchiveSize < 0 {
		return &ValidationError{Field: "MinArchiveSize", Message: "minimum archive size must not be negative"}
	}
	if p.ArchiveQuota < 0 {
		return &ValidationError{Field: "ArchiveQuota", Message: "archive quota must not be negative"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

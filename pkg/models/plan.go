package models

import (
	"time"
)

// RemovalKind classifies why a file is removed
type RemovalKind string

const (
	// RemovalSourceTranscoded removes a source video after its archive was written
	RemovalSourceTranscoded RemovalKind = "source-after-transcode"
	// RemovalThumbnailTranscoded removes the thumbnail paired with a transcoded video
	RemovalThumbnailTranscoded RemovalKind = "thumbnail-after-transcode"
	// RemovalCleanup removes files in cleanup-only mode
	RemovalCleanup RemovalKind = "cleanup"
	// RemovalArchiveExists removes files whose archive is already present
	RemovalArchiveExists RemovalKind = "archive-exists"
	// RemovalOutputCleanup removes old archived files from the output tree
	RemovalOutputCleanup RemovalKind = "output-cleanup"
	// RemovalOrphan removes thumbnails without a video
	RemovalOrphan RemovalKind = "orphan-cleanup"
	// RemovalQuota removes the oldest archives when the output tree is over quota
	RemovalQuota RemovalKind = "archive-quota"
)

// Human readable removal reasons, written to the log and the plan display
const (
	ReasonTranscodedSource    = "Source file for transcoded archive"
	ReasonTranscodedThumbnail = "Paired with transcoded MP4"
	ReasonCleanup             = "cleanup mode enabled"
	ReasonArchiveExists       = "archive exists"
	ReasonOutputCleanup       = "output cleanup"
	ReasonOrphan              = "orphaned thumbnail"
	ReasonQuota               = "archive size limit exceeded"
)

// TranscodeAction re-encodes one source video into the output tree
type TranscodeAction struct {
	Input     string
	Output    string
	Timestamp time.Time

	// Thumbnail is removed together with Input once the transcode succeeds
	Thumbnail string
}

// CoupledRemovals returns the removals that run only after this
// transcode succeeds, in execution order
func (a TranscodeAction) CoupledRemovals() []RemovalAction {
	removals := []RemovalAction{{
		Path:   a.Input,
		Reason: ReasonTranscodedSource,
		Kind:   RemovalSourceTranscoded,
	}}
	if a.Thumbnail != "" {
		removals = append(removals, RemovalAction{
			Path:   a.Thumbnail,
			Reason: ReasonTranscodedThumbnail,
			Kind:   RemovalThumbnailTranscoded,
		})
	}
	return removals
}

// RemovalAction moves one file to the trash, or deletes it
type RemovalAction struct {
	Path   string
	Reason string
	Kind   RemovalKind
}

// ActionPlan is the ordered list of work for one run
type ActionPlan struct {
	Transcodes []TranscodeAction
	Removals   []RemovalAction
}

// NewActionPlan creates an empty plan
func NewActionPlan() *ActionPlan {
	return &ActionPlan{
		Transcodes: make([]TranscodeAction, 0),
		Removals:   make([]RemovalAction, 0),
	}
}

// IsEmpty reports whether the plan has no actions
func (p *ActionPlan) IsEmpty() bool {
	return len(p.Transcodes) == 0 && len(p.Removals) == 0
}

// CoupledRemovals lists every removal gated on a transcode
func (p *ActionPlan) CoupledRemovals() []RemovalAction {
	removals := make([]RemovalAction, 0, len(p.Transcodes)*2)
	for _, t := range p.Transcodes {
		removals = append(removals, t.CoupledRemovals()...)
	}
	return removals
}

// CountByKind counts standalone removals per kind
func (p *ActionPlan) CountByKind() map[RemovalKind]int {
	counts := make(map[RemovalKind]int)
	for _, r := range p.Removals {
		counts[r.Kind]++
	}
	return counts
}

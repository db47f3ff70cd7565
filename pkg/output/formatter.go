package output

import (
	"io"

	"github.com/sdejongh/camarchive/pkg/models"
)

// UpdateType identifies a transcode progress event
type UpdateType string

const (
	FileStart    UpdateType = "file_start"
	FileProgress UpdateType = "file_progress"
	FileComplete UpdateType = "file_complete"
	FileError    UpdateType = "file_error"
)

// ProgressUpdate is one transcode progress event. Percent is only set on
// FileProgress and stays at 0 when the input duration is unknown.
type ProgressUpdate struct {
	Type        UpdateType
	FilePath    string
	Output      string
	Percent     float64
	OutputBytes int64
	CurrentFile int
	TotalFiles  int
	Error       error
}

// Formatter receives the progress of a run and renders its report
type Formatter interface {
	// Start initializes the formatter before the first transcode
	Start(writer io.Writer, totalFiles int) error

	// Progress reports progress of the current transcode
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays summary
	Complete(report *models.RunReport) error

	// Error reports an error during the run
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

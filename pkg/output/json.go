package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sdejongh/camarchive/pkg/models"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct {
	writer io.Writer
	files  []JSONFileData
	errors []string
}

// JSONFileData represents one transcode outcome
type JSONFileData struct {
	Path        string `json:"path"`
	Output      string `json:"output,omitempty"`
	OutputBytes int64  `json:"output_bytes,omitempty"`
	Error       string `json:"error,omitempty"`
}

// JSONReportData represents the final report data
type JSONReportData struct {
	RunID      string          `json:"run_id"`
	Status     string          `json:"status"`
	DryRun     bool            `json:"dry_run"`
	Source     string          `json:"source"`
	Output     string          `json:"output"`
	Duration   string          `json:"duration"`
	DurationMs int64           `json:"duration_ms"`
	Stats      JSONStatsData   `json:"stats"`
	Files      []JSONFileData  `json:"files,omitempty"`
	Errors     []JSONErrorData `json:"errors,omitempty"`
}

// JSONStatsData represents statistics in JSON format
type JSONStatsData struct {
	Discovered JSONDiscoveredData `json:"discovered"`
	Operations JSONOperationsData `json:"operations"`
	Archive    JSONArchiveData    `json:"archive"`
}

// JSONDiscoveredData represents discovery statistics
type JSONDiscoveredData struct {
	Videos     int `json:"videos"`
	Captures   int `json:"captures"`
	TrashFiles int `json:"trash_files"`
}

// JSONOperationsData represents operations statistics
type JSONOperationsData struct {
	TranscodesPlanned int `json:"transcodes_planned"`
	RemovalsPlanned   int `json:"removals_planned"`
	Transcoded        int `json:"transcoded"`
	TranscodeFailed   int `json:"transcode_failed"`
	Removed           int `json:"removed"`
	RemovalFailed     int `json:"removal_failed"`
	Pending           int `json:"pending"`
	OrphansRemoved    int `json:"orphans_removed"`
	DirsRemoved       int `json:"dirs_removed"`
}

// JSONArchiveData represents archive statistics
type JSONArchiveData struct {
	BytesArchived int64  `json:"bytes_archived"`
	BytesStr      string `json:"bytes_archived_human,omitempty"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Path      string `json:"path"`
	Operation string `json:"operation"`
	Error     string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter writing to w, stdout when
// nil
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{
		writer: w,
		files:  make([]JSONFileData, 0),
	}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, totalFiles int) error {
	if writer != nil {
		f.writer = writer
	}
	return nil
}

// Progress records transcode outcomes for the final report.
// Nothing is written until Complete to keep the output parseable.
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	switch update.Type {
	case FileComplete:
		f.files = append(f.files, JSONFileData{
			Path:        update.FilePath,
			Output:      update.Output,
			OutputBytes: update.OutputBytes,
		})
	case FileError:
		data := JSONFileData{Path: update.FilePath, Output: update.Output}
		if update.Error != nil {
			data.Error = update.Error.Error()
		}
		f.files = append(f.files, data)
	}
	return nil
}

// Complete writes the run report as JSON
func (f *JSONFormatter) Complete(report *models.RunReport) error {
	if f.writer == nil {
		f.writer = os.Stdout
	}

	var errors []JSONErrorData
	for _, err := range report.Errors {
		errors = append(errors, JSONErrorData{
			Path:      err.FilePath,
			Operation: err.Operation,
			Error:     err.Error,
		})
	}
	for _, msg := range f.errors {
		errors = append(errors, JSONErrorData{Operation: "run", Error: msg})
	}

	s := report.Stats
	reportData := JSONReportData{
		RunID:      report.RunID,
		Status:     string(report.Status),
		DryRun:     report.DryRun,
		Source:     report.SourceRoot,
		Output:     report.OutputRoot,
		Duration:   report.Duration.Round(time.Millisecond).String(),
		DurationMs: report.Duration.Milliseconds(),
		Stats: JSONStatsData{
			Discovered: JSONDiscoveredData{
				Videos:     s.VideosDiscovered,
				Captures:   s.RecordsFound,
				TrashFiles: s.TrashFiles,
			},
			Operations: JSONOperationsData{
				TranscodesPlanned: s.TranscodesPlanned,
				RemovalsPlanned:   s.RemovalsPlanned,
				Transcoded:        s.Transcoded,
				TranscodeFailed:   s.TranscodeFailed,
				Removed:           s.Removed,
				RemovalFailed:     s.RemovalFailed,
				Pending:           s.Pending,
				OrphansRemoved:    s.OrphansRemoved,
				DirsRemoved:       s.DirsRemoved,
			},
			Archive: JSONArchiveData{
				BytesArchived: s.BytesArchived,
				BytesStr:      formatBytes(s.BytesArchived),
			},
		},
		Files:  f.files,
		Errors: errors,
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(reportData)
}

// Error records an error for the final report
func (f *JSONFormatter) Error(err error) error {
	f.errors = append(f.errors, err.Error())
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

package output

import (
	"fmt"
	"io"
	"time"

	"github.com/sdejongh/camarchive/pkg/models"
)

// HumanFormatter prints plain progress lines and the run summary. It is
// used when stdout is not a terminal or the progress bar is disabled.
type HumanFormatter struct {
	writer     io.Writer
	totalFiles int
	fileStart  time.Time
}

// NewHumanFormatter creates a new human-readable formatter writing to w.
// A writer passed to Start replaces w.
func NewHumanFormatter(w io.Writer) *HumanFormatter {
	return &HumanFormatter{writer: w}
}

func (f *HumanFormatter) Start(writer io.Writer, totalFiles int) error {
	if writer != nil {
		f.writer = writer
	}
	f.totalFiles = totalFiles

	if f.writer != nil {
		fmt.Fprintf(f.writer, "Transcoding %d files\n", totalFiles)
	}

	return nil
}

// Progress prints one line per finished step. Percentages are dropped.
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	if f.writer == nil {
		return nil
	}

	counter := fmt.Sprintf("[%d/%d]", update.CurrentFile, f.totalFiles)
	switch update.Type {
	case FileStart:
		f.fileStart = time.Now()
		fmt.Fprintf(f.writer, "%s Transcoding %s...\n", counter, update.FilePath)
	case FileComplete:
		fmt.Fprintf(f.writer, "%s ✓ %s (%s, %s)\n", counter, update.FilePath,
			formatBytes(update.OutputBytes), formatDuration(time.Since(f.fileStart)))
	case FileError:
		fmt.Fprintf(f.writer, "%s ✗ %s: %v\n", counter, update.FilePath, update.Error)
	}
	return nil
}

// Complete finalizes output and displays summary
func (f *HumanFormatter) Complete(report *models.RunReport) error {
	if f.writer == nil {
		f.writer = io.Discard
	}
	writeSummary(f.writer, report)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

func (f *HumanFormatter) Name() string {
	return "human"
}

// writeSummary prints the end-of-run summary shared by the text formatters
func writeSummary(w io.Writer, report *models.RunReport) {
	title := "Archive run"
	if report.DryRun {
		title = "Dry run"
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s completed in %s\n", title, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Discovered:\n")
	fmt.Fprintf(w, "    Videos:         %d\n", report.Stats.VideosDiscovered)
	fmt.Fprintf(w, "    Captures:       %d\n", report.Stats.RecordsFound)
	fmt.Fprintf(w, "    In trash:       %d\n", report.Stats.TrashFiles)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Operations:\n")
	fmt.Fprintf(w, "    Transcoded:         %d\n", report.Stats.Transcoded)
	fmt.Fprintf(w, "    Transcode failures: %d\n", report.Stats.TranscodeFailed)
	fmt.Fprintf(w, "    Files removed:      %d\n", report.Stats.Removed)
	fmt.Fprintf(w, "    Removal failures:   %d\n", report.Stats.RemovalFailed)
	if report.Stats.Pending > 0 {
		fmt.Fprintf(w, "    Not attempted:      %d\n", report.Stats.Pending)
	}
	fmt.Fprintf(w, "    Orphans removed:    %d\n", report.Stats.OrphansRemoved)
	fmt.Fprintf(w, "    Dirs removed:       %d\n", report.Stats.DirsRemoved)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Archive:\n")
	fmt.Fprintf(w, "    Data written:   %s\n", formatBytes(report.Stats.BytesArchived))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", report.Status)

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, err := range report.Errors {
			fmt.Fprintf(w, "  %s (%s): %s\n", err.FilePath, err.Operation, err.Error)
		}
	}
}

// formatBytes renders a size with binary units
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

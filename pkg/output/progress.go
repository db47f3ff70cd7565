package output

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/sdejongh/camarchive/pkg/models"
)

// Bar layout: "[2/10] name.mp4 [=====>----] 42.00% 1m3s"
const barTemplate pb.ProgressBarTemplate = `{{string . "prefix"}} {{bar . "[" "=" ">" "-" "]"}} {{percent . }} {{string . "elapsed"}}`

// maxNameLen caps the file name shown in the bar prefix
const maxNameLen = 40

// ProgressFormatter draws a progress bar for the current transcode on the
// console status line and prints one line per finished file above it
type ProgressFormatter struct {
	console *Console

	mu          sync.Mutex
	bar         *pb.ProgressBar
	totalFiles  int
	currentFile int
	fileStart   time.Time
	startTime   time.Time
}

// NewProgressFormatter creates a progress bar formatter drawing on console
func NewProgressFormatter(console *Console) *ProgressFormatter {
	return &ProgressFormatter{console: console}
}

// Start initializes the formatter
func (f *ProgressFormatter) Start(writer io.Writer, totalFiles int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.console == nil {
		f.console = NewConsole(writer)
	}

	f.totalFiles = totalFiles
	f.startTime = time.Now()

	f.bar = barTemplate.New(100)
	f.bar.SetWidth(f.console.Width())

	fmt.Fprintf(f.console, "Transcoding %d files\n", totalFiles)
	return nil
}

// Progress reports progress of the current transcode
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar == nil {
		return nil
	}

	switch update.Type {
	case FileStart:
		f.currentFile = update.CurrentFile
		f.fileStart = time.Now()
		f.bar.SetCurrent(0)
		f.bar.Set("prefix", fmt.Sprintf("[%d/%d] %s", update.CurrentFile, f.totalFiles, shortName(update.FilePath)))
		f.render()

	case FileProgress:
		f.bar.SetCurrent(int64(update.Percent))
		f.render()

	case FileComplete:
		f.console.ClearStatus()
		fmt.Fprintf(f.console, "[%d/%d] ✓ %s (%s, %s)\n",
			update.CurrentFile, f.totalFiles,
			update.FilePath,
			formatBytes(update.OutputBytes),
			formatDuration(time.Since(f.fileStart)))

	case FileError:
		f.console.ClearStatus()
		fmt.Fprintf(f.console, "[%d/%d] ✗ %s: %v\n",
			update.CurrentFile, f.totalFiles,
			update.FilePath, update.Error)
	}

	return nil
}

func (f *ProgressFormatter) render() {
	f.bar.Set("elapsed", formatDuration(time.Since(f.fileStart)))
	f.console.SetStatus(f.bar.String())
}

// Complete finalizes output and displays summary
func (f *ProgressFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.console == nil {
		f.console = NewConsole(nil)
	}
	f.console.ClearStatus()
	writeSummary(f.console, report)
	return nil
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.console != nil {
		f.console.ClearStatus()
		fmt.Fprintf(f.console, "\n❌ Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}

func shortName(path string) string {
	name := filepath.Base(path)
	runes := []rune(name)
	if len(runes) > maxNameLen {
		return "..." + string(runes[len(runes)-maxNameLen+3:])
	}
	return name
}

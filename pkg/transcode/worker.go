package transcode

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sdejongh/camarchive/pkg/cancel"
	"github.com/sdejongh/camarchive/pkg/logging"
)

// stderrTailSize is how much encoder stderr is kept for error reports
const stderrTailSize = 4096

// Worker runs one encode at a time
type Worker struct {
	settings Settings
	token    *cancel.Token
	logger   logging.Logger

	command  func(ctx context.Context, name string, args ...string) *exec.Cmd
	lookPath func(file string) (string, error)
	probe    func(ctx context.Context, input string) (time.Duration, error)
}

// NewWorker creates a worker. A nil token never requests exit.
func NewWorker(settings Settings, token *cancel.Token, logger logging.Logger) *Worker {
	if token == nil {
		token = cancel.New()
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	w := &Worker{
		settings: settings,
		token:    token,
		logger:   logger,
		command:  exec.CommandContext,
		lookPath: exec.LookPath,
	}
	w.probe = w.probeDuration
	return w
}

// Transcode encodes input into output, calling progress with a percentage
// whenever the input duration is known. It reports whether a non-empty
// output was produced; failures are logged, never returned.
func (w *Worker) Transcode(ctx context.Context, input, output string, progress func(float64), dryRun bool) bool {
	fields := logging.Fields{"input": input, "output": output}

	if dryRun {
		w.logger.Info(ctx, "[DRY RUN] Would transcode", fields)
		return true
	}

	if w.token.ShouldExit() {
		return false
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		w.logger.Error(ctx, "Failed to create output directory", err, fields)
		return false
	}

	duration, err := w.probe(ctx, input)
	if err != nil {
		w.logger.Debug(ctx, "Duration unknown, progress disabled", logging.Fields{
			"input": input,
			"error": err.Error(),
		})
		duration = 0
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	cmd := w.command(runCtx, w.settings.FFmpegPath, w.settings.Args(input, output)...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = w.settings.TerminateTimeout

	stderr := &tailBuffer{max: stderrTailSize}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		w.logger.Error(ctx, "Failed to open encoder output", err, fields)
		return false
	}

	w.logger.Info(ctx, "Transcoding", fields)

	if err := cmd.Start(); err != nil {
		w.logger.Error(ctx, "Failed to start encoder", err, fields)
		return false
	}

	// Stop a silent encoder as soon as exit is requested
	go func() {
		select {
		case <-w.token.Done():
			stop()
		case <-runCtx.Done():
		}
	}()

	tracker := NewTracker(duration)
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if w.token.ShouldExit() {
			stop()
			break
		}

		elapsed, ok := ParseElapsed(scanner.Text())
		if !ok {
			continue
		}
		if pct, ok := tracker.Update(elapsed); ok && progress != nil {
			progress(pct)
		}
	}

	// A stalled reader would leave the encoder blocked on a full pipe
	scanErr := scanner.Err()
	if scanErr != nil {
		w.logger.Error(ctx, "Failed to read encoder output", scanErr, fields)
		stop()
	}

	waitErr := cmd.Wait()

	if w.token.ShouldExit() || ctx.Err() != nil {
		w.logger.Warn(ctx, "Transcode interrupted", fields)
		return false
	}

	if scanErr != nil {
		return false
	}
	if waitErr != nil {
		w.logger.Error(ctx, "Encoder failed", waitErr, logging.Fields{
			"input":  input,
			"output": output,
			"stderr": stderr.String(),
		})
		return false
	}

	info, err := os.Stat(output)
	if err != nil {
		w.logger.Error(ctx, "Encoder produced no output", err, fields)
		return false
	}
	if info.Size() == 0 {
		w.logger.Error(ctx, "Encoder produced an empty output", fmt.Errorf("%s is 0 bytes", output), fields)
		return false
	}

	w.logger.Info(ctx, "Transcode complete", logging.Fields{
		"input":  input,
		"output": output,
		"size":   info.Size(),
	})
	return true
}

// tailBuffer keeps the last max bytes written to it
type tailBuffer struct {
	max int
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}

// Package executor carries out an action plan: transcodes first, each
// followed by the removal of its source files, then standalone removals.
package executor

import (
	"context"
	"errors"
	"io"

	"github.com/sdejongh/camarchive/pkg/cancel"
	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/models"
	"github.com/sdejongh/camarchive/pkg/output"
	"github.com/sdejongh/camarchive/pkg/storage"
)

// Operation names used in run errors
const (
	OpTranscode = "transcode"
	OpRemove    = "remove"
)

var (
	errTranscodeFailed  = errors.New("transcode failed")
	errTranscodeStopped = errors.New("transcode interrupted")
)

// Transcoder encodes one video. It reports success instead of returning
// an error; failures are logged by the implementation.
type Transcoder interface {
	Transcode(ctx context.Context, input, output string, progress func(float64), dryRun bool) bool
}

// Remover removes one planned file
type Remover interface {
	RemoveAction(ctx context.Context, action models.RemovalAction) bool
}

// Options configures an executor
type Options struct {
	DryRun bool

	// Writer is handed to the formatter
	Writer io.Writer
}

// Executor runs plans
type Executor struct {
	transcoder Transcoder
	remover    Remover
	backend    storage.Backend
	token      *cancel.Token
	formatter  output.Formatter
	logger     logging.Logger
	opts       Options
}

// New creates an executor. formatter may be nil.
func New(
	transcoder Transcoder,
	remover Remover,
	backend storage.Backend,
	token *cancel.Token,
	formatter output.Formatter,
	logger logging.Logger,
	opts Options,
) *Executor {
	if token == nil {
		token = cancel.New()
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Executor{
		transcoder: transcoder,
		remover:    remover,
		backend:    backend,
		token:      token,
		formatter:  formatter,
		logger:     logger,
		opts:       opts,
	}
}

// Execute runs plan. Per-action failures are recorded in the result; an
// error is only returned when the plan cannot be run at all.
func (e *Executor) Execute(ctx context.Context, plan *models.ActionPlan) (*models.ExecutionResult, error) {
	if plan == nil {
		return nil, errors.New("no plan to execute")
	}

	result := models.NewExecutionResult()
	total := len(plan.Transcodes)

	if total > 0 && e.formatter != nil {
		e.formatter.Start(e.opts.Writer, total)
	}

	for i, action := range plan.Transcodes {
		if e.stopRequested(ctx) {
			result.Cancelled = true
			result.Pending += total - i + len(plan.Removals)
			e.logger.Warn(ctx, "Exit requested, remaining actions left for the next run", logging.Fields{
				"transcodes": total - i,
				"removals":   len(plan.Removals),
			})
			return result, nil
		}

		e.transcode(ctx, i+1, total, action, result)
	}

	for i, removal := range plan.Removals {
		if e.stopRequested(ctx) {
			result.Cancelled = true
			result.Pending += len(plan.Removals) - i
			e.logger.Warn(ctx, "Exit requested, remaining removals left for the next run", logging.Fields{
				"removals": len(plan.Removals) - i,
			})
			return result, nil
		}

		e.remove(ctx, removal, result)
	}

	return result, nil
}

func (e *Executor) stopRequested(ctx context.Context) bool {
	return e.token.ShouldExit() || ctx.Err() != nil
}

// transcode runs one transcode and, when it succeeds, its coupled removals
func (e *Executor) transcode(ctx context.Context, index, total int, action models.TranscodeAction, result *models.ExecutionResult) {
	e.progress(output.ProgressUpdate{
		Type:        output.FileStart,
		FilePath:    action.Input,
		Output:      action.Output,
		CurrentFile: index,
		TotalFiles:  total,
	})

	onProgress := func(pct float64) {
		if e.token.ShouldExit() {
			return
		}
		e.progress(output.ProgressUpdate{
			Type:        output.FileProgress,
			FilePath:    action.Input,
			Output:      action.Output,
			Percent:     pct,
			CurrentFile: index,
			TotalFiles:  total,
		})
	}

	if !e.transcoder.Transcode(ctx, action.Input, action.Output, onProgress, e.opts.DryRun) {
		err := errTranscodeFailed
		if e.stopRequested(ctx) {
			// Interrupted work is retried next run, not reported as a failure
			err = errTranscodeStopped
			result.Cancelled = true
			result.Pending++
		} else {
			result.TranscodeFailed++
			result.AddError(action.Input, OpTranscode, err.Error())
		}

		e.progress(output.ProgressUpdate{
			Type:        output.FileError,
			FilePath:    action.Input,
			Output:      action.Output,
			CurrentFile: index,
			TotalFiles:  total,
			Error:       err,
		})
		return
	}

	result.Transcoded++

	var size int64
	if !e.opts.DryRun {
		if info, err := e.backend.Stat(ctx, action.Output); err == nil {
			size = info.Size
			result.BytesArchived += size
		}
	}

	e.progress(output.ProgressUpdate{
		Type:        output.FileComplete,
		FilePath:    action.Input,
		Output:      action.Output,
		OutputBytes: size,
		CurrentFile: index,
		TotalFiles:  total,
	})

	for _, removal := range action.CoupledRemovals() {
		e.remove(ctx, removal, result)
	}
}

func (e *Executor) remove(ctx context.Context, removal models.RemovalAction, result *models.ExecutionResult) {
	if e.remover.RemoveAction(ctx, removal) {
		result.Removed++
		return
	}
	result.RemovalFailed++
	result.AddError(removal.Path, OpRemove, "removal failed: "+removal.Reason)
}

func (e *Executor) progress(update output.ProgressUpdate) {
	if e.formatter != nil {
		e.formatter.Progress(update)
	}
}

// Package archive runs one archiving pass over a camera directory:
// discovery, planning, confirmation, execution, quota and sweep.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sdejongh/camarchive/pkg/cancel"
	"github.com/sdejongh/camarchive/pkg/discovery"
	"github.com/sdejongh/camarchive/pkg/executor"
	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/models"
	"github.com/sdejongh/camarchive/pkg/output"
	"github.com/sdejongh/camarchive/pkg/planner"
	"github.com/sdejongh/camarchive/pkg/storage"
	"github.com/sdejongh/camarchive/pkg/sweep"
)

// ErrSourceMissing is returned when the source root is absent or not a
// directory
var ErrSourceMissing = errors.New("source directory does not exist")

// Remover removes one planned file. The trash relocator is the usual
// implementation.
type Remover interface {
	RemoveAction(ctx context.Context, action models.RemovalAction) bool
}

// Confirmer asks the operator whether a plan may be executed
type Confirmer interface {
	Confirm(ctx context.Context, plan *models.ActionPlan) bool
}

// Options configures a run
type Options struct {
	RunID string

	// Confirm asks the Confirmer before executing. Ignored in dry run.
	Confirm bool

	// PlanWriter receives the plan display, nil disables it
	PlanWriter io.Writer
	PlanFormat string
	PlanLimit  int

	// Writer is handed to the formatter
	Writer io.Writer
}

// Engine orchestrates an archiving run
type Engine struct {
	policy     *models.Policy
	backend    storage.Backend
	transcoder executor.Transcoder
	remover    Remover
	token      *cancel.Token
	formatter  output.Formatter
	confirmer  Confirmer
	logger     logging.Logger
	opts       Options

	discoverer *discovery.Discoverer
	planner    *planner.Planner
}

// NewEngine creates a new archiving engine. formatter and confirmer may
// be nil.
func NewEngine(
	policy *models.Policy,
	backend storage.Backend,
	transcoder executor.Transcoder,
	remover Remover,
	token *cancel.Token,
	formatter output.Formatter,
	confirmer Confirmer,
	logger logging.Logger,
	opts Options,
) *Engine {
	if token == nil {
		token = cancel.New()
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if opts.PlanLimit == 0 {
		opts.PlanLimit = output.DefaultPlanLimit
	}
	return &Engine{
		policy:     policy,
		backend:    backend,
		transcoder: transcoder,
		remover:    remover,
		token:      token,
		formatter:  formatter,
		confirmer:  confirmer,
		logger:     logger,
		opts:       opts,
		discoverer: discovery.New(backend, logger),
		planner:    planner.New(policy, backend, logger),
	}
}

// Plan discovers the source tree and builds the action plan without
// touching anything
func (e *Engine) Plan(ctx context.Context) (*models.Inventory, *models.ActionPlan, error) {
	if err := e.checkSource(ctx); err != nil {
		return nil, nil, err
	}
	return e.discoverAndPlan(ctx)
}

func (e *Engine) discoverAndPlan(ctx context.Context) (*models.Inventory, *models.ActionPlan, error) {
	inv, err := e.discoverer.Discover(ctx, e.discoveryOptions())
	if err != nil {
		return nil, nil, err
	}

	return inv, e.planner.Plan(ctx, inv), nil
}

// Run executes the archiving pass. An error is returned only when the run
// could not be carried out at all; per-file failures end up in the report.
func (e *Engine) Run(ctx context.Context) (*models.RunReport, error) {
	report := models.NewRunReport(e.opts.RunID, e.policy)
	logger := e.logger.WithFields(logging.Fields{"run_id": e.opts.RunID})

	if err := e.policy.Validate(); err != nil {
		return e.fail(report, fmt.Errorf("invalid policy: %w", err))
	}

	if err := e.checkSource(ctx); err != nil {
		logger.Error(ctx, "Source directory unavailable", err, nil)
		return e.fail(report, err)
	}

	e.logHeader(ctx, logger)

	inv, plan, err := e.discoverAndPlan(ctx)
	if err != nil {
		logger.Error(ctx, "Discovery failed", err, nil)
		return e.fail(report, err)
	}

	report.Stats.VideosDiscovered = len(inv.Videos)
	report.Stats.RecordsFound = len(inv.Records)
	report.Stats.TrashFiles = len(inv.TrashPaths)

	if inv.IsEmpty() {
		logger.Info(ctx, "No files to process", nil)
		e.sweep(ctx, logger, report, inv.Records)
		return e.complete(report, e.stopRequested(ctx)), nil
	}

	report.Stats.TranscodesPlanned = len(plan.Transcodes)
	report.Stats.RemovalsPlanned = len(plan.Removals) + len(plan.CoupledRemovals())

	if e.opts.PlanWriter != nil {
		if err := output.WritePlan(e.opts.PlanWriter, plan, e.planOptions()); err != nil {
			logger.Warn(ctx, "Failed to display plan", logging.Fields{"error": err.Error()})
		}
	}

	if !e.confirmed(ctx, plan) {
		logger.Info(ctx, "Operation cancelled by user", nil)
		return e.complete(report, true), nil
	}

	runner := executor.New(e.transcoder, e.remover, e.backend, e.token, e.formatter, logger, executor.Options{
		DryRun: e.policy.DryRun,
		Writer: e.opts.Writer,
	})
	result, err := runner.Execute(ctx, plan)
	if err != nil {
		return e.fail(report, err)
	}
	result.Apply(report)

	if e.policy.DryRun {
		logger.Info(ctx, "Dry run completed - no transcoding or removals performed", nil)
	}

	e.enforceQuota(ctx, logger, report)

	e.sweep(ctx, logger, report, inv.Records)

	cancelled := result.Cancelled || e.stopRequested(ctx)
	if !cancelled {
		logger.Info(ctx, "Archiving completed successfully", logging.Fields{
			"transcoded": report.Stats.Transcoded,
			"removed":    report.Stats.Removed,
			"failed":     report.Stats.TranscodeFailed + report.Stats.RemovalFailed,
		})
	}

	return e.complete(report, cancelled), nil
}

// sweep removes orphaned thumbnails and empty directories. It runs after
// every run that was not interrupted, whatever the plan held.
func (e *Engine) sweep(ctx context.Context, logger logging.Logger, report *models.RunReport, records map[string]*models.CaptureRecord) {
	logger.Info(ctx, "Cleaning up files", nil)
	swept := sweep.New(e.backend, e.remover, e.token, logger, sweep.Options{
		SourceRoot: e.policy.SourceRoot,
		OutputRoot: e.policy.OutputRoot,
		TrashRoot:  e.policy.TrashRoot,
		DryRun:     e.policy.DryRun,
	}).Sweep(ctx, records)
	report.Stats.OrphansRemoved = swept.OrphansRemoved
	report.Stats.DirsRemoved = len(swept.DirsRemoved)
	if swept.OrphansFailed > 0 {
		report.AddError(e.policy.SourceRoot, executor.OpRemove,
			fmt.Errorf("%d orphaned thumbnails could not be removed", swept.OrphansFailed))
	}
}

// enforceQuota trims the oldest archives once the output tree exceeds the
// configured size
func (e *Engine) enforceQuota(ctx context.Context, logger logging.Logger, report *models.RunReport) {
	if e.policy.ArchiveQuota <= 0 || e.stopRequested(ctx) {
		return
	}

	entries, err := e.discoverer.ScanArchive(ctx, e.discoveryOptions())
	if err != nil {
		logger.Warn(ctx, "Failed to scan archive for size limit", logging.Fields{"error": err.Error()})
		return
	}

	removals := e.planner.PlanQuota(ctx, entries)
	report.Stats.RemovalsPlanned += len(removals)

	for i, removal := range removals {
		if e.stopRequested(ctx) {
			report.Stats.Pending += len(removals) - i
			return
		}
		if e.remover.RemoveAction(ctx, removal) {
			report.Stats.Removed++
			continue
		}
		report.Stats.RemovalFailed++
		report.AddError(removal.Path, executor.OpRemove, errors.New("removal failed: "+removal.Reason))
	}
}

func (e *Engine) confirmed(ctx context.Context, plan *models.ActionPlan) bool {
	if e.token.ShouldExit() {
		return false
	}
	if !e.opts.Confirm || e.policy.DryRun || e.confirmer == nil || plan.IsEmpty() {
		return true
	}
	return e.confirmer.Confirm(ctx, plan) && !e.token.ShouldExit()
}

func (e *Engine) checkSource(ctx context.Context) error {
	info, err := e.backend.Stat(ctx, e.policy.SourceRoot)
	if err != nil || !info.IsDir {
		return fmt.Errorf("%w: %s", ErrSourceMissing, e.policy.SourceRoot)
	}
	return nil
}

func (e *Engine) stopRequested(ctx context.Context) bool {
	return e.token.ShouldExit() || ctx.Err() != nil
}

func (e *Engine) logHeader(ctx context.Context, logger logging.Logger) {
	removal := "trash"
	if e.policy.PermanentDelete {
		removal = "permanent"
	}
	logger.Info(ctx, "Starting archive run", logging.Fields{
		"source":           e.policy.SourceRoot,
		"output":           e.policy.OutputRoot,
		"trash":            e.policy.TrashRoot,
		"removal":          removal,
		"age_days":         e.policy.AgeDays,
		"dry_run":          e.policy.DryRun,
		"cleanup_only":     e.policy.CleanupOnly,
		"clean_output":     e.policy.CleanOutput,
		"skip_if_archived": e.policy.SkipIfArchived,
		"archive_quota":    e.policy.ArchiveQuota,
	})
}

func (e *Engine) discoveryOptions() discovery.Options {
	trashRoot := e.policy.TrashRoot
	if e.policy.PermanentDelete {
		trashRoot = ""
	}
	return discovery.Options{
		SourceRoot:  e.policy.SourceRoot,
		TrashRoot:   trashRoot,
		OutputRoot:  e.policy.OutputRoot,
		CleanOutput: e.policy.CleanupOnly && e.policy.CleanOutput,
		ArchiveExt:  e.policy.ArchiveExt,
	}
}

func (e *Engine) planOptions() output.PlanOptions {
	return output.PlanOptions{
		Format:      e.opts.PlanFormat,
		Limit:       e.opts.PlanLimit,
		SourceRoot:  e.policy.SourceRoot,
		OutputRoot:  e.policy.OutputRoot,
		CleanupOnly: e.policy.CleanupOnly,
		DryRun:      e.policy.DryRun,
	}
}

func (e *Engine) complete(report *models.RunReport, cancelled bool) *models.RunReport {
	report.Finish(cancelled)
	if e.formatter != nil {
		e.formatter.Complete(report)
	}
	return report
}

func (e *Engine) fail(report *models.RunReport, err error) (*models.RunReport, error) {
	report.Status = models.StatusFailed
	report.Finish(false)
	if e.formatter != nil {
		e.formatter.Error(err)
		e.formatter.Complete(report)
	}
	return report, err
}

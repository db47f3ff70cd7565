// Package sweep removes orphaned thumbnails and prunes the empty
// directories a run leaves behind.
package sweep

import (
	"context"
	"path/filepath"

	"github.com/sdejongh/camarchive/internal/platform"
	"github.com/sdejongh/camarchive/pkg/cancel"
	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/models"
	"github.com/sdejongh/camarchive/pkg/storage"
)

// Remover removes one file
type Remover interface {
	RemoveAction(ctx context.Context, action models.RemovalAction) bool
}

// Options names the protected roots
type Options struct {
	SourceRoot string
	OutputRoot string
	TrashRoot  string
	DryRun     bool
}

// Result counts what a sweep did
type Result struct {
	// Skipped is set when exit was requested before the sweep began
	Skipped bool

	OrphansRemoved int
	OrphansFailed  int
	DirsRemoved    []string
}

// Sweeper runs the end-of-run cleanup
type Sweeper struct {
	backend storage.Backend
	remover Remover
	token   *cancel.Token
	logger  logging.Logger
	opts    Options
}

// New creates a sweeper
func New(backend storage.Backend, remover Remover, token *cancel.Token, logger logging.Logger, opts Options) *Sweeper {
	if token == nil {
		token = cancel.New()
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Sweeper{
		backend: backend,
		remover: remover,
		token:   token,
		logger:  logger,
		opts:    opts,
	}
}

// Sweep removes every orphaned thumbnail in records, then prunes empty
// directories below the source and output roots. Nothing is done when exit
// was already requested.
func (s *Sweeper) Sweep(ctx context.Context, records map[string]*models.CaptureRecord) Result {
	var result Result

	if s.token.ShouldExit() || ctx.Err() != nil {
		s.logger.Info(ctx, "Exit requested, skipping cleanup", nil)
		result.Skipped = true
		return result
	}

	for _, rec := range models.Orphans(records) {
		action := models.RemovalAction{
			Path:   rec.Thumbnail,
			Reason: models.ReasonOrphan,
			Kind:   models.RemovalOrphan,
		}
		if s.remover.RemoveAction(ctx, action) {
			result.OrphansRemoved++
		} else {
			result.OrphansFailed++
		}
	}

	if s.opts.DryRun {
		s.logger.Info(ctx, "[DRY RUN] Would remove empty directories", logging.Fields{
			"root": s.opts.SourceRoot,
		})
		return result
	}

	result.DirsRemoved = append(result.DirsRemoved, s.prune(ctx, s.opts.SourceRoot)...)
	if s.opts.OutputRoot != "" && !s.sameAsSource(s.opts.OutputRoot) {
		result.DirsRemoved = append(result.DirsRemoved, s.prune(ctx, s.opts.OutputRoot)...)
	}

	return result
}

func (s *Sweeper) prune(ctx context.Context, root string) []string {
	if exists, err := s.backend.Exists(ctx, root); err != nil || !exists {
		return nil
	}

	removed, err := s.backend.RemoveEmptyDirs(ctx, root, s.protected)
	if err != nil {
		s.logger.Warn(ctx, "Failed to remove empty directories", logging.Fields{
			"root":  root,
			"error": err.Error(),
		})
	}
	for _, dir := range removed {
		s.logger.Debug(ctx, "Removed empty directory", logging.Fields{"path": dir})
	}
	return removed
}

// protected reports whether dir and its subtree must survive pruning.
// The output root is pruned on its own pass so its children are not
// protected from that pass.
func (s *Sweeper) protected(dir string) bool {
	if s.opts.TrashRoot != "" && platform.IsWithin(s.opts.TrashRoot, dir) {
		return true
	}
	return s.opts.OutputRoot != "" && filepath.Clean(dir) == filepath.Clean(s.opts.OutputRoot)
}

func (s *Sweeper) sameAsSource(path string) bool {
	return filepath.Clean(path) == filepath.Clean(s.opts.SourceRoot)
}

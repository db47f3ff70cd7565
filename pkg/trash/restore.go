package trash

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sdejongh/camarchive/pkg/journal"
	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/storage"
)

// Store is the part of the journal used to undo trash moves
type Store interface {
	List(ctx context.Context, filter journal.Filter) ([]journal.Entry, error)
	MarkRestored(ctx context.Context, id int64) error
}

// RestoreResult counts what a restore did
type RestoreResult struct {
	Restored int
	Skipped  int
	Failed   int
}

// Restorer moves journaled files back to where they came from
type Restorer struct {
	backend storage.Backend
	store   Store
	logger  logging.Logger
}

// NewRestorer creates a restorer
func NewRestorer(backend storage.Backend, store Store, logger logging.Logger) *Restorer {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Restorer{backend: backend, store: store, logger: logger}
}

// Restore moves every pending entry matching filter back to its original
// path. An existing original is never overwritten.
func (r *Restorer) Restore(ctx context.Context, filter journal.Filter, dryRun bool) (*RestoreResult, error) {
	filter.Pending = true
	entries, err := r.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list trash journal: %w", err)
	}

	result := &RestoreResult{}
	for _, e := range entries {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		fields := logging.Fields{
			"id":       e.ID,
			"original": e.OriginalPath,
			"trash":    e.TrashPath,
		}

		if exists, err := r.backend.Exists(ctx, e.OriginalPath); err != nil || exists {
			r.logger.Warn(ctx, "Original path is occupied, not restoring", fields)
			result.Skipped++
			continue
		}

		if exists, err := r.backend.Exists(ctx, e.TrashPath); err != nil || !exists {
			r.logger.Warn(ctx, "Trashed file is missing", fields)
			result.Failed++
			continue
		}

		if dryRun {
			r.logger.Info(ctx, "[DRY RUN] Would restore", fields)
			result.Restored++
			continue
		}

		if err := r.backend.MkdirAll(ctx, filepath.Dir(e.OriginalPath)); err != nil {
			r.logger.Error(ctx, "Failed to recreate original directory", err, fields)
			result.Failed++
			continue
		}
		if err := r.backend.Move(ctx, e.TrashPath, e.OriginalPath); err != nil {
			r.logger.Error(ctx, "Failed to restore file", err, fields)
			result.Failed++
			continue
		}
		if err := r.store.MarkRestored(ctx, e.ID); err != nil {
			r.logger.Error(ctx, "Restored file but failed to update journal", err, fields)
		}

		r.logger.Info(ctx, "Restored", fields)
		result.Restored++
	}

	return result, nil
}

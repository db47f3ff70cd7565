// Package trash moves removed files into a recoverable trash tree that
// mirrors their original location.
package trash

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/sdejongh/camarchive/internal/platform"
	"github.com/sdejongh/camarchive/pkg/journal"
	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/models"
	"github.com/sdejongh/camarchive/pkg/storage"
)

// Top-level trash subtrees
const (
	InputDir  = "input"
	OutputDir = "output"
)

// Recorder stores trash moves
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (int64, error)
}

// Options configures a relocator
type Options struct {
	SourceRoot string
	OutputRoot string
	TrashRoot  string

	PermanentDelete bool
	DryRun          bool

	// RunID tags journal entries
	RunID string
}

// Relocator removes files by moving them under the trash root, or by
// deleting them when permanent delete is enabled
type Relocator struct {
	backend storage.Backend
	logger  logging.Logger
	opts    Options
	journal Recorder
	now     func() time.Time
}

// New creates a relocator
func New(backend storage.Backend, logger logging.Logger, opts Options) *Relocator {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Relocator{
		backend: backend,
		logger:  logger,
		opts:    opts,
		now:     time.Now,
	}
}

// SetJournal records every successful trash move in rec
func (r *Relocator) SetJournal(rec Recorder) {
	r.journal = rec
}

// Remove removes path and reports whether it is gone (or would be, in a
// dry run). Failures are logged and leave the file in place.
func (r *Relocator) Remove(ctx context.Context, path, reason string) bool {
	return r.remove(ctx, path, reason, "")
}

// RemoveAction removes the file named by a planned removal
func (r *Relocator) RemoveAction(ctx context.Context, action models.RemovalAction) bool {
	return r.remove(ctx, action.Path, action.Reason, string(action.Kind))
}

func (r *Relocator) remove(ctx context.Context, path, reason, kind string) bool {
	fields := logging.Fields{"path": path, "reason": reason}

	if r.opts.DryRun {
		if r.opts.PermanentDelete {
			r.logger.Info(ctx, "[DRY RUN] Would delete", fields)
		} else {
			r.logger.Info(ctx, "[DRY RUN] Would move to trash", fields)
		}
		return true
	}

	info, err := r.backend.Stat(ctx, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn(ctx, "File to remove does not exist", fields)
		} else {
			r.logger.Error(ctx, "Failed to stat file to remove", err, fields)
		}
		return false
	}

	if !info.IsRegular && !info.IsDir {
		r.logger.Warn(ctx, "Not a regular file, leaving in place", fields)
		return false
	}

	if r.opts.PermanentDelete {
		if err := r.backend.Delete(ctx, path); err != nil {
			r.logger.Error(ctx, "Failed to delete file", err, fields)
			return false
		}
		r.logger.Info(ctx, "Deleted", fields)
		return true
	}

	dest, err := r.freeDestination(ctx, r.Destination(path))
	if err != nil {
		r.logger.Error(ctx, "Failed to choose trash destination", err, fields)
		return false
	}

	if err := r.backend.MkdirAll(ctx, filepath.Dir(dest)); err != nil {
		r.logger.Error(ctx, "Failed to create trash directory", err, fields)
		return false
	}

	if err := r.backend.Move(ctx, path, dest); err != nil {
		r.logger.Error(ctx, "Failed to move file to trash", err, fields)
		return false
	}

	r.logger.Info(ctx, "Moved to trash", logging.Fields{
		"path":   path,
		"trash":  dest,
		"reason": reason,
	})

	if r.journal != nil {
		_, err := r.journal.Record(ctx, journal.Entry{
			RunID:        r.opts.RunID,
			OriginalPath: path,
			TrashPath:    dest,
			Reason:       reason,
			Kind:         kind,
			MovedAt:      r.now(),
		})
		if err != nil {
			r.logger.Warn(ctx, "Failed to record trash move in journal", logging.Fields{
				"path":  path,
				"error": err.Error(),
			})
		}
	}

	return true
}

// Destination computes where path goes inside the trash root, before
// collision handling
func (r *Relocator) Destination(path string) string {
	sub := InputDir
	rel, ok := "", false

	if r.opts.OutputRoot != "" {
		if rel, ok = platform.RelWithin(r.opts.OutputRoot, path); ok {
			sub = OutputDir
		}
	}
	if !ok && r.opts.SourceRoot != "" {
		rel, ok = platform.RelWithin(r.opts.SourceRoot, path)
	}
	if !ok {
		rel = filepath.Base(path)
	}

	rel = r.stripTrashPrefix(rel)
	return filepath.Join(r.opts.TrashRoot, sub, rel)
}

// stripTrashPrefix drops a leading <trash>/input or <trash>/output
// segment left by an earlier run
func (r *Relocator) stripTrashPrefix(rel string) string {
	parts := platform.Components(rel)
	if len(parts) < 3 {
		return rel
	}
	if parts[0] != filepath.Base(r.opts.TrashRoot) {
		return rel
	}
	if parts[1] != InputDir && parts[1] != OutputDir {
		return rel
	}
	return filepath.Join(parts[2:]...)
}

// freeDestination returns dest, or dest with a _<epoch>_<n> suffix on
// the stem when dest is already taken
func (r *Relocator) freeDestination(ctx context.Context, dest string) (string, error) {
	exists, err := r.backend.Exists(ctx, dest)
	if err != nil {
		return "", err
	}
	if !exists {
		return dest, nil
	}

	dir := filepath.Dir(dest)
	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(filepath.Base(dest), ext)
	epoch := r.now().Unix()

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d_%d%s", stem, epoch, n, ext))
		exists, err := r.backend.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

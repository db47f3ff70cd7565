// Package discovery walks a camera directory tree and builds the
// inventory of capture files the planner works from.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/sdejongh/camarchive/internal/platform"
	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/models"
	"github.com/sdejongh/camarchive/pkg/storage"
	"github.com/sdejongh/camarchive/pkg/timestamp"
)

// Options selects the trees to scan
type Options struct {
	SourceRoot string
	TrashRoot  string
	OutputRoot string

	// CleanOutput also scans the output tree for archived files
	CleanOutput bool

	// ArchiveExt is the extension of archived videos, ".mp4" when empty
	ArchiveExt string
}

func (o Options) archiveExt() string {
	if o.ArchiveExt == "" {
		return models.ExtVideo
	}
	ext := strings.ToLower(o.ArchiveExt)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Discoverer builds inventories from a storage backend
type Discoverer struct {
	backend storage.Backend
	logger  logging.Logger
}

// New creates a discoverer
func New(backend storage.Backend, logger logging.Logger) *Discoverer {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Discoverer{backend: backend, logger: logger}
}

// Discover scans the source tree, the trash tree and, when requested,
// the output tree. Only a failure to read the source root is returned;
// unreadable subtrees are logged and skipped.
func (d *Discoverer) Discover(ctx context.Context, opts Options) (*models.Inventory, error) {
	inv := models.NewInventory()
	root := filepath.Clean(opts.SourceRoot)

	err := d.backend.Walk(ctx, root, func(info storage.FileInfo, err error) error {
		if err != nil {
			d.logger.Warn(ctx, "Skipping unreadable directory", logging.Fields{
				"path":  info.Path,
				"error": err.Error(),
			})
			inv.Stats.DirsSkipped++
			return nil
		}

		if info.IsDir {
			if info.Path != root && d.excluded(info.Path, opts) {
				return storage.SkipDir
			}
			return nil
		}
		if !info.IsRegular {
			return nil
		}

		inv.Stats.FilesSeen++
		if !d.addRaw(ctx, inv, info) {
			inv.Stats.FilesSkipped++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan source directory: %w", err)
	}

	if opts.TrashRoot != "" {
		d.scanTrash(ctx, inv, opts.TrashRoot)
	}

	if opts.CleanOutput && opts.OutputRoot != "" {
		d.scanOutput(ctx, inv, opts)
	}

	d.logger.Debug(ctx, "Discovery finished", logging.Fields{
		"videos":        len(inv.Videos),
		"records":       len(inv.Records),
		"trash_files":   len(inv.TrashPaths),
		"files_seen":    inv.Stats.FilesSeen,
		"files_skipped": inv.Stats.FilesSkipped,
		"dirs_skipped":  inv.Stats.DirsSkipped,
	})

	return inv, nil
}

// ScanArchive lists every archived video below the output root. A missing
// output root yields an empty list.
func (d *Discoverer) ScanArchive(ctx context.Context, opts Options) ([]storage.FileInfo, error) {
	root := filepath.Clean(opts.OutputRoot)
	if exists, err := d.backend.Exists(ctx, root); err != nil || !exists {
		return nil, err
	}

	ext := opts.archiveExt()
	files := make([]storage.FileInfo, 0)
	err := d.backend.Walk(ctx, root, func(info storage.FileInfo, err error) error {
		if err != nil {
			d.logger.Warn(ctx, "Skipping unreadable directory", logging.Fields{
				"path":  info.Path,
				"error": err.Error(),
			})
			return nil
		}
		if info.IsDir {
			if info.Path != root && opts.TrashRoot != "" && samePath(info.Path, opts.TrashRoot) {
				return storage.SkipDir
			}
			return nil
		}
		if !info.IsRegular || strings.ToLower(filepath.Ext(info.Path)) != ext {
			return nil
		}
		if _, ok := timestamp.ParseArchived(filepath.Base(info.Path)); ok {
			files = append(files, info)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan output directory: %w", err)
	}
	return files, nil
}

// addRaw files one entry of the source tree. It returns false when the
// file is not a capture file.
func (d *Discoverer) addRaw(ctx context.Context, inv *models.Inventory, info storage.FileInfo) bool {
	if !isDatedPath(info.RelativePath) {
		return false
	}

	name := filepath.Base(info.Path)
	ext := strings.ToLower(filepath.Ext(name))
	if ext != models.ExtVideo && ext != models.ExtThumbnail {
		return false
	}

	ts, ok := timestamp.ParseRaw(name)
	if !ok {
		d.logger.Debug(ctx, "No valid timestamp in file name", logging.Fields{"path": info.Path})
		return false
	}

	key := timestamp.Format(ts)
	rec := inv.Record(key, ts)

	switch ext {
	case models.ExtVideo:
		inv.Videos = append(inv.Videos, models.MediaFile{Path: info.Path, Timestamp: ts})
		if rec.Video == "" {
			rec.Video = info.Path
		} else {
			d.logger.Debug(ctx, "Duplicate video timestamp", logging.Fields{
				"path":  info.Path,
				"first": rec.Video,
			})
		}
	case models.ExtThumbnail:
		if rec.Thumbnail == "" {
			rec.Thumbnail = info.Path
		}
	}
	return true
}

func (d *Discoverer) scanTrash(ctx context.Context, inv *models.Inventory, trashRoot string) {
	root := filepath.Clean(trashRoot)
	err := d.backend.Walk(ctx, root, func(info storage.FileInfo, err error) error {
		if err != nil {
			d.logger.Warn(ctx, "Skipping unreadable trash directory", logging.Fields{
				"path":  info.Path,
				"error": err.Error(),
			})
			return nil
		}
		if !info.IsDir {
			inv.TrashPaths[info.Path] = struct{}{}
			inv.Stats.TrashSeen++
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		d.logger.Warn(ctx, "Failed to scan trash directory", logging.Fields{
			"path":  root,
			"error": err.Error(),
		})
	}
}

func (d *Discoverer) scanOutput(ctx context.Context, inv *models.Inventory, opts Options) {
	files, err := d.ScanArchive(ctx, opts)
	if err != nil {
		d.logger.Warn(ctx, "Failed to scan output directory", logging.Fields{
			"path":  opts.OutputRoot,
			"error": err.Error(),
		})
		return
	}

	for _, info := range files {
		ts, _ := timestamp.ParseArchived(filepath.Base(info.Path))
		rec := inv.Record(timestamp.Format(ts), ts)
		if rec.Archive == "" {
			rec.Archive = info.Path
		}
		inv.Videos = append(inv.Videos, models.MediaFile{Path: info.Path, Timestamp: ts, Archived: true})
		inv.Stats.ArchivedSeen++
	}
}

func (d *Discoverer) excluded(path string, opts Options) bool {
	if opts.TrashRoot != "" && samePath(path, opts.TrashRoot) {
		return true
	}
	return opts.OutputRoot != "" && samePath(path, opts.OutputRoot)
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// isDatedPath reports whether rel is exactly YEAR/MONTH/DAY/<file>
func isDatedPath(rel string) bool {
	parts := platform.Components(rel)
	if len(parts) != 4 {
		return false
	}
	return allDigits(parts[0], 4) && allDigits(parts[1], 2) && allDigits(parts[2], 2)
}

func allDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

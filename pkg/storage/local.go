package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local is a filesystem-based storage backend
type Local struct {
	dirPerm os.FileMode
}

// NewLocal creates a new local filesystem backend
func NewLocal() *Local {
	return &Local{dirPerm: 0755}
}

// Walk visits root recursively. Unreadable subtrees are reported to fn
// and skipped unless fn returns a different error.
func (l *Local) Walk(ctx context.Context, root string, fn WalkFunc) error {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		relPath, relErr := filepath.Rel(root, p)
		if relErr != nil {
			relPath = filepath.Base(p)
		}

		if walkErr != nil {
			info := FileInfo{Path: p, RelativePath: relPath, IsDir: d != nil && d.IsDir()}
			if p == root {
				return walkErr
			}
			if cbErr := fn(info, walkErr); cbErr != nil {
				return cbErr
			}
			if d != nil && d.IsDir() {
				return SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// Entry vanished between readdir and stat
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fn(FileInfo{Path: p, RelativePath: relPath}, err)
		}

		return fn(toFileInfo(p, relPath, info), nil)
	})

	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return nil
}

// Stat returns file metadata
func (l *Local) Stat(ctx context.Context, path string) (*FileInfo, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	fi := toFileInfo(path, filepath.Base(path), info)
	return &fi, nil
}

// Exists checks if a file or directory exists
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence: %w", err)
}

// MkdirAll creates a directory and all necessary parents
func (l *Local) MkdirAll(ctx context.Context, path string) error {
	if err := os.MkdirAll(path, l.dirPerm); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// Move renames src to dst without replacing an existing dst
func (l *Local) Move(ctx context.Context, src, dst string) error {
	if fi, err := os.Lstat(dst); err == nil {
		if fi.IsDir() {
			return &PathTypeError{Path: dst, Want: "absent", Got: "directory"}
		}
		return fmt.Errorf("failed to move %s: %w", src, fs.ErrExist)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check destination: %w", err)
	}

	err := Rename(src, dst)
	if err == nil {
		return nil
	}
	if !IsCrossDevice(err) {
		return fmt.Errorf("failed to move %s: %w", src, err)
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("copied to %s but failed to remove source: %w", dst, err)
	}
	return nil
}

// Delete removes a file or an empty directory
func (l *Local) Delete(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	return nil
}

// RemoveEmptyDirs removes every directory below root that holds nothing,
// deepest first. root itself is never removed. Directories for which keep
// returns true are left alone along with everything beneath them.
func (l *Local) RemoveEmptyDirs(ctx context.Context, root string, keep func(path string) bool) ([]string, error) {
	dirs := make([]string, 0)
	err := l.Walk(ctx, root, func(info FileInfo, err error) error {
		if err != nil || !info.IsDir || info.Path == root {
			return nil
		}
		if keep != nil && keep(info.Path) {
			return SkipDir
		}
		dirs = append(dirs, info.Path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort directories by depth (deepest first) for proper deletion order
	sort.Slice(dirs, func(i, j int) bool {
		di := strings.Count(dirs[i], string(filepath.Separator))
		dj := strings.Count(dirs[j], string(filepath.Separator))
		if di != dj {
			return di > dj
		}
		return dirs[i] > dirs[j]
	})

	removed := make([]string, 0)
	for _, dir := range dirs {
		select {
		case <-ctx.Done():
			return removed, ctx.Err()
		default:
		}

		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			continue
		}
		removed = append(removed, dir)
	}

	return removed, nil
}

// Close releases resources (no-op for local filesystem)
func (l *Local) Close() error {
	return nil
}

func toFileInfo(path, relPath string, info fs.FileInfo) FileInfo {
	return FileInfo{
		Path:         path,
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		IsRegular:    info.Mode().IsRegular(),
		Permissions:  uint32(info.Mode().Perm()),
		RelativePath: relPath,
	}
}

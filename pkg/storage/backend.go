package storage

import (
	"context"
	"io/fs"
	"time"
)

// FileInfo represents metadata about a file
type FileInfo struct {
	Path         string
	Size         int64
	ModTime      time.Time
	IsDir        bool
	IsRegular    bool
	Permissions  uint32
	RelativePath string
}

// SkipDir can be returned from a WalkFunc to skip the current directory
var SkipDir = fs.SkipDir

// WalkFunc is called for every entry visited by Walk. When a directory
// cannot be read, it is called a second time for that directory with the
// error; returning nil or SkipDir continues the walk past that subtree.
type WalkFunc func(info FileInfo, err error) error

// Backend defines the interface for storage operations.
// All paths are absolute.
type Backend interface {
	// Walk visits root and everything below it in lexical order
	Walk(ctx context.Context, root string, fn WalkFunc) error

	// Stat returns file metadata without following symlinks
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// Exists checks if a file or directory exists
	Exists(ctx context.Context, path string) (bool, error)

	// MkdirAll creates a directory and all necessary parents
	MkdirAll(ctx context.Context, path string) error

	// Move renames src to dst, copying across filesystems when needed.
	// An existing dst is never replaced.
	Move(ctx context.Context, src, dst string) error

	// Delete removes a file or an empty directory
	Delete(ctx context.Context, path string) error

	// RemoveEmptyDirs removes empty directories below root, deepest first
	RemoveEmptyDirs(ctx context.Context, root string, keep func(path string) bool) ([]string, error)

	// Close releases any resources held by the backend
	Close() error
}

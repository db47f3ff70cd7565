package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// renameFunc is swapped in tests to simulate EXDEV and other failures
var renameFunc = os.Rename

// PathTypeError reports a path whose type does not match what the
// operation expects
type PathTypeError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeError) Error() string {
	return fmt.Sprintf("unexpected path type at %q: want %s, got %s", e.Path, e.Want, e.Got)
}

// IsPathType reports whether err is a PathTypeError
func IsPathType(err error) bool {
	var e *PathTypeError
	return errors.As(err, &e)
}

// CrossDeviceError reports a rename that failed because source and
// destination live on different filesystems
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cross-device rename %q -> %q: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is a CrossDeviceError
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename wraps os.Rename and marks EXDEV failures as CrossDeviceError
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// copyFile copies a regular file to dst, which must not exist.
// On failure the partial copy is removed.
func copyFile(src, dst string) (err error) {
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return &PathTypeError{Path: src, Want: "regular file", Got: info.Mode().Type().String()}
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err = out.Sync(); err != nil {
		return fmt.Errorf("failed to sync destination: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("failed to close destination: %w", err)
	}

	// Preserve modification time
	if err = os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time: %w", err)
	}

	return nil
}

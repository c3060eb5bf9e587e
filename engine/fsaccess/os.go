package fsaccess

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// OSDirectory is a directory on the local file system.
type OSDirectory struct {
	path string
}

func OpenDirectory(path string) *OSDirectory {
	return &OSDirectory{path: filepath.Clean(path)}
}

func (d *OSDirectory) Name() string {
	return filepath.Base(d.path)
}

func (d *OSDirectory) Path() string {
	return d.path
}

// QueryPermission is granted when the directory exists and can be listed.
func (d *OSDirectory) QueryPermission(ctx context.Context) (PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return PermissionPrompt, err
	}
	f, err := os.Open(d.path)
	if err != nil {
		return PermissionDenied, nil
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || !info.IsDir() {
		return PermissionDenied, nil
	}
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return PermissionDenied, nil
	}
	return PermissionGranted, nil
}

// RequestPermission cannot prompt on a native file system; it re-queries.
func (d *OSDirectory) RequestPermission(ctx context.Context) (PermissionState, error) {
	return d.QueryPermission(ctx)
}

func (d *OSDirectory) IsSameEntry(ctx context.Context, other DirectoryHandle) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	o, ok := other.(*OSDirectory)
	if !ok || o == nil {
		return false, nil
	}
	if d.path == o.path {
		return true, nil
	}
	a, err := os.Stat(d.path)
	if err != nil {
		return false, nil
	}
	b, err := os.Stat(o.path)
	if err != nil {
		return false, nil
	}
	return os.SameFile(a, b), nil
}

// ReadFile reads a slash separated path relative to the directory.
func (d *OSDirectory) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	b, err := os.ReadFile(filepath.Join(d.path, filepath.FromSlash(name)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}

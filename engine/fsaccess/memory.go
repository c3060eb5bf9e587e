package fsaccess

import (
	"context"
	"fmt"
	"io/fs"
	"sync"
)

// MemoryDirectory is an in-memory directory whose permission state is set by
// the caller. Entries with the same ID are the same directory.
type MemoryDirectory struct {
	ID    string
	Files map[string][]byte

	mu         sync.Mutex
	permission PermissionState
	grant      PermissionState
	requests   int
}

// NewMemoryDirectory starts in the given permission state. RequestPermission
// moves it to PermissionGranted.
func NewMemoryDirectory(id string, permission PermissionState, files map[string][]byte) *MemoryDirectory {
	if files == nil {
		files = make(map[string][]byte)
	}
	return &MemoryDirectory{
		ID:         id,
		Files:      files,
		permission: permission,
		grant:      PermissionGranted,
	}
}

func (d *MemoryDirectory) Name() string {
	return d.ID
}

func (d *MemoryDirectory) SetPermission(p PermissionState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.permission = p
}

// DenyRequests makes RequestPermission leave the directory denied.
func (d *MemoryDirectory) DenyRequests() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.grant = PermissionDenied
}

func (d *MemoryDirectory) Requests() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests
}

func (d *MemoryDirectory) QueryPermission(ctx context.Context) (PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return PermissionPrompt, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.permission, nil
}

func (d *MemoryDirectory) RequestPermission(ctx context.Context) (PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return PermissionPrompt, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests++
	d.permission = d.grant
	return d.permission, nil
}

func (d *MemoryDirectory) IsSameEntry(ctx context.Context, other DirectoryHandle) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	o, ok := other.(*MemoryDirectory)
	if !ok || o == nil {
		return false, nil
	}
	return d.ID == o.ID, nil
}

func (d *MemoryDirectory) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.permission != PermissionGranted {
		return nil, fmt.Errorf("read %s: %w", name, fs.ErrPermission)
	}
	b, ok := d.Files[name]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", name, fs.ErrNotExist)
	}
	return b, nil
}

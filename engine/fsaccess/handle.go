// Package fsaccess models user granted directory capabilities: handles that
// must be permission checked before use and compared by the entry they point
// at rather than by identity.
package fsaccess

import (
	"context"
)

type PermissionState int

const (
	PermissionPrompt PermissionState = iota
	PermissionGranted
	PermissionDenied
)

func (p PermissionState) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "prompt"
	}
}

// DirectoryHandle is an externally owned directory capability. This package
// never mutates the directory behind it.
type DirectoryHandle interface {
	Name() string
	QueryPermission(ctx context.Context) (PermissionState, error)
	// RequestPermission is a user triggered side channel; automatic
	// orchestration never calls it.
	RequestPermission(ctx context.Context) (PermissionState, error)
	// IsSameEntry reports whether both handles point at the same directory.
	IsSameEntry(ctx context.Context, other DirectoryHandle) (bool, error)
	ReadFile(ctx context.Context, name string) ([]byte, error)
}

// IsDifferentHandle reports whether a and b point at different directories.
// Two absent handles are the same; one absent handle differs from any other.
func IsDifferentHandle(ctx context.Context, a, b DirectoryHandle) (bool, error) {
	if (a == nil) != (b == nil) {
		return true, nil
	}
	if a == nil {
		return false, nil
	}
	same, err := a.IsSameEntry(ctx, b)
	if err != nil {
		return false, err
	}
	return !same, nil
}

// NeedsPermission reports whether h is set but not granted.
func NeedsPermission(ctx context.Context, h DirectoryHandle) (bool, error) {
	if h == nil {
		return false, nil
	}
	state, err := h.QueryPermission(ctx)
	if err != nil {
		return false, err
	}
	return state != PermissionGranted, nil
}

package gfx

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/eomap/engine/core"
)

// GeometryError reports slicing input that cannot produce a frame grid. It is
// not recoverable for the derivation call that raised it.
type GeometryError struct {
	Frame  string
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("slicing frame %q: %s", e.Frame, e.Reason)
}

func (e *GeometryError) Unwrap() error {
	return core.ErrGeometry
}

type LoadErrorKind int

const (
	LoadErrorNotFound LoadErrorKind = iota + 1
	LoadErrorPermissionDenied
	LoadErrorNetwork
	LoadErrorMalformed
)

func (k LoadErrorKind) String() string {
	switch k {
	case LoadErrorNotFound:
		return "not found"
	case LoadErrorPermissionDenied:
		return "permission denied"
	case LoadErrorNetwork:
		return "network error"
	case LoadErrorMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

func (k LoadErrorKind) sentinel() error {
	switch k {
	case LoadErrorNotFound:
		return core.ErrNotFound
	case LoadErrorPermissionDenied:
		return core.ErrPermissionDenied
	case LoadErrorNetwork:
		return core.ErrNetwork
	case LoadErrorMalformed:
		return core.ErrMalformed
	default:
		return core.ErrUnknown
	}
}

// LoadError is a failed archive load. Recoverable at the orchestrator level:
// the failure is counted and the archive stays unavailable for the lifetime
// of the loader.
type LoadError struct {
	FileID int
	Kind   LoadErrorKind
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load EGF %d: %s: %v", e.FileID, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error kind, so errors.Is(err, core.ErrNotFound)
// holds for every not-found load error.
func (e *LoadError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func newLoadError(fileID int, err error) *LoadError {
	var le *LoadError
	if errors.As(err, &le) {
		return le
	}
	return &LoadError{FileID: fileID, Kind: classifyLoadError(err), Err: err}
}

func classifyLoadError(err error) LoadErrorKind {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return LoadErrorNotFound
	case errors.Is(err, core.ErrPermissionDenied):
		return LoadErrorPermissionDenied
	case errors.Is(err, core.ErrMalformed):
		return LoadErrorMalformed
	default:
		return LoadErrorNetwork
	}
}

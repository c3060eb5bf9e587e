package core

import (
	"errors"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNetwork          = errors.New("network error")
	ErrMalformed        = errors.New("malformed archive")
	ErrGeometry         = errors.New("invalid frame geometry")
	ErrDestroyed        = errors.New("loader destroyed")
	ErrSuperseded       = errors.New("load superseded by a newer run")
	ErrUnsupported      = errors.New("file system access not supported on this platform")
	ErrUnknown          = errors.New("unknown")
)

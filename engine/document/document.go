// Package document tracks the map file open in the editor.
package document

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/fsaccess"
)

type State int

const (
	StateNone State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "none"
	}
}

// Codec decodes map file bytes. The map format lives outside this package.
type Codec interface {
	Decode(data []byte) (any, error)
}

type CodecFunc func(data []byte) (any, error)

func (f CodecFunc) Decode(data []byte) (any, error) {
	return f(data)
}

// MapState is the open document: nothing, loading, loaded or failed.
type MapState struct {
	codec Codec

	mu    sync.RWMutex
	state State
	name  string
	doc   any
	err   error
	epoch uint64
}

func NewMapState(codec Codec) *MapState {
	return &MapState{codec: codec}
}

// Open reads name from dir and decodes it. Opening another file before this
// one finishes discards this one's result.
func (m *MapState) Open(ctx context.Context, dir fsaccess.DirectoryHandle, name string) error {
	m.mu.Lock()
	m.epoch++
	epoch := m.epoch
	m.state = StateLoading
	m.name = name
	m.doc = nil
	m.err = nil
	m.mu.Unlock()

	doc, err := m.read(ctx, dir, name)

	m.mu.Lock()
	defer m.mu.Unlock()
	if epoch != m.epoch {
		return core.ErrSuperseded
	}
	if err != nil {
		core.LogError("failed to open map %s: %s", name, err)
		m.state = StateError
		m.err = err
		return err
	}
	m.state = StateLoaded
	m.doc = doc
	return nil
}

func (m *MapState) read(ctx context.Context, dir fsaccess.DirectoryHandle, name string) (any, error) {
	if dir == nil {
		return nil, fmt.Errorf("open map %s: no directory", name)
	}
	data, err := dir.ReadFile(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open map %s: %w", name, err)
	}
	doc, err := m.codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode map %s: %w", name, err)
	}
	return doc, nil
}

// Close returns to StateNone.
func (m *MapState) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	m.state = StateNone
	m.name = ""
	m.doc = nil
	m.err = nil
}

func (m *MapState) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *MapState) Loading() bool {
	return m.State() == StateLoading
}

func (m *MapState) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

func (m *MapState) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name
}

// Document returns the decoded map, or nil unless loaded.
func (m *MapState) Document() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc
}

// SignatureCodec keeps the raw bytes of files that start with Signature.
type SignatureCodec struct {
	Signature []byte
}

func (c SignatureCodec) Decode(data []byte) (any, error) {
	if !bytes.HasPrefix(data, c.Signature) {
		return nil, fmt.Errorf("%w: missing %q signature", core.ErrMalformed, c.Signature)
	}
	return data, nil
}

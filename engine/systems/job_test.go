package systems

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidation(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)

	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestSubmitAndWaitSettlesEveryTask(t *testing.T) {
	js, err := NewJobSystem(3, 6)
	require.NoError(t, err)
	defer js.Shutdown()

	var ok, failed, settled atomic.Int32
	tasks := make([]metadata.JobTask, 0, 6)
	for i := 0; i < 6; i++ {
		i := i
		tasks = append(tasks, metadata.JobTask{
			Name: "task",
			OnStart: func(context.Context) error {
				if i%3 == 0 {
					return errors.New("boom")
				}
				return nil
			},
			OnComplete:           func() { ok.Add(1) },
			OnFailure:            func(error) { failed.Add(1) },
			OnCompletionCallback: func() { settled.Add(1) },
		})
	}

	require.NoError(t, js.SubmitAndWait(tasks...))
	assert.Equal(t, int32(4), ok.Load())
	assert.Equal(t, int32(2), failed.Load())
	assert.Equal(t, int32(6), settled.Load())
}

func TestSubmitAfterShutdown(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)
	require.NoError(t, js.Shutdown())
	require.NoError(t, js.Shutdown())

	err = js.Submit(metadata.JobTask{OnStart: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrJobSystemShutdown)

	err = js.SubmitAndWait(metadata.JobTask{OnStart: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrJobSystemShutdown)
}

func TestSubmitRequiresEntryPoint(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)
	defer js.Shutdown()
	assert.ErrorIs(t, js.Submit(metadata.JobTask{Name: "empty"}), ErrMissingEntryPoint)
}

func TestJobReceivesContext(t *testing.T) {
	js, err := NewJobSystem(1, 1)
	require.NoError(t, err)
	defer js.Shutdown()

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "value")
	var seen atomic.Value
	require.NoError(t, js.SubmitAndWait(metadata.JobTask{
		Context: ctx,
		OnStart: func(ctx context.Context) error {
			seen.Store(ctx.Value(key{}))
			return nil
		},
	}))
	assert.Equal(t, "value", seen.Load())
}

package systems

import (
	"context"
	"fmt"
	"sync"

	"github.com/spaghettifunk/eomap/engine/core"
	"github.com/spaghettifunk/eomap/engine/renderer/metadata"
)

type JobSystem struct {
	numWorkers int
	jobQueue   chan metadata.JobTask
	wg         sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrJobSystemShutdown = fmt.Errorf("job system is shut down")
var ErrMissingEntryPoint = fmt.Errorf("job submitted without an entry point")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	jq := make(chan metadata.JobTask, channelSize)
	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   jq,
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job metadata.JobTask) {
	ctx := job.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := job.OnStart(ctx); err != nil {
		core.LogDebug("job %s failed: %s", job.Name, err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
	} else if job.OnComplete != nil {
		job.OnComplete()
	}

	// Call the completion callback if set
	if job.OnCompletionCallback != nil {
		job.OnCompletionCallback()
	}
}

/**
 * @brief Shuts the job system down. Queued jobs still run; the call returns
 * once every worker has drained the queue. Safe to call more than once.
 */
func (js *JobSystem) Shutdown() error {
	js.mu.Lock()
	if js.closed {
		js.mu.Unlock()
		return nil
	}
	js.closed = true
	close(js.jobQueue)
	js.mu.Unlock()

	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution.
 * @param info The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt metadata.JobTask) error {
	if jt.OnStart == nil {
		return ErrMissingEntryPoint
	}
	js.mu.RLock()
	defer js.mu.RUnlock()
	if js.closed {
		return ErrJobSystemShutdown
	}
	js.jobQueue <- jt
	return nil
}

/**
 * @brief Submits every task and blocks until all of them settled, regardless
 * of outcome. A failing task never prevents the others from running.
 */
func (js *JobSystem) SubmitAndWait(tasks ...metadata.JobTask) error {
	var settled sync.WaitGroup
	for _, task := range tasks {
		task := task
		done := task.OnCompletionCallback
		task.OnCompletionCallback = func() {
			if done != nil {
				done()
			}
			settled.Done()
		}
		settled.Add(1)
		if err := js.Submit(task); err != nil {
			settled.Done()
			settled.Wait()
			return err
		}
	}
	settled.Wait()
	return nil
}

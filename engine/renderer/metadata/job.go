package metadata

import "context"

/** Definition for the work a job performs. */
type JobStart func(ctx context.Context) error

/** Definition for completion of a job. */
type JobOnComplete func()

/** Definition for a failed job. */
type JobOnFailure func(err error)

/**
 * @brief Describes a job to be run by the job system.
 */
type JobTask struct {
	/** @brief A name used in logs. */
	Name string
	/** @brief The context handed to the entry point. Background when nil. */
	Context context.Context
	/** @brief Invoked when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked when the job successfully completes. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked when the job fails. Optional. */
	OnFailure JobOnFailure
	/** @brief Invoked after either outcome. Optional. */
	OnCompletionCallback func()
}

package metadata

/** Entry point of a job. Runs on a worker goroutine and returns the result. */
type JobStart func(params interface{}) (interface{}, error)

/** Invoked with the result of a job. */
type JobOnComplete func(result interface{})

/** Invoked with the error of a failed job. */
type JobOnFailure func(err error)

/**
 * @brief Describes a unit of work for the job system.
 */
type JobTask struct {
	/** @brief Name used in logs. */
	Name string
	/** @brief The entry point of the job. Required. */
	OnStart JobStart
	/** @brief Called when OnStart succeeds. Optional. */
	OnComplete JobOnComplete
	/** @brief Called when OnStart fails. Optional. */
	OnFailure JobOnFailure
	/** @brief Data passed to OnStart. */
	InputParams interface{}
}

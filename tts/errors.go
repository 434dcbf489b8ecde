package tts

import "errors"

// Common errors for the batch synthesis scheduler.
var (
	// ErrJobNotFound is returned when an operation names an id that is not
	// in the queue.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobRunning is returned when removing the job that is currently
	// being synthesized.
	ErrJobRunning = errors.New("job is currently running")
	// ErrSchedulerBusy is returned when clearing the queue while the
	// processing loop is draining it.
	ErrSchedulerBusy = errors.New("scheduler is processing the queue")
	// ErrNoRegistry is returned when a scheduler is built without a
	// provider registry.
	ErrNoRegistry = errors.New("provider registry is required")
)

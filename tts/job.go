package tts

import (
	"time"

	"speechdeck/tts/audio"
)

// JobStatus represents the lifecycle state of a synthesis job.
type JobStatus int

const (
	// StatusPending indicates the job is queued and waiting.
	StatusPending JobStatus = iota
	// StatusRunning indicates the job is being synthesized.
	StatusRunning
	// StatusCompleted indicates synthesis succeeded.
	StatusCompleted
	// StatusFailed indicates synthesis failed.
	StatusFailed
	// StatusCancelled indicates the job was cancelled before it started.
	StatusCancelled
)

// String returns the string representation of the status.
func (s JobStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// JobResult holds the synthesis response of a completed job. The audio handle
// is owned by the job and revoked when the job is removed or the queue is
// cleared.
type JobResult struct {
	Audio       *audio.Handle
	ContentType string
	Duration    time.Duration
	Transcript  string
	RequestID   string
}

// Job is one unit of work: a single text segment awaiting, undergoing, or
// having completed synthesis. Result is set iff Status is completed;
// ErrorMessage is set iff Status is failed.
type Job struct {
	ID           string
	Text         string
	Provider     string
	VoiceID      string
	Status       JobStatus
	Progress     float64
	ErrorMessage string
	Result       *JobResult
	CreatedAt    time.Time
}

// clone returns a copy safe to hand to callers.
func (j *Job) clone() Job {
	c := *j
	if j.Result != nil {
		r := *j.Result
		c.Result = &r
	}
	return c
}

// QueueState is a point-in-time snapshot of the scheduler.
type QueueState struct {
	Items           []Job
	IsRunning       bool
	CancelRequested bool
	CurrentItemID   string
}

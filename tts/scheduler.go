// Package tts implements the batch synthesis scheduler: an ordered job queue
// drained by a single-flight processing loop that dispatches each job to a
// provider backend and manages the lifecycle of the audio it produces.
package tts

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"speechdeck/tts/audio"
	"speechdeck/tts/providers"
)

// startedProgress is the progress value a job gets the moment it is picked
// up, so callers can distinguish "running" from "not yet started".
const startedProgress = 0.05

// DefaultSynthesisTimeout bounds a single provider call. A hung backend
// fails the job instead of blocking the loop forever.
const DefaultSynthesisTimeout = 60 * time.Second

// Options selects the backend for a batch of segments.
type Options struct {
	Provider string
	VoiceID  string
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Registry resolves provider tags to backends. Required.
	Registry *providers.Registry

	// Recorder receives one entry per completed job. Defaults to NopRecorder.
	Recorder HistoryRecorder

	// Rules are pronunciation/glossary overrides forwarded with every
	// synthesis request.
	Rules []providers.Rule

	// SynthesisTimeout bounds each provider call. Defaults to
	// DefaultSynthesisTimeout.
	SynthesisTimeout time.Duration

	// Logger defaults to log.Default().
	Logger *log.Logger
}

// Scheduler owns the ordered job list, the per-job state machine, and the
// single-flight processing loop. All mutation goes through its methods; jobs
// are never exposed by pointer.
type Scheduler struct {
	mu              sync.Mutex
	items           []*Job
	running         bool
	cancelRequested bool
	currentID       string
	inflight        chan struct{} // closed when the active loop exits

	registry *providers.Registry
	handles  *audio.Manager
	recorder HistoryRecorder
	rules    []providers.Rule
	timeout  time.Duration
	logger   *log.Logger
}

// NewScheduler creates a scheduler with an empty queue.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Registry == nil {
		return nil, ErrNoRegistry
	}
	if cfg.Recorder == nil {
		cfg.Recorder = NopRecorder{}
	}
	if cfg.SynthesisTimeout <= 0 {
		cfg.SynthesisTimeout = DefaultSynthesisTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	return &Scheduler{
		registry: cfg.Registry,
		handles:  audio.NewManager(),
		recorder: cfg.Recorder,
		rules:    cfg.Rules,
		timeout:  cfg.SynthesisTimeout,
		logger:   cfg.Logger,
	}, nil
}

// NormalizeSegment collapses interior whitespace and trims the segment.
func NormalizeSegment(segment string) string {
	return strings.Join(strings.Fields(segment), " ")
}

// Enqueue appends one pending job per non-empty normalized segment, in input
// order, and returns the ids of the jobs it created. An all-blank input is a
// no-op.
func (s *Scheduler) Enqueue(segments []string, opts Options) []string {
	jobs := make([]*Job, 0, len(segments))
	for _, segment := range segments {
		text := NormalizeSegment(segment)
		if text == "" {
			continue
		}
		jobs = append(jobs, &Job{
			ID:        uuid.NewString(),
			Text:      text,
			Provider:  opts.Provider,
			VoiceID:   opts.VoiceID,
			Status:    StatusPending,
			CreatedAt: time.Now(),
		})
	}
	if len(jobs) == 0 {
		return nil
	}

	ids := make([]string, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}

	s.mu.Lock()
	s.items = append(s.items, jobs...)
	depth := len(s.items)
	s.mu.Unlock()

	s.logger.Debug("queue: segments enqueued", "count", len(jobs), "provider", opts.Provider, "depth", depth)
	return ids
}

// Start drains the queue in FIFO order. It is safe to call concurrently: if
// a loop is already in flight, the call waits for that same loop instead of
// starting a second one. Start returns once the queue is drained, cancelled,
// or ctx is done while waiting on another caller's loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		done := s.inflight
		s.mu.Unlock()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.running = true
	done := make(chan struct{})
	s.inflight = done
	s.mu.Unlock()

	// The loop must never leave the scheduler stuck mid-run, whatever
	// happens inside it.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("queue: processing loop panicked", "panic", r)
		}
		s.mu.Lock()
		s.running = false
		s.cancelRequested = false
		s.currentID = ""
		s.mu.Unlock()
		close(done)
	}()

	s.drain(ctx)
	return nil
}

// drain is the single processing loop.
func (s *Scheduler) drain(ctx context.Context) {
	for {
		s.mu.Lock()
		if s.cancelRequested || ctx.Err() != nil {
			cancelled := 0
			for _, j := range s.items {
				if j.Status == StatusPending {
					j.Status = StatusCancelled
					cancelled++
				}
			}
			s.mu.Unlock()
			if cancelled > 0 {
				s.logger.Info("queue: cancelled pending jobs", "count", cancelled)
			}
			return
		}

		var job *Job
		for _, j := range s.items {
			if j.Status == StatusPending {
				job = j
				break
			}
		}
		if job == nil {
			s.mu.Unlock()
			s.logger.Debug("queue: drained")
			return
		}

		job.Status = StatusRunning
		job.Progress = startedProgress
		s.currentID = job.ID
		id, text, providerTag, voiceID := job.ID, job.Text, job.Provider, job.VoiceID
		s.mu.Unlock()

		s.logger.Debug("queue: job started", "id", id, "provider", providerTag)
		result, err := s.synthesize(ctx, text, providerTag, voiceID)
		if err == nil {
			var handle *audio.Handle
			handle, err = s.handles.Create(id, result.Audio, result.ContentType, result.SampleRate, result.Duration)
			if err == nil {
				s.complete(job, result, handle)
				s.record(ctx, job)
				continue
			}
		}
		s.fail(job, err)
	}
}

// synthesize dispatches one provider call with a bounded timeout. Provider
// panics are converted to job failures so the loop keeps draining.
func (s *Scheduler) synthesize(ctx context.Context, text, providerTag, voiceID string) (result *providers.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()

	p, err := s.registry.Lookup(providerTag)
	if err != nil {
		return nil, err
	}
	defaults, err := s.registry.Defaults(providerTag)
	if err != nil {
		return nil, err
	}
	if voiceID == "" {
		voiceID = defaults.VoiceID
	}

	req := providers.Request{
		Text:     text,
		VoiceID:  voiceID,
		Settings: defaults.Settings,
		Rules:    s.rules,
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return p.Synthesize(callCtx, req)
}

func (s *Scheduler) complete(job *Job, result *providers.Result, handle *audio.Handle) {
	s.mu.Lock()
	job.Status = StatusCompleted
	job.Progress = 1
	job.ErrorMessage = ""
	job.Result = &JobResult{
		Audio:       handle,
		ContentType: result.ContentType,
		Duration:    result.Duration,
		Transcript:  result.Transcript,
		RequestID:   result.RequestID,
	}
	s.currentID = ""
	s.mu.Unlock()

	s.logger.Info("queue: job completed", "id", job.ID, "duration", result.Duration, "bytes", handle.Len())
}

func (s *Scheduler) fail(job *Job, err error) {
	s.mu.Lock()
	job.Status = StatusFailed
	job.Progress = 0
	job.ErrorMessage = err.Error()
	s.currentID = ""
	s.mu.Unlock()

	s.logger.Warn("queue: job failed", "id", job.ID, "error", err)
}

// record pushes a completed job to the history recorder. Failures are
// logged, never propagated to the job.
func (s *Scheduler) record(ctx context.Context, job *Job) {
	s.mu.Lock()
	entry := HistoryEntry{
		ID:        job.ID,
		Provider:  job.Provider,
		VoiceID:   job.VoiceID,
		Text:      job.Text,
		CreatedAt: job.CreatedAt,
	}
	if job.Result != nil {
		entry.Duration = job.Result.Duration
		entry.Transcript = job.Result.Transcript
	}
	s.mu.Unlock()

	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Warn("queue: history recording failed", "id", entry.ID, "error", err)
	}
}

// Cancel requests cooperative cancellation. The in-flight job runs to
// completion; remaining pending jobs are cancelled at the next loop
// iteration.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	s.cancelRequested = true
	s.mu.Unlock()

	s.logger.Debug("queue: cancellation requested")
}

// RetryFailed resets every failed job to pending. It does not restart the
// loop.
func (s *Scheduler) RetryFailed() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	retried := 0
	for _, j := range s.items {
		if j.Status == StatusFailed {
			j.Status = StatusPending
			j.Progress = 0
			j.ErrorMessage = ""
			retried++
		}
	}
	return retried
}

// Remove revokes the job's audio handle, if any, and removes the job from
// the queue. Removing the currently running job is rejected with
// ErrJobRunning.
func (s *Scheduler) Remove(id string) error {
	s.mu.Lock()
	if id == s.currentID {
		s.mu.Unlock()
		return ErrJobRunning
	}
	idx := -1
	for i, j := range s.items {
		if j.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mu.Unlock()

	return s.handles.Release(id)
}

// Clear revokes every outstanding handle and empties the queue. Clearing
// while the loop is draining is rejected with ErrSchedulerBusy.
func (s *Scheduler) Clear() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerBusy
	}
	s.items = nil
	s.cancelRequested = false
	s.currentID = ""
	s.mu.Unlock()

	s.handles.ReleaseAll()
	return nil
}

// Job returns a copy of the job with the given id.
func (s *Scheduler) Job(id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.items {
		if j.ID == id {
			return j.clone(), nil
		}
	}
	return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
}

// Jobs returns copies of all queued jobs in order.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]Job, len(s.items))
	for i, j := range s.items {
		jobs[i] = j.clone()
	}
	return jobs
}

// State returns a point-in-time snapshot of the queue.
func (s *Scheduler) State() QueueState {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Job, len(s.items))
	for i, j := range s.items {
		items[i] = j.clone()
	}
	return QueueState{
		Items:           items,
		IsRunning:       s.running,
		CancelRequested: s.cancelRequested,
		CurrentItemID:   s.currentID,
	}
}

// Handle returns the audio handle owned by the job, if present.
func (s *Scheduler) Handle(id string) (*audio.Handle, bool) {
	return s.handles.Get(id)
}

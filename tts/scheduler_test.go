package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"speechdeck/tts/providers"
)

// Mock components for testing

type fakeProvider struct {
	name           string
	synthesizeFunc func(ctx context.Context, req providers.Request) (*providers.Result, error)
}

func (f *fakeProvider) Name() string {
	if f.name != "" {
		return f.name
	}
	return "fake"
}

func (f *fakeProvider) Voices(context.Context) ([]providers.Voice, error) {
	return []providers.Voice{{ID: "fake-voice", Name: "Fake Voice", Language: "en-US"}}, nil
}

func (f *fakeProvider) Synthesize(ctx context.Context, req providers.Request) (*providers.Result, error) {
	if f.synthesizeFunc != nil {
		return f.synthesizeFunc(ctx, req)
	}
	return &providers.Result{
		Audio:       []byte("audio:" + req.Text),
		ContentType: "audio/wav",
		SampleRate:  22050,
		Duration:    100 * time.Millisecond,
		RequestID:   "req-" + req.Text,
	}, nil
}

type captureRecorder struct {
	mu      sync.Mutex
	entries []HistoryEntry
	err     error
}

func (r *captureRecorder) Record(_ context.Context, entry HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *captureRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func newTestScheduler(t *testing.T, provider *fakeProvider, recorder HistoryRecorder) *Scheduler {
	t.Helper()

	registry := providers.NewRegistry()
	err := registry.Register(provider, providers.Defaults{
		VoiceID:  "fake-voice",
		Settings: providers.Settings{Speed: 1.0, SampleRate: 22050, Format: "wav"},
	})
	if err != nil {
		t.Fatalf("register provider: %v", err)
	}

	s, err := NewScheduler(SchedulerConfig{
		Registry: registry,
		Recorder: recorder,
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	return s
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestNewSchedulerRequiresRegistry(t *testing.T) {
	_, err := NewScheduler(SchedulerConfig{})
	if !errors.Is(err, ErrNoRegistry) {
		t.Errorf("expected ErrNoRegistry, got %v", err)
	}
}

func TestEnqueueNormalization(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     []string
	}{
		{
			name:     "plain segments",
			segments: []string{"Hello", "World"},
			want:     []string{"Hello", "World"},
		},
		{
			name:     "whitespace collapsed and trimmed",
			segments: []string{"  Hello   there  ", "one\t\ttwo\nthree"},
			want:     []string{"Hello there", "one two three"},
		},
		{
			name:     "blanks dropped, order preserved",
			segments: []string{"", "first", "   ", "second", "\t\n"},
			want:     []string{"first", "second"},
		},
		{
			name:     "all blank is a no-op",
			segments: []string{"", "   ", "\t"},
			want:     nil,
		},
		{
			name:     "empty input",
			segments: nil,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(t, &fakeProvider{}, nil)
			ids := s.Enqueue(tt.segments, Options{Provider: "fake", VoiceID: "v1"})

			if len(ids) != len(tt.want) {
				t.Fatalf("expected %d ids, got %d", len(tt.want), len(ids))
			}

			jobs := s.Jobs()
			if len(jobs) != len(tt.want) {
				t.Fatalf("expected %d jobs, got %d", len(tt.want), len(jobs))
			}
			for i, job := range jobs {
				if job.Text != tt.want[i] {
					t.Errorf("job %d text = %q, want %q", i, job.Text, tt.want[i])
				}
				if job.Status != StatusPending {
					t.Errorf("job %d status = %v, want pending", i, job.Status)
				}
				if job.ID == "" {
					t.Errorf("job %d has empty id", i)
				}
				if job.CreatedAt.IsZero() {
					t.Errorf("job %d has zero CreatedAt", i)
				}
			}
		})
	}
}

func TestStartProcessesFIFO(t *testing.T) {
	var mu sync.Mutex
	var order []string
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			mu.Lock()
			order = append(order, req.Text)
			mu.Unlock()
			return &providers.Result{Audio: []byte(req.Text), ContentType: "audio/wav"}, nil
		},
	}
	recorder := &captureRecorder{}
	s := newTestScheduler(t, provider, recorder)

	s.Enqueue([]string{"one", "two", "three"}, Options{Provider: "fake"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if want := []string{"one", "two", "three"}; strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("processing order = %v, want %v", order, want)
	}

	for i, job := range s.Jobs() {
		if job.Status != StatusCompleted {
			t.Errorf("job %d status = %v, want completed", i, job.Status)
		}
		if job.Progress != 1 {
			t.Errorf("job %d progress = %v, want 1", i, job.Progress)
		}
		if job.Result == nil {
			t.Errorf("job %d has no result", i)
		}
		if _, ok := s.Handle(job.ID); !ok {
			t.Errorf("job %d has no audio handle", i)
		}
	}

	state := s.State()
	if state.IsRunning {
		t.Error("IsRunning should be false after drain")
	}
	if state.CurrentItemID != "" {
		t.Errorf("CurrentItemID should be empty, got %q", state.CurrentItemID)
	}
	if recorder.count() != 3 {
		t.Errorf("recorder entries = %d, want 3", recorder.count())
	}
}

func TestStartFailureMidQueue(t *testing.T) {
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			if req.Text == "two" {
				return nil, errors.New("rate limit exceeded")
			}
			return &providers.Result{Audio: []byte(req.Text), ContentType: "audio/wav"}, nil
		},
	}
	recorder := &captureRecorder{}
	s := newTestScheduler(t, provider, recorder)

	s.Enqueue([]string{"one", "two", "three"}, Options{Provider: "fake"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	jobs := s.Jobs()
	if jobs[0].Status != StatusCompleted {
		t.Errorf("job 1 status = %v, want completed", jobs[0].Status)
	}
	if jobs[1].Status != StatusFailed {
		t.Errorf("job 2 status = %v, want failed", jobs[1].Status)
	}
	if !strings.Contains(jobs[1].ErrorMessage, "rate limit") {
		t.Errorf("job 2 error = %q, want rate limit mention", jobs[1].ErrorMessage)
	}
	if jobs[1].Progress != 0 {
		t.Errorf("job 2 progress = %v, want 0", jobs[1].Progress)
	}
	if jobs[1].Result != nil {
		t.Error("failed job must not carry a result")
	}
	if jobs[2].Status != StatusCompleted {
		t.Errorf("job 3 status = %v, want completed", jobs[2].Status)
	}
	if s.State().IsRunning {
		t.Error("IsRunning should be false after drain")
	}
	if recorder.count() != 2 {
		t.Errorf("recorder entries = %d, want 2", recorder.count())
	}
}

func TestStartSingleFlight(t *testing.T) {
	var calls sync.Map
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			n, _ := calls.LoadOrStore(req.Text, new(int32))
			*(n.(*int32))++
			time.Sleep(5 * time.Millisecond)
			return &providers.Result{Audio: []byte(req.Text), ContentType: "audio/wav"}, nil
		},
	}
	recorder := &captureRecorder{}
	s := newTestScheduler(t, provider, recorder)

	s.Enqueue([]string{"a", "b", "c", "d"}, Options{Provider: "fake"})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Start(context.Background()); err != nil {
				t.Errorf("Start: %v", err)
			}
		}()
	}
	wg.Wait()

	calls.Range(func(text, n any) bool {
		if count := *(n.(*int32)); count != 1 {
			t.Errorf("segment %v synthesized %d times, want 1", text, count)
		}
		return true
	})
	if recorder.count() != 4 {
		t.Errorf("recorder entries = %d, want 4 (no duplicate recording)", recorder.count())
	}
	for i, job := range s.Jobs() {
		if job.Status != StatusCompleted {
			t.Errorf("job %d status = %v, want completed", i, job.Status)
		}
	}
}

func TestAtMostOneJobRunning(t *testing.T) {
	var s *Scheduler
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			state := s.State()
			running := 0
			for _, job := range state.Items {
				if job.Status == StatusRunning {
					running++
				}
			}
			if running != 1 {
				t.Errorf("observed %d running jobs during synthesis, want 1", running)
			}
			if state.CurrentItemID == "" {
				t.Error("CurrentItemID empty while a job is running")
			}
			return &providers.Result{Audio: []byte(req.Text), ContentType: "audio/wav"}, nil
		},
	}
	s = newTestScheduler(t, provider, nil)

	s.Enqueue([]string{"a", "b", "c"}, Options{Provider: "fake"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func TestCancelDuringRun(t *testing.T) {
	started := make(chan struct{}, 3)
	release := make(chan struct{})
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			started <- struct{}{}
			<-release
			return &providers.Result{Audio: []byte(req.Text), ContentType: "audio/wav"}, nil
		},
	}
	s := newTestScheduler(t, provider, nil)

	s.Enqueue([]string{"one", "two", "three"}, Options{Provider: "fake"})

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	<-started // job 1 is in flight
	s.Cancel()

	if !s.State().CancelRequested {
		t.Error("CancelRequested should be true before the loop observes it")
	}

	close(release) // let job 1 finish
	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}

	jobs := s.Jobs()
	if jobs[0].Status != StatusCompleted {
		t.Errorf("running job status = %v, want completed (not interrupted)", jobs[0].Status)
	}
	if jobs[1].Status != StatusCancelled {
		t.Errorf("job 2 status = %v, want cancelled", jobs[1].Status)
	}
	if jobs[2].Status != StatusCancelled {
		t.Errorf("job 3 status = %v, want cancelled", jobs[2].Status)
	}

	state := s.State()
	if state.IsRunning {
		t.Error("IsRunning should be false after cancellation drain")
	}
	if state.CancelRequested {
		t.Error("CancelRequested should be reset after the loop exits")
	}
	if len(started) != 0 {
		t.Error("no further jobs should have been dispatched after cancel")
	}
}

func TestCancelBeforeStart(t *testing.T) {
	synthCalls := 0
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			synthCalls++
			return &providers.Result{Audio: []byte(req.Text)}, nil
		},
	}
	s := newTestScheduler(t, provider, nil)

	s.Enqueue([]string{"one", "two"}, Options{Provider: "fake"})
	s.Cancel()
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if synthCalls != 0 {
		t.Errorf("synthesize called %d times, want 0", synthCalls)
	}
	for i, job := range s.Jobs() {
		if job.Status != StatusCancelled {
			t.Errorf("job %d status = %v, want cancelled", i, job.Status)
		}
	}
}

func TestRetryFailedOnlyTouchesFailedJobs(t *testing.T) {
	attempt := 0
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			if req.Text == "two" {
				attempt++
				if attempt == 1 {
					return nil, errors.New("transient backend error")
				}
			}
			return &providers.Result{Audio: []byte(req.Text), ContentType: "audio/wav"}, nil
		},
	}
	s := newTestScheduler(t, provider, nil)

	s.Enqueue([]string{"one", "two", "three"}, Options{Provider: "fake"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	before := s.Jobs()
	if n := s.RetryFailed(); n != 1 {
		t.Fatalf("RetryFailed = %d, want 1", n)
	}

	after := s.Jobs()
	for i := range after {
		if before[i].Status == StatusFailed {
			if after[i].Status != StatusPending {
				t.Errorf("failed job status = %v, want pending", after[i].Status)
			}
			if after[i].ErrorMessage != "" {
				t.Errorf("failed job error not cleared: %q", after[i].ErrorMessage)
			}
			if after[i].Progress != 0 {
				t.Errorf("failed job progress = %v, want 0", after[i].Progress)
			}
			continue
		}
		if after[i] != before[i] {
			// Completed jobs carry a Result pointer; compare fields that
			// retry must not touch.
			if after[i].Status != before[i].Status || after[i].Progress != before[i].Progress {
				t.Errorf("job %d mutated by RetryFailed", i)
			}
		}
	}

	// The retried job is the only one reprocessed.
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	jobs := s.Jobs()
	if jobs[1].Status != StatusCompleted {
		t.Errorf("retried job status = %v, want completed", jobs[1].Status)
	}
	if attempt != 2 {
		t.Errorf("failing segment attempted %d times, want 2", attempt)
	}
}

func TestRemove(t *testing.T) {
	s := newTestScheduler(t, &fakeProvider{}, nil)

	ids := s.Enqueue([]string{"one", "two"}, Options{Provider: "fake"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	handle, ok := s.Handle(ids[0])
	if !ok {
		t.Fatal("expected handle for completed job")
	}

	if err := s.Remove(ids[0]); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !handle.Revoked() {
		t.Error("handle not revoked on removal")
	}
	if _, ok := s.Handle(ids[0]); ok {
		t.Error("handle still registered after removal")
	}

	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0].ID != ids[1] {
		t.Errorf("queue after removal = %v, want only second job", jobs)
	}
	if other, ok := s.Handle(ids[1]); !ok || other.Revoked() {
		t.Error("other job's handle must be untouched")
	}

	if err := s.Remove("no-such-id"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestRemoveRunningJobRejected(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			started <- struct{}{}
			<-release
			return &providers.Result{Audio: []byte(req.Text)}, nil
		},
	}
	s := newTestScheduler(t, provider, nil)

	ids := s.Enqueue([]string{"one"}, Options{Provider: "fake"})
	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	<-started
	if err := s.Remove(ids[0]); !errors.Is(err, ErrJobRunning) {
		t.Errorf("expected ErrJobRunning, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Once the job is no longer running, removal succeeds.
	if err := s.Remove(ids[0]); err != nil {
		t.Errorf("Remove after completion: %v", err)
	}
}

func TestClear(t *testing.T) {
	s := newTestScheduler(t, &fakeProvider{}, nil)

	ids := s.Enqueue([]string{"one", "two", "three"}, Options{Provider: "fake"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	handles := make([]interface{ Revoked() bool }, 0, len(ids))
	for _, id := range ids {
		h, ok := s.Handle(id)
		if !ok {
			t.Fatalf("missing handle for %s", id)
		}
		handles = append(handles, h)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	for i, h := range handles {
		if !h.Revoked() {
			t.Errorf("handle %d not revoked by Clear", i)
		}
	}

	state := s.State()
	if len(state.Items) != 0 {
		t.Errorf("queue not empty after Clear: %d items", len(state.Items))
	}
	if state.IsRunning || state.CancelRequested || state.CurrentItemID != "" {
		t.Errorf("state not reset after Clear: %+v", state)
	}
}

func TestClearWhileRunningRejected(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			started <- struct{}{}
			<-release
			return &providers.Result{Audio: []byte(req.Text)}, nil
		},
	}
	s := newTestScheduler(t, provider, nil)

	s.Enqueue([]string{"one"}, Options{Provider: "fake"})
	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	<-started
	if err := s.Clear(); !errors.Is(err, ErrSchedulerBusy) {
		t.Errorf("expected ErrSchedulerBusy, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Errorf("Clear after drain: %v", err)
	}
}

func TestProviderPanicBecomesJobFailure(t *testing.T) {
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			if req.Text == "boom" {
				panic("backend exploded")
			}
			return &providers.Result{Audio: []byte(req.Text), ContentType: "audio/wav"}, nil
		},
	}
	s := newTestScheduler(t, provider, nil)

	s.Enqueue([]string{"one", "boom", "three"}, Options{Provider: "fake"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	jobs := s.Jobs()
	if jobs[1].Status != StatusFailed {
		t.Errorf("panicking job status = %v, want failed", jobs[1].Status)
	}
	if !strings.Contains(jobs[1].ErrorMessage, "backend exploded") {
		t.Errorf("error message = %q, want panic text", jobs[1].ErrorMessage)
	}
	if jobs[2].Status != StatusCompleted {
		t.Errorf("queue halted after panic: job 3 status = %v", jobs[2].Status)
	}
	if s.State().IsRunning {
		t.Error("IsRunning should be false after panic recovery")
	}
}

func TestRecorderFailureDoesNotFailJob(t *testing.T) {
	recorder := &captureRecorder{err: errors.New("history store down")}
	s := newTestScheduler(t, &fakeProvider{}, recorder)

	s.Enqueue([]string{"one"}, Options{Provider: "fake"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if job := s.Jobs()[0]; job.Status != StatusCompleted {
		t.Errorf("job status = %v, want completed despite recorder failure", job.Status)
	}
}

func TestUnknownProviderFailsJob(t *testing.T) {
	s := newTestScheduler(t, &fakeProvider{}, nil)

	s.Enqueue([]string{"hello"}, Options{Provider: "nonexistent"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := s.Jobs()[0]
	if job.Status != StatusFailed {
		t.Errorf("job status = %v, want failed", job.Status)
	}
	if !strings.Contains(job.ErrorMessage, "unknown provider") {
		t.Errorf("error message = %q, want unknown provider", job.ErrorMessage)
	}
}

func TestDefaultVoiceFromRegistry(t *testing.T) {
	var gotVoice string
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			gotVoice = req.VoiceID
			return &providers.Result{Audio: []byte(req.Text)}, nil
		},
	}
	s := newTestScheduler(t, provider, nil)

	s.Enqueue([]string{"hello"}, Options{Provider: "fake"}) // no voice override
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if gotVoice != "fake-voice" {
		t.Errorf("voice = %q, want registry default fake-voice", gotVoice)
	}
}

func TestSynthesisTimeout(t *testing.T) {
	provider := &fakeProvider{
		synthesizeFunc: func(ctx context.Context, req providers.Request) (*providers.Result, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return &providers.Result{Audio: []byte(req.Text)}, nil
			}
		},
	}

	registry := providers.NewRegistry()
	if err := registry.Register(provider, providers.Defaults{VoiceID: "v"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	s, err := NewScheduler(SchedulerConfig{
		Registry:         registry,
		SynthesisTimeout: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.Enqueue([]string{"slow"}, Options{Provider: "fake"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	job := s.Jobs()[0]
	if job.Status != StatusFailed {
		t.Errorf("job status = %v, want failed on timeout", job.Status)
	}
	if !strings.Contains(job.ErrorMessage, "deadline") {
		t.Errorf("error message = %q, want deadline mention", job.ErrorMessage)
	}
}

func TestGlossaryRulesForwarded(t *testing.T) {
	var gotRules []providers.Rule
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			gotRules = req.Rules
			return &providers.Result{Audio: []byte(req.Text)}, nil
		},
	}

	registry := providers.NewRegistry()
	if err := registry.Register(provider, providers.Defaults{VoiceID: "v"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	rules := []providers.Rule{{Match: "TTS", Replace: "text to speech"}}
	s, err := NewScheduler(SchedulerConfig{Registry: registry, Rules: rules})
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}

	s.Enqueue([]string{"TTS demo"}, Options{Provider: "fake"})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(gotRules) != 1 || gotRules[0].Match != "TTS" {
		t.Errorf("rules forwarded = %v, want the configured glossary", gotRules)
	}
}

func TestJobSnapshotIsolation(t *testing.T) {
	s := newTestScheduler(t, &fakeProvider{}, nil)
	ids := s.Enqueue([]string{"hello"}, Options{Provider: "fake"})

	snapshot, err := s.Job(ids[0])
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	snapshot.Status = StatusFailed
	snapshot.Text = "mutated"

	fresh, err := s.Job(ids[0])
	if err != nil {
		t.Fatalf("Job: %v", err)
	}
	if fresh.Status != StatusPending || fresh.Text != "hello" {
		t.Error("mutating a snapshot leaked into scheduler state")
	}
}

func TestJobStatusString(t *testing.T) {
	tests := []struct {
		status JobStatus
		want   string
	}{
		{StatusPending, "pending"},
		{StatusRunning, "running"},
		{StatusCompleted, "completed"},
		{StatusFailed, "failed"},
		{StatusCancelled, "cancelled"},
		{JobStatus(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("JobStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStartOnEmptyQueue(t *testing.T) {
	s := newTestScheduler(t, &fakeProvider{}, nil)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start on empty queue: %v", err)
	}
	if s.State().IsRunning {
		t.Error("IsRunning should be false after empty drain")
	}
}

func TestWaitingStartHonorsContext(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			started <- struct{}{}
			<-release
			return &providers.Result{Audio: []byte(req.Text)}, nil
		},
	}
	s := newTestScheduler(t, provider, nil)
	s.Enqueue([]string{"one"}, Options{Provider: "fake"})

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	waitErr := make(chan error, 1)
	go func() { waitErr <- s.Start(ctx) }()
	cancel()

	if err := <-waitErr; !errors.Is(err, context.Canceled) {
		t.Errorf("waiting Start returned %v, want context.Canceled", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func TestEnqueueWhileRunningIsPickedUp(t *testing.T) {
	var mu sync.Mutex
	var processed []string
	release := make(chan struct{})
	provider := &fakeProvider{
		synthesizeFunc: func(_ context.Context, req providers.Request) (*providers.Result, error) {
			mu.Lock()
			processed = append(processed, req.Text)
			first := len(processed) == 1
			mu.Unlock()
			if first {
				<-release
			}
			return &providers.Result{Audio: []byte(req.Text)}, nil
		},
	}
	s := newTestScheduler(t, provider, nil)

	s.Enqueue([]string{"one"}, Options{Provider: "fake"})
	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processed) == 1
	})

	s.Enqueue([]string{"two"}, Options{Provider: "fake"})
	close(release)

	if err := <-done; err != nil {
		t.Fatalf("Start: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(processed) != "[one two]" {
		t.Errorf("processed = %v, want [one two]", processed)
	}
}

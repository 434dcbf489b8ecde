package audio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Handle errors.
var (
	// ErrHandleRevoked is returned when a revoked handle is dereferenced
	// or revoked a second time.
	ErrHandleRevoked = errors.New("audio handle has been revoked")
	// ErrHandleExists is returned when a handle is created for a job that
	// already owns one.
	ErrHandleExists = errors.New("audio handle already exists for job")
	// ErrHandleNotFound is returned when no handle is registered for a job.
	ErrHandleNotFound = errors.New("no audio handle for job")
)

// Handle is a revocable reference to decoded audio bytes. A handle is owned
// exclusively by the job that produced it and is revoked exactly once.
type Handle struct {
	mu          sync.Mutex
	data        []byte
	revoked     bool
	ContentType string
	SampleRate  int
	Duration    time.Duration
}

// Bytes returns the audio data, or ErrHandleRevoked after revocation.
func (h *Handle) Bytes() ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.revoked {
		return nil, ErrHandleRevoked
	}
	return h.data, nil
}

// Len returns the audio byte length, zero after revocation.
func (h *Handle) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.revoked {
		return 0
	}
	return len(h.data)
}

// Revoke releases the audio data. The second and later calls return
// ErrHandleRevoked.
func (h *Handle) Revoke() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.revoked {
		return ErrHandleRevoked
	}
	h.revoked = true
	h.data = nil
	return nil
}

// Revoked reports whether the handle has been released.
func (h *Handle) Revoked() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.revoked
}

// Manager tracks handle ownership by job id. It is the single release point
// for every handle the scheduler creates: a handle leaves the table only
// through Release or ReleaseAll, and revocation happens exactly once.
type Manager struct {
	mu      sync.Mutex
	handles map[string]*Handle
}

// NewManager creates an empty handle ownership table.
func NewManager() *Manager {
	return &Manager{handles: make(map[string]*Handle)}
}

// Create registers a new handle owned by jobID. Creating a second handle for
// the same job is an error; the job must release the first one beforehand.
func (m *Manager) Create(jobID string, data []byte, contentType string, sampleRate int, duration time.Duration) (*Handle, error) {
	if jobID == "" {
		return nil, errors.New("empty job id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.handles[jobID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrHandleExists, jobID)
	}

	h := &Handle{
		data:        data,
		ContentType: contentType,
		SampleRate:  sampleRate,
		Duration:    duration,
	}
	m.handles[jobID] = h
	return h, nil
}

// Get returns the handle owned by jobID, if any.
func (m *Manager) Get(jobID string) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.handles[jobID]
	return h, ok
}

// Release revokes and removes the handle owned by jobID. Releasing a job
// without a handle is a no-op so callers can release unconditionally on
// removal.
func (m *Manager) Release(jobID string) error {
	m.mu.Lock()
	h, ok := m.handles[jobID]
	if ok {
		delete(m.handles, jobID)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return h.Revoke()
}

// ReleaseAll revokes every outstanding handle and empties the table.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	handles := m.handles
	m.handles = make(map[string]*Handle)
	m.mu.Unlock()

	for _, h := range handles {
		_ = h.Revoke()
	}
}

// Len returns the number of outstanding handles.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

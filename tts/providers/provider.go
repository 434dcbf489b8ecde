// Package providers defines the capability abstraction for text-to-speech
// backends and a registry that dispatches synthesis requests to them.
package providers

import (
	"context"
	"fmt"
	"time"
)

// Voice represents a synthesis voice offered by a provider.
type Voice struct {
	ID       string // Backend-specific voice identifier
	Name     string // Human-readable name
	Language string // Language code (e.g., "en-US")
	Gender   string // Voice gender
}

// Settings holds style controls for a synthesis request.
type Settings struct {
	Model      string  // Backend model identifier, where applicable
	Speed      float64 // Speech rate multiplier (1.0 = normal)
	Pitch      float64 // Pitch adjustment
	SampleRate int     // Output sample rate in Hz
	Format     string  // Requested audio container/codec
}

// Request is a single synthesis request. Text must already be normalized;
// the provider applies Rules before transmission.
type Request struct {
	Text     string
	VoiceID  string
	Settings Settings
	Rules    []Rule
}

// Result is the outcome of a successful synthesis call.
type Result struct {
	Audio       []byte        // Encoded audio bytes
	ContentType string        // MIME type of Audio
	SampleRate  int           // Sample rate of the audio
	Duration    time.Duration // Duration of the audio
	Transcript  string        // Optional transcript returned by the backend
	RequestID   string        // Backend request identifier
}

// Provider is the capability set every synthesis backend implements.
// Implementations are stateless request/response adapters.
type Provider interface {
	// Name returns the registry tag for this provider (e.g., "openai").
	Name() string

	// Voices returns the voices this provider can synthesize with.
	Voices(ctx context.Context) ([]Voice, error)

	// Synthesize converts the request text to audio. Transport errors and
	// non-2xx responses are returned as errors; there is no adapter-level
	// retry.
	Synthesize(ctx context.Context, req Request) (*Result, error)
}

// ProviderError describes a failed call to a provider backend.
type ProviderError struct {
	Provider   string
	StatusCode int    // HTTP status, 0 for transport errors
	Message    string // Response excerpt or transport error text
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Package mock provides a deterministic on-device synthesizer. It backs the
// "mock" provider tag and serves as the fallback path for cloud providers
// running without credentials, so the rest of the pipeline never needs a
// separate no-audio branch.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"speechdeck/tts/audio"
	"speechdeck/tts/providers"
)

// Synthesis defaults.
const (
	DefaultSampleRate     = 22050
	DefaultWordsPerMinute = 150

	// Rendered tones stay quiet and inside the speech band.
	toneMinHz     = 110
	toneSpreadHz  = 330
	toneAmplitude = 0.15
)

// Synthesizer renders deterministic PCM16 mono audio for any non-empty text.
// Output duration follows word count at the configured speaking rate, and the
// waveform frequency derives from a hash of the text, so equal inputs always
// produce equal bytes.
type Synthesizer struct {
	wordsPerMinute int
	delay          time.Duration
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithWordsPerMinute sets the speaking rate used for duration estimation.
func WithWordsPerMinute(wpm int) Option {
	return func(s *Synthesizer) {
		if wpm > 0 {
			s.wordsPerMinute = wpm
		}
	}
}

// WithDelay adds a simulated processing delay per request.
func WithDelay(d time.Duration) Option {
	return func(s *Synthesizer) { s.delay = d }
}

// New creates a mock synthesizer.
func New(opts ...Option) *Synthesizer {
	s := &Synthesizer{wordsPerMinute: DefaultWordsPerMinute}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the provider tag.
func (s *Synthesizer) Name() string { return "mock" }

// Voices returns the built-in mock voices.
func (s *Synthesizer) Voices(_ context.Context) ([]providers.Voice, error) {
	return []providers.Voice{
		{ID: "mock-voice-1", Name: "Mock Voice 1", Language: "en-US", Gender: "neutral"},
		{ID: "mock-voice-2", Name: "Mock Voice 2", Language: "en-GB", Gender: "female"},
		{ID: "mock-voice-3", Name: "Mock Voice 3", Language: "en-US", Gender: "male"},
	}, nil
}

// Synthesize renders the request text as a WAV-wrapped tone. It never fails
// for text that survives normalization.
func (s *Synthesizer) Synthesize(ctx context.Context, req providers.Request) (*providers.Result, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	text := providers.ApplyRules(req.Text, s.Name(), req.Rules)
	sampleRate := req.Settings.SampleRate
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	wpm := s.wordsPerMinute
	if req.Settings.Speed > 0 {
		wpm = int(float64(wpm) * req.Settings.Speed)
	}
	duration := EstimateDuration(text, wpm)

	pcm := renderTone(text, duration, sampleRate)
	wav := audio.EncodeWAV(pcm, sampleRate, 1)

	return &providers.Result{
		Audio:       wav,
		ContentType: "audio/wav",
		SampleRate:  sampleRate,
		Duration:    audio.PCMDuration(len(pcm), sampleRate, 1),
		Transcript:  text,
		RequestID:   requestID(text),
	}, nil
}

// EstimateDuration estimates speaking time for text at the given rate.
func EstimateDuration(text string, wordsPerMinute int) time.Duration {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	words := len(strings.Fields(text))
	if words < 1 {
		words = 1
	}
	seconds := float64(words) * 60.0 / float64(wordsPerMinute)
	return time.Duration(seconds * float64(time.Second))
}

// renderTone produces 16-bit mono PCM: a quiet sine whose frequency is a pure
// function of the text.
func renderTone(text string, duration time.Duration, sampleRate int) []byte {
	samples := int(duration.Seconds() * float64(sampleRate))
	if samples < 1 {
		samples = 1
	}

	freq := float64(toneMinHz + textHash(text)%toneSpreadHz)
	step := 2 * math.Pi * freq / float64(sampleRate)

	pcm := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(math.Sin(float64(i)*step) * toneAmplitude * math.MaxInt16)
		pcm[i*2] = byte(v)
		pcm[i*2+1] = byte(v >> 8)
	}
	return pcm
}

func textHash(text string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	return int(h.Sum32())
}

func requestID(text string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	const hexdigits = "0123456789abcdef"
	sum := h.Sum64()
	id := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		id[i] = hexdigits[sum&0xf]
		sum >>= 4
	}
	return "mock-" + string(id)
}

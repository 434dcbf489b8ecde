// Package openai adapts the OpenAI speech endpoint to the provider
// capability set. Without an API key it degrades to the deterministic mock
// synthesizer instead of failing.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"speechdeck/tts/audio"
	"speechdeck/tts/providers"
	"speechdeck/tts/providers/mock"
)

const (
	// DefaultBaseURL is the production API endpoint.
	DefaultBaseURL = "https://api.openai.com"
	// DefaultModel is used when the request settings carry no model.
	DefaultModel = "gpt-4o-mini-tts"

	speechPath = "/v1/audio/speech"
)

// Config holds the adapter configuration.
type Config struct {
	APIKey    string
	BaseURL   string // Defaults to DefaultBaseURL
	Model     string // Defaults to DefaultModel
	ForceMock bool   // Use the mock path even when a key is configured
}

// Provider calls the OpenAI speech API.
type Provider struct {
	cfg      Config
	client   *http.Client
	fallback *mock.Synthesizer
	logger   *log.Logger
}

// New creates an OpenAI provider adapter.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return &Provider{
		cfg:      cfg,
		client:   &http.Client{},
		fallback: mock.New(),
		logger:   log.Default(),
	}
}

// Name returns the provider tag.
func (p *Provider) Name() string { return "openai" }

// Voices returns the voices the speech endpoint accepts. The endpoint has no
// voice listing call, so the set is fixed.
func (p *Provider) Voices(_ context.Context) ([]providers.Voice, error) {
	names := []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer"}
	voices := make([]providers.Voice, 0, len(names))
	for _, name := range names {
		voices = append(voices, providers.Voice{ID: name, Name: name, Language: "en-US"})
	}
	return voices, nil
}

// useMock reports whether requests should take the deterministic local path.
func (p *Provider) useMock() bool {
	return p.cfg.ForceMock || p.cfg.APIKey == ""
}

// Synthesize issues one speech request. Non-2xx responses and transport
// errors are returned as *providers.ProviderError.
func (p *Provider) Synthesize(ctx context.Context, req providers.Request) (*providers.Result, error) {
	if p.useMock() {
		p.logger.Debug("openai: unconfigured, using mock synthesis", "voice", req.VoiceID)
		return p.fallback.Synthesize(ctx, req)
	}

	text := providers.ApplyRules(req.Text, p.Name(), req.Rules)

	model := req.Settings.Model
	if model == "" {
		model = p.cfg.Model
	}
	speed := req.Settings.Speed
	if speed == 0 {
		speed = 1.0
	}
	format := req.Settings.Format
	if format == "" {
		format = "wav"
	}

	payload := map[string]any{
		"model":           model,
		"voice":           req.VoiceID,
		"speed":           speed,
		"input":           text,
		"response_format": format,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+speechPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &providers.ProviderError{Provider: p.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &providers.ProviderError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    errorExcerpt(respBody, resp.Status),
		}
	}

	result := &providers.Result{
		Audio:       respBody,
		ContentType: resp.Header.Get("Content-Type"),
		SampleRate:  req.Settings.SampleRate,
		RequestID:   resp.Header.Get("X-Request-Id"),
	}
	if result.ContentType == "" {
		result.ContentType = "audio/" + format
	}

	// WAV responses carry enough header to report real duration and rate.
	if f, pcm, parseErr := audio.ParseWAV(respBody); parseErr == nil {
		result.SampleRate = f.SampleRate
		result.Duration = audio.PCMDuration(len(pcm), f.SampleRate, f.Channels)
	}

	return result, nil
}

// errorExcerpt extracts a readable message from an API error body.
func errorExcerpt(body []byte, status string) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(body) > 0 {
		const maxExcerpt = 200
		if len(body) > maxExcerpt {
			body = body[:maxExcerpt]
		}
		return string(body)
	}
	return status
}

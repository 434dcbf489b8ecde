// Package google adapts the Google Cloud Text-to-Speech REST API to the
// provider capability set. Without an API key it degrades to the
// deterministic mock synthesizer.
package google

import (
	"bytes"
	"context"
	"encoding/base64"
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
	DefaultBaseURL = "https://texttospeech.googleapis.com"

	synthesizePath = "/v1/text:synthesize"
	voicesPath     = "/v1/voices"
)

// Config holds the adapter configuration.
type Config struct {
	APIKey       string
	BaseURL      string // Defaults to DefaultBaseURL
	LanguageCode string // Defaults to "en-US"
	ForceMock    bool
}

// Provider calls the Google Cloud TTS REST API.
type Provider struct {
	cfg      Config
	client   *http.Client
	fallback *mock.Synthesizer
	logger   *log.Logger
}

// New creates a Google TTS provider adapter.
func New(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	return &Provider{
		cfg:      cfg,
		client:   &http.Client{},
		fallback: mock.New(),
		logger:   log.Default(),
	}
}

// Name returns the provider tag.
func (p *Provider) Name() string { return "google" }

func (p *Provider) useMock() bool {
	return p.cfg.ForceMock || p.cfg.APIKey == ""
}

// Voices lists the voices available for the configured language.
func (p *Provider) Voices(ctx context.Context) ([]providers.Voice, error) {
	if p.useMock() {
		return p.fallback.Voices(ctx)
	}

	url := fmt.Sprintf("%s%s?key=%s&languageCode=%s", p.cfg.BaseURL, voicesPath, p.cfg.APIKey, p.cfg.LanguageCode)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("google: build voices request: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &providers.ProviderError{Provider: p.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("google: read voices response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &providers.ProviderError{Provider: p.Name(), StatusCode: resp.StatusCode, Message: errorExcerpt(body, resp.Status)}
	}

	var parsed struct {
		Voices []struct {
			Name          string   `json:"name"`
			LanguageCodes []string `json:"languageCodes"`
			SSMLGender    string   `json:"ssmlGender"`
		} `json:"voices"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("google: decode voices response: %w", err)
	}

	voices := make([]providers.Voice, 0, len(parsed.Voices))
	for _, v := range parsed.Voices {
		language := p.cfg.LanguageCode
		if len(v.LanguageCodes) > 0 {
			language = v.LanguageCodes[0]
		}
		voices = append(voices, providers.Voice{
			ID:       v.Name,
			Name:     v.Name,
			Language: language,
			Gender:   v.SSMLGender,
		})
	}
	return voices, nil
}

// Synthesize issues one synthesis request. The API returns base64 LINEAR16
// audio, which is a WAV container, so the result feeds the same pipeline as
// every other provider.
func (p *Provider) Synthesize(ctx context.Context, req providers.Request) (*providers.Result, error) {
	if p.useMock() {
		p.logger.Debug("google: unconfigured, using mock synthesis", "voice", req.VoiceID)
		return p.fallback.Synthesize(ctx, req)
	}

	text := providers.ApplyRules(req.Text, p.Name(), req.Rules)

	speakingRate := req.Settings.Speed
	if speakingRate == 0 {
		speakingRate = 1.0
	}

	audioConfig := map[string]any{
		"audioEncoding": "LINEAR16",
		"speakingRate":  speakingRate,
		"pitch":         req.Settings.Pitch,
	}
	if req.Settings.SampleRate > 0 {
		audioConfig["sampleRateHertz"] = req.Settings.SampleRate
	}

	payload := map[string]any{
		"input": map[string]any{"text": text},
		"voice": map[string]any{
			"languageCode": p.cfg.LanguageCode,
			"name":         req.VoiceID,
		},
		"audioConfig": audioConfig,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("google: marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s%s?key=%s", p.cfg.BaseURL, synthesizePath, p.cfg.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("google: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &providers.ProviderError{Provider: p.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("google: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &providers.ProviderError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    errorExcerpt(respBody, resp.Status),
		}
	}

	var parsed struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("google: decode response: %w", err)
	}
	audioBytes, err := base64.StdEncoding.DecodeString(parsed.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("google: decode audio content: %w", err)
	}

	result := &providers.Result{
		Audio:       audioBytes,
		ContentType: "audio/wav",
		SampleRate:  req.Settings.SampleRate,
		RequestID:   resp.Header.Get("X-Goog-Request-Id"),
	}
	if f, pcm, parseErr := audio.ParseWAV(audioBytes); parseErr == nil {
		result.SampleRate = f.SampleRate
		result.Duration = audio.PCMDuration(len(pcm), f.SampleRate, f.Channels)
	}

	return result, nil
}

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

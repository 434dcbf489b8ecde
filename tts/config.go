package tts

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"speechdeck/tts/providers"
	"speechdeck/tts/providers/google"
	"speechdeck/tts/providers/mock"
	"speechdeck/tts/providers/openai"
)

// Config contains all synthesis configuration options.
type Config struct {
	// Global settings
	DefaultProvider  string        `yaml:"provider" env:"SPEECHDECK_PROVIDER" envDefault:"mock"`
	SampleRate       int           `yaml:"sample_rate" env:"SPEECHDECK_SAMPLE_RATE" envDefault:"22050"`
	SynthesisTimeout time.Duration `yaml:"synthesis_timeout" env:"SPEECHDECK_SYNTHESIS_TIMEOUT" envDefault:"60s"`

	// Provider-specific configurations
	OpenAI OpenAIConfig `yaml:"openai"`
	Google GoogleConfig `yaml:"google"`
	Mock   MockConfig   `yaml:"mock"`
}

// OpenAIConfig contains OpenAI speech endpoint settings.
type OpenAIConfig struct {
	APIKey    string  `yaml:"api_key" env:"SPEECHDECK_OPENAI_API_KEY"`
	Model     string  `yaml:"model" env:"SPEECHDECK_OPENAI_MODEL" envDefault:"gpt-4o-mini-tts"`
	Voice     string  `yaml:"voice" env:"SPEECHDECK_OPENAI_VOICE" envDefault:"alloy"`
	Speed     float64 `yaml:"speed" env:"SPEECHDECK_OPENAI_SPEED" envDefault:"1.0"`
	Format    string  `yaml:"format" env:"SPEECHDECK_OPENAI_FORMAT" envDefault:"wav"`
	ForceMock bool    `yaml:"force_mock" env:"SPEECHDECK_OPENAI_FORCE_MOCK" envDefault:"false"`
}

// GoogleConfig contains Google Cloud TTS settings.
type GoogleConfig struct {
	APIKey       string  `yaml:"api_key" env:"SPEECHDECK_GOOGLE_API_KEY"`
	LanguageCode string  `yaml:"language_code" env:"SPEECHDECK_GOOGLE_LANGUAGE_CODE" envDefault:"en-US"`
	VoiceName    string  `yaml:"voice_name" env:"SPEECHDECK_GOOGLE_VOICE_NAME" envDefault:"en-US-Standard-A"`
	SpeakingRate float64 `yaml:"speaking_rate" env:"SPEECHDECK_GOOGLE_SPEAKING_RATE" envDefault:"1.0"`
	Pitch        float64 `yaml:"pitch" env:"SPEECHDECK_GOOGLE_PITCH" envDefault:"0.0"`
	ForceMock    bool    `yaml:"force_mock" env:"SPEECHDECK_GOOGLE_FORCE_MOCK" envDefault:"false"`
}

// MockConfig contains settings for the deterministic fallback synthesizer.
type MockConfig struct {
	WordsPerMinute  int           `yaml:"words_per_minute" env:"SPEECHDECK_MOCK_WORDS_PER_MINUTE" envDefault:"150"`
	GenerationDelay time.Duration `yaml:"generation_delay" env:"SPEECHDECK_MOCK_GENERATION_DELAY" envDefault:"0s"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultProvider:  "mock",
		SampleRate:       22050,
		SynthesisTimeout: DefaultSynthesisTimeout,
		OpenAI: OpenAIConfig{
			Model:  "gpt-4o-mini-tts",
			Voice:  "alloy",
			Speed:  1.0,
			Format: "wav",
		},
		Google: GoogleConfig{
			LanguageCode: "en-US",
			VoiceName:    "en-US-Standard-A",
			SpeakingRate: 1.0,
		},
		Mock: MockConfig{
			WordsPerMinute: mock.DefaultWordsPerMinute,
		},
	}
}

// LoadConfigFromEnv parses configuration from the environment.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validProviders := map[string]bool{"mock": true, "openai": true, "google": true}
	if !validProviders[c.DefaultProvider] {
		return fmt.Errorf("invalid provider %q: must be one of [mock openai google]", c.DefaultProvider)
	}

	validSampleRates := []int{8000, 16000, 22050, 24000, 44100, 48000}
	sampleRateValid := false
	for _, sr := range validSampleRates {
		if c.SampleRate == sr {
			sampleRateValid = true
			break
		}
	}
	if !sampleRateValid {
		return fmt.Errorf("invalid sample rate %d: must be one of %v", c.SampleRate, validSampleRates)
	}

	if c.SynthesisTimeout < time.Second {
		return fmt.Errorf("synthesis timeout must be at least 1 second, got %v", c.SynthesisTimeout)
	}

	if err := c.OpenAI.Validate(); err != nil {
		return fmt.Errorf("openai config: %w", err)
	}
	if err := c.Google.Validate(); err != nil {
		return fmt.Errorf("google config: %w", err)
	}
	if err := c.Mock.Validate(); err != nil {
		return fmt.Errorf("mock config: %w", err)
	}
	return nil
}

// Validate checks if the OpenAI configuration is valid.
func (c *OpenAIConfig) Validate() error {
	if c.Speed < 0.25 || c.Speed > 4.0 {
		return fmt.Errorf("speed must be between 0.25 and 4.0, got %f", c.Speed)
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	return nil
}

// Validate checks if the Google configuration is valid.
func (c *GoogleConfig) Validate() error {
	if c.SpeakingRate < 0.25 || c.SpeakingRate > 4.0 {
		return fmt.Errorf("speaking_rate must be between 0.25 and 4.0, got %f", c.SpeakingRate)
	}
	if c.Pitch < -20.0 || c.Pitch > 20.0 {
		return fmt.Errorf("pitch must be between -20.0 and 20.0, got %f", c.Pitch)
	}
	if c.LanguageCode == "" {
		return fmt.Errorf("language_code cannot be empty")
	}
	return nil
}

// Validate checks if the mock configuration is valid.
func (c *MockConfig) Validate() error {
	if c.WordsPerMinute < 50 || c.WordsPerMinute > 500 {
		return fmt.Errorf("words_per_minute must be between 50 and 500, got %d", c.WordsPerMinute)
	}
	return nil
}

// BuildRegistry constructs a provider registry with every backend the
// configuration describes, each registered with its default voice and style
// settings.
func BuildRegistry(cfg Config) (*providers.Registry, error) {
	registry := providers.NewRegistry()

	mockSynth := mock.New(
		mock.WithWordsPerMinute(cfg.Mock.WordsPerMinute),
		mock.WithDelay(cfg.Mock.GenerationDelay),
	)
	if err := registry.Register(mockSynth, providers.Defaults{
		VoiceID: "mock-voice-1",
		Settings: providers.Settings{
			Speed:      1.0,
			SampleRate: cfg.SampleRate,
			Format:     "wav",
		},
	}); err != nil {
		return nil, err
	}

	openaiProvider := openai.New(openai.Config{
		APIKey:    cfg.OpenAI.APIKey,
		Model:     cfg.OpenAI.Model,
		ForceMock: cfg.OpenAI.ForceMock,
	})
	if err := registry.Register(openaiProvider, providers.Defaults{
		VoiceID: cfg.OpenAI.Voice,
		Settings: providers.Settings{
			Model:      cfg.OpenAI.Model,
			Speed:      cfg.OpenAI.Speed,
			SampleRate: cfg.SampleRate,
			Format:     cfg.OpenAI.Format,
		},
	}); err != nil {
		return nil, err
	}

	googleProvider := google.New(google.Config{
		APIKey:       cfg.Google.APIKey,
		LanguageCode: cfg.Google.LanguageCode,
		ForceMock:    cfg.Google.ForceMock,
	})
	if err := registry.Register(googleProvider, providers.Defaults{
		VoiceID: cfg.Google.VoiceName,
		Settings: providers.Settings{
			Speed:      cfg.Google.SpeakingRate,
			Pitch:      cfg.Google.Pitch,
			SampleRate: cfg.SampleRate,
			Format:     "wav",
		},
	}); err != nil {
		return nil, err
	}

	return registry, nil
}

package tts

import (
	"fmt"

	"github.com/spf13/viper"

	"speechdeck/tts/providers"
)

// LoadConfigFromViper loads synthesis configuration from Viper, layered on
// top of the defaults. Keys live under the "tts" namespace of the config
// file.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("tts.provider") {
		cfg.DefaultProvider = viper.GetString("tts.provider")
	}
	if viper.IsSet("tts.sample_rate") {
		cfg.SampleRate = viper.GetInt("tts.sample_rate")
	}
	if viper.IsSet("tts.synthesis_timeout") {
		cfg.SynthesisTimeout = viper.GetDuration("tts.synthesis_timeout")
	}

	cfg.OpenAI = loadOpenAIConfig(cfg.OpenAI)
	cfg.Google = loadGoogleConfig(cfg.Google)
	cfg.Mock = loadMockConfig(cfg.Mock)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadOpenAIConfig(cfg OpenAIConfig) OpenAIConfig {
	if viper.IsSet("tts.openai.api_key") {
		cfg.APIKey = viper.GetString("tts.openai.api_key")
	}
	if viper.IsSet("tts.openai.model") {
		cfg.Model = viper.GetString("tts.openai.model")
	}
	if viper.IsSet("tts.openai.voice") {
		cfg.Voice = viper.GetString("tts.openai.voice")
	}
	if viper.IsSet("tts.openai.speed") {
		cfg.Speed = viper.GetFloat64("tts.openai.speed")
	}
	if viper.IsSet("tts.openai.format") {
		cfg.Format = viper.GetString("tts.openai.format")
	}
	if viper.IsSet("tts.openai.force_mock") {
		cfg.ForceMock = viper.GetBool("tts.openai.force_mock")
	}
	return cfg
}

func loadGoogleConfig(cfg GoogleConfig) GoogleConfig {
	if viper.IsSet("tts.google.api_key") {
		cfg.APIKey = viper.GetString("tts.google.api_key")
	}
	if viper.IsSet("tts.google.language_code") {
		cfg.LanguageCode = viper.GetString("tts.google.language_code")
	}
	if viper.IsSet("tts.google.voice_name") {
		cfg.VoiceName = viper.GetString("tts.google.voice_name")
	}
	if viper.IsSet("tts.google.speaking_rate") {
		cfg.SpeakingRate = viper.GetFloat64("tts.google.speaking_rate")
	}
	if viper.IsSet("tts.google.pitch") {
		cfg.Pitch = viper.GetFloat64("tts.google.pitch")
	}
	if viper.IsSet("tts.google.force_mock") {
		cfg.ForceMock = viper.GetBool("tts.google.force_mock")
	}
	return cfg
}

func loadMockConfig(cfg MockConfig) MockConfig {
	if viper.IsSet("tts.mock.words_per_minute") {
		cfg.WordsPerMinute = viper.GetInt("tts.mock.words_per_minute")
	}
	if viper.IsSet("tts.mock.generation_delay") {
		cfg.GenerationDelay = viper.GetDuration("tts.mock.generation_delay")
	}
	return cfg
}

// LoadGlossaryFromViper reads pronunciation/glossary overrides from the
// config file, e.g.:
//
//	tts:
//	  glossary:
//	    - match: "TTS"
//	      replace: "text to speech"
//	      provider: ""        # empty applies to all providers
func LoadGlossaryFromViper() ([]providers.Rule, error) {
	var entries []struct {
		Match    string `mapstructure:"match"`
		Replace  string `mapstructure:"replace"`
		Provider string `mapstructure:"provider"`
	}
	if err := viper.UnmarshalKey("tts.glossary", &entries); err != nil {
		return nil, fmt.Errorf("invalid glossary rules: %w", err)
	}

	rules := make([]providers.Rule, 0, len(entries))
	for _, e := range entries {
		rules = append(rules, providers.Rule{Match: e.Match, Replace: e.Replace, Provider: e.Provider})
	}
	return rules, nil
}

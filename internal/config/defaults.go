package config

import (
	"github.com/rbright/echonews/internal/dispatch"
	"github.com/rbright/echonews/internal/news"
	"github.com/rbright/echonews/internal/trigger"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		News: NewsConfig{
			BaseURL:      news.DefaultBaseURL,
			APIKeyEnv:    "NEWSDATA_API_KEY",
			Language:     "en",
			TopicSize:    3,
			LatestSize:   5,
			InterestSize: 2,
			TimeoutMS:    30000,
		},
		Interests:       nil,
		Triggers:        append([]string(nil), trigger.DefaultPhrases...),
		RecencyKeywords: append([]string(nil), dispatch.DefaultRecencyKeywords...),
		QA: QAConfig{
			Provider:  "gemini",
			TimeoutMS: 30000,
		},
		Speech: SpeechConfig{
			APIKeyEnv: "OPENAI_API_KEY",
			STTModel:  "whisper-1",
			Language:  "en",
			TTSModel:  "tts-1",
			Voice:     "alloy",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Listener: ListenerConfig{
			ListenTimeoutMS: 5000,
			QuietPeriodMS:   700,
			MaxPhraseMS:     10000,
			PreRollMS:       300,
			MinSpeechMS:     120,
			EnergyThreshold: 450,
			VoiceRatio:      0.5,
			StopTimeoutMS:   1000,
		},
		Narration: NarrationConfig{Preempt: true},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		Indicator: IndicatorConfig{
			Enable:      true,
			SoundEnable: true,
		},
	}
}

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/rbright/echonews/internal/news"
	"github.com/rbright/echonews/internal/qa"
)

const maxPageSize = 50

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if err := validateHTTPURL("news.base_url", cfg.News.BaseURL); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.News.Language) == "" {
		return nil, fmt.Errorf("news.language must not be empty")
	}
	for name, size := range map[string]int{
		"news.topic_size":    cfg.News.TopicSize,
		"news.latest_size":   cfg.News.LatestSize,
		"news.interest_size": cfg.News.InterestSize,
	} {
		if size <= 0 || size > maxPageSize {
			return nil, fmt.Errorf("%s must be between 1 and %d", name, maxPageSize)
		}
	}
	if cfg.News.TimeoutMS <= 0 {
		return nil, fmt.Errorf("news.timeout_ms must be > 0")
	}
	if Secret(cfg.News.APIKeyEnv) == "" {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("%s is not set; news requests will fail", cfg.News.APIKeyEnv)})
	}

	if len(cfg.Interests) > news.MaxInterests {
		return nil, fmt.Errorf("interests allows at most %d topics, got %d", news.MaxInterests, len(cfg.Interests))
	}
	if len(cfg.Triggers) == 0 {
		return nil, fmt.Errorf("triggers must contain at least one phrase")
	}
	if len(cfg.RecencyKeywords) == 0 {
		warnings = append(warnings, Warning{Message: "recency_keywords is empty; recency requests will be treated as topics"})
	}

	provider, err := qa.ParseProvider(cfg.QA.Provider)
	if err != nil {
		return nil, fmt.Errorf("qa.provider: %w", err)
	}
	if cfg.QA.BaseURL != "" {
		if err := validateHTTPURL("qa.base_url", cfg.QA.BaseURL); err != nil {
			return nil, err
		}
	}
	if cfg.QA.TimeoutMS < 0 {
		return nil, fmt.Errorf("qa.timeout_ms must be >= 0")
	}
	if provider != qa.ProviderNone && Secret(cfg.QAKeyEnv()) == "" {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("%s is not set; question answering is disabled", cfg.QAKeyEnv())})
	}

	if strings.TrimSpace(cfg.Speech.STTModel) == "" {
		return nil, fmt.Errorf("speech.stt_model must not be empty")
	}
	if strings.TrimSpace(cfg.Speech.TTSModel) == "" {
		return nil, fmt.Errorf("speech.tts_model must not be empty")
	}
	if strings.TrimSpace(cfg.Speech.Voice) == "" {
		return nil, fmt.Errorf("speech.voice must not be empty")
	}
	if cfg.Speech.BaseURL != "" {
		if err := validateHTTPURL("speech.base_url", cfg.Speech.BaseURL); err != nil {
			return nil, err
		}
	}

	l := cfg.Listener
	if l.ListenTimeoutMS < 0 {
		return nil, fmt.Errorf("listener.listen_timeout_ms must be >= 0")
	}
	if l.QuietPeriodMS <= 0 {
		return nil, fmt.Errorf("listener.quiet_period_ms must be > 0")
	}
	if l.MaxPhraseMS <= 0 {
		return nil, fmt.Errorf("listener.max_phrase_ms must be > 0")
	}
	if l.MaxPhraseMS <= l.QuietPeriodMS {
		return nil, fmt.Errorf("listener.max_phrase_ms must exceed listener.quiet_period_ms")
	}
	if l.PreRollMS < 0 || l.MinSpeechMS < 0 || l.StopTimeoutMS < 0 {
		return nil, fmt.Errorf("listener durations must be >= 0")
	}
	if l.EnergyThreshold <= 0 {
		return nil, fmt.Errorf("listener.energy_threshold must be > 0")
	}
	if l.VoiceRatio < 0 || l.VoiceRatio > 1 {
		return nil, fmt.Errorf("listener.voice_ratio must be between 0 and 1")
	}

	if cfg.Narration.PlayerCmd.Raw != "" && len(cfg.Narration.PlayerCmd.Argv) == 0 {
		return nil, fmt.Errorf("narration.player_cmd is configured but empty")
	}
	if !cfg.Narration.Preempt {
		warnings = append(warnings, Warning{Message: "narration.preempt=false; interrupted narration keeps playing until it ends"})
	}

	return warnings, nil
}

func validateHTTPURL(field string, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", field)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", field)
	}
	return nil
}

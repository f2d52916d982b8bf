package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rbright/echonews/internal/news"
)

type jsoncConfig struct {
	News            *jsoncNews       `json:"news"`
	Interests       *jsoncStringList `json:"interests"`
	Triggers        *jsoncStringList `json:"triggers"`
	RecencyKeywords *jsoncStringList `json:"recency_keywords"`
	QA              *jsoncQA         `json:"qa"`
	Speech          *jsoncSpeech     `json:"speech"`
	Audio           *jsoncAudio      `json:"audio"`
	Listener        *jsoncListener   `json:"listener"`
	Narration       *jsoncNarration  `json:"narration"`
	ClipboardCmd    *string          `json:"clipboard_cmd"`
	Indicator       *jsoncIndicator  `json:"indicator"`
	Debug           *jsoncDebug      `json:"debug"`
}

type jsoncNews struct {
	BaseURL      *string `json:"base_url"`
	APIKeyEnv    *string `json:"api_key_env"`
	Language     *string `json:"language"`
	TopicSize    *int    `json:"topic_size"`
	LatestSize   *int    `json:"latest_size"`
	InterestSize *int    `json:"interest_size"`
	TimeoutMS    *int    `json:"timeout_ms"`
}

type jsoncQA struct {
	Provider  *string `json:"provider"`
	Model     *string `json:"model"`
	APIKeyEnv *string `json:"api_key_env"`
	BaseURL   *string `json:"base_url"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncSpeech struct {
	APIKeyEnv *string `json:"api_key_env"`
	BaseURL   *string `json:"base_url"`
	STTModel  *string `json:"stt_model"`
	Language  *string `json:"language"`
	TTSModel  *string `json:"tts_model"`
	Voice     *string `json:"voice"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncListener struct {
	ListenTimeoutMS *int     `json:"listen_timeout_ms"`
	QuietPeriodMS   *int     `json:"quiet_period_ms"`
	MaxPhraseMS     *int     `json:"max_phrase_ms"`
	PreRollMS       *int     `json:"pre_roll_ms"`
	MinSpeechMS     *int     `json:"min_speech_ms"`
	EnergyThreshold *float64 `json:"energy_threshold"`
	VoiceRatio      *float64 `json:"voice_ratio"`
	StopTimeoutMS   *int     `json:"stop_timeout_ms"`
}

type jsoncNarration struct {
	Preempt   *bool   `json:"preempt"`
	PlayerCmd *string `json:"player_cmd"`
}

type jsoncIndicator struct {
	Enable        *bool   `json:"enable"`
	SoundEnable   *bool   `json:"sound_enable"`
	TextListening *string `json:"text_listening"`
	TextTrigger   *string `json:"text_trigger"`
	TextResume    *string `json:"text_resume"`
	TextError     *string `json:"text_error"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
	Verbose   *bool `json:"verbose"`
}

// jsoncStringList accepts either a string array or a comma-delimited string.
type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = trimAll(list)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = trimAll(strings.Split(single, ","))
		return nil
	}

	return fmt.Errorf("expected string array or comma-delimited string")
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func (payload jsoncConfig) applyTo(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if n := payload.News; n != nil {
		setString(&cfg.News.BaseURL, n.BaseURL)
		setString(&cfg.News.APIKeyEnv, n.APIKeyEnv)
		setString(&cfg.News.Language, n.Language)
		setInt(&cfg.News.TopicSize, n.TopicSize)
		setInt(&cfg.News.LatestSize, n.LatestSize)
		setInt(&cfg.News.InterestSize, n.InterestSize)
		setInt(&cfg.News.TimeoutMS, n.TimeoutMS)
	}

	if payload.Interests != nil {
		interests, interestWarnings := canonicalInterests(*payload.Interests)
		cfg.Interests = interests
		warnings = append(warnings, interestWarnings...)
	}
	if payload.Triggers != nil {
		cfg.Triggers = []string(*payload.Triggers)
	}
	if payload.RecencyKeywords != nil {
		cfg.RecencyKeywords = []string(*payload.RecencyKeywords)
	}

	if q := payload.QA; q != nil {
		setString(&cfg.QA.Provider, q.Provider)
		setString(&cfg.QA.Model, q.Model)
		setString(&cfg.QA.APIKeyEnv, q.APIKeyEnv)
		setString(&cfg.QA.BaseURL, q.BaseURL)
		setInt(&cfg.QA.TimeoutMS, q.TimeoutMS)
	}

	if s := payload.Speech; s != nil {
		setString(&cfg.Speech.APIKeyEnv, s.APIKeyEnv)
		setString(&cfg.Speech.BaseURL, s.BaseURL)
		setString(&cfg.Speech.STTModel, s.STTModel)
		setString(&cfg.Speech.Language, s.Language)
		setString(&cfg.Speech.TTSModel, s.TTSModel)
		setString(&cfg.Speech.Voice, s.Voice)
	}

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}

	if l := payload.Listener; l != nil {
		setInt(&cfg.Listener.ListenTimeoutMS, l.ListenTimeoutMS)
		setInt(&cfg.Listener.QuietPeriodMS, l.QuietPeriodMS)
		setInt(&cfg.Listener.MaxPhraseMS, l.MaxPhraseMS)
		setInt(&cfg.Listener.PreRollMS, l.PreRollMS)
		setInt(&cfg.Listener.MinSpeechMS, l.MinSpeechMS)
		setFloat(&cfg.Listener.EnergyThreshold, l.EnergyThreshold)
		setFloat(&cfg.Listener.VoiceRatio, l.VoiceRatio)
		setInt(&cfg.Listener.StopTimeoutMS, l.StopTimeoutMS)
	}

	if n := payload.Narration; n != nil {
		setBool(&cfg.Narration.Preempt, n.Preempt)
		if n.PlayerCmd != nil {
			cmd, err := commandConfig("narration.player_cmd", *n.PlayerCmd)
			if err != nil {
				return nil, err
			}
			cfg.Narration.PlayerCmd = cmd
		}
	}

	if payload.ClipboardCmd != nil {
		cmd, err := commandConfig("clipboard_cmd", *payload.ClipboardCmd)
		if err != nil {
			return nil, err
		}
		cfg.Clipboard = cmd
	}

	if i := payload.Indicator; i != nil {
		setBool(&cfg.Indicator.Enable, i.Enable)
		setBool(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setString(&cfg.Indicator.TextListening, i.TextListening)
		setString(&cfg.Indicator.TextTrigger, i.TextTrigger)
		setString(&cfg.Indicator.TextResume, i.TextResume)
		setString(&cfg.Indicator.TextError, i.TextError)
	}

	if d := payload.Debug; d != nil {
		setBool(&cfg.Debug.EnableAudioDump, d.AudioDump)
		setBool(&cfg.Debug.Verbose, d.Verbose)
	}

	return warnings, nil
}

func commandConfig(field string, raw string) (CommandConfig, error) {
	argv, err := parseArgv(raw)
	if err != nil {
		return CommandConfig{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}

// canonicalInterests maps names onto catalog spelling. Unknown names and
// repeats are dropped with a warning.
func canonicalInterests(names []string) ([]string, []Warning) {
	var (
		out      []string
		warnings []Warning
		seen     = make(map[string]struct{}, len(names))
	)
	for _, name := range names {
		topic, ok := news.LookupTopic(name)
		if !ok {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("interests: unknown topic %q ignored", name)})
			continue
		}
		if _, dup := seen[topic.Name]; dup {
			continue
		}
		seen[topic.Name] = struct{}{}
		out = append(out, topic.Name)
	}
	return out, warnings
}

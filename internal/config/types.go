// Package config resolves, parses, validates, and defaults echonews configuration.
package config

// Config is the fully materialized runtime configuration.
type Config struct {
	News            NewsConfig
	Interests       []string
	Triggers        []string
	RecencyKeywords []string
	QA              QAConfig
	Speech          SpeechConfig
	Audio           AudioConfig
	Listener        ListenerConfig
	Narration       NarrationConfig
	Clipboard       CommandConfig
	Indicator       IndicatorConfig
	Debug           DebugConfig
}

// NewsConfig points at the newsdata.io API.
type NewsConfig struct {
	BaseURL      string
	APIKeyEnv    string
	Language     string
	TopicSize    int
	LatestSize   int
	InterestSize int
	TimeoutMS    int
}

// QAConfig selects the question-answering provider.
type QAConfig struct {
	Provider  string
	Model     string
	APIKeyEnv string
	BaseURL   string
	TimeoutMS int
}

// SpeechConfig controls OpenAI transcription and synthesis.
type SpeechConfig struct {
	APIKeyEnv string
	BaseURL   string
	STTModel  string
	Language  string
	TTSModel  string
	Voice     string
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// ListenerConfig tunes phrase detection on the microphone stream.
type ListenerConfig struct {
	ListenTimeoutMS int
	QuietPeriodMS   int
	MaxPhraseMS     int
	PreRollMS       int
	MinSpeechMS     int
	EnergyThreshold float64
	VoiceRatio      float64
	StopTimeoutMS   int
}

// NarrationConfig controls how spoken replies are played and interrupted.
type NarrationConfig struct {
	// Preempt cuts the current narration when a trigger is heard. When false
	// the interrupting reply waits for the current narration to finish.
	Preempt   bool
	PlayerCmd CommandConfig
}

// IndicatorConfig controls status lines and audio cues.
type IndicatorConfig struct {
	Enable        bool
	SoundEnable   bool
	TextListening string
	TextTrigger   string
	TextResume    string
	TextError     string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
	Verbose         bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

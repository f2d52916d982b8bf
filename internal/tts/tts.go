package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// SampleRate of the raw PCM returned by the speech endpoint.
const SampleRate = 24000

var ErrNothingToSay = errors.New("nothing to say after cleaning")

// PCM is signed 16-bit little-endian mono audio.
type PCM struct {
	Data       []byte
	SampleRate int
}

// Duration of the clip.
func (p PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	samples := len(p.Data) / 2
	return time.Duration(samples) * time.Second / time.Duration(p.SampleRate)
}

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Voice      string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Synthesizer calls the OpenAI speech endpoint.
type Synthesizer struct {
	client openai.Client
	model  string
	voice  string
	logger *slog.Logger
}

func New(opts Options) *Synthesizer {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	s := &Synthesizer{
		client: openai.NewClient(reqOpts...),
		model:  opts.Model,
		voice:  opts.Voice,
		logger: opts.Logger,
	}
	if s.model == "" {
		s.model = string(openai.SpeechModelTTS1)
	}
	if s.voice == "" {
		s.voice = string(openai.AudioSpeechNewParamsVoiceAlloy)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Synthesize cleans text and returns raw PCM for it.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) (PCM, error) {
	cleaned := CleanText(text)
	if cleaned == "" {
		return PCM{}, ErrNothingToSay
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          cleaned,
		Model:          openai.SpeechModel(s.model),
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatPCM,
	})
	if err != nil {
		return PCM{}, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return PCM{}, fmt.Errorf("read speech audio: %w", err)
	}
	if len(data)%2 == 1 {
		data = data[:len(data)-1]
	}

	s.logger.Debug("speech synthesized", "chars", len(cleaned), "bytes", len(data))
	return PCM{Data: data, SampleRate: SampleRate}, nil
}

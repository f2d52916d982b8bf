// Package qa answers general questions through a hosted language model.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type Provider string

const (
	ProviderNone      Provider = "none"
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const (
	MsgDisabled  = "Sorry, AI Q&A is not enabled in this demo."
	msgFailedFmt = "Sorry, I couldn't answer that right now. Error: %s"
)

var ErrEmptyAnswer = errors.New("model returned no text")

// Default models per provider.
var DefaultModels = map[Provider]string{
	ProviderGemini:    "gemini-2.5-flash",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-haiku-4-5",
}

// ParseProvider accepts a provider name. Blank means none.
func ParseProvider(raw string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(raw))); p {
	case "", ProviderNone:
		return ProviderNone, nil
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
		return p, nil
	default:
		return "", fmt.Errorf("unknown qa provider %q", raw)
	}
}

type Options struct {
	Provider   Provider
	Model      string
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// completer sends one prompt and returns the model's text.
type completer func(ctx context.Context, prompt string) (string, error)

// Service is the question-answering path. A disabled service answers every
// question with MsgDisabled.
type Service struct {
	provider Provider
	model    string
	timeout  time.Duration
	complete completer
	logger   *slog.Logger
}

// New builds the provider client. A missing API key disables the service
// rather than failing startup.
func New(ctx context.Context, opts Options) (*Service, error) {
	s := &Service{
		provider: opts.Provider,
		model:    strings.TrimSpace(opts.Model),
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.provider == "" {
		s.provider = ProviderNone
	}
	if s.model == "" {
		s.model = DefaultModels[s.provider]
	}
	if s.provider != ProviderNone && strings.TrimSpace(opts.APIKey) == "" {
		s.logger.Warn("qa api key missing; question answering disabled", "provider", string(s.provider))
		s.provider = ProviderNone
	}

	var err error
	switch s.provider {
	case ProviderNone:
	case ProviderGemini:
		s.complete, err = newGemini(ctx, opts, s.model)
	case ProviderOpenAI:
		s.complete = newOpenAI(opts, s.model)
	case ProviderAnthropic:
		s.complete = newAnthropic(opts, s.model)
	default:
		return nil, fmt.Errorf("unknown qa provider %q", s.provider)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Enabled reports whether questions reach a model.
func (s *Service) Enabled() bool {
	return s.complete != nil
}

// Provider returns the effective provider after key checks.
func (s *Service) Provider() Provider {
	return s.provider
}

// Answer returns the model's reply, or a literal explanation when the
// service is disabled or the call fails.
func (s *Service) Answer(ctx context.Context, question string) string {
	if !s.Enabled() {
		return MsgDisabled
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	answer, err := s.complete(ctx, question)
	if err == nil && strings.TrimSpace(answer) == "" {
		err = ErrEmptyAnswer
	}
	if err != nil {
		s.logger.Error("qa request failed", "provider", string(s.provider), "model", s.model, "error", err.Error())
		return fmt.Sprintf(msgFailedFmt, err)
	}

	s.logger.Info("qa answered", "provider", string(s.provider), "model", s.model, "latency_ms", time.Since(started).Milliseconds())
	return strings.TrimSpace(answer)
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/rbright/echonews/internal/audio"
	"github.com/rbright/echonews/internal/config"
	"github.com/rbright/echonews/internal/dispatch"
	"github.com/rbright/echonews/internal/indicator"
	"github.com/rbright/echonews/internal/ipc"
	"github.com/rbright/echonews/internal/logging"
	"github.com/rbright/echonews/internal/news"
	"github.com/rbright/echonews/internal/output"
	"github.com/rbright/echonews/internal/qa"
	"github.com/rbright/echonews/internal/quiz"
	"github.com/rbright/echonews/internal/render"
	"github.com/rbright/echonews/internal/session"
	"github.com/rbright/echonews/internal/stt"
	"github.com/rbright/echonews/internal/trigger"
	"github.com/rbright/echonews/internal/tts"
	"github.com/rbright/echonews/internal/vad"
	"github.com/spf13/afero"
)

// services are the clients one session needs, built from config.
type services struct {
	news       *news.Client
	dispatcher *dispatch.Dispatcher
	triggers   *trigger.Detector
	narrator   session.Narrator
	clipboard  session.Clipboard
}

func buildServices(ctx context.Context, cfg config.Config, narrator session.Narrator, logger *slog.Logger) (services, error) {
	newsClient := news.NewClient(news.Options{
		BaseURL:      cfg.News.BaseURL,
		APIKey:       config.Secret(cfg.News.APIKeyEnv),
		Language:     cfg.News.Language,
		TopicSize:    cfg.News.TopicSize,
		LatestSize:   cfg.News.LatestSize,
		InterestSize: cfg.News.InterestSize,
		Timeout:      ms(cfg.News.TimeoutMS),
	})

	provider, err := qa.ParseProvider(cfg.QA.Provider)
	if err != nil {
		return services{}, err
	}
	answerer, err := qa.New(ctx, qa.Options{
		Provider: provider,
		Model:    cfg.QA.Model,
		APIKey:   config.Secret(cfg.QAKeyEnv()),
		BaseURL:  cfg.QA.BaseURL,
		Timeout:  ms(cfg.QA.TimeoutMS),
		Logger:   logger,
	})
	if err != nil {
		return services{}, fmt.Errorf("setup question answering: %w", err)
	}

	svc := services{
		news:       newsClient,
		dispatcher: dispatch.New(dispatch.NewClassifier(cfg.RecencyKeywords), newsClient, answerer, logger),
		triggers:   trigger.New(cfg.Triggers),
		narrator:   narrator,
	}
	if len(cfg.Clipboard.Argv) > 0 {
		svc.clipboard = output.NewClipboard(cfg.Clipboard, logger)
	}
	return svc, nil
}

func (s services) options(cfg config.Config, logger *slog.Logger, ind indicator.Controller, listenErr func() error) session.Options {
	return session.Options{
		Logger:     logger,
		Triggers:   s.triggers,
		Dispatcher: s.dispatcher,
		Feed:       s.news,
		Narrator:   s.narrator,
		Indicator:  ind,
		Clipboard:  s.clipboard,
		Quiz:       quiz.New(nil, 0),
		Preempt:    cfg.Narration.Preempt,
		ListenErr:  listenErr,
	}
}

// newNarrator speaks through OpenAI speech and PulseAudio, or player_cmd
// when set. Without speech, replies are printed instead.
func newNarrator(cfg config.Config, noSpeech bool, printer *render.Printer, logger *slog.Logger) session.Narrator {
	if noSpeech {
		return session.NarratorFunc(func(ctx context.Context, text string) error {
			printer.Response(ipc.Response{OK: true, Text: text})
			return ctx.Err()
		})
	}

	synth := tts.New(tts.Options{
		APIKey:  config.Secret(cfg.Speech.APIKeyEnv),
		BaseURL: cfg.Speech.BaseURL,
		Model:   cfg.Speech.TTSModel,
		Voice:   cfg.Speech.Voice,
		Logger:  logger,
	})
	var player session.Player = audio.NewPlayer("")
	if len(cfg.Narration.PlayerCmd.Argv) > 0 {
		player = output.NewCommandPlayer(cfg.Narration.PlayerCmd)
	}
	return session.NewSpeechNarrator(synth, player)
}

// newTranscriber keeps each phrase in memory unless audio dumps are enabled,
// in which case WAV files are kept under the state dir.
func newTranscriber(cfg config.Config, logger *slog.Logger) (*stt.Transcriber, error) {
	opts := stt.Options{
		APIKey:   config.Secret(cfg.Speech.APIKeyEnv),
		BaseURL:  cfg.Speech.BaseURL,
		Model:    cfg.Speech.STTModel,
		Language: cfg.Speech.Language,
		Logger:   logger,
	}
	if cfg.Debug.EnableAudioDump {
		dir, err := logging.StateDir()
		if err != nil {
			return nil, fmt.Errorf("resolve audio dump dir: %w", err)
		}
		opts.Fs = afero.NewOsFs()
		opts.Dir = filepath.Join(dir, "audio")
		opts.Keep = true
	}
	return stt.New(opts), nil
}

func newSegmenter(cfg config.ListenerConfig) *vad.Segmenter {
	detector := vad.NewDetector(stt.SampleRate, cfg.EnergyThreshold, cfg.VoiceRatio)
	return vad.NewSegmenter(detector, vad.Config{
		ListenTimeout: ms(cfg.ListenTimeoutMS),
		QuietPeriod:   ms(cfg.QuietPeriodMS),
		MaxPhrase:     ms(cfg.MaxPhraseMS),
		PreRoll:       ms(cfg.PreRollMS),
		MinSpeech:     ms(cfg.MinSpeechMS),
	})
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

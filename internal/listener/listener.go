// Package listener owns the microphone and turns speech into utterances.
package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/echonews/internal/audio"
	"github.com/rbright/echonews/internal/stt"
	"github.com/rbright/echonews/internal/vad"
)

// Utterance is one recognized phrase. It is consumed exactly once. Err is
// set instead of Text when the phrase could not be transcribed.
type Utterance struct {
	Text string
	At   time.Time
	Err  error
}

// Source is an open microphone stream.
type Source interface {
	Frames() <-chan []byte
	Stop() error
}

// OpenFunc acquires the microphone.
type OpenFunc func(context.Context) (Source, error)

// Segmenter cuts frames into phrases.
type Segmenter interface {
	Next(ctx context.Context, source <-chan []byte) ([]byte, error)
}

// Transcriber converts one phrase of PCM to text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte) (string, error)
}

// Loop runs the listen/segment/transcribe cycle on its own goroutine.
type Loop struct {
	open       OpenFunc
	segmenter  Segmenter
	transcribe Transcriber
	logger     *slog.Logger
	now        func() time.Time

	out  chan Utterance
	done chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	lastErr error
}

// New constructs a loop. Call Start to begin listening.
func New(open OpenFunc, segmenter Segmenter, transcriber Transcriber, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		open:       open,
		segmenter:  segmenter,
		transcribe: transcriber,
		logger:     logger,
		now:        time.Now,
		out:        make(chan Utterance),
		done:       make(chan struct{}),
	}
}

// Utterances is closed when the loop ends.
func (l *Loop) Utterances() <-chan Utterance {
	return l.out
}

// Err returns the error that ended the loop, if any.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

func (l *Loop) setErr(err error) {
	l.mu.Lock()
	l.lastErr = err
	l.mu.Unlock()
}

// Start launches the loop once. Later calls are no-ops.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.started = true

	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	go l.run(ctx)
}

// Stop cancels the loop and waits up to timeout for it to exit. It reports
// false when the goroutine did not finish in time and was abandoned.
func (l *Loop) Stop(timeout time.Duration) bool {
	l.mu.Lock()
	cancel := l.cancel
	started := l.started
	l.mu.Unlock()

	if !started {
		return true
	}
	cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-l.done:
		return true
	case <-timer.C:
		l.logger.Warn("listener did not stop in time; abandoning", "timeout_ms", timeout.Milliseconds())
		return false
	}
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	defer close(l.out)

	src, err := l.open(ctx)
	if err != nil {
		if ctx.Err() == nil {
			l.setErr(fmt.Errorf("acquire microphone: %w", err))
			l.logger.Error("microphone unavailable; listener stopped", "error", err.Error())
		}
		return
	}
	defer func() { _ = src.Stop() }()
	l.logger.Debug("listener started")

	for {
		pcm, err := l.segmenter.Next(ctx, src.Frames())
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, vad.ErrListenTimeout):
			continue
		case errors.Is(err, vad.ErrSourceClosed):
			l.setErr(fmt.Errorf("microphone stream ended: %w", err))
			l.logger.Error("microphone stream ended; listener stopped")
			return
		case err != nil:
			l.logger.Warn("phrase segmentation failed", "error", err.Error())
			continue
		}

		u := Utterance{At: l.now()}
		u.Text, u.Err = l.transcribe.Transcribe(ctx, pcm)
		if u.Err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(u.Err, stt.ErrNoAudio) {
				continue
			}
			l.logTranscribeError(u.Err)
		}

		select {
		case l.out <- u:
		case <-ctx.Done():
			return
		}
	}
}

func (l *Loop) logTranscribeError(err error) {
	if errors.Is(err, stt.ErrUnrecognized) {
		l.logger.Debug("utterance not recognized", "error", err.Error())
		return
	}
	l.logger.Warn("speech recognition failed", "error", err.Error())
}

// Microphone opens the configured PulseAudio source.
func Microphone(input string, fallback string, logger *slog.Logger) OpenFunc {
	return func(ctx context.Context) (Source, error) {
		capture, selection, err := audio.OpenMicrophone(ctx, input, fallback)
		if err != nil {
			return nil, err
		}
		if selection.Warning != "" && logger != nil {
			logger.Warn(selection.Warning)
		}
		if logger != nil {
			logger.Info("microphone opened", "device", DescribeDevice(selection.Device))
		}
		return capture, nil
	}
}

// DescribeDevice formats device metadata for logs and status output.
func DescribeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}

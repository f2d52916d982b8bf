// Package stt transcribes captured speech with the OpenAI transcription API.
package stt

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spf13/afero"
)

// SampleRate of the PCM handed to Transcribe.
const SampleRate = 16000

var (
	// ErrUnrecognized means the service heard nothing it could turn into words.
	ErrUnrecognized = errors.New("could not understand audio")
	// ErrServiceUnavailable wraps any failure talking to the service.
	ErrServiceUnavailable = errors.New("speech recognition service error")
	ErrNoAudio            = errors.New("no audio captured")
)

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Language   string
	HTTPClient *http.Client
	// Fs receives the encoded WAV before upload. Nil means in-memory.
	Fs afero.Fs
	// Dir is where WAV files are written on Fs.
	Dir string
	// Keep leaves WAV files on Fs after upload for debugging.
	Keep   bool
	Logger *slog.Logger
}

type Transcriber struct {
	client   openai.Client
	model    string
	language string
	fs       afero.Fs
	dir      string
	keep     bool
	logger   *slog.Logger
	now      func() time.Time
}

func New(opts Options) *Transcriber {
	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}

	t := &Transcriber{
		client:   openai.NewClient(reqOpts...),
		model:    opts.Model,
		language: opts.Language,
		fs:       opts.Fs,
		dir:      opts.Dir,
		keep:     opts.Keep,
		logger:   opts.Logger,
		now:      time.Now,
	}
	if t.model == "" {
		t.model = string(openai.AudioModelWhisper1)
	}
	if t.fs == nil {
		t.fs = afero.NewMemMapFs()
	}
	if t.dir == "" {
		t.dir = "/"
	}
	if t.logger == nil {
		t.logger = slog.New(slog.DiscardHandler)
	}
	return t
}

// Transcribe uploads one phrase of 16 kHz s16le mono PCM and returns its text.
func (t *Transcriber) Transcribe(ctx context.Context, pcm []byte) (string, error) {
	if len(pcm) < 2 {
		return "", ErrNoAudio
	}

	path, err := t.writeWAV(pcm)
	if err != nil {
		return "", err
	}
	if !t.keep {
		defer func() { _ = t.fs.Remove(path) }()
	}

	f, err := t.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:  f,
		Model: openai.AudioModel(t.model),
	}
	if t.language != "" {
		params.Language = openai.String(t.language)
	}

	started := time.Now()
	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text)
	t.logger.Debug("speech transcribed",
		"bytes", len(pcm),
		"chars", len(text),
		"latency_ms", time.Since(started).Milliseconds(),
	)
	if text == "" {
		return "", ErrUnrecognized
	}
	return text, nil
}

func (t *Transcriber) writeWAV(pcm []byte) (string, error) {
	if err := t.fs.MkdirAll(t.dir, 0o700); err != nil {
		return "", fmt.Errorf("create wav dir: %w", err)
	}

	path := filepath.Join(t.dir, fmt.Sprintf("utterance-%s.wav", t.now().UTC().Format("20060102T150405.000000000")))
	f, err := t.fs.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o600)
	if err != nil {
		return "", fmt.Errorf("create wav: %w", err)
	}

	if err := EncodeWAV(f, pcm); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close wav: %w", err)
	}
	return path, nil
}

// EncodeWAV writes 16 kHz s16le mono PCM as a WAV stream.
func EncodeWAV(w io.WriteSeeker, pcm []byte) error {
	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	enc := wav.NewEncoder(w, SampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: SampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rbright/echonews/internal/tts"
)

// maxSpeechChars keeps each synthesis request under the speech API limit.
const maxSpeechChars = 4000

// Narrator speaks text and returns when playback ends or ctx is done.
type Narrator interface {
	Narrate(ctx context.Context, text string) error
}

// NarratorFunc adapts a function to the Narrator interface.
type NarratorFunc func(context.Context, string) error

func (f NarratorFunc) Narrate(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Synthesizer turns text into PCM.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (tts.PCM, error)
}

// Player plays s16le mono PCM. audio.Player and output.CommandPlayer both
// satisfy it.
type Player interface {
	Play(ctx context.Context, pcm []byte, sampleRate int) error
}

// SpeechNarrator synthesizes and plays text in passages that each fit one
// speech request.
type SpeechNarrator struct {
	synth  Synthesizer
	player Player
}

func NewSpeechNarrator(synth Synthesizer, player Player) *SpeechNarrator {
	return &SpeechNarrator{synth: synth, player: player}
}

func (n *SpeechNarrator) Narrate(ctx context.Context, text string) error {
	for _, passage := range passages(text, maxSpeechChars) {
		if err := ctx.Err(); err != nil {
			return err
		}
		pcm, err := n.synth.Synthesize(ctx, passage)
		if errors.Is(err, tts.ErrNothingToSay) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("synthesize narration: %w", err)
		}
		if err := n.player.Play(ctx, pcm.Data, pcm.SampleRate); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("play narration: %w", err)
		}
	}
	return nil
}

// SilentNarrator finishes immediately. It backs --no-speech.
type SilentNarrator struct{}

func (SilentNarrator) Narrate(ctx context.Context, _ string) error {
	return ctx.Err()
}

// passages splits text on blank lines and packs the pieces into chunks of at
// most limit bytes. A single oversized paragraph is split on word boundaries.
// runeCut returns the last rune boundary at or before limit, or the end of
// the first rune when it alone exceeds limit.
func runeCut(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(s)
		cut = size
	}
	return cut
}

func passages(text string, limit int) []string {
	var (
		out     []string
		current strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			out = append(out, s)
		}
		current.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+2+len(para) > limit {
			flush()
		}
		for len(para) > limit {
			cut := strings.LastIndexByte(para[:limit], ' ')
			if cut <= 0 {
				cut = runeCut(para, limit)
			}
			if current.Len() > 0 {
				flush()
			}
			out = append(out, strings.TrimSpace(para[:cut]))
			para = strings.TrimSpace(para[cut:])
		}
		if para == "" {
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return out
}

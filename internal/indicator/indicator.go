// Package indicator renders listener/narration state and plays audio cues.
package indicator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rbright/echonews/internal/config"
)

// Controller is the session-facing indicator contract.
type Controller interface {
	ShowListening(context.Context)
	ShowTrigger(context.Context, string)
	ShowNarrating(context.Context, string)
	ShowResume(context.Context)
	ShowError(context.Context, string)
	Hide(context.Context)
}

const previewWidth = 72

type styles struct {
	listening lipgloss.Style
	trigger   lipgloss.Style
	narrating lipgloss.Style
	resume    lipgloss.Style
	errorText lipgloss.Style
	dim       lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	badge := r.NewStyle().Bold(true)
	return styles{
		listening: badge.Foreground(lipgloss.Color("#89b4fa")),
		trigger:   badge.Foreground(lipgloss.Color("#f9e2af")),
		narrating: badge.Foreground(lipgloss.Color("#a6e3a1")),
		resume:    badge.Foreground(lipgloss.Color("#cba6f7")),
		errorText: badge.Foreground(lipgloss.Color("#f38ba8")),
		dim:       r.NewStyle().Foreground(lipgloss.Color("#6e7681")),
	}
}

// Terminal writes one styled status line per state change and plays cues
// through a CuePlayer.
type Terminal struct {
	cfg      config.IndicatorConfig
	out      io.Writer
	cues     CuePlayer
	logger   *slog.Logger
	messages messages
	styles   styles

	mu      sync.Mutex
	visible bool
	soundMu sync.Mutex
}

// NewTerminal creates an indicator writing to out. cues may be nil.
func NewTerminal(cfg config.IndicatorConfig, out io.Writer, cues CuePlayer, logger *slog.Logger) *Terminal {
	if out == nil {
		out = io.Discard
	}
	return &Terminal{
		cfg:      cfg,
		out:      out,
		cues:     cues,
		logger:   logger,
		messages: messagesFor(cfg),
		styles:   newStyles(lipgloss.NewRenderer(out)),
	}
}

// ShowListening signals that the microphone is open.
func (t *Terminal) ShowListening(ctx context.Context) {
	t.playCue(ctx, cueListening)
	t.line(t.styles.listening, "●", t.messages.listening)
}

// ShowTrigger signals a detected trigger and the query it carried.
func (t *Terminal) ShowTrigger(ctx context.Context, query string) {
	t.playCue(ctx, cueTrigger)
	t.line(t.styles.trigger, "◆", fmt.Sprintf("%s: %s", t.messages.trigger, query))
}

// ShowNarrating previews the text being spoken.
func (t *Terminal) ShowNarrating(_ context.Context, text string) {
	t.line(t.styles.narrating, "▶", fmt.Sprintf("%s: %s", t.messages.narrating, preview(text)))
}

// ShowResume signals that paused narration is starting again.
func (t *Terminal) ShowResume(ctx context.Context) {
	t.playCue(ctx, cueResume)
	t.line(t.styles.resume, "↺", t.messages.resume)
}

// ShowError displays an error-state message.
func (t *Terminal) ShowError(ctx context.Context, text string) {
	t.playCue(ctx, cueError)
	if strings.TrimSpace(text) == "" {
		text = t.messages.errorText
	}
	t.line(t.styles.errorText, "✖", text)
}

// Hide marks the indicator idle. Repeated calls print nothing.
func (t *Terminal) Hide(context.Context) {
	if !t.cfg.Enable {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.visible {
		return
	}
	t.visible = false
	t.write(t.styles.dim.Render("■ idle"))
}

func (t *Terminal) line(style lipgloss.Style, glyph string, text string) {
	if !t.cfg.Enable {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visible = true
	t.write(style.Render(glyph+" "+text))
}

// write must be called with mu held.
func (t *Terminal) write(rendered string) {
	if _, err := fmt.Fprintln(t.out, rendered); err != nil {
		t.log("indicator write failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (t *Terminal) playCue(ctx context.Context, kind cueKind) {
	if !t.cfg.SoundEnable || t.cues == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		t.soundMu.Lock()
		defer t.soundMu.Unlock()
		cueCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := emitCue(cueCtx, t.cues, kind); err != nil {
			t.log("indicator audio cue failed", err)
		}
	}()
}

func (t *Terminal) log(message string, err error) {
	if t.logger == nil || err == nil {
		return
	}
	t.logger.Debug(message, "error", err.Error())
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= previewWidth {
		return text
	}
	return string(runes[:previewWidth-1]) + "…"
}

// Noop discards every indicator call.
type Noop struct{}

func (Noop) ShowListening(context.Context)         {}
func (Noop) ShowTrigger(context.Context, string)   {}
func (Noop) ShowNarrating(context.Context, string) {}
func (Noop) ShowResume(context.Context)            {}
func (Noop) ShowError(context.Context, string)     {}
func (Noop) Hide(context.Context)                  {}

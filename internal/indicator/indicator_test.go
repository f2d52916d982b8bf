package indicator

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rbright/echonews/internal/config"
	"github.com/stretchr/testify/require"
)

type recordingCuePlayer struct {
	mu    sync.Mutex
	calls [][]int16
	rates []int
}

func (p *recordingCuePlayer) PlaySamples(_ context.Context, samples []int16, sampleRate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, samples)
	p.rates = append(p.rates, sampleRate)
	return nil
}

func (p *recordingCuePlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func TestTerminalWritesStatusLines(t *testing.T) {
	var out bytes.Buffer
	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	cfg.TextTrigger = "Got it"

	term := NewTerminal(cfg, &out, nil, nil)
	ctx := context.Background()
	term.ShowListening(ctx)
	term.ShowTrigger(ctx, "latest technology news")
	term.ShowNarrating(ctx, "🔹 Title -   Description\n\n🔹 Next")
	term.ShowResume(ctx)
	term.ShowError(ctx, "")
	term.Hide(ctx)
	term.Hide(ctx)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	require.Contains(t, lines[0], "Listening")
	require.Contains(t, lines[1], "Got it: latest technology news")
	require.Contains(t, lines[2], "Narrating: 🔹 Title - Description 🔹 Next")
	require.Contains(t, lines[3], "Resuming")
	require.Contains(t, lines[4], "Something went wrong")
	require.Contains(t, lines[5], "idle")
}

func TestTerminalDisabledWritesNothing(t *testing.T) {
	var out bytes.Buffer
	cfg := config.Default().Indicator
	cfg.Enable = false
	cfg.SoundEnable = false

	term := NewTerminal(cfg, &out, nil, nil)
	term.ShowListening(context.Background())
	term.ShowError(context.Background(), "ignored")
	term.Hide(context.Background())
	require.Empty(t, out.String())
}

func TestTerminalPlaysCuesWhenSoundEnabled(t *testing.T) {
	player := &recordingCuePlayer{}
	cfg := config.Default().Indicator
	cfg.Enable = false
	cfg.SoundEnable = true

	term := NewTerminal(cfg, nil, player, nil)
	term.ShowListening(context.Background())
	term.ShowTrigger(context.Background(), "q")
	term.ShowNarrating(context.Background(), "no cue")
	term.ShowResume(context.Background())

	require.Eventually(t, func() bool { return player.count() == 3 }, time.Second, 5*time.Millisecond)
	player.mu.Lock()
	defer player.mu.Unlock()
	for _, rate := range player.rates {
		require.Equal(t, cueSampleRate, rate)
	}
}

func TestTerminalSkipsCuesWhenSoundDisabled(t *testing.T) {
	player := &recordingCuePlayer{}
	cfg := config.Default().Indicator
	cfg.SoundEnable = false

	term := NewTerminal(cfg, nil, player, nil)
	term.ShowListening(context.Background())
	term.ShowError(context.Background(), "boom")
	time.Sleep(20 * time.Millisecond)
	require.Zero(t, player.count())
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("a", previewWidth+10)
	got := preview(long)
	require.Len(t, []rune(got), previewWidth)
	require.True(t, strings.HasSuffix(got, "…"))
	require.Equal(t, "short text", preview("  short \n text "))
}

func TestNoopSatisfiesController(t *testing.T) {
	var c Controller = Noop{}
	c.ShowListening(context.Background())
	c.Hide(context.Background())
}

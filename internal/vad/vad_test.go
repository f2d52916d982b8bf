package vad

import (
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testRate        = 16000
	samplesPerFrame = 320
	bytesPerFrame   = samplesPerFrame * 2
	testThreshold   = 500
	testVoiceRatio  = 0.5
	speechAmplitude = 8000
	hissAmplitude   = 8000
	voiceToneHz     = 1000
	outOfBandToneHz = 6000
)

func tone(freq float64, amplitude float64) []byte {
	out := make([]byte, bytesPerFrame)
	for i := 0; i < samplesPerFrame; i++ {
		v := amplitude * math.Sin(2*math.Pi*freq*float64(i)/testRate)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(v)))
	}
	return out
}

func silence() []byte { return make([]byte, bytesPerFrame) }

func speech() []byte { return tone(voiceToneHz, speechAmplitude) }

func feed(frames ...[]byte) <-chan []byte {
	ch := make(chan []byte, len(frames))
	for _, f := range frames {
		ch <- f
	}
	close(ch)
	return ch
}

func repeat(f func() []byte, n int) [][]byte {
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, f())
	}
	return out
}

func concat(groups ...[][]byte) [][]byte {
	var out [][]byte
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func newTestSegmenter(cfg Config) *Segmenter {
	return NewSegmenter(NewDetector(testRate, testThreshold, testVoiceRatio), cfg)
}

func TestDetectorIsSpeech(t *testing.T) {
	d := NewDetector(testRate, testThreshold, testVoiceRatio)

	require.True(t, d.IsSpeech(speech()))
	require.False(t, d.IsSpeech(silence()), "silence")
	require.False(t, d.IsSpeech(tone(voiceToneHz, 100)), "quiet voice band tone")
	require.False(t, d.IsSpeech(tone(outOfBandToneHz, hissAmplitude)), "loud hiss outside voice band")
	require.False(t, d.IsSpeech([]byte{1}), "short frame")
}

func TestSegmenterReturnsPhraseWithPreRollAndTrailingQuiet(t *testing.T) {
	s := newTestSegmenter(Config{QuietPeriod: 60 * time.Millisecond, PreRoll: 40 * time.Millisecond})
	frames := concat(repeat(silence, 3), repeat(speech, 5), repeat(silence, 3), repeat(speech, 2))

	phrase, err := s.Next(context.Background(), feed(frames...))
	require.NoError(t, err)
	require.Len(t, phrase, 10*bytesPerFrame)
	require.Equal(t, silence(), phrase[:bytesPerFrame])
	require.Equal(t, speech(), phrase[2*bytesPerFrame:3*bytesPerFrame])
}

func TestSegmenterListenTimeout(t *testing.T) {
	s := newTestSegmenter(Config{ListenTimeout: 100 * time.Millisecond, QuietPeriod: 60 * time.Millisecond})

	_, err := s.Next(context.Background(), feed(repeat(silence, 10)...))
	require.ErrorIs(t, err, ErrListenTimeout)
}

func TestSegmenterCapsPhraseLength(t *testing.T) {
	s := newTestSegmenter(Config{QuietPeriod: time.Second, MaxPhrase: 100 * time.Millisecond})

	phrase, err := s.Next(context.Background(), feed(repeat(speech, 20)...))
	require.NoError(t, err)
	require.Len(t, phrase, 5*bytesPerFrame)
}

func TestSegmenterDropsNoiseBursts(t *testing.T) {
	s := newTestSegmenter(Config{QuietPeriod: 40 * time.Millisecond, MinSpeech: 60 * time.Millisecond})
	frames := concat(repeat(speech, 1), repeat(silence, 2), repeat(speech, 3), repeat(silence, 2))

	phrase, err := s.Next(context.Background(), feed(frames...))
	require.NoError(t, err)
	require.Len(t, phrase, 5*bytesPerFrame)
}

func TestSegmenterSourceClosed(t *testing.T) {
	s := newTestSegmenter(Config{QuietPeriod: time.Second})

	_, err := s.Next(context.Background(), feed(repeat(silence, 2)...))
	require.ErrorIs(t, err, ErrSourceClosed)

	phrase, err := s.Next(context.Background(), feed(repeat(speech, 3)...))
	require.NoError(t, err, "speech cut off by close is still returned")
	require.Len(t, phrase, 3*bytesPerFrame)
}

func TestSegmenterHonorsContext(t *testing.T) {
	s := newTestSegmenter(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Next(ctx, make(chan []byte))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRingKeepsNewestFramesInOrder(t *testing.T) {
	r := newRing(2)
	r.Add([]byte{1})
	r.Add([]byte{2})
	r.Add([]byte{3})
	require.Equal(t, [][]byte{{2}, {3}}, r.Drain())
	require.Empty(t, r.Drain())

	zero := newRing(0)
	zero.Add([]byte{1})
	require.Empty(t, zero.Drain())
}
